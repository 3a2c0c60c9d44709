// Package server provides the HTTP API for the homefit match core.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suhasramanand/homefit-sub000/internal/cache"
	"github.com/suhasramanand/homefit-sub000/internal/explain"
	"github.com/suhasramanand/homefit-sub000/internal/matches"
	"github.com/suhasramanand/homefit-sub000/internal/server/middleware"
	"github.com/suhasramanand/homefit-sub000/internal/source"
)

// Config holds server configuration and collaborators.
type Config struct {
	Port      int
	JWTSecret string

	Source       source.Source
	Prefs        source.PreferenceLoader
	Saved        source.SavedToggler // optional; nil disables the toggle endpoint
	Results      *cache.ResultCache
	Explainer    *explain.Service
	Explanations *explain.Cache
	Logger       *zap.Logger

	RefreshCooldown time.Duration
}

// Server is the HTTP API server. It shares one result cache and one
// explanation cache across all controllers so concurrently served views
// see consistent data.
type Server struct {
	httpServer *http.Server
	cfg        Config
	logger     *zap.Logger

	mu          sync.Mutex
	controllers map[uuid.UUID]*matches.Controller
}

// New creates a server instance.
func New(cfg Config) (*Server, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("listing source is required")
	}
	if cfg.Prefs == nil {
		return nil, fmt.Errorf("preference loader is required")
	}
	if cfg.Results == nil {
		return nil, fmt.Errorf("result cache is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	s := &Server{
		cfg:         cfg,
		logger:      cfg.Logger,
		controllers: make(map[uuid.UUID]*matches.Controller),
	}

	auth := middleware.Auth(NewJWTService(cfg.JWTSecret).AsTokenValidator())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /preferences/{id}/matches", auth(http.HandlerFunc(s.handleMatches)))
	mux.Handle("POST /preferences/{id}/invalidate", auth(http.HandlerFunc(s.handleInvalidate)))
	mux.Handle("POST /listings/{id}/saved", auth(http.HandlerFunc(s.handleToggleSaved)))
	mux.Handle("POST /session/logout", auth(http.HandlerFunc(s.handleLogout)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		s.logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// controllerFor returns the controller for a preference set, creating it
// on first use. Controllers share the process-wide caches.
func (s *Server) controllerFor(prefSetID uuid.UUID) *matches.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.controllers[prefSetID]; ok {
		return c
	}
	c := matches.NewController(matches.Config{
		Source:          s.cfg.Source,
		Results:         s.cfg.Results,
		Explainer:       s.cfg.Explainer,
		Explanations:    s.cfg.Explanations,
		Logger:          s.logger,
		RefreshCooldown: s.cfg.RefreshCooldown,
	})
	s.controllers[prefSetID] = c
	return c
}

// withLogging logs each request with its duration.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}
