package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/suhasramanand/homefit-sub000/internal/cache"
	"github.com/suhasramanand/homefit-sub000/internal/config"
	"github.com/suhasramanand/homefit-sub000/internal/explain"
	"github.com/suhasramanand/homefit-sub000/internal/llm"
	"github.com/suhasramanand/homefit-sub000/internal/server"
	"github.com/suhasramanand/homefit-sub000/internal/source"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the match API server",
	Long:  `Serve starts the HTTP API: scored match pages with cached results and explanations. Requires DATABASE_URL (or database_url in the config file) for the listing source.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to JSON config file (optional; env vars always apply)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database_url is required to serve")
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required to serve")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()

	pg, err := source.ConnectPG(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pg.Close()

	var store cache.Store
	if cfg.CachePath != "" {
		bolt, err := cache.OpenBoltStore(cfg.CachePath)
		if err != nil {
			return fmt.Errorf("failed to open cache store: %w", err)
		}
		store = bolt
		logger.Info("using persistent result cache", zap.String("path", cfg.CachePath))
	} else {
		store = cache.NewMemoryStore()
	}
	defer func() { _ = store.Close() }()

	ttl := cache.DefaultTTL
	if cfg.CacheTTLHours > 0 {
		ttl = time.Duration(cfg.CacheTTLHours) * time.Hour
	}
	results := cache.NewResultCache(store, ttl)

	var llmClient llm.Client
	if cfg.APIKey != "" {
		llmClient, err = llm.NewClient(ctx, nil, cfg.APIKey)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer func() { _ = llmClient.Close() }()
	} else {
		logger.Warn("no API key configured, explanations use the deterministic fallback")
	}
	explainer, err := explain.NewService(llmClient, explain.NewRateLimitState(cfg.ExplainBudget))
	if err != nil {
		return err
	}

	// The HTTP client fronts a remote listing service when configured;
	// otherwise Postgres serves matches directly and saved-state toggles
	// are disabled.
	var (
		matchSource source.Source = pg
		toggler     source.SavedToggler
	)
	if cfg.SourceURL != "" {
		httpClient, err := source.NewClient(&source.Options{
			BaseURL: cfg.SourceURL,
			Token:   cfg.SourceToken,
		})
		if err != nil {
			return fmt.Errorf("failed to create source client: %w", err)
		}
		matchSource = httpClient
		toggler = httpClient
	}

	srv, err := server.New(server.Config{
		Port:            cfg.Port,
		JWTSecret:       cfg.JWTSecret,
		Source:          matchSource,
		Prefs:           pg,
		Saved:           toggler,
		Results:         results,
		Explainer:       explainer,
		Explanations:    explain.NewCache(),
		Logger:          logger,
		RefreshCooldown: time.Duration(cfg.RefreshCooldownSeconds) * time.Second,
	})
	if err != nil {
		return err
	}

	return srv.Start()
}
