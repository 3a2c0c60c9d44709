package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suhasramanand/homefit-sub000/internal/matches"
	"github.com/suhasramanand/homefit-sub000/internal/types"
)

// ErrorResponse is the JSON body for error replies.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToggleSavedRequest is the body for the saved-listing toggle.
type ToggleSavedRequest struct {
	Saved bool `json:"saved"` // current state before the flip
}

// ToggleSavedResponse reports the resolved state after the two-phase
// toggle.
type ToggleSavedResponse struct {
	Status string `json:"status"`
	Saved  bool   `json:"saved"`
}

// handleHealth responds to health checks.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMatches serves the match feed for a preference set. Query
// parameters select page, sort, and filters; refresh=true forces a
// cooldown-limited reload.
func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	prefSetID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid preference set id")
		return
	}

	prefs, err := s.cfg.Prefs.LoadPreferenceSet(r.Context(), prefSetID)
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, "preference set not found")
		return
	}

	query := parseQuery(r)
	ctrl := s.controllerFor(prefSetID)

	var snap matches.Snapshot
	if r.URL.Query().Get("refresh") == "true" {
		snap, err = ctrl.Refresh(r.Context(), *prefs, query)
		if errors.Is(err, matches.ErrRefreshCooldown) {
			s.errorResponse(w, http.StatusTooManyRequests, err.Error())
			return
		}
	} else {
		snap = ctrl.Load(r.Context(), *prefs, query, false)
	}

	status := http.StatusOK
	if snap.State == matches.StateError {
		if snap.SessionExpired {
			status = http.StatusUnauthorized
		} else {
			status = http.StatusServiceUnavailable
		}
	}
	s.jsonResponse(w, status, snap)
}

// handleInvalidate is the preference editor's signal that a preference
// set changed: it drops the set's cached results and records the
// updated-at marker.
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	prefSetID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid preference set id")
		return
	}
	s.controllerFor(prefSetID).PreferencesUpdated(prefSetID)
	w.WriteHeader(http.StatusNoContent)
}

// handleToggleSaved flips a listing's saved status. Saved status never
// invalidates cached match results.
func (s *Server) handleToggleSaved(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Saved == nil {
		s.errorResponse(w, http.StatusNotImplemented, "saved listings not configured")
		return
	}
	listingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid listing id")
		return
	}
	var req ToggleSavedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome := s.cfg.Saved.ToggleSaved(r.Context(), listingID, req.Saved)
	if outcome.Err != nil {
		s.logger.Warn("saved toggle rolled back", zap.Error(outcome.Err))
	}
	s.jsonResponse(w, http.StatusOK, ToggleSavedResponse{
		Status: string(outcome.Status),
		Saved:  outcome.Saved,
	})
}

// handleLogout clears every cache. Required on sign-out so one account's
// matches can never leak into another session.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	if err := s.cfg.Results.ClearAll(); err != nil {
		s.logger.Error("cache clear failed", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to clear caches")
		return
	}
	if s.cfg.Explanations != nil {
		s.cfg.Explanations.Clear()
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseQuery builds a match query from URL parameters. Malformed values
// are normalized, never rejected.
func parseQuery(r *http.Request) types.Query {
	v := r.URL.Query()
	q := types.Query{
		Page:      atoiDefault(v.Get("page"), 1),
		PageSize:  atoiDefault(v.Get("limit"), types.DefaultPageSize),
		SortBy:    types.SortField(v.Get("sortBy")),
		SortOrder: types.SortOrder(v.Get("sortOrder")),
		Filters: types.FilterSet{
			PriceMin:      atofDefault(v.Get("minPrice")),
			PriceMax:      atofDefault(v.Get("maxPrice")),
			Bedrooms:      parseIntCSV(v.Get("bedrooms")),
			Bathrooms:     parseIntCSV(v.Get("bathrooms")),
			Neighborhoods: parseCSV(v.Get("neighborhoods")),
			Amenities:     parseCSV(v.Get("amenities")),
		},
	}
	q.Normalize()
	return q
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func atofDefault(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIntCSV(s string) []int {
	var out []int
	for _, part := range parseCSV(s) {
		if n, err := strconv.Atoi(part); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, msg string) {
	s.jsonResponse(w, status, ErrorResponse{Error: msg})
}
