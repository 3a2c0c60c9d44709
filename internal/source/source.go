// Package source provides access to the listing source: the upstream
// that returns scored, sorted, paged matches for a preference set. Two
// implementations are provided, an HTTP client for a remote source and a
// Postgres-backed source that scores rows locally.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/suhasramanand/homefit-sub000/internal/types"
)

// ErrUnauthorized is returned when the source rejects the caller's
// session. Callers must treat it as fatal for cached data: stale matches
// are never shown to an unauthenticated caller.
var ErrUnauthorized = errors.New("listing source rejected credentials")

// Source fetches match results for a preference set.
type Source interface {
	// FetchMatches returns one page of scored matches for prefSetID,
	// narrowed and ordered by query.
	FetchMatches(ctx context.Context, prefSetID uuid.UUID, query types.Query) (*types.MatchPage, error)
}

// PreferenceLoader resolves a preference set by ID. The Postgres source
// implements it; consumers that only have the HTTP source must obtain
// preference sets from their own collaborator.
type PreferenceLoader interface {
	LoadPreferenceSet(ctx context.Context, id uuid.UUID) (*types.PreferenceSet, error)
}

// SavedToggler flips a listing's saved status for the current user.
type SavedToggler interface {
	ToggleSaved(ctx context.Context, listingID uuid.UUID, current bool) ToggleOutcome
}

// Error represents a failure talking to the listing source.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("source error during %s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("source error during %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the failure is transient (timeouts, 5xx),
// meaning a stale-cache fallback is appropriate.
func (e *Error) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}
