// Package matches orchestrates match-result retrieval: it consults the
// result cache, falls back to the listing source, fills in explanations,
// and exposes a stable view-model to the presentation layer.
package matches

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suhasramanand/homefit-sub000/internal/cache"
	"github.com/suhasramanand/homefit-sub000/internal/explain"
	"github.com/suhasramanand/homefit-sub000/internal/source"
	"github.com/suhasramanand/homefit-sub000/internal/types"
)

// State is the controller's lifecycle state.
type State string

// Controller states. Loading always resolves to Ready or Error.
const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// DefaultRefreshCooldown is the minimum gap between manual refreshes.
const DefaultRefreshCooldown = 30 * time.Second

// Snapshot is the view-model the presentation layer renders. It is a
// value: mutating a snapshot never affects controller state.
type Snapshot struct {
	State          State              `json:"state"`
	Matches        []types.MatchEntry `json:"matches"`
	TotalCount     int                `json:"total_count"`
	FilteredCount  int                `json:"filtered_count"`
	FromCache      bool               `json:"from_cache"`
	Stale          bool               `json:"stale"`
	SessionExpired bool               `json:"session_expired,omitempty"`
	ErrorMessage   string             `json:"error_message,omitempty"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// Config wires a controller's collaborators.
type Config struct {
	Source       source.Source
	Results      *cache.ResultCache
	Explainer    *explain.Service
	Explanations *explain.Cache
	Logger       *zap.Logger
	// RefreshCooldown overrides DefaultRefreshCooldown when positive.
	RefreshCooldown time.Duration
}

// Controller drives one match-result view. The caches it holds are
// process-wide and shared across controllers; the state machine and
// cooldown are per-controller.
type Controller struct {
	src       source.Source
	results   *cache.ResultCache
	explainer *explain.Service
	explCache *explain.Cache
	logger    *zap.Logger
	cooldown  time.Duration
	now       func() time.Time

	mu          sync.Mutex
	generation  uint64
	lastRefresh time.Time
	snapshot    Snapshot
}

// NewController creates a controller in the Idle state.
func NewController(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cooldown := cfg.RefreshCooldown
	if cooldown <= 0 {
		cooldown = DefaultRefreshCooldown
	}
	return &Controller{
		src:       cfg.Source,
		results:   cfg.Results,
		explainer: cfg.Explainer,
		explCache: cfg.Explanations,
		logger:    logger,
		cooldown:  cooldown,
		now:       time.Now,
		snapshot:  Snapshot{State: StateIdle},
	}
}

// Snapshot returns the current view-model.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Load resolves match results for the preference set and query, cache
// first unless force is set. It always leaves the controller in Ready or
// Error, and prefers a serving (cached or degraded) state over an error
// whenever any prior successful fetch exists.
func (c *Controller) Load(ctx context.Context, prefs types.PreferenceSet, query types.Query, force bool) Snapshot {
	query.Normalize()
	gen := c.begin()
	filterKey := query.FilterKey()

	if !force {
		if page, ok := c.results.Read(prefs.ID, filterKey); ok {
			c.logger.Debug("result cache hit",
				zap.String("preference_set", prefs.ID.String()),
				zap.Int("results", len(page.Results)))
			return c.commit(gen, readySnapshot(page, true, false, c.now()))
		}
	}

	page, err := c.src.FetchMatches(ctx, prefs.ID, query)
	if err != nil {
		return c.commit(gen, c.recoverFetch(prefs.ID, filterKey, err))
	}

	c.fillExplanations(ctx, prefs, page)

	if err := c.results.Write(prefs.ID, filterKey, page); err != nil {
		// A failed cache write degrades future reads, not this one.
		c.logger.Warn("result cache write failed", zap.Error(err))
	}
	return c.commit(gen, readySnapshot(page, false, false, c.now()))
}

// Refresh is a manual, forced reload. Requests inside the cooldown
// window return ErrRefreshCooldown without touching the network.
func (c *Controller) Refresh(ctx context.Context, prefs types.PreferenceSet, query types.Query) (Snapshot, error) {
	c.mu.Lock()
	if !c.lastRefresh.IsZero() && c.now().Sub(c.lastRefresh) < c.cooldown {
		snap := c.snapshot
		c.mu.Unlock()
		return snap, ErrRefreshCooldown
	}
	c.lastRefresh = c.now()
	c.mu.Unlock()

	return c.Load(ctx, prefs, query, true), nil
}

// PreferencesUpdated is the signal the preference-editing collaborator
// emits after a save. It invalidates every cached result for the set so
// the next Load refetches with the new preferences.
func (c *Controller) PreferencesUpdated(prefSetID uuid.UUID) {
	if err := c.results.Invalidate(prefSetID); err != nil {
		c.logger.Warn("preference invalidation failed",
			zap.String("preference_set", prefSetID.String()), zap.Error(err))
	}
}

// recoverFetch maps a fetch failure onto the degraded states: session
// expiry clears everything and surfaces a distinct error; transient
// failures serve a stale cache entry when one survives the
// preference-update rule; otherwise the error is surfaced.
func (c *Controller) recoverFetch(prefSetID uuid.UUID, filterKey string, fetchErr error) Snapshot {
	if errors.Is(fetchErr, source.ErrUnauthorized) {
		c.logger.Warn("session expired, clearing caches")
		if err := c.results.ClearAll(); err != nil {
			c.logger.Error("cache clear failed", zap.Error(err))
		}
		if c.explCache != nil {
			c.explCache.Clear()
		}
		return Snapshot{
			State:          StateError,
			SessionExpired: true,
			ErrorMessage:   SessionExpiredMessage,
			UpdatedAt:      c.now(),
		}
	}

	if page, ok := c.results.ReadStale(prefSetID, filterKey); ok {
		c.logger.Warn("fetch failed, serving stale cache", zap.Error(fetchErr))
		return readySnapshot(page, true, true, c.now())
	}

	c.logger.Error("fetch failed with no cached fallback", zap.Error(fetchErr))
	return Snapshot{
		State:        StateError,
		ErrorMessage: "could not load matches, please try again",
		UpdatedAt:    c.now(),
	}
}

// fillExplanations attaches a rationale to every entry that arrived
// without one, going through the shared explanation cache so each
// listing/preference fingerprint generates at most once.
func (c *Controller) fillExplanations(ctx context.Context, prefs types.PreferenceSet, page *types.MatchPage) {
	if c.explainer == nil {
		return
	}
	for i := range page.Results {
		entry := &page.Results[i]
		if entry.Explanation != nil {
			continue
		}
		fp := explain.Fingerprint(entry.Listing, prefs)
		var expl *types.Explanation
		var err error
		if c.explCache != nil {
			expl, err = c.explCache.GetOrCreate(fp, func() (*types.Explanation, error) {
				return c.explainer.Explain(ctx, entry.Listing, prefs, entry.MatchScore), nil
			})
		} else {
			expl = c.explainer.Explain(ctx, entry.Listing, prefs, entry.MatchScore)
		}
		if err != nil {
			c.logger.Warn("explanation generation failed", zap.Error(err))
			continue
		}
		entry.Explanation = expl
	}
}

// begin transitions to Loading and returns a generation token. Matches
// from the previous snapshot are kept visible while loading.
func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.snapshot.State = StateLoading
	return c.generation
}

// commit applies a resolved snapshot unless a newer load superseded this
// one, in which case the result is discarded so an out-of-order response
// can never overwrite fresher state.
func (c *Controller) commit(gen uint64, snap Snapshot) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Debug("discarding superseded fetch result")
		return c.snapshot
	}
	c.snapshot = snap
	return snap
}

func readySnapshot(page *types.MatchPage, fromCache, stale bool, at time.Time) Snapshot {
	return Snapshot{
		State:         StateReady,
		Matches:       page.Results,
		TotalCount:    page.TotalCount,
		FilteredCount: page.FilteredCount,
		FromCache:     fromCache,
		Stale:         stale,
		UpdatedAt:     at,
	}
}
