package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/suhasramanand/homefit-sub000/internal/types"
)

// DefaultTTL is the fixed expiry window for cached result bundles.
const DefaultTTL = 24 * time.Hour

// Key namespaces. Everything the cache persists lives under one of these
// prefixes so logout can remove it all in a single sweep.
const (
	resultKeyPrefix = "match_results_"
	markerKeyPrefix = "preference_updated_at_"
)

// entry is the persisted form of one cache line.
type entry struct {
	FilterKey string          `json:"filter_key"`
	Payload   types.MatchPage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// ResultCache caches paged, scored match results keyed by
// (preferenceSetID, filterKey). Entries are invalidated by TTL expiry and
// by preference-update markers; two different filter keys never collide
// even under the same preference set.
type ResultCache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewResultCache creates a result cache over store. A non-positive ttl
// uses DefaultTTL.
func NewResultCache(store Store, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{store: store, ttl: ttl, now: time.Now}
}

// Read returns the cached payload for (prefSetID, filterKey), or a miss
// when no entry exists, the entry has outlived the TTL, the stored filter
// key differs from the requested one, or the preference set was updated
// after the entry was written. Store errors degrade to a miss.
func (c *ResultCache) Read(prefSetID uuid.UUID, filterKey string) (*types.MatchPage, bool) {
	e, ok := c.load(prefSetID, filterKey)
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.CreatedAt) > c.ttl {
		return nil, false
	}
	return &e.Payload, true
}

// ReadStale is Read with the TTL check skipped. It still honors the
// preference-update rule: a stale entry is acceptable as a degraded
// fallback, but an entry predating a preference edit never is.
func (c *ResultCache) ReadStale(prefSetID uuid.UUID, filterKey string) (*types.MatchPage, bool) {
	e, ok := c.load(prefSetID, filterKey)
	if !ok {
		return nil, false
	}
	return &e.Payload, true
}

// load fetches and screens an entry against everything except the TTL.
func (c *ResultCache) load(prefSetID uuid.UUID, filterKey string) (*entry, bool) {
	raw, exists, err := c.store.Get(resultKey(prefSetID, filterKey))
	if err != nil || !exists {
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false
	}
	// The key embeds a hash of the filter key; compare the stored
	// original to rule out collisions.
	if e.FilterKey != filterKey {
		return nil, false
	}
	if marker, ok := c.updatedAt(prefSetID); ok && !e.CreatedAt.After(marker) {
		return nil, false
	}
	return &e, true
}

// Write stores payload under (prefSetID, filterKey) with the current time.
func (c *ResultCache) Write(prefSetID uuid.UUID, filterKey string, payload *types.MatchPage) error {
	e := entry{
		FilterKey: filterKey,
		Payload:   *payload,
		CreatedAt: c.now(),
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := c.store.Put(resultKey(prefSetID, filterKey), raw); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Invalidate drops every entry for prefSetID and records the current
// time as its updated-at marker, so any entry still in flight is rejected
// by Read even before it is physically removed.
func (c *ResultCache) Invalidate(prefSetID uuid.UUID) error {
	marker := c.now().Format(time.RFC3339Nano)
	if err := c.store.Put(markerKeyPrefix+prefSetID.String(), []byte(marker)); err != nil {
		return fmt.Errorf("failed to record preference update: %w", err)
	}
	if err := c.store.DeletePrefix(resultKeyPrefix + prefSetID.String()); err != nil {
		return fmt.Errorf("failed to drop cache entries: %w", err)
	}
	return nil
}

// ClearAll removes every cached result and marker. Called on sign-out;
// skipping it risks showing one account's matches to another, so this is
// a correctness operation, not an optimization.
func (c *ResultCache) ClearAll() error {
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// updatedAt reads the preference-update marker for prefSetID.
func (c *ResultCache) updatedAt(prefSetID uuid.UUID) (time.Time, bool) {
	raw, exists, err := c.store.Get(markerKeyPrefix + prefSetID.String())
	if err != nil || !exists {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// resultKey builds the namespaced store key for one cache line. The
// filter key is hashed to keep keys short; the original is stored in the
// entry and compared exactly on read.
func resultKey(prefSetID uuid.UUID, filterKey string) string {
	sum := sha256.Sum256([]byte(filterKey))
	return resultKeyPrefix + prefSetID.String() + "_" + hex.EncodeToString(sum[:8])
}
