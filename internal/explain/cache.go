package explain

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/suhasramanand/homefit-sub000/internal/types"
)

// Cache stores at most one explanation per fingerprint for the lifetime
// of the process. Concurrent requests for the same fingerprint are
// coalesced so the generator runs exactly once.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*types.Explanation
	group   singleflight.Group
}

// NewCache creates an empty explanation cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*types.Explanation)}
}

// GetOrCreate returns the cached explanation for fingerprint, invoking
// generate at most once per fingerprint across all callers. A generator
// error is returned to every coalesced caller and nothing is stored, so
// a later call may retry.
func (c *Cache) GetOrCreate(fingerprint string, generate func() (*types.Explanation, error)) (*types.Explanation, error) {
	c.mu.RLock()
	if e, ok := c.entries[fingerprint]; ok {
		c.mu.RUnlock()
		return e, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(fingerprint, func() (any, error) {
		// Re-check under the flight: another caller may have stored the
		// entry between our read miss and this flight starting.
		c.mu.RLock()
		if e, ok := c.entries[fingerprint]; ok {
			c.mu.RUnlock()
			return e, nil
		}
		c.mu.RUnlock()

		e, err := generate()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[fingerprint] = e
		c.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.Explanation), nil
}

// Len reports the number of cached explanations.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every cached explanation. Called on session teardown.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*types.Explanation)
}
