package cache

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suhasramanand/homefit-sub000/internal/types"
)

// fakeClock is a settable time source for cache tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testPage(n int) *types.MatchPage {
	page := &types.MatchPage{TotalCount: n, FilteredCount: n}
	for i := 0; i < n; i++ {
		page.Results = append(page.Results, types.MatchEntry{
			Listing:    types.Listing{ID: uuid.New(), Title: "Listing"},
			MatchScore: types.MatchScore{Value: 80},
		})
	}
	return page
}

func newTestCache(ttl time.Duration) (*ResultCache, *fakeClock) {
	clock := newFakeClock()
	c := NewResultCache(NewMemoryStore(), ttl)
	c.now = clock.Now
	return c, clock
}

func TestResultCache_WriteThenRead(t *testing.T) {
	c, _ := newTestCache(0)
	id := uuid.New()

	require.NoError(t, c.Write(id, "key", testPage(3)))

	got, ok := c.Read(id, "key")
	require.True(t, ok)
	assert.Len(t, got.Results, 3)
	assert.Equal(t, 3, got.TotalCount)
}

func TestResultCache_MissOnAbsentEntry(t *testing.T) {
	c, _ := newTestCache(0)

	_, ok := c.Read(uuid.New(), "key")
	assert.False(t, ok)
}

func TestResultCache_MissAfterTTL(t *testing.T) {
	c, clock := newTestCache(time.Hour)
	id := uuid.New()

	require.NoError(t, c.Write(id, "key", testPage(1)))

	clock.Advance(time.Hour + time.Second)
	_, ok := c.Read(id, "key")
	assert.False(t, ok)
}

func TestResultCache_HitJustBeforeTTL(t *testing.T) {
	c, clock := newTestCache(time.Hour)
	id := uuid.New()

	require.NoError(t, c.Write(id, "key", testPage(1)))

	clock.Advance(time.Hour - time.Second)
	_, ok := c.Read(id, "key")
	assert.True(t, ok)
}

func TestResultCache_MissOnFilterKeyMismatch(t *testing.T) {
	c, _ := newTestCache(0)
	id := uuid.New()

	require.NoError(t, c.Write(id, "price=0-2000", testPage(1)))

	_, ok := c.Read(id, "price=0-2500")
	assert.False(t, ok)
}

func TestResultCache_InvalidateRejectsSameTickWrites(t *testing.T) {
	c, _ := newTestCache(0)
	id := uuid.New()

	// Write and invalidate without the clock moving: the entry's
	// created-at equals the marker and must still count as stale.
	require.NoError(t, c.Write(id, "key", testPage(1)))
	require.NoError(t, c.Invalidate(id))

	_, ok := c.Read(id, "key")
	assert.False(t, ok)
}

func TestResultCache_WriteAfterInvalidateIsServed(t *testing.T) {
	c, clock := newTestCache(0)
	id := uuid.New()

	require.NoError(t, c.Invalidate(id))
	clock.Advance(time.Second)
	require.NoError(t, c.Write(id, "key", testPage(2)))

	got, ok := c.Read(id, "key")
	require.True(t, ok)
	assert.Len(t, got.Results, 2)
}

func TestResultCache_InvalidateScopedToPreferenceSet(t *testing.T) {
	c, clock := newTestCache(0)
	edited, other := uuid.New(), uuid.New()

	require.NoError(t, c.Write(edited, "key", testPage(1)))
	require.NoError(t, c.Write(other, "key", testPage(1)))

	clock.Advance(time.Second)
	require.NoError(t, c.Invalidate(edited))

	_, ok := c.Read(edited, "key")
	assert.False(t, ok)
	_, ok = c.Read(other, "key")
	assert.True(t, ok)
}

func TestResultCache_ReadStaleSkipsTTLButNotPreferenceRule(t *testing.T) {
	c, clock := newTestCache(time.Hour)
	id := uuid.New()

	require.NoError(t, c.Write(id, "key", testPage(1)))
	clock.Advance(2 * time.Hour)

	// Expired for Read, still acceptable for ReadStale.
	_, ok := c.Read(id, "key")
	assert.False(t, ok)
	_, ok = c.ReadStale(id, "key")
	assert.True(t, ok)

	// A preference update disqualifies the entry for both.
	require.NoError(t, c.Invalidate(id))
	_, ok = c.ReadStale(id, "key")
	assert.False(t, ok)
}

func TestResultCache_ClearAllRemovesEverything(t *testing.T) {
	c, _ := newTestCache(0)
	a, b := uuid.New(), uuid.New()

	require.NoError(t, c.Write(a, "key", testPage(1)))
	require.NoError(t, c.Write(b, "other", testPage(1)))

	require.NoError(t, c.ClearAll())

	_, ok := c.Read(a, "key")
	assert.False(t, ok)
	_, ok = c.ReadStale(b, "other")
	assert.False(t, ok)
}
