package matches

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suhasramanand/homefit-sub000/internal/cache"
	"github.com/suhasramanand/homefit-sub000/internal/explain"
	"github.com/suhasramanand/homefit-sub000/internal/source"
	"github.com/suhasramanand/homefit-sub000/internal/types"
)

// fakeSource is a scripted listing source.
type fakeSource struct {
	mu    sync.Mutex
	page  *types.MatchPage
	err   error
	calls int
}

func (f *fakeSource) FetchMatches(context.Context, uuid.UUID, types.Query) (*types.MatchPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	// Return a copy so the controller cannot mutate the script.
	page := *f.page
	page.Results = append([]types.MatchEntry(nil), f.page.Results...)
	return &page, nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSource) Set(page *types.MatchPage, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.page, f.err = page, err
}

func fakeMatches(n int) *types.MatchPage {
	page := &types.MatchPage{TotalCount: n, FilteredCount: n}
	for i := 0; i < n; i++ {
		page.Results = append(page.Results, types.MatchEntry{
			Listing:    types.Listing{ID: uuid.New(), Title: fmt.Sprintf("Listing %d", i)},
			MatchScore: types.MatchScore{Value: 90 - i},
		})
	}
	return page
}

type controllerFixture struct {
	ctrl    *Controller
	src     *fakeSource
	results *cache.ResultCache
	prefs   types.PreferenceSet
	clock   time.Time
}

func newFixture(t *testing.T, n int) *controllerFixture {
	t.Helper()
	f := &controllerFixture{
		src:   &fakeSource{page: fakeMatches(n)},
		prefs: types.PreferenceSet{ID: uuid.New(), BudgetMax: 3000},
		clock: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.results = cache.NewResultCache(cache.NewMemoryStore(), 0)

	explainer, err := explain.NewService(nil, nil)
	require.NoError(t, err)

	f.ctrl = NewController(Config{
		Source:       f.src,
		Results:      f.results,
		Explainer:    explainer,
		Explanations: explain.NewCache(),
	})
	f.ctrl.now = func() time.Time { return f.clock }
	return f
}

func TestController_StartsIdle(t *testing.T) {
	f := newFixture(t, 0)
	assert.Equal(t, StateIdle, f.ctrl.Snapshot().State)
}

func TestController_LoadFetchesAndCaches(t *testing.T) {
	f := newFixture(t, 3)

	snap := f.ctrl.Load(context.Background(), f.prefs, types.Query{}, false)

	assert.Equal(t, StateReady, snap.State)
	assert.Len(t, snap.Matches, 3)
	assert.False(t, snap.FromCache)
	assert.Equal(t, 1, f.src.Calls())

	// The page was written through to the cache.
	key := types.Query{}.FilterKey()
	_, ok := f.results.Read(f.prefs.ID, key)
	assert.True(t, ok)
}

func TestController_SecondLoadServedFromCache(t *testing.T) {
	f := newFixture(t, 2)

	f.ctrl.Load(context.Background(), f.prefs, types.Query{}, false)
	snap := f.ctrl.Load(context.Background(), f.prefs, types.Query{}, false)

	assert.Equal(t, StateReady, snap.State)
	assert.True(t, snap.FromCache)
	assert.Equal(t, 1, f.src.Calls(), "cache hit must not touch the source")
}

func TestController_EquivalentQueriesShareCacheEntry(t *testing.T) {
	f := newFixture(t, 1)

	a := types.Query{Filters: types.FilterSet{Amenities: []string{"pool", "gym"}}}
	b := types.Query{Filters: types.FilterSet{Amenities: []string{"gym", "pool"}}}

	f.ctrl.Load(context.Background(), f.prefs, a, false)
	snap := f.ctrl.Load(context.Background(), f.prefs, b, false)

	assert.True(t, snap.FromCache)
	assert.Equal(t, 1, f.src.Calls())
}

func TestController_ForceBypassesCache(t *testing.T) {
	f := newFixture(t, 1)

	f.ctrl.Load(context.Background(), f.prefs, types.Query{}, false)
	snap := f.ctrl.Load(context.Background(), f.prefs, types.Query{}, true)

	assert.False(t, snap.FromCache)
	assert.Equal(t, 2, f.src.Calls())
}

func TestController_LoadAttachesExplanations(t *testing.T) {
	f := newFixture(t, 2)

	snap := f.ctrl.Load(context.Background(), f.prefs, types.Query{}, false)

	require.Len(t, snap.Matches, 2)
	for _, m := range snap.Matches {
		require.NotNil(t, m.Explanation)
		assert.Equal(t, types.SourceFallback, m.Explanation.Source)
	}
}

func TestController_FetchErrorServesStaleCache(t *testing.T) {
	f := newFixture(t, 2)

	f.ctrl.Load(context.Background(), f.prefs, types.Query{}, false)
	f.src.Set(nil, fmt.Errorf("upstream unavailable"))

	snap := f.ctrl.Load(context.Background(), f.prefs, types.Query{}, true)

	assert.Equal(t, StateReady, snap.State)
	assert.True(t, snap.FromCache)
	assert.True(t, snap.Stale)
	assert.Len(t, snap.Matches, 2)
}

func TestController_FetchErrorWithEmptyCacheIsError(t *testing.T) {
	f := newFixture(t, 0)
	f.src.Set(nil, fmt.Errorf("upstream unavailable"))

	snap := f.ctrl.Load(context.Background(), f.prefs, types.Query{}, false)

	assert.Equal(t, StateError, snap.State)
	assert.False(t, snap.SessionExpired)
	assert.NotEmpty(t, snap.ErrorMessage)
}

func TestController_StaleFallbackRespectsPreferenceRule(t *testing.T) {
	f := newFixture(t, 2)

	f.ctrl.Load(context.Background(), f.prefs, types.Query{}, false)

	// The preferences changed after the cache entry was written; even a
	// degraded fallback must not serve results computed from old ones.
	f.ctrl.PreferencesUpdated(f.prefs.ID)
	f.src.Set(nil, fmt.Errorf("upstream unavailable"))

	snap := f.ctrl.Load(context.Background(), f.prefs, types.Query{}, false)

	assert.Equal(t, StateError, snap.State)
}

func TestController_UnauthorizedClearsCachesAndFlagsSession(t *testing.T) {
	f := newFixture(t, 2)

	f.ctrl.Load(context.Background(), f.prefs, types.Query{}, false)
	f.src.Set(nil, fmt.Errorf("fetch matches: %w", source.ErrUnauthorized))

	snap := f.ctrl.Load(context.Background(), f.prefs, types.Query{}, true)

	assert.Equal(t, StateError, snap.State)
	assert.True(t, snap.SessionExpired)
	assert.Equal(t, SessionExpiredMessage, snap.ErrorMessage)

	// Everything cached, even for other preference sets, is gone.
	key := types.Query{}.FilterKey()
	_, ok := f.results.ReadStale(f.prefs.ID, key)
	assert.False(t, ok)
}

func TestController_RefreshHonorsCooldown(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.ctrl.Refresh(context.Background(), f.prefs, types.Query{})
	require.NoError(t, err)

	f.clock = f.clock.Add(10 * time.Second)
	_, err = f.ctrl.Refresh(context.Background(), f.prefs, types.Query{})
	assert.ErrorIs(t, err, ErrRefreshCooldown)
	assert.Equal(t, 1, f.src.Calls())

	f.clock = f.clock.Add(25 * time.Second)
	_, err = f.ctrl.Refresh(context.Background(), f.prefs, types.Query{})
	assert.NoError(t, err)
	assert.Equal(t, 2, f.src.Calls())
}

func TestController_CooldownReturnsCurrentSnapshot(t *testing.T) {
	f := newFixture(t, 2)

	first, err := f.ctrl.Refresh(context.Background(), f.prefs, types.Query{})
	require.NoError(t, err)

	snap, err := f.ctrl.Refresh(context.Background(), f.prefs, types.Query{})
	assert.ErrorIs(t, err, ErrRefreshCooldown)
	assert.Equal(t, first.Matches, snap.Matches)
}

func TestController_PreferencesUpdatedForcesRefetch(t *testing.T) {
	f := newFixture(t, 1)

	f.ctrl.Load(context.Background(), f.prefs, types.Query{}, false)
	f.ctrl.PreferencesUpdated(f.prefs.ID)
	f.clock = f.clock.Add(time.Second)

	snap := f.ctrl.Load(context.Background(), f.prefs, types.Query{}, false)

	assert.False(t, snap.FromCache)
	assert.Equal(t, 2, f.src.Calls())
}

func TestController_SupersededLoadIsDiscarded(t *testing.T) {
	f := newFixture(t, 1)

	// Simulate an older in-flight load losing the race: its generation
	// token predates the one a newer load took.
	staleGen := f.ctrl.begin()
	_ = f.ctrl.begin()

	discarded := f.ctrl.commit(staleGen, Snapshot{State: StateReady, TotalCount: 99})

	assert.NotEqual(t, 99, discarded.TotalCount)
	assert.NotEqual(t, StateReady, f.ctrl.Snapshot().State)
}
