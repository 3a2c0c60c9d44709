package explain

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suhasramanand/homefit-sub000/internal/llm"
	"github.com/suhasramanand/homefit-sub000/internal/scoring"
	"github.com/suhasramanand/homefit-sub000/internal/types"
)

// fakeLLM is a scripted llm.Client for service tests.
type fakeLLM struct {
	response *llm.Response
	err      error
	calls    int
	prompts  []string
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (*llm.Response, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeLLM) GetModel(llm.ModelTier) string { return "fake" }

func (f *fakeLLM) Close() error { return nil }

func explainInputs(t *testing.T) (types.Listing, types.PreferenceSet, types.MatchScore) {
	t.Helper()
	listing := types.Listing{
		ID:           uuid.New(),
		Title:        "Bright Loft",
		Price:        2000,
		Bedrooms:     2,
		Neighborhood: "Capitol Hill",
		City:         "Seattle",
		Amenities:    []string{"Gym"},
	}
	prefs := types.PreferenceSet{
		BudgetMax:     3000,
		Bedrooms:      2,
		Neighborhoods: []string{"Capitol Hill"},
	}
	return listing, prefs, scoring.Score(listing, prefs)
}

func newTestService(t *testing.T, client llm.Client, limits *RateLimitState) *Service {
	t.Helper()
	svc, err := NewService(client, limits)
	require.NoError(t, err)
	return svc
}

func TestService_NilClientUsesFallback(t *testing.T) {
	listing, prefs, score := explainInputs(t)
	svc := newTestService(t, nil, nil)

	e := svc.Explain(context.Background(), listing, prefs, score)

	require.NotNil(t, e)
	assert.Equal(t, types.SourceFallback, e.Source)
	assert.Contains(t, e.Summary, "Bright Loft")
	assert.Equal(t, score.Value, e.Score)
	assert.Len(t, e.Highlights, len(score.Breakdown))
}

func TestService_GeneratedPath(t *testing.T) {
	listing, prefs, score := explainInputs(t)
	client := &fakeLLM{response: &llm.Response{
		Text: `{"summary":"A bright loft right where you want to be.","highlights":[{"kind":"match","text":"in your preferred neighborhood"}]}`,
	}}
	svc := newTestService(t, client, nil)

	e := svc.Explain(context.Background(), listing, prefs, score)

	assert.Equal(t, types.SourceGenerated, e.Source)
	assert.Equal(t, "A bright loft right where you want to be.", e.Summary)
	require.Len(t, e.Highlights, 1)
	assert.Equal(t, types.HighlightMatch, e.Highlights[0].Kind)
	assert.Equal(t, 1, client.calls)
	assert.Contains(t, client.prompts[0], "Bright Loft")
}

func TestService_ExhaustedBudgetSkipsCallAndHintsRetry(t *testing.T) {
	listing, prefs, score := explainInputs(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	limits := NewRateLimitState(1)
	limits.Observe(0, now.Add(120*time.Second))

	client := &fakeLLM{response: &llm.Response{Text: "{}"}}
	svc := newTestService(t, client, limits)
	svc.now = func() time.Time { return now }

	e := svc.Explain(context.Background(), listing, prefs, score)

	assert.Equal(t, 0, client.calls, "no provider call while the budget is exhausted")
	assert.Equal(t, types.SourceFallback, e.Source)
	assert.Contains(t, e.Summary, "try again in about 2 minutes")
}

func TestService_RateLimitErrorFallsBackWithHint(t *testing.T) {
	listing, prefs, score := explainInputs(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	client := &fakeLLM{err: &llm.RateLimitError{
		ResetAt: now.Add(45 * time.Second),
		Cause:   fmt.Errorf("quota exceeded"),
	}}
	svc := newTestService(t, client, NewRateLimitState(0))
	svc.now = func() time.Time { return now }

	e := svc.Explain(context.Background(), listing, prefs, score)

	assert.Equal(t, types.SourceFallback, e.Source)
	assert.Contains(t, e.Summary, "try again in about 1 minute")

	// The observed reset must now gate subsequent calls too.
	ok, _ := svc.limits.Allowed(now)
	assert.False(t, ok)
}

func TestService_TransientErrorFallsBackSilently(t *testing.T) {
	listing, prefs, score := explainInputs(t)
	client := &fakeLLM{err: fmt.Errorf("connection reset")}
	svc := newTestService(t, client, nil)

	e := svc.Explain(context.Background(), listing, prefs, score)

	assert.Equal(t, types.SourceFallback, e.Source)
	assert.NotContains(t, e.Summary, "try again")
}

func TestService_MalformedOutputFallsBack(t *testing.T) {
	listing, prefs, score := explainInputs(t)

	for name, text := range map[string]string{
		"not json":       "the listing is great",
		"missing field":  `{"highlights":[]}`,
		"bad kind":       `{"summary":"ok","highlights":[{"kind":"amazing","text":"x"}]}`,
		"fenced garbage": "```json\nnope\n```",
	} {
		client := &fakeLLM{response: &llm.Response{Text: text}}
		svc := newTestService(t, client, nil)

		e := svc.Explain(context.Background(), listing, prefs, score)
		assert.Equal(t, types.SourceFallback, e.Source, name)
	}
}

func TestService_ObservesQuotaFromResponse(t *testing.T) {
	listing, prefs, score := explainInputs(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	client := &fakeLLM{response: &llm.Response{
		Text:  `{"summary":"ok","highlights":[]}`,
		Quota: &llm.Quota{Remaining: 0, ResetAt: now.Add(time.Minute)},
	}}
	svc := newTestService(t, client, NewRateLimitState(0))
	svc.now = func() time.Time { return now }

	first := svc.Explain(context.Background(), listing, prefs, score)
	assert.Equal(t, types.SourceGenerated, first.Source)

	// The reported zero quota makes the next explanation skip the call.
	second := svc.Explain(context.Background(), listing, prefs, score)
	assert.Equal(t, types.SourceFallback, second.Source)
	assert.Equal(t, 1, client.calls)
}

func TestMatchLevel_Buckets(t *testing.T) {
	assert.Equal(t, "an excellent match", matchLevel(95))
	assert.Equal(t, "an excellent match", matchLevel(90))
	assert.Equal(t, "a strong match", matchLevel(75))
	assert.Equal(t, "a good match", matchLevel(60))
	assert.Equal(t, "a moderate match", matchLevel(40))
	assert.Equal(t, "a limited match", matchLevel(39))
	assert.Equal(t, "a limited match", matchLevel(0))
}

func TestService_FallbackHighlightsMirrorBreakdown(t *testing.T) {
	listing, prefs, _ := explainInputs(t)
	listing.Price = 3500 // over budget
	score := scoring.Score(listing, prefs)
	svc := newTestService(t, nil, nil)

	e := svc.Explain(context.Background(), listing, prefs, score)

	require.Len(t, e.Highlights, len(score.Breakdown))
	for i, c := range score.Breakdown {
		assert.Equal(t, c.Detail, e.Highlights[i].Text)
		if c.Classification == types.ClassMismatch {
			assert.Equal(t, types.HighlightMismatch, e.Highlights[i].Kind)
		}
	}
}
