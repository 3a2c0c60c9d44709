// Package explain turns scored listing/preference pairs into short
// natural-language rationales. The primary path asks an LLM; a
// deterministic template built from the score breakdown covers every
// failure, so callers always receive an explanation.
package explain

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/suhasramanand/homefit-sub000/internal/llm"
	"github.com/suhasramanand/homefit-sub000/internal/prompts"
	"github.com/suhasramanand/homefit-sub000/internal/types"
)

//go:embed schema.json
var explanationSchema string

// generatedExplanation is the JSON shape the LLM is asked to produce.
type generatedExplanation struct {
	Summary    string `json:"summary"`
	Highlights []struct {
		Kind string `json:"kind"`
		Text string `json:"text"`
	} `json:"highlights"`
}

// Service generates match explanations.
type Service struct {
	client llm.Client
	limits *RateLimitState
	schema *gojsonschema.Schema
	now    func() time.Time
}

// NewService creates an explanation service. limits is shared
// process-wide state; passing nil creates untracked state that never
// blocks. client may be nil, in which case every explanation takes the
// fallback path.
func NewService(client llm.Client, limits *RateLimitState) (*Service, error) {
	if limits == nil {
		limits = NewRateLimitState(0)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(explanationSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile explanation schema: %w", err)
	}
	return &Service{
		client: client,
		limits: limits,
		schema: schema,
		now:    time.Now,
	}, nil
}

// Explain produces a rationale for a scored listing. It never fails:
// rate limiting, network errors, and malformed LLM output all degrade to
// the deterministic fallback built from the score breakdown.
func (s *Service) Explain(ctx context.Context, listing types.Listing, prefs types.PreferenceSet, score types.MatchScore) *types.Explanation {
	fp := Fingerprint(listing, prefs)

	if s.client == nil {
		return s.fallback(fp, listing, score, 0)
	}
	if ok, wait := s.limits.Allowed(s.now()); !ok {
		// Budget exhausted: skip the call entirely and tell the user
		// when generated explanations will be back.
		return s.fallback(fp, listing, score, wait)
	}

	prompt := buildPrompt(listing, prefs, score)
	resp, err := s.client.GenerateJSON(ctx, prompt, llm.TierLite)
	s.limits.Consume()
	if err != nil {
		var rle *llm.RateLimitError
		if errors.As(err, &rle) {
			s.limits.Observe(0, rle.ResetAt)
			return s.fallback(fp, listing, score, rle.ResetAt.Sub(s.now()))
		}
		// Transient failure: fall back silently.
		return s.fallback(fp, listing, score, 0)
	}
	if resp.Quota != nil {
		s.limits.Observe(resp.Quota.Remaining, resp.Quota.ResetAt)
	}

	parsed, err := s.parseGenerated(resp.Text)
	if err != nil {
		return s.fallback(fp, listing, score, 0)
	}

	expl := &types.Explanation{
		Fingerprint: fp,
		Summary:     parsed.Summary,
		Score:       score.Value,
		Source:      types.SourceGenerated,
		CreatedAt:   s.now(),
	}
	for _, h := range parsed.Highlights {
		expl.Highlights = append(expl.Highlights, types.Highlight{
			Kind: types.HighlightKind(h.Kind),
			Text: h.Text,
		})
	}
	return expl
}

// parseGenerated validates and decodes the LLM's JSON output.
func (s *Service) parseGenerated(text string) (*generatedExplanation, error) {
	text = llm.CleanJSONBlock(text)
	result, err := s.schema.Validate(gojsonschema.NewStringLoader(text))
	if err != nil {
		return nil, fmt.Errorf("failed to validate explanation: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("explanation failed schema validation: %s", strings.Join(msgs, "; "))
	}

	var parsed generatedExplanation
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse explanation JSON: %w", err)
	}
	return &parsed, nil
}

// buildPrompt fills the explanation prompt template from the listing,
// preferences, and score breakdown.
func buildPrompt(listing types.Listing, prefs types.PreferenceSet, score types.MatchScore) string {
	var breakdown []string
	for _, c := range score.Breakdown {
		breakdown = append(breakdown, fmt.Sprintf("- %s (%s): %s", c.Criterion, c.Classification, c.Detail))
	}

	template := prompts.MustGet("explanation.json", "explain_match")
	return prompts.Format(template, map[string]string{
		"Score":           fmt.Sprintf("%d", score.Value),
		"Title":           listing.Title,
		"Price":           fmt.Sprintf("%.0f", listing.Price),
		"Bedrooms":        fmt.Sprintf("%d", listing.Bedrooms),
		"Bathrooms":       fmt.Sprintf("%d", listing.Bathrooms),
		"Location":        strings.TrimSpace(listing.Neighborhood + ", " + listing.City),
		"Amenities":       strings.Join(listing.Amenities, ", "),
		"BudgetMax":       fmt.Sprintf("%.0f", prefs.BudgetMax),
		"WantedBedrooms":  fmt.Sprintf("%d", prefs.Bedrooms),
		"WantedBathrooms": fmt.Sprintf("%d", prefs.Bathrooms),
		"Neighborhoods":   strings.Join(prefs.Neighborhoods, ", "),
		"WantedAmenities": strings.Join(prefs.Amenities, ", "),
		"Breakdown":       strings.Join(breakdown, "\n"),
	})
}
