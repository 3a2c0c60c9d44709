package explain

import (
	"fmt"
	"math"
	"time"

	"github.com/suhasramanand/homefit-sub000/internal/types"
)

// matchLevel buckets an overall score into a human label.
func matchLevel(score int) string {
	switch {
	case score >= 90:
		return "an excellent match"
	case score >= 75:
		return "a strong match"
	case score >= 60:
		return "a good match"
	case score >= 40:
		return "a moderate match"
	default:
		return "a limited match"
	}
}

// fallback builds a deterministic explanation from the score breakdown.
// Each highlight is phrased from the engine's criterion detail rather
// than re-derived, so the fallback and generated paths describe the same
// facts. A positive wait duration appends a retry hint for the
// rate-limited case.
func (s *Service) fallback(fingerprint string, listing types.Listing, score types.MatchScore, wait time.Duration) *types.Explanation {
	summary := fmt.Sprintf("%s is %s for your preferences (%d/100).", listing.Title, matchLevel(score.Value), score.Value)
	if wait > 0 {
		minutes := int(math.Ceil(wait.Minutes()))
		if minutes < 1 {
			minutes = 1
		}
		unit := "minutes"
		if minutes == 1 {
			unit = "minute"
		}
		summary += fmt.Sprintf(" Personalized explanations are busy right now; try again in about %d %s.", minutes, unit)
	}

	expl := &types.Explanation{
		Fingerprint: fingerprint,
		Summary:     summary,
		Score:       score.Value,
		Source:      types.SourceFallback,
		CreatedAt:   s.now(),
	}
	for _, c := range score.Breakdown {
		expl.Highlights = append(expl.Highlights, types.Highlight{
			Kind: highlightKind(c.Classification),
			Text: c.Detail,
		})
	}
	return expl
}

// highlightKind maps a criterion classification onto a highlight kind.
// The two enums are kept distinct so the explanation shape does not leak
// scoring internals, but the values correspond one to one.
func highlightKind(c types.Classification) types.HighlightKind {
	switch c {
	case types.ClassMatch:
		return types.HighlightMatch
	case types.ClassPartial:
		return types.HighlightPartial
	case types.ClassBonus:
		return types.HighlightBonus
	default:
		return types.HighlightMismatch
	}
}
