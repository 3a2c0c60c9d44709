//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// ExplanationSource records which path produced an explanation.
type ExplanationSource string

// Explanation sources.
const (
	SourceGenerated ExplanationSource = "generated"
	SourceFallback  ExplanationSource = "fallback"
)

// HighlightKind classifies one clause of an explanation. It mirrors the
// criterion classifications so the generative and fallback paths share
// one shape.
type HighlightKind string

// Highlight kinds.
const (
	HighlightMatch    HighlightKind = "match"
	HighlightPartial  HighlightKind = "partial"
	HighlightMismatch HighlightKind = "mismatch"
	HighlightBonus    HighlightKind = "bonus"
)

// Highlight is one discriminated clause of an explanation.
type Highlight struct {
	Kind HighlightKind `json:"kind"`
	Text string        `json:"text"`
}

// Explanation is a short rationale for a listing/preference match, tied to
// the fingerprint and score that produced it.
type Explanation struct {
	Fingerprint string            `json:"fingerprint"`
	Summary     string            `json:"summary"`
	Highlights  []Highlight       `json:"highlights,omitempty"`
	Score       int               `json:"score"`
	Source      ExplanationSource `json:"source"`
	CreatedAt   time.Time         `json:"created_at"`
}
