//nolint:revive // types is a standard Go package name pattern
package types

// CriterionKind names one scored dimension of a match.
type CriterionKind string

// Scored criteria.
const (
	CriterionBudget    CriterionKind = "budget"
	CriterionLocation  CriterionKind = "location"
	CriterionBedrooms  CriterionKind = "bedrooms"
	CriterionBathrooms CriterionKind = "bathrooms"
	CriterionAmenities CriterionKind = "amenities"
)

// Classification buckets a criterion's outcome.
type Classification string

// Criterion classifications. Bonus means the listing exceeds the stated
// preference (more bedrooms than asked for, price under the minimum).
const (
	ClassMatch    Classification = "match"
	ClassPartial  Classification = "partial"
	ClassMismatch Classification = "mismatch"
	ClassBonus    Classification = "bonus"
)

// CriterionResult is one criterion's contribution to a match score.
type CriterionResult struct {
	Criterion      CriterionKind  `json:"criterion"`
	Classification Classification `json:"classification"`
	Achieved       float64        `json:"achieved"`
	Possible       float64        `json:"possible"`
	Detail         string         `json:"detail"`
}

// MatchScore is a listing/preference pair's score. It is derived state:
// recomputed whenever inputs change, never persisted on its own.
type MatchScore struct {
	Value     int               `json:"value"`
	Breakdown []CriterionResult `json:"breakdown"`
}
