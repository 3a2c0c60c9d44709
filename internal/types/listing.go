// Package types provides type definitions for structured data used throughout the homefit match core.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// Listing represents a housing listing as supplied by the listing source.
// The match core treats listings as immutable.
type Listing struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Price        float64   `json:"price"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    int       `json:"bathrooms"`
	Neighborhood string    `json:"neighborhood"`
	City         string    `json:"city"`
	Address      string    `json:"address"`
	Amenities    []string  `json:"amenities"`
	ImageURLs    []string  `json:"image_urls,omitempty"`
	Saved        bool      `json:"saved,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// MatchEntry pairs a listing with its score and, once generated, a rationale.
type MatchEntry struct {
	Listing     Listing      `json:"apartment"`
	MatchScore  MatchScore   `json:"match_score"`
	Explanation *Explanation `json:"explanation,omitempty"`
}

// MatchPage is one page of scored, sorted match results.
type MatchPage struct {
	Results []MatchEntry `json:"results"`
	// TotalCount is the number of matches for the preference set before
	// user filters are applied; FilteredCount is the number after.
	TotalCount    int `json:"total_count"`
	FilteredCount int `json:"filtered_count"`
}
