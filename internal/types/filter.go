//nolint:revive // types is a standard Go package name pattern
package types

import (
	"sort"
	"strconv"
	"strings"
)

// SortField identifies a supported result ordering.
type SortField string

// Supported sort fields for match result queries.
const (
	SortByMatchScore SortField = "matchScore"
	SortByPrice      SortField = "price"
	SortByDateAdded  SortField = "dateAdded"
)

// SortOrder is the direction of a sort.
type SortOrder string

// Supported sort orders.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Pagination defaults applied by Query.Normalize.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// FilterSet narrows a preference set's base match set. It is transient
// state owned by the caller and passed in per request.
type FilterSet struct {
	PriceMin      float64  `json:"price_min,omitempty"`
	PriceMax      float64  `json:"price_max,omitempty"`
	Bedrooms      []int    `json:"bedrooms,omitempty"`
	Bathrooms     []int    `json:"bathrooms,omitempty"`
	Neighborhoods []string `json:"neighborhoods,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
}

// Query combines pagination, sorting, and filtering for one match request.
type Query struct {
	Page      int       `json:"page"`
	PageSize  int       `json:"page_size"`
	SortBy    SortField `json:"sort_by"`
	SortOrder SortOrder `json:"sort_order"`
	Filters   FilterSet `json:"filters"`
}

// Normalize defaults and clamps malformed query values in place.
// Malformed input is corrected, never rejected.
func (q *Query) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	switch q.SortBy {
	case SortByMatchScore, SortByPrice, SortByDateAdded:
	default:
		q.SortBy = SortByMatchScore
	}
	switch q.SortOrder {
	case SortAsc, SortDesc:
	default:
		q.SortOrder = SortDesc
	}
	if q.Filters.PriceMin < 0 {
		q.Filters.PriceMin = 0
	}
	if q.Filters.PriceMax < 0 {
		q.Filters.PriceMax = 0
	}
	if q.Filters.PriceMax > 0 && q.Filters.PriceMin > q.Filters.PriceMax {
		q.Filters.PriceMin, q.Filters.PriceMax = q.Filters.PriceMax, q.Filters.PriceMin
	}
}

// FilterKey produces a deterministic, order-insensitive serialization of
// the query. Multi-valued fields are sorted before serialization so two
// queries differing only in array order yield the same key.
func (q Query) FilterKey() string {
	norm := q
	norm.Normalize()

	beds := append([]int(nil), norm.Filters.Bedrooms...)
	sort.Ints(beds)
	baths := append([]int(nil), norm.Filters.Bathrooms...)
	sort.Ints(baths)
	hoods := normalizeList(norm.Filters.Neighborhoods)
	amenities := normalizeList(norm.Filters.Amenities)

	parts := []string{
		"page=" + strconv.Itoa(norm.Page),
		"size=" + strconv.Itoa(norm.PageSize),
		"sort=" + string(norm.SortBy) + ":" + string(norm.SortOrder),
		"price=" + formatFloat(norm.Filters.PriceMin) + "-" + formatFloat(norm.Filters.PriceMax),
		"beds=" + joinInts(beds),
		"baths=" + joinInts(baths),
		"hoods=" + strings.Join(hoods, ","),
		"amenities=" + strings.Join(amenities, ","),
	}
	return strings.Join(parts, "|")
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}
