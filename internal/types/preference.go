//nolint:revive // types is a standard Go package name pattern
package types

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PreferenceSet describes what a user is looking for. Absent fields mean
// the user expressed no preference for that criterion; scoring must not
// penalize them.
type PreferenceSet struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	BudgetMin     float64   `json:"budget_min,omitempty" validate:"gte=0"`
	BudgetMax     float64   `json:"budget_max,omitempty" validate:"gte=0"`
	Bedrooms      int       `json:"bedrooms,omitempty" validate:"gte=0,lte=20"`
	Bathrooms     int       `json:"bathrooms,omitempty" validate:"gte=0,lte=20"`
	Neighborhoods []string  `json:"neighborhoods,omitempty"`
	Amenities     []string  `json:"amenities,omitempty"`
	MoveInDate    time.Time `json:"move_in_date,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasAnyCriteria reports whether at least one scorable criterion is set.
// A preference set with no criteria produces an undefined (zero) match.
func (p *PreferenceSet) HasAnyCriteria() bool {
	return p.BudgetMax > 0 ||
		p.Bedrooms > 0 ||
		p.Bathrooms > 0 ||
		len(p.Neighborhoods) > 0 ||
		len(p.Amenities) > 0
}

// NormalizedSnapshot returns a canonical string rendering of the scorable
// preference fields. Multi-valued fields are lowercased, trimmed, and
// sorted so that reordering an amenity list does not change the snapshot.
// Used as the preference half of an explanation fingerprint.
func (p *PreferenceSet) NormalizedSnapshot() string {
	var sb strings.Builder
	sb.WriteString("budget=")
	sb.WriteString(formatFloat(p.BudgetMin))
	sb.WriteString("-")
	sb.WriteString(formatFloat(p.BudgetMax))
	sb.WriteString("|beds=")
	sb.WriteString(formatInt(p.Bedrooms))
	sb.WriteString("|baths=")
	sb.WriteString(formatInt(p.Bathrooms))
	sb.WriteString("|hoods=")
	sb.WriteString(strings.Join(normalizeList(p.Neighborhoods), ","))
	sb.WriteString("|amenities=")
	sb.WriteString(strings.Join(normalizeList(p.Amenities), ","))
	return sb.String()
}

// normalizeList lowercases, trims, drops empties, and sorts a string list.
func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
