// Package scoring computes match scores for listing/preference pairs.
// Scoring is a pure function of its inputs: no I/O, no state, identical
// inputs always yield the identical score and breakdown.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/suhasramanand/homefit-sub000/internal/types"
)

// Criterion weights. Must sum to 100.
const (
	budgetWeight    = 25.0
	locationWeight  = 25.0
	bedroomsWeight  = 15.0
	bathroomsWeight = 10.0
	amenitiesWeight = 25.0
)

// budgetComfortRatio is the fraction of the max budget under which a
// price earns full budget credit. Credit tapers linearly to zero between
// this point and the max.
const budgetComfortRatio = 0.8

// Score evaluates a listing against a preference set and returns a 0..100
// score with a per-criterion breakdown. Criteria the preference set leaves
// unspecified are excluded from the possible total, so missing preferences
// do not penalize. If no criterion is specified at all the match is
// undefined and the score is 0.
func Score(listing types.Listing, prefs types.PreferenceSet) types.MatchScore {
	if !prefs.HasAnyCriteria() {
		return types.MatchScore{Value: 0}
	}

	var breakdown []types.CriterionResult
	var achieved, possible float64

	if prefs.BudgetMax > 0 {
		r := scoreBudget(listing, prefs)
		breakdown = append(breakdown, r)
		achieved += r.Achieved
		possible += r.Possible
	}
	if len(prefs.Neighborhoods) > 0 {
		r := scoreLocation(listing, prefs)
		breakdown = append(breakdown, r)
		achieved += r.Achieved
		possible += r.Possible
	}
	if prefs.Bedrooms > 0 {
		r := scoreRooms(types.CriterionBedrooms, bedroomsWeight, listing.Bedrooms, prefs.Bedrooms)
		breakdown = append(breakdown, r)
		achieved += r.Achieved
		possible += r.Possible
	}
	if prefs.Bathrooms > 0 {
		r := scoreRooms(types.CriterionBathrooms, bathroomsWeight, listing.Bathrooms, prefs.Bathrooms)
		breakdown = append(breakdown, r)
		achieved += r.Achieved
		possible += r.Possible
	}
	if len(prefs.Amenities) > 0 {
		r := scoreAmenities(listing, prefs)
		// An amenity list of blank strings counts as unspecified.
		if r.Possible > 0 {
			breakdown = append(breakdown, r)
			achieved += r.Achieved
			possible += r.Possible
		}
	}

	value := 0
	if possible > 0 {
		value = int(math.Round(100 * achieved / possible))
	}
	return types.MatchScore{Value: value, Breakdown: breakdown}
}

// scoreBudget gives full credit at or below budgetComfortRatio of the max
// budget, tapers linearly to zero at the max, and gives no credit above
// it. A price under the stated minimum is a bonus, not a miss.
func scoreBudget(listing types.Listing, prefs types.PreferenceSet) types.CriterionResult {
	r := types.CriterionResult{Criterion: types.CriterionBudget, Possible: budgetWeight}
	price := listing.Price
	comfort := prefs.BudgetMax * budgetComfortRatio

	switch {
	case prefs.BudgetMin > 0 && price < prefs.BudgetMin:
		r.Achieved = budgetWeight
		r.Classification = types.ClassBonus
		r.Detail = fmt.Sprintf("priced at $%.0f, under your $%.0f minimum", price, prefs.BudgetMin)
	case price <= comfort:
		r.Achieved = budgetWeight
		r.Classification = types.ClassMatch
		r.Detail = fmt.Sprintf("comfortably within your $%.0f budget", prefs.BudgetMax)
	case price <= prefs.BudgetMax:
		taper := (prefs.BudgetMax - price) / (prefs.BudgetMax - comfort)
		r.Achieved = budgetWeight * taper
		r.Classification = types.ClassPartial
		r.Detail = fmt.Sprintf("near the top of your $%.0f budget", prefs.BudgetMax)
	default:
		r.Classification = types.ClassMismatch
		r.Detail = fmt.Sprintf("$%.0f over your budget", price-prefs.BudgetMax)
	}
	return r
}

// scoreLocation gives full credit when any preferred location string is a
// case-insensitive substring of the listing's neighborhood, city, or
// address. Substring matching trades precision for recall ("Soho" matches
// "South Soho"); kept deliberately loose to tolerate naming variance.
func scoreLocation(listing types.Listing, prefs types.PreferenceSet) types.CriterionResult {
	r := types.CriterionResult{Criterion: types.CriterionLocation, Possible: locationWeight}
	haystack := strings.ToLower(listing.Neighborhood + " " + listing.City + " " + listing.Address)

	for _, want := range prefs.Neighborhoods {
		want = strings.ToLower(strings.TrimSpace(want))
		if want == "" {
			continue
		}
		if strings.Contains(haystack, want) {
			r.Achieved = locationWeight
			r.Classification = types.ClassMatch
			r.Detail = fmt.Sprintf("located in %s", listing.Neighborhood)
			return r
		}
	}
	r.Classification = types.ClassMismatch
	r.Detail = "outside your preferred neighborhoods"
	return r
}

// scoreRooms scores bedroom or bathroom counts: full credit when the
// listing meets the preference, a bonus classification when it exceeds
// it, and credit scaled by have/want below it.
func scoreRooms(kind types.CriterionKind, weight float64, have, want int) types.CriterionResult {
	r := types.CriterionResult{Criterion: kind, Possible: weight}
	label := string(kind)

	switch {
	case have > want:
		r.Achieved = weight
		r.Classification = types.ClassBonus
		r.Detail = fmt.Sprintf("%d %s, more than the %d you asked for", have, label, want)
	case have == want:
		r.Achieved = weight
		r.Classification = types.ClassMatch
		r.Detail = fmt.Sprintf("has the %d %s you asked for", want, label)
	case have > 0:
		r.Achieved = weight * float64(have) / float64(want)
		r.Classification = types.ClassPartial
		r.Detail = fmt.Sprintf("%d of the %d %s you asked for", have, want, label)
	default:
		r.Classification = types.ClassMismatch
		r.Detail = fmt.Sprintf("no %s listed", label)
	}
	return r
}

// scoreAmenities credits the fraction of preferred amenities present in
// the listing. Matching is case-insensitive substring in both directions
// so "Swimming Pool" satisfies a "pool" preference and vice versa. This
// can false-positive ("Pool" vs "Pool Table"); a recall-over-precision
// trade-off inherited from the upstream matcher.
func scoreAmenities(listing types.Listing, prefs types.PreferenceSet) types.CriterionResult {
	r := types.CriterionResult{Criterion: types.CriterionAmenities, Possible: amenitiesWeight}

	var wanted, found int
	var matched []string
	for _, want := range prefs.Amenities {
		want = strings.ToLower(strings.TrimSpace(want))
		if want == "" {
			continue
		}
		wanted++
		for _, have := range listing.Amenities {
			have = strings.ToLower(strings.TrimSpace(have))
			if have == "" {
				continue
			}
			if strings.Contains(have, want) || strings.Contains(want, have) {
				found++
				matched = append(matched, want)
				break
			}
		}
	}
	if wanted == 0 {
		// Preference list held only blank strings; treat as unspecified.
		return types.CriterionResult{Criterion: types.CriterionAmenities}
	}

	r.Achieved = amenitiesWeight * float64(found) / float64(wanted)
	switch {
	case found == wanted:
		r.Classification = types.ClassMatch
		r.Detail = fmt.Sprintf("has all %d amenities you want (%s)", wanted, strings.Join(matched, ", "))
	case found > 0:
		r.Classification = types.ClassPartial
		r.Detail = fmt.Sprintf("has %d of %d amenities you want (%s)", found, wanted, strings.Join(matched, ", "))
	default:
		r.Classification = types.ClassMismatch
		r.Detail = "none of your preferred amenities"
	}
	return r
}
