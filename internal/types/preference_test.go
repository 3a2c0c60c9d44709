package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreferenceSet_HasAnyCriteria(t *testing.T) {
	assert.False(t, (&PreferenceSet{}).HasAnyCriteria())
	assert.False(t, (&PreferenceSet{BudgetMin: 1000}).HasAnyCriteria(), "a minimum alone is not scorable")

	assert.True(t, (&PreferenceSet{BudgetMax: 2000}).HasAnyCriteria())
	assert.True(t, (&PreferenceSet{Bedrooms: 1}).HasAnyCriteria())
	assert.True(t, (&PreferenceSet{Amenities: []string{"pool"}}).HasAnyCriteria())
}

func TestPreferenceSet_NormalizedSnapshotIgnoresListOrder(t *testing.T) {
	a := PreferenceSet{
		BudgetMax:     2500,
		Neighborhoods: []string{"Ballard", "Fremont"},
		Amenities:     []string{"Pool", " gym "},
	}
	b := PreferenceSet{
		BudgetMax:     2500,
		Neighborhoods: []string{"fremont", "BALLARD"},
		Amenities:     []string{"GYM", "pool"},
	}

	assert.Equal(t, a.NormalizedSnapshot(), b.NormalizedSnapshot())
}

func TestPreferenceSet_NormalizedSnapshotReflectsChanges(t *testing.T) {
	a := PreferenceSet{BudgetMax: 2500, Bedrooms: 2}
	b := PreferenceSet{BudgetMax: 2500, Bedrooms: 3}

	assert.NotEqual(t, a.NormalizedSnapshot(), b.NormalizedSnapshot())
}
