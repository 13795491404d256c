package negotiation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rrens/parley/internal/negotiation"
)

func TestResolveOutcome(t *testing.T) {
	tests := []struct {
		interest int
		want     negotiation.Outcome
	}{
		{-1, negotiation.OutcomeFailure},
		{0, negotiation.OutcomeFailure},
		{1, negotiation.OutcomeFailure},
		{2, negotiation.OutcomeMinorFavor},
		{3, negotiation.OutcomeMajorFavor},
		{4, negotiation.OutcomeMajorFavor},
		{5, negotiation.OutcomeAlliance},
		{7, negotiation.OutcomeAlliance},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, negotiation.ResolveOutcome(tt.interest), "interest %d", tt.interest)
	}
}

func TestOutcomeIsMonotonic(t *testing.T) {
	prev := -1
	for i := 0; i <= negotiation.MaxInterest; i++ {
		rank := negotiation.ResolveOutcome(i).Rank()
		assert.GreaterOrEqual(t, rank, prev)
		prev = rank
	}
}

func TestCountersApply(t *testing.T) {
	c := negotiation.Counters{Interest: 2, Patience: 1, PatienceCap: 5}

	next, exhausted := c.Apply(0, -1)
	assert.True(t, exhausted)
	assert.Equal(t, 0, next.Patience)

	next, exhausted = c.Apply(-5, -5)
	assert.True(t, exhausted)
	assert.Equal(t, 0, next.Interest)
	assert.Equal(t, 0, next.Patience)

	next, exhausted = c.Apply(9, 9)
	assert.False(t, exhausted)
	assert.Equal(t, 5, next.Interest)
	assert.Equal(t, 5, next.Patience)
	assert.Equal(t, 2, c.Interest, "Apply must not modify the receiver")
}

func TestMotivationTypesAreValid(t *testing.T) {
	types := negotiation.MotivationTypes()
	assert.Len(t, types, 14)
	for _, mt := range types {
		assert.True(t, mt.Valid(), mt)
	}
	assert.False(t, negotiation.MotivationType("gluttony").Valid())
}
