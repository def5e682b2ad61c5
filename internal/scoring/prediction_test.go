package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvailablePredictions(t *testing.T) {
	assert.Equal(t, []Prediction{PredictionZero, PredictionMore, PredictionMax}, AvailablePredictions(2))
	for count := 3; count <= 6; count++ {
		assert.Equal(t,
			[]Prediction{PredictionZero, PredictionMin, PredictionMore, PredictionMax},
			AvailablePredictions(count), "count %d", count)
	}
	assert.Nil(t, AvailablePredictions(1))
	assert.Nil(t, AvailablePredictions(7))
}

func TestPredictionRange(t *testing.T) {
	lo, hi, ok := PredictionRange(4, PredictionMore)
	assert.True(t, ok)
	assert.Equal(t, 6, lo)
	assert.Equal(t, 9, hi)

	lo, hi, ok = PredictionRange(5, PredictionMore)
	assert.True(t, ok)
	assert.Equal(t, 5, lo)
	assert.Equal(t, 8, hi)

	_, _, ok = PredictionRange(2, PredictionMin)
	assert.False(t, ok)

	_, _, ok = PredictionRange(4, PredictionNone)
	assert.False(t, ok)
}

func TestPredictionBonus_Zero(t *testing.T) {
	assert.Equal(t, 40.0, PredictionBonus(4, PredictionZero, 0))
	assert.Equal(t, 0.0, PredictionBonus(4, PredictionZero, 1))
	assert.Equal(t, 0.0, PredictionBonus(4, PredictionZero, 0.5))
}

func TestPredictionBonus_RangeTypesPayTotal(t *testing.T) {
	// 4P MORE is [6,9].
	assert.Equal(t, 7.0, PredictionBonus(4, PredictionMore, 7))
	assert.Equal(t, 6.0, PredictionBonus(4, PredictionMore, 6))
	assert.Equal(t, 9.0, PredictionBonus(4, PredictionMore, 9))
	assert.Equal(t, 0.0, PredictionBonus(4, PredictionMore, 5))
	assert.Equal(t, 0.0, PredictionBonus(4, PredictionMore, 10))

	// 4P MIN is [1,4]; fractional totals inside the range still pay.
	assert.InDelta(t, 4.0/3.0, PredictionBonus(4, PredictionMin, 4.0/3.0), 1e-9)

	// 6P MAX is [10,12].
	assert.Equal(t, 12.0, PredictionBonus(6, PredictionMax, 12))
	assert.Equal(t, 0.0, PredictionBonus(6, PredictionMax, 9.5))
}
