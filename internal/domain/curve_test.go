package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupCurve_Counts(t *testing.T) {
	g := GroupCurve{
		FPR:           []float64{0, 1},
		TPR:           []float64{0, 1},
		Thresholds:    []float64{0.9, 0.1},
		NegativeCount: 3,
		TotalCount:    10,
	}

	assert.Equal(t, 7, g.PositiveCount())
	assert.Equal(t, 2, g.Len())
	assert.True(t, g.HasConsistentShape())

	g.TPR = g.TPR[:1]
	assert.False(t, g.HasConsistentShape())
}

func TestAggregatedMatrix_Columns(t *testing.T) {
	m := AggregatedMatrix{{FP: 7, TP: 11}, {FP: 5, TP: 6}, {FP: 0, TP: 0}}

	assert.Equal(t, []int{7, 5, 0}, m.FP())
	assert.Equal(t, []int{11, 6, 0}, m.TP())
	assert.Equal(t, 18, m[0].Predicted())
	assert.Empty(t, AggregatedMatrix{}.FP())
}

func TestOrderFromDescending(t *testing.T) {
	assert.Equal(t, Descending, OrderFromDescending(true))
	assert.Equal(t, Ascending, OrderFromDescending(false))
	assert.True(t, Ascending.Valid())
	assert.True(t, Descending.Valid())
	assert.False(t, Order("sideways").Valid())
}
