package curves

import (
	"slices"

	"github.com/ahrav/rocagg/internal/domain"
)

// UnifyThresholds returns the distinct threshold values of all groups,
// sorted in the requested order. Identical values reported by different
// groups collapse into one grid point, which is what allows their counts
// to be summed.
//
// The grid is built with one concatenate, sort and compact pass:
// O(T log T) over the T raw threshold entries.
func UnifyThresholds(groups []domain.GroupCurve, order domain.Order) domain.UnifiedGrid {
	total := 0
	for _, g := range groups {
		total += len(g.Thresholds)
	}

	grid := make([]float64, 0, total)
	for _, g := range groups {
		grid = append(grid, g.Thresholds...)
	}

	slices.Sort(grid)
	grid = slices.Compact(grid)

	if order == domain.Descending {
		slices.Reverse(grid)
	}
	return grid
}
