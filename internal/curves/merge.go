// Package curves merges ROC data reported by independent evaluation groups
// into exact dataset-wide confusion counts and builds ROC and
// precision-recall curves from them.
//
// Each group reports only (fpr, tpr, threshold) points and its class
// counts. The package recovers the integer counts those rates encode,
// evaluates every group's count step function on the union of all
// thresholds, and sums the results. No interpolation is involved, so the
// merged counts equal the counts a single evaluation over the pooled data
// would have produced at every grid threshold.
//
// All functions are pure and safe for concurrent use.
package curves

import (
	"fmt"
	"slices"

	"github.com/ahrav/rocagg/internal/domain"
)

// PartialCM returns the aggregated false and true positive counts of all
// groups at every point of the unified threshold grid.
//
// Every group is turned into a StepFunction and evaluated at each grid
// threshold t with the ceiling rule: the counts of the group's smallest
// breakpoint >= t, or zero when t is above all of its breakpoints. The
// per-group values are summed into the matrix row for t.
//
// The matrix and grid are aligned. With Descending both are reversed
// together. Cost is O(G·T log B) for G groups, T grid points and B
// breakpoints per group.
//
// Errors:
//   - ErrNoGroups when groups is empty
//   - ErrInvalidOrder for an unknown order
//   - ErrShapeMismatch (wrapped in a GroupError) when a group's arrays
//     disagree in length
func PartialCM(groups []domain.GroupCurve, order domain.Order) (domain.AggregatedMatrix, domain.UnifiedGrid, error) {
	if len(groups) == 0 {
		return nil, nil, domain.ErrNoGroups
	}
	if !order.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", domain.ErrInvalidOrder, order)
	}

	steps := make([]StepFunction, len(groups))
	for i, g := range groups {
		if !g.HasConsistentShape() {
			return nil, nil, domain.NewGroupError(i, g.Name, fmt.Errorf("%w: fpr=%d, tpr=%d, thresholds=%d",
				domain.ErrShapeMismatch, len(g.FPR), len(g.TPR), len(g.Thresholds)))
		}
		steps[i] = NewStepFunction(RecoverCounts(g))
	}

	grid := UnifyThresholds(groups, domain.Ascending)
	matrix := make(domain.AggregatedMatrix, len(grid))
	for i, t := range grid {
		var row domain.CountPair
		for _, step := range steps {
			c := step.At(t)
			row.FP += c.FP
			row.TP += c.TP
		}
		matrix[i] = row
	}

	if order == domain.Descending {
		slices.Reverse(matrix)
		slices.Reverse(grid)
	}
	return matrix, grid, nil
}

// GroupsFromLists assembles GroupCurves from parallel ragged lists, one
// entry per group in every list. Inner arrays are referenced, not copied.
// It returns ErrShapeMismatch when the outer lists disagree in length.
func GroupsFromLists(
	fprs, tprs, thresholds [][]float64,
	negativeCounts, totalCounts []int,
) ([]domain.GroupCurve, error) {
	n := len(thresholds)
	if len(fprs) != n || len(tprs) != n || len(negativeCounts) != n || len(totalCounts) != n {
		return nil, fmt.Errorf("%w: fpr=%d, tpr=%d, thresholds=%d, negative_counts=%d, total_counts=%d",
			domain.ErrShapeMismatch, len(fprs), len(tprs), n, len(negativeCounts), len(totalCounts))
	}

	groups := make([]domain.GroupCurve, n)
	for i := range groups {
		groups[i] = domain.GroupCurve{
			FPR:           fprs[i],
			TPR:           tprs[i],
			Thresholds:    thresholds[i],
			NegativeCount: negativeCounts[i],
			TotalCount:    totalCounts[i],
		}
	}
	return groups, nil
}
