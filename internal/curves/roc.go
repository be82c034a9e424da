package curves

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/ahrav/rocagg/internal/domain"
)

// ROCCurve aggregates the groups into a single ROC curve. The merge runs
// on a descending grid, so the curve starts at the highest threshold.
//
// FP counts are divided by the pooled negative count and TP counts by the
// pooled positive count. The merged counts are already cumulative, so no
// further summation is needed.
//
// Returns ErrDegenerateDataset when the pooled data has no negatives or no
// positives, plus any PartialCM error.
func ROCCurve(groups []domain.GroupCurve) (domain.ROCCurve, error) {
	matrix, grid, err := PartialCM(groups, domain.Descending)
	if err != nil {
		return domain.ROCCurve{}, fmt.Errorf("partial confusion matrix: %w", err)
	}

	return ROCFromCounts(matrix, grid, totalNegatives(groups), totalPositives(groups))
}

// ROCFromCounts converts an aggregated matrix into rates. The output keeps
// the matrix's order.
func ROCFromCounts(
	matrix domain.AggregatedMatrix,
	grid domain.UnifiedGrid,
	negatives, positives int,
) (domain.ROCCurve, error) {
	if len(matrix) != len(grid) {
		return domain.ROCCurve{}, fmt.Errorf("%w: matrix=%d, thresholds=%d",
			domain.ErrShapeMismatch, len(matrix), len(grid))
	}
	if negatives <= 0 || positives <= 0 {
		return domain.ROCCurve{}, fmt.Errorf("%w: negatives=%d, positives=%d",
			domain.ErrDegenerateDataset, negatives, positives)
	}

	fpr := make([]float64, len(matrix))
	tpr := make([]float64, len(matrix))
	for i, row := range matrix {
		fpr[i] = float64(row.FP) / float64(negatives)
		tpr[i] = float64(row.TP) / float64(positives)
	}

	return domain.ROCCurve{
		FPR:        fpr,
		TPR:        tpr,
		Thresholds: []float64(grid),
	}, nil
}

func totalNegatives(groups []domain.GroupCurve) int {
	return lo.SumBy(groups, func(g domain.GroupCurve) int { return g.NegativeCount })
}

func totalPositives(groups []domain.GroupCurve) int {
	return lo.SumBy(groups, func(g domain.GroupCurve) int { return g.PositiveCount() })
}
