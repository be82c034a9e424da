package curves

import (
	"fmt"

	"github.com/ahrav/rocagg/internal/domain"
)

// PrecisionRecallCurve aggregates the groups into a single
// precision-recall curve on an ascending grid.
//
// precision = TP / (TP + FP) and recall = TP / pooled positives. Where
// nothing is predicted positive (TP + FP == 0) precision is 1, so the
// high-threshold end of the curve does not collapse to zero.
//
// Returns ErrDegenerateDataset when the pooled data has no positives, plus
// any PartialCM error.
func PrecisionRecallCurve(groups []domain.GroupCurve) (domain.PRCurve, error) {
	matrix, grid, err := PartialCM(groups, domain.Ascending)
	if err != nil {
		return domain.PRCurve{}, fmt.Errorf("partial confusion matrix: %w", err)
	}

	return PrecisionRecallFromCounts(matrix, grid, totalPositives(groups))
}

// PrecisionRecallFromCounts converts an aggregated matrix into precision
// and recall. The output keeps the matrix's order.
func PrecisionRecallFromCounts(
	matrix domain.AggregatedMatrix,
	grid domain.UnifiedGrid,
	positives int,
) (domain.PRCurve, error) {
	if len(matrix) != len(grid) {
		return domain.PRCurve{}, fmt.Errorf("%w: matrix=%d, thresholds=%d",
			domain.ErrShapeMismatch, len(matrix), len(grid))
	}
	if positives <= 0 {
		return domain.PRCurve{}, fmt.Errorf("%w: positives=%d", domain.ErrDegenerateDataset, positives)
	}

	precision := make([]float64, len(matrix))
	recall := make([]float64, len(matrix))
	for i, row := range matrix {
		if predicted := row.Predicted(); predicted == 0 {
			precision[i] = 1
		} else {
			precision[i] = float64(row.TP) / float64(predicted)
		}
		recall[i] = float64(row.TP) / float64(positives)
	}

	return domain.PRCurve{
		Precision:  precision,
		Recall:     recall,
		Thresholds: []float64(grid),
	}, nil
}
