package domain

// CurveAggregator merges per-group curves into dataset-wide results.
// Implementations must be pure: the same groups in any order produce the
// same output, and inputs are never modified.
type CurveAggregator interface {
	// PartialCM evaluates every group's step function on the unified
	// threshold grid and sums the counts. The matrix and grid are aligned
	// and sorted according to order.
	//
	// Example:
	//
	//	matrix, grid, err := agg.PartialCM(groups, Ascending)
	PartialCM(groups []GroupCurve, order Order) (AggregatedMatrix, UnifiedGrid, error)

	// ROCCurve returns the aggregated ROC curve on a descending grid.
	ROCCurve(groups []GroupCurve) (ROCCurve, error)

	// PrecisionRecallCurve returns the aggregated precision-recall curve
	// on an ascending grid.
	PrecisionRecallCurve(groups []GroupCurve) (PRCurve, error)
}
