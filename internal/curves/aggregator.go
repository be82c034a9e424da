package curves

import "github.com/ahrav/rocagg/internal/domain"

var _ domain.CurveAggregator = Aggregator{}

// Aggregator exposes the package functions through domain.CurveAggregator
// so callers can inject a different implementation in tests.
type Aggregator struct{}

// PartialCM implements domain.CurveAggregator.
func (Aggregator) PartialCM(groups []domain.GroupCurve, order domain.Order) (domain.AggregatedMatrix, domain.UnifiedGrid, error) {
	return PartialCM(groups, order)
}

// ROCCurve implements domain.CurveAggregator.
func (Aggregator) ROCCurve(groups []domain.GroupCurve) (domain.ROCCurve, error) {
	return ROCCurve(groups)
}

// PrecisionRecallCurve implements domain.CurveAggregator.
func (Aggregator) PrecisionRecallCurve(groups []domain.GroupCurve) (domain.PRCurve, error) {
	return PrecisionRecallCurve(groups)
}
