package curves

import (
	"math"

	"github.com/ahrav/rocagg/internal/domain"
)

// RecoverCounts converts a group's rates back into integer counts, one
// CountPoint per reported point, in the group's own order.
//
// FP is fpr*negatives and TP is tpr*positives, rounded to the nearest
// integer. Rates that do not correspond to whole counts are a caller
// error; ValidateGroup detects them. The group's arrays must share a
// length.
func RecoverCounts(g domain.GroupCurve) []domain.CountPoint {
	negatives := float64(g.NegativeCount)
	positives := float64(g.PositiveCount())

	points := make([]domain.CountPoint, len(g.Thresholds))
	for i, threshold := range g.Thresholds {
		points[i] = domain.CountPoint{
			Threshold: threshold,
			FP:        int(math.Round(g.FPR[i] * negatives)),
			TP:        int(math.Round(g.TPR[i] * positives)),
		}
	}
	return points
}
