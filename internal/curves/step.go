package curves

import (
	"cmp"
	"slices"
	"sort"

	"github.com/ahrav/rocagg/internal/domain"
)

// StepFunction is a group's classified-positive counts as a function of
// the decision threshold. It is stored as breakpoints sorted ascending by
// threshold; between breakpoints the value is read from the next
// breakpoint up, and above the last breakpoint it is zero.
//
// A StepFunction is immutable after construction and safe for concurrent use.
type StepFunction struct {
	thresholds []float64
	counts     []domain.CountPair
}

// NewStepFunction builds a StepFunction from recovered breakpoints in any
// order. The input slice is not modified.
//
// When a threshold appears more than once, the entry with the larger
// FP+TP is kept since it describes the more permissive classification.
// On a full tie the entry that comes later in the input wins.
func NewStepFunction(points []domain.CountPoint) StepFunction {
	sorted := slices.Clone(points)
	slices.SortStableFunc(sorted, func(a, b domain.CountPoint) int {
		return cmp.Compare(a.Threshold, b.Threshold)
	})

	sf := StepFunction{
		thresholds: make([]float64, 0, len(sorted)),
		counts:     make([]domain.CountPair, 0, len(sorted)),
	}
	for _, p := range sorted {
		pair := domain.CountPair{FP: p.FP, TP: p.TP}
		last := len(sf.thresholds) - 1
		if last >= 0 && sf.thresholds[last] == p.Threshold {
			if pair.Predicted() >= sf.counts[last].Predicted() {
				sf.counts[last] = pair
			}
			continue
		}
		sf.thresholds = append(sf.thresholds, p.Threshold)
		sf.counts = append(sf.counts, pair)
	}
	return sf
}

// At evaluates the function at threshold t: the counts of the smallest
// breakpoint greater than or equal to t, or zero counts when t is above
// every breakpoint. Lookup is a binary search.
func (s StepFunction) At(t float64) domain.CountPair {
	i := sort.SearchFloat64s(s.thresholds, t)
	if i == len(s.thresholds) {
		return domain.CountPair{}
	}
	return s.counts[i]
}

// Len returns the number of distinct breakpoints.
func (s StepFunction) Len() int { return len(s.thresholds) }

// Breakpoints returns a copy of the deduplicated breakpoints in ascending
// threshold order.
func (s StepFunction) Breakpoints() []domain.CountPoint {
	out := make([]domain.CountPoint, len(s.thresholds))
	for i, t := range s.thresholds {
		out[i] = domain.CountPoint{Threshold: t, FP: s.counts[i].FP, TP: s.counts[i].TP}
	}
	return out
}
