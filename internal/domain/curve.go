package domain

import "slices"

// GroupCurve is one evaluation group's reported ROC curve together with
// the class counts it was computed over. A group can be a dataset, a
// cross-validation fold, or a data partition held by another party.
//
// FPR, TPR and Thresholds are parallel arrays: entry i reports the false
// and true positive rates obtained when every sample scoring at or above
// Thresholds[i] is classified positive. The arrays do not need to be
// sorted. GroupCurve values are treated as immutable once built.
type GroupCurve struct {
	// Name optionally identifies the group in errors and logs.
	Name string `yaml:"name" json:"name,omitempty" validate:"max=255"`

	// FPR holds false positive rates in [0, 1].
	FPR []float64 `yaml:"fpr" json:"fpr" validate:"required,min=1"`

	// TPR holds true positive rates in [0, 1].
	TPR []float64 `yaml:"tpr" json:"tpr" validate:"required,min=1"`

	// Thresholds holds the decision threshold of each point.
	Thresholds []float64 `yaml:"thresholds" json:"thresholds" validate:"required,min=1"`

	// NegativeCount is the number of negative samples in the group.
	NegativeCount int `yaml:"negative_count" json:"negative_count" validate:"min=0"`

	// TotalCount is the number of samples in the group.
	TotalCount int `yaml:"total_count" json:"total_count" validate:"gtefield=NegativeCount"`
}

// PositiveCount returns the number of positive samples in the group.
func (g GroupCurve) PositiveCount() int { return g.TotalCount - g.NegativeCount }

// Len returns the number of reported points. It is only meaningful when
// the three arrays agree in length.
func (g GroupCurve) Len() int { return len(g.Thresholds) }

// HasConsistentShape reports whether FPR, TPR and Thresholds share a length.
func (g GroupCurve) HasConsistentShape() bool {
	return len(g.FPR) == len(g.Thresholds) && len(g.TPR) == len(g.Thresholds)
}

// Clone returns a copy of g that shares no backing arrays with it.
func (g GroupCurve) Clone() GroupCurve {
	g.FPR = slices.Clone(g.FPR)
	g.TPR = slices.Clone(g.TPR)
	g.Thresholds = slices.Clone(g.Thresholds)
	return g
}

// CountPoint is a single recovered breakpoint of a group's step function:
// FP and TP samples are classified positive at Threshold.
type CountPoint struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
	FP        int     `json:"fp" yaml:"fp"`
	TP        int     `json:"tp" yaml:"tp"`
}

// CountPair holds aggregated false and true positive counts at one grid point.
type CountPair struct {
	FP int `json:"fp" yaml:"fp"`
	TP int `json:"tp" yaml:"tp"`
}

// Predicted returns the number of samples classified positive.
func (c CountPair) Predicted() int { return c.FP + c.TP }

// UnifiedGrid is the sorted, deduplicated union of every group's thresholds.
type UnifiedGrid []float64

// AggregatedMatrix holds one CountPair per UnifiedGrid entry, in grid order.
type AggregatedMatrix []CountPair

// FP returns the false positive column.
func (m AggregatedMatrix) FP() []int {
	out := make([]int, len(m))
	for i, row := range m {
		out[i] = row.FP
	}
	return out
}

// TP returns the true positive column.
func (m AggregatedMatrix) TP() []int {
	out := make([]int, len(m))
	for i, row := range m {
		out[i] = row.TP
	}
	return out
}

// Order selects the direction of the unified threshold grid.
type Order string

// Supported grid orders.
const (
	// Ascending sorts thresholds from lowest to highest. Counts are then
	// non-increasing down the matrix.
	Ascending Order = "ascending"

	// Descending sorts thresholds from highest to lowest, which is the
	// conventional direction for ROC curves starting at (0, 0).
	Descending Order = "descending"
)

// Valid reports whether o is a supported order.
func (o Order) Valid() bool { return o == Ascending || o == Descending }

// OrderFromDescending maps a descending flag onto an Order.
func OrderFromDescending(descending bool) Order {
	if descending {
		return Descending
	}
	return Ascending
}

// ROCCurve is an aggregated receiver operating characteristic curve.
// All three slices are aligned and follow a descending threshold grid.
type ROCCurve struct {
	FPR        []float64 `json:"fpr" yaml:"fpr"`
	TPR        []float64 `json:"tpr" yaml:"tpr"`
	Thresholds []float64 `json:"thresholds" yaml:"thresholds"`
}

// Clone returns a deep copy of c. A nil curve clones to nil.
func (c *ROCCurve) Clone() *ROCCurve {
	if c == nil {
		return nil
	}
	return &ROCCurve{
		FPR:        slices.Clone(c.FPR),
		TPR:        slices.Clone(c.TPR),
		Thresholds: slices.Clone(c.Thresholds),
	}
}

// PRCurve is an aggregated precision-recall curve.
// All three slices are aligned and follow an ascending threshold grid.
type PRCurve struct {
	Precision  []float64 `json:"precision" yaml:"precision"`
	Recall     []float64 `json:"recall" yaml:"recall"`
	Thresholds []float64 `json:"thresholds" yaml:"thresholds"`
}

// Clone returns a deep copy of c. A nil curve clones to nil.
func (c *PRCurve) Clone() *PRCurve {
	if c == nil {
		return nil
	}
	return &PRCurve{
		Precision:  slices.Clone(c.Precision),
		Recall:     slices.Clone(c.Recall),
		Thresholds: slices.Clone(c.Thresholds),
	}
}

// PartialConfusion bundles the merge engine output for storage in State.
type PartialConfusion struct {
	Matrix AggregatedMatrix `json:"matrix" yaml:"matrix"`
	Grid   UnifiedGrid      `json:"thresholds" yaml:"thresholds"`
	Order  Order            `json:"order" yaml:"order"`
}

// Clone returns a deep copy of p. A nil value clones to nil.
func (p *PartialConfusion) Clone() *PartialConfusion {
	if p == nil {
		return nil
	}
	return &PartialConfusion{
		Matrix: slices.Clone(p.Matrix),
		Grid:   slices.Clone(p.Grid),
		Order:  p.Order,
	}
}
