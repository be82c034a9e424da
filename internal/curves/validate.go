package curves

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/rocagg/internal/domain"
)

// countTolerance bounds how far rate*count may sit from a whole number
// before the rate is considered inconsistent with the group's counts.
const countTolerance = 1e-6

// Package-level validator instance for GroupCurve struct tags.
var validate = validator.New()

// ValidateGroups is the input gate for the merge engine. It checks every
// group with ValidateGroup and joins all failures, each wrapped in a
// domain.GroupError. PartialCM and the curve builders never call it; run
// it first when the inputs come from an untrusted source.
func ValidateGroups(groups []domain.GroupCurve) error {
	if len(groups) == 0 {
		return domain.ErrNoGroups
	}

	var errs []error
	for i, g := range groups {
		if err := ValidateGroup(g); err != nil {
			errs = append(errs, domain.NewGroupError(i, g.Name, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateGroup checks a single group:
//   - non-empty arrays and consistent class counts (struct tags)
//   - FPR, TPR and Thresholds of equal length
//   - finite rates in [0, 1] and non-NaN thresholds
//   - rates that recover whole counts
//   - counts that never increase as the threshold increases
//
// It returns a *domain.ValidationError listing every failure, or nil.
func ValidateGroup(g domain.GroupCurve) error {
	verr := domain.NewValidationError(groupEntity(g))

	if err := validate.Struct(g); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("struct validation: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.AddCause(fieldCause(fe.Field()), fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
	}

	if !g.HasConsistentShape() {
		verr.AddCause(domain.ErrShapeMismatch, fmt.Sprintf("fpr has %d entries, tpr has %d, thresholds has %d",
			len(g.FPR), len(g.TPR), len(g.Thresholds)))
		return verr
	}

	negatives := float64(g.NegativeCount)
	positives := float64(g.PositiveCount())
	for i := range g.Thresholds {
		if math.IsNaN(g.Thresholds[i]) {
			verr.AddCause(domain.ErrNonFinite, fmt.Sprintf("thresholds[%d] is NaN", i))
		}
		checkRate(verr, "fpr", i, g.FPR[i], negatives)
		checkRate(verr, "tpr", i, g.TPR[i], positives)
	}
	if verr.HasErrors() {
		return verr
	}

	bps := NewStepFunction(RecoverCounts(g)).Breakpoints()
	for i := 1; i < len(bps); i++ {
		prev, cur := bps[i-1], bps[i]
		if cur.FP > prev.FP || cur.TP > prev.TP {
			verr.AddCause(domain.ErrInvalidRate, fmt.Sprintf(
				"counts increase from (fp=%d, tp=%d) at threshold %g to (fp=%d, tp=%d) at threshold %g",
				prev.FP, prev.TP, prev.Threshold, cur.FP, cur.TP, cur.Threshold))
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

func checkRate(verr *domain.ValidationError, name string, i int, rate, count float64) {
	switch {
	case math.IsNaN(rate) || math.IsInf(rate, 0):
		verr.AddCause(domain.ErrNonFinite, fmt.Sprintf("%s[%d] is %v", name, i, rate))
	case rate < 0 || rate > 1:
		verr.AddCause(domain.ErrInvalidRate, fmt.Sprintf("%s[%d]=%g outside [0, 1]", name, i, rate))
	default:
		if x := rate * count; math.Abs(x-math.Round(x)) > countTolerance {
			verr.AddCause(domain.ErrInvalidRate, fmt.Sprintf("%s[%d]=%g does not recover a whole count (%g)", name, i, rate, x))
		}
	}
}

func fieldCause(field string) error {
	switch field {
	case "NegativeCount", "TotalCount":
		return domain.ErrInvalidCounts
	case "FPR", "TPR", "Thresholds":
		return domain.ErrShapeMismatch
	default:
		return domain.ErrInvalidState
	}
}

func groupEntity(g domain.GroupCurve) string {
	if g.Name != "" {
		return "group " + g.Name
	}
	return "group"
}
