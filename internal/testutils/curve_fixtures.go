// Package testutils provides utilities for testing, including synthetic
// evaluation groups with known ground truth. These components are intended
// for internal use within the project's test suites and fixture tooling and
// are not part of the public API.
package testutils

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/ahrav/rocagg/internal/domain"
)

// SyntheticGroup is one evaluation group with its raw scores and labels
// plus the ROC curve the group would report locally.
type SyntheticGroup struct {
	Scores []float64
	Labels []bool
	Curve  domain.GroupCurve
}

// GroupOptions controls synthetic group generation.
type GroupOptions struct {
	// MinSize and MaxSize bound the number of samples per group.
	MinSize int
	MaxSize int

	// PositiveRate is the probability that a sample is positive.
	PositiveRate float64

	// ScoreLevels quantizes scores to k/ScoreLevels so that groups share
	// threshold values. Zero leaves scores continuous.
	ScoreLevels int

	// Separation shifts positive scores upward, making the classifier
	// better than chance. Zero yields a random classifier.
	Separation float64
}

// DefaultGroupOptions returns options producing small, overlapping groups.
func DefaultGroupOptions() GroupOptions {
	return GroupOptions{
		MinSize:      5,
		MaxSize:      40,
		PositiveRate: 0.4,
		ScoreLevels:  20,
		Separation:   0.25,
	}
}

// GenerateGroups creates n synthetic groups. The seed parameter controls
// randomization; use a fixed value for reproducible tests. Every group
// holds at least one positive and one negative sample.
func GenerateGroups(seed int64, n int, opts GroupOptions) []SyntheticGroup {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // test fixtures only

	if opts.MinSize < 2 {
		opts.MinSize = 2
	}
	if opts.MaxSize < opts.MinSize {
		opts.MaxSize = opts.MinSize
	}

	groups := make([]SyntheticGroup, 0, n)
	for i := range n {
		size := opts.MinSize + rng.Intn(opts.MaxSize-opts.MinSize+1)
		scores := make([]float64, size)
		labels := make([]bool, size)
		for j := range size {
			switch j {
			case 0:
				labels[j] = true
			case 1:
				labels[j] = false
			default:
				labels[j] = rng.Float64() < opts.PositiveRate
			}

			score := rng.Float64()
			if labels[j] {
				score = min(1, score+opts.Separation)
			}
			if opts.ScoreLevels > 0 {
				score = float64(int(score*float64(opts.ScoreLevels))) / float64(opts.ScoreLevels)
			}
			scores[j] = score
		}

		groups = append(groups, SyntheticGroup{
			Scores: scores,
			Labels: labels,
			Curve:  LocalROC(fmt.Sprintf("group-%d", i), scores, labels),
		})
	}
	return groups
}

// LocalROC computes the ROC curve a group reports from its own raw data:
// one point per distinct score, where every sample scoring at or above the
// threshold is classified positive. Points are emitted in descending
// threshold order. With no negatives (or positives) the corresponding rate
// is reported as 0.
func LocalROC(name string, scores []float64, labels []bool) domain.GroupCurve {
	negatives, positives := 0, 0
	for _, l := range labels {
		if l {
			positives++
		} else {
			negatives++
		}
	}

	thresholds := slices.Clone(scores)
	slices.Sort(thresholds)
	thresholds = slices.Compact(thresholds)
	slices.Reverse(thresholds)

	curve := domain.GroupCurve{
		Name:          name,
		FPR:           make([]float64, len(thresholds)),
		TPR:           make([]float64, len(thresholds)),
		Thresholds:    thresholds,
		NegativeCount: negatives,
		TotalCount:    len(labels),
	}
	for i, t := range thresholds {
		fp, tp := countAtOrAbove(scores, labels, t)
		curve.FPR[i] = rate(fp, negatives)
		curve.TPR[i] = rate(tp, positives)
	}
	return curve
}

// PooledCounts returns the counts a single evaluation over the union of all
// groups' raw data would produce at threshold t.
func PooledCounts(groups []SyntheticGroup, t float64) domain.CountPair {
	var out domain.CountPair
	for _, g := range groups {
		fp, tp := countAtOrAbove(g.Scores, g.Labels, t)
		out.FP += fp
		out.TP += tp
	}
	return out
}

// Curves extracts the reported curves of the groups.
func Curves(groups []SyntheticGroup) []domain.GroupCurve {
	out := make([]domain.GroupCurve, len(groups))
	for i, g := range groups {
		out[i] = g.Curve
	}
	return out
}

func countAtOrAbove(scores []float64, labels []bool, t float64) (fp, tp int) {
	for i, s := range scores {
		if s < t {
			continue
		}
		if labels[i] {
			tp++
		} else {
			fp++
		}
	}
	return fp, tp
}

func rate(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}
