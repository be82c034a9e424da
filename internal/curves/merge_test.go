package curves

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/rocagg/internal/domain"
	"github.com/ahrav/rocagg/internal/testutils"
)

// twoGroups returns the reference two-group scenario: group a reports
// three points over 2 negatives and 6 positives, group b six points over
// 5 negatives and 5 positives.
func twoGroups() []domain.GroupCurve {
	return []domain.GroupCurve{
		{
			Name:          "a",
			FPR:           []float64{1.0 / 2, 1, 0},
			TPR:           []float64{3.0 / 6, 1, 0},
			Thresholds:    []float64{0.3, 0.1, 1.3},
			NegativeCount: 2,
			TotalCount:    8,
		},
		{
			Name:          "b",
			FPR:           []float64{0, 1, 2.0 / 5, 2.0 / 5, 2.0 / 5, 4.0 / 5},
			TPR:           []float64{0, 1, 0, 1.0 / 5, 3.0 / 5, 3.0 / 5},
			Thresholds:    []float64{1.4, 0.1, 0.4, 0.35, 0.3, 0.2},
			NegativeCount: 5,
			TotalCount:    10,
		},
	}
}

var (
	twoGroupsGrid   = domain.UnifiedGrid{0.1, 0.2, 0.3, 0.35, 0.4, 1.3, 1.4}
	twoGroupsMatrix = domain.AggregatedMatrix{
		{FP: 7, TP: 11}, {FP: 5, TP: 6}, {FP: 3, TP: 6}, {FP: 2, TP: 1}, {FP: 2, TP: 0}, {FP: 0, TP: 0}, {FP: 0, TP: 0},
	}
)

func reversed[S ~[]E, E any](s S) S {
	out := slices.Clone(s)
	slices.Reverse(out)
	return out
}

// TestPartialCM_TwoGroups checks the reference scenario in both orders.
func TestPartialCM_TwoGroups(t *testing.T) {
	tests := []struct {
		name       string
		order      domain.Order
		wantMatrix domain.AggregatedMatrix
		wantGrid   domain.UnifiedGrid
	}{
		{
			name:       "ascending",
			order:      domain.Ascending,
			wantMatrix: twoGroupsMatrix,
			wantGrid:   twoGroupsGrid,
		},
		{
			name:       "descending reverses matrix and grid together",
			order:      domain.Descending,
			wantMatrix: reversed(twoGroupsMatrix),
			wantGrid:   reversed(twoGroupsGrid),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matrix, grid, err := PartialCM(twoGroups(), tt.order)
			require.NoError(t, err)

			assert.Equal(t, tt.wantMatrix, matrix)
			assert.Equal(t, tt.wantGrid, grid)
		})
	}
}

func TestPartialCM_Errors(t *testing.T) {
	tests := []struct {
		name    string
		groups  []domain.GroupCurve
		order   domain.Order
		wantErr error
	}{
		{
			name:    "no groups",
			groups:  nil,
			order:   domain.Ascending,
			wantErr: domain.ErrNoGroups,
		},
		{
			name:    "unknown order",
			groups:  twoGroups(),
			order:   domain.Order("sideways"),
			wantErr: domain.ErrInvalidOrder,
		},
		{
			name: "group arrays disagree in length",
			groups: []domain.GroupCurve{
				twoGroups()[0],
				{Name: "short", FPR: []float64{0, 1}, TPR: []float64{1}, Thresholds: []float64{0.5, 0.1}, NegativeCount: 1, TotalCount: 2},
			},
			order:   domain.Ascending,
			wantErr: domain.ErrShapeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matrix, grid, err := PartialCM(tt.groups, tt.order)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, matrix)
			assert.Nil(t, grid)
		})
	}

	t.Run("shape error names the group", func(t *testing.T) {
		groups := []domain.GroupCurve{{Name: "short", FPR: []float64{0}, TPR: nil, Thresholds: []float64{0.5}}}
		_, _, err := PartialCM(groups, domain.Ascending)

		var ge *domain.GroupError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, 0, ge.Index)
		assert.Equal(t, "short", ge.Name)
	})
}

// TestPartialCM_SingleGroup verifies that one group reproduces its own
// recovered, deduplicated and sorted curve.
func TestPartialCM_SingleGroup(t *testing.T) {
	g := twoGroups()[1]

	matrix, grid, err := PartialCM([]domain.GroupCurve{g}, domain.Ascending)
	require.NoError(t, err)

	bps := NewStepFunction(RecoverCounts(g)).Breakpoints()
	require.Len(t, matrix, len(bps))
	for i, bp := range bps {
		assert.Equal(t, bp.Threshold, grid[i])
		assert.Equal(t, domain.CountPair{FP: bp.FP, TP: bp.TP}, matrix[i])
	}
}

// TestPartialCM_OrderInvariance verifies that group order does not change
// the threshold to count mapping.
func TestPartialCM_OrderInvariance(t *testing.T) {
	groups := testutils.Curves(testutils.GenerateGroups(11, 6, testutils.DefaultGroupOptions()))

	wantMatrix, wantGrid, err := PartialCM(groups, domain.Ascending)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	for range 5 {
		shuffled := slices.Clone(groups)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		matrix, grid, err := PartialCM(shuffled, domain.Ascending)
		require.NoError(t, err)
		assert.Equal(t, wantMatrix, matrix)
		assert.Equal(t, wantGrid, grid)
	}
}

// TestPartialCM_Monotonic verifies that counts never increase along an
// ascending grid and that the grid is strictly increasing.
func TestPartialCM_Monotonic(t *testing.T) {
	groups := testutils.Curves(testutils.GenerateGroups(5, 10, testutils.DefaultGroupOptions()))

	matrix, grid, err := PartialCM(groups, domain.Ascending)
	require.NoError(t, err)

	for i := 1; i < len(grid); i++ {
		assert.Less(t, grid[i-1], grid[i], "grid must be strictly increasing at %d", i)
		assert.LessOrEqual(t, matrix[i].FP, matrix[i-1].FP, "FP increased at %d", i)
		assert.LessOrEqual(t, matrix[i].TP, matrix[i-1].TP, "TP increased at %d", i)
	}
}

// TestPartialCM_CountConservation verifies that no row ever exceeds the
// pooled totals and that the lowest threshold classifies everything
// positive when every group's curve starts at full classification.
func TestPartialCM_CountConservation(t *testing.T) {
	for _, groups := range [][]domain.GroupCurve{
		twoGroups(),
		testutils.Curves(testutils.GenerateGroups(8, 7, testutils.DefaultGroupOptions())),
	} {
		matrix, _, err := PartialCM(groups, domain.Ascending)
		require.NoError(t, err)

		negatives, positives, total := totalNegatives(groups), totalPositives(groups), 0
		for _, g := range groups {
			total += g.TotalCount
		}

		for i, row := range matrix {
			assert.LessOrEqual(t, row.Predicted(), total, "row %d", i)
			assert.LessOrEqual(t, row.FP, negatives, "row %d", i)
			assert.LessOrEqual(t, row.TP, positives, "row %d", i)
		}
		assert.Equal(t, domain.CountPair{FP: negatives, TP: positives}, matrix[0])
	}
}

// TestPartialCM_MatchesPooledData verifies exactness: at every grid
// threshold the merged counts equal the counts computed over the union of
// all groups' raw scores.
func TestPartialCM_MatchesPooledData(t *testing.T) {
	tests := []struct {
		name string
		opts testutils.GroupOptions
		n    int
	}{
		{name: "quantized scores share thresholds", opts: testutils.DefaultGroupOptions(), n: 12},
		{name: "continuous scores", opts: testutils.GroupOptions{MinSize: 3, MaxSize: 25, PositiveRate: 0.5}, n: 5},
		{name: "single group", opts: testutils.DefaultGroupOptions(), n: 1},
		{name: "coarse scores", opts: testutils.GroupOptions{MinSize: 10, MaxSize: 60, PositiveRate: 0.3, ScoreLevels: 3}, n: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synthetic := testutils.GenerateGroups(99, tt.n, tt.opts)

			matrix, grid, err := PartialCM(testutils.Curves(synthetic), domain.Ascending)
			require.NoError(t, err)

			for i, threshold := range grid {
				assert.Equal(t, testutils.PooledCounts(synthetic, threshold), matrix[i],
					"threshold %g", threshold)
			}
		})
	}
}

// TestPartialCM_DoesNotMutateInput guards the immutability contract.
func TestPartialCM_DoesNotMutateInput(t *testing.T) {
	groups := twoGroups()
	before := twoGroups()

	_, _, err := PartialCM(groups, domain.Descending)
	require.NoError(t, err)

	assert.Equal(t, before, groups)
}

func TestPartialCM_EmptyGroupContributesNothing(t *testing.T) {
	groups := append(twoGroups(), domain.GroupCurve{Name: "empty", NegativeCount: 3, TotalCount: 4})

	matrix, grid, err := PartialCM(groups, domain.Ascending)
	require.NoError(t, err)

	assert.Equal(t, twoGroupsMatrix, matrix)
	assert.Equal(t, twoGroupsGrid, grid)
}

func TestUnifyThresholds(t *testing.T) {
	groups := []domain.GroupCurve{
		{Thresholds: []float64{0.3, 0.1, 0.3}},
		{Thresholds: []float64{0.2, 0.1}},
		{Thresholds: nil},
	}

	assert.Equal(t, domain.UnifiedGrid{0.1, 0.2, 0.3}, UnifyThresholds(groups, domain.Ascending))
	assert.Equal(t, domain.UnifiedGrid{0.3, 0.2, 0.1}, UnifyThresholds(groups, domain.Descending))
	assert.Empty(t, UnifyThresholds(nil, domain.Ascending))
}

func TestRecoverCounts(t *testing.T) {
	got := RecoverCounts(twoGroups()[1])

	want := []domain.CountPoint{
		{Threshold: 1.4, FP: 0, TP: 0},
		{Threshold: 0.1, FP: 5, TP: 5},
		{Threshold: 0.4, FP: 2, TP: 0},
		{Threshold: 0.35, FP: 2, TP: 1},
		{Threshold: 0.3, FP: 2, TP: 3},
		{Threshold: 0.2, FP: 4, TP: 3},
	}
	assert.Equal(t, want, got, "recovery must keep the group's own order")
}

func TestGroupsFromLists(t *testing.T) {
	t.Run("builds aligned groups", func(t *testing.T) {
		groups, err := GroupsFromLists(
			[][]float64{{0.5, 1, 0}, {0, 1}},
			[][]float64{{0.5, 1, 0}, {0, 1}},
			[][]float64{{0.3, 0.1, 1.3}, {1.4, 0.1}},
			[]int{2, 5},
			[]int{8, 10},
		)
		require.NoError(t, err)
		require.Len(t, groups, 2)
		assert.Equal(t, []float64{1.4, 0.1}, groups[1].Thresholds)
		assert.Equal(t, 5, groups[1].NegativeCount)
		assert.Equal(t, 6, groups[0].PositiveCount())
	})

	t.Run("outer lists disagree", func(t *testing.T) {
		_, err := GroupsFromLists(
			[][]float64{{0}},
			[][]float64{{0}},
			[][]float64{{0.5}},
			[]int{1, 2},
			[]int{2},
		)
		assert.ErrorIs(t, err, domain.ErrShapeMismatch)
	})
}

// FuzzPartialCM checks structural invariants on arbitrary generated inputs.
func FuzzPartialCM(f *testing.F) {
	f.Add(int64(1), uint8(3), uint8(10))
	f.Add(int64(42), uint8(1), uint8(2))
	f.Add(int64(-7), uint8(16), uint8(0))

	f.Fuzz(func(t *testing.T, seed int64, n uint8, levels uint8) {
		if n == 0 || n > 32 {
			t.Skip()
		}
		opts := testutils.GroupOptions{MinSize: 2, MaxSize: 30, PositiveRate: 0.5, ScoreLevels: int(levels)}
		synthetic := testutils.GenerateGroups(seed, int(n), opts)

		asc, ascGrid, err := PartialCM(testutils.Curves(synthetic), domain.Ascending)
		require.NoError(t, err)
		desc, descGrid, err := PartialCM(testutils.Curves(synthetic), domain.Descending)
		require.NoError(t, err)

		require.Equal(t, reversed(asc), desc)
		require.Equal(t, reversed(ascGrid), descGrid)
		for i, threshold := range ascGrid {
			require.Equal(t, testutils.PooledCounts(synthetic, threshold), asc[i])
		}
	})
}

func BenchmarkPartialCM(b *testing.B) {
	for _, n := range []int{2, 16, 128} {
		groups := testutils.Curves(testutils.GenerateGroups(1, n, testutils.GroupOptions{
			MinSize: 200, MaxSize: 400, PositiveRate: 0.4,
		}))
		b.Run(testName(n), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				_, _, _ = PartialCM(groups, domain.Ascending)
			}
		})
	}
}

func testName(groups int) string {
	switch {
	case groups < 10:
		return "few_groups"
	case groups < 100:
		return "many_groups"
	default:
		return "federated"
	}
}
