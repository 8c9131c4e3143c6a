package hypotheses

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairstat/domain/core"
	"pairstat/domain/stats"
	"pairstat/internal/testkit"
)

func TestMannWhitneyUAllPairwise(t *testing.T) {
	d := testkit.Dist("faith-pd",
		testkit.Sample("a", 1, 2, 3),
		testkit.Sample("b", 4, 5, 6),
		testkit.Sample("c", 7, 8, 9),
	)

	table, err := MannWhitneyU(d, AllPairwise{}, UTestConfig{})
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())

	t.Run("rows follow generation order", func(t *testing.T) {
		assert.Equal(t, "a", table.Rows[0].GroupA)
		assert.Equal(t, "b", table.Rows[0].GroupB)
		assert.Equal(t, "a", table.Rows[1].GroupA)
		assert.Equal(t, "c", table.Rows[1].GroupB)
		assert.Equal(t, "b", table.Rows[2].GroupA)
		assert.Equal(t, "c", table.Rows[2].GroupB)
	})

	t.Run("row statistics", func(t *testing.T) {
		row := table.Rows[0]
		assert.Equal(t, 3, row.NA)
		assert.Equal(t, 3, row.NB)
		assert.Equal(t, 6, row.N)
		assert.Equal(t, 2.0, row.MeasureA)
		assert.Equal(t, 5.0, row.MeasureB)
		assert.Equal(t, 0.0, row.Stat)
		assert.InDelta(t, 0.1, row.P, 1e-15)
	})

	t.Run("q-values corrected per table", func(t *testing.T) {
		for _, row := range table.Rows {
			assert.InDelta(t, 0.1, row.Q, 1e-15)
		}
	})

	t.Run("descriptive attributes", func(t *testing.T) {
		attrs := table.Attrs
		assert.Equal(t, stats.KindPairwise, attrs.Kind)
		assert.Equal(t, stats.TestMannWhitneyU, attrs.Test)
		assert.Equal(t, "Median", attrs.GroupMeasure)
		assert.Equal(t, "Mann-Whitney U", attrs.TestStatistic)
		assert.Equal(t, "The Mann-Whitney U test statistic of group A.", attrs.TestDescription)
		assert.Equal(t, "two-sided, auto", attrs.PValueMethod)
		assert.Contains(t, attrs.NullDistribution, "considered either asymptotically normal")
		assert.Equal(t, "BH", attrs.CorrectionMethod)
		assert.Equal(t, 3, attrs.TotalComparisons)
		require.Len(t, attrs.Sources, 1)
		assert.Equal(t, "faith-pd", attrs.Sources[0].Name)
		assert.Equal(t, 9, attrs.Sources[0].Rows)
		assert.Equal(t, 3, attrs.Sources[0].Groups)
		assert.NotEmpty(t, attrs.TableID)
		assert.False(t, attrs.CreatedAt.IsZero())
	})
}

func TestMannWhitneyUReference(t *testing.T) {
	d := testkit.Dist("faith-pd",
		testkit.Sample("a", 1, 2, 3),
		testkit.Sample("b", 4, 5, 6),
		testkit.Sample("c", 7, 8, 9),
	)

	table, err := MannWhitneyU(d, Reference{Group: "b"}, UTestConfig{})
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	assert.Equal(t, "b", table.Rows[0].GroupA)
	assert.Equal(t, "a", table.Rows[0].GroupB)
	assert.Equal(t, 9.0, table.Rows[0].Stat) // b sits wholly above a
	assert.Equal(t, "b", table.Rows[1].GroupA)
	assert.Equal(t, "c", table.Rows[1].GroupB)
	assert.Equal(t, 0.0, table.Rows[1].Stat)
}

func TestMannWhitneyUAgainstEach(t *testing.T) {
	d := testkit.Dist("week-0",
		testkit.Sample("a", 1, 2, 3),
		testkit.Sample("b", 4, 5, 6),
	)
	other := testkit.Dist("week-4",
		testkit.Sample("x", 10, 20),
		testkit.Sample("y", 30, 40),
	)

	table, err := MannWhitneyU(d, AllPairwise{}, UTestConfig{AgainstEach: other})
	require.NoError(t, err)
	require.Equal(t, 4, table.Len())

	t.Run("product order", func(t *testing.T) {
		got := make([][2]string, 0, 4)
		for _, row := range table.Rows {
			got = append(got, [2]string{row.GroupA, row.GroupB})
		}
		assert.Equal(t, [][2]string{
			{"a", "x"}, {"a", "y"},
			{"b", "x"}, {"b", "y"},
		}, got)
	})

	t.Run("group B reads from the secondary dataset", func(t *testing.T) {
		row := table.Rows[0]
		assert.Equal(t, 3, row.NA)
		assert.Equal(t, 2, row.NB)
		assert.Equal(t, 5, row.N)
		assert.Equal(t, 15.0, row.MeasureB)
		assert.InDelta(t, 0.2, row.P, 1e-15)
	})

	t.Run("both datasets recorded as sources", func(t *testing.T) {
		require.Len(t, table.Attrs.Sources, 2)
		assert.Equal(t, "week-0", table.Attrs.Sources[0].Name)
		assert.Equal(t, "week-4", table.Attrs.Sources[1].Name)
	})
}

func TestMannWhitneyUConfig(t *testing.T) {
	d := testkit.Dist("d",
		testkit.Sample("a", 1, 2, 3),
		testkit.Sample("b", 4, 5, 6),
	)

	t.Run("alternative and mode reach the attributes", func(t *testing.T) {
		table, err := MannWhitneyU(d, AllPairwise{}, UTestConfig{
			Alternative: stats.Greater,
			PValApprox:  stats.Exact,
		})
		require.NoError(t, err)

		assert.Equal(t, "greater, exact", table.Attrs.PValueMethod)
		assert.Equal(t, "the exact Mann-Whitney U distribution", table.Attrs.NullDistribution)
	})

	t.Run("asymptotic wording", func(t *testing.T) {
		table, err := MannWhitneyU(d, AllPairwise{}, UTestConfig{PValApprox: stats.Asymptotic})
		require.NoError(t, err)

		assert.Equal(t, "asymptotically normal", table.Attrs.NullDistribution)
	})

	t.Run("invalid alternative fails before any comparison", func(t *testing.T) {
		_, err := MannWhitneyU(d, AllPairwise{}, UTestConfig{Alternative: "sideways"})
		assert.ErrorIs(t, err, core.ErrInvalidAlternative)
	})

	t.Run("invalid mode surfaces from the first pair", func(t *testing.T) {
		_, err := MannWhitneyU(d, AllPairwise{}, UTestConfig{PValApprox: "montecarlo"})
		require.ErrorIs(t, err, core.ErrInvalidPValueMode)
		assert.Contains(t, err.Error(), "comparing group a with group b")
	})

	t.Run("missing measures are rejected", func(t *testing.T) {
		nan := testkit.Dist("d",
			testkit.Sample("a", 1, testkit.NaN()),
			testkit.Sample("b", 4, 5),
		)
		_, err := MannWhitneyU(nan, AllPairwise{}, UTestConfig{})
		assert.ErrorIs(t, err, core.ErrMissingValue)
	})
}

func TestMannWhitneyUCollaborators(t *testing.T) {
	d := testkit.Dist("d",
		testkit.Sample("a", 1, 2, 3),
		testkit.Sample("b", 4, 5, 6),
	)

	corr := &testkit.RecordingCorrector{Q: 0.42}
	ann := &testkit.RecordingAnnotator{}

	table, err := MannWhitneyU(d, AllPairwise{}, UTestConfig{
		Corrector: corr,
		Annotator: ann,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, corr.Calls)
	assert.Equal(t, 0.42, table.Rows[0].Q)

	assert.Equal(t, 1, ann.Calls)
	assert.Equal(t, stats.TestMannWhitneyU, ann.Last.Test)
	assert.Equal(t, "two-sided, auto", ann.Last.PValueMethod)

	// the fake annotator writes nothing, so the attrs stay unannotated
	assert.Empty(t, table.Attrs.TestStatistic)
}

func TestMannWhitneyUInsufficientGroups(t *testing.T) {
	t.Run("single group", func(t *testing.T) {
		d := testkit.Dist("d", testkit.Sample("only", 1, 2, 3))

		_, err := MannWhitneyU(d, AllPairwise{}, UTestConfig{})
		assert.ErrorIs(t, err, core.ErrInsufficientGroups)
	})

	t.Run("empty secondary dataset", func(t *testing.T) {
		d := testkit.Dist("d", testkit.Sample("a", 1), testkit.Sample("b", 2))

		_, err := MannWhitneyU(d, AllPairwise{}, UTestConfig{AgainstEach: testkit.Dist("empty")})
		assert.ErrorIs(t, err, core.ErrInsufficientGroups)
	})
}

func TestMannWhitneyUDeterminism(t *testing.T) {
	d := testkit.Dist("d",
		testkit.Sample("a", 5, 1, 4, 2),
		testkit.Sample("b", 9, 6, 8, 7),
		testkit.Sample("c", 3, 2, 1, 8),
	)

	first, err := MannWhitneyU(d, AllPairwise{}, UTestConfig{})
	require.NoError(t, err)
	second, err := MannWhitneyU(d, AllPairwise{}, UTestConfig{})
	require.NoError(t, err)

	assert.Equal(t, first.Rows, second.Rows)
}
