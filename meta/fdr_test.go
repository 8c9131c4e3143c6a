package meta

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairstat/domain/stats"
)

func tableOf(ps ...float64) *stats.ResultTable {
	rows := make([]stats.ResultRow, len(ps))
	for i, p := range ps {
		rows[i] = stats.ResultRow{GroupA: "a", GroupB: "b", Stat: p, P: p}
	}
	return &stats.ResultTable{Rows: rows}
}

func TestBHCorrector(t *testing.T) {
	c := NewBHCorrector()

	t.Run("step up with running minimum", func(t *testing.T) {
		table := tableOf(0.01, 0.04, 0.03)
		require.NoError(t, c.Correct(table))

		assert.InDelta(t, 0.03, table.Rows[0].Q, 1e-15)
		assert.InDelta(t, 0.04, table.Rows[1].Q, 1e-15)
		assert.InDelta(t, 0.04, table.Rows[2].Q, 1e-15)
	})

	t.Run("single row keeps its own p", func(t *testing.T) {
		table := tableOf(0.2)
		require.NoError(t, c.Correct(table))

		assert.Equal(t, 0.2, table.Rows[0].Q)
	})

	t.Run("q never exceeds one", func(t *testing.T) {
		table := tableOf(0.9, 0.95)
		require.NoError(t, c.Correct(table))

		assert.Equal(t, 0.95, table.Rows[0].Q)
		assert.Equal(t, 0.95, table.Rows[1].Q)
	})

	t.Run("missing p-values stay out of the correction", func(t *testing.T) {
		table := tableOf(0.02, math.NaN(), 0.04)
		require.NoError(t, c.Correct(table))

		// m = 2: the NaN row neither counts nor receives a q.
		assert.InDelta(t, 0.04, table.Rows[0].Q, 1e-15)
		assert.True(t, math.IsNaN(table.Rows[1].Q))
		assert.InDelta(t, 0.04, table.Rows[2].Q, 1e-15)
	})

	t.Run("records method and comparison count", func(t *testing.T) {
		table := tableOf(0.02, math.NaN(), 0.04)
		require.NoError(t, c.Correct(table))

		assert.Equal(t, "BH", table.Attrs.CorrectionMethod)
		assert.Equal(t, 3, table.Attrs.TotalComparisons)
	})

	t.Run("empty table", func(t *testing.T) {
		table := tableOf()
		require.NoError(t, c.Correct(table))

		assert.Equal(t, 0, table.Attrs.TotalComparisons)
	})
}
