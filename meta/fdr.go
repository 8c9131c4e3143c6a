// Package meta implements the collaborators invoked once a comparison
// table is assembled: multiple-testing correction and descriptive-metadata
// attachment.
package meta

import (
	"math"
	"sort"

	"pairstat/domain/stats"
)

// BHCorrector applies Benjamini-Hochberg step-up correction to a table's
// p-value column.
type BHCorrector struct{}

// NewBHCorrector creates the default correction collaborator.
func NewBHCorrector() *BHCorrector {
	return &BHCorrector{}
}

// Correct fills each row's q-value from the table's raw p-values, one
// shared correction context per table. Rows with a NaN p-value do not
// count toward the number of tests and keep a NaN q-value. A single-row
// table gets q equal to its own p.
func (c *BHCorrector) Correct(table *stats.ResultTable) error {
	rows := table.Rows

	tested := make([]int, 0, len(rows))
	for i := range rows {
		if math.IsNaN(rows[i].P) {
			rows[i].Q = math.NaN()
			continue
		}
		tested = append(tested, i)
	}
	sort.SliceStable(tested, func(a, b int) bool {
		return rows[tested[a]].P < rows[tested[b]].P
	})

	// Step-up: walk ranks from largest to smallest, carrying the running
	// minimum of p*m/rank so q is monotone in p.
	m := float64(len(tested))
	running := math.Inf(1)
	for k := len(tested) - 1; k >= 0; k-- {
		raw := rows[tested[k]].P * m / float64(k+1)
		running = math.Min(running, raw)
		rows[tested[k]].Q = math.Min(running, 1)
	}

	table.Attrs.CorrectionMethod = "BH"
	table.Attrs.TotalComparisons = len(rows)
	return nil
}
