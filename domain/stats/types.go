package stats

import (
	"fmt"
	"math"

	"pairstat/domain/core"
)

// ============================================================================
// TEST CONFIGURATION (shared vocabulary of both test families)
// ============================================================================

// Alternative selects the alternative hypothesis of a test.
type Alternative string

const (
	TwoSided Alternative = "two-sided" // location of A differs from B
	Greater  Alternative = "greater"   // location of A greater than B
	Less     Alternative = "less"      // location of A less than B
)

// OrDefault returns the alternative, defaulting to two-sided when unset.
func (a Alternative) OrDefault() Alternative {
	if a == "" {
		return TwoSided
	}
	return a
}

// Validate checks the alternative against the fixed vocabulary.
func (a Alternative) Validate() error {
	switch a {
	case TwoSided, Greater, Less:
		return nil
	}
	return core.NewAlternativeError(string(a))
}

// PValApprox selects how the null distribution behind a p-value is computed.
type PValApprox string

const (
	Auto       PValApprox = "auto"       // routine picks exact vs asymptotic from size and ties
	Exact      PValApprox = "exact"      // exact permutational null distribution
	Asymptotic PValApprox = "asymptotic" // normal approximation
)

// OrDefault returns the approximation mode, defaulting to auto when unset.
func (p PValApprox) OrDefault() PValApprox {
	if p == "" {
		return Auto
	}
	return p
}

// Validate checks the approximation mode against the fixed vocabulary.
func (p PValApprox) Validate() error {
	switch p {
	case Auto, Exact, Asymptotic:
		return nil
	}
	return fmt.Errorf("%w: %q; choose auto, exact or asymptotic", core.ErrInvalidPValueMode, string(p))
}

// TestType identifies the statistical test behind a result table.
type TestType string

const (
	TestMannWhitneyU TestType = "mann_whitney_u" // independent rank-sum
	TestWilcoxonSRT  TestType = "wilcoxon_srt"   // paired signed-rank
)

// TableKind is the semantic kind tag carried by result tables.
type TableKind string

const (
	KindPairwise TableKind = "pairwise"
)

// ============================================================================
// RESULT ROWS AND TABLES
// ============================================================================

// ResultRow is one pairwise comparison. Column tags mirror the tabular
// layout: per-group sample size and central tendency, combined n, the test
// statistic, the raw p-value and the corrected q-value. Stat and P are NaN
// only for tolerated empty-overlap comparisons; Q is NaN whenever P is.
type ResultRow struct {
	GroupA   string  `json:"A:group"`
	GroupB   string  `json:"B:group"`
	NA       int     `json:"A:n"`
	NB       int     `json:"B:n"`
	MeasureA float64 `json:"A:measure"`
	MeasureB float64 `json:"B:measure"`
	N        int     `json:"n"`
	Stat     float64 `json:"test-statistic"`
	P        float64 `json:"p-value"`
	Q        float64 `json:"q-value,omitempty"`
}

// SourceRef records where a table's samples came from. The fingerprint is a
// content hash of the source distribution, so two tables computed from byte
// identical inputs carry the same reference.
type SourceRef struct {
	Name        string    `json:"name,omitempty"`
	Rows        int       `json:"rows"`
	Groups      int       `json:"groups"`
	Fingerprint core.Hash `json:"fingerprint,omitempty"`
}

// TableAttrs carries the descriptive and provenance metadata attached to a
// finished table. Not consumed by the tests themselves.
type TableAttrs struct {
	Kind             TableKind      `json:"kind"`
	Test             TestType       `json:"test"`
	GroupMeasure     string         `json:"group_measure"`     // central tendency label, e.g. "Median"
	TestStatistic    string         `json:"test_statistic"`    // e.g. "Mann-Whitney U"
	TestDescription  string         `json:"test_description"`  // one-line statistic description
	PValueMethod     string         `json:"p_value_method"`    // "{alternative}, {approximation}"
	NullDistribution string         `json:"null_distribution"` // wording chosen by approximation mode
	CorrectionMethod string         `json:"correction_method,omitempty"`
	TotalComparisons int            `json:"total_comparisons"`
	Sources          []SourceRef    `json:"sources,omitempty"`
	TableID          core.TableID   `json:"table_id,omitempty"`
	CreatedAt        core.Timestamp `json:"created_at"`
}

// ResultTable is an ordered sequence of comparison rows plus table-level
// metadata. Row order equals pair-generation order and is never re-sorted.
// Treat it as immutable once returned.
type ResultTable struct {
	Rows  []ResultRow `json:"rows"`
	Attrs TableAttrs  `json:"attrs"`
}

// NewResultTable builds a table from rows with invariant checks.
func NewResultTable(rows []ResultRow) (*ResultTable, error) {
	for i, row := range rows {
		if err := validateRow(row); err != nil {
			return nil, fmt.Errorf("row %d (%s vs %s): %w", i, row.GroupA, row.GroupB, err)
		}
	}
	return &ResultTable{Rows: rows}, nil
}

// Len returns the number of comparison rows.
func (t *ResultTable) Len() int {
	return len(t.Rows)
}

// PValues returns the raw p-value column in row order.
func (t *ResultTable) PValues() []float64 {
	ps := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		ps[i] = row.P
	}
	return ps
}

// validateRow checks per-row invariants. NaN statistic and p-value are
// legal together (the tolerated empty-overlap sentinel); a p-value outside
// [0, 1] never is.
func validateRow(row ResultRow) error {
	if row.NA < 0 || row.NB < 0 || row.N < 0 {
		return fmt.Errorf("negative sample size (A:n=%d, B:n=%d, n=%d)", row.NA, row.NB, row.N)
	}
	if math.IsNaN(row.P) != math.IsNaN(row.Stat) {
		return fmt.Errorf("statistic and p-value must be NaN together (stat=%v, p=%v)", row.Stat, row.P)
	}
	if !math.IsNaN(row.P) && (row.P < 0 || row.P > 1) {
		return fmt.Errorf("p-value out of range: %v", row.P)
	}
	return nil
}
