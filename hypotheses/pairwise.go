// Package hypotheses runs pairwise nonparametric comparisons between
// groups of measurements. Callers pick the test family through one of two
// entry points: MannWhitneyU for independent samples or WilcoxonSRT for
// subject-paired samples. A comparison strategy decides which group pairs
// are tested; every returned table carries Benjamini-Hochberg q-values and
// the shared descriptive attributes.
package hypotheses

import (
	"fmt"

	"pairstat/domain/core"
	"pairstat/domain/dist"
	"pairstat/domain/stats"
	"pairstat/meta"
	"pairstat/ports"
)

// UTestConfig tunes MannWhitneyU. The zero value compares within the
// primary dataset, two-sided, with the auto approximation and the default
// collaborators.
type UTestConfig struct {
	// AgainstEach supplies a secondary dataset; comparisons then pair
	// primary groups with its groups instead of staying within the
	// primary.
	AgainstEach *dist.Distribution
	Alternative stats.Alternative
	PValApprox  stats.PValApprox
	Corrector   ports.Corrector
	Annotator   ports.Annotator
}

// SRTConfig tunes WilcoxonSRT. The zero value is two-sided with the auto
// approximation, fails on empty subject overlap, and uses the default
// collaborators.
type SRTConfig struct {
	Alternative stats.Alternative
	PValApprox  stats.PValApprox
	// IgnoreEmptyComparator tolerates pairs with no aligned subjects:
	// instead of failing the call, such pairs keep NaN for both the
	// statistic and the p-value.
	IgnoreEmptyComparator bool
	Corrector             ports.Corrector
	Annotator             ports.Annotator
}

// MannWhitneyU tests every planned pair of independent samples with the
// Mann-Whitney U rank-sum test and returns the corrected, annotated table.
// The call either returns a complete table or fails as a whole.
func MannWhitneyU(d *dist.Distribution, comp IndependentComparison, cfg UTestConfig) (*stats.ResultTable, error) {
	alt := cfg.Alternative.OrDefault()
	mode := cfg.PValApprox.OrDefault()
	if err := alt.Validate(); err != nil {
		return nil, err
	}

	seq, err := comp.plan(d, cfg.AgainstEach)
	if err != nil {
		return nil, err
	}

	runner := &utestRunner{
		dists: [2]*dist.Distribution{d, cfg.AgainstEach},
		alt:   alt,
		mode:  mode,
	}
	rows, err := collectRows(seq, runner.run)
	if err != nil {
		return nil, err
	}

	return assemble(rows, cfg.Corrector, cfg.Annotator, ports.AnnotationRequest{
		Test:             stats.TestMannWhitneyU,
		GroupMeasure:     "Median",
		TestStatistic:    "Mann-Whitney U",
		TestDescription:  "The Mann-Whitney U test statistic of group A.",
		PValueMethod:     fmt.Sprintf("%s, %s", alt, mode),
		NullDistribution: nullDescription("Mann-Whitney U", mode),
		Sources:          sourcesOf(d, cfg.AgainstEach),
	})
}

// WilcoxonSRT tests every planned pair of subject-paired samples with the
// Wilcoxon signed-rank test and returns the corrected, annotated table.
// Except for the explicit IgnoreEmptyComparator sentinel, the call either
// returns a complete table or fails as a whole.
func WilcoxonSRT(d *dist.Distribution, comp PairedComparison, cfg SRTConfig) (*stats.ResultTable, error) {
	alt := cfg.Alternative.OrDefault()
	mode := cfg.PValApprox.OrDefault()
	if err := alt.Validate(); err != nil {
		return nil, err
	}
	if d.HasMissingSubjects() {
		return nil, fmt.Errorf("%w: paired tests need a subject for every observation",
			core.ErrMissingSubject)
	}

	seq, err := comp.planPaired(d)
	if err != nil {
		return nil, err
	}

	runner := newSRTRunner(d, alt, mode, cfg.IgnoreEmptyComparator)
	rows, err := collectRows(seq, runner.run)
	if err != nil {
		return nil, err
	}

	return assemble(rows, cfg.Corrector, cfg.Annotator, ports.AnnotationRequest{
		Test:             stats.TestWilcoxonSRT,
		GroupMeasure:     "Median",
		TestStatistic:    "Wilcoxon T",
		TestDescription:  "The sum of rank differences.",
		PValueMethod:     fmt.Sprintf("%s, %s", alt, mode),
		NullDistribution: nullDescription("Wilcoxon T", mode),
		Sources:          []*dist.Distribution{d},
	})
}

// collectRows drains the single-pass pair sequence, computing one row per
// pair in generation order. Any row error aborts the whole batch.
func collectRows(seq pairSeq, run func(ComparisonSpec) (stats.ResultRow, error)) ([]stats.ResultRow, error) {
	var rows []stats.ResultRow
	for {
		spec, ok := seq()
		if !ok {
			return rows, nil
		}
		row, err := run(spec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// assemble turns collected rows into the final table: correction first,
// then metadata. Zero rows means the planner had nothing to compare,
// whichever strategy was asked.
func assemble(rows []stats.ResultRow, corr ports.Corrector, ann ports.Annotator, req ports.AnnotationRequest) (*stats.ResultTable, error) {
	if len(rows) == 0 {
		return nil, core.ErrInsufficientGroups
	}
	table, err := stats.NewResultTable(rows)
	if err != nil {
		return nil, err
	}
	if corr == nil {
		corr = meta.NewBHCorrector()
	}
	if ann == nil {
		ann = meta.NewPairwiseAnnotator()
	}
	if err := corr.Correct(table); err != nil {
		return nil, fmt.Errorf("correcting p-values: %w", err)
	}
	if err := ann.Annotate(table, req); err != nil {
		return nil, fmt.Errorf("annotating table: %w", err)
	}
	return table, nil
}

// nullDescription words the null-distribution attribute for the chosen
// approximation mode: hedged when auto may pick either distribution,
// otherwise naming the one distribution in play.
func nullDescription(statName string, mode stats.PValApprox) string {
	switch mode {
	case stats.Asymptotic:
		return "asymptotically normal"
	case stats.Exact:
		return fmt.Sprintf("the exact %s distribution", statName)
	}
	return fmt.Sprintf("considered either asymptotically normal, or,"+
		" if there are no ties and few observations, the exact %s distribution", statName)
}

func sourcesOf(d, againstEach *dist.Distribution) []*dist.Distribution {
	if againstEach == nil {
		return []*dist.Distribution{d}
	}
	return []*dist.Distribution{d, againstEach}
}
