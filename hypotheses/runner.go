package hypotheses

import (
	"fmt"
	"math"

	montana "github.com/montanaflynn/stats"

	"pairstat/domain/core"
	"pairstat/domain/dist"
	"pairstat/domain/stats"
	"pairstat/internal/ranksum"
	"pairstat/internal/signrank"
)

// utestRunner computes one independent-samples row per planned pair. It is
// pure: no retries and no partial output.
type utestRunner struct {
	dists [2]*dist.Distribution
	alt   stats.Alternative
	mode  stats.PValApprox
}

func (r *utestRunner) run(spec ComparisonSpec) (stats.ResultRow, error) {
	a := r.dists[spec.A.Source].Measures(spec.A.Group)
	b := r.dists[spec.B.Source].Measures(spec.B.Group)

	res, err := ranksum.MannWhitneyUTest(a, b,
		ranksum.Alternative(r.alt), ranksum.Method(r.mode))
	if err != nil {
		return stats.ResultRow{}, fmt.Errorf("comparing group %s with group %s: %w",
			spec.A.Group, spec.B.Group, err)
	}

	medianA, err := montana.Median(a)
	if err != nil {
		return stats.ResultRow{}, fmt.Errorf("median of group %s: %w", spec.A.Group, err)
	}
	medianB, err := montana.Median(b)
	if err != nil {
		return stats.ResultRow{}, fmt.Errorf("median of group %s: %w", spec.B.Group, err)
	}

	return stats.ResultRow{
		GroupA:   spec.A.Group,
		GroupB:   spec.B.Group,
		NA:       len(a),
		NB:       len(b),
		MeasureA: medianA,
		MeasureB: medianB,
		N:        len(a) + len(b),
		Stat:     res.U,
		P:        res.P,
	}, nil
}

// srtRunner computes one paired-samples row per planned pair. Sample sizes
// and medians describe each full sample; the test itself sees only the
// subject-aligned complete subset.
type srtRunner struct {
	d           *dist.Distribution
	alt         stats.Alternative
	mode        signrank.Mode
	ignoreEmpty bool
}

// newSRTRunner translates the caller-facing approximation token into the
// signed-rank family's own vocabulary: this family calls the normal
// approximation "approx", not "asymptotic".
func newSRTRunner(d *dist.Distribution, alt stats.Alternative, mode stats.PValApprox, ignoreEmpty bool) *srtRunner {
	srMode := signrank.Mode(mode)
	if mode == stats.Asymptotic {
		srMode = signrank.Approx
	}
	return &srtRunner{d: d, alt: alt, mode: srMode, ignoreEmpty: ignoreEmpty}
}

func (r *srtRunner) run(spec ComparisonSpec) (stats.ResultRow, error) {
	sampleA, err := r.d.PairedSample(spec.A.Group)
	if err != nil {
		return stats.ResultRow{}, err
	}
	sampleB, err := r.d.PairedSample(spec.B.Group)
	if err != nil {
		return stats.ResultRow{}, err
	}

	row := stats.ResultRow{
		GroupA:   spec.A.Group,
		GroupB:   spec.B.Group,
		NA:       sampleA.Len(),
		NB:       sampleB.Len(),
		MeasureA: nanMedian(values(sampleA)),
		MeasureB: nanMedian(values(sampleB)),
	}

	// inner subset: subjects present in both groups with a measure on
	// both sides
	xs := make([]float64, 0, len(sampleA.Subjects))
	ys := make([]float64, 0, len(sampleA.Subjects))
	for _, subject := range sampleA.Subjects {
		va := sampleA.Values[subject]
		vb, ok := sampleB.Values[subject]
		if !ok || math.IsNaN(va) || math.IsNaN(vb) {
			continue
		}
		xs = append(xs, va)
		ys = append(ys, vb)
	}
	row.N = len(xs)

	if len(xs) == 0 {
		if r.ignoreEmpty {
			row.Stat = math.NaN()
			row.P = math.NaN()
			return row, nil
		}
		return stats.ResultRow{}, core.NewSubjectOverlapError(
			spec.A.Group, spec.B.Group, sampleA.Subjects, sampleB.Subjects)
	}

	res, err := signrank.Wilcoxon(xs, ys, signrank.Alternative(r.alt), r.mode)
	if err != nil {
		return stats.ResultRow{}, fmt.Errorf("comparing group %s with group %s: %w",
			spec.A.Group, spec.B.Group, err)
	}
	row.Stat = res.T
	row.P = res.P
	return row, nil
}

func values(s *dist.PairedSample) []float64 {
	vals := make([]float64, 0, len(s.Subjects))
	for _, subject := range s.Subjects {
		vals = append(vals, s.Values[subject])
	}
	return vals
}

// nanMedian is the median over finite values; NaN measures are skipped the
// way the full-sample central tendency skips them, and an all-NaN sample
// has a NaN median.
func nanMedian(vals []float64) float64 {
	finite := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return math.NaN()
	}
	med, err := montana.Median(finite)
	if err != nil {
		return math.NaN()
	}
	return med
}
