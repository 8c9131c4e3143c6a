// Package signrank implements the Wilcoxon signed-rank test for paired
// samples, with exact and normal-approximation null distributions. Zero
// differences are discarded before ranking (the wilcox zero policy) and no
// continuity correction is applied in the approximate mode.
package signrank

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"pairstat/domain/core"
	"pairstat/internal/ranks"
)

// Alternative selects the alternative hypothesis relative to the first
// sample.
type Alternative string

const (
	TwoSided Alternative = "two-sided"
	Greater  Alternative = "greater"
	Less     Alternative = "less"
)

// Mode selects the null distribution for the p-value. This family calls
// the normal approximation "approx" rather than "asymptotic".
type Mode string

const (
	Auto   Mode = "auto"
	Exact  Mode = "exact"
	Approx Mode = "approx"
)

// exactSizeLimit is the largest effective sample size for which Auto still
// picks the exact distribution.
const exactSizeLimit = 25

// Result is the outcome of a Wilcoxon signed-rank test.
type Result struct {
	T    float64 // rank-sum statistic: min(R+, R-) two-sided, R+ one-sided
	P    float64
	Mode Mode // Exact or Approx, whichever actually ran
}

// Wilcoxon compares two paired samples of equal length. Auto picks the
// exact distribution only for small samples with no zero differences and
// no tied absolute differences; zeros and ties invalidate the exact
// distribution outright, so they force the approximate mode even when
// exact was requested. The Result records the mode that actually ran.
func Wilcoxon(x, y []float64, alt Alternative, mode Mode) (*Result, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("paired samples differ in length: %d vs %d", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, core.ErrEmptySample
	}
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			return nil, core.ErrMissingValue
		}
	}
	switch alt {
	case TwoSided, Greater, Less:
	default:
		return nil, core.NewAlternativeError(string(alt))
	}
	switch mode {
	case Auto, Exact, Approx:
	default:
		return nil, fmt.Errorf("%w: %q; choose auto, exact or approx", core.ErrInvalidPValueMode, string(mode))
	}

	diffs := make([]float64, 0, len(x))
	zeros := 0
	for i := range x {
		d := x[i] - y[i]
		if d == 0 {
			zeros++
			continue
		}
		diffs = append(diffs, d)
	}
	if len(diffs) == 0 {
		return nil, fmt.Errorf("%w: all paired differences are zero", core.ErrEmptySample)
	}

	absDiffs := make([]float64, len(diffs))
	for i, d := range diffs {
		absDiffs[i] = math.Abs(d)
	}
	ranked, tieSum, ties := ranks.Midranks(absDiffs)

	rPlus := 0.0
	for i, d := range diffs {
		if d > 0 {
			rPlus += ranked[i]
		}
	}
	n := len(diffs)
	total := float64(n*(n+1)) / 2
	rMinus := total - rPlus

	t := rPlus
	if alt == TwoSided {
		t = math.Min(rPlus, rMinus)
	}

	switch mode {
	case Auto:
		if n <= exactSizeLimit && zeros == 0 && !ties {
			mode = Exact
		} else {
			mode = Approx
		}
	case Exact:
		if zeros > 0 || ties {
			mode = Approx
		}
	}

	var p float64
	switch mode {
	case Exact:
		p = exactP(rPlus, n, alt)
	case Approx:
		p = approxP(t, n, tieSum, alt)
	}

	return &Result{T: t, P: clamp01(p), Mode: mode}, nil
}

// exactP evaluates the tail of the exact signed-rank distribution at the
// positive-rank sum. A two-sided statistic sitting exactly at the
// distribution's midpoint has p = 1 by symmetry.
func exactP(rPlus float64, n int, alt Alternative) float64 {
	counts := countDistribution(n)
	switch alt {
	case Greater:
		return tailP(counts, rPlus, false)
	case Less:
		return tailP(counts, rPlus, true)
	}
	if rPlus == float64(n*(n+1))/4 {
		return 1
	}
	lower := tailP(counts, rPlus, true)
	upper := tailP(counts, rPlus, false)
	return 2 * math.Min(lower, upper)
}

// approxP evaluates the normal approximation with tie-corrected variance
// and no continuity correction.
func approxP(t float64, n int, tieSum float64, alt Alternative) float64 {
	fn := float64(n)
	mn := fn * (fn + 1) / 4
	variance := (fn*(fn+1)*(2*fn+1) - tieSum/2) / 24
	z := (t - mn) / math.Sqrt(variance)
	switch alt {
	case Greater:
		return distuv.UnitNormal.Survival(z)
	case Less:
		return distuv.UnitNormal.CDF(z)
	}
	return 2 * distuv.UnitNormal.Survival(math.Abs(z))
}

func clamp01(p float64) float64 {
	return math.Min(math.Max(p, 0), 1)
}
