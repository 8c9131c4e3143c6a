// Package ranksum implements the Mann-Whitney U rank-sum test for two
// independent samples, with exact and normal-approximation null
// distributions and an auto policy that picks between them from sample
// size and tie structure.
package ranksum

import (
	"fmt"
	"math"

	moremath "github.com/aclements/go-moremath/stats"
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

// Method selects the null distribution for the p-value.
type Method string

const (
	Auto       Method = "auto"
	Exact      Method = "exact"
	Asymptotic Method = "asymptotic"
)

// exactSizeLimit is the largest smaller-sample size for which Auto still
// picks the exact distribution.
const exactSizeLimit = 8

// Result is the outcome of a Mann-Whitney U test.
type Result struct {
	U      float64 // U statistic of the first sample
	P      float64
	Method Method // Exact or Asymptotic, whichever actually ran
}

// MannWhitneyUTest compares two independent samples. The returned statistic
// is always the first sample's U. The exact method ignores ties (the
// classical null distribution is used as-is); Auto never selects it when
// ties are present or when min(n1, n2) exceeds exactSizeLimit.
func MannWhitneyUTest(x, y []float64, alt Alternative, method Method) (*Result, error) {
	if err := checkSample(x); err != nil {
		return nil, fmt.Errorf("first sample: %w", err)
	}
	if err := checkSample(y); err != nil {
		return nil, fmt.Errorf("second sample: %w", err)
	}
	switch alt {
	case TwoSided, Greater, Less:
	default:
		return nil, core.NewAlternativeError(string(alt))
	}
	switch method {
	case Auto, Exact, Asymptotic:
	default:
		return nil, fmt.Errorf("%w: %q; choose auto, exact or asymptotic", core.ErrInvalidPValueMode, string(method))
	}

	n1, n2 := len(x), len(y)
	merged := make([]float64, 0, n1+n2)
	merged = append(merged, x...)
	merged = append(merged, y...)
	ranked, tieSum, ties := ranks.Midranks(merged)

	r1 := 0.0
	for _, r := range ranked[:n1] {
		r1 += r
	}
	u1 := r1 - float64(n1*(n1+1))/2
	u2 := float64(n1*n2) - u1

	if method == Auto {
		if !ties && min(n1, n2) <= exactSizeLimit {
			method = Exact
		} else {
			method = Asymptotic
		}
	}

	var u, p float64
	switch alt {
	case Greater:
		u = u1
	case Less:
		u = u2
	case TwoSided:
		u = math.Max(u1, u2)
	}

	switch method {
	case Exact:
		p = exactP(u, n1, n2)
	case Asymptotic:
		p = asymptoticP(u, n1, n2, tieSum)
	}
	if alt == TwoSided {
		p *= 2
	}
	p = clamp01(p)

	return &Result{U: u1, P: p, Method: method}, nil
}

// exactP is P(U >= u) under the exact null distribution, evaluated through
// the distribution's symmetry about n1*n2/2. u is truncated to an integer
// first; half-integer statistics from midranks are coarsened by truncation,
// not rounding.
func exactP(u float64, n1, n2 int) float64 {
	if n1 > n2 {
		n1, n2 = n2, n1
	}
	dist := moremath.UDist{N1: n1, N2: n2}
	return dist.CDF(float64(n1*n2) - math.Trunc(u))
}

// asymptoticP is the continuity-corrected normal upper tail of u with
// tie-corrected variance. A zero variance only arises when every value in
// both samples is identical; the division then yields -Inf and the result
// clamps to 1.
func asymptoticP(u float64, n1, n2 int, tieSum float64) float64 {
	n := float64(n1 + n2)
	mu := float64(n1*n2) / 2
	variance := float64(n1*n2) / 12 * ((n + 1) - tieSum/(n*(n-1)))
	z := (u - mu - 0.5) / math.Sqrt(variance)
	return distuv.UnitNormal.Survival(z)
}

// checkSample rejects empty samples and missing values. Missing values are
// never silently dropped for independent tests.
func checkSample(s []float64) error {
	if len(s) == 0 {
		return core.ErrEmptySample
	}
	for _, v := range s {
		if math.IsNaN(v) {
			return core.ErrMissingValue
		}
	}
	return nil
}

func clamp01(p float64) float64 {
	return math.Min(math.Max(p, 0), 1)
}
