// Package ranks provides fractional ranking shared by the rank-based tests.
package ranks

import "sort"

// Midranks assigns 1-based ranks to values, averaging ranks across tied
// runs. It returns the ranks in input order, the tie correction term
// sum(t^3 - t) over tied runs, and whether any tie exists. Values must not
// contain NaN.
func Midranks(values []float64) (ranks []float64, tieSum float64, ties bool) {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	ranks = make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[order[j+1]] == values[order[i]] {
			j++
		}
		// run of equal values spans sorted positions i..j
		mid := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = mid
		}
		if t := float64(j - i + 1); t > 1 {
			ties = true
			tieSum += t*t*t - t
		}
		i = j + 1
	}
	return ranks, tieSum, ties
}
