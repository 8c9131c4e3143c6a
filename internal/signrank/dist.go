package signrank

// countDistribution returns, for sample size n, the number of sign
// assignments of the ranks 1..n whose positive-rank sum equals each value
// in 0..n(n+1)/2. Counts are float64 so large n stays finite; they are
// exact integers up to the float64 mantissa. The distribution is symmetric
// about its midpoint and sums to 2^n.
func countDistribution(n int) []float64 {
	maxSum := n * (n + 1) / 2
	w := make([]float64, maxSum+1)
	w[0] = 1
	for rank := 1; rank <= n; rank++ {
		for sum := maxSum; sum >= rank; sum-- {
			w[sum] += w[sum-rank]
		}
	}
	return w
}

// tailP sums the normalized tail of the count distribution: the lower tail
// P(W <= t) when lower is true, the upper tail P(W >= t) otherwise. t is in
// statistic units (a rank sum).
func tailP(counts []float64, t float64, lower bool) float64 {
	total := 0.0
	for _, c := range counts {
		total += c
	}
	tail := 0.0
	for sum, c := range counts {
		s := float64(sum)
		if lower && s <= t {
			tail += c
		}
		if !lower && s >= t {
			tail += c
		}
	}
	return tail / total
}
