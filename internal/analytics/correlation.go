package analytics

import "sort"

// spearman returns the Spearman rank correlation between xs and ys, or nil
// if either variable is degenerate (constant) or there are fewer than two
// points, since the coefficient is undefined in that case.
func spearman(xs, ys []float64) *float64 {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return nil
	}
	if constant(xs) || constant(ys) {
		return nil
	}

	rx := rank(xs)
	ry := rank(ys)

	var sumSqDiff float64
	for i := 0; i < n; i++ {
		d := rx[i] - ry[i]
		sumSqDiff += d * d
	}

	nf := float64(n)
	rho := 1 - (6*sumSqDiff)/(nf*(nf*nf-1))
	return &rho
}

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

// rank returns the average rank (1-based, ties averaged) of each element of
// xs, in xs's original order.
func rank(xs []float64) []float64 {
	n := len(xs)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return xs[idx[i]] < xs[idx[j]] })

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j+1 < n && xs[idx[j+1]] == xs[idx[i]] {
			j++
		}
		avgRank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avgRank
		}
		i = j + 1
	}
	return ranks
}
