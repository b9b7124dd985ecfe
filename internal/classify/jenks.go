package classify

import "math"

var inf = math.Inf(1)

// naturalBreaks computes Fisher-Jenks optimal breaks: the partition of the
// sorted values into k contiguous classes that minimizes the total
// within-class sum of squared deviations. The dynamic program is exact, so
// there is no iteration or convergence threshold. k is capped at the number
// of distinct values.
//
// Inner edges sit halfway between the last value of one class and the first
// value of the next.
func naturalBreaks(sorted []float64, k int) []float64 {
	if d := distinct(sorted); k > d {
		k = d
	}
	n := len(sorted)

	// lower[l][j]: 1-based index of the first value of class j in the optimal
	// split of the first l values into j classes.
	lower := make([][]int, n+1)
	cost := make([][]float64, n+1)
	for l := range lower {
		lower[l] = make([]int, k+1)
		cost[l] = make([]float64, k+1)
	}
	for j := 1; j <= k; j++ {
		lower[1][j] = 1
		for l := 2; l <= n; l++ {
			cost[l][j] = inf
		}
	}

	for l := 2; l <= n; l++ {
		var sum, sumSq, w, ssd float64
		for m := 1; m <= l; m++ {
			first := l - m + 1
			v := sorted[first-1]
			w++
			sum += v
			sumSq += v * v
			ssd = sumSq - sum*sum/w

			prev := first - 1
			if prev == 0 {
				continue
			}
			for j := 2; j <= k; j++ {
				if c := ssd + cost[prev][j-1]; cost[l][j] >= c {
					lower[l][j] = first
					cost[l][j] = c
				}
			}
		}
		lower[l][1] = 1
		cost[l][1] = ssd
	}

	edges := make([]float64, k+1)
	edges[0] = sorted[0]
	edges[k] = sorted[n-1]
	last := n
	for j := k; j >= 2; j-- {
		first := lower[last][j]
		edges[j-1] = (sorted[first-2] + sorted[first-1]) / 2
		last = first - 1
	}
	return edges
}

func distinct(sorted []float64) int {
	d := 0
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			d++
		}
	}
	return d
}
