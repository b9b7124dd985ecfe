package classify

import (
	"gonum.org/v1/gonum/stat"
)

// stdMean centers classes on the mean with one standard deviation per class:
// inner edges at mean + m*sigma for m = j - (k-2)/2, j = 0..k-2. For k=5 the
// multiples are -1.5, -0.5, 0.5, 1.5. Edges outside (min, max) are dropped,
// so heavily skewed data gets fewer classes.
func stdMean(sorted []float64, k int) []float64 {
	lo, hi := sorted[0], sorted[len(sorted)-1]
	mean, sigma := stat.PopMeanStdDev(sorted, nil)

	edges := []float64{lo}
	if sigma > 0 {
		for j := 0; j <= k-2; j++ {
			m := float64(j) - float64(k-2)/2
			e := mean + m*sigma
			if e > lo && e < hi {
				edges = append(edges, e)
			}
		}
	}
	return append(edges, hi)
}
