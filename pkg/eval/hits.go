// Package eval implements the ranking metric reported by the
// link-prediction benchmark.
package eval

import "sort"

// HitsAtK returns the fraction of positive scores ranking strictly
// above the k-th highest negative score. With fewer than k negatives
// every positive trivially ranks inside the top k and the result is 1.
// No positives yields 0.
func HitsAtK(pos, neg []float64, k int) float64 {
	if len(pos) == 0 {
		return 0
	}
	if len(neg) < k {
		return 1
	}

	sorted := make([]float64, len(neg))
	copy(sorted, neg)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	threshold := sorted[k-1]

	hits := 0
	for _, s := range pos {
		if s > threshold {
			hits++
		}
	}
	return float64(hits) / float64(len(pos))
}
