// Package sampler produces the index batches and random negative edges
// consumed by training and evaluation.
package sampler

import "math/rand"

// NegPerPos is the number of random negative pairs drawn per positive
// edge in a training batch.
const NegPerPos = 2

// Batches splits the index range [0, n) into chunks of batchSize. With
// shuffle set the order is a fresh permutation drawn from rng,
// otherwise ascending (rng may be nil). The last chunk may be shorter
// than batchSize.
func Batches(n, batchSize int, shuffle bool, rng *rand.Rand) [][]int {
	var order []int
	if shuffle {
		order = rng.Perm(n)
	} else {
		order = make([]int, n)
		for i := range order {
			order[i] = i
		}
	}

	batches := make([][]int, 0, (n+batchSize-1)/batchSize)
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}
		batches = append(batches, order[start:end])
	}
	return batches
}

// NegativeEdges draws count pairs of independent uniform node ids in
// [0, numNodes). Pairs are not checked against existing edges or
// self-loops; random negative sampling accepts the collision rate.
func NegativeEdges(numNodes, count int, rng *rand.Rand) [][2]int {
	edges := make([][2]int, count)
	for i := range edges {
		edges[i] = [2]int{rng.Intn(numNodes), rng.Intn(numNodes)}
	}
	return edges
}
