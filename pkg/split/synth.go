package split

import "math/rand"

// Synthetic builds a random split over numNodes nodes: numTrain
// positive train edges plus valid and test sets with balanced labels
// (first half positives, second half negatives). Useful for smoke runs
// and tests; the edges carry no real structure.
func Synthetic(numNodes, numTrain, numValid, numTest int, rng *rand.Rand) *Split {
	valid, validLabel := labeledEdges(numNodes, numValid, rng)
	test, testLabel := labeledEdges(numNodes, numTest, rng)
	return &Split{
		NumNodes:   numNodes,
		Train:      randomEdges(numNodes, numTrain, rng),
		Valid:      valid,
		Test:       test,
		ValidLabel: validLabel,
		TestLabel:  testLabel,
	}
}

func randomEdges(numNodes, count int, rng *rand.Rand) [][2]int {
	edges := make([][2]int, count)
	for i := range edges {
		edges[i] = [2]int{rng.Intn(numNodes), rng.Intn(numNodes)}
	}
	return edges
}

func labeledEdges(numNodes, count int, rng *rand.Rand) ([][2]int, []int) {
	edges := randomEdges(numNodes, count, rng)
	labels := make([]int, count)
	for i := range labels {
		if i < count/2 {
			labels[i] = 1
		}
	}
	return edges, labels
}
