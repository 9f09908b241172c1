package sampler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchesCoverEveryIndexOnce(t *testing.T) {
	cases := []struct {
		name        string
		n, batch    int
		wantBatches int
	}{
		{"even split", 48, 16, 3},
		{"short last batch", 50, 16, 4},
		{"single batch", 10, 10, 1},
		{"batch of one", 5, 1, 5},
		{"batch larger than n", 7, 32, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(1))
			batches := Batches(tc.n, tc.batch, true, rng)
			require.Len(t, batches, tc.wantBatches)

			seen := make(map[int]int)
			for i, b := range batches {
				if i < len(batches)-1 {
					assert.Len(t, b, tc.batch)
				}
				for _, idx := range b {
					seen[idx]++
				}
			}
			require.Len(t, seen, tc.n)
			for idx, count := range seen {
				assert.Equal(t, 1, count, "index %d", idx)
				assert.GreaterOrEqual(t, idx, 0)
				assert.Less(t, idx, tc.n)
			}
		})
	}
}

func TestBatchesUnshuffledPreserveOrder(t *testing.T) {
	batches := Batches(7, 3, false, nil)
	require.Len(t, batches, 3)
	assert.Equal(t, []int{0, 1, 2}, batches[0])
	assert.Equal(t, []int{3, 4, 5}, batches[1])
	assert.Equal(t, []int{6}, batches[2])
}

func TestBatchesReshuffledEachCall(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	first := Batches(100, 100, true, rng)[0]
	second := Batches(100, 100, true, rng)[0]
	assert.NotEqual(t, first, second)
}

func TestNegativeEdgesSizeAndRange(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const numNodes, batch = 100, 16

	edges := NegativeEdges(numNodes, NegPerPos*batch, rng)
	require.Len(t, edges, NegPerPos*batch)
	for _, e := range edges {
		for _, v := range e {
			assert.GreaterOrEqual(t, v, 0)
			assert.Less(t, v, numNodes)
		}
	}
}
