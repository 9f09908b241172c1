package eval

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHitsAtK(t *testing.T) {
	neg := []float64{0.9, 0.8, 0.7}

	cases := []struct {
		name string
		pos  []float64
		neg  []float64
		k    int
		want float64
	}{
		{"half above threshold", []float64{0.95, 0.85, 0.75, 0.5}, neg, 2, 0.5},
		{"tie with threshold does not count", []float64{0.8}, neg, 2, 0},
		{"all above", []float64{0.95, 0.99}, neg, 1, 1},
		{"none above", []float64{0.1, 0.2}, neg, 3, 0},
		{"fewer negatives than k", []float64{0.1}, neg, 10, 1},
		{"no positives", nil, neg, 2, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, HitsAtK(tc.pos, tc.neg, tc.k), 1e-12)
		})
	}
}

// With one fixed negative pool, raising K only lowers the threshold, so
// the hit fraction cannot decrease.
func TestHitsAtKMonotoneInKForFixedScores(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	pos := make([]float64, 200)
	neg := make([]float64, 150)
	for i := range pos {
		pos[i] = rng.Float64()
	}
	for i := range neg {
		neg[i] = rng.Float64()
	}

	h10 := HitsAtK(pos, neg, 10)
	h50 := HitsAtK(pos, neg, 50)
	h100 := HitsAtK(pos, neg, 100)
	assert.LessOrEqual(t, h10, h50)
	assert.LessOrEqual(t, h50, h100)
}

func TestHitsAtKDoesNotMutateInputs(t *testing.T) {
	neg := []float64{0.3, 0.9, 0.1}
	HitsAtK([]float64{0.5}, neg, 2)
	assert.Equal(t, []float64{0.3, 0.9, 0.1}, neg)
}
