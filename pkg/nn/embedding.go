package nn

import (
	"math/rand"

	"github.com/viterin/vek"
)

// Embedding maps node ids in [0, NumNodes) to dense rows of a jointly
// trained table.
type Embedding struct {
	NumNodes, Dim int
	Weight        *Parameter
}

// NewEmbedding allocates a zeroed table; call ResetParameters before
// use.
func NewEmbedding(numNodes, dim int) *Embedding {
	return &Embedding{
		NumNodes: numNodes,
		Dim:      dim,
		Weight:   NewParameter(numNodes * dim),
	}
}

// ResetParameters redraws every entry from the standard normal
// distribution.
func (e *Embedding) ResetParameters(rng *rand.Rand) {
	for i := range e.Weight.Data {
		e.Weight.Data[i] = rng.NormFloat64()
	}
}

// Row returns a view of one node's embedding vector.
func (e *Embedding) Row(id int) []float64 {
	return e.Weight.Data[id*e.Dim : (id+1)*e.Dim]
}

// Rows gathers the embedding vectors for a batch of node ids. The rows
// alias the table and must not be mutated by callers.
func (e *Embedding) Rows(ids []int) [][]float64 {
	out := make([][]float64, len(ids))
	for i, id := range ids {
		out[i] = e.Row(id)
	}
	return out
}

// AccumulateGrad adds g into the gradient of one row. Repeated ids
// within a batch accumulate like a scatter-add.
func (e *Embedding) AccumulateGrad(id int, g []float64) {
	vek.Add_Inplace(e.Weight.Grad[id*e.Dim:(id+1)*e.Dim], g)
}

// Parameters returns the table as a single trainable tensor.
func (e *Embedding) Parameters() []*Parameter {
	return []*Parameter{e.Weight}
}
