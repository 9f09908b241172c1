// Package nn provides the compute primitives for training: dense layers
// with hand-written forward and backward passes, an embedding table and
// the Adam optimizer. Batches are row slices of float64; hot row
// operations go through vek.
package nn

// Parameter is a flat tensor of trainable values with an accumulated
// gradient of the same length.
type Parameter struct {
	Data []float64
	Grad []float64
}

// NewParameter allocates a zeroed parameter of n values.
func NewParameter(n int) *Parameter {
	return &Parameter{
		Data: make([]float64, n),
		Grad: make([]float64, n),
	}
}

// Len returns the number of values in the parameter.
func (p *Parameter) Len() int { return len(p.Data) }

// ZeroGrad clears the accumulated gradient.
func (p *Parameter) ZeroGrad() {
	for i := range p.Grad {
		p.Grad[i] = 0
	}
}
