package nn

import (
	"math"
	"math/rand"

	"github.com/viterin/vek"
)

// Linear is a fully connected affine layer y = Wx + b operating on
// row-major batches. Forward caches its input for the backward pass.
type Linear struct {
	In, Out int
	Weight  *Parameter // Out rows of In values each
	Bias    *Parameter

	input [][]float64
}

// NewLinear builds an affine layer with zeroed weights; call
// ResetParameters before use.
func NewLinear(in, out int) *Linear {
	return &Linear{
		In:     in,
		Out:    out,
		Weight: NewParameter(in * out),
		Bias:   NewParameter(out),
	}
}

// ResetParameters redraws weights and bias from the fan-in-aware
// uniform distribution U(-1/sqrt(in), 1/sqrt(in)).
func (l *Linear) ResetParameters(rng *rand.Rand) {
	bound := 1.0 / math.Sqrt(float64(l.In))
	for i := range l.Weight.Data {
		l.Weight.Data[i] = (rng.Float64()*2 - 1) * bound
	}
	for i := range l.Bias.Data {
		l.Bias.Data[i] = (rng.Float64()*2 - 1) * bound
	}
}

func (l *Linear) row(o int) []float64 {
	return l.Weight.Data[o*l.In : (o+1)*l.In]
}

// Forward computes one output row per input row.
func (l *Linear) Forward(x [][]float64) [][]float64 {
	l.input = x
	out := make([][]float64, len(x))
	for b, xb := range x {
		yb := make([]float64, l.Out)
		for o := 0; o < l.Out; o++ {
			yb[o] = vek.Dot(l.row(o), xb) + l.Bias.Data[o]
		}
		out[b] = yb
	}
	return out
}

// Backward accumulates parameter gradients for the cached input and
// returns the gradient with respect to that input.
func (l *Linear) Backward(dy [][]float64) [][]float64 {
	dx := make([][]float64, len(dy))
	for b, dyb := range dy {
		xb := l.input[b]
		dxb := make([]float64, l.In)
		for o := 0; o < l.Out; o++ {
			g := dyb[o]
			if g == 0 {
				continue
			}
			wRow := l.row(o)
			gRow := l.Weight.Grad[o*l.In : (o+1)*l.In]
			for i := 0; i < l.In; i++ {
				gRow[i] += g * xb[i]
				dxb[i] += g * wRow[i]
			}
			l.Bias.Grad[o] += g
		}
		dx[b] = dxb
	}
	return dx
}

// Parameters returns the layer's trainable tensors.
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.Weight, l.Bias}
}
