// Package mlp implements the link scorer: the elementwise product of
// two node embedding vectors runs through a stack of affine layers with
// batch normalization, relu and dropout between all but the last, and a
// final sigmoid squashes the output to an edge probability.
package mlp

import (
	"math"

	"github.com/cnclabs/linkpred/pkg/nn"
	"github.com/viterin/vek"
)

// LinkPredictor scores node pairs. Forward caches everything Backward
// needs, so each Forward must be paired with at most one Backward
// before the next Forward.
type LinkPredictor struct {
	lins  []*nn.Linear
	norms []*nn.BatchNorm

	dropout  float64
	training bool
	ctx      *nn.Context

	// forward caches
	u, v      [][]float64
	out       []float64
	reluMask  [][][]bool
	dropScale [][][]float64
}

// New builds a predictor with numLayers affine layers: in -> hidden,
// (numLayers-2) hidden -> hidden, and a final hidden -> 1 head.
// numLayers must be at least 2. Weights start zeroed; call
// ResetParameters before use.
func New(in, hidden, numLayers int, dropout float64, ctx *nn.Context) *LinkPredictor {
	p := &LinkPredictor{dropout: dropout, ctx: ctx}
	p.lins = append(p.lins, nn.NewLinear(in, hidden))
	p.norms = append(p.norms, nn.NewBatchNorm(hidden))
	for i := 0; i < numLayers-2; i++ {
		p.lins = append(p.lins, nn.NewLinear(hidden, hidden))
		p.norms = append(p.norms, nn.NewBatchNorm(hidden))
	}
	p.lins = append(p.lins, nn.NewLinear(hidden, 1))
	return p
}

// ResetParameters reinitializes every affine layer and resets the
// normalization statistics.
func (p *LinkPredictor) ResetParameters() {
	for _, lin := range p.lins {
		lin.ResetParameters(p.ctx.RNG)
	}
	for _, norm := range p.norms {
		norm.ResetParameters()
	}
}

// SetTraining toggles training mode: dropout active and normalization
// on batch statistics when true, inference behavior when false.
func (p *LinkPredictor) SetTraining(t bool) {
	p.training = t
	for _, norm := range p.norms {
		norm.SetTraining(t)
	}
}

// Forward scores one batch of node pairs and returns a probability per
// pair, strictly inside (0, 1).
func (p *LinkPredictor) Forward(u, v [][]float64) []float64 {
	p.u, p.v = u, v
	p.reluMask = p.reluMask[:0]
	p.dropScale = p.dropScale[:0]

	x := make([][]float64, len(u))
	for b := range u {
		x[b] = vek.Mul(u[b], v[b])
	}
	for l := 0; l < len(p.lins)-1; l++ {
		x = p.norms[l].Forward(p.lins[l].Forward(x))
		x = p.relu(x)
		x = p.drop(x)
	}
	x = p.lins[len(p.lins)-1].Forward(x)

	out := make([]float64, len(x))
	for b := range x {
		out[b] = sigmoid(x[b][0])
	}
	p.out = out
	return out
}

// Backward propagates dOut (gradient per pair probability) through the
// stack, accumulating layer gradients, and returns the gradients with
// respect to the two endpoint embedding rows.
func (p *LinkPredictor) Backward(dOut []float64) (du, dv [][]float64) {
	last := len(p.lins) - 1

	dz := make([][]float64, len(dOut))
	for b, g := range dOut {
		o := p.out[b]
		dz[b] = []float64{g * o * (1 - o)}
	}
	dx := p.lins[last].Backward(dz)

	for l := last - 1; l >= 0; l-- {
		if scale := p.dropScale[l]; scale != nil {
			for b := range dx {
				for i := range dx[b] {
					dx[b][i] *= scale[b][i]
				}
			}
		}
		mask := p.reluMask[l]
		for b := range dx {
			for i := range dx[b] {
				if !mask[b][i] {
					dx[b][i] = 0
				}
			}
		}
		dx = p.lins[l].Backward(p.norms[l].Backward(dx))
	}

	du = make([][]float64, len(dx))
	dv = make([][]float64, len(dx))
	for b := range dx {
		du[b] = vek.Mul(dx[b], p.v[b])
		dv[b] = vek.Mul(dx[b], p.u[b])
	}
	return du, dv
}

// Parameters returns every trainable tensor of the stack.
func (p *LinkPredictor) Parameters() []*nn.Parameter {
	var params []*nn.Parameter
	for _, lin := range p.lins {
		params = append(params, lin.Parameters()...)
	}
	for _, norm := range p.norms {
		params = append(params, norm.Parameters()...)
	}
	return params
}

// relu rectifies in place and records which activations stayed
// positive.
func (p *LinkPredictor) relu(x [][]float64) [][]float64 {
	mask := make([][]bool, len(x))
	for b, xb := range x {
		mb := make([]bool, len(xb))
		for i, val := range xb {
			if val > 0 {
				mb[i] = true
			} else {
				xb[i] = 0
			}
		}
		mask[b] = mb
	}
	p.reluMask = append(p.reluMask, mask)
	return x
}

// drop applies inverted dropout in training mode, recording the kept
// scale per activation. Outside training it is the identity.
func (p *LinkPredictor) drop(x [][]float64) [][]float64 {
	if !p.training || p.dropout == 0 {
		p.dropScale = append(p.dropScale, nil)
		return x
	}
	keep := 1 / (1 - p.dropout)
	scale := make([][]float64, len(x))
	for b, xb := range x {
		sb := make([]float64, len(xb))
		for i := range xb {
			if p.ctx.RNG.Float64() < p.dropout {
				xb[i] = 0
			} else {
				sb[i] = keep
				xb[i] *= keep
			}
		}
		scale[b] = sb
	}
	p.dropScale = append(p.dropScale, scale)
	return x
}

// sigmoid is computed in its numerically stable form and pinned inside
// the open interval, so downstream log terms never see an exact 0 or 1.
func sigmoid(x float64) float64 {
	var s float64
	if x >= 0 {
		s = 1 / (1 + math.Exp(-x))
	} else {
		e := math.Exp(x)
		s = e / (1 + e)
	}
	if s == 0 {
		return math.SmallestNonzeroFloat64
	}
	if s == 1 {
		return math.Nextafter(1, 0)
	}
	return s
}
