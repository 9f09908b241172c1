package nn

import (
	"math"

	"github.com/viterin/vek"
)

const (
	bnMomentum = 0.1
	bnEps      = 1e-5
)

// BatchNorm normalizes each feature over the batch during training and
// with running statistics during inference.
type BatchNorm struct {
	Dim   int
	Gamma *Parameter
	Beta  *Parameter

	RunningMean []float64
	RunningVar  []float64

	training bool

	// training-mode forward caches consumed by Backward
	xhat   [][]float64
	invStd []float64
}

// NewBatchNorm builds a normalization layer with unit scale, zero shift
// and fresh running statistics.
func NewBatchNorm(dim int) *BatchNorm {
	bn := &BatchNorm{
		Dim:         dim,
		Gamma:       NewParameter(dim),
		Beta:        NewParameter(dim),
		RunningMean: make([]float64, dim),
		RunningVar:  make([]float64, dim),
	}
	bn.ResetParameters()
	return bn
}

// ResetParameters restores unit scale, zero shift and fresh running
// statistics.
func (bn *BatchNorm) ResetParameters() {
	for i := 0; i < bn.Dim; i++ {
		bn.Gamma.Data[i] = 1
		bn.Beta.Data[i] = 0
		bn.RunningMean[i] = 0
		bn.RunningVar[i] = 1
	}
}

// SetTraining switches between batch statistics (training) and running
// statistics (inference).
func (bn *BatchNorm) SetTraining(t bool) { bn.training = t }

// Forward normalizes every row. In training mode it also folds the
// batch statistics into the running estimates.
func (bn *BatchNorm) Forward(x [][]float64) [][]float64 {
	if !bn.training {
		return bn.forwardInference(x)
	}

	n := len(x)
	mean := make([]float64, bn.Dim)
	for _, xb := range x {
		vek.Add_Inplace(mean, xb)
	}
	vek.MulNumber_Inplace(mean, 1/float64(n))

	variance := make([]float64, bn.Dim)
	centered := make([][]float64, n)
	for b, xb := range x {
		c := make([]float64, bn.Dim)
		for i := 0; i < bn.Dim; i++ {
			d := xb[i] - mean[i]
			c[i] = d
			variance[i] += d * d
		}
		centered[b] = c
	}
	vek.MulNumber_Inplace(variance, 1/float64(n))

	bn.invStd = make([]float64, bn.Dim)
	for i := 0; i < bn.Dim; i++ {
		bn.invStd[i] = 1 / math.Sqrt(variance[i]+bnEps)
	}

	// Running variance tracks the unbiased estimate; a size-1 batch
	// carries no spread, so the correction is skipped there.
	unbiased := 1.0
	if n > 1 {
		unbiased = float64(n) / float64(n-1)
	}
	for i := 0; i < bn.Dim; i++ {
		bn.RunningMean[i] = (1-bnMomentum)*bn.RunningMean[i] + bnMomentum*mean[i]
		bn.RunningVar[i] = (1-bnMomentum)*bn.RunningVar[i] + bnMomentum*variance[i]*unbiased
	}

	bn.xhat = make([][]float64, n)
	out := make([][]float64, n)
	for b := range x {
		h := make([]float64, bn.Dim)
		y := make([]float64, bn.Dim)
		for i := 0; i < bn.Dim; i++ {
			h[i] = centered[b][i] * bn.invStd[i]
			y[i] = bn.Gamma.Data[i]*h[i] + bn.Beta.Data[i]
		}
		bn.xhat[b] = h
		out[b] = y
	}
	return out
}

func (bn *BatchNorm) forwardInference(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for b, xb := range x {
		y := make([]float64, bn.Dim)
		for i := 0; i < bn.Dim; i++ {
			xh := (xb[i] - bn.RunningMean[i]) / math.Sqrt(bn.RunningVar[i]+bnEps)
			y[i] = bn.Gamma.Data[i]*xh + bn.Beta.Data[i]
		}
		out[b] = y
	}
	return out
}

// Backward accumulates scale and shift gradients and returns the
// gradient with respect to the input. Only valid after a training-mode
// Forward.
func (bn *BatchNorm) Backward(dy [][]float64) [][]float64 {
	n := len(dy)
	nf := float64(n)

	sumDxhat := make([]float64, bn.Dim)
	sumDxhatXhat := make([]float64, bn.Dim)
	dxhat := make([][]float64, n)
	for b, dyb := range dy {
		d := make([]float64, bn.Dim)
		for i := 0; i < bn.Dim; i++ {
			d[i] = dyb[i] * bn.Gamma.Data[i]
			sumDxhat[i] += d[i]
			sumDxhatXhat[i] += d[i] * bn.xhat[b][i]
			bn.Gamma.Grad[i] += dyb[i] * bn.xhat[b][i]
			bn.Beta.Grad[i] += dyb[i]
		}
		dxhat[b] = d
	}

	dx := make([][]float64, n)
	for b := range dy {
		v := make([]float64, bn.Dim)
		for i := 0; i < bn.Dim; i++ {
			v[i] = bn.invStd[i] / nf *
				(nf*dxhat[b][i] - sumDxhat[i] - bn.xhat[b][i]*sumDxhatXhat[i])
		}
		dx[b] = v
	}
	return dx
}

// Parameters returns the layer's trainable tensors.
func (bn *BatchNorm) Parameters() []*Parameter {
	return []*Parameter{bn.Gamma, bn.Beta}
}
