package neural

import (
	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

// ReLU is max(0, x) applied elementwise.
type ReLU struct {
	dims []int
}

func (l *ReLU) Spec() LayerSpec { return LayerSpec{Kind: KindReLU} }
func (l *ReLU) OutputDims() []int { return l.dims }
func (l *ReLU) Params() [][]float64 { return nil }

func (l *ReLU) Forward(x []float64) []float64 {
	y := make([]float64, len(x))
	for i, v := range x {
		if v > 0 {
			y[i] = v
		}
	}
	return y
}

func (l *ReLU) Backward(x, _, dy []float64, _ [][]float64) []float64 {
	dx := make([]float64, len(x))
	for i, v := range x {
		if v > 0 {
			dx[i] = dy[i]
		}
	}
	return dx
}

// Softmax normalizes a vector of logits into class probabilities.
type Softmax struct {
	n int
}

func (l *Softmax) Spec() LayerSpec { return LayerSpec{Kind: KindSoftmax} }
func (l *Softmax) OutputDims() []int { return []int{l.n} }
func (l *Softmax) Params() [][]float64 { return nil }

func (l *Softmax) Forward(x []float64) []float64 {
	y := make([]float64, len(x))
	errors.StableSoftmax(y, x)
	return y
}

// Backward applies the softmax Jacobian: dx_i = y_i (dy_i - Σ_j dy_j y_j).
func (l *Softmax) Backward(_, y, dy []float64, _ [][]float64) []float64 {
	s := floats.Dot(dy, y)
	dx := make([]float64, len(y))
	for i := range dx {
		dx[i] = y[i] * (dy[i] - s)
	}
	return dx
}

// Flatten turns an h×w×c activation into a vector. Data is already stored
// flat, so only the reported shape changes.
type Flatten struct {
	n int
}

func newFlatten(in []int) *Flatten { return &Flatten{n: prod(in)} }

func (l *Flatten) Spec() LayerSpec { return LayerSpec{Kind: KindFlatten} }
func (l *Flatten) OutputDims() []int { return []int{l.n} }
func (l *Flatten) Params() [][]float64 { return nil }
func (l *Flatten) Forward(x []float64) []float64 { return x }
func (l *Flatten) Backward(_, _, dy []float64, _ [][]float64) []float64 { return dy }
