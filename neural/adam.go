package neural

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Adam defaults.
const (
	DefaultLearningRate = 0.001
	DefaultBeta1        = 0.9
	DefaultBeta2        = 0.999
	DefaultEpsilon      = 1e-7
)

// Adam is the Adam optimizer. Moment buffers are created lazily on the
// first Step and mirror the parameter layout.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	// Iterations counts applied updates.
	Iterations int
	M          [][][]float64
	V          [][][]float64
}

// NewAdam returns an optimizer with the default betas and epsilon.
func NewAdam(lr float64) *Adam {
	return &Adam{
		LearningRate: lr,
		Beta1:        DefaultBeta1,
		Beta2:        DefaultBeta2,
		Epsilon:      DefaultEpsilon,
	}
}

// Step applies one update of params using grads. Bias correction is folded
// into the step size:
//
//	lr_t = lr * sqrt(1 - β2^t) / (1 - β1^t)
//	p   -= lr_t * m / (sqrt(v) + ε)
func (a *Adam) Step(params, grads [][][]float64) {
	if a.M == nil {
		a.M = zerosLike(params)
		a.V = zerosLike(params)
	}
	a.Iterations++
	t := float64(a.Iterations)
	lrT := a.LearningRate * math.Sqrt(1-math.Pow(a.Beta2, t)) / (1 - math.Pow(a.Beta1, t))

	for i := range params {
		for j := range params[i] {
			p, g := params[i][j], grads[i][j]
			m, v := a.M[i][j], a.V[i][j]
			for k := range p {
				m[k] = a.Beta1*m[k] + (1-a.Beta1)*g[k]
				v[k] = a.Beta2*v[k] + (1-a.Beta2)*g[k]*g[k]
				p[k] -= lrT * m[k] / (math.Sqrt(v[k]) + a.Epsilon)
			}
		}
	}
}

// Reset forgets the moment estimates.
func (a *Adam) Reset() {
	a.Iterations = 0
	a.M = nil
	a.V = nil
}

// scaleGrads multiplies every gradient by s.
func scaleGrads(gs [][][]float64, s float64) {
	for _, lg := range gs {
		for _, g := range lg {
			floats.Scale(s, g)
		}
	}
}

// addGrads accumulates src into dst.
func addGrads(dst, src [][][]float64) {
	for i := range dst {
		for j := range dst[i] {
			floats.Add(dst[i][j], src[i][j])
		}
	}
}
