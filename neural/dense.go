package neural

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Dense is a fully connected layer, y = xW + b.
type Dense struct {
	in, out int

	W []float64 // in × out, row-major
	B []float64 // out
}

func newDense(in, out int) *Dense {
	return &Dense{in: in, out: out, W: make([]float64, in*out), B: make([]float64, out)}
}

func (l *Dense) Spec() LayerSpec { return LayerSpec{Kind: KindDense, Units: l.out} }

func (l *Dense) OutputDims() []int { return []int{l.out} }

func (l *Dense) Params() [][]float64 { return [][]float64{l.W, l.B} }

func (l *Dense) initialize(src rand.Source) {
	limit := math.Sqrt(6 / float64(l.in+l.out))
	dist := distuv.Uniform{Min: -limit, Max: limit, Src: src}
	for i := range l.W {
		l.W[i] = dist.Rand()
	}
	for i := range l.B {
		l.B[i] = 0
	}
}

func (l *Dense) weights() *mat.Dense { return mat.NewDense(l.in, l.out, l.W) }

func (l *Dense) Forward(x []float64) []float64 {
	y := make([]float64, l.out)
	yv := mat.NewVecDense(l.out, y)
	yv.MulVec(l.weights().T(), mat.NewVecDense(l.in, x))
	floats.Add(y, l.B)
	return y
}

func (l *Dense) Backward(x, _, dy []float64, grads [][]float64) []float64 {
	xv := mat.NewVecDense(l.in, x)
	dyv := mat.NewVecDense(l.out, dy)

	gW := mat.NewDense(l.in, l.out, grads[0])
	gW.RankOne(gW, 1, xv, dyv)
	floats.Add(grads[1], dy)

	dx := make([]float64, l.in)
	mat.NewVecDense(l.in, dx).MulVec(l.weights(), dyv)
	return dx
}
