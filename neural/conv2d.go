package neural

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Conv2D is a stride-1 "valid" convolution. Input patches are unrolled into
// rows (im2col) so that the whole layer is a single matrix product:
//
//	out (P×F) = cols (P×K²C) · W (K²C×F) + b
//
// where P is the number of output positions.
type Conv2D struct {
	inH, inW, inC int
	filters, k    int
	outH, outW    int

	W []float64 // (k*k*inC) × filters, row-major
	B []float64 // filters

	cols *matrixPool // im2col scratch, P × k*k*inC
}

func newConv2D(h, w, c, filters, k int) *Conv2D {
	outH, outW := h-k+1, w-k+1
	return &Conv2D{
		inH: h, inW: w, inC: c,
		filters: filters, k: k,
		outH: outH, outW: outW,
		W:    make([]float64, k*k*c*filters),
		B:    make([]float64, filters),
		cols: newMatrixPool(outH*outW, k*k*c),
	}
}

func (l *Conv2D) Spec() LayerSpec {
	return LayerSpec{Kind: KindConv2D, Filters: l.filters, Kernel: l.k}
}

func (l *Conv2D) OutputDims() []int { return []int{l.outH, l.outW, l.filters} }

func (l *Conv2D) Params() [][]float64 { return [][]float64{l.W, l.B} }

// initialize draws kernels from the Glorot uniform distribution. Fan-in and
// fan-out count the receptive field, as Keras does.
func (l *Conv2D) initialize(src rand.Source) {
	field := float64(l.k * l.k)
	limit := math.Sqrt(6 / (field*float64(l.inC) + field*float64(l.filters)))
	dist := distuv.Uniform{Min: -limit, Max: limit, Src: src}
	for i := range l.W {
		l.W[i] = dist.Rand()
	}
	for i := range l.B {
		l.B[i] = 0
	}
}

func (l *Conv2D) patchLen() int { return l.k * l.k * l.inC }

// im2col returns the P×K²C patch matrix of x. Within a row the layout is
// (ky, kx, c), which makes each kernel row one contiguous copy. The matrix
// comes from the layer's pool and every element is overwritten; hand it
// back with l.cols.put.
func (l *Conv2D) im2col(x []float64) *mat.Dense {
	kkc := l.patchLen()
	rowLen := l.k * l.inC
	cols := l.cols.get()
	raw := cols.RawMatrix().Data
	for oy := 0; oy < l.outH; oy++ {
		for ox := 0; ox < l.outW; ox++ {
			dst := raw[(oy*l.outW+ox)*kkc:]
			for ky := 0; ky < l.k; ky++ {
				src := ((oy+ky)*l.inW + ox) * l.inC
				copy(dst[ky*rowLen:(ky+1)*rowLen], x[src:src+rowLen])
			}
		}
	}
	return cols
}

func (l *Conv2D) weights() *mat.Dense {
	return mat.NewDense(l.patchLen(), l.filters, l.W)
}

func (l *Conv2D) Forward(x []float64) []float64 {
	positions := l.outH * l.outW
	y := make([]float64, positions*l.filters)
	out := mat.NewDense(positions, l.filters, y)
	cols := l.im2col(x)
	out.Mul(cols, l.weights())
	l.cols.put(cols)
	for p := 0; p < positions; p++ {
		floats.Add(y[p*l.filters:(p+1)*l.filters], l.B)
	}
	return y
}

func (l *Conv2D) Backward(x, _, dy []float64, grads [][]float64) []float64 {
	positions := l.outH * l.outW
	cols := l.im2col(x)
	dyM := mat.NewDense(positions, l.filters, dy)

	var dW mat.Dense
	dW.Mul(cols.T(), dyM)
	l.cols.put(cols)
	floats.Add(grads[0], dW.RawMatrix().Data)
	for p := 0; p < positions; p++ {
		floats.Add(grads[1], dy[p*l.filters:(p+1)*l.filters])
	}

	var dCols mat.Dense
	dCols.Mul(dyM, l.weights().T())

	// col2im: scatter patch gradients back onto the input grid.
	kkc := l.patchLen()
	rowLen := l.k * l.inC
	raw := dCols.RawMatrix().Data
	dx := make([]float64, len(x))
	for oy := 0; oy < l.outH; oy++ {
		for ox := 0; ox < l.outW; ox++ {
			src := raw[(oy*l.outW+ox)*kkc:]
			for ky := 0; ky < l.k; ky++ {
				dst := ((oy+ky)*l.inW + ox) * l.inC
				floats.Add(dx[dst:dst+rowLen], src[ky*rowLen:(ky+1)*rowLen])
			}
		}
	}
	return dx
}
