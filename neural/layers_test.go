package neural

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/petclassifier/core/tensor"
	"github.com/YuminosukeSato/petclassifier/metrics"
)

func TestConv2D_Forward(t *testing.T) {
	l := newConv2D(3, 3, 1, 1, 2)
	for i := range l.W {
		l.W[i] = 1
	}
	l.B[0] = 0.5

	x := []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}
	y := l.Forward(x)

	assert.Equal(t, []int{2, 2, 1}, l.OutputDims())
	assert.Equal(t, []float64{12.5, 16.5, 24.5, 28.5}, y)
}

func TestConv2D_ForwardMultiChannel(t *testing.T) {
	// 1x1 kernel over 2 channels into 2 filters is a per-pixel matrix product.
	l := newConv2D(1, 2, 2, 2, 1)
	copy(l.W, []float64{
		1, 10, // channel 0 -> filters 0, 1
		2, 20, // channel 1 -> filters 0, 1
	})
	y := l.Forward([]float64{1, 1, 3, 4})
	assert.Equal(t, []float64{3, 30, 11, 110}, y)
}

func TestMaxPool2D(t *testing.T) {
	l := newMaxPool2D(4, 5, 1, 2)
	x := []float64{
		1, 2, 3, 4, 99,
		5, 6, 7, 8, 99,
		9, 1, 2, 3, 99,
		4, 5, 6, 0, 99,
	}
	y := l.Forward(x)
	assert.Equal(t, []int{2, 2, 1}, l.OutputDims())
	assert.Equal(t, []float64{6, 8, 9, 6}, y)

	dx := l.Backward(x, y, []float64{1, 2, 3, 4}, nil)
	assert.Equal(t, 1.0, dx[6])  // 6 at (1,1)
	assert.Equal(t, 2.0, dx[8])  // 8 at (1,3)
	assert.Equal(t, 3.0, dx[10]) // 9 at (2,0)
	assert.Equal(t, 4.0, dx[17]) // 6 at (3,2)
	assert.Equal(t, 0.0, dx[4], "dropped column gets no gradient")
}

func TestReLUAndSoftmax(t *testing.T) {
	relu := &ReLU{dims: []int{4}}
	x := []float64{-1, 0, 2, -3}
	assert.Equal(t, []float64{0, 0, 2, 0}, relu.Forward(x))
	assert.Equal(t, []float64{0, 0, 5, 0}, relu.Backward(x, nil, []float64{5, 5, 5, 5}, nil))

	sm := &Softmax{n: 3}
	p := sm.Forward([]float64{1000, 1000, 1000})
	for _, v := range p {
		assert.InDelta(t, 1.0/3.0, v, 1e-12)
	}
}

func TestNewLayer_Errors(t *testing.T) {
	_, err := newLayer(LayerSpec{Kind: KindDense, Units: 4}, []int{3, 3, 1})
	assert.Error(t, err)

	_, err = newLayer(LayerSpec{Kind: KindConv2D, Filters: 2, Kernel: 5}, []int{3, 3, 1})
	assert.Error(t, err)

	_, err = newLayer(LayerSpec{Kind: "lstm"}, []int{3})
	assert.Error(t, err)
}

// gradCheckSpecs is small enough to check every parameter numerically.
func gradCheckSpecs() []LayerSpec {
	return []LayerSpec{
		{Kind: KindConv2D, Filters: 3, Kernel: 3},
		{Kind: KindReLU},
		{Kind: KindMaxPool2D, Pool: 2},
		{Kind: KindFlatten},
		{Kind: KindDense, Units: 4},
		{Kind: KindReLU},
		{Kind: KindDense, Units: 3},
		{Kind: KindSoftmax},
	}
}

func TestNetwork_GradientCheck(t *testing.T) {
	net, err := NewNetwork(tensor.Shape{Height: 6, Width: 7, Channels: 3}, gradCheckSpecs())
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(3, 3))
	net.Initialize(rng)

	x := make([]float64, 6*7*3)
	for i := range x {
		x[i] = rng.NormFloat64()
	}
	target := []float64{0, 1, 0}

	lossAt := func() float64 {
		return metrics.SampleCrossEntropy(target, net.Output(x))
	}

	acts := net.Forward(x)
	_, dOut := crossEntropy(target, acts[len(acts)-1])
	grads := net.NewGrads()
	dx := net.Backward(acts, dOut, grads)

	const h = 1e-6
	check := func(name string, v []float64, i int, analytic float64) {
		orig := v[i]
		v[i] = orig + h
		plus := lossAt()
		v[i] = orig - h
		minus := lossAt()
		v[i] = orig
		numeric := (plus - minus) / (2 * h)
		assert.InDelta(t, numeric, analytic, 1e-6+1e-4*math.Abs(numeric), "%s[%d]", name, i)
	}

	checked := 0
	for li, lp := range net.Params() {
		for pi, p := range lp {
			for i := range p {
				check("layer", p, i, grads[li][pi][i])
				checked++
			}
		}
	}
	assert.Equal(t, net.NumParams(), checked)

	for i := range x {
		check("input", x, i, dx[i])
	}
}

func TestAdam_Step(t *testing.T) {
	params := [][][]float64{{{1, -1}}, nil}
	grads := [][][]float64{{{0.5, -0.5}}, nil}

	opt := NewAdam(0.1)
	opt.Step(params, grads)

	// The first bias-corrected step moves each weight by about lr against
	// the gradient sign.
	assert.InDelta(t, 0.9, params[0][0][0], 1e-5)
	assert.InDelta(t, -0.9, params[0][0][1], 1e-5)
	assert.Equal(t, 1, opt.Iterations)

	opt.Reset()
	assert.Nil(t, opt.M)
	assert.Equal(t, 0, opt.Iterations)
}

func TestConv2D_ReusesScratch(t *testing.T) {
	l := newConv2D(5, 5, 1, 2, 3)
	x := make([]float64, 25)
	for i := range x {
		x[i] = float64(i)
	}

	first := l.Forward(x)
	second := l.Forward(x)
	assert.Equal(t, first, second, "pooled scratch must not leak state between calls")

	st := l.cols.stats()
	assert.Equal(t, int64(2), st.Recycled)
	assert.GreaterOrEqual(t, st.Created, int64(1))
	assert.LessOrEqual(t, st.Created, int64(2))

	// Mismatched matrices are not pooled.
	l.cols.put(nil)
	assert.Equal(t, int64(2), l.cols.stats().Recycled)
}
