// Package neural is a small convolutional network engine built on gonum.
//
// Samples travel through the network as flat []float64 slices in HWC order.
// Layers are stateless during a pass: Forward returns a fresh output and
// Backward receives the input and output of the same call, so one network
// can serve several goroutines as long as each has its own gradient buffers.
package neural

import (
	"fmt"
	"math/rand/v2"

	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

// Layer kinds stored in LayerSpec.Kind.
const (
	KindConv2D    = "conv2d"
	KindMaxPool2D = "maxpool2d"
	KindFlatten   = "flatten"
	KindDense     = "dense"
	KindReLU      = "relu"
	KindSoftmax   = "softmax"
)

// LayerSpec describes one layer independently of its input size.
type LayerSpec struct {
	Kind    string
	Filters int // conv2d
	Kernel  int // conv2d
	Pool    int // maxpool2d
	Units   int // dense
}

func (s LayerSpec) String() string {
	switch s.Kind {
	case KindConv2D:
		return fmt.Sprintf("Conv2D(%d, %dx%d)", s.Filters, s.Kernel, s.Kernel)
	case KindMaxPool2D:
		return fmt.Sprintf("MaxPool2D(%dx%d)", s.Pool, s.Pool)
	case KindDense:
		return fmt.Sprintf("Dense(%d)", s.Units)
	case KindFlatten:
		return "Flatten"
	case KindReLU:
		return "ReLU"
	case KindSoftmax:
		return "Softmax"
	}
	return s.Kind
}

// Layer is one stage of a Network.
type Layer interface {
	// Spec returns the description the layer was built from.
	Spec() LayerSpec

	// OutputDims is [h, w, c] for spatial outputs and [n] for flat ones.
	OutputDims() []int

	// Forward returns the layer output for input x. x is not modified.
	Forward(x []float64) []float64

	// Backward accumulates parameter gradients into grads (shaped like
	// Params) and returns dL/dx. x and y are the input and output of the
	// matching Forward call.
	Backward(x, y, dy []float64, grads [][]float64) []float64

	// Params returns the trainable parameter slices, or nil.
	Params() [][]float64
}

// initializer is implemented by layers with weights.
type initializer interface {
	initialize(src rand.Source)
}

// newLayer builds the layer described by spec for an input of dims in.
func newLayer(spec LayerSpec, in []int) (Layer, error) {
	switch spec.Kind {
	case KindConv2D:
		if len(in) != 3 {
			return nil, errors.NewValidationError("layer", "conv2d needs a spatial input", spec.String())
		}
		if spec.Filters <= 0 || spec.Kernel <= 0 {
			return nil, errors.NewValidationError("layer", "conv2d needs positive filters and kernel", spec)
		}
		if in[0] < spec.Kernel || in[1] < spec.Kernel {
			return nil, errors.NewValidationError("input_shape",
				fmt.Sprintf("too small for %s", spec), in)
		}
		return newConv2D(in[0], in[1], in[2], spec.Filters, spec.Kernel), nil
	case KindMaxPool2D:
		if len(in) != 3 {
			return nil, errors.NewValidationError("layer", "maxpool2d needs a spatial input", spec.String())
		}
		if spec.Pool <= 0 {
			return nil, errors.NewValidationError("layer", "maxpool2d needs a positive pool size", spec)
		}
		if in[0] < spec.Pool || in[1] < spec.Pool {
			return nil, errors.NewValidationError("input_shape",
				fmt.Sprintf("too small for %s", spec), in)
		}
		return newMaxPool2D(in[0], in[1], in[2], spec.Pool), nil
	case KindFlatten:
		return newFlatten(in), nil
	case KindDense:
		if len(in) != 1 {
			return nil, errors.NewValidationError("layer", "dense needs a flat input, add a flatten layer", spec.String())
		}
		if spec.Units <= 0 {
			return nil, errors.NewValidationError("layer", "dense needs positive units", spec)
		}
		return newDense(in[0], spec.Units), nil
	case KindReLU:
		return &ReLU{dims: in}, nil
	case KindSoftmax:
		if len(in) != 1 {
			return nil, errors.NewValidationError("layer", "softmax needs a flat input", spec.String())
		}
		return &Softmax{n: in[0]}, nil
	}
	return nil, errors.NewValidationError("layer", "unknown layer kind", spec.Kind)
}

func prod(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}
