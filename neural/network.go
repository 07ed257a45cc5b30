package neural

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/YuminosukeSato/petclassifier/core/tensor"
	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

// Network is a sequential stack of layers with a fixed input shape.
type Network struct {
	input  tensor.Shape
	layers []Layer
}

// NewNetwork builds the layers described by specs for the given input
// shape. Parameters start at zero; call Initialize before training.
func NewNetwork(input tensor.Shape, specs []LayerSpec) (*Network, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, errors.NewValidationError("layers", "network needs at least one layer", 0)
	}

	n := &Network{input: input}
	dims := input.Dims()
	for i, spec := range specs {
		l, err := newLayer(spec, dims)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		n.layers = append(n.layers, l)
		dims = l.OutputDims()
		if prod(dims) == 0 {
			return nil, errors.NewValidationError("input_shape",
				fmt.Sprintf("reduced to nothing at layer %d (%s)", i, spec), input.Dims())
		}
	}
	return n, nil
}

// Initialize draws fresh weights for every layer that has them.
func (n *Network) Initialize(src rand.Source) {
	for _, l := range n.layers {
		if in, ok := l.(initializer); ok {
			in.initialize(src)
		}
	}
}

// InputShape returns the shape every sample must have.
func (n *Network) InputShape() tensor.Shape { return n.input }

// OutputSize returns the length of the final activation.
func (n *Network) OutputSize() int {
	return prod(n.layers[len(n.layers)-1].OutputDims())
}

// Specs returns the layer descriptions in order.
func (n *Network) Specs() []LayerSpec {
	specs := make([]LayerSpec, len(n.layers))
	for i, l := range n.layers {
		specs[i] = l.Spec()
	}
	return specs
}

// Forward runs x through every layer and returns all activations:
// acts[0] is x and acts[len(layers)] is the network output.
func (n *Network) Forward(x []float64) [][]float64 {
	acts := make([][]float64, len(n.layers)+1)
	acts[0] = x
	for i, l := range n.layers {
		acts[i+1] = l.Forward(acts[i])
	}
	return acts
}

// Output returns only the final activation for x.
func (n *Network) Output(x []float64) []float64 {
	acts := n.Forward(x)
	return acts[len(acts)-1]
}

// Backward propagates dOut, the loss gradient w.r.t. the network output,
// accumulates parameter gradients into grads (see NewGrads) and returns the
// gradient w.r.t. the input.
func (n *Network) Backward(acts [][]float64, dOut []float64, grads [][][]float64) []float64 {
	d := dOut
	for i := len(n.layers) - 1; i >= 0; i-- {
		d = n.layers[i].Backward(acts[i], acts[i+1], d, grads[i])
	}
	return d
}

// Params returns the parameter slices of every layer, indexed by layer.
// The slices alias the live weights.
func (n *Network) Params() [][][]float64 {
	ps := make([][][]float64, len(n.layers))
	for i, l := range n.layers {
		ps[i] = l.Params()
	}
	return ps
}

// NewGrads returns zeroed buffers shaped like Params.
func (n *Network) NewGrads() [][][]float64 {
	return zerosLike(n.Params())
}

// SetParams copies ps into the network after checking every length.
func (n *Network) SetParams(ps [][][]float64) error {
	own := n.Params()
	if len(ps) != len(own) {
		return errors.NewDimensionError("Network.SetParams", len(own), len(ps), 0)
	}
	for i := range own {
		if len(ps[i]) != len(own[i]) {
			return errors.NewDimensionError(fmt.Sprintf("Network.SetParams layer %d", i), len(own[i]), len(ps[i]), 0)
		}
		for j := range own[i] {
			if len(ps[i][j]) != len(own[i][j]) {
				return errors.NewDimensionError(fmt.Sprintf("Network.SetParams layer %d param %d", i, j),
					len(own[i][j]), len(ps[i][j]), 1)
			}
			copy(own[i][j], ps[i][j])
		}
	}
	return nil
}

// NumParams returns the total number of trainable values.
func (n *Network) NumParams() int {
	total := 0
	for _, lp := range n.Params() {
		for _, p := range lp {
			total += len(p)
		}
	}
	return total
}

// Summary renders a Keras-style layer table.
func (n *Network) Summary() string {
	var b strings.Builder
	rule := strings.Repeat("_", 64)
	fmt.Fprintf(&b, "%s\n%-28s%-22s%s\n%s\n", rule, "Layer (type)", "Output Shape", "Param #", strings.Repeat("=", 64))
	fmt.Fprintf(&b, "%-28s%-22s%d\n", "input", shapeString(n.input.Dims()), 0)
	for i, l := range n.layers {
		count := 0
		for _, p := range l.Params() {
			count += len(p)
		}
		name := fmt.Sprintf("%s_%d (%s)", l.Spec().Kind, i, l.Spec())
		fmt.Fprintf(&b, "%-28s%-22s%d\n", name, shapeString(l.OutputDims()), count)
	}
	fmt.Fprintf(&b, "%s\nTotal params: %d\n%s\n", strings.Repeat("=", 64), n.NumParams(), rule)
	return b.String()
}

func shapeString(dims []int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = fmt.Sprint(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func zerosLike(ps [][][]float64) [][][]float64 {
	out := make([][][]float64, len(ps))
	for i, lp := range ps {
		out[i] = make([][]float64, len(lp))
		for j, p := range lp {
			out[i][j] = make([]float64, len(p))
		}
	}
	return out
}

func zero(gs [][][]float64) {
	for _, lg := range gs {
		for _, g := range lg {
			clear(g)
		}
	}
}
