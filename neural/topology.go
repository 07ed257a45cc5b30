package neural

import (
	"github.com/YuminosukeSato/petclassifier/core/tensor"
)

// CatDogLayers returns the fixed image-classification topology:
//
//	Conv2D(32, 3x3) -> ReLU -> MaxPool2D(2x2)
//	Conv2D(64, 3x3) -> ReLU -> MaxPool2D(2x2)
//	Flatten -> Dense(64) -> ReLU -> Dense(nClasses) -> Softmax
func CatDogLayers(nClasses int) []LayerSpec {
	return []LayerSpec{
		{Kind: KindConv2D, Filters: 32, Kernel: 3},
		{Kind: KindReLU},
		{Kind: KindMaxPool2D, Pool: 2},
		{Kind: KindConv2D, Filters: 64, Kernel: 3},
		{Kind: KindReLU},
		{Kind: KindMaxPool2D, Pool: 2},
		{Kind: KindFlatten},
		{Kind: KindDense, Units: 64},
		{Kind: KindReLU},
		{Kind: KindDense, Units: nClasses},
		{Kind: KindSoftmax},
	}
}

// NewCatDogNetwork builds an initialized, untrained classifier with the
// CatDogLayers topology. Inputs smaller than 10×10 cannot pass through both
// conv/pool stages and are rejected with a ValidationError.
func NewCatDogNetwork(input tensor.Shape, classes []string, opts ...Option) (*Classifier, error) {
	return NewClassifier(input, classes, CatDogLayers(len(classes)), opts...)
}
