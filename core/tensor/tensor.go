// Package tensor defines the fixed-shape image samples fed to the network.
//
// Pixels are stored row-major in height × width × channels order (HWC), the
// layout the convolution layers consume directly.
package tensor

import (
	"fmt"

	"github.com/YuminosukeSato/petclassifier/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Shape is the spatial size and channel depth of an image.
type Shape struct {
	Height   int
	Width    int
	Channels int
}

// NewShape returns a square shape of the given size and channel count.
func NewShape(size, channels int) Shape {
	return Shape{Height: size, Width: size, Channels: channels}
}

// Size returns the number of values in one sample.
func (s Shape) Size() int {
	return s.Height * s.Width * s.Channels
}

// Dims returns the shape as [height, width, channels].
func (s Shape) Dims() []int {
	return []int{s.Height, s.Width, s.Channels}
}

// Validate checks that the shape has positive extents and 1 or 3 channels.
func (s Shape) Validate() error {
	if s.Height <= 0 || s.Width <= 0 {
		return errors.NewValidationError("shape", "height and width must be positive", s.Dims())
	}
	if s.Channels != 1 && s.Channels != 3 {
		return errors.NewValidationError("channels", "must be 1 (grayscale) or 3 (color)", s.Channels)
	}
	return nil
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Height, s.Width, s.Channels)
}

// Image is one sample. Pix has length Shape.Size().
type Image struct {
	Shape Shape
	Pix   []float64
}

// NewImage allocates a zeroed image.
func NewImage(shape Shape) *Image {
	return &Image{Shape: shape, Pix: make([]float64, shape.Size())}
}

// FromPixels wraps pix without copying after checking its length.
func FromPixels(shape Shape, pix []float64) (*Image, error) {
	if len(pix) != shape.Size() {
		return nil, errors.NewDimensionError("tensor.FromPixels", shape.Size(), len(pix), 1)
	}
	return &Image{Shape: shape, Pix: pix}, nil
}

// At returns the value at row y, column x, channel c.
func (im *Image) At(y, x, c int) float64 {
	return im.Pix[(y*im.Shape.Width+x)*im.Shape.Channels+c]
}

// Set stores v at row y, column x, channel c.
func (im *Image) Set(y, x, c int, v float64) {
	im.Pix[(y*im.Shape.Width+x)*im.Shape.Channels+c] = v
}

// Clone returns a deep copy.
func (im *Image) Clone() *Image {
	pix := make([]float64, len(im.Pix))
	copy(pix, im.Pix)
	return &Image{Shape: im.Shape, Pix: pix}
}

// CheckShape returns an InputShapeError if the image does not have shape want.
func (im *Image) CheckShape(phase string, want Shape) error {
	if im.Shape != want || len(im.Pix) != want.Size() {
		return errors.NewInputShapeError(phase, want.Dims(), im.Shape.Dims())
	}
	return nil
}

// Row returns the image as a 1×Size matrix, i.e. a batch of one.
// The matrix shares storage with Pix.
func (im *Image) Row() *mat.Dense {
	return mat.NewDense(1, len(im.Pix), im.Pix)
}

// Stack copies images into an N×Size matrix, one row per image. All images
// must share the same shape.
func Stack(images []*Image) (*mat.Dense, error) {
	if len(images) == 0 {
		return nil, errors.NewModelError("tensor.Stack", "empty data", errors.ErrEmptyData)
	}
	shape := images[0].Shape
	out := mat.NewDense(len(images), shape.Size(), nil)
	for i, im := range images {
		if err := im.CheckShape("training", shape); err != nil {
			return nil, err
		}
		out.SetRow(i, im.Pix)
	}
	return out, nil
}
