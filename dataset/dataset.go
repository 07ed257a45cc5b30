// Package dataset loads labeled image folders into memory and splits them
// into training and validation sets.
//
// The expected layout is one sub-directory per class:
//
//	root/
//	  cat/  001.jpg 002.png ...
//	  dog/  001.jpg ...
package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/petclassifier/core/tensor"
	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

// Dataset is an in-memory labeled image set. Labels[i] is an index into
// Classes and belongs to Images[i].
type Dataset struct {
	Images  []*tensor.Image
	Labels  []int
	Classes []string
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Images)
}

// Shape returns the shape of the first image, or the zero Shape when empty.
func (d *Dataset) Shape() tensor.Shape {
	if d.Len() == 0 {
		return tensor.Shape{}
	}
	return d.Images[0].Shape
}

// Matrix flattens the images into an N×(H*W*C) matrix, one row per sample.
func (d *Dataset) Matrix() (*mat.Dense, error) {
	if d.Len() == 0 {
		return nil, errors.NewModelError("Dataset.Matrix", "empty data", errors.ErrEmptyDataset)
	}
	return tensor.Stack(d.Images)
}

// Subset returns a dataset holding the samples at the given indices, in
// that order. Images are shared, not copied.
func (d *Dataset) Subset(indices []int) *Dataset {
	out := &Dataset{
		Images:  make([]*tensor.Image, len(indices)),
		Labels:  make([]int, len(indices)),
		Classes: d.Classes,
	}
	for i, idx := range indices {
		out.Images[i] = d.Images[idx]
		out.Labels[i] = d.Labels[idx]
	}
	return out
}

// ClassCounts returns the number of samples per class index.
func (d *Dataset) ClassCounts() []int {
	counts := make([]int, len(d.Classes))
	for _, l := range d.Labels {
		if l >= 0 && l < len(counts) {
			counts[l]++
		}
	}
	return counts
}

// Validate checks that labels and images line up and that every image has
// the same shape.
func (d *Dataset) Validate() error {
	if len(d.Images) != len(d.Labels) {
		return errors.NewDimensionError("Dataset.Validate", len(d.Images), len(d.Labels), 0)
	}
	if len(d.Images) == 0 {
		return nil
	}
	shape := d.Images[0].Shape
	for i, im := range d.Images {
		if err := im.CheckShape("training", shape); err != nil {
			return err
		}
		if d.Labels[i] < 0 || d.Labels[i] >= len(d.Classes) {
			return errors.NewValidationError("label", "must index into Classes", d.Labels[i])
		}
	}
	return nil
}
