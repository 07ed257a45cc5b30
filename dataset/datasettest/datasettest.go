// Package datasettest generates synthetic labeled image sets for tests and
// for smoke runs without real data on disk.
//
// Class k is drawn from a uniform pixel band whose center moves from dark to
// bright with k, so a small network can separate the classes in a few epochs.
package datasettest

import (
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/petclassifier/core/tensor"
	"github.com/YuminosukeSato/petclassifier/dataset"
	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

const bandWidth = 80.0

// band returns the pixel distribution for class k of nClasses.
func band(k, nClasses int, src rand.Source) distuv.Uniform {
	lo := 0.0
	if nClasses > 1 {
		lo = float64(k) * (255 - bandWidth) / float64(nClasses-1)
	}
	return distuv.Uniform{Min: lo, Max: lo + bandWidth, Src: src}
}

// Generate returns n samples of the given shape spread round-robin over the
// classes. The same seed always yields the same dataset.
func Generate(shape tensor.Shape, classes []string, n int, seed uint64) (*dataset.Dataset, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, errors.NewValidationError("classes", "at least one class is required", classes)
	}
	if n <= 0 {
		return nil, errors.NewValidationError("n", "must be positive", n)
	}

	src := rand.NewPCG(seed, seed)
	ds := &dataset.Dataset{Classes: append([]string(nil), classes...)}
	for i := 0; i < n; i++ {
		label := i % len(classes)
		dist := band(label, len(classes), src)
		im := tensor.NewImage(shape)
		for j := range im.Pix {
			im.Pix[j] = dist.Rand()
		}
		ds.Images = append(ds.Images, im)
		ds.Labels = append(ds.Labels, label)
	}
	return ds, nil
}

// WriteImageTree writes perClass synthetic PNG files of size×size pixels
// under root/<class>/ and returns root. Color images are written for
// channels 3 and grayscale images otherwise.
func WriteImageTree(root string, classes []string, perClass, size, channels int, seed uint64) (string, error) {
	src := rand.NewPCG(seed, seed)
	for k, class := range classes {
		dir := filepath.Join(root, class)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.WithStack(err)
		}
		dist := band(k, len(classes), src)
		for i := 0; i < perClass; i++ {
			var img image.Image
			if channels == 3 {
				img = randomRGBA(size, dist)
			} else {
				img = randomGray(size, dist)
			}
			path := filepath.Join(dir, fmt.Sprintf("%03d.png", i))
			if err := imaging.Save(img, path); err != nil {
				return "", errors.Wrapf(err, "write %s", path)
			}
		}
	}
	return root, nil
}

func randomGray(size int, dist distuv.Uniform) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(dist.Rand())})
		}
	}
	return img
}

func randomRGBA(size int, dist distuv.Uniform) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(dist.Rand()),
				G: uint8(dist.Rand()),
				B: uint8(dist.Rand()),
				A: 255,
			})
		}
	}
	return img
}
