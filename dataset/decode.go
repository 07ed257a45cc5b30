package dataset

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // registers the webp decoder with image.Decode

	"github.com/YuminosukeSato/petclassifier/core/tensor"
	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

// DecodeFile reads an image file and converts it to the given shape.
func DecodeFile(path string, shape tensor.Shape) (*tensor.Image, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return DecodeImage(src, shape)
}

// DecodeImage resizes src to shape (Lanczos) and converts it to the shape's
// channel count. Pixel values stay in [0, 255]; channel order is RGB.
// A grayscale source requested as color is replicated across the three
// channels and reported with a DataConversionWarning.
func DecodeImage(src image.Image, shape tensor.Shape) (*tensor.Image, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if src == nil || src.Bounds().Empty() {
		return nil, errors.NewValidationError("image", "empty image", nil)
	}

	resized := imaging.Resize(src, shape.Width, shape.Height, imaging.Lanczos)
	out := tensor.NewImage(shape)

	if shape.Channels == 1 {
		gray := imaging.Grayscale(resized)
		for y := 0; y < shape.Height; y++ {
			for x := 0; x < shape.Width; x++ {
				out.Set(y, x, 0, float64(gray.Pix[y*gray.Stride+x*4]))
			}
		}
		return out, nil
	}

	if isGray(src) {
		errors.Warn(errors.NewDataConversionWarning("grayscale", "rgb", "color input expected, channel replicated"))
	}
	for y := 0; y < shape.Height; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < shape.Width; x++ {
			out.Set(y, x, 0, float64(row[x*4]))
			out.Set(y, x, 1, float64(row[x*4+1]))
			out.Set(y, x, 2, float64(row[x*4+2]))
		}
	}
	return out, nil
}

func isGray(img image.Image) bool {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return true
	}
	return false
}
