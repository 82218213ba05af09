// Package resample scales pixel buffers with bilinear interpolation.
//
// Both operations are pure: they never modify their input and always
// return a freshly allocated buffer.
package resample

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/matzehuels/qrfetch/pkg/errors"
	"github.com/matzehuels/qrfetch/pkg/pixel"
)

// Scale resizes src by factor, keeping the aspect ratio. The output is
// ceil(Width*factor) by ceil(Height*factor).
func Scale(src *pixel.Buffer, factor float64) (*pixel.Buffer, error) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scale factor must be positive, got %v", factor)
	}
	w := int(math.Ceil(float64(src.Width) * factor))
	h := int(math.Ceil(float64(src.Height) * factor))
	return Resize(src, w, h)
}

// Resize scales src to exactly width by height.
func Resize(src *pixel.Buffer, width, height int) (*pixel.Buffer, error) {
	if err := errors.ValidateDimensions(width, height); err != nil {
		return nil, err
	}
	if src == nil || src.Width == 0 || src.Height == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot resample an empty buffer")
	}
	if src.Width == width && src.Height == height {
		return src.Clone(), nil
	}

	out := pixel.New(width, height)
	dst := &image.NRGBA{Pix: out.Pix, Stride: 4 * width, Rect: image.Rect(0, 0, width, height)}
	in := src.Image()
	draw.BiLinear.Scale(dst, dst.Rect, in, in.Rect, draw.Src, nil)
	return out, nil
}
