// Package pixel defines the decoded raster produced by every acquisition tier.
//
// A [Buffer] is owned by whoever requested it. Producers always allocate a
// fresh buffer, so concurrent acquisitions never share pixel memory.
package pixel

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/matzehuels/qrfetch/pkg/errors"
)

// Buffer is a row-major RGBA raster. Pix holds 4 bytes per pixel with a
// stride of 4*Width; the top-left pixel comes first.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates a zeroed (transparent black) buffer.
func New(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, 4*width*height),
	}
}

// FromImage copies img into a new Buffer, converting to non-premultiplied RGBA.
func FromImage(img image.Image) *Buffer {
	b := img.Bounds()
	buf := New(b.Dx(), b.Dy())
	dst := &image.NRGBA{Pix: buf.Pix, Stride: 4 * buf.Width, Rect: image.Rect(0, 0, buf.Width, buf.Height)}
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return buf
}

// MaxPixels bounds the declared size of an image accepted by Decode.
const MaxPixels = 8192 * 8192

// Decode parses PNG, JPEG, GIF, BMP or WebP bytes into a Buffer.
// Anything else, or an image declaring more than MaxPixels, is reported
// as a DECODE_FAILURE.
func Decode(data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeDecode, "empty image data")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode %d bytes", len(data))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, errors.New(errors.ErrCodeDecode, "image dimensions %dx%d out of range", cfg.Width, cfg.Height)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode %d bytes", len(data))
	}
	buf := FromImage(img)
	if buf.Width == 0 || buf.Height == 0 {
		return nil, errors.New(errors.ErrCodeDecode, "decoded %s image is empty", format)
	}
	return buf, nil
}

// Len returns the number of pixels.
func (b *Buffer) Len() int { return b.Width * b.Height }

// At returns the pixel at (x, y). Out-of-range coordinates yield the zero color.
func (b *Buffer) At(x, y int) color.NRGBA {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return color.NRGBA{}
	}
	i := 4 * (y*b.Width + x)
	return color.NRGBA{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: b.Pix[i+3]}
}

// Set writes the pixel at (x, y). Out-of-range coordinates are ignored.
func (b *Buffer) Set(x, y int, c color.NRGBA) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	i := 4 * (y*b.Width + x)
	b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3] = c.R, c.G, c.B, c.A
}

// Image returns a copy of the buffer as an *image.NRGBA.
func (b *Buffer) Image() *image.NRGBA {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &image.NRGBA{Pix: pix, Stride: 4 * b.Width, Rect: image.Rect(0, 0, b.Width, b.Height)}
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// Equal reports whether two buffers have identical dimensions and pixels.
func (b *Buffer) Equal(o *Buffer) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.Width == o.Width && b.Height == o.Height && bytes.Equal(b.Pix, o.Pix)
}

// EncodePNG serializes the buffer as PNG.
func (b *Buffer) EncodePNG() ([]byte, error) {
	var out bytes.Buffer
	if err := png.Encode(&out, b.Image()); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return out.Bytes(), nil
}
