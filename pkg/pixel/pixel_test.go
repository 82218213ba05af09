package pixel

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/matzehuels/qrfetch/pkg/errors"
)

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
	}
	return img
}

func TestNew(t *testing.T) {
	b := New(3, 2)
	if b.Width != 3 || b.Height != 2 {
		t.Errorf("New() = %dx%d, want 3x2", b.Width, b.Height)
	}
	if len(b.Pix) != 24 {
		t.Errorf("len(Pix) = %d, want 24", len(b.Pix))
	}
	if b.Len() != 6 {
		t.Errorf("Len() = %d, want 6", b.Len())
	}

	neg := New(-1, 5)
	if neg.Width != 0 || len(neg.Pix) != 0 {
		t.Errorf("New(-1, 5) = %+v, want empty", neg)
	}
}

func TestFromImageRowMajor(t *testing.T) {
	b := FromImage(checker(4, 3))

	if got := b.At(0, 0); got != (color.NRGBA{A: 255}) {
		t.Errorf("At(0,0) = %v, want black", got)
	}
	if got := b.At(1, 0); got != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("At(1,0) = %v, want white", got)
	}
	// Second row starts at offset 4*Width.
	if b.Pix[4*4+3] != 255 || b.Pix[4*4] != 255 {
		t.Errorf("row 1 pixel 0 = %v, want white", b.Pix[16:20])
	}
}

func TestFromImageOffsetBounds(t *testing.T) {
	src := checker(6, 6).SubImage(image.Rect(2, 2, 5, 4))
	b := FromImage(src)
	if b.Width != 3 || b.Height != 2 {
		t.Fatalf("FromImage(sub) = %dx%d, want 3x2", b.Width, b.Height)
	}
	// (2,2) in the source is black.
	if got := b.At(0, 0); got.R != 0 {
		t.Errorf("At(0,0) = %v, want black", got)
	}
}

func TestDecodeRoundTripPNG(t *testing.T) {
	orig := FromImage(checker(5, 7))
	data, err := orig.EncodePNG()
	if err != nil {
		t.Fatalf("EncodePNG() error: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if !got.Equal(orig) {
		t.Error("decoded PNG differs from original")
	}
}

func TestDecodeJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, checker(8, 8), nil); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got.Width != 8 || got.Height != 8 {
		t.Errorf("Decode() = %dx%d, want 8x8", got.Width, got.Height)
	}
}

func TestDecodeFailure(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"html", []byte("<html><body>not an image</body></html>")},
		{"truncated png", []byte("\x89PNG\r\n\x1a\n\x00\x00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, errors.ErrCodeDecode) {
				t.Errorf("Decode() error = %v, want DECODE_FAILURE", err)
			}
		})
	}
}

// withPNGSize rewrites the IHDR of a PNG to declare w x h, leaving the
// pixel data untouched.
func withPNGSize(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := bytes.Clone(data)
	if string(out[12:16]) != "IHDR" {
		t.Fatal("expected IHDR as first chunk")
	}
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestDecodeRejectsOversizedDimensions(t *testing.T) {
	var small bytes.Buffer
	if err := png.Encode(&small, checker(4, 4)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		w, h uint32
	}{
		{"wide", 1 << 20, 1},
		{"huge square", 60000, 60000},
		{"just over", 8193, 8192},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := withPNGSize(t, small.Bytes(), tt.w, tt.h)
			if len(data) > 1024 {
				t.Fatalf("fixture unexpectedly large: %d bytes", len(data))
			}
			_, err := Decode(data)
			if !errors.Is(err, errors.ErrCodeDecode) {
				t.Errorf("Decode() error = %v, want DECODE_FAILURE", err)
			}
		})
	}
}

func TestSetAtBounds(t *testing.T) {
	b := New(2, 2)
	red := color.NRGBA{R: 255, A: 255}
	b.Set(1, 1, red)
	b.Set(5, 5, red) // ignored

	if got := b.At(1, 1); got != red {
		t.Errorf("At(1,1) = %v, want %v", got, red)
	}
	if got := b.At(-1, 0); got != (color.NRGBA{}) {
		t.Errorf("At(-1,0) = %v, want zero", got)
	}
}

func TestCloneAndImageAreIndependent(t *testing.T) {
	b := FromImage(checker(2, 2))
	c := b.Clone()
	img := b.Image()

	b.Set(0, 0, color.NRGBA{R: 9, A: 9})

	if c.At(0, 0) == b.At(0, 0) {
		t.Error("Clone shares memory with original")
	}
	if img.NRGBAAt(0, 0) == b.At(0, 0) {
		t.Error("Image shares memory with original")
	}
}

func TestEqual(t *testing.T) {
	a := FromImage(checker(3, 3))
	if !a.Equal(a.Clone()) {
		t.Error("Equal(clone) = false")
	}
	if a.Equal(New(3, 3)) {
		t.Error("Equal(different pixels) = true")
	}
	if a.Equal(nil) {
		t.Error("Equal(nil) = true")
	}
	var n *Buffer
	if !n.Equal(nil) {
		t.Error("nil.Equal(nil) = false")
	}
}
