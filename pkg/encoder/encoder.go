// Package encoder adapts a local QR symbol encoder to the acquisition pipeline.
//
// Local encoding is the first and cheapest tier: it performs no I/O and
// never blocks. When it fails, the orchestrator falls back to the remote
// tiers.
package encoder

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"

	"github.com/matzehuels/qrfetch/pkg/errors"
	"github.com/matzehuels/qrfetch/pkg/pixel"
)

// Encoder renders text as a QR symbol of exactly width by height pixels.
type Encoder interface {
	Encode(text string, width, height int) (*pixel.Buffer, error)
}

// Recovery levels accepted by [ParseRecovery].
const (
	RecoveryLow     = "low"
	RecoveryMedium  = "medium"
	RecoveryHigh    = "high"
	RecoveryHighest = "highest"
)

// ParseRecovery maps a configuration string to a go-qrcode recovery level.
func ParseRecovery(s string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case RecoveryLow:
		return qrcode.Low, nil
	case "", RecoveryMedium:
		return qrcode.Medium, nil
	case RecoveryHigh:
		return qrcode.High, nil
	case RecoveryHighest:
		return qrcode.Highest, nil
	default:
		return qrcode.Medium, errors.New(errors.ErrCodeInvalidInput, "unknown recovery level %q", s)
	}
}

// QREncoder renders symbols with github.com/skip2/go-qrcode.
type QREncoder struct {
	Level qrcode.RecoveryLevel
}

// New returns a QREncoder using the given recovery level.
func New(level qrcode.RecoveryLevel) *QREncoder {
	return &QREncoder{Level: level}
}

// Encode renders text as a square symbol of side min(width, height) centred
// on a white width by height canvas. Any encoder failure, including a
// panic inside the library, is reported as LOCAL_ENCODE_UNAVAILABLE.
func (e *QREncoder) Encode(text string, width, height int) (buf *pixel.Buffer, err error) {
	if err := errors.ValidateDimensions(width, height); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLocalEncodeUnavailable, err, "encode")
	}

	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = errors.New(errors.ErrCodeLocalEncodeUnavailable, "qrcode panic: %v", r)
		}
	}()

	q, err := qrcode.New(text, e.Level)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLocalEncodeUnavailable, err, "encode %d bytes", len(text))
	}

	side := min(width, height)
	symbol := q.Image(side)
	if b := symbol.Bounds(); b.Dx() != side || b.Dy() != side {
		// go-qrcode silently returns a larger image when side is below the
		// symbol's minimum size.
		scaled := image.NewNRGBA(image.Rect(0, 0, side, side))
		draw.NearestNeighbor.Scale(scaled, scaled.Rect, symbol, b, draw.Src, nil)
		symbol = scaled
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Rect, image.NewUniform(color.White), image.Point{}, draw.Src)
	offset := image.Pt((width-side)/2, (height-side)/2)
	draw.Draw(canvas, image.Rectangle{Min: offset, Max: offset.Add(image.Pt(side, side))}, symbol, symbol.Bounds().Min, draw.Src)

	return pixel.FromImage(canvas), nil
}

// Unavailable is an Encoder that always fails. It stands in for the local
// tier when local encoding is disabled.
type Unavailable struct {
	Reason string
}

// Encode always returns LOCAL_ENCODE_UNAVAILABLE.
func (u Unavailable) Encode(string, int, int) (*pixel.Buffer, error) {
	reason := u.Reason
	if reason == "" {
		reason = "local encoder disabled"
	}
	return nil, errors.New(errors.ErrCodeLocalEncodeUnavailable, "%s", reason)
}

// Func adapts a function to the Encoder interface.
type Func func(text string, width, height int) (*pixel.Buffer, error)

// Encode calls f.
func (f Func) Encode(text string, width, height int) (*pixel.Buffer, error) {
	if f == nil {
		return nil, errors.New(errors.ErrCodeLocalEncodeUnavailable, "no encoder configured")
	}
	return f(text, width, height)
}

var (
	_ Encoder = (*QREncoder)(nil)
	_ Encoder = Unavailable{}
	_ Encoder = Func(nil)
)

// String implements fmt.Stringer for log output.
func (e *QREncoder) String() string {
	return fmt.Sprintf("go-qrcode(level=%d)", e.Level)
}
