// Package acquire turns a text payload into a QR image.
//
// An [Acquirer] tries up to three tiers in a fixed order and stops at the
// first that produces an image:
//
//  1. local: encode the payload in-process
//  2. api: ask a remote QR generation service
//  3. scrape: load a remote QR page and fetch the image it references
//
// Tier failures never reach the caller. They are logged at debug level
// and reported through observability hooks; the caller only learns that
// no tier succeeded ([ErrNoResult]).
//
//	a := &acquire.Acquirer{Local: encoder.New(qrcode.Medium), API: api, Scrape: scrape}
//	res := <-a.Acquire(ctx, acquire.NewRequest("hello", 256, 256))
//	if res.Err != nil {
//	    // ErrNoResult or invalid input
//	}
package acquire

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/qrfetch/pkg/async"
	"github.com/matzehuels/qrfetch/pkg/encoder"
	"github.com/matzehuels/qrfetch/pkg/errors"
	"github.com/matzehuels/qrfetch/pkg/observability"
	"github.com/matzehuels/qrfetch/pkg/pixel"
	"github.com/matzehuels/qrfetch/pkg/resample"
)

// ErrNoResult is delivered when every tier failed.
var ErrNoResult = stderrors.New("no tier produced an image")

// Tier names the stage that produced an image.
type Tier string

const (
	TierLocal  Tier = "local"
	TierAPI    Tier = "api"
	TierScrape Tier = "scrape"
)

// RemoteTier fetches an image for already-escaped text.
// *remote.APITier and *remote.ScrapeTier satisfy it.
type RemoteTier interface {
	Fetch(ctx context.Context, text string, width, height int) <-chan async.Result[*pixel.Buffer]
}

// Request describes one acquisition.
type Request struct {
	Text   string
	Width  int
	Height int

	// ID correlates log lines. NewRequest fills it in.
	ID string
}

// NewRequest creates a Request with a fresh ID.
func NewRequest(text string, width, height int) Request {
	return Request{Text: text, Width: width, Height: height, ID: uuid.NewString()}
}

// Validate rejects non-positive dimensions. Text is passed through
// untouched: payload correctness is the encoder's concern, and formats
// such as vCard rely on CRLF line breaks.
func (r Request) Validate() error {
	return errors.ValidateDimensions(r.Width, r.Height)
}

// Outcome is a successful acquisition.
type Outcome struct {
	Buffer *pixel.Buffer
	Tier   Tier
}

// Acquirer runs the tier pipeline. Nil tiers are skipped.
type Acquirer struct {
	Local  encoder.Encoder
	API    RemoteTier
	Scrape RemoteTier

	// Fit resamples remote images to exactly the requested size.
	Fit bool

	Logger *log.Logger
}

// Acquire starts an acquisition and returns a channel that receives
// exactly one result. The pipeline runs on its own goroutine.
func (a *Acquirer) Acquire(ctx context.Context, req Request) <-chan async.Result[Outcome] {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if err := req.Validate(); err != nil {
		return async.Fail[Outcome](err)
	}
	return async.Go(ctx, func(ctx context.Context) (Outcome, error) {
		return a.run(ctx, req)
	})
}

// AcquireFunc is the callback form of Acquire. done is called exactly
// once, on a goroutine other than the caller's.
func (a *Acquirer) AcquireFunc(ctx context.Context, req Request, done func(Outcome, error)) {
	async.Then(a.Acquire(ctx, req), done)
}

type state int

const (
	tryLocal state = iota
	tryAPI
	tryScrape
	finished
)

func (a *Acquirer) run(ctx context.Context, req Request) (Outcome, error) {
	logger := a.logger().With("req", req.ID)
	start := time.Now()
	escaped := url.QueryEscape(req.Text)

	for st := tryLocal; st < finished; st++ {
		var (
			tier Tier
			buf  *pixel.Buffer
			err  error
		)
		switch st {
		case tryLocal:
			if a.Local == nil {
				continue
			}
			tier = TierLocal
			buf, err = a.attempt(ctx, tier, func() (*pixel.Buffer, error) {
				return encodeSafely(a.Local, req.Text, req.Width, req.Height)
			})
		case tryAPI, tryScrape:
			remote := a.API
			tier = TierAPI
			if st == tryScrape {
				remote, tier = a.Scrape, TierScrape
			}
			if remote == nil {
				continue
			}
			buf, err = a.attempt(ctx, tier, func() (*pixel.Buffer, error) {
				buf, err := async.Await(ctx, remote.Fetch(ctx, escaped, req.Width, req.Height))
				if err != nil || buf == nil || !a.Fit {
					return buf, err
				}
				return fit(buf, req.Width, req.Height)
			})
		}

		if err != nil {
			logger.Debug("tier failed", "tier", tier, "err", err)
			continue
		}
		logger.Debug("acquired", "tier", tier, "size", fmt.Sprintf("%dx%d", buf.Width, buf.Height))
		observability.Acquire().OnAcquireComplete(ctx, string(tier), time.Since(start))
		return Outcome{Buffer: buf, Tier: tier}, nil
	}

	observability.Acquire().OnAcquireComplete(ctx, "", time.Since(start))
	logger.Debug("all tiers failed")
	return Outcome{}, ErrNoResult
}

func (a *Acquirer) attempt(ctx context.Context, tier Tier, fn func() (*pixel.Buffer, error)) (*pixel.Buffer, error) {
	hooks := observability.Acquire()
	hooks.OnTierStart(ctx, string(tier))
	start := time.Now()

	buf, err := fn()
	if err == nil && buf == nil {
		err = errors.New(errors.ErrCodeInternal, "%s tier returned no image", tier)
	}
	hooks.OnTierComplete(ctx, string(tier), time.Since(start), err)
	return buf, err
}

func (a *Acquirer) logger() *log.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return log.Default()
}

func encodeSafely(enc encoder.Encoder, text string, w, h int) (buf *pixel.Buffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeLocalEncodeUnavailable, "encoder panic: %v", r)
		}
	}()
	return enc.Encode(text, w, h)
}

func fit(buf *pixel.Buffer, w, h int) (*pixel.Buffer, error) {
	if buf.Width == w && buf.Height == h {
		return buf, nil
	}
	return resample.Resize(buf, w, h)
}
