// Package fetch performs asynchronous HTTP GETs for the remote tiers.
//
// Every call starts one goroutine and returns a channel that yields exactly
// one [async.Result]. Transport failures, non-success statuses and body
// read errors are all reported as coded errors from pkg/errors:
//
//	res := <-f.FetchBinary(ctx, "https://api.qrserver.com/v1/create-qr-code/?size=64x64&data=hi")
//	if errors.Is(res.Err, errors.ErrCodeNotFound) {
//	    // the server answered 404
//	}
package fetch

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/qrfetch/pkg/async"
	"github.com/matzehuels/qrfetch/pkg/errors"
	"github.com/matzehuels/qrfetch/pkg/observability"
)

// DefaultTimeout bounds one request, including reading the body.
const DefaultTimeout = 10 * time.Second

// DefaultUserAgent is sent when Options.UserAgent is empty.
const DefaultUserAgent = "qrfetch"

// DefaultMaxBodySize caps response bodies. QR images and pages are small.
const DefaultMaxBodySize = 16 << 20

// Options configures a Fetcher.
type Options struct {
	// Timeout for a single attempt. Zero means DefaultTimeout.
	Timeout time.Duration

	// Retries is the number of additional attempts after a retryable
	// failure (transport error or 5xx). Clamped to 0..1.
	Retries int

	// RetryDelay is the pause before the retry. Zero means 200ms.
	RetryDelay time.Duration

	// UserAgent overrides DefaultUserAgent.
	UserAgent string

	// Headers are applied to every request.
	Headers map[string]string

	// Client replaces the default *http.Client. Its Timeout is left alone.
	Client *http.Client

	// MaxBodySize rejects larger bodies. Zero means DefaultMaxBodySize.
	MaxBodySize int64
}

// Fetcher issues GET requests and delivers results asynchronously.
type Fetcher struct {
	http       *http.Client
	headers    map[string]string
	userAgent  string
	retries    int
	retryDelay time.Duration
	maxBody    int64
}

// New creates a Fetcher from opts.
func New(opts Options) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	maxBody := opts.MaxBodySize
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}
	return &Fetcher{
		http:       client,
		headers:    opts.Headers,
		userAgent:  ua,
		retries:    min(max(opts.Retries, 0), 1),
		retryDelay: delay,
		maxBody:    maxBody,
	}
}

// FetchText fetches rawURL and delivers the body as a string.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) <-chan async.Result[string] {
	return async.Go(ctx, func(ctx context.Context) (string, error) {
		body, err := f.get(ctx, rawURL)
		return string(body), err
	})
}

// FetchBinary fetches rawURL and delivers the raw body.
func (f *Fetcher) FetchBinary(ctx context.Context, rawURL string) <-chan async.Result[[]byte] {
	return async.Go(ctx, func(ctx context.Context) ([]byte, error) {
		return f.get(ctx, rawURL)
	})
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, errors.New(errors.ErrCodeNetwork, "invalid URL %q", rawURL)
	}

	var body []byte
	err = retry(ctx, f.retries+1, f.retryDelay, func() error {
		var err error
		body, err = f.do(ctx, u)
		return err
	})
	return body, err
}

func (f *Fetcher) do(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "build request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()

	resp, err := f.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", u.Redacted())
	}
	defer resp.Body.Close()

	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))
	if err := checkStatus(resp.StatusCode); err != nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", u.Redacted())
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read body of %s", u.Redacted())
	}
	if int64(len(data)) > f.maxBody {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, ErrBodyTooLarge)
		return nil, errors.Wrap(errors.ErrCodeNetwork, ErrBodyTooLarge, "GET %s: over %d bytes", u.Redacted(), f.maxBody)
	}
	return data, nil
}

// ErrBodyTooLarge is the cause when a response exceeds the body limit.
var ErrBodyTooLarge = stderrors.New("response body too large")

// StatusError reports a non-success HTTP status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errors.Wrap(errors.ErrCodeNotFound, &StatusError{code}, "resource not found")
	default:
		return &StatusError{code}
	}
}
