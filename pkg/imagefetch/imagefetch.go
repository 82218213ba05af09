// Package imagefetch retrieves images by URL through a content-addressed
// cache.
//
// A URL is fetched from the network at most once per cache lifetime: the
// raw bytes of the first successful, decodable response are stored under
// [cache.KeyFor] of the URL and served from there afterwards. Entries that
// can no longer be read or decoded are deleted and refetched.
package imagefetch

import (
	"context"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/qrfetch/pkg/async"
	"github.com/matzehuels/qrfetch/pkg/cache"
	"github.com/matzehuels/qrfetch/pkg/errors"
	"github.com/matzehuels/qrfetch/pkg/observability"
	"github.com/matzehuels/qrfetch/pkg/pixel"
)

// BinaryFetcher is the network side of the image fetcher.
// *fetch.Fetcher satisfies it.
type BinaryFetcher interface {
	FetchBinary(ctx context.Context, rawURL string) <-chan async.Result[[]byte]
}

// Fetcher resolves image URLs to pixel buffers.
type Fetcher struct {
	net    BinaryFetcher
	cache  cache.Cache
	logger *log.Logger
}

// New creates a Fetcher. A nil cache disables caching and a nil logger
// falls back to log.Default().
func New(net BinaryFetcher, c cache.Cache, logger *log.Logger) *Fetcher {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Fetcher{net: net, cache: c, logger: logger}
}

// FetchImage delivers the decoded image at rawURL exactly once.
// All cache and network I/O happens on the returned operation's goroutine.
func (f *Fetcher) FetchImage(ctx context.Context, rawURL string) <-chan async.Result[*pixel.Buffer] {
	if rawURL == "" {
		return async.Fail[*pixel.Buffer](errors.New(errors.ErrCodeInvalidInput, "image URL is empty"))
	}
	return async.Go(ctx, func(ctx context.Context) (*pixel.Buffer, error) {
		return f.fetch(ctx, rawURL)
	})
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (*pixel.Buffer, error) {
	if path, ok := localPath(rawURL); ok {
		return readLocal(path)
	}

	key := cache.KeyFor(rawURL)
	if buf, ok := f.fromCache(ctx, key, rawURL); ok {
		return buf, nil
	}
	observability.Cache().OnCacheMiss(ctx, key.String())

	data, err := async.Await(ctx, f.net.FetchBinary(ctx, rawURL))
	if err != nil {
		return nil, err
	}

	buf, err := pixel.Decode(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "image from %s", rawURL)
	}

	if err := f.cache.Write(ctx, key, data); err != nil {
		f.logger.Warn("cache write failed", "key", key, "err", err)
	} else {
		observability.Cache().OnCacheWrite(ctx, key.String(), len(data))
	}
	return buf, nil
}

// fromCache returns the decoded entry for key. A stale entry is deleted so
// the next lookup goes to the network.
func (f *Fetcher) fromCache(ctx context.Context, key cache.Key, rawURL string) (*pixel.Buffer, bool) {
	if !f.cache.Exists(ctx, key) {
		return nil, false
	}

	data, err := f.cache.Read(ctx, key)
	if err == nil {
		var buf *pixel.Buffer
		if buf, err = pixel.Decode(data); err == nil {
			f.logger.Debug("cache hit", "key", key, "url", rawURL)
			observability.Cache().OnCacheHit(ctx, key.String())
			return buf, true
		}
	}

	reason := errors.Wrap(errors.ErrCodeCacheRead, err, "entry %s", key)
	f.logger.Warn("dropping unreadable cache entry", "key", key, "err", reason)
	if derr := f.cache.Delete(ctx, key); derr != nil {
		f.logger.Warn("cache delete failed", "key", key, "err", derr)
	}
	observability.Cache().OnCacheEvict(ctx, key.String(), reason)
	return nil, false
}

// localPath reports whether rawURL names a file on disk, either as a
// file:// URL or as an existing bare path.
func localPath(rawURL string) (string, bool) {
	if strings.HasPrefix(rawURL, "file://") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", false
		}
		return u.Path, true
	}
	if strings.Contains(rawURL, "://") {
		return "", false
	}
	if _, err := os.Stat(rawURL); err == nil {
		return rawURL, true
	}
	return "", false
}

func readLocal(path string) (*pixel.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read %s", path)
	}
	buf, err := pixel.Decode(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "image %s", path)
	}
	return buf, nil
}
