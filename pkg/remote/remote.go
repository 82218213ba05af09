// Package remote implements the two network tiers of the acquisition
// pipeline: a QR generation API that returns an image directly, and a QR
// web page whose first image is scraped.
//
// Both tiers insert the payload text into their URLs verbatim. Callers are
// responsible for query escaping.
package remote

import (
	"context"

	"github.com/matzehuels/qrfetch/pkg/async"
	"github.com/matzehuels/qrfetch/pkg/pixel"
)

// Default endpoints.
const (
	DefaultAPIBase    = "https://api.qrserver.com/v1/create-qr-code/"
	DefaultScrapeBase = "https://cli.im/api/qrcode/code"
)

// ImageFetcher resolves an image URL. *imagefetch.Fetcher satisfies it.
type ImageFetcher interface {
	FetchImage(ctx context.Context, rawURL string) <-chan async.Result[*pixel.Buffer]
}

// TextFetcher retrieves a page body. *fetch.Fetcher satisfies it.
type TextFetcher interface {
	FetchText(ctx context.Context, rawURL string) <-chan async.Result[string]
}
