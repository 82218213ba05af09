package remote

import (
	"context"
	"fmt"

	"github.com/matzehuels/qrfetch/pkg/async"
	"github.com/matzehuels/qrfetch/pkg/pixel"
)

// APITier asks a QR generation service for an image of the requested size.
type APITier struct {
	Base   string
	Images ImageFetcher
}

// NewAPITier creates an APITier. An empty base selects DefaultAPIBase.
func NewAPITier(base string, images ImageFetcher) *APITier {
	if base == "" {
		base = DefaultAPIBase
	}
	return &APITier{Base: base, Images: images}
}

// URL builds the request URL for text at width×height.
func (t *APITier) URL(text string, width, height int) string {
	return fmt.Sprintf("%s?size=%dx%d&data=%s", t.Base, width, height, text)
}

// Fetch retrieves the generated image. Caching, if any, is done by Images.
func (t *APITier) Fetch(ctx context.Context, text string, width, height int) <-chan async.Result[*pixel.Buffer] {
	return t.Images.FetchImage(ctx, t.URL(text, width, height))
}

// Name identifies the tier in logs.
func (t *APITier) Name() string { return "api" }
