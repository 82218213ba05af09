package remote

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/qrfetch/pkg/async"
	"github.com/matzehuels/qrfetch/pkg/errors"
	"github.com/matzehuels/qrfetch/pkg/pixel"
)

// ScrapeTier loads a QR web page and fetches the first image it references.
type ScrapeTier struct {
	Base      string
	Pages     TextFetcher
	Images    ImageFetcher
	Extractor Extractor
	Logger    *log.Logger
}

// NewScrapeTier creates a ScrapeTier. An empty base selects
// DefaultScrapeBase and a nil extractor selects MarkerExtractor.
func NewScrapeTier(base string, pages TextFetcher, images ImageFetcher, ex Extractor) *ScrapeTier {
	if base == "" {
		base = DefaultScrapeBase
	}
	if ex == nil {
		ex = MarkerExtractor{}
	}
	return &ScrapeTier{Base: base, Pages: pages, Images: images, Extractor: ex}
}

// PageURL builds the page URL for text.
func (t *ScrapeTier) PageURL(text string) string {
	return fmt.Sprintf("%s?text=%s", t.Base, text)
}

// Fetch loads the page for text and then the image it links to.
// width and height are not sent; the page decides the image size.
func (t *ScrapeTier) Fetch(ctx context.Context, text string, width, height int) <-chan async.Result[*pixel.Buffer] {
	return async.Go(ctx, func(ctx context.Context) (*pixel.Buffer, error) {
		pageURL := t.PageURL(text)
		page, err := async.Await(ctx, t.Pages.FetchText(ctx, pageURL))
		if err != nil {
			return nil, err
		}

		imgURL, err := t.extract(page, pageURL)
		if err != nil {
			return nil, err
		}
		t.logger().Debug("scraped image reference", "page", pageURL, "image", imgURL)

		return async.Await(ctx, t.Images.FetchImage(ctx, imgURL))
	})
}

func (t *ScrapeTier) extract(page, pageURL string) (ref string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeParse, "extract image URL: panic: %v", r)
		}
	}()
	raw, err := t.Extractor.Extract(page)
	if err != nil {
		return "", err
	}
	return ResolveImageURL(pageURL, raw)
}

func (t *ScrapeTier) logger() *log.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return log.Default()
}

// Name identifies the tier in logs.
func (t *ScrapeTier) Name() string { return "scrape" }
