package remote

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/matzehuels/qrfetch/pkg/errors"
)

// Extractor finds the image reference in a QR page.
type Extractor interface {
	Extract(page string) (string, error)
}

// ParseExtractor selects an extractor by name: "marker" (default) or "html".
func ParseExtractor(name string) (Extractor, error) {
	switch strings.ToLower(name) {
	case "", "marker":
		return MarkerExtractor{}, nil
	case "html":
		return HTMLExtractor{}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown scrape parser %q (want marker or html)", name)
	}
}

const imgMarker = `<img src="`

// MarkerExtractor returns the text between the first `<img src="` and the
// next double quote.
type MarkerExtractor struct{}

func (MarkerExtractor) Extract(page string) (string, error) {
	i := strings.Index(page, imgMarker)
	if i < 0 {
		return "", errors.New(errors.ErrCodeParse, "no image marker in page")
	}
	rest := page[i+len(imgMarker):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return "", errors.New(errors.ErrCodeParse, "unterminated image reference")
	}
	ref := strings.TrimSpace(rest[:end])
	if ref == "" {
		return "", errors.New(errors.ErrCodeParse, "empty image reference")
	}
	return ref, nil
}

// HTMLExtractor parses the page and returns the src of the first <img>
// that has one. It tolerates attribute order and quoting that the marker
// scan does not.
type HTMLExtractor struct{}

func (HTMLExtractor) Extract(page string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", errors.New(errors.ErrCodeParse, "no <img> with src in page")
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "img" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "src" {
					if src := strings.TrimSpace(string(val)); src != "" {
						return src, nil
					}
				}
				if !more {
					break
				}
			}
		}
	}
}

// ResolveImageURL resolves ref against pageURL and checks that the result
// is an absolute http(s) URL. Protocol-relative references take the page's
// scheme.
func ResolveImageURL(pageURL, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeParse, err, "invalid image reference %q", ref)
	}
	resolved := ref
	if !r.IsAbs() {
		base, err := url.Parse(pageURL)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeParse, err, "invalid page URL %q", pageURL)
		}
		resolved = base.ResolveReference(r).String()
	}
	if err := errors.ValidateImageURL(resolved); err != nil {
		return "", err
	}
	return resolved, nil
}
