package errors

import (
	"net/url"
	"unicode"
)

// maxTextLen bounds payloads accepted by the CLI and HTTP surfaces. QR
// symbols top out well below this at any recovery level.
const maxTextLen = 4096

// ValidateDimensions rejects non-positive image dimensions. The encoder and
// remote tiers must never see them.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidInput, "dimensions must be positive, got %dx%d", width, height)
	}
	return nil
}

// ValidateText checks that a payload is non-empty, bounded and free of
// control characters other than tab, CR and LF.
//
// This is not QR payload validation; it only keeps obviously broken input
// away from the network tiers.
func ValidateText(text string) error {
	if text == "" {
		return New(ErrCodeInvalidInput, "text cannot be empty")
	}
	if len(text) > maxTextLen {
		return New(ErrCodeInvalidInput, "text too long (max %d bytes)", maxTextLen)
	}
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "text contains control characters")
		}
	}
	return nil
}

// ValidateImageURL checks that raw is an absolute http(s) URL with a host.
func ValidateImageURL(raw string) error {
	if raw == "" {
		return New(ErrCodeParse, "image URL is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeParse, err, "invalid image URL %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeParse, "image URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return New(ErrCodeParse, "image URL %q has no host", raw)
	}
	return nil
}
