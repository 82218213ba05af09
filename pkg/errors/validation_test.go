package errors

import (
	"strings"
	"testing"
)

func TestValidateDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantErr       bool
	}{
		{"square", 256, 256, false},
		{"rect", 300, 120, false},
		{"one pixel", 1, 1, false},
		{"zero width", 0, 256, true},
		{"zero height", 256, 0, true},
		{"negative", -1, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDimensions(tt.width, tt.height)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDimensions(%d, %d) error = %v, wantErr %v", tt.width, tt.height, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "hello", false},
		{"url", "https://example.com/?a=1&b=2", false},
		{"multiline", "line1\nline2", false},
		{"crlf", "BEGIN:VCARD\r\nFN:Jane Doe\r\nEND:VCARD", false},
		{"unicode", "二维码", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", maxTextLen+1), true},
		{"null byte", "foo\x00bar", true},
		{"escape", "foo\x1bbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateText(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateText(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateImageURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"http", "http://x/y.png", false},
		{"https", "https://cdn.example.com/qr/abc.png?s=1", false},

		{"empty", "", true},
		{"relative", "/y.png", true},
		{"no scheme", "x/y.png", true},
		{"ftp", "ftp://x/y.png", true},
		{"no host", "http:///y.png", true},
		{"bad escape", "http://x/%zz", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImageURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateImageURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeParse) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeParse)
			}
		})
	}
}
