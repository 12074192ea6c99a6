// Package gallery holds the gallery controller: manifest loading, the
// thumbnail grid, the lightbox viewer and the image fallback chain.
package gallery

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidPhoto is returned for a descriptor with neither thumb nor full.
var ErrInvalidPhoto = errors.New("photo needs a thumb or full url")

// Photo is one entry of the manifest.
type Photo struct {
	Thumb string `json:"thumb,omitempty"`
	Full  string `json:"full,omitempty"`
	Alt   string `json:"alt,omitempty"`
	Title string `json:"title,omitempty"`
}

func (p Photo) Validate() error {
	if p.Thumb == "" && p.Full == "" {
		return ErrInvalidPhoto
	}
	return nil
}

// ThumbURL is the grid image, falling back to the full image.
func (p Photo) ThumbURL() string {
	if p.Thumb != "" {
		return NormPath(p.Thumb)
	}
	return NormPath(p.Full)
}

// FullURL is the viewer image, falling back to the thumbnail.
func (p Photo) FullURL() string {
	if p.Full != "" {
		return NormPath(p.Full)
	}
	return NormPath(p.Thumb)
}

// AltText prefers alt over title.
func (p Photo) AltText() string {
	if p.Alt != "" {
		return p.Alt
	}
	return p.Title
}

var absoluteURL = regexp.MustCompile(`(?i)^https?://`)

// NormPath leaves absolute http(s) urls alone and roots everything else.
func NormPath(p string) string {
	if p == "" {
		return ""
	}
	if absoluteURL.MatchString(p) {
		return p
	}
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}

var jpegSuffix = regexp.MustCompile(`(?i)\.jpe?g$`)

// WebpVariant swaps a .jpg/.jpeg suffix for .webp. Any other url comes back
// unchanged, which callers treat as "no variant".
func WebpVariant(u string) string {
	return jpegSuffix.ReplaceAllString(u, ".webp")
}
