package gallery

import "log/slog"

// ImageChain is the ordered list of urls tried for one image. A failure
// consumes the current candidate; once every candidate failed the image is
// hidden and marked loaded so the layout settles.
type ImageChain struct {
	candidates []string
	pos        int
	loaded     bool
	hidden     bool
}

// NewImageChain drops empty and repeated candidates.
func NewImageChain(urls ...string) *ImageChain {
	c := &ImageChain{}
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		c.candidates = append(c.candidates, u)
	}
	if len(c.candidates) == 0 {
		c.hidden = true
		c.loaded = true
	}
	return c
}

// NewCardChain tries the thumbnail, its webp variant, the full image and
// finally the full image's webp variant.
func NewCardChain(p Photo) *ImageChain {
	thumb, full := p.ThumbURL(), p.FullURL()
	return NewImageChain(thumb, WebpVariant(thumb), full, WebpVariant(full))
}

// NewViewerChain tries the full image, then its webp variant.
func NewViewerChain(p Photo) *ImageChain {
	full := p.FullURL()
	return NewImageChain(full, WebpVariant(full))
}

// Current is the url to show, or "" once the chain is exhausted.
func (c *ImageChain) Current() string {
	if c.hidden || c.pos >= len(c.candidates) {
		return ""
	}
	return c.candidates[c.pos]
}

// Fail reports that src did not load. Reports for anything but the current
// candidate are stale and ignored. It returns true when the chain moved on.
func (c *ImageChain) Fail(src string) bool {
	if c.hidden || c.loaded || src == "" || src != c.Current() {
		return false
	}
	c.pos++
	if c.pos >= len(c.candidates) {
		slog.Debug("image fallback exhausted", "last", src)
		c.hidden = true
		c.loaded = true
		return true
	}
	slog.Debug("image fallback", "failed", src, "next", c.candidates[c.pos])
	return true
}

// Succeed marks the chain loaded if src is the current candidate.
func (c *ImageChain) Succeed(src string) bool {
	if c.hidden || c.loaded || src == "" || src != c.Current() {
		return false
	}
	c.loaded = true
	return true
}

// HasFallback reports whether a failure of the current candidate would
// still leave something to try.
func (c *ImageChain) HasFallback() bool {
	return !c.hidden && !c.loaded && c.pos+1 < len(c.candidates)
}

// Armed reports whether failures are still being listened for.
func (c *ImageChain) Armed() bool {
	return !c.hidden && !c.loaded
}

func (c *ImageChain) Loaded() bool    { return c.loaded }
func (c *ImageChain) Hidden() bool    { return c.hidden }
func (c *ImageChain) Exhausted() bool { return c.hidden && c.pos >= len(c.candidates) }

// Candidates returns a copy of the full candidate list.
func (c *ImageChain) Candidates() []string {
	out := make([]string, len(c.candidates))
	copy(out, c.candidates)
	return out
}
