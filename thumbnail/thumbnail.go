// Package thumbnail writes the grid-sized copies of library photos
package thumbnail

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDim = 480
	jpegQuality   = 85
)

// ErrUnsupported is returned when the thumbnail cannot be encoded in the
// photo's own format.
var ErrUnsupported = errors.New("unsupported thumbnail format")

// Size scales w x h so neither side exceeds maxDim, keeping the aspect
// ratio. Images that already fit keep their size.
func Size(w, h, maxDim int) (int, int) {
	if w <= 0 || h <= 0 || maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return w, h
	}
	ratio := min(float64(maxDim)/float64(w), float64(maxDim)/float64(h))
	return max(1, int(float64(w)*ratio)), max(1, int(float64(h)*ratio))
}

// Generate decodes src and writes a copy no larger than maxDim to dst,
// encoded by dst's extension. dst is replaced atomically.
func Generate(src, dst string, maxDim int) error {
	ext := strings.ToLower(filepath.Ext(dst))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}

	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("unable to decode %s: %w", src, err)
	}

	bounds := img.Bounds()
	w, h := Size(bounds.Dx(), bounds.Dy(), maxDim)
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".thumb-*"+ext)
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	switch ext {
	case ".png":
		err = png.Encode(tmp, scaled)
	default:
		err = jpeg.Encode(tmp, scaled, &jpeg.Options{Quality: jpegQuality})
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("unable to encode thumbnail %s: %w", dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return err
	}

	slog.Debug("generated thumbnail", "src", src, "format", format, "width", w, "height", h)
	return nil
}
