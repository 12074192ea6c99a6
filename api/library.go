package api

import (
	"errors"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aouyang1/photogallery/thumbnail"
)

const (
	photosDir = "photos"
	thumbsDir = "thumbs"

	imagesPrefix = "images"
)

var errOutsideLibrary = errors.New("path outside photos and thumbs")

// libraryURL is the manifest url of a file below one of the library
// directories, e.g. images/photos/remote/a%20b.jpg.
func libraryURL(dir, rel string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return path.Join(imagesPrefix, dir, strings.Join(parts, "/"))
}

// libraryFile maps a manifest url produced by libraryURL back to a file
// below rootPath. Urls pointing elsewhere report false.
func libraryFile(rootPath, u string) (string, bool) {
	rel, err := url.PathUnescape(strings.TrimPrefix(u, "/"))
	if err != nil {
		return "", false
	}
	rel, ok := strings.CutPrefix(rel, imagesPrefix+"/")
	if !ok {
		return "", false
	}
	p, err := resolveImage(rootPath, rel)
	if err != nil {
		return "", false
	}
	return p, true
}

// resolveImage returns the file for a request path relative to rootPath.
// Only files inside the photos and thumbs directories are served.
func resolveImage(rootPath, reqPath string) (string, error) {
	clean := path.Clean("/" + reqPath)
	dir, rest, _ := strings.Cut(strings.TrimPrefix(clean, "/"), "/")
	if rest == "" || (dir != photosDir && dir != thumbsDir) {
		return "", errOutsideLibrary
	}
	return filepath.Join(rootPath, dir, filepath.FromSlash(rest)), nil
}

// ensureThumb generates the thumbnail of a photo that has none. A maxDim of
// zero turns generation off.
func ensureThumb(rootPath, name string, maxDim int) {
	if maxDim <= 0 {
		return
	}
	thumb := filepath.Join(rootPath, thumbsDir, filepath.FromSlash(name))
	if _, err := os.Stat(thumb); err == nil {
		return
	}
	src := filepath.Join(rootPath, photosDir, filepath.FromSlash(name))
	if err := thumbnail.Generate(src, thumb, maxDim); err != nil {
		if errors.Is(err, thumbnail.ErrUnsupported) {
			slog.Debug("no thumbnail for format", "name", name)
			return
		}
		slog.Warn("unable to generate thumbnail", "name", name, "error", err)
	}
}
