package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/aouyang1/photogallery/api/client"
	"github.com/aouyang1/photogallery/api/models"
	"github.com/aouyang1/photogallery/util"
	mapset "github.com/deckarep/golang-set/v2"
)

// LocalManager keeps the registered photos in step with the files in the
// photos directory.
type LocalManager struct {
	rootPath string
	// subdirectories of the photos directory that are scanned, "" is the
	// directory itself
	subdirs  []string
	interval time.Duration
	// longest side of generated thumbnails, 0 disables generation
	thumbMaxDim int

	photoClient  *client.PhotoClient
	trackedFiles mapset.Set[string]

	Updated chan bool
}

func NewLocalManager(rootPath string, subdirs []string, interval time.Duration, thumbMaxDim int, photoClient *client.PhotoClient) (*LocalManager, error) {
	for _, sub := range subdirs {
		dir := filepath.Join(rootPath, photosDir, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("unable to create photos directory %s: %w", dir, err)
		}
	}

	l := &LocalManager{
		rootPath:     rootPath,
		subdirs:      subdirs,
		interval:     interval,
		thumbMaxDim:  thumbMaxDim,
		photoClient:  photoClient,
		trackedFiles: mapset.NewSet[string](),
		Updated:      make(chan bool, 1),
	}
	return l, nil
}

// getCurrentFiles returns the supported images as names relative to the
// photos directory.
func (l *LocalManager) getCurrentFiles() (mapset.Set[string], error) {
	currentFiles := mapset.NewSet[string]()
	for _, sub := range l.subdirs {
		dir := filepath.Join(l.rootPath, photosDir, sub)
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("unable to read directory, %s, %w", dir, err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !util.SupportedExt.Contains(filepath.Ext(name)) {
				continue
			}
			currentFiles.Add(filepath.ToSlash(filepath.Join(sub, name)))
		}
	}
	return currentFiles, nil
}

func (l *LocalManager) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	// Initial scan
	l.Scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Scan(ctx)
		}
	}
}

// Scan registers new files, deregisters photos whose file is gone and
// signals Updated when anything changed.
func (l *LocalManager) Scan(ctx context.Context) {
	currentFiles, err := l.getCurrentFiles()
	if err != nil {
		slog.Warn("error reading local directory", "error", err)
		return
	}

	newFiles := currentFiles.Difference(l.trackedFiles).ToSlice()
	slices.SortFunc(newFiles, func(a, b string) int {
		switch {
		case util.NaturalLess(a, b):
			return -1
		case util.NaturalLess(b, a):
			return 1
		}
		return 0
	})
	changed := len(newFiles) > 0

	// failed registrations stay untracked so the next scan retries them
	tracked := currentFiles.Clone()
	for _, name := range newFiles {
		ensureThumb(l.rootPath, name, l.thumbMaxDim)
		if err := l.photoClient.RegisterPhotoIfNotExists(ctx, Registration(l.rootPath, name)); err != nil {
			slog.Warn("error while registering local photo", "name", name, "error", err)
			tracked.Remove(name)
		}
	}
	l.trackedFiles = tracked

	registeredPhotos, err := l.photoClient.GetPhotos(ctx)
	if err != nil {
		slog.Warn("error getting registered photos", "error", err)
	} else {
		registeredNames := mapset.NewSet[string]()
		for _, photo := range registeredPhotos {
			// photos registered with external urls are not ours to remove
			if !strings.HasPrefix(photo.Full, imagesPrefix+"/"+photosDir+"/") {
				continue
			}
			registeredNames.Add(photo.Name)
		}

		toDeregister := registeredNames.Difference(currentFiles).ToSlice()
		if len(toDeregister) > 0 {
			slog.Info("deregistering photos not present locally", "count", len(toDeregister), "names", toDeregister)
			for _, name := range toDeregister {
				if err := l.photoClient.DeletePhoto(ctx, name); err != nil {
					slog.Warn("error while deregistering photo", "name", name, "error", err)
					continue
				}
				changed = true
			}
		}
	}

	if changed {
		select {
		case l.Updated <- true:
		default:
			// an update is already pending
		}
	}
}

// Registration builds the descriptor for a file in the photos directory,
// paired with the thumbnail of the same name when one exists.
func Registration(rootPath, name string) models.RegisterPhotoRequest {
	req := models.RegisterPhotoRequest{
		Name:  name,
		Full:  libraryURL(photosDir, name),
		Title: strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)),
	}
	thumb := filepath.Join(rootPath, thumbsDir, filepath.FromSlash(name))
	if _, err := os.Stat(thumb); err == nil {
		req.Thumb = libraryURL(thumbsDir, name)
	}
	return req
}
