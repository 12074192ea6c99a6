package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	RootPath     string
	Addr         string
	ServerURL    string
	ManifestURL  string
	Locale       string
	SessionTTL   time.Duration
	ScanInterval time.Duration
	// longest side of generated thumbnails, 0 disables generation
	ThumbMaxDim int

	S3Bucket   string
	AWSProfile string
}

// ErrRootPathNotSet is returned when GALLERY_ROOT_PATH is not set
var ErrRootPathNotSet = errors.New("GALLERY_ROOT_PATH environment variable not set")

const (
	defaultAddr         = "0.0.0.0:8080"
	defaultServerURL    = "http://localhost:8080"
	defaultLocale       = "ro"
	defaultSessionTTL   = 30 * time.Minute
	defaultScanInterval = 24 * time.Hour
	defaultThumbMaxDim  = 480

	remoteSubdir = "remote"
)

// Load loads configuration from environment variables
func Load() (*Config, error) {
	rootPath := os.Getenv("GALLERY_ROOT_PATH")
	if rootPath == "" {
		return nil, ErrRootPathNotSet
	}
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	cfg.RootPath = rootPath
	return cfg, nil
}

// LoadClient loads the configuration of commands that only talk to a
// running server; GALLERY_ROOT_PATH is not required.
func LoadClient() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	cfg.RootPath = os.Getenv("GALLERY_ROOT_PATH")
	return cfg, nil
}

func load() (*Config, error) {
	sessionTTL, err := durationEnv("GALLERY_SESSION_TTL", defaultSessionTTL)
	if err != nil {
		return nil, err
	}
	scanInterval, err := durationEnv("GALLERY_SCAN_INTERVAL", defaultScanInterval)
	if err != nil {
		return nil, err
	}

	thumbMaxDim, err := intEnv("GALLERY_THUMB_MAX_DIM", defaultThumbMaxDim)
	if err != nil {
		return nil, err
	}

	serverURL := strings.TrimRight(envOr("GALLERY_SERVER_URL", defaultServerURL), "/")

	return &Config{
		Addr:         envOr("GALLERY_ADDR", defaultAddr),
		ServerURL:    serverURL,
		ManifestURL:  envOr("GALLERY_MANIFEST_URL", serverURL+"/photos.json"),
		Locale:       envOr("GALLERY_LOCALE", defaultLocale),
		SessionTTL:   sessionTTL,
		ScanInterval: scanInterval,
		ThumbMaxDim:  thumbMaxDim,
		S3Bucket:     os.Getenv("GALLERY_S3_BUCKET"),
		AWSProfile:   os.Getenv("GALLERY_AWS_PROFILE"),
	}, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", key, v)
	}
	return n, nil
}

func (c *Config) DBPath() string {
	return filepath.Join(c.RootPath, "photos.db")
}

func (c *Config) PhotosDir() string {
	return filepath.Join(c.RootPath, "photos")
}

func (c *Config) ThumbsDir() string {
	return filepath.Join(c.RootPath, "thumbs")
}

// RemoteSyncEnabled is true when an S3 bucket is configured.
func (c *Config) RemoteSyncEnabled() bool {
	return c.S3Bucket != ""
}

// RemoteDir is where the bucket is mirrored, inside the photos directory.
func (c *Config) RemoteDir() string {
	return filepath.Join(c.PhotosDir(), remoteSubdir)
}
