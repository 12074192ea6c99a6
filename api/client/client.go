package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/photogallery/api/models"
	"github.com/aouyang1/photogallery/gallery"
	"github.com/aouyang1/photogallery/store"
)

// ErrUnexpectedStatus is returned for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected status")

// ErrAlreadyExists is returned when registering a photo twice.
var ErrAlreadyExists = errors.New("photo already exists")

type PhotoClient struct {
	baseURL     string
	manifestURL string
	cacheBust   bool
	client      *http.Client
}

type Option func(*PhotoClient)

// WithManifestURL overrides the default <base>/photos.json manifest url.
func WithManifestURL(u string) Option {
	return func(pc *PhotoClient) { pc.manifestURL = u }
}

// WithCacheBust appends a t=<unix nanos> query to every manifest fetch.
func WithCacheBust(on bool) Option {
	return func(pc *PhotoClient) { pc.cacheBust = on }
}

func NewPhotoClient(baseURL string, opts ...Option) *PhotoClient {
	baseURL = strings.TrimRight(baseURL, "/")
	pc := &PhotoClient{
		baseURL:     baseURL,
		manifestURL: baseURL + "/photos.json",
		client:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(pc)
	}
	return pc
}

// FetchManifest downloads and decodes the photo manifest.
func (pc *PhotoClient) FetchManifest(ctx context.Context) ([]gallery.Photo, error) {
	u, err := url.Parse(pc.manifestURL)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest url %q: %w", pc.manifestURL, err)
	}
	if pc.cacheBust {
		q := u.Query()
		q.Set("t", strconv.FormatInt(time.Now().UnixNano(), 10))
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := pc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("photos.json HTTP %d: %w", resp.StatusCode, ErrUnexpectedStatus)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	// valid json that is not an array holds no photos
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("manifest is not an array: %w", gallery.ErrEmptyManifest)
	}

	var photos []gallery.Photo
	if err := json.Unmarshal(raw, &photos); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return photos, nil
}

// RegisterPhoto registers a photo descriptor with the server.
func (pc *PhotoClient) RegisterPhoto(ctx context.Context, reqBody models.RegisterPhotoRequest) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/photos/register", pc.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	body, status, err := pc.do(req)
	if err != nil {
		return err
	}

	if status == http.StatusConflict {
		return fmt.Errorf("%s: %w", reqBody.Name, ErrAlreadyExists)
	}
	if status != http.StatusOK {
		return serverError(status, body)
	}

	var registerResp models.RegisterPhotoResponse
	if err := json.Unmarshal(body, &registerResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	slog.Info("photo registered successfully", "name", reqBody.Name, "order", registerResp.Order)
	return nil
}

// RegisterPhotoIfNotExists registers a photo only if it doesn't already exist
func (pc *PhotoClient) RegisterPhotoIfNotExists(ctx context.Context, reqBody models.RegisterPhotoRequest) error {
	err := pc.RegisterPhoto(ctx, reqBody)
	if errors.Is(err, ErrAlreadyExists) {
		slog.Debug("photo already registered, skipping", "name", reqBody.Name)
		return nil
	}
	return err
}

// GetPhotos retrieves all registered photos, following pagination.
func (pc *PhotoClient) GetPhotos(ctx context.Context) ([]store.Photo, error) {
	var allPhotos []store.Photo
	page := 1
	limit := 100

	for {
		url := fmt.Sprintf("%s/photos?page=%d&limit=%d", pc.baseURL, page, limit)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		body, status, err := pc.do(req)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, serverError(status, body)
		}

		var listResp models.PhotoListResponse
		if err := json.Unmarshal(body, &listResp); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}

		allPhotos = append(allPhotos, listResp.Photos...)

		// Check if we've fetched all photos
		if len(listResp.Photos) < limit || len(allPhotos) >= listResp.Total {
			break
		}

		page++
	}

	return allPhotos, nil
}

// DeletePhoto deregisters a photo; a missing photo is not an error.
func (pc *PhotoClient) DeletePhoto(ctx context.Context, name string) error {
	deleteURL := fmt.Sprintf("%s/photos/%s", pc.baseURL, url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, deleteURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	body, status, err := pc.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNotFound {
		return serverError(status, body)
	}
	return nil
}

func (pc *PhotoClient) do(req *http.Request) ([]byte, int, error) {
	resp, err := pc.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func serverError(status int, body []byte) error {
	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("server error %d: %s: %w", status, errResp.Error, ErrUnexpectedStatus)
	}
	return fmt.Errorf("server returned status %d: %s: %w", status, string(body), ErrUnexpectedStatus)
}
