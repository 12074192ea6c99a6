// Package api is the gallery web server
package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/aouyang1/photogallery/api/client"
	"github.com/aouyang1/photogallery/api/models"
	"github.com/aouyang1/photogallery/config"
	"github.com/aouyang1/photogallery/gallery"
	"github.com/aouyang1/photogallery/store"
	"github.com/aouyang1/photogallery/util"
)

//go:embed web/static/*
var webFiles embed.FS

const (
	manifestKey         = "manifest"
	manifestCacheTTL    = 5 * time.Minute
	sessionCleanupEvery = 10 * time.Minute
	shutdownTimeout     = 5 * time.Second
)

type WebServer struct {
	router *gin.Engine
	db     *store.Database
	cfg    *config.Config

	manifestURL string

	sessions  *cache.Cache
	manifests *cache.Cache

	localManager  *LocalManager
	remoteManager *RemoteManager
}

func NewWebServer(ctx context.Context, db *store.Database, cfg *config.Config) (*WebServer, error) {
	router := gin.New()
	// photo names may contain an escaped slash, e.g. remote%2Fa.jpg
	router.UseRawPath = true
	router.Use(gin.Recovery(), requestLogger())

	ws := &WebServer{
		router:      router,
		db:          db,
		cfg:         cfg,
		manifestURL: cfg.ManifestURL,
		sessions:    cache.New(cfg.SessionTTL, sessionCleanupEvery),
		manifests:   cache.New(manifestCacheTTL, manifestCacheTTL),
	}

	subdirs := []string{""}
	if cfg.RemoteSyncEnabled() {
		remoteManager, err := NewRemoteManager(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize remote manager: %w", err)
		}
		ws.remoteManager = remoteManager
		subdirs = append(subdirs, filepath.Base(cfg.RemoteDir()))
	}

	localManager, err := NewLocalManager(cfg.RootPath, subdirs, cfg.ScanInterval, cfg.ThumbMaxDim, client.NewPhotoClient(cfg.ServerURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local manager: %w", err)
	}
	ws.localManager = localManager

	if err := os.MkdirAll(cfg.ThumbsDir(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create thumbs directory: %w", err)
	}

	if err := ws.setupRoutes(); err != nil {
		return nil, err
	}
	return ws, nil
}

// requestLogger logs every request through slog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (ws *WebServer) Router() http.Handler {
	return ws.router
}

func (ws *WebServer) setupRoutes() error {
	// Create filesystem for static files (strip "web/" prefix)
	staticFS, err := fs.Sub(webFiles, "web/static")
	if err != nil {
		return fmt.Errorf("failed to create static filesystem: %w", err)
	}

	// Serve static files from embedded filesystem
	ws.router.StaticFS("/static", http.FS(staticFS))

	serveFavicon := func(c *gin.Context) {
		data, err := webFiles.ReadFile("web/static/favicon.svg")
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "image/svg+xml", data)
	}
	ws.router.GET("/favicon.ico", serveFavicon)
	ws.router.GET("/favicon.svg", serveFavicon)

	// Page, manifest and library images
	ws.router.GET("/", ws.handleIndex)
	ws.router.GET("/photos.json", ws.handleManifest)
	ws.router.GET("/images/*path", ws.handleImage)

	// htmx fragments
	ui := ws.router.Group("/ui")
	ui.GET("/gallery", ws.handleUIGallery)
	ui.POST("/cards/:index/open", ws.handleUICardOpen)
	ui.POST("/cards/:index/error", ws.handleUICardError)
	ui.POST("/cards/:index/loaded", ws.handleUICardLoaded)
	ui.POST("/viewer/next", ws.handleUIViewerNext)
	ui.POST("/viewer/prev", ws.handleUIViewerPrev)
	ui.POST("/viewer/close", ws.handleUIViewerClose)
	ui.POST("/viewer/key", ws.handleUIViewerKey)
	ui.POST("/viewer/backdrop", ws.handleUIViewerBackdrop)
	ui.POST("/viewer/image", ws.handleUIViewerImage)
	ui.POST("/viewer/error", ws.handleUIViewerError)

	// API routes
	ws.router.POST("/upload", ws.handleUpload)
	ws.router.POST("/photos/register", ws.handleRegisterPhoto)
	ws.router.GET("/photos", ws.handleListPhotos)
	ws.router.DELETE("/photos/:name", ws.handleDeletePhoto)
	ws.router.PUT("/photos/:name", ws.handleUpdatePhoto)
	ws.router.PUT("/photos/:name/reorder", ws.handleReorderPhoto)
	ws.router.GET("/settings", ws.handleGetSettings)
	ws.router.PUT("/settings", ws.handleUpdateSettings)
	return nil
}

// Start runs the managers and serves until ctx is cancelled.
func (ws *WebServer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// listen for library changes and drop the cached manifest
	go func() {
		var remoteUpdated chan bool
		if ws.remoteManager != nil {
			remoteUpdated = ws.remoteManager.Updated
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-remoteUpdated:
				slog.Info("remote library changed, rescanning")
				ws.localManager.Scan(ctx)
			case <-ws.localManager.Updated:
			}
			slog.Info("found library updates, refreshing manifest")
			ws.invalidateManifest()
		}
	}()

	go ws.localManager.Run(ctx)
	if ws.remoteManager != nil {
		go ws.remoteManager.Run(ctx)
	}

	srv := &http.Server{
		Addr:    ws.cfg.Addr,
		Handler: ws.router,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting web server", "addr", ws.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("web server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}
	return nil
}

func (ws *WebServer) invalidateManifest() {
	ws.manifests.Delete(manifestKey)
}

func (ws *WebServer) handleManifest(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	if cached, ok := ws.manifests.Get(manifestKey); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	photos, err := ws.db.GetAllPhotos()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}

	manifest := make([]gallery.Photo, 0, len(photos))
	for _, p := range photos {
		manifest = append(manifest, p.Descriptor())
	}
	ws.manifests.Set(manifestKey, manifest, cache.DefaultExpiration)
	c.JSON(http.StatusOK, manifest)
}

func (ws *WebServer) handleImage(c *gin.Context) {
	filePath, err := resolveImage(ws.cfg.RootPath, c.Param("path"))
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}

	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: fmt.Sprintf("Photo file not found: %s", c.Param("path"))})
		return
	}

	// Serve the file
	c.File(filePath)
}

func (ws *WebServer) handleUpload(c *gin.Context) {
	// Get the file from the form
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No file provided"})
		return
	}

	name := filepath.Base(file.Filename)
	ext := filepath.Ext(name)
	if !util.SupportedExt.Contains(ext) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: fmt.Sprintf("Unsupported file extension: %s. Supported: .jpeg, .jpg, .png, .webp", ext),
		})
		return
	}

	// Check for duplicates
	exists, err := ws.db.PhotoExists(name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: fmt.Sprintf("Photo with name '%s' already exists", name)})
		return
	}

	// Save file to disk
	filePath := filepath.Join(ws.cfg.PhotosDir(), name)
	if err := c.SaveUploadedFile(file, filePath); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to save file: %v", err)})
		return
	}

	maxOrder, err := ws.db.GetMaxOrder()
	if err != nil {
		// Clean up file if DB insert fails
		os.Remove(filePath)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}

	ensureThumb(ws.cfg.RootPath, name, ws.cfg.ThumbMaxDim)
	photo := Registration(ws.cfg.RootPath, name)
	if alt := c.PostForm("alt"); alt != "" {
		photo.Alt = alt
	}
	if title := c.PostForm("title"); title != "" {
		photo.Title = title
	}

	if err := ws.db.InsertPhoto(store.Photo{
		Name:  photo.Name,
		Thumb: photo.Thumb,
		Full:  photo.Full,
		Alt:   photo.Alt,
		Title: photo.Title,
		Order: maxOrder,
	}); err != nil {
		// Clean up file if DB insert fails
		os.Remove(filePath)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to insert photo into database: %v", err)})
		return
	}
	ws.invalidateManifest()

	c.JSON(http.StatusOK, models.UploadResponse{
		Name:    name,
		Order:   maxOrder,
		Message: "Photo uploaded successfully",
	})
}

func (ws *WebServer) handleRegisterPhoto(c *gin.Context) {
	// Parse request body
	var req models.RegisterPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	if req.Name == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "name is required"})
		return
	}

	photo := store.Photo{
		Name:  req.Name,
		Thumb: req.Thumb,
		Full:  req.Full,
		Alt:   req.Alt,
		Title: req.Title,
	}
	if err := photo.Descriptor().Validate(); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid photo: %v", err)})
		return
	}

	// Check for duplicates in database
	exists, err := ws.db.PhotoExists(req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: fmt.Sprintf("Photo with name '%s' already exists", req.Name)})
		return
	}

	photo.Order, err = ws.db.GetMaxOrder()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}

	// Insert into database
	if err := ws.db.InsertPhoto(photo); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to insert photo into database: %v", err)})
		return
	}
	ws.invalidateManifest()

	c.JSON(http.StatusOK, models.RegisterPhotoResponse{
		Name:    req.Name,
		Order:   photo.Order,
		Message: "Photo registered successfully",
	})
}

func (ws *WebServer) handleListPhotos(c *gin.Context) {
	// Parse query parameters
	pageStr := c.DefaultQuery("page", "1")
	limitStr := c.DefaultQuery("limit", "20")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid page parameter"})
		return
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid limit parameter"})
		return
	}

	// Get total count
	total, err := ws.db.GetPhotoCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}

	// Calculate offset
	offset := (page - 1) * limit

	// Get photos
	photos, err := ws.db.GetPhotos(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}

	c.JSON(http.StatusOK, models.PhotoListResponse{
		Photos: photos,
		Total:  total,
		Page:   page,
		Limit:  limit,
	})
}

func (ws *WebServer) handleDeletePhoto(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Photo name is required"})
		return
	}

	photo, err := ws.db.GetPhoto(name)
	if errors.Is(err, store.ErrPhotoNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: fmt.Sprintf("Photo '%s' not found", name)})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}

	// Delete library files; external urls are left alone
	for _, u := range []string{photo.Full, photo.Thumb} {
		filePath, ok := libraryFile(ws.cfg.RootPath, u)
		if !ok {
			continue
		}
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to delete file: %v", err)})
			return
		}
	}

	// Delete from database
	if err := ws.db.DeletePhoto(name); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to delete photo from database: %v", err)})
		return
	}
	ws.invalidateManifest()

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Photo '%s' deleted successfully", name)})
}

func (ws *WebServer) handleReorderPhoto(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Photo name is required"})
		return
	}

	// Parse request body
	var req models.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	if req.NewOrder < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "new_order must be non-negative"})
		return
	}

	if _, err := ws.db.GetPhoto(name); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: fmt.Sprintf("Photo '%s' not found", name)})
		return
	}

	// Get max order to validate new_order
	maxOrder, err := ws.db.GetMaxOrder()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}

	if req.NewOrder >= maxOrder {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: fmt.Sprintf("new_order %d exceeds maximum order %d", req.NewOrder, maxOrder-1),
		})
		return
	}

	// Update order
	if err := ws.db.UpdatePhotoOrder(name, req.NewOrder); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update photo order: %v", err)})
		return
	}
	ws.invalidateManifest()

	// Get updated photo
	updatedPhoto, err := ws.db.GetPhoto(name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to retrieve updated photo: %v", err)})
		return
	}

	c.JSON(http.StatusOK, updatedPhoto)
}

// handleUpdatePhoto replaces the urls and text of a registered photo. The
// name in the path wins over one in the body.
func (ws *WebServer) handleUpdatePhoto(c *gin.Context) {
	var req models.RegisterPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	photo := store.Photo{
		Name:  c.Param("name"),
		Thumb: req.Thumb,
		Full:  req.Full,
		Alt:   req.Alt,
		Title: req.Title,
	}
	if err := photo.Descriptor().Validate(); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid photo: %v", err)})
		return
	}

	err := ws.db.UpdatePhotoMeta(photo)
	if errors.Is(err, store.ErrPhotoNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: fmt.Sprintf("Photo '%s' not found", photo.Name)})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update photo: %v", err)})
		return
	}
	ws.invalidateManifest()

	updatedPhoto, err := ws.db.GetPhoto(photo.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to retrieve updated photo: %v", err)})
		return
	}
	c.JSON(http.StatusOK, updatedPhoto)
}

func (ws *WebServer) handleGetSettings(c *gin.Context) {
	settings, err := ws.db.GetAppSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get settings: %v", err)})
		return
	}

	c.JSON(http.StatusOK, settings)
}

func (ws *WebServer) handleUpdateSettings(c *gin.Context) {
	var req store.AppSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	if req.Locale != "" && !gallery.SupportedLocale(req.Locale) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("unsupported locale %q", req.Locale)})
		return
	}

	if err := ws.db.UpsertAppSettings(&req); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update settings: %v", err)})
		return
	}

	c.JSON(http.StatusOK, req)
}
