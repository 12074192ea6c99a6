package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/aouyang1/photogallery/api/client"
	"github.com/aouyang1/photogallery/api/web/templates"
	"github.com/aouyang1/photogallery/gallery"
)

const sessionCookie = "gallery_session"

// session is one open page: its document and the controller driving it.
type session struct {
	doc        *templates.Document
	controller *gallery.Controller
	messages   gallery.Messages
}

func (ws *WebServer) newSession(c *gin.Context) (*session, error) {
	settings, err := ws.db.GetAppSettings()
	if err != nil {
		return nil, err
	}
	locale := settings.Locale
	if locale == "" {
		locale = ws.cfg.Locale
	}

	source := client.NewPhotoClient(ws.cfg.ServerURL,
		client.WithManifestURL(ws.manifestURL),
		client.WithCacheBust(settings.CacheBust),
	)
	s := &session{
		doc:      templates.NewDocument(),
		messages: gallery.MessagesFor(c.GetHeader("Accept-Language"), locale),
	}
	s.controller = gallery.New(source, s.doc.View(), gallery.WithMessages(s.messages))

	id := uuid.NewString()
	ws.sessions.Set(id, s, cache.DefaultExpiration)
	c.SetCookie(sessionCookie, id, int(ws.cfg.SessionTTL.Seconds()), "/", "", false, true)
	slog.Debug("session created", "id", id, "locale", s.messages.Lang)
	return s, nil
}

// session looks up the caller's session and extends its lifetime.
func (ws *WebServer) session(c *gin.Context) (*session, bool) {
	id, err := c.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	v, ok := ws.sessions.Get(id)
	if !ok {
		return nil, false
	}
	s := v.(*session)
	ws.sessions.Set(id, s, cache.DefaultExpiration)
	return s, true
}

// requireSession aborts with a full page refresh when the session expired.
func (ws *WebServer) requireSession(c *gin.Context) (*session, bool) {
	s, ok := ws.session(c)
	if !ok {
		c.Header("HX-Refresh", "true")
		c.String(http.StatusGone, "session expired")
		return nil, false
	}
	return s, true
}

func render(c *gin.Context, status int, components ...templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	for _, component := range components {
		if err := component.Render(c.Request.Context(), c.Writer); err != nil {
			slog.Error("failed to render component", "path", c.Request.URL.Path, "error", err)
			return
		}
	}
}

func (s *session) overlay() templ.Component {
	return templates.Overlay(s.doc.State(), s.controller.Snapshot(), s.messages)
}

func (ws *WebServer) handleIndex(c *gin.Context) {
	s, err := ws.newSession(c)
	if err != nil {
		slog.Error("failed to create session", "error", err)
		c.String(http.StatusInternalServerError, "Failed to load gallery")
		return
	}
	c.Header("Vary", "Accept-Language")
	render(c, http.StatusOK, templates.Page(s.messages))
}

func (ws *WebServer) handleUIGallery(c *gin.Context) {
	s, ok := ws.session(c)
	if !ok {
		var err error
		if s, err = ws.newSession(c); err != nil {
			slog.Error("failed to create session", "error", err)
			c.String(http.StatusInternalServerError, "Failed to load gallery")
			return
		}
	}

	s.controller.Load(c.Request.Context())
	render(c, http.StatusOK,
		templates.Gallery(s.doc.State(), s.controller.Snapshot()),
		s.overlay(),
	)
}

func cardIndex(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid card index")
		return 0, false
	}
	return i, true
}

func cardError(c *gin.Context, err error) {
	if errors.Is(err, gallery.ErrIndexOutOfRange) {
		c.String(http.StatusNotFound, err.Error())
		return
	}
	c.String(http.StatusInternalServerError, err.Error())
}

func (ws *WebServer) handleUICardOpen(c *gin.Context) {
	s, ok := ws.requireSession(c)
	if !ok {
		return
	}
	i, ok := cardIndex(c)
	if !ok {
		return
	}

	if key := c.PostForm("key"); key != "" {
		handled, err := s.controller.CardKey(i, key)
		if err != nil {
			cardError(c, err)
			return
		}
		if !handled {
			c.Status(http.StatusNoContent)
			return
		}
	} else if err := s.controller.Activate(i); err != nil {
		cardError(c, err)
		return
	}
	render(c, http.StatusOK, s.overlay())
}

func (ws *WebServer) handleUICardError(c *gin.Context) {
	s, ok := ws.requireSession(c)
	if !ok {
		return
	}
	i, ok := cardIndex(c)
	if !ok {
		return
	}
	if _, err := s.controller.CardImageFailed(i, c.Query("src")); err != nil {
		cardError(c, err)
		return
	}
	ws.renderCard(c, s, i)
}

func (ws *WebServer) handleUICardLoaded(c *gin.Context) {
	s, ok := ws.requireSession(c)
	if !ok {
		return
	}
	i, ok := cardIndex(c)
	if !ok {
		return
	}
	if _, err := s.controller.CardImageLoaded(i, c.Query("src")); err != nil {
		cardError(c, err)
		return
	}
	ws.renderCard(c, s, i)
}

func (ws *WebServer) renderCard(c *gin.Context, s *session, i int) {
	state, err := s.controller.CardState(i)
	if err != nil {
		cardError(c, err)
		return
	}
	render(c, http.StatusOK, templates.Card(state))
}

// viewer runs fn against the caller's controller and re-renders the
// lightbox.
func (ws *WebServer) viewer(c *gin.Context, fn func(ctrl *gallery.Controller)) {
	s, ok := ws.requireSession(c)
	if !ok {
		return
	}
	fn(s.controller)
	render(c, http.StatusOK, s.overlay())
}

func (ws *WebServer) handleUIViewerNext(c *gin.Context) {
	ws.viewer(c, func(ctrl *gallery.Controller) { ctrl.Next() })
}

func (ws *WebServer) handleUIViewerPrev(c *gin.Context) {
	ws.viewer(c, func(ctrl *gallery.Controller) { ctrl.Prev() })
}

func (ws *WebServer) handleUIViewerClose(c *gin.Context) {
	ws.viewer(c, func(ctrl *gallery.Controller) { ctrl.Close() })
}

func (ws *WebServer) handleUIViewerKey(c *gin.Context) {
	key := c.PostForm("key")
	ws.viewer(c, func(ctrl *gallery.Controller) { ctrl.HandleKey(key) })
}

func (ws *WebServer) handleUIViewerBackdrop(c *gin.Context) {
	ws.viewer(c, func(ctrl *gallery.Controller) { ctrl.ClickOverlay(gallery.TargetBackdrop) })
}

func (ws *WebServer) handleUIViewerError(c *gin.Context) {
	gen, err := strconv.Atoi(c.Query("gen"))
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid viewer generation")
		return
	}
	src := c.Query("src")
	ws.viewer(c, func(ctrl *gallery.Controller) { ctrl.ViewerImageFailed(gen, src) })
}

// handleUIViewerImage swallows clicks on the image itself.
func (ws *WebServer) handleUIViewerImage(c *gin.Context) {
	s, ok := ws.requireSession(c)
	if !ok {
		return
	}
	s.controller.ClickOverlay(gallery.TargetImage)
	c.Status(http.StatusNoContent)
}
