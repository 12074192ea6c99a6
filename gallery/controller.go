package gallery

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrEmptyManifest is logged when the manifest has no usable photos.
var ErrEmptyManifest = errors.New("manifest has no photos")

// ManifestSource fetches the photo manifest.
type ManifestSource interface {
	FetchManifest(ctx context.Context) ([]Photo, error)
}

type Option func(*Controller)

// WithMessages sets the hint texts.
func WithMessages(m Messages) Option {
	return func(c *Controller) { c.messages = m }
}

// Controller owns the photos, the grid cards and the viewer for one page.
// Concurrent requests of the same session go through mu.
type Controller struct {
	mu sync.Mutex

	source   ManifestSource
	view     View
	messages Messages

	photos []Photo
	cards  []*Card
	viewer *Viewer
}

// New binds the controller to its page elements once. A view without a grid
// yields a controller whose operations are all no-ops.
func New(source ManifestSource, view View, opts ...Option) *Controller {
	c := &Controller{
		source:   source,
		view:     view,
		messages: catalog[supported[0]],
	}
	for _, opt := range opts {
		opt(c)
	}
	c.viewer = newViewer(view)
	return c
}

func (c *Controller) enabled() bool {
	return c.view.Grid != nil
}

// Load fetches the manifest and renders the grid. Failures never escape:
// they leave the grid empty and show a hint instead.
func (c *Controller) Load(ctx context.Context) {
	if !c.enabled() {
		return
	}

	c.mu.Lock()
	c.view.showHint(c.messages.Loading)
	c.mu.Unlock()

	photos, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.photos = nil
	c.cards = nil
	c.viewer.reset(nil)
	c.view.Grid.Clear()

	switch {
	case errors.Is(err, ErrEmptyManifest):
		c.view.showHint(c.messages.Empty)
		return
	case err != nil:
		slog.Warn("unable to load gallery manifest", "error", err)
		c.view.showHint(c.messages.Failed)
		return
	}

	c.photos = photos
	c.viewer.reset(photos)
	c.view.hideHint()
	c.cards = make([]*Card, len(photos))
	for i, p := range photos {
		card := newCard(i, p)
		c.cards[i] = card
		c.view.Grid.Append(card)
	}
}

func (c *Controller) fetch(ctx context.Context) ([]Photo, error) {
	if c.source == nil {
		return nil, errors.New("no manifest source")
	}
	raw, err := c.source.FetchManifest(ctx)
	if err != nil {
		return nil, err
	}

	photos := make([]Photo, 0, len(raw))
	for i, p := range raw {
		if err := p.Validate(); err != nil {
			slog.Warn("skipping manifest entry", "index", i, "error", err)
			continue
		}
		photos = append(photos, p)
	}
	if len(photos) == 0 {
		return nil, ErrEmptyManifest
	}
	return photos, nil
}

// Activate opens the viewer on card i, as a click on the card does.
func (c *Controller) Activate(i int) error {
	if !c.enabled() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewer.Open(i)
}

// CardKey opens the viewer on card i for Enter or Space.
func (c *Controller) CardKey(i int, key string) (bool, error) {
	if !c.enabled() || !activationKey(key) {
		return false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.viewer.Open(i); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Controller) Open(i int) error { return c.Activate(i) }

func (c *Controller) Close() {
	c.locked(func() { c.viewer.Close() })
}

func (c *Controller) Next() {
	c.locked(func() { c.viewer.Next() })
}

func (c *Controller) Prev() {
	c.locked(func() { c.viewer.Prev() })
}

// HandleKey is the page-level key handler; it only acts while the viewer is
// open.
func (c *Controller) HandleKey(key string) bool {
	var handled bool
	c.locked(func() { handled = c.viewer.HandleKey(key) })
	return handled
}

func (c *Controller) ClickOverlay(t Target) bool {
	var handled bool
	c.locked(func() { handled = c.viewer.ClickOverlay(t) })
	return handled
}

// CardImageFailed advances card i to its next fallback url.
func (c *Controller) CardImageFailed(i int, src string) (*Card, error) {
	var card *Card
	var err error
	c.locked(func() {
		card, err = c.card(i)
		if err != nil {
			return
		}
		card.Chain.Fail(src)
	})
	return card, err
}

// CardImageLoaded marks card i loaded.
func (c *Controller) CardImageLoaded(i int, src string) (*Card, error) {
	var card *Card
	var err error
	c.locked(func() {
		card, err = c.card(i)
		if err != nil {
			return
		}
		card.Chain.Succeed(src)
	})
	return card, err
}

// ViewerImageFailed advances the viewer image of showing gen.
func (c *Controller) ViewerImageFailed(gen int, src string) bool {
	var moved bool
	c.locked(func() { moved = c.viewer.ImageFailed(gen, src) })
	return moved
}

func (c *Controller) ViewerImageLoaded(gen int, src string) bool {
	var ok bool
	c.locked(func() { ok = c.viewer.ImageLoaded(gen, src) })
	return ok
}

func (c *Controller) card(i int) (*Card, error) {
	if i < 0 || i >= len(c.cards) {
		return nil, ErrIndexOutOfRange
	}
	return c.cards[i], nil
}

func (c *Controller) locked(fn func()) {
	if !c.enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// Snapshot is a copy of the controller state for rendering.
type Snapshot struct {
	Photos    []Photo
	Cards     []CardState
	Index     int
	Src       string
	Alt       string
	Open      bool
	Gen       int
	Armed     bool
	Navigable bool
}

// CardState is the render state of one card.
type CardState struct {
	Index       int
	Src         string
	Alt         string
	Loaded      bool
	Hidden      bool
	HasFallback bool
	Armed       bool
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Photos: append([]Photo(nil), c.photos...),
		Index:  c.viewer.Index(),
		Src:    c.viewer.Src(),
		Open:   c.viewer.IsOpen(),
		Gen:    c.viewer.Gen(),
		Armed:  c.viewer.Armed(),
	}
	if s.Open {
		s.Alt = c.photos[s.Index].AltText()
	}
	s.Navigable = len(c.photos) > 1
	for _, card := range c.cards {
		s.Cards = append(s.Cards, cardState(card))
	}
	return s
}

// CardState returns the render state of card i.
func (c *Controller) CardState(i int) (CardState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	card, err := c.card(i)
	if err != nil {
		return CardState{}, err
	}
	return cardState(card), nil
}

func cardState(card *Card) CardState {
	return CardState{
		Index:       card.Index,
		Src:         card.Src(),
		Alt:         card.Alt,
		Loaded:      card.Loaded(),
		Hidden:      card.Hidden(),
		HasFallback: card.Chain.HasFallback(),
		Armed:       card.Chain.Armed(),
	}
}

// Len is the number of loaded photos.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.photos)
}
