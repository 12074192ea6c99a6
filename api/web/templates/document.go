package templates

import (
	"sync"

	"github.com/aouyang1/photogallery/gallery"
)

// Document is the server-side copy of one browser page. The gallery
// controller drives it through gallery.View and the components render it.
type Document struct {
	mu sync.Mutex

	hint        string
	hintVisible bool

	overlayOpen bool
	overlaySrc  string
	overlayAlt  string

	scrollLocked bool
	cards        int
}

// DocumentState is a consistent copy of a Document.
type DocumentState struct {
	Hint         string
	HintVisible  bool
	OverlayOpen  bool
	OverlaySrc   string
	OverlayAlt   string
	ScrollLocked bool
	Cards        int
}

func NewDocument() *Document {
	return &Document{}
}

// View returns the collaborators for gallery.New.
func (d *Document) View() gallery.View {
	return gallery.View{
		Grid:    gridElem{d},
		Hint:    hintElem{d},
		Overlay: overlayElem{d},
		Scroll:  scrollElem{d},
	}
}

func (d *Document) State() DocumentState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DocumentState{
		Hint:         d.hint,
		HintVisible:  d.hintVisible,
		OverlayOpen:  d.overlayOpen,
		OverlaySrc:   d.overlaySrc,
		OverlayAlt:   d.overlayAlt,
		ScrollLocked: d.scrollLocked,
		Cards:        d.cards,
	}
}

func (d *Document) update(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

type gridElem struct{ d *Document }

func (g gridElem) Clear() { g.d.update(func() { g.d.cards = 0 }) }

func (g gridElem) Append(*gallery.Card) { g.d.update(func() { g.d.cards++ }) }

type hintElem struct{ d *Document }

func (h hintElem) Show(msg string) {
	h.d.update(func() {
		h.d.hint = msg
		h.d.hintVisible = true
	})
}

func (h hintElem) Hide() { h.d.update(func() { h.d.hintVisible = false }) }

type overlayElem struct{ d *Document }

func (o overlayElem) Show() { o.d.update(func() { o.d.overlayOpen = true }) }

func (o overlayElem) Hide() { o.d.update(func() { o.d.overlayOpen = false }) }

func (o overlayElem) SetImage(src, alt string) {
	o.d.update(func() {
		o.d.overlaySrc = src
		o.d.overlayAlt = alt
	})
}

type scrollElem struct{ d *Document }

func (s scrollElem) Lock() { s.d.update(func() { s.d.scrollLocked = true }) }

func (s scrollElem) Unlock() { s.d.update(func() { s.d.scrollLocked = false }) }
