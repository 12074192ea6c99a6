package gallery

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when opening an index outside the photos.
var ErrIndexOutOfRange = errors.New("photo index out of range")

// Closed is the viewer index while no photo is shown.
const Closed = -1

// Target is what a click on the overlay landed on.
type Target int

const (
	TargetBackdrop Target = iota
	TargetImage
	TargetControl
)

// Viewer is the lightbox state machine. It has two states: closed, and
// open on an index into photos.
type Viewer struct {
	photos []Photo
	view   View

	index int
	chain *ImageChain
	// gen counts showings; image reports carry it so a report from an
	// earlier showing of the same url is recognised as stale
	gen int
}

func newViewer(view View) *Viewer {
	return &Viewer{view: view, index: Closed}
}

// reset swaps the photo list and closes the viewer.
func (v *Viewer) reset(photos []Photo) {
	v.Close()
	v.photos = photos
}

func (v *Viewer) IsOpen() bool { return v.index != Closed }

// Index is the open photo, or Closed.
func (v *Viewer) Index() int { return v.index }

// Src is the image currently shown, "" when closed or every candidate failed.
func (v *Viewer) Src() string {
	if v.chain == nil {
		return ""
	}
	return v.chain.Current()
}

// Gen identifies the current showing.
func (v *Viewer) Gen() int { return v.gen }

// Armed reports whether the shown image still awaits a load or error report.
func (v *Viewer) Armed() bool {
	return v.chain != nil && v.chain.Armed()
}

func (v *Viewer) Open(i int) error {
	n := len(v.photos)
	if i < 0 || i >= n {
		return fmt.Errorf("open %d of %d: %w", i, n, ErrIndexOutOfRange)
	}
	wasOpen := v.IsOpen()
	v.index = i
	v.chain = NewViewerChain(v.photos[i])
	v.gen++
	if wasOpen {
		v.view.setOverlayImage(v.chain.Current(), v.photos[i].AltText())
		return nil
	}
	v.view.openOverlay(v.chain.Current(), v.photos[i].AltText())
	return nil
}

// Close is a no-op when already closed.
func (v *Viewer) Close() {
	if !v.IsOpen() {
		return
	}
	v.index = Closed
	v.chain = nil
	v.view.closeOverlay()
}

func (v *Viewer) Next() {
	if !v.IsOpen() || len(v.photos) == 0 {
		return
	}
	_ = v.Open((v.index + 1) % len(v.photos))
}

func (v *Viewer) Prev() {
	if !v.IsOpen() || len(v.photos) == 0 {
		return
	}
	n := len(v.photos)
	_ = v.Open((v.index - 1 + n) % n)
}

// HandleKey maps Escape, ArrowRight and ArrowLeft while open. It reports
// whether the key was consumed.
func (v *Viewer) HandleKey(key string) bool {
	if !v.IsOpen() {
		return false
	}
	switch key {
	case "Escape", "Esc":
		v.Close()
	case "ArrowRight", "Right":
		v.Next()
	case "ArrowLeft", "Left":
		v.Prev()
	default:
		return false
	}
	return true
}

// ClickOverlay closes the viewer only for clicks on the backdrop itself.
func (v *Viewer) ClickOverlay(t Target) bool {
	if !v.IsOpen() || t != TargetBackdrop {
		return false
	}
	v.Close()
	return true
}

// ImageFailed moves the viewer to its next candidate. Reports for an image
// that is no longer shown, or for an earlier showing, are dropped.
func (v *Viewer) ImageFailed(gen int, src string) bool {
	if !v.IsOpen() || v.chain == nil || gen != v.gen {
		return false
	}
	if !v.chain.Fail(src) {
		return false
	}
	v.view.setOverlayImage(v.chain.Current(), v.photos[v.index].AltText())
	return true
}

// ImageLoaded marks the viewer image as loaded.
func (v *Viewer) ImageLoaded(gen int, src string) bool {
	if !v.IsOpen() || v.chain == nil || gen != v.gen {
		return false
	}
	return v.chain.Succeed(src)
}
