package gallery

// Grid is the container the cards are rendered into.
type Grid interface {
	Clear()
	Append(card *Card)
}

// Hint is the status line shown while loading or when the gallery is empty.
type Hint interface {
	Show(msg string)
	Hide()
}

// Overlay is the lightbox element and the image inside it.
type Overlay interface {
	Show()
	Hide()
	SetImage(src, alt string)
}

// ScrollLock toggles page scrolling while the viewer is open.
type ScrollLock interface {
	Lock()
	Unlock()
}

// View bundles the page elements the controller drives. Only Grid is
// required; without it the controller does nothing.
type View struct {
	Grid    Grid
	Hint    Hint
	Overlay Overlay
	Scroll  ScrollLock
}

func (v View) showHint(msg string) {
	if v.Hint != nil {
		v.Hint.Show(msg)
	}
}

func (v View) hideHint() {
	if v.Hint != nil {
		v.Hint.Hide()
	}
}

func (v View) openOverlay(src, alt string) {
	if v.Overlay != nil {
		v.Overlay.SetImage(src, alt)
		v.Overlay.Show()
	}
	if v.Scroll != nil {
		v.Scroll.Lock()
	}
}

func (v View) setOverlayImage(src, alt string) {
	if v.Overlay != nil {
		v.Overlay.SetImage(src, alt)
	}
}

func (v View) closeOverlay() {
	if v.Overlay != nil {
		v.Overlay.Hide()
		v.Overlay.SetImage("", "")
	}
	if v.Scroll != nil {
		v.Scroll.Unlock()
	}
}
