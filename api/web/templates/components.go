package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/aouyang1/photogallery/gallery"
)

const htmxSrc = "https://unpkg.com/htmx.org@1.9.12"

// keys the lightbox listens for while it is open
const viewerKeys = "key=='Escape'||key=='Esc'||key=='ArrowRight'||key=='ArrowLeft'"

func attr(s string) string {
	return templ.EscapeString(s)
}

func component(build func(b *strings.Builder)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		build(&b)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Page is the document shell. The gallery section loads itself once htmx
// has initialised.
func Page(msgs gallery.Messages) templ.Component {
	return component(func(b *strings.Builder) {
		fmt.Fprintf(b, `<!DOCTYPE html><html lang="%s"><head>`, attr(msgs.Lang))
		b.WriteString(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		fmt.Fprintf(b, `<title>%s</title>`, attr(msgs.Title))
		b.WriteString(`<link rel="icon" href="/favicon.svg" type="image/svg+xml">`)
		b.WriteString(`<link rel="stylesheet" href="/static/gallery.css">`)
		fmt.Fprintf(b, `<script src="%s"></script>`, htmxSrc)
		b.WriteString(`</head><body>`)
		writeScrollLock(b, false, false)
		b.WriteString(`<main>`)
		b.WriteString(`<section id="gallery" hx-get="/ui/gallery" hx-trigger="load" hx-swap="outerHTML">`)
		fmt.Fprintf(b, `<p id="galleryHint" class="hint">%s</p>`, attr(msgs.Loading))
		b.WriteString(`<div id="galleryGrid" class="grid"></div>`)
		b.WriteString(`</section></main>`)
		writeClosedOverlay(b)
		b.WriteString(`</body></html>`)
	})
}

// Gallery is the hint line and the grid of cards.
func Gallery(doc DocumentState, snap gallery.Snapshot) templ.Component {
	return component(func(b *strings.Builder) {
		b.WriteString(`<section id="gallery">`)
		if doc.HintVisible {
			fmt.Fprintf(b, `<p id="galleryHint" class="hint">%s</p>`, attr(doc.Hint))
		} else {
			b.WriteString(`<p id="galleryHint" class="hint" hidden></p>`)
		}
		b.WriteString(`<div id="galleryGrid" class="grid">`)
		for _, c := range snap.Cards {
			writeCard(b, c)
		}
		b.WriteString(`</div></section>`)
	})
}

// Card is one tile. While its image chain is armed the image reports its
// outcome back; a settled card carries no triggers.
func Card(c gallery.CardState) templ.Component {
	return component(func(b *strings.Builder) {
		writeCard(b, c)
	})
}

func writeCard(b *strings.Builder, c gallery.CardState) {
	class := "card"
	if c.Loaded {
		class += " loaded"
	}
	fmt.Fprintf(b, `<div id="%s" class="%s" tabindex="0" role="button" aria-label="%s"`,
		cardID(c.Index), class, attr(c.Alt))
	fmt.Fprintf(b, ` hx-post="%s" hx-trigger="click, keyup[key=='Enter'||key==' ']"`, attr(openURL(c.Index)))
	b.WriteString(` hx-vals="js:{key: event.type === 'keyup' ? event.key : ''}" hx-target="#lightbox" hx-swap="outerHTML">`)

	if c.Hidden {
		b.WriteString(`<figure class="card-media" hidden></figure></div>`)
		return
	}

	// inline handlers are live as soon as the img is parsed, before htmx
	// processes the swapped content
	target := "#" + cardID(c.Index)
	fmt.Fprintf(b, `<figure class="card-media"><img src="%s" alt="%s" loading="lazy" decoding="async"`, attr(c.Src), attr(c.Alt))
	if c.Armed {
		fmt.Fprintf(b, ` onload="%s"`, attr(report(cardLoadedURL(c.Index, c.Src), target)))
		fmt.Fprintf(b, ` onerror="%s"`, attr(report(cardErrorURL(c.Index, c.Src), target)))
	}
	b.WriteString(`></figure></div>`)
}

// Overlay is the lightbox plus an out-of-band scroll lock update.
func Overlay(doc DocumentState, snap gallery.Snapshot, msgs gallery.Messages) templ.Component {
	return component(func(b *strings.Builder) {
		if !doc.OverlayOpen {
			writeClosedOverlay(b)
			writeScrollLock(b, doc.ScrollLocked, true)
			return
		}

		fmt.Fprintf(b, `<div id="lightbox" class="lightbox open" role="dialog" aria-modal="true" aria-label="%s"`, attr(doc.OverlayAlt))
		fmt.Fprintf(b, ` hx-post="/ui/viewer/key" hx-trigger="keyup[%s] from:body"`, viewerKeys)
		b.WriteString(` hx-vals="js:{key: event.key}" hx-target="this" hx-swap="outerHTML">`)

		b.WriteString(`<div class="lightbox-backdrop" hx-post="/ui/viewer/backdrop" hx-trigger="click" hx-target="#lightbox" hx-swap="outerHTML"></div>`)

		b.WriteString(`<figure class="lightbox-figure" hx-post="/ui/viewer/image" hx-trigger="click" hx-swap="none">`)
		if doc.OverlaySrc != "" {
			fmt.Fprintf(b, `<img id="lightboxImg" src="%s" alt="%s"`, attr(doc.OverlaySrc), attr(doc.OverlayAlt))
			if snap.Armed {
				fmt.Fprintf(b, ` onerror="%s"`, attr(report(viewerErrorURL(snap.Gen, doc.OverlaySrc), "#lightbox")))
			}
			b.WriteString(`>`)
		}
		b.WriteString(`</figure>`)

		writeButton(b, "lightbox-close", "/ui/viewer/close", msgs.Close, "&times;")
		if snap.Navigable {
			writeButton(b, "lightbox-prev", "/ui/viewer/prev", msgs.Prev, "&#8249;")
			writeButton(b, "lightbox-next", "/ui/viewer/next", msgs.Next, "&#8250;")
		}
		b.WriteString(`</div>`)
		writeScrollLock(b, doc.ScrollLocked, true)
	})
}

func writeButton(b *strings.Builder, class, action, label, glyph string) {
	fmt.Fprintf(b, `<button type="button" class="%s" aria-label="%s" hx-post="%s" hx-target="#lightbox" hx-swap="outerHTML">%s</button>`,
		class, attr(label), action, glyph)
}

func writeClosedOverlay(b *strings.Builder) {
	b.WriteString(`<div id="lightbox" class="lightbox" aria-hidden="true"></div>`)
}

func writeScrollLock(b *strings.Builder, locked, oob bool) {
	b.WriteString(`<style id="scroll-lock"`)
	if oob {
		b.WriteString(` hx-swap-oob="true"`)
	}
	b.WriteString(`>`)
	if locked {
		b.WriteString(`body{overflow:hidden}`)
	}
	b.WriteString(`</style>`)
}
