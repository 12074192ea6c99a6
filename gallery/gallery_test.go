package gallery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	photos []Photo
	err    error
	calls  int
}

func (f *fakeSource) FetchManifest(context.Context) ([]Photo, error) {
	f.calls++
	return f.photos, f.err
}

type fakePage struct {
	cards    []*Card
	clears   int
	hint     string
	hintShow bool
	open     bool
	src      string
	alt      string
	locked   bool
}

func (p *fakePage) Clear() { p.cards = nil; p.clears++ }
func (p *fakePage) Append(card *Card) { p.cards = append(p.cards, card) }
func (p *fakePage) Show(msg string) { p.hint = msg; p.hintShow = true }
func (p *fakePage) Hide() { p.hintShow = false }
func (p *fakePage) Lock() { p.locked = true }
func (p *fakePage) Unlock() { p.locked = false }
func (p *fakePage) view() View { return View{Grid: p, Hint: p, Overlay: (*overlay)(p), Scroll: p} }
func (p *fakePage) setImage(s, a string) { p.src = s; p.alt = a }

type overlay fakePage

func (o *overlay) Show() { o.open = true }
func (o *overlay) Hide() { o.open = false }
func (o *overlay) SetImage(src, alt string) { (*fakePage)(o).setImage(src, alt) }

func photosN(n int) []Photo {
	out := make([]Photo, n)
	for i := range out {
		out[i] = Photo{Thumb: "t" + string(rune('a'+i)) + ".jpg", Full: "f" + string(rune('a'+i)) + ".jpg"}
	}
	return out
}

func loaded(t *testing.T, photos []Photo) (*Controller, *fakePage) {
	t.Helper()
	page := &fakePage{}
	c := New(&fakeSource{photos: photos}, page.view())
	c.Load(context.Background())
	require.Equal(t, len(photos), c.Len())
	return c, page
}

func TestNextThenPrevReturnsToStart(t *testing.T) {
	for n := 1; n <= 6; n++ {
		c, _ := loaded(t, photosN(n))
		for i := 0; i < n; i++ {
			require.NoError(t, c.Open(i))
			c.Next()
			c.Prev()
			assert.Equal(t, i, c.Snapshot().Index, "n=%d i=%d", n, i)
		}
	}
}

func TestWraparound(t *testing.T) {
	c, page := loaded(t, photosN(4))

	require.NoError(t, c.Open(3))
	c.Next()
	assert.Equal(t, 0, c.Snapshot().Index)
	assert.Equal(t, "/fa.jpg", page.src)

	c.Prev()
	assert.Equal(t, 3, c.Snapshot().Index)
	assert.Equal(t, "/fd.jpg", page.src)
}

func TestCloseResetsState(t *testing.T) {
	c, page := loaded(t, photosN(3))
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Open(i))
		assert.True(t, page.open)
		assert.True(t, page.locked)

		c.Close()
		s := c.Snapshot()
		assert.False(t, s.Open)
		assert.Equal(t, Closed, s.Index)
		assert.Equal(t, "", page.src)
		assert.False(t, page.open)
		assert.False(t, page.locked)
	}

	c.Close()
	assert.Equal(t, Closed, c.Snapshot().Index)
}

func TestNavigationIgnoredWhileClosed(t *testing.T) {
	c, page := loaded(t, photosN(3))

	c.Next()
	c.Prev()
	assert.False(t, c.HandleKey("ArrowRight"))
	assert.False(t, c.HandleKey("Escape"))
	assert.False(t, c.ClickOverlay(TargetBackdrop))
	assert.Equal(t, Closed, c.Snapshot().Index)
	assert.False(t, page.open)
}

func TestOpenOutOfRange(t *testing.T) {
	c, _ := loaded(t, photosN(2))

	for _, i := range []int{-1, 2, 10} {
		err := c.Open(i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	}
	assert.Equal(t, Closed, c.Snapshot().Index)
}

func TestKeyboard(t *testing.T) {
	c, _ := loaded(t, photosN(3))
	require.NoError(t, c.Open(1))

	assert.True(t, c.HandleKey("ArrowRight"))
	assert.Equal(t, 2, c.Snapshot().Index)
	assert.True(t, c.HandleKey("ArrowLeft"))
	assert.Equal(t, 1, c.Snapshot().Index)
	assert.False(t, c.HandleKey("a"))
	assert.Equal(t, 1, c.Snapshot().Index)
	assert.True(t, c.HandleKey("Escape"))
	assert.False(t, c.Snapshot().Open)
}

func TestClickOverlay(t *testing.T) {
	c, _ := loaded(t, photosN(2))
	require.NoError(t, c.Open(0))

	assert.False(t, c.ClickOverlay(TargetImage))
	assert.True(t, c.Snapshot().Open)
	assert.False(t, c.ClickOverlay(TargetControl))
	assert.True(t, c.Snapshot().Open)
	assert.True(t, c.ClickOverlay(TargetBackdrop))
	assert.False(t, c.Snapshot().Open)
}

func TestCardActivation(t *testing.T) {
	c, _ := loaded(t, photosN(3))

	ok, err := c.CardKey(2, "x")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, c.Snapshot().Open)

	ok, err = c.CardKey(2, "Enter")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, c.Snapshot().Index)

	c.Close()
	ok, err = c.CardKey(1, " ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, c.Snapshot().Index)

	require.NoError(t, c.Activate(0))
	assert.Equal(t, 0, c.Snapshot().Index)
}

func TestLoadFailures(t *testing.T) {
	tests := []struct {
		name   string
		source *fakeSource
		hint   string
	}{
		{name: "empty", source: &fakeSource{photos: []Photo{}}, hint: "Nu s-au găsit fotografii."},
		{name: "only invalid", source: &fakeSource{photos: []Photo{{Alt: "x"}}}, hint: "Nu s-au găsit fotografii."},
		{name: "not an array", source: &fakeSource{err: fmt.Errorf("manifest is not an array: %w", ErrEmptyManifest)}, hint: "Nu s-au găsit fotografii."},
		{name: "error", source: &fakeSource{err: errors.New("boom")}, hint: "Eroare la încărcarea galeriei."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &fakePage{}
			c := New(tt.source, page.view())
			c.Load(context.Background())

			assert.Empty(t, page.cards)
			assert.True(t, page.hintShow)
			assert.Equal(t, tt.hint, page.hint)
			assert.Equal(t, 0, c.Len())
			assert.ErrorIs(t, c.Open(0), ErrIndexOutOfRange)
		})
	}
}

func TestReloadClearsGrid(t *testing.T) {
	page := &fakePage{}
	src := &fakeSource{photos: photosN(3)}
	c := New(src, page.view())

	c.Load(context.Background())
	require.NoError(t, c.Open(2))
	c.Load(context.Background())

	assert.Len(t, page.cards, 3)
	assert.Equal(t, 2, page.clears)
	assert.False(t, page.hintShow)
	assert.False(t, c.Snapshot().Open)
}

func TestThumbOnlyManifest(t *testing.T) {
	c, page := loaded(t, []Photo{{Thumb: "a.jpg"}})

	require.Len(t, page.cards, 1)
	assert.Equal(t, "/a.jpg", page.cards[0].Src())

	require.NoError(t, c.Open(0))
	assert.Equal(t, "/a.jpg", page.src)
	assert.Equal(t, "/a.jpg", c.Snapshot().Src)
}

func TestCardFallbackExhausted(t *testing.T) {
	c, _ := loaded(t, []Photo{{Full: "a.jpg"}})

	card, err := c.CardImageFailed(0, "/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/a.webp", card.Src())
	assert.False(t, card.Loaded())

	card, err = c.CardImageFailed(0, "/a.webp")
	require.NoError(t, err)
	assert.True(t, card.Loaded())
	assert.True(t, card.Hidden())
	assert.Equal(t, "", card.Src())

	st, err := c.CardState(0)
	require.NoError(t, err)
	assert.False(t, st.Armed)

	// no further attempts
	card, _ = c.CardImageFailed(0, "/a.webp")
	assert.Equal(t, "", card.Src())
}

func TestCardImageIndexOutOfRange(t *testing.T) {
	c, _ := loaded(t, photosN(1))
	_, err := c.CardImageFailed(5, "/x.jpg")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestViewerFallbackIgnoresStaleReports(t *testing.T) {
	c, page := loaded(t, photosN(2))

	require.NoError(t, c.Open(0))
	first := c.Snapshot().Gen
	c.Next()
	gen := c.Snapshot().Gen
	assert.False(t, c.ViewerImageFailed(first, "/fa.jpg"))
	assert.False(t, c.ViewerImageFailed(gen, "/fa.jpg"))
	assert.Equal(t, "/fb.jpg", page.src)

	assert.True(t, c.ViewerImageFailed(gen, "/fb.jpg"))
	assert.Equal(t, "/fb.webp", page.src)

	assert.True(t, c.ViewerImageFailed(gen, "/fb.webp"))
	assert.Equal(t, "", c.Snapshot().Src)
	assert.False(t, c.ViewerImageFailed(gen, "/fb.webp"))
}

func TestViewerFallbackIgnoresEarlierShowingOfSameURL(t *testing.T) {
	c, page := loaded(t, photosN(1))

	require.NoError(t, c.Open(0))
	first := c.Snapshot().Gen
	c.Next()
	gen := c.Snapshot().Gen
	require.NotEqual(t, first, gen)

	// the previous showing's error arrives after wrapping back to the same photo
	assert.False(t, c.ViewerImageFailed(first, "/fa.jpg"))
	assert.Equal(t, "/fa.jpg", page.src)
	assert.True(t, c.Snapshot().Armed)

	assert.True(t, c.ViewerImageFailed(gen, "/fa.jpg"))
	assert.Equal(t, "/fa.webp", page.src)
}

func TestViewerImageLoaded(t *testing.T) {
	c, _ := loaded(t, photosN(1))
	require.NoError(t, c.Open(0))
	gen := c.Snapshot().Gen
	assert.False(t, c.ViewerImageLoaded(gen, "/other.jpg"))
	assert.False(t, c.ViewerImageLoaded(gen+1, "/fa.jpg"))
	assert.True(t, c.ViewerImageLoaded(gen, "/fa.jpg"))
	assert.False(t, c.ViewerImageFailed(gen, "/fa.jpg"))
}

func TestNoGridIsNoop(t *testing.T) {
	src := &fakeSource{photos: photosN(2)}
	c := New(src, View{})

	c.Load(context.Background())
	assert.Equal(t, 0, src.calls)
	assert.NoError(t, c.Open(0))
	c.Next()
	assert.False(t, c.HandleKey("Escape"))
	assert.False(t, c.Snapshot().Open)
}

func TestMessagesOption(t *testing.T) {
	page := &fakePage{}
	c := New(&fakeSource{photos: nil}, page.view(), WithMessages(MessagesFor("en-US,en;q=0.9", "ro")))
	c.Load(context.Background())
	assert.Equal(t, "No photos found.", page.hint)
}
