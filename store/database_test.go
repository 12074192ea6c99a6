package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "photos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func insertNames(t *testing.T, db *Database, names ...string) {
	t.Helper()
	for _, name := range names {
		order, err := db.GetMaxOrder()
		require.NoError(t, err)
		require.NoError(t, db.InsertPhoto(Photo{Name: name, Full: "photos/" + name, Order: order}))
	}
}

func names(photos []Photo) []string {
	out := make([]string, len(photos))
	for i, p := range photos {
		out[i] = p.Name
	}
	return out
}

func TestInsertAndList(t *testing.T) {
	db := newTestDB(t)
	insertNames(t, db, "a.jpg", "b.jpg", "c.jpg")

	all, err := db.GetAllPhotos()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, names(all))
	assert.Equal(t, "photos/a.jpg", all[0].Descriptor().Full)

	page, err := db.GetPhotos(2, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.jpg", "c.jpg"}, names(page))

	count, err := db.GetPhotoCount()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	exists, err := db.PhotoExists("b.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Error(t, db.InsertPhoto(Photo{Name: "a.jpg"}), "duplicate name")
}

func TestDeleteCompactsOrder(t *testing.T) {
	db := newTestDB(t)
	insertNames(t, db, "a.jpg", "b.jpg", "c.jpg")

	require.NoError(t, db.DeletePhoto("a.jpg"))
	assert.ErrorIs(t, db.DeletePhoto("a.jpg"), ErrPhotoNotFound)

	all, err := db.GetAllPhotos()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 0, all[0].Order)
	assert.Equal(t, 1, all[1].Order)

	next, err := db.GetMaxOrder()
	require.NoError(t, err)
	assert.Equal(t, 2, next)
}

func TestUpdatePhotoOrder(t *testing.T) {
	db := newTestDB(t)
	insertNames(t, db, "a.jpg", "b.jpg", "c.jpg", "d.jpg")

	require.NoError(t, db.UpdatePhotoOrder("d.jpg", 0))
	all, err := db.GetAllPhotos()
	require.NoError(t, err)
	assert.Equal(t, []string{"d.jpg", "a.jpg", "b.jpg", "c.jpg"}, names(all))

	require.NoError(t, db.UpdatePhotoOrder("d.jpg", 2))
	all, err = db.GetAllPhotos()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg", "d.jpg", "c.jpg"}, names(all))

	assert.ErrorIs(t, db.UpdatePhotoOrder("zzz.jpg", 0), ErrPhotoNotFound)
}

func TestUpdatePhotoMeta(t *testing.T) {
	db := newTestDB(t)
	insertNames(t, db, "a.jpg")

	require.NoError(t, db.UpdatePhotoMeta(Photo{Name: "a.jpg", Thumb: "thumbs/a.jpg", Full: "photos/a.jpg", Alt: "sea"}))
	p, err := db.GetPhoto("a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "thumbs/a.jpg", p.Thumb)
	assert.Equal(t, "sea", p.Alt)
	assert.Equal(t, 0, p.Order)

	assert.ErrorIs(t, db.UpdatePhotoMeta(Photo{Name: "nope.jpg"}), ErrPhotoNotFound)
	_, err = db.GetPhoto("nope.jpg")
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestAppSettings(t *testing.T) {
	db := newTestDB(t)

	settings, err := db.GetAppSettings()
	require.NoError(t, err)
	assert.Equal(t, DefaultAppSettings(), settings)
	assert.Empty(t, settings.Locale)
	assert.True(t, settings.CacheBust)

	require.NoError(t, db.UpsertAppSettings(&AppSettings{Locale: "en", CacheBust: false}))
	settings, err = db.GetAppSettings()
	require.NoError(t, err)
	assert.Equal(t, "en", settings.Locale)
	assert.False(t, settings.CacheBust)
}
