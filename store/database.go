// Package store database for photo descriptors and settings
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrPhotoNotFound is returned when no row matches the photo name.
var ErrPhotoNotFound = errors.New("photo not found")

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{db: db}

	if err := database.createTable(); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return database, nil
}

func (d *Database) createTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS photos (
		name      TEXT NOT NULL PRIMARY KEY,
		thumb_url TEXT NOT NULL DEFAULT '',
		full_url  TEXT NOT NULL DEFAULT '',
		alt       TEXT NOT NULL DEFAULT '',
		title     TEXT NOT NULL DEFAULT '',
		"order"   INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_photos_order ON photos("order");
	CREATE TABLE IF NOT EXISTS app_settings (
		singleton  INTEGER NOT NULL DEFAULT 1 CHECK (singleton = 1),
		locale     TEXT NOT NULL,
		cache_bust INTEGER NOT NULL,
		PRIMARY KEY (singleton)
	);
	`
	_, err := d.db.Exec(query)
	return err
}

const photoColumns = `name, thumb_url, full_url, alt, title, "order"`

func scanPhoto(row interface{ Scan(...any) error }) (Photo, error) {
	var p Photo
	err := row.Scan(&p.Name, &p.Thumb, &p.Full, &p.Alt, &p.Title, &p.Order)
	return p, err
}

func (d *Database) InsertPhoto(p Photo) error {
	query := `INSERT INTO photos (` + photoColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := d.db.Exec(query, p.Name, p.Thumb, p.Full, p.Alt, p.Title, p.Order)
	if err != nil {
		return fmt.Errorf("failed to insert photo: %w", err)
	}
	return nil
}

// UpdatePhotoMeta rewrites the urls and text of an existing photo, keeping
// its order.
func (d *Database) UpdatePhotoMeta(p Photo) error {
	query := `UPDATE photos SET thumb_url = ?, full_url = ?, alt = ?, title = ? WHERE name = ?`
	result, err := d.db.Exec(query, p.Thumb, p.Full, p.Alt, p.Title, p.Name)
	if err != nil {
		return fmt.Errorf("failed to update photo: %w", err)
	}
	return requireRow(result, p.Name)
}

func (d *Database) queryPhotos(query string, args ...any) ([]Photo, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return photos, nil
}

func (d *Database) GetPhotos(limit int, offset int) ([]Photo, error) {
	query := `
		SELECT ` + photoColumns + `
		FROM photos
		ORDER BY "order" ASC
		LIMIT ? OFFSET ?
	`
	return d.queryPhotos(query, limit, offset)
}

// GetAllPhotos returns every photo in manifest order.
func (d *Database) GetAllPhotos() ([]Photo, error) {
	query := `
		SELECT ` + photoColumns + `
		FROM photos
		ORDER BY "order" ASC
	`
	return d.queryPhotos(query)
}

func (d *Database) GetPhoto(name string) (*Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE name = ?`
	p, err := scanPhoto(d.db.QueryRow(query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPhotoNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return &p, nil
}

func (d *Database) GetPhotoCount() (int, error) {
	query := `SELECT COUNT(*) FROM photos`
	var count int
	err := d.db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get photo count: %w", err)
	}
	return count, nil
}

// DeletePhoto removes the photo and closes the gap it leaves in the order.
func (d *Database) DeletePhoto(name string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	var order int
	err = tx.QueryRow(`SELECT "order" FROM photos WHERE name = ?`, name).Scan(&order)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrPhotoNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM photos WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	if _, err := tx.Exec(`UPDATE photos SET "order" = "order" - 1 WHERE "order" > ?`, order); err != nil {
		return fmt.Errorf("failed to compact order: %w", err)
	}

	return tx.Commit()
}

// GetMaxOrder returns the order the next inserted photo should get.
func (d *Database) GetMaxOrder() (int, error) {
	query := `SELECT COALESCE(MAX("order"), -1) FROM photos`
	var maxOrder int
	err := d.db.QueryRow(query).Scan(&maxOrder)
	if err != nil {
		return 0, fmt.Errorf("failed to get max order: %w", err)
	}
	return maxOrder + 1, nil
}

func (d *Database) PhotoExists(name string) (bool, error) {
	query := `SELECT COUNT(*) FROM photos WHERE name = ?`
	var count int
	err := d.db.QueryRow(query, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check photo existence: %w", err)
	}
	return count > 0, nil
}

// UpdatePhotoOrder moves a photo to newOrder and shifts the photos between
// its old and new position by one.
func (d *Database) UpdatePhotoOrder(name string, newOrder int) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin reorder: %w", err)
	}
	defer tx.Rollback()

	var oldOrder int
	err = tx.QueryRow(`SELECT "order" FROM photos WHERE name = ?`, name).Scan(&oldOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrPhotoNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to read photo order: %w", err)
	}

	switch {
	case newOrder < oldOrder:
		_, err = tx.Exec(`UPDATE photos SET "order" = "order" + 1 WHERE "order" >= ? AND "order" < ?`, newOrder, oldOrder)
	case newOrder > oldOrder:
		_, err = tx.Exec(`UPDATE photos SET "order" = "order" - 1 WHERE "order" > ? AND "order" <= ?`, oldOrder, newOrder)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to shift photo order: %w", err)
	}

	if _, err := tx.Exec(`UPDATE photos SET "order" = ? WHERE name = ?`, newOrder, name); err != nil {
		return fmt.Errorf("failed to update photo order: %w", err)
	}

	return tx.Commit()
}

func (d *Database) GetAppSettings() (*AppSettings, error) {
	const query = `
		SELECT locale,
		       cache_bust
		FROM app_settings
		WHERE singleton = 1
	`

	var locale string
	var cacheBustInt int

	err := d.db.QueryRow(query).Scan(&locale, &cacheBustInt)
	if errors.Is(err, sql.ErrNoRows) {
		// Bootstrap defaults if no settings row exists yet
		defaults := DefaultAppSettings()
		if err := d.UpsertAppSettings(defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get app settings: %w", err)
	}

	return &AppSettings{
		Locale:    locale,
		CacheBust: cacheBustInt != 0,
	}, nil
}

// DefaultAppSettings leaves the locale empty so the server's configured
// locale applies.
func DefaultAppSettings() *AppSettings {
	return &AppSettings{
		Locale:    "",
		CacheBust: true,
	}
}

func (d *Database) UpsertAppSettings(s *AppSettings) error {
	const stmt = `
		INSERT INTO app_settings (
			singleton,
			locale,
			cache_bust
		) VALUES (1, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			locale     = excluded.locale,
			cache_bust = excluded.cache_bust
	`

	_, err := d.db.Exec(
		stmt,
		s.Locale,
		boolToInt(s.CacheBust),
	)
	if err != nil {
		return fmt.Errorf("upsert app settings: %w", err)
	}
	return nil
}

func requireRow(result sql.Result, name string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrPhotoNotFound, name)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (d *Database) Close() error {
	return d.db.Close()
}
