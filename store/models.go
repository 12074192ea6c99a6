package store

import "github.com/aouyang1/photogallery/gallery"

// Photo is a registered library photo. Name is the file name under the
// photos directory and identifies the row.
type Photo struct {
	Name  string `json:"name"`
	Thumb string `json:"thumb,omitempty"`
	Full  string `json:"full,omitempty"`
	Alt   string `json:"alt,omitempty"`
	Title string `json:"title,omitempty"`
	Order int    `json:"order"`
}

// Descriptor is the manifest entry for the photo.
func (p Photo) Descriptor() gallery.Photo {
	return gallery.Photo{
		Thumb: p.Thumb,
		Full:  p.Full,
		Alt:   p.Alt,
		Title: p.Title,
	}
}

// AppSettings are the runtime settings. An empty Locale means the server
// default.
type AppSettings struct {
	Locale    string `json:"locale"`
	CacheBust bool   `json:"cache_bust"`
}
