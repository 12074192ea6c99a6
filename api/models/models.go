// Package models tracks all api models for request and responses
package models

import "github.com/aouyang1/photogallery/store"

type UploadResponse struct {
	Name    string `json:"name"`
	Order   int    `json:"order"`
	Message string `json:"message"`
}

type PhotoListResponse struct {
	Photos []store.Photo `json:"photos"`
	Total  int           `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

type ReorderRequest struct {
	NewOrder int `json:"new_order"`
}

// RegisterPhotoRequest registers a descriptor under name. Thumb and Full
// are urls as they appear in the manifest; at least one is required.
type RegisterPhotoRequest struct {
	Name  string `json:"name"`
	Thumb string `json:"thumb,omitempty"`
	Full  string `json:"full,omitempty"`
	Alt   string `json:"alt,omitempty"`
	Title string `json:"title,omitempty"`
}

type RegisterPhotoResponse struct {
	Name    string `json:"name"`
	Order   int    `json:"order"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
