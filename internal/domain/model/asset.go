package model

import (
	"fmt"
	"strings"
	"time"
)

// ImageSource says where an uploaded image came from.
type ImageSource string

const (
	ImageSourceBrand  ImageSource = "Brand"
	ImageSourceImagen ImageSource = "Imagen"
)

func (s ImageSource) Valid() bool {
	return s == ImageSourceBrand || s == ImageSourceImagen
}

// ImageAsset is an uploaded reference image. SessionID is empty for global
// assets shared across sessions.
type ImageAsset struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Source    ImageSource `json:"source"`
	SessionID string      `json:"session_id,omitempty"`
	Context   string      `json:"context,omitempty"`
	URI       string      `json:"uri"`
	SignedURI string      `json:"signed_uri,omitempty"`
	MimeType  string      `json:"mime_type"`
	CreatedAt time.Time   `json:"created_at"`
}

// VideoAsset is a generated video recorded after an operation completes.
type VideoAsset struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	SessionID string    `json:"session_id,omitempty"`
	Prompt    string    `json:"prompt,omitempty"`
	URI       string    `json:"uri"`
	Encoding  string    `json:"encoding"`
	SignedURI string    `json:"signed_uri,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ParseGCSURI splits a gs://bucket/object URI into bucket and object name.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	const prefix = "gs://"
	if !strings.HasPrefix(uri, prefix) {
		return "", "", fmt.Errorf("not a gs:// uri: %q", uri)
	}
	rest := strings.TrimPrefix(uri, prefix)
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("malformed gs:// uri: %q", uri)
	}
	return bucket, object, nil
}
