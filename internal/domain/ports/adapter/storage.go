package adapter

import (
	"context"
	"io"
	"time"
)

// BlobStorage abstracts the object store holding uploaded images and
// generated videos.
type BlobStorage interface {
	// Upload writes the object and returns its gs:// URI.
	Upload(ctx context.Context, object string, contentType string, r io.Reader) (string, error)
	// SignedURL returns a time-limited download URL for a gs:// URI.
	SignedURL(ctx context.Context, uri string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, uri string) error
}
