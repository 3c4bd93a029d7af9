package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"

	"genv-studio/internal/domain/model"
	"genv-studio/internal/domain/ports/adapter"
)

var _ adapter.BlobStorage = (*GCS)(nil)

// GCS stores uploaded images and serves signed download URLs for objects on
// Google Cloud Storage, including the videos Veo writes to the output
// bucket. Signing uses the ambient service account credentials.
type GCS struct {
	client *gcs.Client
	bucket string
}

func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCS{client: c, bucket: bucket}, nil
}

func (g *GCS) Close() error { return g.client.Close() }

// Upload writes the object into the configured bucket and returns its
// gs:// URI.
func (g *GCS) Upload(ctx context.Context, object, contentType string, r io.Reader) (string, error) {
	w := g.client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %q: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object %q: %w", object, err)
	}
	return "gs://" + g.bucket + "/" + object, nil
}

// SignedURL returns a time-limited GET URL for any gs:// URI, not only ones
// in the configured bucket (Veo may write to a separate output bucket).
func (g *GCS) SignedURL(ctx context.Context, uri string, ttl time.Duration) (string, error) {
	bucket, object, err := model.ParseGCSURI(uri)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return g.client.Bucket(bucket).SignedURL(object, &gcs.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
		Scheme:  gcs.SigningSchemeV4,
	})
}

func (g *GCS) Delete(ctx context.Context, uri string) error {
	bucket, object, err := model.ParseGCSURI(uri)
	if err != nil {
		return err
	}
	return g.client.Bucket(bucket).Object(object).Delete(ctx)
}

// Download reads an object's full contents.
func (g *GCS) Download(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := model.ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	r, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object %q: %w", object, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}
