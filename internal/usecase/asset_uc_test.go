package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"genv-studio/internal/domain"
	"genv-studio/internal/domain/model"
)

// ---------------- in-memory fakes ----------------

type memAssetRepo struct {
	mu     sync.Mutex
	images map[string]*model.ImageAsset
	videos map[string]*model.VideoAsset

	errSaveVideo error
}

func newMemAssetRepo() *memAssetRepo {
	return &memAssetRepo{images: map[string]*model.ImageAsset{}, videos: map[string]*model.VideoAsset{}}
}

func (m *memAssetRepo) SaveImage(ctx context.Context, img *model.ImageAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *img
	m.images[img.ID] = &cp
	return nil
}

func (m *memAssetRepo) FindImage(ctx context.Context, id string) (*model.ImageAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *img
	return &cp, nil
}

func (m *memAssetRepo) ListImages(ctx context.Context, sessionID string) ([]*model.ImageAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ImageAsset
	for _, img := range m.images {
		if sessionID == "" || img.SessionID == sessionID {
			cp := *img
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memAssetRepo) DeleteImage(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.images[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.images, id)
	return nil
}

func (m *memAssetRepo) SaveVideo(ctx context.Context, v *model.VideoAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errSaveVideo != nil {
		return m.errSaveVideo
	}
	cp := *v
	m.videos[v.ID] = &cp
	return nil
}

func (m *memAssetRepo) ListVideos(ctx context.Context, sessionID string) ([]*model.VideoAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.VideoAsset
	for _, v := range m.videos {
		if sessionID == "" || v.SessionID == sessionID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memAssetRepo) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, img := range m.images {
		if img.CreatedAt.Before(cutoff) {
			delete(m.images, id)
			n++
		}
	}
	for id, v := range m.videos {
		if v.CreatedAt.Before(cutoff) {
			delete(m.videos, id)
			n++
		}
	}
	return n, nil
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemBlobs() *memBlobs { return &memBlobs{objects: map[string][]byte{}} }

func (b *memBlobs) Upload(ctx context.Context, object, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[object] = data
	return "gs://test-bucket/" + object, nil
}

func (b *memBlobs) SignedURL(ctx context.Context, uri string, ttl time.Duration) (string, error) {
	return "https://signed.example.com/" + uri, nil
}

func (b *memBlobs) Delete(ctx context.Context, uri string) error {
	_, object, err := model.ParseGCSURI(uri)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, object)
	return nil
}

func (b *memBlobs) Download(ctx context.Context, uri string) ([]byte, error) {
	_, object, err := model.ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[object]
	if !ok {
		return nil, fmt.Errorf("object %q: %w", object, domain.ErrNotFound)
	}
	return data, nil
}

func newTestAssetUC() (*assetUC, *memAssetRepo, *memBlobs) {
	repo := newMemAssetRepo()
	blobs := newMemBlobs()
	log := zerolog.Nop()
	return NewAssetUseCase(repo, blobs, time.Minute, &log), repo, blobs
}

// ---------------- tests ----------------

func TestAssetUC_UploadAndListImages(t *testing.T) {
	t.Parallel()

	uc, _, blobs := newTestAssetUC()
	ctx := context.Background()

	img, err := uc.UploadImage(ctx, UploadImageInput{
		Name:      "hero shot",
		Source:    model.ImageSourceBrand,
		SessionID: "s1",
		MimeType:  "image/png",
		Data:      []byte("png-bytes"),
	})
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if img.ID == "" || img.URI == "" {
		t.Fatalf("expected id and uri assigned, got %+v", img)
	}
	if img.SignedURI == "" {
		t.Fatalf("expected signed url on upload response")
	}

	data, err := blobs.Download(ctx, img.URI)
	if err != nil || !bytes.Equal(data, []byte("png-bytes")) {
		t.Fatalf("blob not stored: %v", err)
	}

	imgs, err := uc.ListImages(ctx, "s1")
	if err != nil || len(imgs) != 1 {
		t.Fatalf("ListImages: %v, %d items", err, len(imgs))
	}
	if imgs[0].SignedURI == "" {
		t.Fatalf("expected signed url on listed image")
	}

	other, err := uc.ListImages(ctx, "other-session")
	if err != nil || len(other) != 0 {
		t.Fatalf("expected session scoping, got %d items", len(other))
	}
}

func TestAssetUC_UploadValidation(t *testing.T) {
	t.Parallel()

	uc, _, _ := newTestAssetUC()
	ctx := context.Background()

	cases := []UploadImageInput{
		{Source: model.ImageSourceBrand, MimeType: "image/png"},                           // empty payload
		{Source: "Nope", MimeType: "image/png", Data: []byte("x")},                        // bad source
		{Source: model.ImageSourceImagen, MimeType: "application/pdf", Data: []byte("x")}, // bad mime
		{Source: model.ImageSourceImagen, MimeType: "", Data: []byte("x")},                // no mime
	}
	for i, in := range cases {
		if _, err := uc.UploadImage(ctx, in); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("case %d: expected ErrInvalidArgument, got %v", i, err)
		}
	}
}

func TestAssetUC_DeleteImageRemovesBlob(t *testing.T) {
	t.Parallel()

	uc, _, blobs := newTestAssetUC()
	ctx := context.Background()

	img, err := uc.UploadImage(ctx, UploadImageInput{
		Source: model.ImageSourceImagen, MimeType: "image/jpeg", Data: []byte("jpg"),
	})
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}

	if err := uc.DeleteImage(ctx, img.ID); err != nil {
		t.Fatalf("DeleteImage: %v", err)
	}
	if _, err := uc.GetImage(ctx, img.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := blobs.Download(ctx, img.URI); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected blob removed, got %v", err)
	}
	if err := uc.DeleteImage(ctx, img.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestAssetUC_RecordGeneratedVideos(t *testing.T) {
	t.Parallel()

	uc, repo, _ := newTestAssetUC()
	ctx := context.Background()

	snap := Snapshot{
		Handle:    "operations/op-9",
		SessionID: "s2",
		Prompt:    "city at dusk",
		Status: &model.OperationStatus{
			Name: "operations/op-9",
			Done: true,
			Videos: []model.Video{
				{URI: "gs://bucket/videos/a.mp4", Encoding: "video/mp4"},
				{URI: "gs://bucket/videos/b.mp4", Encoding: "video/mp4"},
			},
		},
	}
	n, err := uc.RecordGeneratedVideos(ctx, snap)
	if err != nil || n != 2 {
		t.Fatalf("RecordGeneratedVideos: n=%d err=%v", n, err)
	}

	vids, err := uc.ListVideos(ctx, "s2")
	if err != nil || len(vids) != 2 {
		t.Fatalf("ListVideos: %v, %d items", err, len(vids))
	}
	for _, v := range vids {
		if v.Operation != snap.Handle || v.Prompt != snap.Prompt {
			t.Fatalf("video asset missing provenance: %+v", v)
		}
		if v.SignedURI == "" {
			t.Fatalf("expected signed url on listed video")
		}
	}

	// Non-terminal and failed snapshots are ignored.
	if n, err := uc.RecordGeneratedVideos(ctx, Snapshot{Handle: "h", Status: &model.OperationStatus{Done: false}}); err != nil || n != 0 {
		t.Fatalf("non-terminal snapshot should record nothing, n=%d err=%v", n, err)
	}
	if n, err := uc.RecordGeneratedVideos(ctx, Snapshot{Err: errors.New("failed")}); err != nil || n != 0 {
		t.Fatalf("failed snapshot should record nothing, n=%d err=%v", n, err)
	}
	_ = repo
}
