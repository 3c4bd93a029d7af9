package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"genv-studio/internal/domain"
	"genv-studio/internal/domain/model"
	"genv-studio/internal/domain/ports/adapter"
	"genv-studio/internal/domain/ports/repository"
	"genv-studio/internal/infra/metrics"
)

// Compile-time check
var _ AssetUseCase = (*assetUC)(nil)

// UploadImageInput carries one image upload.
type UploadImageInput struct {
	Name      string
	Source    model.ImageSource
	SessionID string
	Context   string
	MimeType  string
	Data      []byte
}

// AssetUseCase manages the media asset collections: uploaded reference
// images and generated videos.
type AssetUseCase interface {
	UploadImage(ctx context.Context, in UploadImageInput) (*model.ImageAsset, error)
	GetImage(ctx context.Context, id string) (*model.ImageAsset, error)
	ListImages(ctx context.Context, sessionID string) ([]*model.ImageAsset, error)
	DeleteImage(ctx context.Context, id string) error

	RecordGeneratedVideos(ctx context.Context, snap Snapshot) (int, error)
	ListVideos(ctx context.Context, sessionID string) ([]*model.VideoAsset, error)
}

type assetUC struct {
	repo    repository.AssetRepository
	blobs   adapter.BlobStorage
	signTTL time.Duration
	log     *zerolog.Logger
}

func NewAssetUseCase(repo repository.AssetRepository, blobs adapter.BlobStorage, signTTL time.Duration, logger *zerolog.Logger) *assetUC {
	l := logger.With().Str("component", "AssetUC").Logger()
	if signTTL <= 0 {
		signTTL = 15 * time.Minute
	}
	return &assetUC{repo: repo, blobs: blobs, signTTL: signTTL, log: &l}
}

func (a *assetUC) UploadImage(ctx context.Context, in UploadImageInput) (*model.ImageAsset, error) {
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: empty image payload", domain.ErrInvalidArgument)
	}
	if !in.Source.Valid() {
		return nil, fmt.Errorf("%w: unknown image source %q", domain.ErrInvalidArgument, in.Source)
	}
	if in.MimeType == "" || !strings.HasPrefix(in.MimeType, "image/") {
		return nil, fmt.Errorf("%w: unsupported content type %q", domain.ErrInvalidArgument, in.MimeType)
	}

	id := ulid.Make().String()
	object := imageObjectName(in.SessionID, id, in.MimeType)
	uri, err := a.blobs.Upload(ctx, object, in.MimeType, bytes.NewReader(in.Data))
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	img := &model.ImageAsset{
		ID:        id,
		Name:      in.Name,
		Source:    in.Source,
		SessionID: in.SessionID,
		Context:   in.Context,
		URI:       uri,
		MimeType:  in.MimeType,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.repo.SaveImage(ctx, img); err != nil {
		// Don't leave an orphan object behind the failed row.
		if derr := a.blobs.Delete(ctx, uri); derr != nil {
			a.log.Warn().Err(derr).Str("uri", uri).Msg("orphan cleanup failed")
		}
		return nil, err
	}
	metrics.IncAssetOp("image", "upload")
	a.signImage(ctx, img)
	return img, nil
}

func (a *assetUC) GetImage(ctx context.Context, id string) (*model.ImageAsset, error) {
	img, err := a.repo.FindImage(ctx, id)
	if err != nil {
		return nil, err
	}
	a.signImage(ctx, img)
	return img, nil
}

func (a *assetUC) ListImages(ctx context.Context, sessionID string) ([]*model.ImageAsset, error) {
	imgs, err := a.repo.ListImages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, img := range imgs {
		a.signImage(ctx, img)
	}
	metrics.IncAssetOp("image", "list")
	return imgs, nil
}

func (a *assetUC) DeleteImage(ctx context.Context, id string) error {
	img, err := a.repo.FindImage(ctx, id)
	if err != nil {
		return err
	}
	if err := a.repo.DeleteImage(ctx, id); err != nil {
		return err
	}
	if err := a.blobs.Delete(ctx, img.URI); err != nil {
		a.log.Warn().Err(err).Str("uri", img.URI).Msg("blob delete failed")
	}
	metrics.IncAssetOp("image", "delete")
	return nil
}

// RecordGeneratedVideos persists the video samples of a completed snapshot
// as assets. Non-terminal or failed snapshots are ignored. Returns how many
// videos were recorded.
func (a *assetUC) RecordGeneratedVideos(ctx context.Context, snap Snapshot) (int, error) {
	if snap.Err != nil || snap.Status == nil || !snap.Status.Done {
		return 0, nil
	}
	saved := 0
	for _, v := range snap.Status.Videos {
		asset := &model.VideoAsset{
			ID:        ulid.Make().String(),
			Operation: snap.Handle,
			SessionID: snap.SessionID,
			Prompt:    snap.Prompt,
			URI:       v.URI,
			Encoding:  v.Encoding,
			CreatedAt: time.Now().UTC(),
		}
		if err := a.repo.SaveVideo(ctx, asset); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				continue // this sample was already recorded
			}
			return saved, err
		}
		saved++
	}
	if saved > 0 {
		metrics.IncAssetOp("video", "record")
	}
	return saved, nil
}

func (a *assetUC) ListVideos(ctx context.Context, sessionID string) ([]*model.VideoAsset, error) {
	vids, err := a.repo.ListVideos(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, v := range vids {
		if v.URI == "" {
			continue
		}
		signed, err := a.blobs.SignedURL(ctx, v.URI, a.signTTL)
		if err != nil {
			a.log.Warn().Err(err).Str("uri", v.URI).Msg("signing video url failed")
			continue
		}
		v.SignedURI = signed
	}
	metrics.IncAssetOp("video", "list")
	return vids, nil
}

func (a *assetUC) signImage(ctx context.Context, img *model.ImageAsset) {
	if img == nil || img.URI == "" {
		return
	}
	signed, err := a.blobs.SignedURL(ctx, img.URI, a.signTTL)
	if err != nil {
		a.log.Warn().Err(err).Str("uri", img.URI).Msg("signing image url failed")
		return
	}
	img.SignedURI = signed
}

func imageObjectName(sessionID, id, mimeType string) string {
	ext := ".img"
	switch mimeType {
	case "image/png":
		ext = ".png"
	case "image/jpeg":
		ext = ".jpg"
	case "image/webp":
		ext = ".webp"
	case "image/gif":
		ext = ".gif"
	}
	if sessionID == "" {
		return "images/global/" + id + ext
	}
	return "images/" + sessionID + "/" + id + ext
}
