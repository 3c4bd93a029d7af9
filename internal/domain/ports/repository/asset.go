package repository

import (
	"context"
	"time"

	"genv-studio/internal/domain/model"
)

// AssetRepository persists media asset metadata. Binary payloads live in
// blob storage; only references and descriptors are stored here.
type AssetRepository interface {
	SaveImage(ctx context.Context, img *model.ImageAsset) error
	FindImage(ctx context.Context, id string) (*model.ImageAsset, error)
	ListImages(ctx context.Context, sessionID string) ([]*model.ImageAsset, error)
	DeleteImage(ctx context.Context, id string) error

	SaveVideo(ctx context.Context, v *model.VideoAsset) error
	ListVideos(ctx context.Context, sessionID string) ([]*model.VideoAsset, error)

	// PruneOlderThan removes assets created before the cutoff and returns
	// how many rows were deleted.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
