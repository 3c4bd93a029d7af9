package adapter

import (
	"context"

	"genv-studio/internal/domain/model"
)

// GenerationRequest carries everything the backend needs to start a video
// generation. Image is optional; when set it seeds an image-to-video run.
type GenerationRequest struct {
	Prompt      string
	ImageBytes  []byte
	ImageGCSURI string
	MimeType    string
}

// VideoGenAdapter is the boundary to the Veo backend. RequestGeneration
// returns the opaque operation name used to poll for completion.
// FetchOperationStatus must be idempotent; it is called repeatedly for the
// same handle.
type VideoGenAdapter interface {
	RequestGeneration(ctx context.Context, req GenerationRequest) (string, error)
	FetchOperationStatus(ctx context.Context, handle string) (*model.OperationStatus, error)
}
