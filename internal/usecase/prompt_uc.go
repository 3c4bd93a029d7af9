package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"genv-studio/internal/domain"
	"genv-studio/internal/domain/ports/adapter"
)

// Compile-time check
var _ PromptUseCase = (*promptUC)(nil)

// PromptUseCase turns an uploaded reference image into a suggested video
// generation prompt.
type PromptUseCase interface {
	SuggestFromImage(ctx context.Context, imageID, hint string) (string, error)
}

type promptUC struct {
	assets AssetUseCase
	blobs  blobReader
	prompt adapter.PromptAdapter
	log    *zerolog.Logger
}

// blobReader is the download slice of the blob storage port.
type blobReader interface {
	Download(ctx context.Context, uri string) ([]byte, error)
}

func NewPromptUseCase(assets AssetUseCase, blobs blobReader, prompt adapter.PromptAdapter, logger *zerolog.Logger) *promptUC {
	l := logger.With().Str("component", "PromptUC").Logger()
	return &promptUC{assets: assets, blobs: blobs, prompt: prompt, log: &l}
}

func (p *promptUC) SuggestFromImage(ctx context.Context, imageID, hint string) (string, error) {
	if p.prompt == nil {
		return "", domain.ErrInvalidArgument
	}
	img, err := p.assets.GetImage(ctx, imageID)
	if err != nil {
		return "", err
	}
	data, err := p.blobs.Download(ctx, img.URI)
	if err != nil {
		return "", err
	}

	suggestion, err := p.prompt.SuggestPrompt(ctx, data, img.MimeType, hint)
	if err != nil {
		return "", err
	}
	suggestion = strings.TrimSpace(suggestion)
	if suggestion == "" {
		return "", domain.ErrNotFound
	}
	p.log.Debug().Str("image_id", imageID).Msg("prompt suggested")
	return suggestion, nil
}
