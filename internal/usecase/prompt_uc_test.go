package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"genv-studio/internal/domain"
	"genv-studio/internal/domain/model"
)

type fakePromptAdapter struct {
	gotMime string
	gotHint string
	reply   string
	err     error
}

func (f *fakePromptAdapter) SuggestPrompt(ctx context.Context, imageBytes []byte, mimeType, hint string) (string, error) {
	f.gotMime, f.gotHint = mimeType, hint
	return f.reply, f.err
}

func TestPromptUC_SuggestFromImage(t *testing.T) {
	t.Parallel()

	assets, _, blobs := newTestAssetUC()
	ctx := context.Background()
	img, err := assets.UploadImage(ctx, UploadImageInput{
		Source: model.ImageSourceBrand, MimeType: "image/png", Data: []byte("png"),
	})
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}

	fp := &fakePromptAdapter{reply: "  a slow pan over the product  "}
	log := zerolog.Nop()
	uc := NewPromptUseCase(assets, blobs, fp, &log)

	got, err := uc.SuggestFromImage(ctx, img.ID, "make it cinematic")
	if err != nil {
		t.Fatalf("SuggestFromImage: %v", err)
	}
	if got != "a slow pan over the product" {
		t.Fatalf("expected trimmed suggestion, got %q", got)
	}
	if fp.gotMime != "image/png" || fp.gotHint != "make it cinematic" {
		t.Fatalf("adapter received mime=%q hint=%q", fp.gotMime, fp.gotHint)
	}
}

func TestPromptUC_UnknownImage(t *testing.T) {
	t.Parallel()

	assets, _, blobs := newTestAssetUC()
	log := zerolog.Nop()
	uc := NewPromptUseCase(assets, blobs, &fakePromptAdapter{reply: "x"}, &log)

	if _, err := uc.SuggestFromImage(context.Background(), "missing", ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPromptUC_AdapterError(t *testing.T) {
	t.Parallel()

	assets, _, blobs := newTestAssetUC()
	ctx := context.Background()
	img, err := assets.UploadImage(ctx, UploadImageInput{
		Source: model.ImageSourceImagen, MimeType: "image/jpeg", Data: []byte("jpg"),
	})
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}

	boom := errors.New("model overloaded")
	log := zerolog.Nop()
	uc := NewPromptUseCase(assets, blobs, &fakePromptAdapter{err: boom}, &log)

	if _, err := uc.SuggestFromImage(ctx, img.ID, ""); !errors.Is(err, boom) {
		t.Fatalf("expected adapter error surfaced, got %v", err)
	}
}
