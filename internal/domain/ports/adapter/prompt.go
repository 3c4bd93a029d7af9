package adapter

import "context"

// PromptAdapter suggests a video-generation prompt from a reference image
// and an optional user hint.
type PromptAdapter interface {
	SuggestPrompt(ctx context.Context, imageBytes []byte, mimeType, hint string) (string, error)
}
