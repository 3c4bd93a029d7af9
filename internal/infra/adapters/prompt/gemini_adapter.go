package prompt

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"genv-studio/internal/config"
	"genv-studio/internal/domain/ports/adapter"
)

var _ adapter.PromptAdapter = (*GeminiAdapter)(nil)

const suggestInstruction = "Look at this image and write a single vivid prompt for a short " +
	"video generation model. Describe subject, motion, and camera work in one paragraph. " +
	"Return only the prompt text."

// GeminiAdapter suggests video prompts by sending the reference image to a
// Gemini multimodal model.
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

func NewGeminiAdapter(ctx context.Context, cfg config.VeoConfig, model string) (*GeminiAdapter, error) {
	cc := &genai.ClientConfig{}
	switch {
	case cfg.APIKey != "":
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	case cfg.Project != "":
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Location
	default:
		return nil, errors.New("gemini prompt: neither api key nor project configured")
	}
	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, model: model}, nil
}

func (g *GeminiAdapter) SuggestPrompt(ctx context.Context, imageBytes []byte, mimeType, hint string) (string, error) {
	instruction := suggestInstruction
	if strings.TrimSpace(hint) != "" {
		instruction += " Style guidance from the user: " + hint
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{Data: imageBytes, MIMEType: mimeType}},
			{Text: instruction},
		},
	}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini prompt: empty response")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
