package prompt

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkoukk/tiktoken-go"

	"genv-studio/internal/domain/ports/adapter"
)

var _ adapter.PromptAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter suggests video prompts via the Chat Completions API with an
// image attachment. maxTokens caps the instruction size; requests whose
// text alone exceeds the budget are rejected before any network call.
type OpenAIAdapter struct {
	client    openai.Client
	model     string
	maxTokens int
}

func NewOpenAIAdapter(apiKey, model string, maxTokens int) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai prompt: empty api key")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &OpenAIAdapter{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (o *OpenAIAdapter) SuggestPrompt(ctx context.Context, imageBytes []byte, mimeType, hint string) (string, error) {
	instruction := suggestInstruction
	if hint != "" {
		instruction += " Style guidance from the user: " + hint
	}
	if n, err := o.countTokens(instruction); err == nil && n > o.maxTokens {
		return "", fmt.Errorf("openai prompt: instruction exceeds %d token budget", o.maxTokens)
	}

	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(imageBytes)

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(instruction),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai prompt: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// countTokens estimates the token footprint of text for the configured
// model, falling back to a generic encoding for unknown models.
func (o *OpenAIAdapter) countTokens(text string) (int, error) {
	enc, err := tiktoken.EncodingForModel(o.model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0, err
		}
	}
	return len(enc.Encode(text, nil, nil)), nil
}
