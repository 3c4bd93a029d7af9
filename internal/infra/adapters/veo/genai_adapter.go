package veo

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"genv-studio/internal/config"
	"genv-studio/internal/domain/model"
	"genv-studio/internal/domain/ports/adapter"
)

var _ adapter.VideoGenAdapter = (*GenAIAdapter)(nil)

// GenAIAdapter talks to Veo through the official genai SDK. Generation is a
// long-running operation; only the operation name travels back to the
// caller, status is fetched separately by name.
type GenAIAdapter struct {
	client       *genai.Client
	model        string
	outputGCSURI string
	sampleCount  int32
}

// NewGenAIAdapter builds the adapter against either the Gemini API backend
// (api_key set) or Vertex AI (project set).
func NewGenAIAdapter(ctx context.Context, cfg config.VeoConfig) (*GenAIAdapter, error) {
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
		return nil, errors.New("veo: neither api key nor project configured")
	}
	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &GenAIAdapter{
		client:       c,
		model:        cfg.Model,
		outputGCSURI: cfg.OutputGCSURI,
		sampleCount:  int32(cfg.SampleCount),
	}, nil
}

func (g *GenAIAdapter) RequestGeneration(ctx context.Context, req adapter.GenerationRequest) (string, error) {
	var image *genai.Image
	if len(req.ImageBytes) > 0 {
		image = &genai.Image{ImageBytes: req.ImageBytes, MIMEType: req.MimeType}
	} else if req.ImageGCSURI != "" {
		image = &genai.Image{GCSURI: req.ImageGCSURI, MIMEType: req.MimeType}
	}

	cfg := &genai.GenerateVideosConfig{
		NumberOfVideos: g.sampleCount,
	}
	if g.outputGCSURI != "" {
		cfg.OutputGCSURI = g.outputGCSURI
	}

	op, err := g.client.Models.GenerateVideos(ctx, g.model, req.Prompt, image, cfg)
	if err != nil {
		return "", err
	}
	if op == nil || op.Name == "" {
		return "", errors.New("veo: backend returned no operation name")
	}
	return op.Name, nil
}

func (g *GenAIAdapter) FetchOperationStatus(ctx context.Context, handle string) (*model.OperationStatus, error) {
	op, err := g.client.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: handle}, nil)
	if err != nil {
		return nil, err
	}
	if op.Error != nil {
		return nil, fmt.Errorf("veo: operation failed: %v", op.Error)
	}

	st := &model.OperationStatus{Name: op.Name, Done: op.Done}
	if st.Name == "" {
		st.Name = handle
	}
	if op.Done && op.Response != nil {
		for _, gv := range op.Response.GeneratedVideos {
			if gv == nil || gv.Video == nil {
				continue
			}
			encoding := gv.Video.MIMEType
			if encoding == "" {
				encoding = "video/mp4"
			}
			st.Videos = append(st.Videos, model.Video{URI: gv.Video.URI, Encoding: encoding})
		}
	}
	return st, nil
}
