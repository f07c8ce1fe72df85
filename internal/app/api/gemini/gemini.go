package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"podforge/internal/app/api/provider"
	apperrors "podforge/internal/app/errors"
)

const (
	defaultTextModel  = "gemini-2.0-flash"
	defaultImageModel = "gemini-2.0-flash-preview-image-generation"
)

// GeminiProvider implements provider.Provider using the Gemini API
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a Gemini-backed provider
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, apperrors.ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

// GenerateText runs a text completion with sampling options
func (p *GeminiProvider) GenerateText(ctx context.Context, request *provider.TextRequest) (*provider.TextResponse, error) {
	model := request.Model
	if model == "" {
		model = defaultTextModel
	}

	config := &genai.GenerateContentConfig{}
	if request.Temperature > 0 {
		config.Temperature = genai.Ptr(request.Temperature)
	}
	if request.MaxTokens > 0 {
		config.MaxOutputTokens = int32(request.MaxTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(request.Prompt), config)
	if err != nil {
		return nil, fmt.Errorf("gemini text generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, apperrors.ErrEmptyCompletion
	}

	return &provider.TextResponse{Text: text}, nil
}

// GenerateImage produces binary image data for a visual description
func (p *GeminiProvider) GenerateImage(ctx context.Context, request *provider.ImageRequest) (*provider.ImageResponse, error) {
	model := request.Model
	if model == "" {
		model = defaultImageModel
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(request.Prompt), config)
	if err != nil {
		return nil, fmt.Errorf("gemini image generation failed: %w", err)
	}

	response := &provider.ImageResponse{GeneratedFromPrompt: request.Prompt}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return response, nil
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			response.ImageData = part.InlineData.Data
			response.MimeType = part.InlineData.MIMEType
			break
		}
	}
	if response.MimeType == "" {
		response.MimeType = "image/png"
	}

	return response, nil
}
