package openai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"podforge/internal/app/api/provider"
	apperrors "podforge/internal/app/errors"
)

const (
	defaultTextModel  = "gpt-4o-mini"
	defaultImageModel = "dall-e-3"
)

// OpenAIProvider implements provider.Provider using the OpenAI API
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates an OpenAI-backed provider
func NewOpenAIProvider(apiKey string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, apperrors.ErrMissingAPIKey
	}
	return &OpenAIProvider{client: openai.NewClient(apiKey)}, nil
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

// GenerateText runs a chat completion with sampling options
func (p *OpenAIProvider) GenerateText(ctx context.Context, request *provider.TextRequest) (*provider.TextResponse, error) {
	model := request.Model
	if model == "" {
		model = defaultTextModel
	}

	chatRequest := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: request.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: request.Prompt,
			},
		},
	}
	if request.MaxTokens > 0 {
		chatRequest.MaxTokens = request.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatRequest)
	if err != nil {
		return nil, fmt.Errorf("openai text generation failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, apperrors.ErrEmptyCompletion
	}

	return &provider.TextResponse{Text: resp.Choices[0].Message.Content}, nil
}

// GenerateImage produces binary image data for a visual description
func (p *OpenAIProvider) GenerateImage(ctx context.Context, request *provider.ImageRequest) (*provider.ImageResponse, error) {
	model := request.Model
	if model == "" {
		model = defaultImageModel
	}

	resp, err := p.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         request.Prompt,
		Model:          model,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("openai image generation failed: %w", err)
	}

	response := &provider.ImageResponse{
		MimeType:            "image/png",
		GeneratedFromPrompt: request.Prompt,
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return response, nil
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}
	response.ImageData = data

	return response, nil
}
