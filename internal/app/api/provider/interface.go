package provider

import (
	"context"
	"fmt"
)

// Kind identifies an AI provider implementation. The set is closed:
// selection happens once at construction time, and an unknown name is an
// error rather than a silent fallback.
type Kind int

const (
	KindGemini Kind = iota
	KindOpenAI
)

// String returns the provider name
func (k Kind) String() string {
	switch k {
	case KindGemini:
		return "gemini"
	case KindOpenAI:
		return "openai"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// KindFromString parses a provider name from configuration
func KindFromString(name string) (Kind, error) {
	switch name {
	case "gemini":
		return KindGemini, nil
	case "openai":
		return KindOpenAI, nil
	default:
		return 0, fmt.Errorf("unknown provider %q (expected gemini or openai)", name)
	}
}

// TextRequest is a single text-generation call
type TextRequest struct {
	Prompt      string
	Model       string
	Temperature float32
	MaxTokens   int
}

// TextResponse holds the generated text
type TextResponse struct {
	Text string
}

// ImageRequest is a single image-generation call
type ImageRequest struct {
	Prompt string
	Model  string
}

// ImageResponse holds the generated image. ImageData is nil when the
// provider completed without producing image bytes; callers treat that as a
// soft failure, not an error.
type ImageResponse struct {
	ImageData           []byte
	MimeType            string
	GeneratedFromPrompt string
}

// Provider is the capability set the pipeline needs from an AI backend
type Provider interface {
	// GenerateText runs a text completion with sampling options
	GenerateText(ctx context.Context, request *TextRequest) (*TextResponse, error)

	// GenerateImage produces binary image data for a visual description
	GenerateImage(ctx context.Context, request *ImageRequest) (*ImageResponse, error)

	// Name returns the provider name for logging
	Name() string
}
