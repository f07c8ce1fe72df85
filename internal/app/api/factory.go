package api

import (
	"context"

	"podforge/internal/app/api/gemini"
	"podforge/internal/app/api/openai"
	"podforge/internal/app/api/provider"
	apperrors "podforge/internal/app/errors"
	"podforge/internal/config"
)

// NewProvider constructs the AI provider variant selected by kind. The
// variant set is closed; callers resolve the kind from configuration via
// provider.KindFromString before getting here.
func NewProvider(ctx context.Context, kind provider.Kind, apiKeys *config.APIKeys) (provider.Provider, error) {
	switch kind {
	case provider.KindGemini:
		return gemini.NewGeminiProvider(ctx, apiKeys.Gemini)
	case provider.KindOpenAI:
		return openai.NewOpenAIProvider(apiKeys.OpenAI)
	default:
		return nil, apperrors.ErrProviderNotFound
	}
}
