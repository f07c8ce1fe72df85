package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"podforge/internal/app/api/provider"
	apperrors "podforge/internal/app/errors"
)

// DefaultLanguage is used when an episode carries no language setting
const DefaultLanguage = "en"

// TextOptions steers one of the two generated fields
type TextOptions struct {
	Language  string
	Style     string
	MaxLength int
}

// TitleAndSummary is the result of the combined generation call
type TitleAndSummary struct {
	Title   string
	Summary string
}

// Generator produces episode text artifacts through an AI provider. Title
// and summary come from a single provider call; the image prompt path
// degrades gracefully and never returns an error.
type Generator struct {
	provider   provider.Provider
	logger     *zap.Logger
	textModel  string
	imageModel string

	// imagePromptTemplate overrides the built-in template when set. It is
	// rendered with the summary and title context in that order.
	imagePromptTemplate string
}

// NewGenerator creates a text generator bound to one provider variant
func NewGenerator(p provider.Provider, logger *zap.Logger, textModel, imageModel, imagePromptTemplate string) *Generator {
	return &Generator{
		provider:            p,
		logger:              logger,
		textModel:           textModel,
		imageModel:          imageModel,
		imagePromptTemplate: imagePromptTemplate,
	}
}

type titleSummaryPayload struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// GenerateTitleAndSummary generates both fields in a single provider call.
// Callers needing only one field discard the other. Failures here are fatal
// to the summary stage and propagate.
func (g *Generator) GenerateTitleAndSummary(ctx context.Context, transcript string, titleOpts, summaryOpts TextOptions) (*TitleAndSummary, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, apperrors.ErrTranscriptMissing
	}

	prompt := buildTitleSummaryPrompt(transcript, titleOpts, summaryOpts)

	resp, err := g.provider.GenerateText(ctx, &provider.TextRequest{
		Prompt:      prompt,
		Model:       g.textModel,
		Temperature: 0.7,
		MaxTokens:   1024,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "title and summary generation failed")
	}

	result, err := parseTitleSummary(resp.Text)
	if err != nil {
		return nil, apperrors.Wrap(err, "title and summary generation failed")
	}
	return result, nil
}

func buildTitleSummaryPrompt(transcript string, titleOpts, summaryOpts TextOptions) string {
	titleLang := titleOpts.Language
	if titleLang == "" {
		titleLang = DefaultLanguage
	}
	summaryLang := summaryOpts.Language
	if summaryLang == "" {
		summaryLang = DefaultLanguage
	}

	var sb strings.Builder
	sb.WriteString("You are an editor for a podcast platform. Based on the episode transcript below, write a title and a summary.\n")
	fmt.Fprintf(&sb, "The title must be in language %q", titleLang)
	if titleOpts.Style != "" {
		fmt.Fprintf(&sb, ", in a %s style", titleOpts.Style)
	}
	if titleOpts.MaxLength > 0 {
		fmt.Fprintf(&sb, ", at most %d characters", titleOpts.MaxLength)
	}
	sb.WriteString(".\n")
	fmt.Fprintf(&sb, "The summary must be in language %q", summaryLang)
	if summaryOpts.Style != "" {
		fmt.Fprintf(&sb, ", in a %s style", summaryOpts.Style)
	}
	if summaryOpts.MaxLength > 0 {
		fmt.Fprintf(&sb, ", at most %d characters", summaryOpts.MaxLength)
	}
	sb.WriteString(".\n")
	sb.WriteString("Respond with a JSON object exactly of the form {\"title\": \"...\", \"summary\": \"...\"} and nothing else.\n\nTranscript:\n")
	sb.WriteString(transcript)
	return sb.String()
}

func parseTitleSummary(raw string) (*TitleAndSummary, error) {
	var payload titleSummaryPayload
	if jsonText, ok := extractJSONObject(raw); ok {
		if err := json.Unmarshal([]byte(jsonText), &payload); err == nil &&
			payload.Title != "" && payload.Summary != "" {
			return &TitleAndSummary{Title: payload.Title, Summary: payload.Summary}, nil
		}
	}

	// degraded parse: first non-empty line is the title, the rest the summary
	lines := strings.Split(stripMarkdownFences(raw), "\n")
	var title string
	var rest []string
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			title = strings.TrimSpace(line)
			rest = lines[i+1:]
			break
		}
	}
	summary := strings.TrimSpace(strings.Join(rest, "\n"))
	if title == "" || summary == "" {
		return nil, apperrors.Newf("could not extract title and summary from provider response")
	}
	return &TitleAndSummary{Title: title, Summary: summary}, nil
}

// extractJSONObject returns the substring between the first '{' and the last
// '}' of raw, which covers both bare JSON and JSON wrapped in prose or fences.
func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func stripMarkdownFences(raw string) string {
	out := strings.ReplaceAll(raw, "```json", "")
	out = strings.ReplaceAll(out, "```", "")
	return out
}
