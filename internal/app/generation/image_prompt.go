package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"podforge/internal/app/api/provider"
)

// defaultImagePromptTemplate is used when configuration provides no
// override. The two %s placeholders receive the summary and the title
// context line.
const defaultImagePromptTemplate = `Create a purely visual description for a podcast episode cover image.
The description must contain no text, no letters, no words, no numbers and no symbols to be rendered in the image.
Describe the scene, the dominant colors, the lighting and the composition.
Base it on this episode summary:
%s
%s
Respond with a JSON object exactly of the form {"visualDescription": "..."} and nothing else.`

type visualDescriptionPayload struct {
	VisualDescription string `json:"visualDescription"`
}

// GenerateImagePrompt turns the episode summary (plus optional title
// context) into a visual description for image generation. This path never
// fails: provider errors and unparseable responses degrade to a
// deterministic fallback built from the summary so the pipeline can proceed.
func (g *Generator) GenerateImagePrompt(ctx context.Context, summary, title string) string {
	prompt := g.renderImagePromptTemplate(summary, title)

	resp, err := g.provider.GenerateText(ctx, &provider.TextRequest{
		Prompt:      prompt,
		Model:       g.textModel,
		Temperature: 0.9,
		MaxTokens:   512,
	})
	if err != nil {
		g.logger.Warn("image prompt generation failed, using summary fallback",
			zap.Error(err))
		return fallbackImagePrompt(summary)
	}

	if description := extractVisualDescription(resp.Text); description != "" {
		return description
	}

	g.logger.Warn("image prompt response unparseable, using summary fallback")
	return fallbackImagePrompt(summary)
}

func (g *Generator) renderImagePromptTemplate(summary, title string) string {
	template := g.imagePromptTemplate
	if template == "" {
		template = defaultImagePromptTemplate
	}

	titleContext := ""
	if title != "" {
		titleContext = fmt.Sprintf("The episode is titled %q.", title)
	}
	return fmt.Sprintf(template, summary, titleContext)
}

// extractVisualDescription first tries strict JSON extraction, then falls
// back to a heuristic cleanup pass stripping markdown/JSON artifacts and
// explanatory prose. Returns "" when nothing usable remains.
func extractVisualDescription(raw string) string {
	if jsonText, ok := extractJSONObject(raw); ok {
		var payload visualDescriptionPayload
		if err := json.Unmarshal([]byte(jsonText), &payload); err == nil {
			if description := strings.TrimSpace(payload.VisualDescription); description != "" {
				return description
			}
		}
	}
	return cleanVisualDescription(raw)
}

func cleanVisualDescription(raw string) string {
	text := stripMarkdownFences(raw)
	text = strings.ReplaceAll(text, "visualDescription", "")

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Trim(line, " \t{}\",:")
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		// drop explanatory prose around the actual description
		if strings.HasPrefix(lower, "here is") || strings.HasPrefix(lower, "here's") ||
			strings.HasPrefix(lower, "sure") || strings.HasPrefix(lower, "certainly") {
			continue
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, " "))
}

// fallbackImagePrompt builds a deterministic description directly from the
// summary so downstream image generation still has context.
func fallbackImagePrompt(summary string) string {
	summary = strings.TrimSpace(summary)
	if len(summary) > 300 {
		cut := 300
		for cut > 0 && !utf8.RuneStart(summary[cut]) {
			cut--
		}
		summary = summary[:cut]
	}
	return fmt.Sprintf("An abstract illustration without any text or symbols, evoking the mood of this episode: %s", summary)
}

// GenerateImage requests binary image data for the visual description.
// Provider errors propagate; a response without image bytes is returned
// as-is for the caller to treat as a soft failure.
func (g *Generator) GenerateImage(ctx context.Context, description string) (*provider.ImageResponse, error) {
	return g.provider.GenerateImage(ctx, &provider.ImageRequest{
		Prompt: description,
		Model:  g.imageModel,
	})
}
