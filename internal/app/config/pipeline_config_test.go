package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPipelineConfig(t *testing.T) {
	cfg := DefaultPipelineConfig()

	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.Models.Text)
	assert.Equal(t, 6, cfg.Content.MaxRetries)
	assert.Equal(t, 10, cfg.Content.InitialDelaySec)
	assert.Equal(t, float64(2), cfg.Content.Multiplier)
	assert.Equal(t, 300, cfg.Content.MaxDelaySec)
	assert.Equal(t, 3, cfg.Transcript.MaxRetries)
	assert.Equal(t, 15000, cfg.Transcript.MaxLength)
	assert.NoError(t, cfg.Validate())
}

func TestLoadPipelineConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "pipeline.yaml")

	content := `
provider: openai
models:
  text: gpt-4o
content:
  max_retries: 2
transcript:
  max_length: 5000
prompts:
  image_description: "Describe %s for %s"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadPipelineConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.Models.Text)
	// unset fields fall back to defaults
	assert.Equal(t, "dall-e-3", cfg.Models.Image)
	assert.Equal(t, 2, cfg.Content.MaxRetries)
	assert.Equal(t, 300, cfg.Content.MaxDelaySec)
	assert.Equal(t, 5000, cfg.Transcript.MaxLength)
	assert.Equal(t, "Describe %s for %s", cfg.Prompts.ImageDescription)
}

func TestLoadPipelineConfig_MissingFile(t *testing.T) {
	_, err := LoadPipelineConfig("/nonexistent/pipeline.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoadPipelineConfig_InvalidProvider(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("provider: anthropic\n"), 0644))

	_, err := LoadPipelineConfig(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}
