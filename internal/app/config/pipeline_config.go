package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PipelineConfig represents the overall configuration for the post-processing pipeline
type PipelineConfig struct {
	Provider   string           `yaml:"provider"` // "gemini" or "openai"
	Models     ModelsConfig     `yaml:"models,omitempty"`
	Content    ContentConfig    `yaml:"content,omitempty"`
	Transcript TranscriptConfig `yaml:"transcript,omitempty"`
	Prompts    PromptsConfig    `yaml:"prompts,omitempty"`
	Storage    StorageConfig    `yaml:"storage,omitempty"`
}

// ModelsConfig selects provider model ids for the two generation calls
type ModelsConfig struct {
	Text  string `yaml:"text,omitempty"`
	Image string `yaml:"image,omitempty"`
}

// ContentConfig tunes the content bundle fetch retry policy
type ContentConfig struct {
	MaxRetries      int     `yaml:"max_retries,omitempty"`
	InitialDelaySec int     `yaml:"initial_delay_sec,omitempty"`
	Multiplier      float64 `yaml:"multiplier,omitempty"`
	MaxDelaySec     int     `yaml:"max_delay_sec,omitempty"`
}

// TranscriptConfig tunes transcript retrieval and normalization
type TranscriptConfig struct {
	MaxRetries int `yaml:"max_retries,omitempty"`
	MaxLength  int `yaml:"max_length,omitempty"`
}

// PromptsConfig carries prompt template overrides. ImageDescription replaces
// the built-in image prompt template; it must contain the %s placeholders for
// summary and title context.
type PromptsConfig struct {
	ImageDescription string `yaml:"image_description,omitempty"`
}

// StorageConfig configures the object store bucket layout
type StorageConfig struct {
	Bucket string `yaml:"bucket,omitempty"`
}

// DefaultPipelineConfig returns the built-in configuration used when no
// config file is present.
func DefaultPipelineConfig() *PipelineConfig {
	cfg := &PipelineConfig{Provider: "gemini"}
	cfg.setDefaults()
	return cfg
}

// LoadPipelineConfig loads pipeline configuration from a YAML file
func LoadPipelineConfig(configPath string) (*PipelineConfig, error) {
	// Expand environment variables in path
	configPath = os.ExpandEnv(configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config PipelineConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.setDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default values for the configuration
func (c *PipelineConfig) setDefaults() {
	if c.Provider == "" {
		c.Provider = "gemini"
	}
	if c.Models.Text == "" {
		c.Models.Text = defaultTextModel(c.Provider)
	}
	if c.Models.Image == "" {
		c.Models.Image = defaultImageModel(c.Provider)
	}
	if c.Content.MaxRetries == 0 {
		c.Content.MaxRetries = 6
	}
	if c.Content.InitialDelaySec == 0 {
		c.Content.InitialDelaySec = 10
	}
	if c.Content.Multiplier == 0 {
		c.Content.Multiplier = 2
	}
	if c.Content.MaxDelaySec == 0 {
		c.Content.MaxDelaySec = 300
	}
	if c.Transcript.MaxRetries == 0 {
		c.Transcript.MaxRetries = 3
	}
	if c.Transcript.MaxLength == 0 {
		c.Transcript.MaxLength = 15000
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "podforge-content"
	}
}

// Validate checks the configuration for consistency
func (c *PipelineConfig) Validate() error {
	switch c.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unknown provider %q (expected gemini or openai)", c.Provider)
	}
	if c.Content.MaxRetries < 0 {
		return fmt.Errorf("content.max_retries must not be negative")
	}
	if c.Transcript.MaxRetries < 1 {
		return fmt.Errorf("transcript.max_retries must be at least 1")
	}
	if c.Transcript.MaxLength < 100 {
		return fmt.Errorf("transcript.max_length too small (minimum 100)")
	}
	return nil
}

func defaultTextModel(provider string) string {
	if provider == "openai" {
		return "gpt-4o-mini"
	}
	return "gemini-2.0-flash"
}

func defaultImageModel(provider string) string {
	if provider == "openai" {
		return "dall-e-3"
	}
	return "gemini-2.0-flash-preview-image-generation"
}
