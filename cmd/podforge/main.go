package main

import (
	"fmt"
	"os"

	"podforge/cmd/podforge/cmd"
	"podforge/internal/config"
)

func main() {
	// Initialize configuration (non-blocking - only warns about missing keys)
	apiKeys, err := config.InitializeConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration warning: %v\n", err)
		fmt.Fprintf(os.Stderr, "Copy .env.example to .env and add your API keys to enable generation\n")
		// Continue execution - don't exit
	} else {
		// Re-export so child components reading the environment see them
		if apiKeys.OpenAI != "" {
			os.Setenv("OPENAI_API_KEY", apiKeys.OpenAI)
		}
		if apiKeys.Gemini != "" {
			os.Setenv("GEMINI_API_KEY", apiKeys.Gemini)
		}
	}

	cmd.Execute()
}
