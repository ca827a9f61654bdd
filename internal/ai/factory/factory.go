// Package factory constructs the configured inference provider.
package factory

import (
	"fmt"

	"github.com/masrulmollah/DataAnalysis/internal/ai"
	"github.com/masrulmollah/DataAnalysis/internal/ai/gemini"
	"github.com/masrulmollah/DataAnalysis/internal/ai/ollama"
	"github.com/masrulmollah/DataAnalysis/internal/ai/openai"
	"github.com/masrulmollah/DataAnalysis/internal/config"
)

// NewProvider builds the provider selected by cfg.Provider.
func NewProvider(cfg config.AIConfig) (ai.Provider, error) {
	switch cfg.Provider {
	case "gemini", "":
		return gemini.New(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.Model, cfg.AITimeout()), nil
	case "openai":
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model, cfg.AITimeout())
	case "ollama":
		return ollama.New(cfg.OllamaBaseURL, cfg.Model, cfg.AITimeout()), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s (supported: gemini, openai, ollama)", cfg.Provider)
	}
}
