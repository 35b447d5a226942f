// Package factory selects an llm.Provider implementation by name, expanded
// from the teacher's pkg/llm/factory.NewLLMProvider single-case switch.
package factory

import (
	"fmt"

	"thoughtstream/internal/llm"
)

type Config struct {
	Provider string
	APIKey   string
	Model    string
}

func New(cfg Config) (llm.Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		return llm.NewAnthropicProvider(cfg.APIKey, cfg.Model), nil
	case "openai":
		return llm.NewOpenAIProvider(cfg.APIKey, cfg.Model), nil
	case "gemini":
		return llm.NewGeminiProvider(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
