package factory

import (
	"fmt"

	"ai-policydesk-be/pkg/llm"
	"ai-policydesk-be/pkg/llm/ollama"
	"ai-policydesk-be/pkg/llm/openai"
)

// Config selects and parameterizes an LLM backend.
type Config struct {
	Provider string // "ollama" | "openai" | "groq" | "huggingface"
	Model    string
	BaseURL  string
	APIKey   string
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	case "openai", "groq", "huggingface":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s provider requires an API key", cfg.Provider)
		}
		return openai.NewProvider(cfg.APIKey, defaultBaseURL(cfg), cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

func defaultBaseURL(cfg Config) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	switch cfg.Provider {
	case "groq":
		return "https://api.groq.com/openai/v1"
	case "huggingface":
		return "https://router.huggingface.co/v1"
	default:
		return ""
	}
}
