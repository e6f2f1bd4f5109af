package llm

import (
	"fmt"
	"os"
)

// ProviderFactory creates providers.
type ProviderFactory func(cfg ProviderConfig) (Provider, error)

var registry = map[string]ProviderFactory{
	"groq": func(cfg ProviderConfig) (Provider, error) {
		return NewGroqProvider(cfg)
	},
	"openai": func(cfg ProviderConfig) (Provider, error) {
		return NewOpenAIProvider(cfg)
	},
	"anthropic": func(cfg ProviderConfig) (Provider, error) {
		return NewAnthropicProvider(cfg)
	},
}

// NewProvider creates a provider by name.
func NewProvider(name string, cfg ProviderConfig) (Provider, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s (available: groq, openai, anthropic)", name)
	}
	return factory(cfg)
}

// DetectProvider picks a provider from the available API keys.
// Priority: GROQ_API_KEY > OPENAI_API_KEY > ANTHROPIC_API_KEY.
func DetectProvider() (provider string, apiKey string) {
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		return "groq", key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return "openai", key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return "anthropic", key
	}
	return "", ""
}
