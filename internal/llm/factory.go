package llm

import (
	"context"
	"fmt"

	"github.com/edibez/cryptoagent/internal/config"
)

// NewProvider creates an LLM provider from config.
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiProvider(ctx, GeminiConfig{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		})
	case "openai", "openrouter", "local":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	case "anthropic":
		return NewAnthropicProvider(AnthropicConfig{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}

// NewProviderChain builds the primary provider and, when configured, wraps it
// with a fallback.
func NewProviderChain(ctx context.Context, primary config.LLMConfig, fallback *config.LLMConfig) (Provider, error) {
	p, err := NewProvider(ctx, primary)
	if err != nil {
		return nil, err
	}
	if fallback == nil {
		return p, nil
	}
	fb, err := NewProvider(ctx, *fallback)
	if err != nil {
		return nil, fmt.Errorf("fallback provider: %w", err)
	}
	return NewFallbackProvider(p, fb), nil
}
