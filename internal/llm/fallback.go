package llm

import (
	"context"
	"errors"
	"log"
)

// FallbackProvider tries providers in order, falling back on retryable errors.
type FallbackProvider struct {
	providers []Provider
}

// NewFallbackProvider creates a provider chain. The first provider is primary.
func NewFallbackProvider(providers ...Provider) *FallbackProvider {
	return &FallbackProvider{providers: providers}
}

func (f *FallbackProvider) Name() string {
	if len(f.providers) > 0 {
		return f.providers[0].Name() + "+fallback"
	}
	return "fallback"
}

func (f *FallbackProvider) DefaultModel() string {
	if len(f.providers) > 0 {
		return f.providers[0].DefaultModel()
	}
	return ""
}

func (f *FallbackProvider) Chat(ctx context.Context, req *ChatRequest) (*Message, error) {
	if len(f.providers) == 0 {
		return nil, errors.New("no LLM providers configured")
	}

	var lastErr error
	for i, p := range f.providers {
		attempt := *req
		// A pinned model only makes sense for the provider it was chosen for.
		if i > 0 {
			attempt.Model = ""
		}
		resp, err := p.Chat(ctx, &attempt)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
		log.Printf("[fallback] provider %s failed: %v, trying next", p.Name(), err)
	}
	return nil, lastErr
}

// isRetryable returns true for errors that warrant trying a different provider.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var llmErr *LLMError
	if !errors.As(err, &llmErr) {
		return true
	}
	switch llmErr.Type {
	case ErrorAuth, ErrorInvalidInput:
		return false
	default:
		return true
	}
}
