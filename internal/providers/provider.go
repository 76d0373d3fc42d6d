package providers

import (
	"context"
	"fmt"
	"strings"
)

// ReviewRequest contains the data sent to an LLM.
type ReviewRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// ReviewResponse contains the raw response from an LLM.
type ReviewResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// TotalTokens returns combined input and output token usage.
func (r ReviewResponse) TotalTokens() int { return r.InputTokens + r.OutputTokens }

// Provider is the backend abstraction. Implementations make a single attempt
// and must not retry internally.
type Provider interface {
	Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error)
	Name() string
	Model() string
}

// New creates a provider by name.
func New(provider, model string) (Provider, error) {
	switch provider {
	case "anthropic":
		return NewAnthropic(model)
	case "openai":
		return NewOpenAI(model)
	case "gemini", "google":
		return NewGemini(model)
	case "ollama", "lmstudio":
		return NewOllama(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// ParseSpec splits a "provider:model" spec.
func ParseSpec(spec string) (string, string, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid model spec %q: expected provider:model", spec)
	}
	return parts[0], parts[1], nil
}

// FromSpec creates a provider from a "provider:model" spec.
func FromSpec(spec string) (Provider, error) {
	name, model, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	return New(name, model)
}
