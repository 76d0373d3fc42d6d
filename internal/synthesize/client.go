package synthesize

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dshills/concord/internal/providers"
	"github.com/dshills/concord/internal/resilient"
)

// Client is the structured-extraction capability the pipeline runs on. It
// makes one attempt per call; retries belong to the resilient layer outside.
type Client interface {
	// RunStructured sends a prompt plus a schema and returns the validated
	// raw JSON response.
	RunStructured(ctx context.Context, prompt string, schema *Schema) (json.RawMessage, error)
	// Available reports whether the client can make calls at all.
	Available() bool
}

const structuredSystemPrompt = `You are a precise data-extraction engine. ` +
	`Respond with a single JSON object matching the schema you are given. ` +
	`Do not include prose, explanations, or code fences.`

// ModelClient implements Client over a provider adapter.
type ModelClient struct {
	provider  providers.Provider
	maxTokens int
}

// NewModelClient wraps a provider for structured extraction.
func NewModelClient(p providers.Provider) *ModelClient {
	return &ModelClient{provider: p, maxTokens: 8192}
}

func (c *ModelClient) Available() bool {
	return c != nil && c.provider != nil
}

func (c *ModelClient) RunStructured(ctx context.Context, prompt string, schema *Schema) (json.RawMessage, error) {
	resp, err := c.provider.Review(ctx, providers.ReviewRequest{
		SystemPrompt: structuredSystemPrompt,
		UserPrompt:   prompt + "\n\nJSON schema for your response:\n" + schema.Raw,
		MaxTokens:    c.maxTokens,
	})
	if err != nil {
		return nil, err
	}
	raw := extractJSON(resp.Content)
	if raw == "" {
		return nil, &resilient.InvalidResponseError{Reason: "no JSON object in response"}
	}
	if err := schema.Validate([]byte(raw)); err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// extractJSON pulls the JSON payload out of a completion that may wrap it in
// code fences or surrounding prose.
func extractJSON(content string) string {
	s := strings.TrimSpace(content)
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	end := strings.LastIndexAny(s, "}]")
	if end < start {
		return ""
	}
	return s[start : end+1]
}
