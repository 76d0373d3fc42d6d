package synthesize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/concord/internal/report"
	"github.com/dshills/concord/internal/resilient"
)

// ExtractPriorities buckets the reviews' recommendations into high, medium,
// and low tiers. Errors surface to the caller, which degrades the field to
// empty tiers.
func ExtractPriorities(ctx context.Context, client Client, opts resilient.Options, reviews []string, findings []report.Finding) (map[string][]string, error) {
	if client == nil || !client.Available() {
		return nil, &resilient.InvalidResponseError{Reason: "no structured-extraction client available"}
	}
	prompt := buildPriorityPrompt(reviews, findings)
	raw, err := resilient.Do(ctx, "priority-extraction", opts, func(ctx context.Context) (json.RawMessage, error) {
		return client.RunStructured(ctx, prompt, prioritySchema)
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		High   []string `json:"high"`
		Medium []string `json:"medium"`
		Low    []string `json:"low"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &resilient.InvalidResponseError{Reason: "priority payload did not decode", Cause: err}
	}
	return map[string][]string{
		report.PriorityHigh:   clean(parsed.High),
		report.PriorityMedium: clean(parsed.Medium),
		report.PriorityLow:    clean(parsed.Low),
	}, nil
}

// EmptyPriorities is the degraded value when priority extraction fails.
func EmptyPriorities() map[string][]string {
	return map[string][]string{
		report.PriorityHigh:   {},
		report.PriorityMedium: {},
		report.PriorityLow:    {},
	}
}

func clean(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func buildPriorityPrompt(reviews []string, findings []report.Finding) string {
	var b strings.Builder
	b.WriteString("Based on the code reviews and synthesized findings below, produce prioritized ")
	b.WriteString("recommendations in three tiers: high (fix now), medium (fix soon), low (nice to have). ")
	b.WriteString("Each recommendation is one actionable sentence.\n")
	if len(findings) > 0 {
		b.WriteString("\nFindings:\n")
		for _, f := range findings {
			if f.IsStrength {
				continue
			}
			fmt.Fprintf(&b, "- [%s] %s\n", f.Category.Name, f.Title)
		}
	}
	for i, r := range reviews {
		fmt.Fprintf(&b, "\n--- Review %d ---\n%s\n", i+1, r)
	}
	return b.String()
}
