package synthesize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/concord/internal/report"
	"github.com/dshills/concord/internal/resilient"
)

// ExtractInsights asks for one per-model summary of each review. Same
// structured-extraction, no-fallback pattern as findings: errors surface to
// the caller, which degrades the field to empty.
func ExtractInsights(ctx context.Context, client Client, opts resilient.Options, reviews []string, models []report.ModelInfo) ([]report.ModelInsight, error) {
	if client == nil || !client.Available() {
		return nil, &resilient.InvalidResponseError{Reason: "no structured-extraction client available"}
	}
	prompt := buildInsightPrompt(reviews, models)
	raw, err := resilient.Do(ctx, "insight-extraction", opts, func(ctx context.Context) (json.RawMessage, error) {
		return client.RunStructured(ctx, prompt, insightSchema)
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Insights []struct {
			Model     string   `json:"model"`
			Summary   string   `json:"summary"`
			KeyPoints []string `json:"keyPoints"`
		} `json:"insights"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &resilient.InvalidResponseError{Reason: "insight payload did not decode", Cause: err}
	}

	byID := make(map[string]report.ModelInfo, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	insights := make([]report.ModelInsight, 0, len(parsed.Insights))
	for _, in := range parsed.Insights {
		id := strings.ToLower(strings.TrimSpace(in.Model))
		info, ok := byID[id]
		if !ok {
			info = report.NewModelInfo(in.Model)
		}
		insights = append(insights, report.ModelInsight{
			Model:     info,
			Summary:   strings.TrimSpace(in.Summary),
			KeyPoints: in.KeyPoints,
		})
	}
	return insights, nil
}

func buildInsightPrompt(reviews []string, models []report.ModelInfo) string {
	var b strings.Builder
	b.WriteString("Below are independent code reviews of the same codebase. For each reviewing model, ")
	b.WriteString("write a two-sentence summary of its overall perspective and up to four key points ")
	b.WriteString("unique to that review. Use the model ids exactly as given.\n")
	for i, r := range reviews {
		model := "unknown"
		if i < len(models) {
			model = models[i].ID
		}
		fmt.Fprintf(&b, "\n--- Review by %s ---\n%s\n", model, r)
	}
	return b.String()
}
