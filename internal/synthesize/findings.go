package synthesize

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dshills/concord/internal/report"
	"github.com/dshills/concord/internal/resilient"
)

// ExtractFindings runs the structured finding extraction. There is no regex
// fallback here; finding quality depends on semantic understanding, so on
// failure the error goes to the caller, which decides how far to degrade.
func ExtractFindings(ctx context.Context, client Client, opts resilient.Options, reviews []string, categories []report.Category, models []report.ModelInfo, logger *slog.Logger) ([]report.Finding, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil || !client.Available() {
		return nil, &resilient.InvalidResponseError{Reason: "no structured-extraction client available"}
	}
	prompt := buildFindingPrompt(reviews, categories, models)
	raw, err := resilient.Do(ctx, "finding-extraction", opts, func(ctx context.Context) (json.RawMessage, error) {
		return client.RunStructured(ctx, prompt, findingSchema)
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Findings []struct {
			Title          string          `json:"title"`
			Description    string          `json:"description"`
			CategoryName   string          `json:"categoryName"`
			IsStrength     bool            `json:"isStrength"`
			ModelAgreement map[string]bool `json:"modelAgreement"`
			CodeExample    *struct {
				Code     string `json:"code"`
				Language string `json:"language"`
			} `json:"codeExample"`
			Recommendation string `json:"recommendation"`
		} `json:"findings"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &resilient.InvalidResponseError{Reason: "finding payload did not decode", Cause: err}
	}

	findings := make([]report.Finding, 0, len(parsed.Findings))
	for _, f := range parsed.Findings {
		cat, matched := resolveCategory(f.CategoryName, categories)
		if !matched {
			logger.Warn("finding category not in taxonomy",
				"category", f.CategoryName, "substituted", cat.Name)
		}
		finding := report.Finding{
			Title:          strings.TrimSpace(f.Title),
			Description:    strings.TrimSpace(f.Description),
			Category:       cat,
			IsStrength:     f.IsStrength,
			ModelAgreement: normalizeAgreement(f.ModelAgreement, models),
			Recommendation: strings.TrimSpace(f.Recommendation),
		}
		if f.CodeExample != nil && f.CodeExample.Code != "" {
			finding.CodeExample = &report.CodeExample{
				Code:     f.CodeExample.Code,
				Language: f.CodeExample.Language,
			}
		}
		findings = append(findings, finding)
	}
	return findings, nil
}

// resolveCategory matches a free-text category name against the known
// taxonomy, case-insensitively. No match falls back to the first category;
// an empty taxonomy synthesizes one on the fly.
func resolveCategory(name string, categories []report.Category) (report.Category, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, c := range categories {
		if strings.ToLower(c.Name) == want {
			return c, true
		}
	}
	if len(categories) > 0 {
		return categories[0], false
	}
	n := strings.TrimSpace(name)
	if n == "" {
		n = "General"
	}
	return report.Category{ID: report.CategoryID(0, n), Name: n}, false
}

// normalizeAgreement keys the agreement map by known model ids, tolerating
// responses keyed by display name or mixed case.
func normalizeAgreement(raw map[string]bool, models []report.ModelInfo) map[string]bool {
	out := make(map[string]bool, len(models))
	for _, m := range models {
		out[m.ID] = false
	}
	for key, agreed := range raw {
		id := strings.ToLower(strings.TrimSpace(key))
		if _, ok := out[id]; ok {
			out[id] = agreed
		}
	}
	return out
}

func buildFindingPrompt(reviews []string, categories []report.Category, models []report.ModelInfo) string {
	var b strings.Builder
	b.WriteString("Below are independent code reviews of the same codebase. Synthesize them into ")
	b.WriteString("de-duplicated findings. Each finding needs a title, a description, whether it is a ")
	b.WriteString("strength or an area for improvement, and a modelAgreement map recording which ")
	b.WriteString("models' reviews mention it. Include a code example and a recommendation where the ")
	b.WriteString("reviews provide one.\n\nCategories (use categoryName exactly as listed):\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "- %s", c.Name)
		if c.ShortDescription != "" {
			fmt.Fprintf(&b, ": %s", c.ShortDescription)
		}
		b.WriteByte('\n')
	}
	b.WriteString("\nModel ids for the modelAgreement map:\n")
	for _, m := range models {
		fmt.Fprintf(&b, "- %s\n", m.ID)
	}
	for i, r := range reviews {
		model := "unknown"
		if i < len(models) {
			model = models[i].ID
		}
		fmt.Fprintf(&b, "\n--- Review by %s ---\n%s\n", model, r)
	}
	return b.String()
}
