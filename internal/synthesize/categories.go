package synthesize

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dshills/concord/internal/report"
	"github.com/dshills/concord/internal/resilient"
)

// CategoryStrategy is one way of producing the category taxonomy. Strategies
// run in order; the first available one that returns categories wins.
type CategoryStrategy interface {
	Name() string
	Available() bool
	Extract(ctx context.Context, reviews []string) ([]report.Category, error)
}

// CategoryStrategies returns the ordered strategy list: structured LLM
// extraction, then heading scraping, then the fixed default taxonomy. The
// last strategy cannot fail, so ExtractCategories always returns categories.
func CategoryStrategies(client Client, opts resilient.Options) []CategoryStrategy {
	return []CategoryStrategy{
		&llmCategories{client: client, opts: opts},
		headingCategories{},
		defaultCategories{},
	}
}

// ExtractCategories runs the strategy list and returns the first non-empty
// category set, assigning ids by position.
func ExtractCategories(ctx context.Context, strategies []CategoryStrategy, reviews []string, logger *slog.Logger) []report.Category {
	if logger == nil {
		logger = slog.Default()
	}
	for _, s := range strategies {
		if !s.Available() {
			continue
		}
		cats, err := s.Extract(ctx, reviews)
		if err != nil {
			logger.Warn("category strategy failed", "strategy", s.Name(), "error", err)
			continue
		}
		if len(cats) == 0 {
			continue
		}
		return assignCategoryIDs(cats)
	}
	return nil
}

func assignCategoryIDs(cats []report.Category) []report.Category {
	for i := range cats {
		cats[i].ID = report.CategoryID(i, cats[i].Name)
	}
	return cats
}

type llmCategories struct {
	client Client
	opts   resilient.Options
}

func (s *llmCategories) Name() string { return "llm" }

func (s *llmCategories) Available() bool {
	return s.client != nil && s.client.Available()
}

func (s *llmCategories) Extract(ctx context.Context, reviews []string) ([]report.Category, error) {
	prompt := buildCategoryPrompt(reviews)
	raw, err := resilient.Do(ctx, "category-extraction", s.opts, func(ctx context.Context) (json.RawMessage, error) {
		return s.client.RunStructured(ctx, prompt, categorySchema)
	})
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Categories []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"categories"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &resilient.InvalidResponseError{Reason: "category payload did not decode", Cause: err}
	}
	cats := make([]report.Category, 0, len(parsed.Categories))
	for _, c := range parsed.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		cats = append(cats, report.Category{Name: name, ShortDescription: strings.TrimSpace(c.Description)})
	}
	return cats, nil
}

func buildCategoryPrompt(reviews []string) string {
	var b strings.Builder
	b.WriteString("Below are independent code reviews of the same codebase from different models. ")
	b.WriteString("Identify 5-8 review categories that together cover every substantive topic the reviews raise. ")
	b.WriteString("Each category needs a short name and a one-sentence description.\n")
	for i, r := range reviews {
		fmt.Fprintf(&b, "\n--- Review %d ---\n%s\n", i+1, r)
	}
	return b.String()
}

// headingCategories scrapes markdown section headings out of the raw review
// text. No network dependency, always available.
type headingCategories struct{}

func (headingCategories) Name() string    { return "headings" }
func (headingCategories) Available() bool { return true }

var headingPattern = regexp.MustCompile(`(?m)^#{2,3}\s+(.+?)\s*$`)

// maxHeadingLen drops headings too long to be a category name.
const maxHeadingLen = 50

var genericHeadings = map[string]bool{
	"overview":          true,
	"summary":           true,
	"introduction":      true,
	"conclusion":        true,
	"conclusions":       true,
	"recommendations":   true,
	"final thoughts":    true,
	"executive summary": true,
	"code review":       true,
	"review":            true,
	"general":           true,
	"notes":             true,
	"details":           true,
}

func (headingCategories) Extract(_ context.Context, reviews []string) ([]report.Category, error) {
	seen := make(map[string]bool)
	var cats []report.Category
	for _, m := range headingPattern.FindAllStringSubmatch(strings.Join(reviews, "\n\n"), -1) {
		name := strings.Trim(m[1], "*_` :")
		key := strings.ToLower(name)
		if name == "" || len(name) > maxHeadingLen || genericHeadings[key] || seen[key] {
			continue
		}
		seen[key] = true
		cats = append(cats, report.Category{Name: name})
		if len(cats) == 8 {
			break
		}
	}
	return cats, nil
}

// defaultCategories is the terminal strategy: a fixed generic taxonomy.
type defaultCategories struct{}

func (defaultCategories) Name() string    { return "default" }
func (defaultCategories) Available() bool { return true }

func (defaultCategories) Extract(context.Context, []string) ([]report.Category, error) {
	return []report.Category{
		{Name: "Code Quality", ShortDescription: "Readability, structure, and maintainability of the code"},
		{Name: "Bugs", ShortDescription: "Defects and correctness issues"},
		{Name: "Architecture", ShortDescription: "Overall design and component boundaries"},
		{Name: "Performance", ShortDescription: "Efficiency and resource usage"},
		{Name: "Security", ShortDescription: "Vulnerabilities and unsafe handling of data"},
	}, nil
}
