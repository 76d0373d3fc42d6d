package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *CodeReviewReport {
	security := Category{ID: "category_0_security", Name: "Security", ShortDescription: "Vulnerabilities"}
	finding := Finding{
		Title:          "SQL injection in query builder",
		Description:    "User input is concatenated into SQL strings.",
		Category:       security,
		ModelAgreement: map[string]bool{"gpt-5.2": true, "claude-sonnet-4-6": true},
		CodeExample:    &CodeExample{Code: "db.Query(\"SELECT * FROM users WHERE id = \" + id)", Language: "go"},
		Recommendation: "Use parameterized queries.",
	}
	strength := Finding{
		Title:          "Clear package layout",
		Category:       security,
		IsStrength:     true,
		ModelAgreement: map[string]bool{"gpt-5.2": true},
	}
	return &CodeReviewReport{
		ProjectName: "demo",
		ReviewDate:  time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		RunID:       "01K3ZD9YD0TEST",
		Categories:  []Category{security},
		Models: []ModelInfo{
			{ID: "gpt-5.2", Name: "GPT-5.2"},
			{ID: "claude-sonnet-4-6", Name: "Claude-Sonnet-4-6"},
		},
		ModelMetrics: []ModelMetrics{
			{Model: ModelInfo{ID: "gpt-5.2", Name: "GPT-5.2"}, Status: StatusCompleted, LatencyMs: 2000, TotalTokens: 5000, Cost: 0.05, CostPer1kTokens: 0.01},
		},
		KeyStrengths:           []Finding{strength},
		KeyAreasForImprovement: []Finding{finding},
		FindingsByCategory:     map[string][]Finding{"category_0_security": {finding, strength}},
		ModelInsights: []ModelInsight{
			{Model: ModelInfo{ID: "gpt-5.2", Name: "GPT-5.2"}, Summary: "Focused on correctness.", KeyPoints: []string{"Input validation"}},
		},
		AgreementAnalysis: []CategoryAgreementAnalysis{
			{Area: "Security", HighAgreement: []string{"SQL injection risk"}, PartialAgreement: []string{}, Disagreement: []string{}},
		},
		AgreementStatistics: []AgreementStatistics{
			{Category: "Security", AllModels: 1},
		},
		PrioritizedRecommendations: map[string][]string{
			PriorityHigh:   {"Fix the SQL injection"},
			PriorityMedium: {},
			PriorityLow:    {"Add docs"},
		},
	}
}

func TestRenderMarkdownFullReport(t *testing.T) {
	md := RenderMarkdown(sampleReport())

	for _, want := range []string{
		"# Code Review Report: demo",
		"**Date:** 2026-08-31",
		"## Dashboard",
		"| GPT-5.2 | completed | 2000 | 5000 | 0.0500 | 0.0100 |",
		"## Executive Summary",
		"## Key Strengths",
		"## Key Areas for Improvement",
		"### SQL injection in query builder",
		"*Mentioned by 2 model(s): claude-sonnet-4-6, gpt-5.2*",
		"**Recommendation:** Use parameterized queries.",
		"## Findings by Category",
		"## Model Insights",
		"## Cross-Model Agreement",
		"**High agreement:**",
		"## Agreement Statistics",
		"| Security | 1 | 0 | 0 |",
		"### High Priority",
		"1. Fix the SQL injection",
	} {
		assert.Contains(t, md, want)
	}
	assert.NotContains(t, md, "heuristic text analysis only")
}

func TestRenderMarkdownNilReport(t *testing.T) {
	md := RenderMarkdown(nil)
	assert.Contains(t, md, "No report data available.")
}

func TestRenderMarkdownEmptyReport(t *testing.T) {
	md := RenderMarkdown(&CodeReviewReport{})
	require.NotEmpty(t, md)
	assert.Contains(t, md, "# Code Review Report: (unnamed project)")
	assert.Contains(t, md, "No analysis could be produced for this codebase.")
	assert.Contains(t, md, "_No model metrics available._")
	assert.Contains(t, md, "_No prioritized recommendations available._")
}

func TestRenderMarkdownDegradedNote(t *testing.T) {
	r := sampleReport()
	r.Degraded = true
	assert.Contains(t, RenderMarkdown(r), "heuristic text analysis only")
}

func TestRenderMarkdownPartialFields(t *testing.T) {
	r := &CodeReviewReport{
		ProjectName: "partial",
		Categories:  []Category{{ID: "category_0_bugs", Name: "Bugs"}},
		Models:      []ModelInfo{{ID: "m", Name: "M"}},
	}
	md := RenderMarkdown(r)
	assert.Contains(t, md, "### Bugs")
	assert.Contains(t, md, "_No findings in this category._")
	assert.True(t, strings.HasPrefix(md, "# Code Review Report: partial"))
}
