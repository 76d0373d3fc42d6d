package report

import (
	"fmt"
	"sort"
	"strings"
)

// RenderMarkdown renders the report as a human-readable markdown document.
// It is total: missing or malformed fields render as placeholders, and an
// internal panic yields a minimal error document instead of propagating.
func RenderMarkdown(report *CodeReviewReport) (md string) {
	defer func() {
		if r := recover(); r != nil {
			md = fmt.Sprintf("# Code Review Report\n\nReport rendering failed: %v\n", r)
		}
	}()

	if report == nil {
		return "# Code Review Report\n\nNo report data available.\n"
	}

	var b strings.Builder
	writeHeader(&b, report)
	writeDashboard(&b, report)
	writeExecutiveSummary(&b, report)
	writeFindingSection(&b, "Key Strengths", report.KeyStrengths, "No consensus strengths were identified.")
	writeFindingSection(&b, "Key Areas for Improvement", report.KeyAreasForImprovement, "No consensus improvement areas were identified.")
	writeCategoryFindings(&b, report)
	writeModelInsights(&b, report)
	writeAgreementAnalysis(&b, report)
	writeAgreementStats(&b, report)
	writePriorityMatrix(&b, report)
	return b.String()
}

func writeHeader(b *strings.Builder, r *CodeReviewReport) {
	name := r.ProjectName
	if name == "" {
		name = "(unnamed project)"
	}
	fmt.Fprintf(b, "# Code Review Report: %s\n\n", name)
	if !r.ReviewDate.IsZero() {
		fmt.Fprintf(b, "**Date:** %s  \n", r.ReviewDate.Format("2006-01-02"))
	}
	if r.RunID != "" {
		fmt.Fprintf(b, "**Run:** `%s`  \n", r.RunID)
	}
	if len(r.Models) > 0 {
		names := make([]string, 0, len(r.Models))
		for _, m := range r.Models {
			names = append(names, m.Name)
		}
		fmt.Fprintf(b, "**Models:** %s  \n", strings.Join(names, ", "))
	}
	if r.Degraded {
		b.WriteString("\n> Structured extraction was unavailable for this run; the report below was built from heuristic text analysis only.\n")
	}
	b.WriteString("\n")
}

func writeDashboard(b *strings.Builder, r *CodeReviewReport) {
	b.WriteString("## Dashboard\n\n")
	if len(r.ModelMetrics) == 0 {
		b.WriteString("_No model metrics available._\n\n")
		return
	}
	b.WriteString("| Model | Status | Latency (ms) | Tokens | Cost ($) | $/1k tokens |\n")
	b.WriteString("|-------|--------|--------------|--------|----------|-------------|\n")
	for _, m := range r.ModelMetrics {
		name := m.Model.Name
		if name == "" {
			name = "unknown"
		}
		fmt.Fprintf(b, "| %s | %s | %d | %d | %.4f | %.4f |\n",
			name, orDash(m.Status), m.LatencyMs, m.TotalTokens, m.Cost, m.CostPer1kTokens)
	}
	b.WriteString("\n")
}

func writeExecutiveSummary(b *strings.Builder, r *CodeReviewReport) {
	b.WriteString("## Executive Summary\n\n")
	total := 0
	for _, fs := range r.FindingsByCategory {
		total += len(fs)
	}
	if len(r.Categories) == 0 && total == 0 {
		b.WriteString("No analysis could be produced for this codebase.\n\n")
		return
	}
	fmt.Fprintf(b, "%d model(s) reviewed the codebase across %d categories, producing %d synthesized findings (%d strengths, %d improvement areas).\n\n",
		len(r.Models), len(r.Categories), total, len(r.KeyStrengths), len(r.KeyAreasForImprovement))
}

func writeFindingSection(b *strings.Builder, title string, findings []Finding, empty string) {
	fmt.Fprintf(b, "## %s\n\n", title)
	if len(findings) == 0 {
		fmt.Fprintf(b, "_%s_\n\n", empty)
		return
	}
	for _, f := range findings {
		writeFinding(b, f)
	}
}

func writeFinding(b *strings.Builder, f Finding) {
	title := f.Title
	if title == "" {
		title = "(untitled finding)"
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	if f.Description != "" {
		fmt.Fprintf(b, "%s\n\n", f.Description)
	}
	if n := f.AgreementCount(); n > 0 {
		models := make([]string, 0, len(f.ModelAgreement))
		for id, agreed := range f.ModelAgreement {
			if agreed {
				models = append(models, id)
			}
		}
		sort.Strings(models)
		fmt.Fprintf(b, "*Mentioned by %d model(s): %s*\n\n", n, strings.Join(models, ", "))
	}
	if f.CodeExample != nil && f.CodeExample.Code != "" {
		fmt.Fprintf(b, "```%s\n%s\n```\n\n", f.CodeExample.Language, f.CodeExample.Code)
	}
	if f.Recommendation != "" {
		fmt.Fprintf(b, "**Recommendation:** %s\n\n", f.Recommendation)
	}
}

func writeCategoryFindings(b *strings.Builder, r *CodeReviewReport) {
	b.WriteString("## Findings by Category\n\n")
	if len(r.Categories) == 0 {
		b.WriteString("_No categories were extracted._\n\n")
		return
	}
	for _, cat := range r.Categories {
		name := cat.Name
		if name == "" {
			name = cat.ID
		}
		fmt.Fprintf(b, "### %s\n\n", name)
		if cat.ShortDescription != "" {
			fmt.Fprintf(b, "%s\n\n", cat.ShortDescription)
		}
		findings := r.FindingsByCategory[cat.ID]
		if len(findings) == 0 {
			b.WriteString("_No findings in this category._\n\n")
			continue
		}
		for _, f := range findings {
			marker := "⚠"
			if f.IsStrength {
				marker = "✓"
			}
			title := f.Title
			if title == "" {
				title = "(untitled finding)"
			}
			fmt.Fprintf(b, "- %s **%s**", marker, title)
			if f.Description != "" {
				fmt.Fprintf(b, " - %s", f.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
}

func writeModelInsights(b *strings.Builder, r *CodeReviewReport) {
	b.WriteString("## Model Insights\n\n")
	if len(r.ModelInsights) == 0 {
		b.WriteString("_No per-model insights available._\n\n")
		return
	}
	for _, ins := range r.ModelInsights {
		name := ins.Model.Name
		if name == "" {
			name = "unknown model"
		}
		fmt.Fprintf(b, "### %s\n\n", name)
		if ins.Summary != "" {
			fmt.Fprintf(b, "%s\n\n", ins.Summary)
		}
		for _, p := range ins.KeyPoints {
			fmt.Fprintf(b, "- %s\n", p)
		}
		if len(ins.KeyPoints) > 0 {
			b.WriteString("\n")
		}
	}
}

func writeAgreementAnalysis(b *strings.Builder, r *CodeReviewReport) {
	b.WriteString("## Cross-Model Agreement\n\n")
	if len(r.AgreementAnalysis) == 0 {
		b.WriteString("_No agreement analysis available._\n\n")
		return
	}
	for _, a := range r.AgreementAnalysis {
		if len(a.HighAgreement) == 0 && len(a.PartialAgreement) == 0 && len(a.Disagreement) == 0 {
			continue
		}
		fmt.Fprintf(b, "### %s\n\n", orDash(a.Area))
		writeBucket(b, "High agreement", a.HighAgreement)
		writeBucket(b, "Partial agreement", a.PartialAgreement)
		writeBucket(b, "Single model", a.Disagreement)
		b.WriteString("\n")
	}
}

func writeBucket(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:**\n", label)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func writeAgreementStats(b *strings.Builder, r *CodeReviewReport) {
	b.WriteString("## Agreement Statistics\n\n")
	if len(r.AgreementStatistics) == 0 {
		b.WriteString("_No agreement statistics available._\n\n")
		return
	}
	b.WriteString("| Category | All models | Two models | One model |\n")
	b.WriteString("|----------|------------|------------|-----------|\n")
	for _, s := range r.AgreementStatistics {
		fmt.Fprintf(b, "| %s | %d | %d | %d |\n", orDash(s.Category), s.AllModels, s.TwoModels, s.OneModel)
	}
	b.WriteString("\n")
}

func writePriorityMatrix(b *strings.Builder, r *CodeReviewReport) {
	b.WriteString("## Prioritized Recommendations\n\n")
	tiers := []struct{ key, label string }{
		{PriorityHigh, "High Priority"},
		{PriorityMedium, "Medium Priority"},
		{PriorityLow, "Low Priority"},
	}
	any := false
	for _, tier := range tiers {
		recs := r.PrioritizedRecommendations[tier.key]
		if len(recs) == 0 {
			continue
		}
		any = true
		fmt.Fprintf(b, "### %s\n\n", tier.label)
		for i, rec := range recs {
			fmt.Fprintf(b, "%d. %s\n", i+1, rec)
		}
		b.WriteString("\n")
	}
	if !any {
		b.WriteString("_No prioritized recommendations available._\n")
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
