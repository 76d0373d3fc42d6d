package review

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an expert code reviewer. You will be given the source of a codebase and asked for a thorough, honest review.

Rules:
1. Organize your review into markdown sections, one "## Heading" per topic (for example Security, Performance, Architecture, Error Handling, Testing).
2. Call out both strengths and problems. Be specific: name files, functions, and lines where you can.
3. Prefer concrete, actionable observations over generalities. Include short code examples where they clarify a point.
4. End with a short list of prioritized recommendations.`

// SystemPrompt returns the shared system prompt for review calls.
func SystemPrompt() string { return systemPrompt }

// BuildReviewPrompt constructs the user prompt from the packed source tree.
func BuildReviewPrompt(projectName, packed string) string {
	var b strings.Builder
	name := strings.TrimSpace(projectName)
	if name == "" {
		name = "this codebase"
	}
	fmt.Fprintf(&b, "Review %s. The full source follows, one fenced block per file.\n\n", name)
	b.WriteString(packed)
	return b.String()
}
