package report

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Category is one review area extracted once per report run. IDs are stable
// within a run but not across runs since names come from model output.
type Category struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	ShortDescription string `json:"shortDescription"`
}

// CodeExample is an optional illustrative snippet attached to a finding.
type CodeExample struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
}

// Finding is a single synthesized observation. Category is embedded by
// value; its ID must exist in the report's category list.
type Finding struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Category       Category        `json:"category"`
	IsStrength     bool            `json:"isStrength"`
	ModelAgreement map[string]bool `json:"modelAgreement"`
	CodeExample    *CodeExample    `json:"codeExample,omitempty"`
	Recommendation string          `json:"recommendation,omitempty"`
}

// AgreementCount returns how many models mention this finding.
func (f Finding) AgreementCount() int {
	n := 0
	for _, agreed := range f.ModelAgreement {
		if agreed {
			n++
		}
	}
	return n
}

// ModelInfo identifies one reviewing model. ID is the lower-cased model name
// used to key agreement maps.
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewModelInfo builds a ModelInfo from a model name.
func NewModelInfo(name string) ModelInfo {
	return ModelInfo{ID: strings.ToLower(name), Name: name}
}

// ModelResult is one raw per-model review as produced by the review runner.
type ModelResult struct {
	Model   string     `json:"model"`
	Review  string     `json:"review"`
	Metrics RunMetrics `json:"metrics"`
}

// RunMetrics are the raw counters recorded while a model ran.
type RunMetrics struct {
	LatencyMs   int64   `json:"latency"`
	TotalTokens int     `json:"tokenTotal"`
	Cost        float64 `json:"cost"`
	Error       string  `json:"error,omitempty"`
}

// ModelMetrics is the normalized metrics row derived from RunMetrics.
type ModelMetrics struct {
	Model           ModelInfo `json:"model"`
	Status          string    `json:"status"`
	LatencyMs       int64     `json:"latencyMs"`
	Cost            float64   `json:"cost"`
	TotalTokens     int       `json:"totalTokens"`
	CostPer1kTokens float64   `json:"costPer1kTokens"`
}

// ModelInsight is one model's overall perspective on the codebase.
type ModelInsight struct {
	Model     ModelInfo `json:"model"`
	Summary   string    `json:"summary"`
	KeyPoints []string  `json:"keyPoints,omitempty"`
}

// CategoryAgreementAnalysis holds per-area agreement buckets from the raw
// text analysis. Each list is capped and sorted shortest-first.
type CategoryAgreementAnalysis struct {
	Area             string   `json:"area"`
	HighAgreement    []string `json:"highAgreement"`
	PartialAgreement []string `json:"partialAgreement"`
	Disagreement     []string `json:"disagreement"`
}

// AgreementStatistics counts findings per category by agreement tier.
type AgreementStatistics struct {
	Category  string `json:"category"`
	AllModels int    `json:"allModels"`
	TwoModels int    `json:"twoModels"`
	OneModel  int    `json:"oneModel"`
}

// Priority tiers for recommendations.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// CodeReviewReport is the root aggregate. It is assembled once per run and
// never mutated afterward.
type CodeReviewReport struct {
	ProjectName               string                      `json:"projectName"`
	ReviewDate                time.Time                   `json:"reviewDate"`
	RunID                     string                      `json:"runId"`
	Categories                []Category                  `json:"categories"`
	Models                    []ModelInfo                 `json:"models"`
	ModelMetrics              []ModelMetrics              `json:"modelMetrics"`
	KeyStrengths              []Finding                   `json:"keyStrengths"`
	KeyAreasForImprovement    []Finding                   `json:"keyAreasForImprovement"`
	FindingsByCategory        map[string][]Finding        `json:"findingsByCategory"`
	ModelInsights             []ModelInsight              `json:"modelInsights"`
	AgreementAnalysis         []CategoryAgreementAnalysis `json:"agreementAnalysis"`
	AgreementStatistics       []AgreementStatistics       `json:"agreementStatistics"`
	PrioritizedRecommendations map[string][]string        `json:"prioritizedRecommendations"`
	Degraded                  bool                        `json:"degraded,omitempty"`
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases a name and reduces it to hyphen-separated tokens.
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStrip.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// CategoryID derives the stable-within-run category id.
func CategoryID(index int, name string) string {
	return "category_" + strconv.Itoa(index) + "_" + Slug(name)
}
