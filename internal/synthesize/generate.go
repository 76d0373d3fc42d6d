package synthesize

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dshills/concord/internal/report"
	"github.com/dshills/concord/internal/resilient"
)

// maxKeyFindings caps the strengths and improvements lists on the report.
const maxKeyFindings = 5

// Generator assembles a CodeReviewReport from raw model results. The
// pipeline runs Init -> CategoriesExtracted -> FindingsExtracted -> Analyzed
// -> Assembled, with an escape to a basic regex-only report when category
// extraction comes back empty. Later-stage failures degrade individual
// fields instead of aborting.
type Generator struct {
	Client Client
	Opts   resilient.Options
	Logger *slog.Logger

	now func() time.Time
}

// NewGenerator returns a Generator using the given structured-extraction
// client. A nil client skips the LLM paths and produces a basic report.
func NewGenerator(client Client) *Generator {
	return &Generator{Client: client, Opts: resilient.DefaultOptions(), now: time.Now}
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

func (g *Generator) timestamp() time.Time {
	if g.now != nil {
		return g.now()
	}
	return time.Now()
}

// Generate builds the report. It never returns an error: every exit path,
// including a panic in a sub-stage, yields a structurally valid report.
func (g *Generator) Generate(ctx context.Context, projectName string, results []report.ModelResult) (out *report.CodeReviewReport) {
	reviews, reviewModels := alignReviews(results)
	models := modelList(results)

	defer func() {
		if r := recover(); r != nil {
			g.logger().Error("report generation panicked", "panic", r)
			out = g.basicReport(ctx, projectName, results, reviews, reviewModels, models)
		}
	}()

	// Without a structured-extraction client the LLM stages cannot run at
	// all, so go straight to the basic report rather than emitting heuristic
	// categories with no findings.
	if g.Client == nil || !g.Client.Available() {
		g.logger().Warn("structured extraction unavailable, producing basic report")
		return g.basicReport(ctx, projectName, results, reviews, reviewModels, models)
	}

	// Init -> CategoriesExtracted
	categories := ExtractCategories(ctx, CategoryStrategies(g.Client, g.Opts), reviews, g.logger())
	if len(categories) == 0 {
		return g.basicReport(ctx, projectName, results, reviews, reviewModels, models)
	}

	degraded := false

	// CategoriesExtracted -> FindingsExtracted
	findings, err := ExtractFindings(ctx, g.Client, g.Opts, reviews, categories, models, g.logger())
	if err != nil {
		g.logger().Warn("finding extraction failed, continuing with empty findings", "error", err)
		findings = nil
		degraded = true
	}

	// FindingsExtracted -> Analyzed. Agreement analysis is pure; insight and
	// priority extraction are failure-isolated from it and from each other.
	agreement := report.AnalyzeModelAgreement(reviews, modelIDs(reviewModels))

	insights, err := ExtractInsights(ctx, g.Client, g.Opts, reviews, models)
	if err != nil {
		g.logger().Warn("insight extraction failed, continuing without insights", "error", err)
		insights = []report.ModelInsight{}
		degraded = true
	}

	priorities, err := ExtractPriorities(ctx, g.Client, g.Opts, reviews, findings)
	if err != nil {
		g.logger().Warn("priority extraction failed, continuing with empty tiers", "error", err)
		priorities = EmptyPriorities()
		degraded = true
	}

	// Analyzed -> Assembled: pure aggregation.
	byCategory := groupFindings(findings, categories)
	rep := &report.CodeReviewReport{
		ProjectName:                projectName,
		ReviewDate:                 g.timestamp(),
		RunID:                      ulid.Make().String(),
		Categories:                 categories,
		Models:                     models,
		ModelMetrics:               report.BuildModelMetrics(results),
		KeyStrengths:               keyFindings(findings, true),
		KeyAreasForImprovement:     keyFindings(findings, false),
		FindingsByCategory:         byCategory,
		ModelInsights:              insights,
		AgreementAnalysis:          agreement,
		AgreementStatistics:        report.CalculateAgreementStats(byCategory, categories, len(reviewModels)),
		PrioritizedRecommendations: priorities,
		Degraded:                   degraded,
	}
	return rep
}

// basicReport is the terminal safety net: categories from the regex path,
// one generic strength and improvement per category, metrics from raw
// counters. It cannot fail.
func (g *Generator) basicReport(ctx context.Context, projectName string, results []report.ModelResult, reviews []string, reviewModels []report.ModelInfo, models []report.ModelInfo) *report.CodeReviewReport {
	categories := ExtractCategories(ctx, []CategoryStrategy{headingCategories{}, defaultCategories{}}, reviews, g.logger())

	var strengths, improvements []report.Finding
	byCategory := make(map[string][]report.Finding, len(categories))
	for _, c := range categories {
		strength := report.Finding{
			Title:          c.Name + " practices observed",
			Description:    "The reviews touch on " + strings.ToLower(c.Name) + "; see the raw review text for detail.",
			Category:       c,
			IsStrength:     true,
			ModelAgreement: map[string]bool{},
		}
		improvement := report.Finding{
			Title:          "Review " + strings.ToLower(c.Name),
			Description:    "Detailed findings could not be synthesized for " + strings.ToLower(c.Name) + "; consult the raw reviews.",
			Category:       c,
			ModelAgreement: map[string]bool{},
		}
		strengths = append(strengths, strength)
		improvements = append(improvements, improvement)
		byCategory[c.ID] = []report.Finding{strength, improvement}
	}

	return &report.CodeReviewReport{
		ProjectName:                projectName,
		ReviewDate:                 g.timestamp(),
		RunID:                      ulid.Make().String(),
		Categories:                 categories,
		Models:                     models,
		ModelMetrics:               report.BuildModelMetrics(results),
		KeyStrengths:               strengths,
		KeyAreasForImprovement:     improvements,
		FindingsByCategory:         byCategory,
		ModelInsights:              []report.ModelInsight{},
		AgreementAnalysis:          report.AnalyzeModelAgreement(reviews, modelIDs(reviewModels)),
		AgreementStatistics:        report.CalculateAgreementStats(byCategory, categories, len(reviewModels)),
		PrioritizedRecommendations: EmptyPriorities(),
		Degraded:                   true,
	}
}

// alignReviews returns the index-aligned review texts and model infos for
// results that produced a review. Failed runs keep their metrics row but do
// not feed the text analysis.
func alignReviews(results []report.ModelResult) ([]string, []report.ModelInfo) {
	var reviews []string
	var models []report.ModelInfo
	for _, r := range results {
		if strings.TrimSpace(r.Review) == "" {
			continue
		}
		reviews = append(reviews, r.Review)
		models = append(models, report.NewModelInfo(r.Model))
	}
	return reviews, models
}

func modelList(results []report.ModelResult) []report.ModelInfo {
	models := make([]report.ModelInfo, 0, len(results))
	for _, r := range results {
		models = append(models, report.NewModelInfo(r.Model))
	}
	return models
}

func modelIDs(models []report.ModelInfo) []string {
	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	return ids
}

// groupFindings buckets findings by category id, keyed for every known
// category so downstream consumers see empty slices rather than absent keys.
func groupFindings(findings []report.Finding, categories []report.Category) map[string][]report.Finding {
	out := make(map[string][]report.Finding, len(categories))
	for _, c := range categories {
		out[c.ID] = []report.Finding{}
	}
	for _, f := range findings {
		out[f.Category.ID] = append(out[f.Category.ID], f)
	}
	return out
}

// keyFindings picks the most-agreed findings of one polarity.
func keyFindings(findings []report.Finding, strengths bool) []report.Finding {
	var picked []report.Finding
	for _, f := range findings {
		if f.IsStrength == strengths {
			picked = append(picked, f)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].AgreementCount() > picked[j].AgreementCount()
	})
	if len(picked) > maxKeyFindings {
		picked = picked[:maxKeyFindings]
	}
	if picked == nil {
		picked = []report.Finding{}
	}
	return picked
}
