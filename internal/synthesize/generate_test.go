package synthesize

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/concord/internal/report"
	"github.com/dshills/concord/internal/resilient"
)

// fastOpts keeps retry backoff out of test wall time.
func fastOpts() resilient.Options {
	return resilient.Options{
		MaxRetries: 1,
		Timeout:    time.Second,
		BaseDelay:  time.Nanosecond,
		MaxDelay:   time.Nanosecond,
	}
}

// fakeClient serves canned JSON keyed by schema name.
type fakeClient struct {
	responses   map[string]string
	err         error
	calls       []string
	unavailable bool
}

func (f *fakeClient) Available() bool { return !f.unavailable }

func (f *fakeClient) RunStructured(_ context.Context, _ string, schema *Schema) (json.RawMessage, error) {
	f.calls = append(f.calls, schema.Name)
	if f.err != nil {
		return nil, f.err
	}
	raw, ok := f.responses[schema.Name]
	if !ok {
		return nil, errors.New("no canned response for " + schema.Name)
	}
	if err := schema.Validate([]byte(raw)); err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func fullResponses() map[string]string {
	return map[string]string{
		"categories.json": `{"categories": [
			{"name": "Security", "description": "Vulnerabilities and unsafe data handling"},
			{"name": "Performance", "description": "Efficiency and resource usage"}
		]}`,
		"findings.json": `{"findings": [
			{
				"title": "SQL injection in query builder",
				"description": "User input is concatenated into SQL strings.",
				"categoryName": "security",
				"isStrength": false,
				"modelAgreement": {"gpt-5.2": true, "claude-sonnet-4-6": true},
				"recommendation": "Use parameterized queries."
			},
			{
				"title": "Efficient connection pooling",
				"description": "The pool reuses connections correctly.",
				"categoryName": "Performance",
				"isStrength": true,
				"modelAgreement": {"gpt-5.2": true}
			}
		]}`,
		"insights.json": `{"insights": [
			{"model": "gpt-5.2", "summary": "Focused on correctness.", "keyPoints": ["Input validation"]}
		]}`,
		"priorities.json": `{"high": ["Fix the SQL injection"], "medium": [], "low": ["Add package docs"]}`,
	}
}

func sampleResults() []report.ModelResult {
	return []report.ModelResult{
		{
			Model:   "GPT-5.2",
			Review:  "## Security\nThe query builder concatenates user input into SQL, a clear SQL injection risk.\n\n## Performance\nConnection pooling looks efficient.",
			Metrics: report.RunMetrics{LatencyMs: 2000, TotalTokens: 5000, Cost: 0.05},
		},
		{
			Model:   "Claude-Sonnet-4-6",
			Review:  "## Security\nSQL injection is possible because queries are built by string concatenation.",
			Metrics: report.RunMetrics{LatencyMs: 1500, TotalTokens: 4000, Cost: 0.04},
		},
	}
}

func TestGenerateFullPipeline(t *testing.T) {
	client := &fakeClient{responses: fullResponses()}
	gen := NewGenerator(client)
	gen.Opts = fastOpts()

	rep := gen.Generate(context.Background(), "demo", sampleResults())
	require.NotNil(t, rep)

	assert.Equal(t, "demo", rep.ProjectName)
	assert.NotEmpty(t, rep.RunID)
	assert.False(t, rep.Degraded)

	require.Len(t, rep.Categories, 2)
	assert.Equal(t, "category_0_security", rep.Categories[0].ID)
	assert.Equal(t, "category_1_performance", rep.Categories[1].ID)

	require.Len(t, rep.Models, 2)
	assert.Equal(t, "gpt-5.2", rep.Models[0].ID)

	require.Len(t, rep.ModelMetrics, 2)
	assert.Equal(t, report.StatusCompleted, rep.ModelMetrics[0].Status)
	assert.InDelta(t, 0.01, rep.ModelMetrics[0].CostPer1kTokens, 1e-9)

	require.Len(t, rep.KeyAreasForImprovement, 1)
	assert.Equal(t, "SQL injection in query builder", rep.KeyAreasForImprovement[0].Title)
	assert.Equal(t, 2, rep.KeyAreasForImprovement[0].AgreementCount())
	require.Len(t, rep.KeyStrengths, 1)

	// Every category has a findings key, even when empty.
	for _, c := range rep.Categories {
		_, ok := rep.FindingsByCategory[c.ID]
		assert.True(t, ok, "missing findings key for %s", c.ID)
	}

	require.Len(t, rep.ModelInsights, 1)
	assert.Equal(t, "gpt-5.2", rep.ModelInsights[0].Model.ID)

	assert.Equal(t, []string{"Fix the SQL injection"}, rep.PrioritizedRecommendations[report.PriorityHigh])
	assert.NotEmpty(t, rep.AgreementAnalysis)
}

func TestGenerateTotalFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("provider is down")}
	gen := NewGenerator(client)
	gen.Opts = fastOpts()

	results := sampleResults()
	rep := gen.Generate(context.Background(), "demo", results)
	require.NotNil(t, rep)

	assert.NotNil(t, rep.Categories)
	assert.NotNil(t, rep.Models)
	assert.NotNil(t, rep.ModelMetrics)
	assert.NotEmpty(t, rep.Categories)
	assert.True(t, rep.Degraded)

	md := report.RenderMarkdown(rep)
	assert.NotEmpty(t, md)
}

func TestGenerateNilClientProducesBasicReport(t *testing.T) {
	gen := NewGenerator(nil)
	gen.Opts = fastOpts()

	rep := gen.Generate(context.Background(), "demo", sampleResults())
	require.NotNil(t, rep)
	assert.True(t, rep.Degraded)
	// Heading scraping finds the review section titles.
	names := make([]string, 0, len(rep.Categories))
	for _, c := range rep.Categories {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "Security")
	assert.NotEmpty(t, rep.KeyStrengths)
	assert.NotEmpty(t, rep.KeyAreasForImprovement)
}

func TestGenerateUnavailableClientProducesBasicReport(t *testing.T) {
	client := &fakeClient{responses: fullResponses(), unavailable: true}
	gen := NewGenerator(client)
	gen.Opts = fastOpts()

	rep := gen.Generate(context.Background(), "demo", sampleResults())
	require.NotNil(t, rep)
	assert.True(t, rep.Degraded)
	assert.NotEmpty(t, rep.KeyStrengths)
	assert.NotEmpty(t, rep.KeyAreasForImprovement)
	assert.Empty(t, client.calls, "an unavailable client must not be called")
}

func TestGenerateEmptyResults(t *testing.T) {
	gen := NewGenerator(nil)
	gen.Opts = fastOpts()

	rep := gen.Generate(context.Background(), "demo", nil)
	require.NotNil(t, rep)
	assert.NotNil(t, rep.ModelMetrics)
	assert.NotEmpty(t, rep.Categories)
	assert.NotEmpty(t, report.RenderMarkdown(rep))
}

func TestGenerateCategoryIDsUnique(t *testing.T) {
	client := &fakeClient{responses: map[string]string{
		"categories.json": `{"categories": [
			{"name": "Security"}, {"name": "Security"}, {"name": "Code Quality"}
		]}`,
	}}
	gen := NewGenerator(client)
	gen.Opts = fastOpts()

	rep := gen.Generate(context.Background(), "demo", sampleResults())
	seen := make(map[string]bool)
	for _, c := range rep.Categories {
		assert.False(t, seen[c.ID], "duplicate category id %s", c.ID)
		seen[c.ID] = true
	}
}

func TestGenerateFindingFailureIsPartial(t *testing.T) {
	responses := fullResponses()
	delete(responses, "findings.json")
	delete(responses, "insights.json")
	delete(responses, "priorities.json")
	client := &fakeClient{responses: responses}
	gen := NewGenerator(client)
	gen.Opts = fastOpts()

	rep := gen.Generate(context.Background(), "demo", sampleResults())
	require.NotNil(t, rep)
	// Categories survived, findings degraded to empty, pipeline kept going.
	assert.Len(t, rep.Categories, 2)
	assert.Empty(t, rep.KeyStrengths)
	assert.Empty(t, rep.KeyAreasForImprovement)
	assert.True(t, rep.Degraded)
	assert.Equal(t, EmptyPriorities(), rep.PrioritizedRecommendations)
}
