package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelMetrics(t *testing.T) {
	m := NewModelMetrics(ModelResult{
		Model:   "GPT-5.2",
		Review:  "fine",
		Metrics: RunMetrics{LatencyMs: 2000, TotalTokens: 5000, Cost: 0.05},
	})
	assert.Equal(t, "gpt-5.2", m.Model.ID)
	assert.Equal(t, "GPT-5.2", m.Model.Name)
	assert.Equal(t, StatusCompleted, m.Status)
	assert.Equal(t, int64(2000), m.LatencyMs)
	assert.Equal(t, 5000, m.TotalTokens)
	assert.InDelta(t, 0.05, m.Cost, 1e-9)
	assert.InDelta(t, 0.01, m.CostPer1kTokens, 1e-9)
}

func TestNewModelMetricsZeroTokens(t *testing.T) {
	m := NewModelMetrics(ModelResult{
		Model:   "gpt-5.2",
		Metrics: RunMetrics{Cost: 0.05},
	})
	assert.Zero(t, m.CostPer1kTokens)
}

func TestNewModelMetricsFailedRun(t *testing.T) {
	m := NewModelMetrics(ModelResult{
		Model:   "gpt-5.2",
		Metrics: RunMetrics{LatencyMs: 120, Error: "timeout after 3 attempts"},
	})
	assert.Equal(t, StatusFailed, m.Status)
}

func TestBuildModelMetricsPreservesOrder(t *testing.T) {
	results := []ModelResult{
		{Model: "b-model"},
		{Model: "a-model"},
	}
	metrics := BuildModelMetrics(results)
	require.Len(t, metrics, 2)
	assert.Equal(t, "b-model", metrics[0].Model.ID)
	assert.Equal(t, "a-model", metrics[1].Model.ID)
}

func TestCategoryID(t *testing.T) {
	assert.Equal(t, "category_0_code-quality", CategoryID(0, "Code Quality"))
	assert.Equal(t, "category_3_error-handling", CategoryID(3, "Error  Handling!"))
}
