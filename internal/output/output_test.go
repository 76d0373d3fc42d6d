package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/concord/internal/report"
)

func sampleReport() *report.CodeReviewReport {
	return &report.CodeReviewReport{
		ProjectName: "demo",
		ReviewDate:  time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		RunID:       "01K3ZD9YD0TEST",
		Categories:  []report.Category{{ID: "category_0_security", Name: "Security"}},
		Models:      []report.ModelInfo{{ID: "gpt-5.2", Name: "GPT-5.2"}},
		ModelMetrics: []report.ModelMetrics{
			{Model: report.ModelInfo{ID: "gpt-5.2", Name: "GPT-5.2"}, Status: report.StatusCompleted, LatencyMs: 1200, TotalTokens: 4000, Cost: 0.04, CostPer1kTokens: 0.01},
		},
		KeyAreasForImprovement: []report.Finding{{
			Title:          "SQL injection in query builder",
			Category:       report.Category{ID: "category_0_security", Name: "Security"},
			ModelAgreement: map[string]bool{"gpt-5.2": true},
		}},
		FindingsByCategory: map[string][]report.Finding{"category_0_security": {}},
		PrioritizedRecommendations: map[string][]string{
			report.PriorityHigh: {"Fix the SQL injection"},
		},
	}
}

func TestGetWriter(t *testing.T) {
	for _, format := range []string{"markdown", "md", "json", "html", "text"} {
		w, err := GetWriter(format)
		require.NoError(t, err, format)
		assert.NotNil(t, w, format)
	}
	_, err := GetWriter("sarif")
	assert.Error(t, err)
}

func TestJSONWriterRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONWriter{}).Write(&buf, sampleReport()))

	var decoded report.CodeReviewReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "demo", decoded.ProjectName)
	assert.Len(t, decoded.ModelMetrics, 1)
}

func TestMarkdownWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownWriter{}).Write(&buf, sampleReport()))
	assert.Contains(t, buf.String(), "# Code Review Report: demo")
}

func TestHTMLWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&HTMLWriter{}).Write(&buf, sampleReport()))
	out := buf.String()
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<title>Code Review Report: demo</title>")
	assert.Contains(t, out, "Code Review Report: demo</h1>")
	assert.Contains(t, out, "</html>")
}

func TestHTMLWriterNilReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&HTMLWriter{}).Write(&buf, nil))
	assert.Contains(t, buf.String(), "No report data available.")
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextWriter{}).Write(&buf, sampleReport()))
	out := buf.String()
	assert.Contains(t, out, "Concord Code Review")
	assert.Contains(t, out, "demo")
	assert.Contains(t, out, "GPT-5.2")
	assert.Contains(t, out, "SQL injection in query builder")
	assert.Contains(t, out, "1. Fix the SQL injection")
}

func TestTextWriterNilReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextWriter{}).Write(&buf, nil))
	assert.Contains(t, buf.String(), "No report data available.")
}
