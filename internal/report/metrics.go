package report

// Model run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// NewModelMetrics derives a normalized metrics row from one raw model result.
// costPer1kTokens is cost*1000/totalTokens, or 0 when no tokens were counted.
func NewModelMetrics(result ModelResult) ModelMetrics {
	m := ModelMetrics{
		Model:       NewModelInfo(result.Model),
		Status:      StatusCompleted,
		LatencyMs:   result.Metrics.LatencyMs,
		Cost:        result.Metrics.Cost,
		TotalTokens: result.Metrics.TotalTokens,
	}
	if result.Metrics.Error != "" {
		m.Status = StatusFailed
	}
	if m.TotalTokens > 0 {
		m.CostPer1kTokens = m.Cost * 1000 / float64(m.TotalTokens)
	}
	return m
}

// BuildModelMetrics maps raw results to metrics rows, preserving input order.
func BuildModelMetrics(results []ModelResult) []ModelMetrics {
	metrics := make([]ModelMetrics, 0, len(results))
	for _, r := range results {
		metrics = append(metrics, NewModelMetrics(r))
	}
	return metrics
}
