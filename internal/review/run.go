package review

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/dshills/concord/internal/cost"
	"github.com/dshills/concord/internal/providers"
	"github.com/dshills/concord/internal/report"
	"github.com/dshills/concord/internal/resilient"
)

// ErrAllModelsFailed is returned when no model produced a review. Partial
// results still accompany the error.
var ErrAllModelsFailed = errors.New("all models failed to produce a review")

// Options configures a multi-model review run.
type Options struct {
	// Specs are "provider:model" strings, one review per spec.
	Specs     []string
	MaxTokens int
	Resilient resilient.Options
	Rates     cost.Table
	Logger    *slog.Logger

	// OnResult fires once per finished model, successful or not. Callers use
	// it to drive progress display.
	OnResult func(model string, err error)

	// newProvider is swappable for tests.
	newProvider func(spec string) (providers.Provider, error)
}

func (o Options) withDefaults() Options {
	if o.MaxTokens == 0 {
		o.MaxTokens = 8192
	}
	if o.Rates == nil {
		o.Rates = cost.DefaultTable()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.newProvider == nil {
		o.newProvider = providers.FromSpec
	}
	return o
}

// Run reviews the packed source with every configured model in parallel.
// Results stay index-aligned with opts.Specs; a failed model keeps its slot
// with the error recorded in its metrics.
func Run(ctx context.Context, projectName, packed string, opts Options) ([]report.ModelResult, error) {
	opts = opts.withDefaults()
	if len(opts.Specs) == 0 {
		return nil, errors.New("no models configured")
	}

	req := providers.ReviewRequest{
		SystemPrompt: SystemPrompt(),
		UserPrompt:   BuildReviewPrompt(projectName, packed),
		MaxTokens:    opts.MaxTokens,
	}

	results := make([]report.ModelResult, len(opts.Specs))
	p := pool.New().WithMaxGoroutines(len(opts.Specs))
	for i, spec := range opts.Specs {
		p.Go(func() {
			results[i] = runOne(ctx, spec, req, opts)
			if opts.OnResult != nil {
				err := error(nil)
				if results[i].Metrics.Error != "" {
					err = errors.New(results[i].Metrics.Error)
				}
				opts.OnResult(results[i].Model, err)
			}
		})
	}
	p.Wait()

	failed := 0
	for _, r := range results {
		if r.Metrics.Error != "" {
			failed++
		}
	}
	if failed == len(results) {
		return results, ErrAllModelsFailed
	}
	return results, nil
}

func runOne(ctx context.Context, spec string, req providers.ReviewRequest, opts Options) report.ModelResult {
	start := time.Now()

	provider, err := opts.newProvider(spec)
	if err != nil {
		return report.ModelResult{
			Model:   spec,
			Metrics: report.RunMetrics{Error: err.Error()},
		}
	}

	result := report.ModelResult{Model: provider.Model()}
	resp, err := resilient.Do(ctx, spec, opts.Resilient, func(ctx context.Context) (providers.ReviewResponse, error) {
		return provider.Review(ctx, req)
	})
	result.Metrics.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		opts.Logger.Warn("model review failed", "model", spec, "error", err)
		result.Metrics.Error = err.Error()
		return result
	}

	result.Review = resp.Content
	result.Metrics.TotalTokens = resp.TotalTokens()
	result.Metrics.Cost = opts.Rates.Estimate(provider.Model(), resp.InputTokens, resp.OutputTokens)
	return result
}
