package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dshills/concord/internal/config"
	"github.com/dshills/concord/internal/output"
	"github.com/dshills/concord/internal/pack"
	"github.com/dshills/concord/internal/providers"
	"github.com/dshills/concord/internal/report"
	"github.com/dshills/concord/internal/resilient"
	"github.com/dshills/concord/internal/review"
	"github.com/dshills/concord/internal/synthesize"
)

var (
	flagConfig      string
	flagModels      string
	flagSynthesizer string
	flagFormat      string
	flagOut         string
	flagTokenBudget int
	flagExclude     string
	flagNoRedact    bool
	flagVerbose     bool
)

var reviewCmd = &cobra.Command{
	Use:   "review [path]",
	Short: "Review a codebase with multiple models and synthesize one report",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		runReview(cmd.Context(), root)
	},
}

func init() {
	reviewCmd.Flags().StringVar(&flagConfig, "config", "", "Config file path")
	reviewCmd.Flags().StringVar(&flagModels, "models", "", "Comma-separated provider:model specs")
	reviewCmd.Flags().StringVar(&flagSynthesizer, "synthesizer", "", "provider:model used for report synthesis")
	reviewCmd.Flags().StringVar(&flagFormat, "format", "", "Output format (markdown, json, html, text)")
	reviewCmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	reviewCmd.Flags().IntVar(&flagTokenBudget, "token-budget", 0, "Token budget for the packed source")
	reviewCmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude patterns, gitignore syntax (comma-separated)")
	reviewCmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	reviewCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Verbose logging")
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}

	if flagModels != "" {
		cfg.Models = splitComma(flagModels)
	}
	if flagSynthesizer != "" {
		cfg.Synthesizer = flagSynthesizer
	}
	if flagFormat != "" {
		cfg.Format = flagFormat
	}
	if flagOut != "" {
		cfg.Out = flagOut
	}
	if flagTokenBudget > 0 {
		cfg.Pack.TokenBudget = flagTokenBudget
	}
	if flagExclude != "" {
		cfg.Pack.Exclude = append(cfg.Pack.Exclude, splitComma(flagExclude)...)
	}
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}
	if flagVerbose {
		cfg.Verbose = true
	}
	return cfg, cfg.Validate()
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runReview(ctx context.Context, root string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}
	logger := newLogger(cfg.Verbose)

	packed, err := pack.Pack(pack.Options{
		Root:          root,
		TokenBudget:   cfg.Pack.TokenBudget,
		MaxFileBytes:  cfg.Pack.MaxFileKB * 1024,
		Exclude:       cfg.Pack.Exclude,
		UseGitignore:  cfg.Pack.Gitignore,
		RedactSecrets: cfg.Privacy.RedactSecrets,
		RedactPaths:   cfg.Privacy.RedactPaths,
		Logger:        logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error packing source: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	if len(packed.Files) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no reviewable files found")
		exitCode = ExitUsageError
		return
	}
	logger.Debug("packed source tree",
		"files", len(packed.Files), "tokens", packed.Tokens, "dropped", len(packed.Dropped))

	bar := progressbar.NewOptions(len(cfg.Models),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("reviewing"),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)

	results, err := review.Run(ctx, packed.ProjectName, packed.Packed, review.Options{
		Specs:     cfg.Models,
		MaxTokens: cfg.MaxTokens,
		Resilient: cfg.Resilient(),
		Rates:     cfg.Rates(),
		Logger:    logger,
		OnResult: func(model string, err error) {
			_ = bar.Add(1)
			if err != nil {
				fmt.Fprintf(os.Stderr, "\n%s failed: %v\n", model, err)
			}
		},
	})
	_ = bar.Finish()
	if err != nil && !errors.Is(err, review.ErrAllModelsFailed) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	if errors.Is(err, review.ErrAllModelsFailed) {
		fmt.Fprintln(os.Stderr, "Warning: every model failed; emitting a fallback report")
		if allAuthFailures(results) {
			exitCode = ExitAuthError
		}
	}

	gen := synthesize.NewGenerator(synthesizeClient(cfg, logger))
	gen.Opts = cfg.Resilient()
	gen.Logger = logger

	rep := gen.Generate(ctx, packed.ProjectName, results)

	if err := output.WriteReport(rep, cfg.Format, cfg.Out); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	if cfg.Out != "" {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", cfg.Out)
	}
}

// synthesizeClient builds the structured-extraction client, or nil when the
// synthesizer provider cannot be constructed (the generator then degrades to
// a basic report).
func synthesizeClient(cfg *config.Config, logger *slog.Logger) synthesize.Client {
	spec := cfg.SynthesizerSpec()
	if spec == "" {
		return nil
	}
	p, err := providers.FromSpec(spec)
	if err != nil {
		logger.Warn("synthesizer unavailable", "spec", spec, "error", err)
		return nil
	}
	return synthesize.NewModelClient(p)
}

// allAuthFailures reports whether every model failed with an authentication
// error. Only the message survives into the result, so this reclassifies
// from the error text.
func allAuthFailures(results []report.ModelResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if r.Metrics.Error == "" {
			return false
		}
		if resilient.Classify(errors.New(r.Metrics.Error)) != resilient.KindAuthentication {
			return false
		}
	}
	return true
}

func splitComma(s string) []string {
	var result []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
