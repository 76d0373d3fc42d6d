package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/concord/internal/cost"
	"github.com/dshills/concord/internal/providers"
	"github.com/dshills/concord/internal/resilient"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Provider and model management",
}

type providerModels struct {
	Provider string
	Models   []string
}

var knownModels = []providerModels{
	{
		Provider: "anthropic",
		Models: []string{
			"claude-sonnet-4-6",
			"claude-opus-4-6",
			"claude-haiku-4-5",
		},
	},
	{
		Provider: "openai",
		Models: []string{
			"gpt-5.2",
			"gpt-5.2-codex",
			"gpt-4.1-mini",
			"o3-mini",
		},
	},
	{
		Provider: "gemini",
		Models: []string{
			"gemini-3-pro-preview",
			"gemini-2.5-pro",
			"gemini-2.5-flash",
		},
	},
	{
		Provider: "ollama",
		Models: []string{
			"llama3.3",
			"qwen2.5-coder",
			"deepseek-coder-v2",
		},
	},
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known providers and models",
	Run: func(cmd *cobra.Command, args []string) {
		rates := cost.DefaultTable()
		for _, info := range knownModels {
			fmt.Fprintf(os.Stdout, "%s:\n", info.Provider)
			for _, m := range info.Models {
				if r, ok := rates.Lookup(m); ok {
					fmt.Fprintf(os.Stdout, "  - %s ($%.2f/$%.2f per 1M tokens)\n", m, r.InputPerM, r.OutputPerM)
				} else {
					fmt.Fprintf(os.Stdout, "  - %s\n", m)
				}
			}
			fmt.Fprintln(os.Stdout)
		}
	},
}

var flagDoctorSpec string

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate provider credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := flagDoctorSpec
		if spec == "" {
			spec = "anthropic:claude-sonnet-4-6"
		}

		fmt.Fprintf(os.Stdout, "Checking %s...\n", spec)

		p, err := providers.FromSpec(spec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		_, err = p.Review(ctx, providers.ReviewRequest{
			SystemPrompt: "Respond with exactly: ok",
			UserPrompt:   "ping",
			MaxTokens:    10,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			if resilient.Classify(err) == resilient.KindAuthentication {
				exitCode = ExitAuthError
			} else {
				exitCode = ExitRuntimeError
			}
			return nil
		}

		fmt.Fprintf(os.Stdout, "OK: %s is configured and responding\n", spec)
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
	modelsDoctorCmd.Flags().StringVar(&flagDoctorSpec, "model", "", "provider:model spec to check")
}
