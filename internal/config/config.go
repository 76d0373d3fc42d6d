package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/dshills/concord/internal/cost"
	"github.com/dshills/concord/internal/providers"
	"github.com/dshills/concord/internal/resilient"
)

// Config holds all settings for a concord run.
type Config struct {
	// Models are "provider:model" specs, one review per entry.
	Models []string `koanf:"models" yaml:"models"`
	// Synthesizer is the "provider:model" spec used for structured
	// extraction. Empty means the first entry of Models.
	Synthesizer string `koanf:"synthesizer" yaml:"synthesizer"`

	Format  string `koanf:"format" yaml:"format"`
	Out     string `koanf:"out" yaml:"out,omitempty"`
	Verbose bool   `koanf:"verbose" yaml:"verbose"`

	MaxTokens int `koanf:"max_tokens" yaml:"max_tokens"`

	Retry   RetryConfig   `koanf:"retry" yaml:"retry"`
	Pack    PackConfig    `koanf:"pack" yaml:"pack"`
	Privacy PrivacyConfig `koanf:"privacy" yaml:"privacy"`

	// Costs overlays the built-in rate table, keyed by model name.
	Costs map[string]cost.Rate `koanf:"costs" yaml:"costs,omitempty"`
}

// RetryConfig tunes the resilient call layer.
type RetryConfig struct {
	MaxRetries     int `koanf:"max_retries" yaml:"max_retries"`
	TimeoutSeconds int `koanf:"timeout_seconds" yaml:"timeout_seconds"`
	BaseDelayMs    int `koanf:"base_delay_ms" yaml:"base_delay_ms"`
	MaxDelayMs     int `koanf:"max_delay_ms" yaml:"max_delay_ms"`
}

// PackConfig tunes the source packer.
type PackConfig struct {
	TokenBudget int      `koanf:"token_budget" yaml:"token_budget"`
	MaxFileKB   int64    `koanf:"max_file_kb" yaml:"max_file_kb"`
	Exclude     []string `koanf:"exclude" yaml:"exclude,omitempty"`
	Gitignore   bool     `koanf:"gitignore" yaml:"gitignore"`
}

// PrivacyConfig controls secret redaction of packed source.
type PrivacyConfig struct {
	RedactSecrets bool     `koanf:"redact_secrets" yaml:"redact_secrets"`
	RedactPaths   []string `koanf:"redact_paths" yaml:"redact_paths,omitempty"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Models: []string{
			"anthropic:claude-sonnet-4-6",
			"openai:gpt-5.2",
		},
		Format:    "markdown",
		MaxTokens: 8192,
		Retry: RetryConfig{
			MaxRetries:     3,
			TimeoutSeconds: 120,
			BaseDelayMs:    1000,
			MaxDelayMs:     30000,
		},
		Pack: PackConfig{
			TokenBudget: 120_000,
			MaxFileKB:   256,
			Gitignore:   true,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*.pem", "**/id_rsa"},
		},
	}
}

// searchPaths are checked in order by LoadOrDefault.
var searchPaths = []string{".concord.yaml", ".concord.yml", "concord.yaml", "concord.yml"}

// Load reads the config file at path over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads the first config file found in the working directory,
// or defaults when none exists.
func LoadOrDefault() *Config {
	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			if cfg, err := Load(path); err == nil {
				return cfg
			}
		}
	}
	return DefaultConfig()
}

// WriteDefault writes the default config as YAML to path. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	data, err := yamlv3.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the config for unusable values.
func (c *Config) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model must be configured")
	}
	for _, spec := range c.Models {
		if _, _, err := providers.ParseSpec(spec); err != nil {
			return fmt.Errorf("models: %w", err)
		}
	}
	if c.Synthesizer != "" {
		if _, _, err := providers.ParseSpec(c.Synthesizer); err != nil {
			return fmt.Errorf("synthesizer: %w", err)
		}
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be positive")
	}
	return nil
}

// SynthesizerSpec returns the extraction model spec, defaulting to the first
// review model.
func (c *Config) SynthesizerSpec() string {
	if c.Synthesizer != "" {
		return c.Synthesizer
	}
	if len(c.Models) > 0 {
		return c.Models[0]
	}
	return ""
}

// Resilient converts the retry settings into resilient options.
func (c *Config) Resilient() resilient.Options {
	return resilient.Options{
		MaxRetries: c.Retry.MaxRetries,
		Timeout:    time.Duration(c.Retry.TimeoutSeconds) * time.Second,
		BaseDelay:  time.Duration(c.Retry.BaseDelayMs) * time.Millisecond,
		MaxDelay:   time.Duration(c.Retry.MaxDelayMs) * time.Millisecond,
	}
}

// Rates returns the built-in rate table merged with configured overrides.
func (c *Config) Rates() cost.Table {
	return cost.DefaultTable().Merge(cost.Table(c.Costs))
}
