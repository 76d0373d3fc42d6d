package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "markdown", cfg.Format)
	assert.Equal(t, cfg.Models[0], cfg.SynthesizerSpec())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concord.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
models:
  - anthropic:claude-opus-4-2
synthesizer: openai:gpt-5.2
format: json
retry:
  max_retries: 5
  timeout_seconds: 60
pack:
  token_budget: 50000
  exclude:
    - "*_test.go"
costs:
  my-local-model:
    input: 0.1
    output: 0.2
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"anthropic:claude-opus-4-2"}, cfg.Models)
	assert.Equal(t, "openai:gpt-5.2", cfg.SynthesizerSpec())
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 50000, cfg.Pack.TokenBudget)
	assert.Equal(t, []string{"*_test.go"}, cfg.Pack.Exclude)

	// Untouched sections keep defaults.
	assert.Equal(t, 8192, cfg.MaxTokens)
	assert.True(t, cfg.Privacy.RedactSecrets)

	r, ok := cfg.Rates().Lookup("my-local-model")
	assert.True(t, ok)
	assert.Equal(t, 0.1, r.InputPerM)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadSpec(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Models = []string{"not-a-spec"}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Models = nil
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Synthesizer = ":bad"
	assert.Error(t, cfg.Validate())
}

func TestResilientConversion(t *testing.T) {
	cfg := DefaultConfig()
	opts := cfg.Resilient()
	assert.Equal(t, 3, opts.MaxRetries)
	assert.Equal(t, 120*time.Second, opts.Timeout)
	assert.Equal(t, time.Second, opts.BaseDelay)
	assert.Equal(t, 30*time.Second, opts.MaxDelay)
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".concord.yaml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Models, cfg.Models)

	// Refuses to clobber.
	assert.Error(t, WriteDefault(path))
}
