package pack

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPackBasic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")
	writeFile(t, root, "internal/util.go", "package internal\n")
	writeFile(t, root, "README.md", "# demo\n")

	res, err := Pack(Options{Root: root})
	require.NoError(t, err)

	require.Len(t, res.Files, 3)
	// Deterministic path order.
	assert.Equal(t, "README.md", res.Files[0].Path)
	assert.Equal(t, "internal/util.go", res.Files[1].Path)
	assert.Equal(t, "main.go", res.Files[2].Path)

	assert.Contains(t, res.Packed, "## main.go\n```go\npackage main")
	assert.Contains(t, res.Packed, "## README.md\n```markdown\n")
	assert.Equal(t, filepath.Base(root), res.ProjectName)
	assert.Positive(t, res.Tokens)
	assert.Empty(t, res.Dropped)
}

func TestPackSkipsBinaryHiddenAndVendor(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "logo.png", "\x89PNG\x00\x00binary")
	writeFile(t, root, ".env", "SECRET=abc")
	writeFile(t, root, ".github/ci.yml", "jobs:\n")
	writeFile(t, root, "vendor/dep/dep.go", "package dep\n")
	writeFile(t, root, "node_modules/x/index.js", "x\n")

	res, err := Pack(Options{Root: root})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "main.go", res.Files[0].Path)
}

func TestPackSkipsOversized(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.go", strings.Repeat("// padding\n", 100))
	writeFile(t, root, "small.go", "package small\n")

	res, err := Pack(Options{Root: root, MaxFileBytes: 64})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "small.go", res.Files[0].Path)
}

func TestPackExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "main_test.go", "package main\n")
	writeFile(t, root, "testdata/fixture.json", "{}\n")

	res, err := Pack(Options{Root: root, Exclude: []string{"*_test.go", "testdata/"}})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "main.go", res.Files[0].Path)
}

func TestPackGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "generated.go\n")
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "generated.go", "package main // generated\n")

	res, err := Pack(Options{Root: root, UseGitignore: true})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "main.go", res.Files[0].Path)
}

func TestPackRedactsSecrets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "config.go", `package config

var apiKey = "sk-ant-REDACTED"
`)

	res, err := Pack(Options{Root: root, RedactSecrets: true})
	require.NoError(t, err)
	assert.NotContains(t, res.Packed, "sk-ant-")
	assert.Contains(t, res.Packed, "[REDACTED]")
}

func TestPackTrimsLargestFirst(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "huge.go", strings.Repeat("var filler = 1\n", 200))
	writeFile(t, root, "tiny.go", "package tiny\n")

	full, err := Pack(Options{Root: root})
	require.NoError(t, err)
	budget := full.Tokens - 1

	res, err := Pack(Options{Root: root, TokenBudget: budget})
	require.NoError(t, err)
	assert.Equal(t, []string{"huge.go"}, res.Dropped)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "tiny.go", res.Files[0].Path)
	assert.LessOrEqual(t, res.Tokens, budget)
}

func TestPackMissingRoot(t *testing.T) {
	_, err := Pack(Options{Root: filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestEstimateTokens(t *testing.T) {
	assert.Zero(t, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("gogo"))
	assert.Equal(t, 3, EstimateTokens("twelve chars"))
}
