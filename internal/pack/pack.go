package pack

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-git/v6/plumbing/format/gitignore"

	"github.com/dshills/concord/internal/redact"
)

// charsPerToken is the approximate rune-to-token ratio for code. Exact
// counts vary per tokenizer; 4 is a conservative estimate.
const charsPerToken = 4.0

// DefaultTokenBudget bounds the packed document size.
const DefaultTokenBudget = 120_000

// defaultMaxFileBytes skips any single file larger than this before packing.
const defaultMaxFileBytes = 256 * 1024

// skipDirs are never descended into regardless of ignore configuration.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
}

// Options configures a packing run.
type Options struct {
	Root          string
	TokenBudget   int
	MaxFileBytes  int64
	Exclude       []string // gitignore-syntax patterns
	UseGitignore  bool
	RedactSecrets bool
	RedactPaths   []string
	Logger        *slog.Logger
}

// File is one packed source file.
type File struct {
	Path    string
	Content string
	Tokens  int
}

// Result is a packed source tree.
type Result struct {
	ProjectName string
	Files       []File
	Packed      string
	Tokens      int
	Dropped     []string // paths removed to fit the token budget
}

// EstimateTokens approximates the token count of text from its rune count.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return int(float64(utf8.RuneCountInString(text))/charsPerToken + 0.5)
}

// Pack walks the tree under opts.Root and builds the packed document.
func Pack(opts Options) (*Result, error) {
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.TokenBudget <= 0 {
		opts.TokenBudget = DefaultTokenBudget
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = defaultMaxFileBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	if info, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("reading root: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", opts.Root)
	}

	matcher := buildMatcher(root, opts)

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		parts := strings.Split(rel, string(filepath.Separator))

		if d.IsDir() {
			if skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			if matcher != nil && matcher.Match(parts, true) {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if matcher != nil && matcher.Match(parts, false) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > opts.MaxFileBytes {
			logger.Debug("skipping oversized file", "path", rel, "bytes", info.Size())
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable file", "path", rel, "error", err)
			return nil
		}
		if isBinary(data) {
			return nil
		}

		content := string(data)
		if opts.RedactSecrets {
			content = redact.Content(content, rel, opts.RedactPaths)
		}
		rel = filepath.ToSlash(rel)
		files = append(files, File{Path: rel, Content: content})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", opts.Root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	for i := range files {
		files[i].Tokens = EstimateTokens(renderFile(files[i]))
	}

	files, dropped := trimToBudget(files, opts.TokenBudget, logger)

	var b strings.Builder
	total := 0
	for _, f := range files {
		b.WriteString(renderFile(f))
		total += f.Tokens
	}

	return &Result{
		ProjectName: filepath.Base(root),
		Files:       files,
		Packed:      b.String(),
		Tokens:      total,
		Dropped:     dropped,
	}, nil
}

func buildMatcher(root string, opts Options) gitignore.Matcher {
	var patterns []gitignore.Pattern
	for _, p := range opts.Exclude {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}
	if opts.UseGitignore {
		if gitPatterns, err := gitignore.ReadPatterns(osfs.New(root), nil); err == nil {
			patterns = append(patterns, gitPatterns...)
		}
	}
	if len(patterns) == 0 {
		return nil
	}
	return gitignore.NewMatcher(patterns)
}

// trimToBudget drops the largest files until the total fits, preserving path
// order among the survivors.
func trimToBudget(files []File, budget int, logger *slog.Logger) ([]File, []string) {
	total := 0
	for _, f := range files {
		total += f.Tokens
	}
	if total <= budget {
		return files, nil
	}

	bySize := make([]int, len(files))
	for i := range bySize {
		bySize[i] = i
	}
	sort.SliceStable(bySize, func(a, b int) bool {
		return files[bySize[a]].Tokens > files[bySize[b]].Tokens
	})

	cut := make(map[int]bool)
	var dropped []string
	for _, idx := range bySize {
		if total <= budget {
			break
		}
		total -= files[idx].Tokens
		cut[idx] = true
		dropped = append(dropped, files[idx].Path)
		logger.Warn("dropping file to fit token budget", "path", files[idx].Path, "tokens", files[idx].Tokens)
	}

	kept := make([]File, 0, len(files)-len(cut))
	for i, f := range files {
		if !cut[i] {
			kept = append(kept, f)
		}
	}
	sort.Strings(dropped)
	return kept, dropped
}

func renderFile(f File) string {
	lang := languageForPath(f.Path)
	content := f.Content
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return fmt.Sprintf("## %s\n```%s\n%s```\n\n", f.Path, lang, content)
}

// isBinary reports whether data looks like a binary file: a NUL byte in the
// first chunk or invalid UTF-8.
func isBinary(data []byte) bool {
	probe := data
	if len(probe) > 8000 {
		probe = probe[:8000]
	}
	if bytes.IndexByte(probe, 0) >= 0 {
		return true
	}
	return !utf8.Valid(data)
}

var extLanguages = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".ts":    "typescript",
	".tsx":   "tsx",
	".jsx":   "jsx",
	".rs":    "rust",
	".rb":    "ruby",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cs":    "csharp",
	".sh":    "bash",
	".sql":   "sql",
	".yaml":  "yaml",
	".yml":   "yaml",
	".json":  "json",
	".toml":  "toml",
	".md":    "markdown",
	".html":  "html",
	".css":   "css",
	".proto": "protobuf",
}

func languageForPath(path string) string {
	if lang, ok := extLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return ""
}
