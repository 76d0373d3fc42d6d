package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

const placeholder = "[REDACTED]"

// rule pairs a secret family with the regex that detects it. Names show up
// only in tests; matching replaces the whole match with the placeholder.
type rule struct {
	name    string
	pattern *regexp.Regexp
}

var rules = []rule{
	{"api-key-assignment", regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`)},
	{"aws-access-key-id", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"aws-secret-key", regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`)},
	{"credential-assignment", regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`)},
	{"bearer-token", regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)},
	{"private-key-block", regexp.MustCompile(`-----BEGIN\s+(RSA\s+)?PRIVATE KEY-----`)},
	{"github-token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
	{"slack-token", regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`)},
	{"anthropic-key", regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`)},
	{"openai-key", regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)},
	{"hex-secret-assignment", regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`)},
}

// Secrets replaces anything that looks like a credential with [REDACTED].
// It is heuristic by nature; false negatives are possible, which is why
// path-level policies exist for files that are secrets wholesale.
func Secrets(text string) string {
	for _, r := range rules {
		text = r.pattern.ReplaceAllString(text, placeholder)
	}
	return text
}

// ShouldRedactPath reports whether path matches any redaction glob.
// Patterns with a "**/" prefix also match against the bare filename, so
// "**/.env" catches both ".env" and "config/.env".
func ShouldRedactPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, path); err == nil && ok {
			return true
		}
		if suffix := strings.TrimPrefix(pattern, "**/"); suffix != pattern {
			if ok, err := filepath.Match(suffix, filepath.Base(path)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// Content applies the redaction policy to one packed file. Files matching a
// path pattern are dropped entirely; everything else gets secret scrubbing.
func Content(content, path string, redactPaths []string) string {
	if ShouldRedactPath(path, redactPaths) {
		return placeholder + " (file content redacted by path policy)\n"
	}
	return Secrets(content)
}
