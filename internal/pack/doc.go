// Package pack flattens a source tree into one prompt-ready document, one
// fenced block per file. It skips binary, oversized, and ignored files,
// estimates token usage with a chars-per-token heuristic, and drops the
// largest files first when the tree exceeds the token budget.
package pack
