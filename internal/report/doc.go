// Package report defines the code review report model and the pure
// synthesis functions over it: per-model metrics derivation, cross-model
// agreement analysis of raw review text, and markdown rendering.
//
// Everything in this package is deterministic and total. The agreement
// analyzer classifies review paragraphs against a static keyword taxonomy
// (separate from the LLM-derived report categories), clusters near-duplicate
// findings by token-overlap similarity, and buckets them by how many models
// mention them. The markdown renderer never fails: missing or malformed
// fields render as placeholders, and a top-level recover produces a minimal
// error document instead of propagating.
package report
