// Package providers contains one adapter per supported LLM backend:
// Anthropic (official SDK), OpenAI, Gemini, and Ollama/LM Studio
// (OpenAI-compatible endpoints).
//
// Adapters make exactly one attempt per call and surface HTTP failures as
// [resilient.StatusError] values; retry, backoff, and timeout policy belong
// to the resilient layer, which callers wrap around these adapters. HTTP
// response-shape parsing is confined to this package so the synthesis core
// never sees provider wire formats.
package providers
