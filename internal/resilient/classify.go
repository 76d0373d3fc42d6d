package resilient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the fixed failure taxonomy.
type Kind string

const (
	KindTimeout         Kind = "timeout"
	KindAuthentication  Kind = "authentication"
	KindRateLimit       Kind = "rate_limit"
	KindInputTooLarge   Kind = "input_too_large"
	KindNetwork         Kind = "network"
	KindInvalidResponse Kind = "invalid_response"
	KindUnknown         Kind = "unknown"
)

// Retryable reports whether calls failing with this kind may be retried.
// The mapping is fixed: transient conditions retry, everything else fails fast.
func (k Kind) Retryable() bool {
	switch k {
	case KindTimeout, KindRateLimit, KindNetwork, KindInvalidResponse:
		return true
	default:
		return false
	}
}

// StatusError carries an HTTP status from a provider adapter so that
// classification can branch on the code instead of the message text.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("API error (status %d): %s", e.Status, body)
}

// InvalidResponseError marks a response that arrived but could not be used:
// malformed JSON, schema violations, or a missing expected shape.
type InvalidResponseError struct {
	Reason string
	Cause  error
}

func (e *InvalidResponseError) Error() string {
	if e.Cause != nil {
		return "invalid response: " + e.Reason + ": " + e.Cause.Error()
	}
	return "invalid response: " + e.Reason
}

func (e *InvalidResponseError) Unwrap() error { return e.Cause }

// Error is a categorized failure raised after classification, carrying the
// originating component and the last underlying cause for diagnostics.
type Error struct {
	Kind      Kind
	Component string
	Attempts  int
	Cause     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s after %d attempt(s): %v", e.Component, e.Kind, e.Attempts, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether the error's kind permits another attempt.
func (e *Error) Retryable() bool { return e.Kind.Retryable() }

// Classify maps an arbitrary error onto the taxonomy. Structured signals
// (context errors, StatusError, InvalidResponseError) are checked first;
// message substrings are the fallback heuristic.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}

	var ire *InvalidResponseError
	if errors.As(err, &ire) {
		return KindInvalidResponse
	}

	var se *StatusError
	if errors.As(err, &se) {
		return classifyStatus(se.Status)
	}

	return classifyMessage(err.Error())
}

func classifyStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuthentication
	case http.StatusTooManyRequests:
		return KindRateLimit
	case http.StatusRequestEntityTooLarge:
		return KindInputTooLarge
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	}
	if status >= 500 {
		return KindNetwork
	}
	return KindUnknown
}

// classifyMessage is the last-resort heuristic for errors with no structured
// status. The substrings mirror what the major provider APIs and the Go net
// stack actually emit; they are fragile by nature and intentionally checked
// only after everything structured has failed to match.
func classifyMessage(msg string) Kind {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "rate limit") || strings.Contains(m, "too many requests") || strings.Contains(m, "quota"):
		return KindRateLimit
	case strings.Contains(m, "timeout") || strings.Contains(m, "timed out") || strings.Contains(m, "deadline exceeded"):
		return KindTimeout
	case strings.Contains(m, "unauthorized") || strings.Contains(m, "authentication") || strings.Contains(m, "api key") || strings.Contains(m, "permission denied"):
		return KindAuthentication
	case strings.Contains(m, "token limit") || strings.Contains(m, "context length") || strings.Contains(m, "too large") || strings.Contains(m, "maximum context"):
		return KindInputTooLarge
	case strings.Contains(m, "no such host") || strings.Contains(m, "connection refused") || strings.Contains(m, "connection reset") || strings.Contains(m, "enotfound") || strings.Contains(m, "broken pipe") || strings.Contains(m, "eof"):
		return KindNetwork
	case strings.Contains(m, "invalid json") || strings.Contains(m, "unmarshal") || strings.Contains(m, "unexpected end") || strings.Contains(m, "invalid response"):
		return KindInvalidResponse
	default:
		return KindUnknown
	}
}
