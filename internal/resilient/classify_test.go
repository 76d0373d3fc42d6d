package resilient

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatusCodes(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{401, KindAuthentication},
		{403, KindAuthentication},
		{429, KindRateLimit},
		{413, KindInputTooLarge},
		{408, KindTimeout},
		{504, KindTimeout},
		{500, KindNetwork},
		{502, KindNetwork},
		{503, KindNetwork},
		{404, KindUnknown},
		{400, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			got := Classify(&StatusError{Status: tt.status})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyMessageHeuristics(t *testing.T) {
	tests := []struct {
		msg  string
		want Kind
	}{
		{"rate limit exceeded, slow down", KindRateLimit},
		{"request timed out", KindTimeout},
		{"invalid api key provided", KindAuthentication},
		{"prompt exceeds token limit", KindInputTooLarge},
		{"dial tcp: lookup api.example.com: no such host", KindNetwork},
		{"ENOTFOUND api.example.com", KindNetwork},
		{"json: cannot unmarshal string into Go value", KindInvalidResponse},
		{"something completely different", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(errors.New(tt.msg)))
		})
	}
}

func TestClassifyStructuredBeforeMessage(t *testing.T) {
	// A status code must win even when the body mentions a different failure.
	err := &StatusError{Status: 401, Body: "rate limit exceeded"}
	assert.Equal(t, KindAuthentication, Classify(err))

	wrapped := fmt.Errorf("calling provider: %w", err)
	assert.Equal(t, KindAuthentication, Classify(wrapped))
}

func TestClassifyContextAndTypedErrors(t *testing.T) {
	assert.Equal(t, KindTimeout, Classify(context.DeadlineExceeded))
	assert.Equal(t, KindInvalidResponse, Classify(&InvalidResponseError{Reason: "missing categories key"}))

	inner := &Error{Kind: KindInputTooLarge, Component: "findings", Attempts: 1, Cause: errors.New("x")}
	assert.Equal(t, KindInputTooLarge, Classify(fmt.Errorf("stage: %w", inner)))
}

func TestKindRetryability(t *testing.T) {
	retryable := []Kind{KindTimeout, KindRateLimit, KindNetwork, KindInvalidResponse}
	terminal := []Kind{KindAuthentication, KindInputTooLarge, KindUnknown}

	for _, k := range retryable {
		assert.True(t, k.Retryable(), "kind %s should be retryable", k)
	}
	for _, k := range terminal {
		assert.False(t, k.Retryable(), "kind %s should not be retryable", k)
	}
}
