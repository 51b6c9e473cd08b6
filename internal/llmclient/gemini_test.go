// File: internal/llmclient/gemini_test.go
package llmclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seekwell-dev/seekwell/internal/config"
)

func TestIsPermanentAPIError(t *testing.T) {
	permanent := []string{
		"API key not valid",
		"INVALID_ARGUMENT: contents must not be empty",
		"permission denied on resource",
		"response blocked by safety filters",
	}
	for _, msg := range permanent {
		assert.True(t, isPermanentAPIError(errors.New(msg)), msg)
	}

	retryable := []string{
		"rate limit exceeded, try again later",
		"503 service unavailable",
		"context deadline exceeded",
	}
	for _, msg := range retryable {
		assert.False(t, isPermanentAPIError(errors.New(msg)), msg)
	}
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(context.Background(), config.LLMConfig{Provider: "openai"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai")
}
