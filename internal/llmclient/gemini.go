// File: internal/llmclient/gemini.go
package llmclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/seekwell-dev/seekwell/api/schemas"
	"github.com/seekwell-dev/seekwell/internal/config"
)

// GeminiClient implements schemas.LLMClient on top of the Gemini API.
type GeminiClient struct {
	client *genai.Client
	cfg    config.LLMConfig
	logger *zap.Logger
}

// Statically assert the interface.
var _ schemas.LLMClient = (*GeminiClient)(nil)

// NewGeminiClient initializes the client.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required (set SEEKWELL_LLM_API_KEY)")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		client: client,
		cfg:    cfg,
		logger: logger.Named("llm_client.gemini"),
	}, nil
}

// Generate sends the prompt pair to Gemini and returns the generated text,
// retrying transient failures with exponential backoff.
func (c *GeminiClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Options.Temperature),
	}
	if req.Options.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(req.Options.MaxTokens)
	} else if c.cfg.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(c.cfg.MaxTokens)
	}
	if req.Options.ForceJSONFormat {
		genCfg.ResponseMIMEType = "application/json"
	}
	if req.SystemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	b.MaxInterval = 20 * time.Second

	var text string
	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.APITimeout)
		defer cancel()

		start := time.Now()
		resp, err := c.client.Models.GenerateContent(callCtx, c.cfg.Model, genai.Text(req.UserPrompt), genCfg)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if isPermanentAPIError(err) {
				return backoff.Permanent(fmt.Errorf("gemini request rejected: %w", err))
			}
			c.logger.Warn("Transient error during LLM request, retrying...", zap.Error(err))
			return err
		}

		text = resp.Text()
		if text == "" {
			return backoff.Permanent(fmt.Errorf("gemini returned an empty response"))
		}

		c.logger.Debug("LLM generation complete",
			zap.Duration("duration", time.Since(start)),
			zap.Int("response_chars", len(text)))
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", fmt.Errorf("llm generation failed: %w", err)
	}
	return text, nil
}

// isPermanentAPIError reports whether retrying cannot help (auth, bad request,
// safety blocks). Rate limits and 5xx stay retryable.
func isPermanentAPIError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"api key", "invalid argument", "permission", "blocked", "safety"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
