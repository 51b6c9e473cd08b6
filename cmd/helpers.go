// File: cmd/helpers.go
package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/seekwell-dev/seekwell/api/schemas"
	"github.com/seekwell-dev/seekwell/internal/config"
	"github.com/seekwell-dev/seekwell/internal/llmclient"
	"github.com/seekwell-dev/seekwell/internal/navigator"
	"github.com/seekwell-dev/seekwell/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// openStore builds the configured bindings store. The returned cleanup is
// always safe to call.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (schemas.BindingStore, func(), error) {
	switch cfg.Store.Backend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, func() {}, fmt.Errorf("failed to connect to database: %w", err)
		}
		st, err := store.NewPostgresStore(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, func() {}, err
		}
		return st, pool.Close, nil
	default:
		return store.NewMemoryStore(logger), func() {}, nil
	}
}

// newNavigator wires the LLM-backed navigator, or returns nil when no API key
// is configured. Callers degrade gracefully: no discovery, no self-healing.
func newNavigator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*navigator.Navigator, error) {
	if cfg.LLM.APIKey == "" {
		logger.Warn("No LLM API key configured; binding discovery and self-healing are disabled")
		return nil, nil
	}
	llm, err := llmclient.NewClient(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return navigator.New(llm, cfg.LLM, logger), nil
}

// hostnameOf extracts the hostname used for bindings lookup.
func hostnameOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("url %q has no hostname", raw)
	}
	return u.Hostname(), nil
}

// writeJSON writes v as indented JSON to the path, or stdout when path is
// empty.
func writeJSON(path string, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	payload = append(payload, '\n')

	if path == "" {
		_, err = os.Stdout.Write(payload)
		return err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
