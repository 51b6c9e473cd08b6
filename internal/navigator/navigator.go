// File: internal/navigator/navigator.go

// Package navigator implements binding discovery and self-healing repair: it
// turns a DOM snapshot into a PageBindings record via an LLM call with a
// strict JSON contract, and patches single broken bindings on demand. The
// engine treats the LLM as opaque text generation; all JSON extraction and
// validation happens here.
package navigator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/seekwell-dev/seekwell/api/schemas"
	"github.com/seekwell-dev/seekwell/internal/bindings"
	"github.com/seekwell-dev/seekwell/internal/config"
	"github.com/seekwell-dev/seekwell/internal/llmutil"
)

// A snapshot smaller than this is almost certainly a page that has not
// rendered yet; discovery fails fast instead of burning an LLM call.
const minSnapshotChars = 200

// Navigator discovers and repairs per-site bindings.
type Navigator struct {
	llm     schemas.LLMClient
	logger  *zap.Logger
	limiter *rate.Limiter
	// repairs coalesces concurrent repair calls for the same binding key so
	// two loop iterations failing on the same selector share one LLM round
	// trip.
	repairs singleflight.Group
	cfg     config.LLMConfig
}

var _ schemas.BindingRepairer = (*Navigator)(nil)

// New creates a Navigator backed by the given LLM client.
func New(llm schemas.LLMClient, cfg config.LLMConfig, logger *zap.Logger) *Navigator {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 10
	}
	return &Navigator{
		llm:     llm,
		logger:  logger.Named("navigator"),
		limiter: rate.NewLimiter(rate.Limit(rpm/60.0), 2),
		cfg:     cfg,
	}
}

// DiscoverBindings infers a full bindings record from a DOM snapshot. The
// result is normalized (defaults filled, behaviors inferred) and validated
// before it is trusted; validation warnings are logged, errors fail the
// discovery.
func (n *Navigator) DiscoverBindings(ctx context.Context, snap schemas.DOMSnapshot) (*schemas.PageBindings, error) {
	if len(snap.Text) < minSnapshotChars {
		return nil, fmt.Errorf("%s: DOM snapshot too small (%d chars); page likely not ready",
			schemas.CodeDiscoveryFailed, len(snap.Text))
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	response, err := n.llm.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: discoverySystemPrompt,
		UserPrompt:   buildDiscoveryUserPrompt(snap),
		Options:      schemas.GenerationOptions{ForceJSONFormat: true, Temperature: n.cfg.Temperature},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: llm call failed: %w", schemas.CodeDiscoveryFailed, err)
	}

	raw, err := llmutil.DecodeObject[bindings.RawBindings](response)
	if err != nil {
		return nil, fmt.Errorf("%s: unparsable discovery response: %w", schemas.CodeDiscoveryFailed, err)
	}

	record, err := bindings.Finalize(raw, snap.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", schemas.CodeDiscoveryFailed, err)
	}

	validation := bindings.Validate(record)
	for _, w := range validation.Warnings {
		n.logger.Warn("Discovered bindings incomplete", zap.String("warning", w), zap.String("url_pattern", record.URLPattern))
	}
	if !validation.Valid {
		return nil, fmt.Errorf("%s: discovered bindings invalid: %v", schemas.CodeDiscoveryFailed, validation.Errors)
	}

	n.logger.Info("Bindings discovered",
		zap.String("url_pattern", record.URLPattern),
		zap.String("list_item", record.ListItem),
		zap.Duration("duration", time.Since(start)))
	return record, nil
}

// FixBinding asks the LLM for a patch scoped to the single binding key a
// failing command depended on. A nil patch with nil error means the model had
// no plausible fix; the caller then propagates the original command failure.
func (n *Navigator) FixBinding(ctx context.Context, req schemas.RepairRequest) (*schemas.BindingPatch, error) {
	key := req.Bindings.ID + "/" + string(req.Binding)

	v, err, shared := n.repairs.Do(key, func() (any, error) {
		return n.fixBinding(ctx, req)
	})
	if shared {
		n.logger.Debug("Coalesced concurrent repair", zap.String("key", key))
	}
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*schemas.BindingPatch), nil
}

func (n *Navigator) fixBinding(ctx context.Context, req schemas.RepairRequest) (*schemas.BindingPatch, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	n.logger.Info("Attempting binding repair",
		zap.String("binding", string(req.Binding)),
		zap.String("command", string(req.Command)),
		zap.String("current_value", req.CurrentValue))

	response, err := n.llm.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: repairSystemPrompt,
		UserPrompt:   buildRepairUserPrompt(req),
		Options:      schemas.GenerationOptions{ForceJSONFormat: true, Temperature: n.cfg.Temperature},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: llm call failed: %w", schemas.CodeRepairFailed, err)
	}

	patch, err := llmutil.DecodeObject[schemas.BindingPatch](response)
	if err != nil {
		return nil, fmt.Errorf("%s: unparsable repair response: %w", schemas.CodeRepairFailed, err)
	}
	if patch.IsZero() {
		n.logger.Info("Repair produced no fix", zap.String("binding", string(req.Binding)))
		return nil, nil
	}
	return patch, nil
}
