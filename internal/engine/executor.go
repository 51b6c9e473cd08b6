// File: internal/engine/executor.go

// Package engine interprets recipes against a live page. The executor walks
// the command tree, resolves abstract element roles through the run's
// bindings, and applies the self-healing protocol: a selector-shaped command
// failure triggers at most one binding repair followed by one retry of the
// failing command.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/seekwell-dev/seekwell/api/schemas"
	"github.com/seekwell-dev/seekwell/internal/bindings"
	"github.com/seekwell-dev/seekwell/internal/config"
)

// SnapshotFunc captures a condensed DOM snapshot of the current page, used to
// give repair calls fresh context. It is optional; without one, repairs run
// on the failure description alone.
type SnapshotFunc func(ctx context.Context) (schemas.DOMSnapshot, error)

// Executor runs one recipe against one page through a PageDriver. It owns the
// working copy of the bindings record: repairs mutate it in place (version
// bump included) and the caller persists it after the run.
type Executor struct {
	driver   schemas.PageDriver
	bind     *schemas.PageBindings
	repairer schemas.BindingRepairer
	snapshot SnapshotFunc
	cfg      config.EngineConfig
	logger   *zap.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithRepairer enables self-healing. snapshot may be nil.
func WithRepairer(r schemas.BindingRepairer, snapshot SnapshotFunc) Option {
	return func(e *Executor) {
		e.repairer = r
		e.snapshot = snapshot
	}
}

// New creates an Executor over the given driver and bindings record.
func New(driver schemas.PageDriver, bind *schemas.PageBindings, cfg config.EngineConfig, logger *zap.Logger, opts ...Option) *Executor {
	e := &Executor{
		driver: driver,
		bind:   bind,
		cfg:    cfg,
		logger: logger.Named("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bindings returns the executor's working bindings record, reflecting any
// repairs applied during the run.
func (e *Executor) Bindings() *schemas.PageBindings {
	return e.bind
}

// Execute runs the recipe to completion and always returns a result: on
// failure, Items holds everything collected before the failing command, so a
// late structural quirk still yields partial data.
func (e *Executor) Execute(ctx context.Context, r *schemas.Recipe) schemas.RunResult {
	ec := NewExecutionContext(r.Config)
	if r.Config.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.Config.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	e.logger.Info("Recipe run starting",
		zap.String("run_id", ec.RunID),
		zap.String("recipe", r.Name),
		zap.Int("commands", len(r.Commands)),
		zap.Int("max_items", ec.MaxItems))

	err := e.runCommands(ctx, ec, r.Commands)
	ec.Stats.Duration = ec.Elapsed()

	result := schemas.RunResult{
		Success: err == nil,
		Items:   ec.Collected,
		Stats:   ec.Stats,
	}
	if err != nil {
		result.Error = err.Error()
		e.logger.Warn("Recipe run failed; returning partial results",
			zap.String("run_id", ec.RunID),
			zap.Int("items_collected", len(ec.Collected)),
			zap.Error(err))
		return result
	}

	e.logger.Info("Recipe run finished",
		zap.String("run_id", ec.RunID),
		zap.Int("items_collected", ec.Stats.ItemsCollected),
		zap.Int("items_skipped", ec.Stats.ItemsSkipped),
		zap.Int("repairs", ec.Stats.Repairs),
		zap.Duration("duration", ec.Stats.Duration))
	return result
}

// runCommands executes a command sequence, honoring the control-flow flags:
// ShouldStop ends the sequence, ShouldContinue hands control back to the
// enclosing loop body.
func (e *Executor) runCommands(ctx context.Context, ec *ExecutionContext, cmds []schemas.Command) error {
	for i := range cmds {
		if ec.ShouldStop || ec.ShouldContinue {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := e.executeCommand(ctx, ec, &cmds[i]); err != nil {
			return err
		}
	}
	return nil
}

// executeCommand dispatches one command and applies the repair protocol on a
// repairable failure: ask the repairer for a patch scoped to the implicated
// binding key, merge it, and retry the command exactly once. Anything short
// of a merged patch propagates the original failure.
func (e *Executor) executeCommand(ctx context.Context, ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	result, err := e.dispatch(ctx, ec, cmd)
	if err == nil {
		return result, nil
	}

	ce, ok := schemas.AsCommandError(err)
	if !ok || !ce.Repairable() || e.repairer == nil {
		return result, err
	}

	patch, repairErr := e.requestRepair(ctx, ce)
	if repairErr != nil {
		e.logger.Warn("Binding repair failed",
			zap.String("binding", string(ce.Binding)),
			zap.Error(repairErr))
		return result, err
	}
	if patch == nil {
		return result, err
	}

	bindings.Merge(e.bind, patch)
	ec.Stats.Repairs++
	e.logger.Info("Binding repaired; retrying command",
		zap.String("command", string(cmd.Type)),
		zap.String("binding", string(ce.Binding)),
		zap.Int("bindings_version", e.bind.Version))

	return e.dispatch(ctx, ec, cmd)
}

func (e *Executor) requestRepair(ctx context.Context, ce *schemas.CommandError) (*schemas.BindingPatch, error) {
	req := schemas.RepairRequest{
		Bindings:     e.bind,
		Command:      ce.Command,
		Binding:      ce.Binding,
		CurrentValue: e.currentValue(ce.Binding),
		Failure:      ce.Error(),
	}
	if e.snapshot != nil {
		snap, err := e.snapshot(ctx)
		if err != nil {
			e.logger.Warn("DOM snapshot for repair failed", zap.Error(err))
		} else {
			req.DOMContext = snap.Text
		}
	}
	return e.repairer.FixBinding(ctx, req)
}

// dispatch routes a command to its handler. The command set is closed;
// anything else is UNKNOWN_COMMAND.
func (e *Executor) dispatch(ctx context.Context, ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	e.logger.Debug("Executing command", zap.String("type", string(cmd.Type)))

	switch cmd.Type {
	case schemas.CmdOpenPage:
		return e.openPage(ctx, cmd)
	case schemas.CmdGoBack:
		return e.goBack(ctx, cmd)
	case schemas.CmdWaitFor:
		return e.waitFor(ctx, ec, cmd)
	case schemas.CmdWait:
		return e.wait(ctx, cmd)
	case schemas.CmdGoTo:
		return e.goTo(ctx, ec, cmd)
	case schemas.CmdGoToItem:
		return e.goToItem(ctx, ec, cmd)
	case schemas.CmdType:
		return e.typeText(ctx, ec, cmd)
	case schemas.CmdSubmit:
		return e.submit(ctx, ec, cmd)
	case schemas.CmdClick:
		return e.click(ctx, ec, cmd)
	case schemas.CmdClickIfExists:
		return e.clickIfExists(ctx, cmd)
	case schemas.CmdSelect:
		return e.selectOption(ctx, ec, cmd)
	case schemas.CmdClear:
		return e.clear(ctx, ec, cmd)
	case schemas.CmdSetChecked:
		return e.setChecked(ctx, cmd)
	case schemas.CmdScroll:
		return e.scroll(ctx, ec, cmd)
	case schemas.CmdScrollIfNotEnd:
		return e.scrollIfNotEnd(ctx, ec, cmd)
	case schemas.CmdExtractDetails:
		return e.extractDetails(ctx, ec, cmd)
	case schemas.CmdSaveAs:
		return e.saveAs(ec, cmd)
	case schemas.CmdMarkDone:
		return e.markDone(ec, cmd)
	case schemas.CmdForEachItemInList:
		return e.forEachItem(ctx, ec, cmd)
	case schemas.CmdIf:
		return e.runIf(ctx, ec, cmd)
	case schemas.CmdRepeat:
		return e.repeat(ctx, ec, cmd)
	case schemas.CmdCheckpointCount:
		return e.checkpointCount(ctx, ec, cmd)
	case schemas.CmdEnd:
		ec.ShouldStop = true
		return schemas.OKResult(), nil
	}
	return fail(schemas.CodeUnknownCommand, cmd.Type, "", "unrecognized command type", nil)
}

// fail builds the (zero result, CommandError) pair handlers return on
// failure.
func fail(code schemas.ErrorCode, cmd schemas.CommandType, binding schemas.BindingKey, msg string, err error) (schemas.CommandResult, error) {
	return schemas.CommandResult{}, schemas.NewCommandError(code, cmd, binding, msg, err)
}

// driverFail wraps a transport-level driver error; these are never
// repair-eligible.
func driverFail(cmd schemas.CommandType, err error) (schemas.CommandResult, error) {
	return fail(schemas.CodeDriverFailure, cmd, "", "driver call failed", err)
}

// sleepCtx sleeps for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
