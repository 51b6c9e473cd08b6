// File: internal/engine/flow.go
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/seekwell-dev/seekwell/api/schemas"
)

func (e *Executor) runIf(ctx context.Context, ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	ok, err := e.evalCondition(ctx, ec, cmd.Condition)
	if err != nil {
		return driverFail(cmd.Type, err)
	}

	branch := cmd.Then
	if !ok {
		branch = cmd.Else
	}
	if err := e.runCommands(ctx, ec, branch); err != nil {
		return schemas.CommandResult{}, err
	}
	return schemas.CommandResult{Success: true, Data: map[string]any{"matched": ok}}, nil
}

// forEachItem iterates the current list items, staging each one as the
// current item and running the body. A command failure inside the body
// abandons that item and moves on; the loop itself fails only on context
// cancellation, so one malformed entry cannot sink an otherwise good run.
func (e *Executor) forEachItem(ctx context.Context, ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	items, err := e.queryListItems(ctx, cmd.Type)
	if err != nil {
		return schemas.CommandResult{}, err
	}

	visited := 0
	for i := range items {
		if ec.ShouldStop {
			break
		}
		if err := ctx.Err(); err != nil {
			return schemas.CommandResult{}, err
		}

		id := e.itemID(ec, items[i])
		if cmd.SkipProcessed && ec.IsProcessed(id) {
			ec.Stats.ItemsSkipped++
			continue
		}
		ec.SetCurrentItem(&items[i], i, id)
		visited++

		if err := e.runCommands(ctx, ec, cmd.Body); err != nil {
			if ctx.Err() != nil {
				return schemas.CommandResult{}, err
			}
			e.logger.Warn("Item body failed; skipping item",
				zap.Int("item_index", i),
				zap.String("item_id", id),
				zap.Error(err))
			continue
		}
		ec.ShouldContinue = false
	}

	ec.CurrentItem = nil
	ec.CurrentIndex = -1
	return schemas.CommandResult{Success: true, Data: map[string]any{"items": len(items), "visited": visited}}, nil
}

// repeat runs the body until the until-predicate or the site's no-more-items
// marker holds, bounded by the engine's iteration safety cap. Until
// conditions are evaluated only at iteration boundaries.
func (e *Executor) repeat(ctx context.Context, ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	maxIter := e.cfg.MaxRepeatIterations
	if maxIter < 1 {
		maxIter = 1
	}
	scrollBase := ec.Stats.Scrolls

	iterations := 0
	for {
		if ec.ShouldStop {
			break
		}
		if err := ctx.Err(); err != nil {
			return schemas.CommandResult{}, err
		}

		if err := e.runCommands(ctx, ec, cmd.Body); err != nil {
			return schemas.CommandResult{}, err
		}
		ec.ShouldContinue = false
		iterations++

		if cmd.Until != nil {
			done, err := e.evalUntil(ctx, ec, cmd.Until, scrollBase)
			if err != nil {
				return driverFail(cmd.Type, err)
			}
			if done {
				break
			}
		}

		// The end-of-list marker terminates any repeat regardless of the
		// authored until-predicate.
		noMore, err := e.noMoreItems(ctx, ec)
		if err != nil {
			return driverFail(cmd.Type, err)
		}
		if noMore {
			break
		}

		if iterations >= maxIter {
			e.logger.Warn("Repeat loop hit iteration safety cap",
				zap.Int("iterations", iterations),
				zap.Int("cap", maxIter))
			break
		}
	}
	return schemas.CommandResult{Success: true, Data: map[string]any{"iterations": iterations}}, nil
}
