// File: internal/engine/actions.go
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seekwell-dev/seekwell/api/schemas"
	"github.com/seekwell-dev/seekwell/internal/bindings"
)

// clickRef clicks whichever arm of the ref is populated: an indexed ref goes
// through the driver's node-addressed click, a selector ref through the
// selector click. Absence is (false, nil) for selector refs; an indexed ref
// whose stamp is gone surfaces as a driver error.
func (e *Executor) clickRef(ctx context.Context, ref schemas.ElementRef) (bool, error) {
	if ref.Indexed {
		if err := e.driver.ClickElementNode(ctx, ref.Index); err != nil {
			return false, err
		}
		return true, nil
	}
	return e.driver.ClickSelector(ctx, ref.Selector)
}

func (e *Executor) openPage(ctx context.Context, cmd *schemas.Command) (schemas.CommandResult, error) {
	if err := e.driver.NavigateTo(ctx, cmd.URL); err != nil {
		return fail(schemas.CodeNavigation, cmd.Type, "", "navigation to "+cmd.URL+" failed", err)
	}
	return schemas.OKResult(), nil
}

func (e *Executor) goBack(ctx context.Context, cmd *schemas.Command) (schemas.CommandResult, error) {
	if err := e.driver.GoBack(ctx); err != nil {
		return fail(schemas.CodeNavigation, cmd.Type, "", "history navigation failed", err)
	}
	return schemas.OKResult(), nil
}

func (e *Executor) wait(ctx context.Context, cmd *schemas.Command) (schemas.CommandResult, error) {
	if err := sleepCtx(ctx, time.Duration(cmd.Duration)*time.Millisecond); err != nil {
		return schemas.CommandResult{}, err
	}
	return schemas.OKResult(), nil
}

// waitFor polls the state predicate bound to the wait target until it holds
// or the engine's wait timeout elapses. A timeout is repair-eligible: the
// predicate's selector may simply be stale.
func (e *Executor) waitFor(ctx context.Context, ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	cond, key, err := e.stateForTarget(cmd.Target)
	if err != nil {
		return fail(schemas.CodeUnknownCommand, cmd.Type, "", err.Error(), nil)
	}

	deadline := time.Now().Add(e.cfg.WaitTimeout)
	for {
		ok, err := e.evalState(ctx, ec, cond)
		if err != nil {
			return driverFail(cmd.Type, err)
		}
		if ok {
			return schemas.OKResult(), nil
		}
		if time.Now().After(deadline) {
			return fail(schemas.CodeTimeout, cmd.Type, key,
				"state not reached within "+e.cfg.WaitTimeout.String(), nil)
		}
		if err := sleepCtx(ctx, e.cfg.WaitPollInterval); err != nil {
			return schemas.CommandResult{}, err
		}
	}
}

// goTo focuses a named element by clicking it, so TYPE / SUBMIT / CLEAR /
// SELECT can act on it. The target "details" is shorthand for the details
// panel binding.
func (e *Executor) goTo(ctx context.Context, ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	var (
		sel string
		key schemas.BindingKey
		ok  bool
	)
	if cmd.Target == "details" {
		sel, key, ok = e.bind.DetailsPanel, schemas.BindingDetailsPanel, e.bind.DetailsPanel != ""
	} else {
		sel, key, ok = e.resolveName(cmd.Target)
	}
	if !ok {
		return fail(schemas.CodeBindingMissing, cmd.Type, key, "no selector bound for "+cmd.Target, nil)
	}

	clicked, err := e.clickRef(ctx, schemas.SelectorRef(sel))
	if err != nil {
		return driverFail(cmd.Type, err)
	}
	if !clicked {
		return fail(schemas.CodeElementNotFound, cmd.Type, key, "selector matched nothing: "+sel, nil)
	}
	ec.Focus = sel
	return schemas.OKResult(), nil
}

// goToItem selects one list item per the mode (first, next, unprocessed) and
// clicks it to reveal its details.
func (e *Executor) goToItem(ctx context.Context, ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	items, err := e.queryListItems(ctx, cmd.Type)
	if err != nil {
		return schemas.CommandResult{}, err
	}

	mode := cmd.Item
	if mode == "" {
		mode = schemas.ItemFirst
	}

	pick := -1
	switch mode {
	case schemas.ItemFirst:
		if len(items) > 0 {
			pick = 0
		}
	case schemas.ItemNext:
		next := ec.CurrentIndex + 1
		if next < len(items) {
			pick = next
		}
	case schemas.ItemUnprocessed:
		for i := range items {
			id, _ := bindings.ExtractID(e.bind.ItemID, items[i])
			if !ec.IsProcessed(id) {
				pick = i
				break
			}
		}
	default:
		return fail(schemas.CodeUnknownCommand, cmd.Type, "", "unknown item mode: "+mode, nil)
	}
	if pick < 0 {
		return fail(schemas.CodeElementNotFound, cmd.Type, schemas.BindingListItem,
			"no "+mode+" list item available", nil)
	}

	id := e.itemID(ec, items[pick])
	ec.SetCurrentItem(&items[pick], pick, id)

	if _, err := e.clickRef(ctx, schemas.IndexedRef(e.bind.ListItem, items[pick].Index)); err != nil {
		return driverFail(cmd.Type, err)
	}
	return schemas.CommandResult{Success: true, Data: map[string]any{"index": pick, "id": id}}, nil
}

func (e *Executor) typeText(ctx context.Context, ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	if ec.Focus == "" {
		return fail(schemas.CodeElementNotFound, cmd.Type, "", "no focused element; GO_TO must run first", nil)
	}
	if err := e.driver.SendKeys(ctx, cmd.Value); err != nil {
		return driverFail(cmd.Type, err)
	}
	return schemas.OKResult(), nil
}

func (e *Executor) submit(ctx context.Context, ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	if ec.Focus == "" {
		return fail(schemas.CodeElementNotFound, cmd.Type, "", "no focused element; GO_TO must run first", nil)
	}
	if err := e.driver.SendKeys(ctx, "\r"); err != nil {
		return driverFail(cmd.Type, err)
	}
	return schemas.OKResult(), nil
}

func (e *Executor) clear(ctx context.Context, ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	if ec.Focus == "" {
		return fail(schemas.CodeElementNotFound, cmd.Type, "", "no focused element; GO_TO must run first", nil)
	}
	if err := e.driver.ClearFocused(ctx); err != nil {
		return driverFail(cmd.Type, err)
	}
	return schemas.OKResult(), nil
}

func (e *Executor) selectOption(ctx context.Context, ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	if ec.Focus == "" {
		return fail(schemas.CodeElementNotFound, cmd.Type, "", "no focused element; GO_TO must run first", nil)
	}
	if err := e.driver.SelectDropdownOption(ctx, ec.Focus, cmd.Index, cmd.Value); err != nil {
		return driverFail(cmd.Type, err)
	}
	return schemas.OKResult(), nil
}

// click clicks a named element, or the current list item when no name is
// given. Both shapes resolve to an ElementRef before touching the driver.
func (e *Executor) click(ctx context.Context, ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	if cmd.Name == "" {
		if ec.CurrentItem == nil {
			return fail(schemas.CodeElementNotFound, cmd.Type, "", "CLICK without a name requires a current item", nil)
		}
		if _, err := e.clickRef(ctx, schemas.IndexedRef(e.bind.ListItem, ec.CurrentItem.Index)); err != nil {
			return driverFail(cmd.Type, err)
		}
		return schemas.OKResult(), nil
	}

	sel, key, ok := e.resolveName(cmd.Name)
	if !ok {
		return fail(schemas.CodeBindingMissing, cmd.Type, key, "no selector bound for "+cmd.Name, nil)
	}
	clicked, err := e.clickRef(ctx, schemas.SelectorRef(sel))
	if err != nil {
		return driverFail(cmd.Type, err)
	}
	if !clicked {
		return fail(schemas.CodeElementNotFound, cmd.Type, key, "selector matched nothing: "+sel, nil)
	}
	return schemas.OKResult(), nil
}

// clickIfExists is speculative: an unbound name or an absent element is a
// successful no-op, never a failure. Only transport-level driver errors
// propagate.
func (e *Executor) clickIfExists(ctx context.Context, cmd *schemas.Command) (schemas.CommandResult, error) {
	sel, _, ok := e.resolveName(cmd.Name)
	if !ok {
		return schemas.CommandResult{Success: true, Data: map[string]any{"clicked": false}}, nil
	}
	clicked, err := e.clickRef(ctx, schemas.SelectorRef(sel))
	if err != nil {
		return driverFail(cmd.Type, err)
	}
	return schemas.CommandResult{Success: true, Data: map[string]any{"clicked": clicked}}, nil
}

// setChecked drives a checkbox-like element toward the desired state,
// clicking only when the live state differs.
func (e *Executor) setChecked(ctx context.Context, cmd *schemas.Command) (schemas.CommandResult, error) {
	sel, key, ok := e.resolveName(cmd.Name)
	if !ok {
		return fail(schemas.CodeBindingMissing, cmd.Type, key, "no selector bound for "+cmd.Name, nil)
	}

	checkedCount, err := e.driver.CountSelector(ctx, sel+":checked")
	if err != nil {
		return driverFail(cmd.Type, err)
	}
	want := true
	if cmd.Checked != nil {
		want = *cmd.Checked
	}
	current := checkedCount > 0
	if current == want {
		return schemas.CommandResult{Success: true, Data: map[string]any{"changed": false}}, nil
	}

	clicked, err := e.clickRef(ctx, schemas.SelectorRef(sel))
	if err != nil {
		return driverFail(cmd.Type, err)
	}
	if !clicked {
		return fail(schemas.CodeElementNotFound, cmd.Type, key, "selector matched nothing: "+sel, nil)
	}
	return schemas.CommandResult{Success: true, Data: map[string]any{"changed": true}}, nil
}

func (e *Executor) scroll(ctx context.Context, ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	var err error
	switch cmd.Direction {
	case "up":
		err = e.driver.ScrollToPreviousPage(ctx)
	case "", "down":
		err = e.driver.ScrollToNextPage(ctx)
	default:
		return fail(schemas.CodeUnknownCommand, cmd.Type, "", "unknown scroll direction: "+cmd.Direction, nil)
	}
	if err != nil {
		return driverFail(cmd.Type, err)
	}
	ec.Stats.Scrolls++
	return schemas.OKResult(), nil
}

func (e *Executor) scrollIfNotEnd(ctx context.Context, ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	end, err := e.pageEnd(ctx)
	if err != nil {
		return driverFail(cmd.Type, err)
	}
	if end {
		return schemas.CommandResult{Success: true, Data: map[string]any{"scrolled": false}}, nil
	}
	if err := e.driver.ScrollToNextPage(ctx); err != nil {
		return driverFail(cmd.Type, err)
	}
	ec.Stats.Scrolls++
	return schemas.CommandResult{Success: true, Data: map[string]any{"scrolled": true}}, nil
}

func (e *Executor) checkpointCount(ctx context.Context, ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	if e.bind.ListItem == "" {
		return fail(schemas.CodeBindingMissing, cmd.Type, schemas.BindingListItem, "no listItem selector bound", nil)
	}
	count, err := e.driver.CountSelector(ctx, e.bind.ListItem)
	if err != nil {
		return driverFail(cmd.Type, err)
	}
	ec.CheckpointCount = count
	return schemas.CommandResult{Success: true, Data: map[string]any{"count": count}}, nil
}

// extractDetails reads the details text for the current item: the bound
// detailsContent selectors first, retried to ride out panel render lag, then
// the item's own inline text. The command fails only when both sources are
// empty, and that failure is scoped to DETAILS_CONTENT for repair.
func (e *Executor) extractDetails(ctx context.Context, ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	var content string
	if len(e.bind.DetailsContent) > 0 {
		retries := e.cfg.ExtractRetries
		if retries < 1 {
			retries = 1
		}
		for attempt := 0; attempt < retries; attempt++ {
			if attempt > 0 {
				if err := sleepCtx(ctx, e.cfg.ExtractRetryDelay); err != nil {
					return schemas.CommandResult{}, err
				}
			}
			content = e.collectText(ctx, e.bind.DetailsContent)
			if content != "" {
				break
			}
		}
	}

	if content == "" && ec.CurrentItem != nil {
		content = strings.TrimSpace(ec.CurrentItem.Text)
		if content != "" {
			e.logger.Debug("Details panel empty; using inline item text",
				zap.Int("item_index", ec.CurrentItem.Index))
		}
	}
	if content == "" {
		return fail(schemas.CodeExtractionEmpty, cmd.Type, schemas.BindingDetailsContent,
			"no text from details selectors or inline item", nil)
	}

	ec.PendingContent = content
	return schemas.CommandResult{Success: true, Data: map[string]any{"chars": len(content)}}, nil
}

func (e *Executor) collectText(ctx context.Context, selectors []string) string {
	var parts []string
	for _, sel := range selectors {
		texts, err := e.driver.GetTextFromSelector(ctx, sel)
		if err != nil {
			e.logger.Debug("Text query failed", zap.String("selector", sel), zap.Error(err))
			continue
		}
		for _, t := range texts {
			if t = strings.TrimSpace(t); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

// saveAs stores the staged extraction as a collected item.
func (e *Executor) saveAs(ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	if ec.PendingContent == "" {
		return fail(schemas.CodeExtractionEmpty, cmd.Type, "", "nothing extracted to save; EXTRACT_DETAILS must run first", nil)
	}
	id := ec.PendingID
	if id == "" {
		id = "item-" + uuid.NewString()
	}
	ec.Collect(schemas.CollectedItem{
		ID:          id,
		Key:         cmd.Key,
		Content:     ec.PendingContent,
		ExtractedAt: time.Now().UTC(),
	})
	ec.PendingContent = ""
	if ec.ShouldStop {
		e.logger.Info("Item budget reached; stopping run",
			zap.Int("max_items", ec.MaxItems))
	}
	return schemas.CommandResult{Success: true, Data: map[string]any{"id": id, "key": cmd.Key}}, nil
}

// markDone records the current item as processed for this run.
func (e *Executor) markDone(ec *ExecutionContext, cmd *schemas.Command) (schemas.CommandResult, error) {
	id := ec.PendingID
	if id == "" && ec.CurrentItem != nil {
		id = e.itemID(ec, *ec.CurrentItem)
	}
	if id == "" {
		return fail(schemas.CodeElementNotFound, cmd.Type, "", "no current item to mark as processed", nil)
	}
	ec.MarkProcessed(id)
	return schemas.CommandResult{Success: true, Data: map[string]any{"id": id}}, nil
}

// queryListItems fetches the current list items, surfacing an empty match as
// ELEMENT_NOT_FOUND on LIST_ITEM: a drifted selector matching nothing is the
// canonical self-heal trigger.
func (e *Executor) queryListItems(ctx context.Context, cmdType schemas.CommandType) ([]schemas.ElementHandle, error) {
	if e.bind.ListItem == "" {
		_, err := fail(schemas.CodeBindingMissing, cmdType, schemas.BindingListItem, "no listItem selector bound", nil)
		return nil, err
	}
	items, err := e.driver.QuerySelectorAll(ctx, e.bind.ListItem)
	if err != nil {
		_, derr := driverFail(cmdType, err)
		return nil, derr
	}
	if len(items) == 0 {
		_, err := fail(schemas.CodeElementNotFound, cmdType, schemas.BindingListItem,
			"selector matched no list items: "+e.bind.ListItem, nil)
		return nil, err
	}
	return items, nil
}

// itemID derives the item's stable id, counting and logging fallback ids so
// drifting id extraction shows up in run stats instead of silently breaking
// dedup across runs.
func (e *Executor) itemID(ec *ExecutionContext, h schemas.ElementHandle) string {
	id, stable := bindings.ExtractID(e.bind.ItemID, h)
	if !stable {
		ec.Stats.FallbackIDs++
		e.logger.Warn("Item id extraction fell back to a random id",
			zap.Int("item_index", h.Index),
			zap.String("id_source", string(e.bind.ItemID.From)))
	}
	return id
}
