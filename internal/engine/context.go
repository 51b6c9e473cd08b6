// File: internal/engine/context.go
package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/seekwell-dev/seekwell/api/schemas"
)

// ExecutionContext is the mutable state threaded through one recipe run:
// processed-item tracking, collected results, the current focus and item,
// checkpoint counters, and control-flow flags. It is owned by a single
// Executor and never shared across goroutines.
type ExecutionContext struct {
	RunID string

	// ProcessedIDs tracks items already handled in this run so skipProcessed
	// loops and GO_TO_ITEM(unprocessed) stay idempotent.
	ProcessedIDs map[string]struct{}
	Collected    []schemas.CollectedItem

	// Focus is the selector last focused by GO_TO; TYPE, SUBMIT, CLEAR and
	// SELECT act on it.
	Focus string

	// CurrentItem and CurrentIndex track the list item selected by GO_TO_ITEM
	// or the current FOR_EACH_ITEM_IN_LIST iteration.
	CurrentItem  *schemas.ElementHandle
	CurrentIndex int

	// PendingID / PendingContent stage the current item's identity and
	// extracted text between EXTRACT_DETAILS and SAVE_AS / MARK_DONE.
	PendingID      string
	PendingContent string

	// CheckpointCount is the list-item count recorded by CHECKPOINT_COUNT,
	// the baseline for NEW_ITEMS and item_count_increased predicates.
	CheckpointCount int

	// ShouldStop ends the run at the next command boundary; ShouldContinue
	// aborts the rest of the current loop-body iteration only. No DSL command
	// raises ShouldContinue today: per-item aborts travel the error path in
	// forEachItem. Sequence dispatch still consults it and loop boundaries
	// clear it, so a skip-item command needs no flow changes.
	ShouldStop     bool
	ShouldContinue bool

	// MaxItems caps collected items for this run; zero means unlimited.
	MaxItems int

	Stats     schemas.RunStats
	startedAt time.Time
}

// NewExecutionContext creates the state for one recipe run.
func NewExecutionContext(cfg schemas.RecipeConfig) *ExecutionContext {
	return &ExecutionContext{
		RunID:        uuid.NewString(),
		ProcessedIDs: make(map[string]struct{}),
		Collected:    []schemas.CollectedItem{},
		CurrentIndex: -1,
		MaxItems:     cfg.MaxItems,
		startedAt:    time.Now(),
	}
}

// IsProcessed reports whether the item id was already handled this run.
func (ec *ExecutionContext) IsProcessed(id string) bool {
	_, ok := ec.ProcessedIDs[id]
	return ok
}

// MarkProcessed records the item id as handled.
func (ec *ExecutionContext) MarkProcessed(id string) {
	ec.ProcessedIDs[id] = struct{}{}
	ec.Stats.ItemsProcessed++
}

// Collect appends an extracted item and flips ShouldStop once the run's item
// budget is reached.
func (ec *ExecutionContext) Collect(item schemas.CollectedItem) {
	ec.Collected = append(ec.Collected, item)
	ec.Stats.ItemsCollected++
	if ec.MaxItems > 0 && len(ec.Collected) >= ec.MaxItems {
		ec.ShouldStop = true
	}
}

// SetCurrentItem switches the per-item staging state to the given handle.
func (ec *ExecutionContext) SetCurrentItem(h *schemas.ElementHandle, index int, id string) {
	ec.CurrentItem = h
	ec.CurrentIndex = index
	ec.PendingID = id
	ec.PendingContent = ""
}

// Elapsed returns the run duration so far.
func (ec *ExecutionContext) Elapsed() time.Duration {
	return time.Since(ec.startedAt)
}
