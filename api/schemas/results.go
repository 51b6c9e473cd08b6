// File: api/schemas/results.go
package schemas

import "time"

// CollectedItem is one extracted list item.
type CollectedItem struct {
	ID          string    `json:"id"`
	Key         string    `json:"key,omitempty"` // SAVE_AS key, e.g. "job"
	Content     string    `json:"content"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// RunStats accumulates counters for one recipe run.
type RunStats struct {
	ItemsProcessed int           `json:"itemsProcessed"`
	ItemsCollected int           `json:"itemsCollected"`
	ItemsSkipped   int           `json:"itemsSkipped"`
	Scrolls        int           `json:"scrolls"`
	Repairs        int           `json:"repairs"`
	FallbackIDs    int           `json:"fallbackIds"`
	Duration       time.Duration `json:"duration"`
}

// RunResult is the outcome of executing one recipe. Items holds whatever was
// collected before any failure, so a structural quirk late in the list still
// yields partial data rather than none.
type RunResult struct {
	Success bool            `json:"success"`
	Items   []CollectedItem `json:"items"`
	Error   string          `json:"error,omitempty"`
	Stats   RunStats        `json:"stats"`
}

// CommandResult is the outcome of a single command dispatch. Data carries
// command-specific details, e.g. {"clicked": false} for a speculative
// CLICK_IF_EXISTS that found nothing.
type CommandResult struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
}

// OKResult is a plain successful CommandResult.
func OKResult() CommandResult { return CommandResult{Success: true} }
