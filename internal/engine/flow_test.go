// File: internal/engine/flow_test.go
package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/seekwell-dev/seekwell/api/schemas"
)

func TestRepeatUntilCollected(t *testing.T) {
	driver := newFakeDriver()
	driver.texts["#details"] = []string{"posting body"}

	exec := New(driver, testBindings(), testEngineConfig(), zap.NewNop())
	result := exec.Execute(context.Background(), &schemas.Recipe{
		Commands: []schemas.Command{
			{Type: schemas.CmdRepeat,
				Body: []schemas.Command{
					{Type: schemas.CmdExtractDetails},
					{Type: schemas.CmdSaveAs, Key: "job"},
				},
				Until: &schemas.UntilCondition{Type: schemas.UntilCollected, Count: 3}},
		},
	})

	require.True(t, result.Success, "run failed: %s", result.Error)
	assert.Len(t, result.Items, 3, "loop must stop once the collection target is met")
}

func TestRepeatMaxScrollsCountsOnlyLoopScrolls(t *testing.T) {
	driver := newFakeDriver()

	exec := New(driver, testBindings(), testEngineConfig(), zap.NewNop())
	result := exec.Execute(context.Background(), &schemas.Recipe{
		Commands: []schemas.Command{
			// A scroll before the loop must not count against its budget.
			{Type: schemas.CmdScroll},
			{Type: schemas.CmdRepeat,
				Body:  []schemas.Command{{Type: schemas.CmdScroll}},
				Until: &schemas.UntilCondition{Type: schemas.UntilMaxScrolls, Count: 3}},
		},
	})

	require.True(t, result.Success, "run failed: %s", result.Error)
	assert.Equal(t, 4, result.Stats.Scrolls, "one pre-loop scroll plus three loop scrolls")
}

func TestRepeatStopsAtEndOfListMarker(t *testing.T) {
	driver := newFakeDriver()
	driver.exists[".no-results"] = true

	exec := New(driver, testBindings(), testEngineConfig(), zap.NewNop())
	result := exec.Execute(context.Background(), &schemas.Recipe{
		Commands: []schemas.Command{
			{Type: schemas.CmdRepeat,
				Body:  []schemas.Command{{Type: schemas.CmdScroll}},
				Until: &schemas.UntilCondition{Type: schemas.UntilMaxScrolls, Count: 10}},
		},
	})

	require.True(t, result.Success, "run failed: %s", result.Error)
	assert.Equal(t, 1, result.Stats.Scrolls,
		"the end-of-list marker must stop the loop before the scroll budget")
}

func TestRepeatSafetyCap(t *testing.T) {
	driver := newFakeDriver()
	core, logs := observer.New(zap.WarnLevel)

	cfg := testEngineConfig()
	cfg.MaxRepeatIterations = 4

	exec := New(driver, testBindings(), cfg, zap.New(core))
	result := exec.Execute(context.Background(), &schemas.Recipe{
		Commands: []schemas.Command{
			{Type: schemas.CmdRepeat,
				Body: []schemas.Command{{Type: schemas.CmdWait, Duration: 1}},
				// Unsatisfiable: nothing in the body collects.
				Until: &schemas.UntilCondition{Type: schemas.UntilCollected, Count: 99}},
		},
	})

	require.True(t, result.Success, "hitting the cap is not a failure: %s", result.Error)
	assert.Equal(t, 1, logs.FilterMessage("Repeat loop hit iteration safety cap").Len())
}

func TestIfTakesElseBranch(t *testing.T) {
	ctx := context.Background()
	driver := newFakeDriver()
	bind := testBindings()
	bind.Elements = map[string]string{"cookieBanner": "#cookie"}

	exec := New(driver, bind, testEngineConfig(), zap.NewNop())
	ec := NewExecutionContext(schemas.RecipeConfig{})

	res, err := exec.dispatch(ctx, ec, &schemas.Command{
		Type:      schemas.CmdIf,
		Condition: &schemas.Condition{Type: schemas.CondExists, Name: "cookieBanner"},
		Then:      []schemas.Command{{Type: schemas.CmdScroll}},
		Else:      []schemas.Command{{Type: schemas.CmdEnd}},
	})
	require.NoError(t, err)
	assert.Equal(t, false, res.Data["matched"])
	assert.True(t, ec.ShouldStop, "else branch ran END")
	assert.Zero(t, driver.scrolls)

	// Same command with the element present takes the then branch.
	driver.exists["#cookie"] = true
	ec = NewExecutionContext(schemas.RecipeConfig{})
	res, err = exec.dispatch(ctx, ec, &schemas.Command{
		Type:      schemas.CmdIf,
		Condition: &schemas.Condition{Type: schemas.CondExists, Name: "cookieBanner"},
		Then:      []schemas.Command{{Type: schemas.CmdScroll}},
	})
	require.NoError(t, err)
	assert.Equal(t, true, res.Data["matched"])
	assert.Equal(t, 1, driver.scrolls)
}

func TestNewItemsAgainstCheckpoint(t *testing.T) {
	ctx := context.Background()
	driver := newFakeDriver()
	driver.counts["li.job"] = 5

	exec := New(driver, testBindings(), testEngineConfig(), zap.NewNop())
	ec := NewExecutionContext(schemas.RecipeConfig{})

	_, err := exec.dispatch(ctx, ec, &schemas.Command{Type: schemas.CmdCheckpointCount})
	require.NoError(t, err)
	assert.Equal(t, 5, ec.CheckpointCount)

	// Same count as the checkpoint: nothing new.
	ok, err := exec.evalCondition(ctx, ec, &schemas.Condition{Type: schemas.CondNewItems})
	require.NoError(t, err)
	assert.False(t, ok)

	driver.counts["li.job"] = 8
	ok, err = exec.evalCondition(ctx, ec, &schemas.Condition{Type: schemas.CondNewItems})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = exec.evalCondition(ctx, ec, &schemas.Condition{
		Type:      schemas.CondNot,
		Condition: &schemas.Condition{Type: schemas.CondNewItems},
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConditionUnknownTypeErrors(t *testing.T) {
	driver := newFakeDriver()
	exec := New(driver, testBindings(), testEngineConfig(), zap.NewNop())
	ec := NewExecutionContext(schemas.RecipeConfig{})

	_, err := exec.evalCondition(context.Background(), ec, &schemas.Condition{Type: schemas.ConditionType("MAYBE")})
	require.Error(t, err)
}
