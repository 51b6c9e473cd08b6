// File: internal/engine/repair_test.go
package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seekwell-dev/seekwell/api/schemas"
)

func TestRepairPatchesBindingAndRetries(t *testing.T) {
	driver := newFakeDriver()
	// The live page uses li.job; the stored bindings are stale.
	driver.handlesBySelector["li.job"] = jobHandles(5)
	driver.texts["#details"] = []string{"posting body"}

	bind := testBindings()
	bind.ListItem = "li.stale"

	fresh := "li.job"
	repairer := &fakeRepairer{patches: []*schemas.BindingPatch{{ListItem: &fresh}}}

	exec := New(driver, bind, testEngineConfig(), zap.NewNop(), WithRepairer(repairer, nil))
	result := exec.Execute(context.Background(), &schemas.Recipe{
		Commands: []schemas.Command{
			{Type: schemas.CmdForEachItemInList, Body: collectBody()},
		},
	})

	require.True(t, result.Success, "run failed: %s", result.Error)
	assert.Len(t, result.Items, 5, "retry after the repair must see the real list")
	assert.Equal(t, 1, result.Stats.Repairs)

	require.Len(t, repairer.requests, 1)
	req := repairer.requests[0]
	assert.Equal(t, schemas.BindingListItem, req.Binding)
	assert.Equal(t, "li.stale", req.CurrentValue)
	assert.Equal(t, schemas.CmdForEachItemInList, req.Command)

	assert.Equal(t, "li.job", exec.Bindings().ListItem)
	assert.Equal(t, 2, exec.Bindings().Version, "merge must bump the record version")
}

func TestRepairWithoutPatchPropagatesOriginalError(t *testing.T) {
	driver := newFakeDriver() // empty list, never fixable
	repairer := &fakeRepairer{} // always answers nil patch

	exec := New(driver, testBindings(), testEngineConfig(), zap.NewNop(), WithRepairer(repairer, nil))
	result := exec.Execute(context.Background(), &schemas.Recipe{
		Commands: []schemas.Command{
			{Type: schemas.CmdForEachItemInList, Body: collectBody()},
		},
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, string(schemas.CodeElementNotFound))
	assert.Len(t, repairer.requests, 1, "exactly one repair attempt per failure")
	assert.Zero(t, result.Stats.Repairs)
}

func TestRepairRetryFailureIsNotRepairedAgain(t *testing.T) {
	driver := newFakeDriver() // nothing matches any selector
	stillWrong := "li.also-stale"
	repairer := &fakeRepairer{patches: []*schemas.BindingPatch{{ListItem: &stillWrong}}}

	exec := New(driver, testBindings(), testEngineConfig(), zap.NewNop(), WithRepairer(repairer, nil))
	result := exec.Execute(context.Background(), &schemas.Recipe{
		Commands: []schemas.Command{
			{Type: schemas.CmdForEachItemInList, Body: collectBody()},
		},
	})

	assert.False(t, result.Success, "a bad patch must not loop the repair protocol")
	assert.Len(t, repairer.requests, 1, "the failed retry must not trigger a second repair")
	assert.Equal(t, 1, result.Stats.Repairs, "the merge itself still counts")
}

func TestRepairNotAttemptedForNonRepairableFailures(t *testing.T) {
	driver := newFakeDriver()
	repairer := &fakeRepairer{}

	exec := New(driver, testBindings(), testEngineConfig(), zap.NewNop(), WithRepairer(repairer, nil))
	result := exec.Execute(context.Background(), &schemas.Recipe{
		Commands: []schemas.Command{{Type: schemas.CommandType("TELEPORT")}},
	})

	assert.False(t, result.Success)
	assert.Empty(t, repairer.requests, "UNKNOWN_COMMAND is not selector-shaped")
}

func TestRepairRequestCarriesSnapshot(t *testing.T) {
	driver := newFakeDriver()
	fresh := "li.job"
	driver.handlesBySelector["li.job"] = jobHandles(1)
	driver.texts["#details"] = []string{"body"}
	repairer := &fakeRepairer{patches: []*schemas.BindingPatch{{ListItem: &fresh}}}

	bind := testBindings()
	bind.ListItem = "li.stale"

	snapshot := func(ctx context.Context) (schemas.DOMSnapshot, error) {
		return schemas.DOMSnapshot{Text: "<ul.jobs>\n  <li.job> Job 0"}, nil
	}

	exec := New(driver, bind, testEngineConfig(), zap.NewNop(), WithRepairer(repairer, snapshot))
	result := exec.Execute(context.Background(), &schemas.Recipe{
		Commands: []schemas.Command{
			{Type: schemas.CmdForEachItemInList, Body: collectBody()},
		},
	})

	require.True(t, result.Success, "run failed: %s", result.Error)
	require.Len(t, repairer.requests, 1)
	assert.Contains(t, repairer.requests[0].DOMContext, "li.job",
		"the condensed DOM must reach the repairer")
}
