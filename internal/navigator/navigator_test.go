// File: internal/navigator/navigator_test.go
package navigator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seekwell-dev/seekwell/api/schemas"
	"github.com/seekwell-dev/seekwell/internal/config"
)

// scriptedLLM replays canned responses and records the prompts it was given.
type scriptedLLM struct {
	responses []string
	err       error
	requests  []schemas.GenerationRequest
}

func (s *scriptedLLM) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", errors.New("no scripted response left")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{RequestsPerMinute: 600, Temperature: 0.1}
}

func testSnapshot() schemas.DOMSnapshot {
	return schemas.DOMSnapshot{
		URL:   "https://jobs.example.com/search?q=go",
		Title: "Jobs",
		Text: "<body>\n  <ul.jobs-list>\n" +
			strings.Repeat("    <li.job-card href=/jobs/1> Senior Gopher\n", 20),
		ElementCount: 42,
	}
}

const discoveryResponse = `Here is my analysis of the page structure:
` + "```json" + `
{
  "list": "ul.jobs-list",
  "listItem": "li.job-card",
  "detailsPanel": "#job-details",
  "detailsContent": ["#job-details .description"],
  "searchBox": "input[name=q]",
  "itemId": {"from": "href", "pattern": "/jobs/(\\d+)"},
  "clickBehavior": "shows_panel",
  "scrollBehavior": "infinite_scroll"
}
` + "```"

func TestDiscoverBindingsFromProseWrappedResponse(t *testing.T) {
	llm := &scriptedLLM{responses: []string{discoveryResponse}}
	nav := New(llm, testLLMConfig(), zap.NewNop())

	record, err := nav.DiscoverBindings(context.Background(), testSnapshot())
	require.NoError(t, err)

	assert.Equal(t, "li.job-card", record.ListItem)
	assert.Equal(t, "jobs.example.com", record.URLPattern)
	assert.Equal(t, 1, record.Version)
	require.NotNil(t, record.States.ListLoaded, "normalization must fill default states")
	assert.Equal(t, schemas.IDFromHref, record.ItemID.From)

	require.Len(t, llm.requests, 1)
	assert.Contains(t, llm.requests[0].UserPrompt, "ul.jobs-list",
		"the snapshot outline must be in the prompt")
	assert.True(t, llm.requests[0].Options.ForceJSONFormat)
}

func TestDiscoverBindingsRejectsTinySnapshot(t *testing.T) {
	llm := &scriptedLLM{responses: []string{discoveryResponse}}
	nav := New(llm, testLLMConfig(), zap.NewNop())

	_, err := nav.DiscoverBindings(context.Background(), schemas.DOMSnapshot{
		URL:  "https://jobs.example.com",
		Text: "<body>",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(schemas.CodeDiscoveryFailed))
	assert.Empty(t, llm.requests, "an unrendered page must not burn an LLM call")
}

func TestDiscoverBindingsRejectsIncompleteRecord(t *testing.T) {
	// The model answered with valid JSON missing the list selectors entirely.
	llm := &scriptedLLM{responses: []string{`{"searchBox": "input[name=q]"}`}}
	nav := New(llm, testLLMConfig(), zap.NewNop())

	_, err := nav.DiscoverBindings(context.Background(), testSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(schemas.CodeDiscoveryFailed))
}

func TestDiscoverBindingsWrapsLLMFailure(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("rate limited")}
	nav := New(llm, testLLMConfig(), zap.NewNop())

	_, err := nav.DiscoverBindings(context.Background(), testSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func repairRequest() schemas.RepairRequest {
	return schemas.RepairRequest{
		Bindings: &schemas.PageBindings{
			ID:       "b-1",
			ListItem: "li.stale",
		},
		Command:      schemas.CmdForEachItemInList,
		Binding:      schemas.BindingListItem,
		CurrentValue: "li.stale",
		Failure:      "ELEMENT_NOT_FOUND: selector matched no list items",
		DOMContext:   "<ul.jobs>\n  <li.job-card> Gopher",
	}
}

func TestFixBindingReturnsPatch(t *testing.T) {
	llm := &scriptedLLM{responses: []string{`{"listItem": "li.job-card"}`}}
	nav := New(llm, testLLMConfig(), zap.NewNop())

	patch, err := nav.FixBinding(context.Background(), repairRequest())
	require.NoError(t, err)
	require.NotNil(t, patch)
	require.NotNil(t, patch.ListItem)
	assert.Equal(t, "li.job-card", *patch.ListItem)

	require.Len(t, llm.requests, 1)
	assert.Contains(t, llm.requests[0].UserPrompt, "li.stale",
		"the broken selector must be shown to the model")
	assert.Contains(t, llm.requests[0].UserPrompt, "LIST_ITEM")
}

func TestFixBindingEmptyObjectMeansNoFix(t *testing.T) {
	llm := &scriptedLLM{responses: []string{`{}`}}
	nav := New(llm, testLLMConfig(), zap.NewNop())

	patch, err := nav.FixBinding(context.Background(), repairRequest())
	require.NoError(t, err)
	assert.Nil(t, patch, "an empty patch object means the model had no fix")
}

func TestFixBindingUnparsableResponse(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"I cannot find that element, sorry."}}
	nav := New(llm, testLLMConfig(), zap.NewNop())

	_, err := nav.FixBinding(context.Background(), repairRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(schemas.CodeRepairFailed))
}
