// File: internal/bindings/validator_test.go
package bindings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekwell-dev/seekwell/api/schemas"
)

func validBindings() *schemas.PageBindings {
	return &schemas.PageBindings{
		List:           "ul.jobs",
		ListItem:       "ul.jobs > li",
		DetailsContent: []string{"#details"},
		ItemID:         schemas.ItemIDExtractor{From: schemas.IDFromHref},
		States: schemas.StateBindings{
			ListLoaded:    &schemas.StateCondition{Kind: schemas.StateElementExists, Selector: "ul.jobs > li"},
			DetailsLoaded: &schemas.StateCondition{Kind: schemas.StateElementExists, Selector: "#details"},
			NoMoreItems:   &schemas.StateCondition{Kind: schemas.StateElementExists, Selector: ".no-results"},
		},
		ClickBehavior:  schemas.ClickShowsPanel,
		ScrollBehavior: schemas.ScrollInfinite,
		DetailsPanel:   "#panel",
	}
}

func TestValidateAcceptsCompleteRecord(t *testing.T) {
	result := Validate(validBindings())
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateHardRequirements(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *schemas.PageBindings)
		wantErr string
	}{
		{
			name:    "missing list",
			mutate:  func(b *schemas.PageBindings) { b.List = "" },
			wantErr: "LIST selector is required",
		},
		{
			name:    "missing list item",
			mutate:  func(b *schemas.PageBindings) { b.ListItem = "" },
			wantErr: "LIST_ITEM selector must be a non-empty selector",
		},
		{
			name:    "missing details content",
			mutate:  func(b *schemas.PageBindings) { b.DetailsContent = nil },
			wantErr: "DETAILS_CONTENT requires at least one selector",
		},
		{
			name:    "missing item id rule",
			mutate:  func(b *schemas.PageBindings) { b.ItemID = schemas.ItemIDExtractor{} },
			wantErr: "ITEM_ID extraction rule is required",
		},
		{
			name:    "unknown item id source",
			mutate:  func(b *schemas.PageBindings) { b.ItemID.From = "xpath" },
			wantErr: "unknown source",
		},
		{
			name: "attribute source without attribute",
			mutate: func(b *schemas.PageBindings) {
				b.ItemID = schemas.ItemIDExtractor{From: schemas.IDFromAttribute}
			},
			wantErr: "requires an attribute name",
		},
		{
			name:    "missing list loaded state",
			mutate:  func(b *schemas.PageBindings) { b.States.ListLoaded = nil },
			wantErr: "LIST_LOADED state predicate is required",
		},
		{
			name:    "missing details loaded state",
			mutate:  func(b *schemas.PageBindings) { b.States.DetailsLoaded = nil },
			wantErr: "DETAILS_LOADED state predicate is required",
		},
		{
			name: "load more behavior without button",
			mutate: func(b *schemas.PageBindings) {
				b.ScrollBehavior = schemas.ScrollLoadMore
				b.LoadMoreButton = ""
			},
			wantErr: "LOAD_MORE_BUTTON",
		},
		{
			name: "paginated behavior without next button",
			mutate: func(b *schemas.PageBindings) {
				b.ScrollBehavior = schemas.ScrollPaginate
				b.NextPageButton = ""
			},
			wantErr: "NEXT_PAGE_BUTTON",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := validBindings()
			tc.mutate(b)
			result := Validate(b)
			require.False(t, result.Valid)
			assert.True(t, containsSubstring(result.Errors, tc.wantErr),
				"errors %v should mention %q", result.Errors, tc.wantErr)
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	b := validBindings()
	b.States.NoMoreItems = nil
	result := Validate(b)
	assert.True(t, result.Valid, "missing NO_MORE_ITEMS is a warning, not an error")
	assert.True(t, containsSubstring(result.Warnings, "NO_MORE_ITEMS"))

	b = validBindings()
	b.DetailsPanel = ""
	result = Validate(b)
	assert.True(t, result.Valid)
	assert.True(t, containsSubstring(result.Warnings, "DETAILS_PANEL"))
}

func containsSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
