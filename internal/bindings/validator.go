// File: internal/bindings/validator.go
package bindings

import (
	"fmt"

	"github.com/seekwell-dev/seekwell/api/schemas"
)

// Validate enforces the hard and conditional requirements on a bindings
// record. Errors block use of the record; warnings mean execution proceeds
// with safe defaults.
func Validate(b *schemas.PageBindings) schemas.ValidationResult {
	var result schemas.ValidationResult

	addErr := func(format string, args ...any) {
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}
	addWarn := func(format string, args ...any) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(format, args...))
	}

	// Hard requirements.
	if b.List == "" {
		addErr("%s selector is required", schemas.BindingList)
	}
	if b.ListItem == "" {
		addErr("%s selector must be a non-empty selector", schemas.BindingListItem)
	}
	if len(b.DetailsContent) == 0 {
		addErr("%s requires at least one selector", schemas.BindingDetailsContent)
	}
	if b.ItemID.From == "" {
		addErr("%s extraction rule is required", schemas.BindingItemID)
	} else {
		switch b.ItemID.From {
		case schemas.IDFromHref, schemas.IDFromAttribute, schemas.IDFromText, schemas.IDFromData:
		default:
			addErr("%s has unknown source %q", schemas.BindingItemID, b.ItemID.From)
		}
		if b.ItemID.From == schemas.IDFromAttribute && b.ItemID.Attribute == "" {
			addErr("%s with from=attribute requires an attribute name", schemas.BindingItemID)
		}
	}
	if b.States.ListLoaded == nil {
		addErr("%s state predicate is required", schemas.BindingListLoaded)
	}
	if b.States.DetailsLoaded == nil {
		addErr("%s state predicate is required", schemas.BindingDetailsLoaded)
	}

	// Conditional requirements.
	if b.ScrollBehavior == schemas.ScrollLoadMore && b.LoadMoreButton == "" {
		addErr("scroll behavior %q requires a %s selector", schemas.ScrollLoadMore, schemas.BindingLoadMoreButton)
	}
	if b.ScrollBehavior == schemas.ScrollPaginate && b.NextPageButton == "" {
		addErr("scroll behavior %q requires a %s selector", schemas.ScrollPaginate, schemas.BindingNextPageButton)
	}

	// Recommended fields.
	if b.States.NoMoreItems == nil {
		addWarn("%s predicate missing; falling back to a generic no-results selector", schemas.BindingNoMoreItems)
	}
	if b.ClickBehavior == schemas.ClickShowsPanel && b.DetailsPanel == "" {
		addWarn("click behavior %q declared but no %s selector bound", schemas.ClickShowsPanel, schemas.BindingDetailsPanel)
	}

	result.Valid = len(result.Errors) == 0
	return result
}
