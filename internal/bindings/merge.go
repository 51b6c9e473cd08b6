// File: internal/bindings/merge.go
package bindings

import (
	"time"

	"github.com/seekwell-dev/seekwell/api/schemas"
)

// Merge folds a repair patch into an existing record in place. Repairs are
// merges, never full replacements: unaffected fields survive, named
// collections are deep-merged, and Version/UpdatedAt advance so the store's
// optimistic version check can catch concurrent writers.
func Merge(b *schemas.PageBindings, patch *schemas.BindingPatch) {
	if patch.IsZero() {
		return
	}

	setIf(&b.List, patch.List)
	setIf(&b.ListItem, patch.ListItem)
	setIf(&b.DetailsPanel, patch.DetailsPanel)
	setIf(&b.SearchBox, patch.SearchBox)
	setIf(&b.ScrollContainer, patch.ScrollContainer)
	setIf(&b.NextPageButton, patch.NextPageButton)
	setIf(&b.LoadMoreButton, patch.LoadMoreButton)

	for _, sel := range patch.DetailsContent {
		if !contains(b.DetailsContent, sel) {
			b.DetailsContent = append(b.DetailsContent, sel)
		}
	}

	if len(patch.Filters) > 0 {
		if b.Filters == nil {
			b.Filters = make(map[string]string, len(patch.Filters))
		}
		for k, v := range patch.Filters {
			b.Filters[k] = v
		}
	}
	if len(patch.Elements) > 0 {
		if b.Elements == nil {
			b.Elements = make(map[string]string, len(patch.Elements))
		}
		for k, v := range patch.Elements {
			b.Elements[k] = v
		}
	}

	if patch.ItemID != nil {
		b.ItemID = *patch.ItemID
	}
	if patch.States != nil {
		mergeStates(&b.States, patch.States)
	}
	if patch.ClickBehavior != nil {
		b.ClickBehavior = *patch.ClickBehavior
	}
	if patch.ScrollBehavior != nil {
		b.ScrollBehavior = *patch.ScrollBehavior
	}

	b.Version++
	b.UpdatedAt = time.Now().UTC()
}

func mergeStates(dst, src *schemas.StateBindings) {
	if src.PageLoaded != nil {
		dst.PageLoaded = src.PageLoaded
	}
	if src.ListLoaded != nil {
		dst.ListLoaded = src.ListLoaded
	}
	if src.ListUpdated != nil {
		dst.ListUpdated = src.ListUpdated
	}
	if src.DetailsLoaded != nil {
		dst.DetailsLoaded = src.DetailsLoaded
	}
	if src.NoMoreItems != nil {
		dst.NoMoreItems = src.NoMoreItems
	}
}

func setIf(dst *string, src *string) {
	if src != nil && *src != "" {
		*dst = *src
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
