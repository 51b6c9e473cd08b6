// File: internal/engine/resolve.go
package engine

import (
	"fmt"
	"strings"

	"github.com/seekwell-dev/seekwell/api/schemas"
)

// Prefixes for binding keys addressing entries of the bindings' open-ended
// maps. A repair scoped to "ELEMENT:cookieBanner" patches Elements["cookieBanner"].
const (
	elementKeyPrefix = "ELEMENT:"
	filterKeyPrefix  = "FILTER:"
)

// resolveName maps a recipe-facing element name to its bound selector and the
// binding key a repair for it would be scoped to. Built-in names resolve to
// the dedicated bindings fields; everything else falls through to the
// Elements and Filters maps. ok is false when the name is unbound or bound to
// an empty selector; the key is still returned so callers can request a
// repair that introduces the binding.
func (e *Executor) resolveName(name string) (sel string, key schemas.BindingKey, ok bool) {
	b := e.bind
	switch name {
	case schemas.NameList:
		return b.List, schemas.BindingList, b.List != ""
	case schemas.NameListItem:
		return b.ListItem, schemas.BindingListItem, b.ListItem != ""
	case schemas.NameDetailsPanel:
		return b.DetailsPanel, schemas.BindingDetailsPanel, b.DetailsPanel != ""
	case schemas.NameSearchBox:
		return b.SearchBox, schemas.BindingSearchBox, b.SearchBox != ""
	case schemas.NameNextPageButton:
		return b.NextPageButton, schemas.BindingNextPageButton, b.NextPageButton != ""
	case schemas.NameLoadMoreButton:
		return b.LoadMoreButton, schemas.BindingLoadMoreButton, b.LoadMoreButton != ""
	}
	if sel, found := b.Elements[name]; found && sel != "" {
		return sel, schemas.BindingKey(elementKeyPrefix + name), true
	}
	if sel, found := b.Filters[name]; found && sel != "" {
		return sel, schemas.BindingKey(filterKeyPrefix + name), true
	}
	return "", schemas.BindingKey(elementKeyPrefix + name), false
}

// currentValue reports the selector (or serialized predicate) currently bound
// to a key, for inclusion in a repair request.
func (e *Executor) currentValue(key schemas.BindingKey) string {
	b := e.bind
	switch key {
	case schemas.BindingList:
		return b.List
	case schemas.BindingListItem:
		return b.ListItem
	case schemas.BindingDetailsPanel:
		return b.DetailsPanel
	case schemas.BindingDetailsContent:
		return strings.Join(b.DetailsContent, ", ")
	case schemas.BindingSearchBox:
		return b.SearchBox
	case schemas.BindingScrollContainer:
		return b.ScrollContainer
	case schemas.BindingNextPageButton:
		return b.NextPageButton
	case schemas.BindingLoadMoreButton:
		return b.LoadMoreButton
	case schemas.BindingItemID:
		return fmt.Sprintf("from=%s selector=%q attribute=%q pattern=%q",
			b.ItemID.From, b.ItemID.Selector, b.ItemID.Attribute, b.ItemID.Pattern)
	case schemas.BindingPageLoaded:
		return describeState(b.States.PageLoaded)
	case schemas.BindingListLoaded:
		return describeState(b.States.ListLoaded)
	case schemas.BindingListUpdated:
		return describeState(b.States.ListUpdated)
	case schemas.BindingDetailsLoaded:
		return describeState(b.States.DetailsLoaded)
	case schemas.BindingNoMoreItems:
		return describeState(b.States.NoMoreItems)
	}
	s := string(key)
	if name, found := strings.CutPrefix(s, elementKeyPrefix); found {
		return b.Elements[name]
	}
	if name, found := strings.CutPrefix(s, filterKeyPrefix); found {
		return b.Filters[name]
	}
	return ""
}

func describeState(sc *schemas.StateCondition) string {
	if sc == nil {
		return ""
	}
	return fmt.Sprintf("kind=%s selector=%q text=%q", sc.Kind, sc.Selector, sc.Text)
}

// stateForTarget maps a WAIT_FOR target to the bound state predicate and the
// binding key implicated when the wait times out. Records produced by the
// bindings finalizer always carry these predicates; the fallbacks here cover
// hand-written bindings files.
func (e *Executor) stateForTarget(target string) (*schemas.StateCondition, schemas.BindingKey, error) {
	b := e.bind
	switch target {
	case schemas.WaitTargetPage:
		if b.States.PageLoaded != nil {
			return b.States.PageLoaded, schemas.BindingPageLoaded, nil
		}
		return &schemas.StateCondition{Kind: schemas.StateElementExists, Selector: "body"}, schemas.BindingPageLoaded, nil
	case schemas.WaitTargetList:
		if b.States.ListLoaded != nil {
			return b.States.ListLoaded, schemas.BindingListLoaded, nil
		}
		return &schemas.StateCondition{Kind: schemas.StateElementExists, Selector: b.ListItem}, schemas.BindingListLoaded, nil
	case schemas.WaitTargetListUpdate:
		if b.States.ListUpdated != nil {
			return b.States.ListUpdated, schemas.BindingListUpdated, nil
		}
		return &schemas.StateCondition{Kind: schemas.StateCountIncrease, Selector: b.ListItem}, schemas.BindingListUpdated, nil
	case schemas.WaitTargetDetails:
		if b.States.DetailsLoaded != nil {
			return b.States.DetailsLoaded, schemas.BindingDetailsLoaded, nil
		}
		sel := b.DetailsPanel
		if len(b.DetailsContent) > 0 {
			sel = b.DetailsContent[0]
		}
		return &schemas.StateCondition{Kind: schemas.StateElementExists, Selector: sel}, schemas.BindingDetailsLoaded, nil
	}
	return nil, "", fmt.Errorf("unknown wait target: %q", target)
}
