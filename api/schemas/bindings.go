// File: api/schemas/bindings.go
package schemas

import "time"

// BindingKey names one abstract role in a PageBindings record. The interpreter
// maps a failing command to the BindingKey it depended on, which scopes the
// repair request sent to the navigator.
type BindingKey string

const (
	BindingList            BindingKey = "LIST"
	BindingListItem        BindingKey = "LIST_ITEM"
	BindingDetailsPanel    BindingKey = "DETAILS_PANEL"
	BindingDetailsContent  BindingKey = "DETAILS_CONTENT"
	BindingSearchBox       BindingKey = "SEARCH_BOX"
	BindingScrollContainer BindingKey = "SCROLL_CONTAINER"
	BindingNextPageButton  BindingKey = "NEXT_PAGE_BUTTON"
	BindingLoadMoreButton  BindingKey = "LOAD_MORE_BUTTON"
	BindingItemID          BindingKey = "ITEM_ID"
	BindingPageLoaded      BindingKey = "PAGE_LOADED"
	BindingListLoaded      BindingKey = "LIST_LOADED"
	BindingListUpdated     BindingKey = "LIST_UPDATED"
	BindingDetailsLoaded   BindingKey = "DETAILS_LOADED"
	BindingNoMoreItems     BindingKey = "NO_MORE_ITEMS"
)

// Built-in named elements resolvable by CLICK_IF_EXISTS / GO_TO / EXISTS.
// Anything else is looked up in the bindings' Elements map.
const (
	NameList           = "list"
	NameListItem       = "listItem"
	NameDetailsPanel   = "detailsPanel"
	NameSearchBox      = "searchBox"
	NameNextPageButton = "nextPageButton"
	NameLoadMoreButton = "loadMoreButton"
)

// ClickBehavior describes what clicking a list item does on this site.
type ClickBehavior string

const (
	ClickShowsPanel ClickBehavior = "shows_panel"
	ClickInline     ClickBehavior = "inline"
	ClickNavigates  ClickBehavior = "navigates"
)

// ScrollBehavior describes how the site reveals more list items.
type ScrollBehavior string

const (
	ScrollInfinite ScrollBehavior = "infinite_scroll"
	ScrollLoadMore ScrollBehavior = "load_more_button"
	ScrollPaginate ScrollBehavior = "paginated"
	ScrollNone     ScrollBehavior = "none"
)

// IDSource selects where an item's stable identity comes from.
type IDSource string

const (
	IDFromHref      IDSource = "href"
	IDFromAttribute IDSource = "attribute"
	IDFromText      IDSource = "text"
	IDFromData      IDSource = "data"
)

// ItemIDExtractor declares how to derive a stable id per list item. Ids must
// be stable across repeated queries of the same underlying item, otherwise
// processed-item tracking breaks.
type ItemIDExtractor struct {
	From      IDSource `json:"from"`
	Selector  string   `json:"selector,omitempty"`
	Attribute string   `json:"attribute,omitempty"`
	Pattern   string   `json:"pattern,omitempty"` // optional regex, first capture group wins
}

// StateKind tags the detection strategy of a StateCondition.
type StateKind string

const (
	StateElementExists  StateKind = "element_exists"
	StateElementVisible StateKind = "element_visible"
	StateTextMatch      StateKind = "text_match"
	StateCountIncrease  StateKind = "item_count_increased"
)

// StateCondition is a page-state predicate stored inside bindings, e.g.
// "the list has loaded" or "there are no more items".
type StateCondition struct {
	Kind     StateKind `json:"kind"`
	Selector string    `json:"selector,omitempty"`
	Text     string    `json:"text,omitempty"`
}

// StateBindings groups the per-site state-detection predicates. Omitted
// entries receive defaults from the bindings finalizer.
type StateBindings struct {
	PageLoaded    *StateCondition `json:"pageLoaded,omitempty"`
	ListLoaded    *StateCondition `json:"listLoaded,omitempty"`
	ListUpdated   *StateCondition `json:"listUpdated,omitempty"`
	DetailsLoaded *StateCondition `json:"detailsLoaded,omitempty"`
	NoMoreItems   *StateCondition `json:"noMoreItems,omitempty"`
}

// PageBindings maps the abstract roles of the command language to concrete
// selectors for one site. Records are created by discovery, persisted keyed by
// ID, looked up by URL-pattern hostname match, and mutated only through
// merge-on-repair: Version increments and UpdatedAt refreshes on every merge,
// and unaffected fields survive.
type PageBindings struct {
	ID         string    `json:"id"`
	URLPattern string    `json:"urlPattern"`
	Version    int       `json:"version"`
	UpdatedAt  time.Time `json:"updatedAt"`

	List            string            `json:"list"`
	ListItem        string            `json:"listItem"`
	DetailsPanel    string            `json:"detailsPanel,omitempty"`
	DetailsContent  []string          `json:"detailsContent"`
	SearchBox       string            `json:"searchBox,omitempty"`
	ScrollContainer string            `json:"scrollContainer,omitempty"`
	NextPageButton  string            `json:"nextPageButton,omitempty"`
	LoadMoreButton  string            `json:"loadMoreButton,omitempty"`
	Filters         map[string]string `json:"filters,omitempty"`
	Elements        map[string]string `json:"elements,omitempty"`

	ItemID         ItemIDExtractor `json:"itemId"`
	States         StateBindings   `json:"states"`
	ClickBehavior  ClickBehavior   `json:"clickBehavior"`
	ScrollBehavior ScrollBehavior  `json:"scrollBehavior"`
}

// BindingPatch is a partial update produced by a repair call. Nil pointers
// leave the corresponding field untouched; map and slice entries are merged
// into the existing collections rather than replacing them.
type BindingPatch struct {
	List            *string           `json:"list,omitempty"`
	ListItem        *string           `json:"listItem,omitempty"`
	DetailsPanel    *string           `json:"detailsPanel,omitempty"`
	DetailsContent  []string          `json:"detailsContent,omitempty"`
	SearchBox       *string           `json:"searchBox,omitempty"`
	ScrollContainer *string           `json:"scrollContainer,omitempty"`
	NextPageButton  *string           `json:"nextPageButton,omitempty"`
	LoadMoreButton  *string           `json:"loadMoreButton,omitempty"`
	Filters         map[string]string `json:"filters,omitempty"`
	Elements        map[string]string `json:"elements,omitempty"`
	ItemID          *ItemIDExtractor  `json:"itemId,omitempty"`
	States          *StateBindings    `json:"states,omitempty"`
	ClickBehavior   *ClickBehavior    `json:"clickBehavior,omitempty"`
	ScrollBehavior  *ScrollBehavior   `json:"scrollBehavior,omitempty"`
}

// IsZero reports whether the patch would change nothing.
func (p *BindingPatch) IsZero() bool {
	if p == nil {
		return true
	}
	return p.List == nil && p.ListItem == nil && p.DetailsPanel == nil &&
		len(p.DetailsContent) == 0 && p.SearchBox == nil && p.ScrollContainer == nil &&
		p.NextPageButton == nil && p.LoadMoreButton == nil && len(p.Filters) == 0 &&
		len(p.Elements) == 0 && p.ItemID == nil && p.States == nil &&
		p.ClickBehavior == nil && p.ScrollBehavior == nil
}

// ValidationResult reports hard errors (block use of the bindings) separately
// from warnings (use proceeds with safe defaults).
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// DOMSnapshot is the textual serialization of a page handed to the LLM for
// binding discovery and repair.
type DOMSnapshot struct {
	URL          string `json:"url"`
	Title        string `json:"title,omitempty"`
	Text         string `json:"text"`
	ElementCount int    `json:"elementCount"`
}
