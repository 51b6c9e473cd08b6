// File: internal/bindings/defaults.go

// Package bindings owns the per-site binding record: normalization of raw LLM
// discovery output, validation, merge-on-repair, and item identity
// extraction. Discovery and repair share one normalization path through the
// defaults table below.
package bindings

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/seekwell-dev/seekwell/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StringList tolerates a bare string where a list is expected; discovery
// models emit both shapes.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*s = StringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = StringList(many)
	return nil
}

// RawBindings is the JSON shape the discovery prompt constrains the LLM to.
// Everything is optional except list/listItem; Finalize fills the rest.
type RawBindings struct {
	List            string                   `json:"list"`
	ListItem        string                   `json:"listItem"`
	DetailsPanel    string                   `json:"detailsPanel,omitempty"`
	DetailsContent  StringList               `json:"detailsContent,omitempty"`
	SearchBox       string                   `json:"searchBox,omitempty"`
	ScrollContainer string                   `json:"scrollContainer,omitempty"`
	NextPageButton  string                   `json:"nextPageButton,omitempty"`
	LoadMoreButton  string                   `json:"loadMoreButton,omitempty"`
	Filters         map[string]string        `json:"filters,omitempty"`
	Elements        map[string]string        `json:"elements,omitempty"`
	ItemID          *schemas.ItemIDExtractor `json:"itemId,omitempty"`
	States          *schemas.StateBindings   `json:"states,omitempty"`
	ClickBehavior   string                   `json:"clickBehavior,omitempty"`
	ScrollBehavior  string                   `json:"scrollBehavior,omitempty"`
}

// stateDefault describes one entry of the defaults table: which state
// predicate it fills and how to build the fallback from the rest of the
// record.
type stateDefault struct {
	key   schemas.BindingKey
	get   func(s *schemas.StateBindings) **schemas.StateCondition
	build func(b *schemas.PageBindings) *schemas.StateCondition
}

// stateDefaults is the single explicit defaults table shared by discovery and
// repair normalization. NO_MORE_ITEMS is deliberately absent: leaving it nil
// produces a validation warning, and evaluation falls back to
// DefaultNoMoreItems.
var stateDefaults = []stateDefault{
	{
		key: schemas.BindingPageLoaded,
		get: func(s *schemas.StateBindings) **schemas.StateCondition { return &s.PageLoaded },
		build: func(b *schemas.PageBindings) *schemas.StateCondition {
			return &schemas.StateCondition{Kind: schemas.StateElementExists, Selector: "body"}
		},
	},
	{
		key: schemas.BindingListLoaded,
		get: func(s *schemas.StateBindings) **schemas.StateCondition { return &s.ListLoaded },
		build: func(b *schemas.PageBindings) *schemas.StateCondition {
			return &schemas.StateCondition{Kind: schemas.StateElementExists, Selector: b.ListItem}
		},
	},
	{
		key: schemas.BindingListUpdated,
		get: func(s *schemas.StateBindings) **schemas.StateCondition { return &s.ListUpdated },
		build: func(b *schemas.PageBindings) *schemas.StateCondition {
			return &schemas.StateCondition{Kind: schemas.StateCountIncrease, Selector: b.ListItem}
		},
	},
	{
		key: schemas.BindingDetailsLoaded,
		get: func(s *schemas.StateBindings) **schemas.StateCondition { return &s.DetailsLoaded },
		build: func(b *schemas.PageBindings) *schemas.StateCondition {
			sel := b.ListItem
			if len(b.DetailsContent) > 0 {
				sel = b.DetailsContent[0]
			} else if b.DetailsPanel != "" {
				sel = b.DetailsPanel
			}
			return &schemas.StateCondition{Kind: schemas.StateElementExists, Selector: sel}
		},
	},
}

// DefaultNoMoreItems is the safe fallback predicate used when a site's
// bindings never declared how "no more results" looks.
func DefaultNoMoreItems() *schemas.StateCondition {
	return &schemas.StateCondition{
		Kind:     schemas.StateElementExists,
		Selector: ".no-results, [class*='no-results'], [class*='empty-state']",
	}
}

// Finalize turns raw discovery output into a complete PageBindings record:
// defaults applied, click/scroll behavior inferred, identity and versioning
// set. It fails only if LIST or LIST_ITEM remain empty after normalization.
func Finalize(raw *RawBindings, pageURL string) (*schemas.PageBindings, error) {
	b := &schemas.PageBindings{
		ID:              uuid.NewString(),
		URLPattern:      hostnameOf(pageURL),
		Version:         1,
		UpdatedAt:       time.Now().UTC(),
		List:            strings.TrimSpace(raw.List),
		ListItem:        strings.TrimSpace(raw.ListItem),
		DetailsPanel:    strings.TrimSpace(raw.DetailsPanel),
		DetailsContent:  trimAll(raw.DetailsContent),
		SearchBox:       strings.TrimSpace(raw.SearchBox),
		ScrollContainer: strings.TrimSpace(raw.ScrollContainer),
		NextPageButton:  strings.TrimSpace(raw.NextPageButton),
		LoadMoreButton:  strings.TrimSpace(raw.LoadMoreButton),
		Filters:         raw.Filters,
		Elements:        raw.Elements,
	}

	if b.List == "" || b.ListItem == "" {
		return nil, fmt.Errorf("discovery produced no usable %s/%s selectors",
			schemas.BindingList, schemas.BindingListItem)
	}

	if raw.ItemID != nil {
		b.ItemID = *raw.ItemID
	}
	if b.ItemID.From == "" {
		b.ItemID = schemas.ItemIDExtractor{From: schemas.IDFromHref}
	}

	// Details content defaults to the panel selector when only the panel was
	// discovered.
	if len(b.DetailsContent) == 0 && b.DetailsPanel != "" {
		b.DetailsContent = []string{b.DetailsPanel}
	}

	if raw.States != nil {
		b.States = *raw.States
	}
	for _, d := range stateDefaults {
		slot := d.get(&b.States)
		if *slot == nil || (*slot).Selector == "" && (*slot).Kind == "" {
			*slot = d.build(b)
		}
	}

	b.ClickBehavior = schemas.ClickBehavior(raw.ClickBehavior)
	if b.ClickBehavior == "" {
		if b.DetailsPanel != "" {
			b.ClickBehavior = schemas.ClickShowsPanel
		} else {
			b.ClickBehavior = schemas.ClickInline
		}
	}

	b.ScrollBehavior = schemas.ScrollBehavior(raw.ScrollBehavior)
	if b.ScrollBehavior == "" {
		switch {
		case b.LoadMoreButton != "":
			b.ScrollBehavior = schemas.ScrollLoadMore
		case b.NextPageButton != "":
			b.ScrollBehavior = schemas.ScrollPaginate
		default:
			b.ScrollBehavior = schemas.ScrollInfinite
		}
	}

	return b, nil
}

func hostnameOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Hostname() == "" {
		return pageURL
	}
	return u.Hostname()
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
