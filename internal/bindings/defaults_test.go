// File: internal/bindings/defaults_test.go
package bindings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekwell-dev/seekwell/api/schemas"
)

func TestStringListAcceptsBothShapes(t *testing.T) {
	var s StringList
	require.NoError(t, json.Unmarshal([]byte(`".details"`), &s))
	assert.Equal(t, StringList{".details"}, s)

	require.NoError(t, json.Unmarshal([]byte(`[".a", ".b"]`), &s))
	assert.Equal(t, StringList{".a", ".b"}, s)
}

func TestFinalizeFillsDefaults(t *testing.T) {
	raw := &RawBindings{
		List:     " ul.jobs ",
		ListItem: "ul.jobs > li",
	}

	b, err := Finalize(raw, "https://www.example.com/jobs?q=go")
	require.NoError(t, err)

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "www.example.com", b.URLPattern)
	assert.Equal(t, 1, b.Version)
	assert.False(t, b.UpdatedAt.IsZero())
	assert.Equal(t, "ul.jobs", b.List, "selectors are trimmed")

	assert.Equal(t, schemas.IDFromHref, b.ItemID.From, "item id defaults to href")
	assert.Equal(t, schemas.ClickInline, b.ClickBehavior, "no panel implies inline")
	assert.Equal(t, schemas.ScrollInfinite, b.ScrollBehavior)

	require.NotNil(t, b.States.PageLoaded)
	assert.Equal(t, "body", b.States.PageLoaded.Selector)
	require.NotNil(t, b.States.ListLoaded)
	assert.Equal(t, "ul.jobs > li", b.States.ListLoaded.Selector)
	require.NotNil(t, b.States.ListUpdated)
	assert.Equal(t, schemas.StateCountIncrease, b.States.ListUpdated.Kind)
	require.NotNil(t, b.States.DetailsLoaded)
	assert.Nil(t, b.States.NoMoreItems, "no-more-items has no default; evaluation falls back at runtime")
}

func TestFinalizeInfersBehaviors(t *testing.T) {
	raw := &RawBindings{
		List:         "ul.jobs",
		ListItem:     "ul.jobs > li",
		DetailsPanel: "#details",
	}
	b, err := Finalize(raw, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, schemas.ClickShowsPanel, b.ClickBehavior)
	assert.Equal(t, []string{"#details"}, b.DetailsContent, "details content defaults to the panel")
	require.NotNil(t, b.States.DetailsLoaded)
	assert.Equal(t, "#details", b.States.DetailsLoaded.Selector)

	raw = &RawBindings{
		List:           "ul.jobs",
		ListItem:       "ul.jobs > li",
		LoadMoreButton: "button.more",
	}
	b, err = Finalize(raw, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, schemas.ScrollLoadMore, b.ScrollBehavior)

	raw = &RawBindings{
		List:           "ul.jobs",
		ListItem:       "ul.jobs > li",
		NextPageButton: "a.next",
	}
	b, err = Finalize(raw, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, schemas.ScrollPaginate, b.ScrollBehavior)
}

func TestFinalizeKeepsExplicitStates(t *testing.T) {
	raw := &RawBindings{
		List:     "ul.jobs",
		ListItem: "ul.jobs > li",
		States: &schemas.StateBindings{
			ListLoaded:  &schemas.StateCondition{Kind: schemas.StateElementVisible, Selector: ".spinner-gone"},
			NoMoreItems: &schemas.StateCondition{Kind: schemas.StateTextMatch, Text: "no more jobs"},
		},
	}

	b, err := Finalize(raw, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, ".spinner-gone", b.States.ListLoaded.Selector, "discovered predicate must survive")
	require.NotNil(t, b.States.NoMoreItems)
	assert.Equal(t, "no more jobs", b.States.NoMoreItems.Text)
}

func TestFinalizeRequiresListSelectors(t *testing.T) {
	_, err := Finalize(&RawBindings{List: "ul.jobs"}, "https://example.com")
	require.Error(t, err)

	_, err = Finalize(&RawBindings{ListItem: "li"}, "https://example.com")
	require.Error(t, err)

	_, err = Finalize(&RawBindings{List: "  ", ListItem: "li"}, "https://example.com")
	require.Error(t, err, "whitespace-only selectors are empty after trimming")
}
