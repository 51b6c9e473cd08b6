// File: internal/navigator/prompts.go
package navigator

import (
	"fmt"

	"github.com/seekwell-dev/seekwell/api/schemas"
)

const discoverySystemPrompt = `You are the Navigator of 'seekwell', an automation engine that extracts structured data from list/detail web pages such as job boards.
You receive a condensed text serialization of a page's DOM and must identify the CSS selectors that bind the page's abstract roles.
Respond with a single JSON object and nothing else. Shape:

{
  "list": "<CSS selector for the container holding the result list>",
  "listItem": "<CSS selector matching one entry in the list>",
  "detailsPanel": "<selector for the panel showing an entry's details, omit if clicking navigates or expands inline>",
  "detailsContent": ["<selector(s) for the text content inside the details view>"],
  "searchBox": "<selector for the keyword search input, omit if none>",
  "scrollContainer": "<selector for the scrollable list container if it is not the window>",
  "nextPageButton": "<selector for classic pagination next button, omit if none>",
  "loadMoreButton": "<selector for an explicit load-more button, omit if none>",
  "filters": {"<filterName>": "<selector>"},
  "elements": {"<name>": "<selector>"},
  "itemId": {"from": "href|attribute|text|data", "attribute": "<attr name when from=attribute>", "pattern": "<optional regex, first capture group>"},
  "states": {
    "pageLoaded":    {"kind": "element_exists|element_visible|text_match", "selector": "...", "text": "..."},
    "listLoaded":    {...},
    "listUpdated":   {...},
    "detailsLoaded": {...},
    "noMoreItems":   {...}
  },
  "clickBehavior": "shows_panel|inline|navigates",
  "scrollBehavior": "infinite_scroll|load_more_button|paginated|none"
}

Rules:
- "list" and "listItem" are mandatory. Prefer stable selectors (ids, data attributes, semantic classes) over positional ones.
- "itemId" must produce an identity that stays constant when the same entry is rendered again. Entry links ("href") are usually the most stable source.
- Omit any field you cannot ground in the provided DOM. Do not invent selectors.`

func buildDiscoveryUserPrompt(snap schemas.DOMSnapshot) string {
	return fmt.Sprintf(`Page URL: %s
Page title: %s

Condensed DOM (%d elements):
%s

Identify the bindings for this page. Respond with a single JSON object.`,
		snap.URL, snap.Title, snap.ElementCount, snap.Text)
}

const repairSystemPrompt = `You are the Navigator of 'seekwell', repairing a single broken selector binding for a list/detail extraction page.
A command just failed because one bound selector no longer resolves. You receive the binding key, its current value, the failure, and a DOM excerpt.
Respond with a single JSON object containing ONLY the fields you are fixing, using the same field names and shapes as a full bindings record, e.g.:

{"listItem": "ul.jobs-list > li.job-card"}

or, for a state predicate:

{"states": {"listLoaded": {"kind": "element_exists", "selector": "ul.jobs-list > li"}}}

Rules:
- Patch only what the failure implicates. Untouched fields must be omitted entirely.
- Ground every selector in the provided DOM excerpt. If the DOM offers no plausible fix, respond with an empty object: {}`

func buildRepairUserPrompt(req schemas.RepairRequest) string {
	return fmt.Sprintf(`Failing command: %s
Broken binding key: %s
Current bound value: %q
Failure: %s

DOM excerpt:
%s

Propose a minimal patch. Respond with a single JSON object.`,
		req.Command, req.Binding, req.CurrentValue, req.Failure, req.DOMContext)
}
