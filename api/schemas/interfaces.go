// File: api/schemas/interfaces.go
package schemas

import "context"

// ElementHandle is one element returned by PageDriver.QuerySelectorAll. The
// driver tags each matched node with Index so that ClickElementNode and
// InputTextElementNode can address it later. DataID carries the value of the
// item's id-bearing attribute (id, data-id, or the attribute configured by the
// bindings' ItemIDExtractor) when the driver could resolve one.
type ElementHandle struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Href   string `json:"href,omitempty"`
	DataID string `json:"dataId,omitempty"`
}

// PageState is a coarse scroll/viewport snapshot used by LIST_END / PAGE_END
// evaluation. SelectorMap maps element indexes from the last QuerySelectorAll
// to the unique selectors the driver assigned to them.
type PageState struct {
	ScrollY              float64        `json:"scrollY"`
	ScrollHeight         float64        `json:"scrollHeight"`
	VisualViewportHeight float64        `json:"visualViewportHeight"`
	SelectorMap          map[int]string `json:"selectorMap,omitempty"`
}

// PageDriver abstracts the live page. The engine never touches the DOM
// directly; every query and mutation goes through this interface, which the
// browser layer implements with chromedp and tests implement with fakes.
type PageDriver interface {
	NavigateTo(ctx context.Context, url string) error
	GoBack(ctx context.Context) error

	// ClickSelector clicks the first match and reports whether anything was
	// clicked. A missing element is (false, nil), not an error: callers decide
	// whether absence is fatal.
	ClickSelector(ctx context.Context, sel string) (bool, error)
	SelectDropdownOption(ctx context.Context, sel string, index int, text string) error
	// SendKeys types into the currently focused element.
	SendKeys(ctx context.Context, keys string) error
	ClearFocused(ctx context.Context) error

	ScrollToNextPage(ctx context.Context) error
	ScrollToPreviousPage(ctx context.Context) error
	ScrollToPercent(ctx context.Context, percent int) error

	SelectorExists(ctx context.Context, sel string) (bool, error)
	CountSelector(ctx context.Context, sel string) (int, error)
	QuerySelectorAll(ctx context.Context, sel string) ([]ElementHandle, error)
	GetTextFromSelector(ctx context.Context, sel string) ([]string, error)

	GetDomElementByIndex(ctx context.Context, index int) (ElementHandle, error)
	ClickElementNode(ctx context.Context, index int) error
	InputTextElementNode(ctx context.Context, index int, text string) error

	GetState(ctx context.Context) (PageState, error)
}

// GenerationOptions tune a single LLM call.
type GenerationOptions struct {
	ForceJSONFormat bool
	Temperature     float32
	MaxTokens       int
}

// GenerationRequest is a system+user prompt pair for one LLM invocation.
type GenerationRequest struct {
	SystemPrompt string
	UserPrompt   string
	Options      GenerationOptions
}

// LLMClient is the single opaque text-generation call the engine consumes.
// The engine imposes its own JSON extraction and validation on top and never
// relies on provider-specific structured-output features.
type LLMClient interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// RepairRequest scopes a binding repair to the single key implicated by a
// failing command.
type RepairRequest struct {
	Bindings     *PageBindings
	Command      CommandType
	Binding      BindingKey
	CurrentValue string
	Failure      string
	DOMContext   string
}

// BindingRepairer is the self-healing collaborator consulted by the
// interpreter after a selector-shaped failure. A nil patch with nil error
// means "no fix"; the original command error then propagates.
type BindingRepairer interface {
	FixBinding(ctx context.Context, req RepairRequest) (*BindingPatch, error)
}

// BindingStore persists PageBindings keyed by id and looked up by substring
// match between a page hostname and the stored URL pattern. Put enforces an
// optimistic version check so concurrent repair merges cannot silently
// clobber each other.
type BindingStore interface {
	Get(ctx context.Context, id string) (*PageBindings, error)
	Put(ctx context.Context, record *PageBindings) error
	Query(ctx context.Context, hostname string) (*PageBindings, error)
	// List returns every stored record, freshest first.
	List(ctx context.Context) ([]*PageBindings, error)
	Clear(ctx context.Context) error
	ClearPattern(ctx context.Context, pattern string) error
}
