// File: api/schemas/recipe.go
package schemas

// CommandType enumerates every instruction the automation DSL understands.
// The set is closed: the interpreter rejects anything else as UNKNOWN_COMMAND.
type CommandType string

const (
	// Navigation
	CmdOpenPage CommandType = "OPEN_PAGE"
	CmdGoBack   CommandType = "GO_BACK"

	// Waiting
	CmdWaitFor CommandType = "WAIT_FOR"
	CmdWait    CommandType = "WAIT"

	// Focus
	CmdGoTo     CommandType = "GO_TO"
	CmdGoToItem CommandType = "GO_TO_ITEM"

	// Actions
	CmdType          CommandType = "TYPE"
	CmdSubmit        CommandType = "SUBMIT"
	CmdClick         CommandType = "CLICK"
	CmdClickIfExists CommandType = "CLICK_IF_EXISTS"
	CmdSelect        CommandType = "SELECT"
	CmdClear         CommandType = "CLEAR"
	CmdSetChecked    CommandType = "SET_CHECKED"

	// Scrolling
	CmdScroll         CommandType = "SCROLL"
	CmdScrollIfNotEnd CommandType = "SCROLL_IF_NOT_END"

	// Data
	CmdExtractDetails CommandType = "EXTRACT_DETAILS"
	CmdSaveAs         CommandType = "SAVE_AS"
	CmdMarkDone       CommandType = "MARK_DONE"

	// Flow control
	CmdForEachItemInList CommandType = "FOR_EACH_ITEM_IN_LIST"
	CmdIf                CommandType = "IF"
	CmdRepeat            CommandType = "REPEAT"
	CmdCheckpointCount   CommandType = "CHECKPOINT_COUNT"
	CmdEnd               CommandType = "END"
)

// WaitTarget values accepted by WAIT_FOR.
const (
	WaitTargetPage       = "page"
	WaitTargetList       = "list"
	WaitTargetListUpdate = "listUpdate"
	WaitTargetDetails    = "details"
)

// GoToItem modes.
const (
	ItemFirst       = "first"
	ItemNext        = "next"
	ItemUnprocessed = "unprocessed"
)

// Command is one immutable instruction in a Recipe. The JSON surface is
// bit-exact: upstream planners (usually an LLM) author these directly, so the
// field names here are part of the wire contract. Nested blocks always use
// "body"; the recipe normalizer rewrites the common LLM mistake of emitting
// "commands" instead.
type Command struct {
	Type CommandType `json:"type"`

	URL           string  `json:"url,omitempty"`       // OPEN_PAGE
	Target        string  `json:"target,omitempty"`    // WAIT_FOR / GO_TO / SCROLL
	Name          string  `json:"name,omitempty"`      // named element (CLICK, CLICK_IF_EXISTS, SET_CHECKED, ...)
	Value         string  `json:"value,omitempty"`     // TYPE text, SELECT option text
	Key           string  `json:"key,omitempty"`       // SAVE_AS key
	Index         int     `json:"index,omitempty"`     // SELECT option index
	Checked       *bool   `json:"checked,omitempty"`   // SET_CHECKED
	Duration      int     `json:"duration,omitempty"`  // WAIT, in milliseconds
	Direction     string  `json:"direction,omitempty"` // SCROLL: "up" | "down"
	Item          string  `json:"item,omitempty"`      // GO_TO_ITEM: first | next | unprocessed
	SkipProcessed bool    `json:"skipProcessed,omitempty"`

	Condition *Condition      `json:"condition,omitempty"` // IF
	Then      []Command       `json:"then,omitempty"`      // IF
	Else      []Command       `json:"else,omitempty"`      // IF
	Body      []Command       `json:"body,omitempty"`      // FOR_EACH_ITEM_IN_LIST, REPEAT
	Until     *UntilCondition `json:"until,omitempty"`     // REPEAT
}

// RecipeConfig carries per-run limits authored alongside the command list.
type RecipeConfig struct {
	MaxItems  int `json:"maxItems,omitempty"`
	TimeoutMs int `json:"timeout,omitempty"`
}

// Recipe is the program executed by the interpreter: an ordered command
// sequence plus optional run configuration. Recipes are constructed once by
// the upstream planner and are read-only to the engine.
type Recipe struct {
	ID       string       `json:"id,omitempty"`
	Name     string       `json:"name,omitempty"`
	Commands []Command    `json:"commands"`
	Config   RecipeConfig `json:"config,omitempty"`
}

// ElementRef addresses a page element either by a raw CSS selector or by an
// index into the driver's last element query. Every action handler consumes
// this one shape instead of probing loosely-typed payloads at runtime.
type ElementRef struct {
	Selector string
	Index    int
	Indexed  bool
}

// SelectorRef builds an ElementRef addressing elements by CSS selector.
func SelectorRef(sel string) ElementRef {
	return ElementRef{Selector: sel}
}

// IndexedRef builds an ElementRef addressing a single element by the index
// assigned during the driver's most recent QuerySelectorAll.
func IndexedRef(sel string, index int) ElementRef {
	return ElementRef{Selector: sel, Index: index, Indexed: true}
}
