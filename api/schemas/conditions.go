// File: api/schemas/conditions.go
package schemas

// ConditionType enumerates the predicate forms usable inside IF commands.
type ConditionType string

const (
	CondExists   ConditionType = "EXISTS"
	CondVisible  ConditionType = "VISIBLE"
	CondListEnd  ConditionType = "LIST_END"
	CondPageEnd  ConditionType = "PAGE_END"
	CondNewItems ConditionType = "NEW_ITEMS"
	CondAnd      ConditionType = "AND"
	CondOr       ConditionType = "OR"
	CondNot      ConditionType = "NOT"
)

// Condition is a recursive predicate over page and run state. Atomic forms
// (EXISTS, VISIBLE, LIST_END, PAGE_END, NEW_ITEMS) query the live page or the
// execution context; AND/OR/NOT combine sub-conditions. The evaluator matches
// exhaustively on Type, so an unknown tag is an error rather than a silent
// false.
type Condition struct {
	Type ConditionType `json:"type"`

	// Name identifies the binding target for EXISTS and VISIBLE. It resolves
	// through the same named-element lookup as CLICK_IF_EXISTS.
	Name string `json:"name,omitempty"`

	Conditions []Condition `json:"conditions,omitempty"` // AND, OR
	Condition  *Condition  `json:"condition,omitempty"`  // NOT
}

// UntilConditionType enumerates loop-termination predicates for REPEAT.
type UntilConditionType string

const (
	UntilCollected   UntilConditionType = "COLLECTED"
	UntilNoMoreItems UntilConditionType = "NO_MORE_ITEMS"
	UntilMaxScrolls  UntilConditionType = "MAX_SCROLLS"
	UntilAnd         UntilConditionType = "AND"
	UntilOr          UntilConditionType = "OR"
)

// UntilCondition is evaluated only at REPEAT iteration boundaries.
type UntilCondition struct {
	Type       UntilConditionType `json:"type"`
	Count      int                `json:"count,omitempty"` // COLLECTED, MAX_SCROLLS
	Conditions []UntilCondition   `json:"conditions,omitempty"`
}
