// File: internal/engine/conditions.go
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/seekwell-dev/seekwell/api/schemas"
	"github.com/seekwell-dev/seekwell/internal/bindings"
)

// evalCondition evaluates an IF predicate against the live page and the run
// state. The switch is exhaustive over the condition vocabulary: an unknown
// tag is an error, never a silent false.
func (e *Executor) evalCondition(ctx context.Context, ec *ExecutionContext, c *schemas.Condition) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("missing condition")
	}
	switch c.Type {
	case schemas.CondExists:
		sel, _, ok := e.resolveName(c.Name)
		if !ok {
			return false, nil
		}
		return e.driver.SelectorExists(ctx, sel)

	case schemas.CondVisible:
		sel, _, ok := e.resolveName(c.Name)
		if !ok {
			return false, nil
		}
		return e.selectorVisible(ctx, sel)

	case schemas.CondListEnd:
		return e.listEnd(ctx, ec)

	case schemas.CondPageEnd:
		return e.pageEnd(ctx)

	case schemas.CondNewItems:
		if e.bind.ListItem == "" {
			return false, fmt.Errorf("NEW_ITEMS requires a listItem binding")
		}
		count, err := e.driver.CountSelector(ctx, e.bind.ListItem)
		if err != nil {
			return false, err
		}
		return count > ec.CheckpointCount, nil

	case schemas.CondAnd:
		for i := range c.Conditions {
			ok, err := e.evalCondition(ctx, ec, &c.Conditions[i])
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case schemas.CondOr:
		for i := range c.Conditions {
			ok, err := e.evalCondition(ctx, ec, &c.Conditions[i])
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case schemas.CondNot:
		ok, err := e.evalCondition(ctx, ec, c.Condition)
		return !ok, err
	}
	return false, fmt.Errorf("unknown condition type: %q", c.Type)
}

// evalUntil evaluates a REPEAT termination predicate at an iteration
// boundary. scrollBase is the Stats.Scrolls value captured when the loop
// started, so MAX_SCROLLS counts scrolls performed by this loop only.
func (e *Executor) evalUntil(ctx context.Context, ec *ExecutionContext, u *schemas.UntilCondition, scrollBase int) (bool, error) {
	if u == nil {
		return false, fmt.Errorf("missing until condition")
	}
	switch u.Type {
	case schemas.UntilCollected:
		return len(ec.Collected) >= u.Count, nil

	case schemas.UntilNoMoreItems:
		return e.noMoreItems(ctx, ec)

	case schemas.UntilMaxScrolls:
		return ec.Stats.Scrolls-scrollBase >= u.Count, nil

	case schemas.UntilAnd:
		for i := range u.Conditions {
			ok, err := e.evalUntil(ctx, ec, &u.Conditions[i], scrollBase)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case schemas.UntilOr:
		for i := range u.Conditions {
			ok, err := e.evalUntil(ctx, ec, &u.Conditions[i], scrollBase)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("unknown until condition type: %q", u.Type)
}

// evalState evaluates one bound page-state predicate.
func (e *Executor) evalState(ctx context.Context, ec *ExecutionContext, sc *schemas.StateCondition) (bool, error) {
	if sc == nil {
		return false, fmt.Errorf("missing state condition")
	}
	switch sc.Kind {
	case schemas.StateElementExists:
		return e.driver.SelectorExists(ctx, sc.Selector)

	case schemas.StateElementVisible:
		return e.selectorVisible(ctx, sc.Selector)

	case schemas.StateTextMatch:
		sel := sc.Selector
		if sel == "" {
			sel = "body"
		}
		texts, err := e.driver.GetTextFromSelector(ctx, sel)
		if err != nil {
			return false, err
		}
		needle := strings.ToLower(sc.Text)
		for _, t := range texts {
			if strings.Contains(strings.ToLower(t), needle) {
				return true, nil
			}
		}
		return false, nil

	case schemas.StateCountIncrease:
		sel := sc.Selector
		if sel == "" {
			sel = e.bind.ListItem
		}
		count, err := e.driver.CountSelector(ctx, sel)
		if err != nil {
			return false, err
		}
		return count > ec.CheckpointCount, nil
	}
	return false, fmt.Errorf("unknown state condition kind: %q", sc.Kind)
}

// selectorVisible approximates visibility: the element is attached and
// renders non-empty text. Drivers report detached or display:none subtrees as
// textless, which is close enough for the predicates recipes actually write.
func (e *Executor) selectorVisible(ctx context.Context, sel string) (bool, error) {
	exists, err := e.driver.SelectorExists(ctx, sel)
	if err != nil || !exists {
		return false, err
	}
	texts, err := e.driver.GetTextFromSelector(ctx, sel)
	if err != nil {
		return false, err
	}
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			return true, nil
		}
	}
	return false, nil
}

// noMoreItems evaluates the site's end-of-list marker.
func (e *Executor) noMoreItems(ctx context.Context, ec *ExecutionContext) (bool, error) {
	cond := e.bind.States.NoMoreItems
	if cond == nil {
		cond = bindings.DefaultNoMoreItems()
	}
	return e.evalState(ctx, ec, cond)
}

// listEnd is true when the end-of-list marker is present or the viewport has
// reached the bottom of the page.
func (e *Executor) listEnd(ctx context.Context, ec *ExecutionContext) (bool, error) {
	done, err := e.noMoreItems(ctx, ec)
	if err != nil || done {
		return done, err
	}
	return e.pageEnd(ctx)
}

// pageEnd is true when the viewport bottom has reached the scrollable height.
// The 2px slack absorbs sub-pixel scroll positions.
func (e *Executor) pageEnd(ctx context.Context) (bool, error) {
	st, err := e.driver.GetState(ctx)
	if err != nil {
		return false, err
	}
	return st.ScrollY+st.VisualViewportHeight >= st.ScrollHeight-2, nil
}
