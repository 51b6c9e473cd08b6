// File: internal/recipe/recipe.go

// Package recipe parses and normalizes the Recipe JSON contract. Recipes are
// typically authored by an upstream LLM planner, so parsing is defensive: the
// common mistake of emitting "commands" instead of "body" for nested blocks is
// rewritten, and structural problems are reported before execution starts.
package recipe

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/seekwell-dev/seekwell/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// rawCommand mirrors schemas.Command but also accepts the misplaced
// "commands" key so it can be folded into Body during normalization.
type rawCommand struct {
	Type          schemas.CommandType     `json:"type"`
	URL           string                  `json:"url,omitempty"`
	Target        string                  `json:"target,omitempty"`
	Name          string                  `json:"name,omitempty"`
	Value         string                  `json:"value,omitempty"`
	Key           string                  `json:"key,omitempty"`
	Index         int                     `json:"index,omitempty"`
	Checked       *bool                   `json:"checked,omitempty"`
	Duration      int                     `json:"duration,omitempty"`
	Direction     string                  `json:"direction,omitempty"`
	Item          string                  `json:"item,omitempty"`
	SkipProcessed bool                    `json:"skipProcessed,omitempty"`
	Condition     *schemas.Condition      `json:"condition,omitempty"`
	Then          []rawCommand            `json:"then,omitempty"`
	Else          []rawCommand            `json:"else,omitempty"`
	Body          []rawCommand            `json:"body,omitempty"`
	Commands      []rawCommand            `json:"commands,omitempty"` // LLM mistake, folded into Body
	Until         *schemas.UntilCondition `json:"until,omitempty"`
}

type rawRecipe struct {
	ID       string               `json:"id,omitempty"`
	Name     string               `json:"name,omitempty"`
	Commands []rawCommand         `json:"commands"`
	Config   schemas.RecipeConfig `json:"config,omitempty"`
}

// Parse decodes recipe JSON, normalizes nested blocks and validates the
// overall structure.
func Parse(data []byte) (*schemas.Recipe, error) {
	var raw rawRecipe
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse recipe JSON: %w", err)
	}
	if len(raw.Commands) == 0 {
		return nil, fmt.Errorf("recipe contains no commands")
	}

	r := &schemas.Recipe{
		ID:       raw.ID,
		Name:     raw.Name,
		Commands: normalizeAll(raw.Commands),
		Config:   raw.Config,
	}
	if err := Validate(r); err != nil {
		return nil, err
	}
	return r, nil
}

func normalizeAll(raws []rawCommand) []schemas.Command {
	if raws == nil {
		return nil
	}
	out := make([]schemas.Command, 0, len(raws))
	for _, rc := range raws {
		out = append(out, normalize(rc))
	}
	return out
}

func normalize(rc rawCommand) schemas.Command {
	body := rc.Body
	if len(body) == 0 && len(rc.Commands) > 0 {
		body = rc.Commands
	}
	return schemas.Command{
		Type:          rc.Type,
		URL:           rc.URL,
		Target:        rc.Target,
		Name:          rc.Name,
		Value:         rc.Value,
		Key:           rc.Key,
		Index:         rc.Index,
		Checked:       rc.Checked,
		Duration:      rc.Duration,
		Direction:     rc.Direction,
		Item:          rc.Item,
		SkipProcessed: rc.SkipProcessed,
		Condition:     rc.Condition,
		Then:          normalizeAll(rc.Then),
		Else:          normalizeAll(rc.Else),
		Body:          normalizeAll(body),
		Until:         rc.Until,
	}
}

// knownCommands is the closed command set.
var knownCommands = map[schemas.CommandType]struct{}{
	schemas.CmdOpenPage: {}, schemas.CmdGoBack: {},
	schemas.CmdWaitFor: {}, schemas.CmdWait: {},
	schemas.CmdGoTo: {}, schemas.CmdGoToItem: {},
	schemas.CmdType: {}, schemas.CmdSubmit: {}, schemas.CmdClick: {},
	schemas.CmdClickIfExists: {}, schemas.CmdSelect: {}, schemas.CmdClear: {},
	schemas.CmdSetChecked: {},
	schemas.CmdScroll:     {}, schemas.CmdScrollIfNotEnd: {},
	schemas.CmdExtractDetails: {}, schemas.CmdSaveAs: {}, schemas.CmdMarkDone: {},
	schemas.CmdForEachItemInList: {}, schemas.CmdIf: {}, schemas.CmdRepeat: {},
	schemas.CmdCheckpointCount: {}, schemas.CmdEnd: {},
}

// Validate walks the command tree and rejects malformed recipes up front.
func Validate(r *schemas.Recipe) error {
	return validateCommands(r.Commands, "commands")
}

func validateCommands(cmds []schemas.Command, path string) error {
	for i, cmd := range cmds {
		at := fmt.Sprintf("%s[%d]", path, i)
		if _, ok := knownCommands[cmd.Type]; !ok {
			return fmt.Errorf("%s: unknown command type %q", at, cmd.Type)
		}
		switch cmd.Type {
		case schemas.CmdOpenPage:
			if cmd.URL == "" {
				return fmt.Errorf("%s: OPEN_PAGE requires a url", at)
			}
		case schemas.CmdWaitFor:
			switch cmd.Target {
			case schemas.WaitTargetPage, schemas.WaitTargetList, schemas.WaitTargetListUpdate, schemas.WaitTargetDetails:
			default:
				return fmt.Errorf("%s: WAIT_FOR has invalid target %q", at, cmd.Target)
			}
		case schemas.CmdGoToItem:
			switch cmd.Item {
			case "", schemas.ItemFirst, schemas.ItemNext, schemas.ItemUnprocessed:
			default:
				return fmt.Errorf("%s: GO_TO_ITEM has invalid item %q", at, cmd.Item)
			}
		case schemas.CmdIf:
			if cmd.Condition == nil {
				return fmt.Errorf("%s: IF requires a condition", at)
			}
			if len(cmd.Then) == 0 && len(cmd.Else) == 0 {
				return fmt.Errorf("%s: IF requires a then or else branch", at)
			}
			if err := validateCommands(cmd.Then, at+".then"); err != nil {
				return err
			}
			if err := validateCommands(cmd.Else, at+".else"); err != nil {
				return err
			}
		case schemas.CmdForEachItemInList:
			if len(cmd.Body) == 0 {
				return fmt.Errorf("%s: FOR_EACH_ITEM_IN_LIST requires a body", at)
			}
			if err := validateCommands(cmd.Body, at+".body"); err != nil {
				return err
			}
		case schemas.CmdRepeat:
			if len(cmd.Body) == 0 {
				return fmt.Errorf("%s: REPEAT requires a body", at)
			}
			if err := validateCommands(cmd.Body, at+".body"); err != nil {
				return err
			}
		}
	}
	return nil
}
