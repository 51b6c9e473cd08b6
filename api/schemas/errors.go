// File: api/schemas/errors.go
package schemas

import (
	"errors"
	"fmt"
)

// ErrorCode classifies command failures. The interpreter's repair protocol
// keys off these: only selector-shaped failures with a known binding key are
// eligible for an LLM repair attempt.
type ErrorCode string

const (
	CodeBindingMissing  ErrorCode = "BINDING_MISSING"
	CodeElementNotFound ErrorCode = "ELEMENT_NOT_FOUND"
	CodeTimeout         ErrorCode = "TIMEOUT"
	CodeUnknownCommand  ErrorCode = "UNKNOWN_COMMAND"
	CodeDiscoveryFailed ErrorCode = "DISCOVERY_FAILED"
	CodeRepairFailed    ErrorCode = "REPAIR_FAILED"
	CodeExtractionEmpty ErrorCode = "EXTRACTION_EMPTY"
	CodeNavigation      ErrorCode = "NAVIGATION_ERROR"
	CodeDriverFailure   ErrorCode = "DRIVER_FAILURE"
)

// CommandError is the structured failure surfaced by command execution.
type CommandError struct {
	Code    ErrorCode
	Command CommandType
	Binding BindingKey // binding key the command depended on, if known
	Msg     string
	Err     error
}

func (e *CommandError) Error() string {
	base := fmt.Sprintf("%s: %s failed: %s", e.Code, e.Command, e.Msg)
	if e.Err != nil {
		return base + ": " + e.Err.Error()
	}
	return base
}

func (e *CommandError) Unwrap() error { return e.Err }

// Repairable reports whether the failure is worth an LLM repair attempt: the
// error must be selector-shaped and the command must map to a binding key.
func (e *CommandError) Repairable() bool {
	if e.Binding == "" {
		return false
	}
	switch e.Code {
	case CodeBindingMissing, CodeElementNotFound, CodeTimeout, CodeExtractionEmpty:
		return true
	}
	return false
}

// NewCommandError builds a CommandError wrapping an optional cause.
func NewCommandError(code ErrorCode, cmd CommandType, binding BindingKey, msg string, err error) *CommandError {
	return &CommandError{Code: code, Command: cmd, Binding: binding, Msg: msg, Err: err}
}

// AsCommandError unwraps err into a *CommandError if one is in the chain.
func AsCommandError(err error) (*CommandError, bool) {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
