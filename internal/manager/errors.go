package manager

import (
	"errors"
	"fmt"
)

// DispatchError represents an engine-level error raised by the
// interception pipeline or the rule-configuration surface.
//
// Rule-supplied errors are NOT DispatchErrors: whatever a user rule's
// Apply returns propagates to the call source unchanged, never wrapped.
type DispatchError struct {
	// Code identifies the error category.
	Code DispatchErrorCode

	// Message is a human-readable description.
	Message string

	// Method identifies the intercepted method, when one is involved.
	Method string

	// FakedType names the substituted type, when known.
	FakedType string
}

// DispatchErrorCode categorizes engine errors.
type DispatchErrorCode string

const (
	// ErrCodeNilRule indicates a nil rule was passed where one is required.
	ErrCodeNilRule DispatchErrorCode = "NIL_RULE"

	// ErrCodeUnhandledCall indicates no rule qualified during selection.
	// Unreachable with the default-return catch-all installed; if it
	// occurs, a construction invariant was violated.
	ErrCodeUnhandledCall DispatchErrorCode = "UNHANDLED_CALL"

	// ErrCodeAlreadyAttached indicates a second Attach on the same manager.
	// Surfaced as a panic payload: double attachment is a programmer
	// error, not a recoverable condition.
	ErrCodeAlreadyAttached DispatchErrorCode = "ALREADY_ATTACHED"
)

// Error implements the error interface.
func (e *DispatchError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("%s: %s (method=%s)", e.Code, e.Message, e.Method)
	}
	if e.FakedType != "" {
		return fmt.Sprintf("%s: %s (type=%s)", e.Code, e.Message, e.FakedType)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNilRule returns true if the error is a nil-rule argument error.
// Uses errors.As to handle wrapped errors.
func IsNilRule(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == ErrCodeNilRule
	}
	return false
}

// IsUnhandledCall returns true if the error is an unhandled-call error.
// Uses errors.As to handle wrapped errors.
func IsUnhandledCall(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == ErrCodeUnhandledCall
	}
	return false
}

// newNilRuleError creates a DispatchError for a nil rule argument.
func newNilRuleError(op string) *DispatchError {
	return &DispatchError{
		Code:    ErrCodeNilRule,
		Message: fmt.Sprintf("%s requires a non-nil rule", op),
	}
}

// newUnhandledCallError creates a DispatchError for a call no rule handled.
func newUnhandledCallError(method, fakedType string) *DispatchError {
	return &DispatchError{
		Code:      ErrCodeUnhandledCall,
		Message:   "no rule qualified for the intercepted call",
		Method:    method,
		FakedType: fakedType,
	}
}
