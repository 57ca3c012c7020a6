package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so callers can decide how it propagates:
// argument and business-rule failures stay inside the conversation as
// structured tool results, everything else aborts the current turn.
type Kind string

const (
	KindArgument     Kind = "argument_error"
	KindBusinessRule Kind = "business_rule_violation"
	KindUnknownTool  Kind = "unknown_tool"
	KindUpstream     Kind = "upstream_failure"
	KindExhausted    Kind = "exhausted"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// StoreErrorMessage describes relational store failures.
	StoreErrorMessage = "database operation failed"
)

// AppError wraps an underlying error with a kind, HTTP status and safe message.
// Message never carries SQL fragments or driver detail.
type AppError struct {
	Err     error
	Kind    Kind
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}

// New creates a new AppError with the provided information.
func New(err error, kind Kind, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Kind:    kind,
		Status:  status,
		Message: message,
	}
}

// Argument marks a malformed or missing tool argument. These are recoverable:
// the planner reads the message and retries or asks the user.
func Argument(format string, args ...any) *AppError {
	return &AppError{
		Kind:    KindArgument,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf(format, args...),
	}
}

// BusinessRule marks a request the HR rules reject (insufficient balance,
// overlapping leave, disallowed field, non-cancellable status).
func BusinessRule(format string, args ...any) *AppError {
	return &AppError{
		Kind:    KindBusinessRule,
		Status:  http.StatusUnprocessableEntity,
		Message: fmt.Sprintf(format, args...),
	}
}

// UnknownTool marks a planner request for a tool absent from the bound set.
// Fatal to the current turn.
func UnknownTool(name string) *AppError {
	return &AppError{
		Kind:    KindUnknownTool,
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("unknown tool %q", name),
	}
}

// Upstream wraps a failure of an external collaborator (store, retrieval,
// model provider). Fatal to the current turn.
func Upstream(err error, message string) *AppError {
	return &AppError{
		Err:     err,
		Kind:    KindUpstream,
		Status:  http.StatusBadGateway,
		Message: message,
	}
}

// Exhausted marks a conversation that hit the tool-call budget without a
// final answer.
func Exhausted(budget int) *AppError {
	return &AppError{
		Kind:    KindExhausted,
		Status:  http.StatusOK,
		Message: fmt.Sprintf("step budget of %d exhausted", budget),
	}
}

// KindOf extracts the Kind from an error chain; empty when the error is not
// an AppError.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// Recoverable reports whether the error may be surfaced to the planner as a
// structured tool result instead of aborting the turn.
func Recoverable(err error) bool {
	switch KindOf(err) {
	case KindArgument, KindBusinessRule:
		return true
	default:
		return false
	}
}

// SafeMessage returns text suitable for a tool result or user reply. Internal
// detail from non-AppError chains is replaced with the generic message.
func SafeMessage(err error) string {
	var ae *AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return SystemErrorMessage
}
