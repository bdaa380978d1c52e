package intent

import (
	"errors"
	"fmt"

	"github.com/roach88/studiodesk/internal/extract"
)

// Kind classifies a Result.
type Kind string

const (
	KindOK               Kind = "ok"
	KindUnrecognized     Kind = "unrecognized"
	KindMissingParameter Kind = "missing_parameter"
	KindNotFound         Kind = "not_found"
	KindCollaborator     Kind = "collaborator"
)

// Result is the outcome of handling one prompt. Handlers return expected
// failures as Results; nothing is signaled by panicking.
type Result struct {
	// Intent is the matched route, empty when nothing matched.
	Intent string

	Kind Kind

	// Data is the success payload (KindOK only).
	Data map[string]any

	// Message is the user-facing text for every other kind.
	Message string

	// Err is the underlying error for failure kinds.
	Err error
}

// Payload returns the transport shape: the success payload,
// {"message": ...} for unrecognized prompts or {"error": ...}.
func (r Result) Payload() map[string]any {
	switch r.Kind {
	case KindOK:
		if r.Data == nil {
			return map[string]any{}
		}
		return r.Data
	case KindUnrecognized:
		return map[string]any{"message": r.Message}
	default:
		return map[string]any{"error": r.Message}
	}
}

// Failed reports whether r is a failure kind.
func (r Result) Failed() bool {
	return r.Kind != KindOK && r.Kind != KindUnrecognized
}

// OK returns a success Result.
func OK(data map[string]any) Result {
	return Result{Kind: KindOK, Data: data}
}

// Unrecognized returns the informational result for unmatched prompts.
func Unrecognized(message string) Result {
	return Result{Kind: KindUnrecognized, Message: message}
}

// Missing returns a missing-parameter Result with a user-facing message.
func Missing(err error, message string) Result {
	return Result{Kind: KindMissingParameter, Message: message, Err: err}
}

// MissingParameterError pairs an extraction failure with the message shown
// to the user.
type MissingParameterError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *MissingParameterError) Error() string {
	return e.Message
}

// Unwrap returns the underlying extraction error.
func (e *MissingParameterError) Unwrap() error {
	return e.Err
}

// MissingParameter wraps an extraction error with its user-facing message.
func MissingParameter(err error, message string) error {
	return &MissingParameterError{Message: message, Err: err}
}

// NotFoundError reports a referenced entity absent from the store.
type NotFoundError struct {
	Message string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return e.Message
}

// NotFoundf returns a *NotFoundError with a formatted message.
func NotFoundf(format string, args ...any) error {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// CollaboratorError wraps a store or fulfillment failure with the action
// that was under way.
type CollaboratorError struct {
	// Action completes "An error occurred while ...", e.g. "creating the order".
	Action string
	Err    error
}

// Error implements the error interface.
func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("An error occurred while %s: %v", e.Action, e.Err)
}

// Unwrap returns the underlying error.
func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Collaborator returns a collaborator-failure Result.
func Collaborator(action string, err error) Result {
	ce := &CollaboratorError{Action: action, Err: err}
	return Result{Kind: KindCollaborator, Message: ce.Error(), Err: ce}
}

// Fail classifies a handler error into a Result using errors.As.
// Unclassified errors are collaborator failures of action.
func Fail(action string, err error) Result {
	var (
		mp *MissingParameterError
		me *extract.MissingError
		nf *NotFoundError
		ce *CollaboratorError
	)
	switch {
	case errors.As(err, &mp):
		return Missing(err, mp.Message)
	case errors.As(err, &me):
		return Missing(err, me.Error())
	case errors.As(err, &nf):
		return Result{Kind: KindNotFound, Message: nf.Message, Err: err}
	case errors.As(err, &ce):
		return Result{Kind: KindCollaborator, Message: ce.Error(), Err: err}
	default:
		return Collaborator(action, err)
	}
}

// IsMissingParameter reports whether err is or wraps an
// *extract.MissingError or a *MissingParameterError.
func IsMissingParameter(err error) bool {
	var (
		mp *MissingParameterError
		me *extract.MissingError
	)
	return errors.As(err, &mp) || errors.As(err, &me)
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsCollaborator reports whether err is or wraps a *CollaboratorError.
func IsCollaborator(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce)
}
