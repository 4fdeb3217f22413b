// Package apperr defines the orchestrator-wide error taxonomy. Every error
// that crosses a package boundary should be (or wrap) an *apperr.Error so
// the gateway can map it to the right HTTP status and SSE error event
// without string-sniffing messages.
package apperr

import "fmt"

// Kind is a closed classification of failure modes.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindRefused         Kind = "refused"
	KindTransport       Kind = "transport"
	KindProtocol        Kind = "protocol"
	KindTimeout         Kind = "timeout"
	KindCancelled       Kind = "cancelled"
	KindBackpressure    Kind = "backpressure"
	KindBudgetExhausted Kind = "budget_exhausted"
	KindInternal        Kind = "internal"
)

// Error is the orchestrator's standard error type: a Kind, a human message,
// and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error carrying cause as its Unwrap target.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind of err if it is (or wraps) an *Error, defaulting
// to KindInternal for anything else.
func KindOf(err error) Kind {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Kind
	}
	return KindInternal
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
