// Package apperr defines the failure taxonomy shared by all services.
// Every domain failure carries a machine-readable kind next to its
// human-readable message so the HTTP layer can map it to a status code
// without string matching.
package apperr

import "errors"

// Kind classifies a domain failure.
type Kind int

const (
	// KindUnknown is the fallback for errors that carry no kind.
	KindUnknown Kind = iota
	// KindNotFound means a referenced entity does not exist.
	KindNotFound
	// KindForbidden means the caller lacks the required permission or
	// tripped a protection rule.
	KindForbidden
	// KindValidation means caller-supplied fields failed shape checks.
	KindValidation
	// KindConflict means the requested change equals or collides with
	// current state.
	KindConflict
)

// Error is a domain failure with a kind.
type Error struct {
	kind Kind
	msg  string
}

// New creates a kinded error with the given message.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.msg
}

// Kind returns the failure classification.
func (e *Error) Kind() Kind {
	return e.kind
}

// KindOf extracts the kind from an error chain.
// Errors without a kind report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}

	return KindUnknown
}
