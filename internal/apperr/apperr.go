// Package apperr defines the typed error kinds the indexer's core
// operations return. The HTTP status each kind maps to is defined at
// the boundary, in internal/httpapi.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind discriminates the small enumerated set of failures the core can
// produce. It is a sum type in spirit: every operation that can fail
// returns either a nil error or an *Error with one of these kinds.
type Kind string

const (
	InvalidBlockHeight    Kind = "InvalidBlockHeight"
	InvalidInputOutputSum Kind = "InvalidInputOutputSum"
	InvalidBlockID        Kind = "InvalidBlockId"
	InvalidRollbackHeight Kind = "InvalidRollbackHeight"
	NoBlocksToRollback    Kind = "NoBlocksToRollback"
	MutexTimeout          Kind = "MutexTimeout"
	UTXONotFound          Kind = "UTXONotFound"
	DatabaseError         Kind = "DatabaseError"
)

// Error is the concrete error type returned by core operations.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an *Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new *Error, carrying a stack trace on the
// cause via github.com/pkg/errors so a DatabaseError can be diagnosed
// from logs alone.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: errors.WithStack(cause)}
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error.
// Any other error is reported as DatabaseError, matching spec §7's
// requirement that no failure path be swallowed silently.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return DatabaseError
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
