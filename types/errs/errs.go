// Package errs implements the engine's error taxonomy: Validation,
// NotFound, Conflict, Authorization, Dependency, Transaction, Database,
// Timeout, and Internal. Every constructor wraps github.com/cockroachdb/errors
// so callers keep stack traces and can still errors.Is/errors.As against the
// sentinel kinds.
package errs

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind is one of the nine taxonomy members from the error handling design.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindAuthorization Kind = "authorization"
	KindDependency    Kind = "dependency"
	KindTransaction   Kind = "transaction"
	KindDatabase      Kind = "database"
	KindTimeout       Kind = "timeout"
	KindInternal      Kind = "internal"
)

// Error carries a Kind alongside the wrapped cause so callers can branch on
// failure category without string-matching messages.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *Error) Unwrap() error { return e.cause }

// Kind reports the error's taxonomy member.
func (e *Error) Kind() Kind { return e.kind }

func newErr(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), cause: cause}
}

// Validation reports a structure/key/index/permission/role/query validator
// failure.
func Validation(format string, args ...any) error { return newErr(KindValidation, nil, format, args...) }

// NotFound reports a missing collection, attribute, index, or document.
func NotFound(format string, args ...any) error { return newErr(KindNotFound, nil, format, args...) }

// Conflict reports a duplicate id, duplicate index, or duplicate
// relationship key.
func Conflict(format string, args ...any) error { return newErr(KindConflict, nil, format, args...) }

// Authorization reports that the active role set does not satisfy the
// required permission kind.
func Authorization(format string, args ...any) error {
	return newErr(KindAuthorization, nil, format, args...)
}

// Dependency reports an attribute still referenced by an index or
// relationship.
func Dependency(format string, args ...any) error { return newErr(KindDependency, nil, format, args...) }

// Transaction reports a commit/rollback with no active transaction, or
// retries exhausted.
func Transaction(format string, args ...any) error { return newErr(KindTransaction, nil, format, args...) }

// Database wraps a dialect/driver error bubbled from the SQL client.
func Database(cause error, format string, args ...any) error {
	return newErr(KindDatabase, cause, format, args...)
}

// Timeout reports a cancellation firing mid-operation.
func Timeout(format string, args ...any) error { return newErr(KindTimeout, nil, format, args...) }

// Internal reports an unreachable invariant; treat as a bug report.
func Internal(format string, args ...any) error { return newErr(KindInternal, nil, format, args...) }

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.kind == kind
	}
	return false
}

// Wrap attaches additional context to err while preserving cockroachdb's
// stack trace; used for cache/filter errors that must carry the offending
// field name.
func Wrap(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}
