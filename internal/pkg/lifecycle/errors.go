package lifecycle

import (
	"context"
	"errors"
	"net/http"

	"github.com/ManuelReschke/EduPay/internal/pkg/lock"
	"github.com/ManuelReschke/EduPay/internal/pkg/resource"
)

// Kind classifies a lifecycle failure for the presentation layer.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindValidation      Kind = "validation"
	KindConflict        Kind = "conflict"
	KindUnavailable     Kind = "unavailable"
	KindInternal        Kind = "internal"
)

const (
	msgUnexpected = "An unexpected error occurred"
	msgConflict   = "The record was changed by someone else. Please try again."
)

// Error is the only error type returned by lifecycle operations.
// Message is safe to show to end users.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a lifecycle error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// classify converts errors from the resource layer into lifecycle errors.
func classify(err error) *Error {
	var le *Error
	if errors.As(err, &le) {
		return le
	}

	var nf *resource.NotFoundError
	var ne *resource.NetworkError
	switch {
	case errors.As(err, &nf):
		return &Error{Kind: KindNotFound, Message: nf.Message, Err: err}
	case errors.As(err, &ne):
		return &Error{Kind: KindUnavailable, Message: ne.Message, Err: err}
	case resource.IsConflict(err):
		return &Error{Kind: KindConflict, Message: msgConflict, Err: err}
	case resource.StatusCode(err) == http.StatusUnprocessableEntity:
		return &Error{Kind: KindValidation, Message: "The submitted data is invalid", Err: err}
	case errors.Is(err, lock.ErrNotObtained),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return &Error{Kind: KindUnavailable, Message: msgUnexpected, Err: err}
	}
	return &Error{Kind: KindInternal, Message: msgUnexpected, Err: err}
}
