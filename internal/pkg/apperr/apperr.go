// Package apperr classifies domain errors into the kinds callers branch on,
// such as bad input, missing references or storage outages.
package apperr

import (
	"context"
	"errors"

	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/validator"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindState
	KindStorageUnavailable
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindState:
		return "STATE_ERROR"
	case KindStorageUnavailable:
		return "STORAGE_UNAVAILABLE"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// Error is a classified sentinel. Domain packages declare their sentinels with
// the constructors below and compare them with errors.Is.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func State(code, message string) *Error {
	return &Error{Kind: KindState, Code: code, Message: message}
}

func Unauthorized(code, message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: message}
}

func Forbidden(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

// ErrStorageUnavailable marks transient store failures (timeouts, lost
// connections). It is the only kind worth retrying.
var ErrStorageUnavailable = &Error{
	Kind:    KindStorageUnavailable,
	Code:    "STORAGE_UNAVAILABLE",
	Message: "storage unavailable, try again",
}

// KindOf reports the kind of err, looking through wrapping.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return KindValidation
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindStorageUnavailable
	}

	return KindUnknown
}

// CodeOf returns the machine-readable code of the first classified error in
// err's chain, or the kind's generic code.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	return KindOf(err).String()
}
