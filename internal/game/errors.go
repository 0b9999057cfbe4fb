package game

import (
	"errors"
	"fmt"
)

// Kind classifies a business error. Every error a caller sees from this package is one of these
// kinds, or an infrastructure error that the HTTP layer reports as an internal failure.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindPermissionDenied Kind = "permission_denied"
	KindInvalidState     Kind = "invalid_state"
	KindValidation       Kind = "validation"
)

// Error is a business rule violation with a stable, user-facing message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is makes errors.Is(err, ErrNotFound) match any not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Sentinels for errors.Is.
var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied}
	ErrInvalidState     = &Error{Kind: KindInvalidState}
	ErrValidation       = &Error{Kind: KindValidation}
)

// KindOf extracts the Kind of err. ok is false for errors outside the taxonomy.
func KindOf(err error) (kind Kind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func notFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func permissionDenied(format string, args ...any) error {
	return &Error{Kind: KindPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

func invalidState(format string, args ...any) error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}
