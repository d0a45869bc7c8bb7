package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain errors so transports can map them without string matching.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindValidation   ErrorKind = "validation"
	KindInvalidState ErrorKind = "invalid_state"
	KindForbidden    ErrorKind = "forbidden"
	KindConflict     ErrorKind = "conflict"
	KindUnauthorized ErrorKind = "unauthorized"
)

// AppError is a domain error with a machine-readable kind and a human-readable message.
type AppError struct {
	Kind    ErrorKind
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %s", entity, id)}
}

// NewValidationError reports invalid caller input.
func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

// NewInvalidStateError reports a state machine transition that is not allowed.
func NewInvalidStateError(from, to string) *AppError {
	return &AppError{
		Kind:    KindInvalidState,
		Message: fmt.Sprintf("cannot change status from %s to %s", from, to),
	}
}

// NewForbiddenError reports an actor that is not permitted to perform the action.
func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

// NewConflictError reports a clash with existing state.
func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

// NewUnauthorizedError reports a missing or invalid identity.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

// KindOf returns the kind of a domain error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsNotFound reports whether err is a not-found domain error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsInvalidInput reports whether err is a validation or invalid-transition error.
func IsInvalidInput(err error) bool {
	k := KindOf(err)
	return k == KindValidation || k == KindInvalidState
}

// IsInvalidState reports whether err is an invalid-transition error.
func IsInvalidState(err error) bool { return KindOf(err) == KindInvalidState }

// IsForbidden reports whether err is a forbidden domain error.
func IsForbidden(err error) bool { return KindOf(err) == KindForbidden }

// IsConflict reports whether err is a conflict domain error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsRetryable reports whether the caller may retry without changing its input.
// Only internal failures qualify; domain errors need corrective input.
func IsRetryable(err error) bool {
	return err != nil && KindOf(err) == ""
}
