package calendar

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeValidation indicates a missing or blank required field.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeNotFound indicates no event exists with the requested id.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeStorageUnavailable indicates a backend I/O or connection failure.
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"
)

// Client-facing messages.
const (
	MsgTitleDateRequired  = "Title and date are required"
	MsgEventNotFound      = "Event not found"
	MsgStorageUnavailable = "Storage unavailable"
)

// Error is returned by every EventStore operation that fails.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is safe to show to API clients.
	Message string

	// ID is the event id involved, if any.
	ID int64

	// Err is the underlying cause. Never shown to clients.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	if e.ID != 0 {
		return fmt.Sprintf("%s: %s (id=%d)", e.Code, e.Message, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError creates an Error for rejected input.
func NewValidationError(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// NewNotFoundError creates an Error for an unknown event id.
func NewNotFoundError(id int64) *Error {
	return &Error{Code: ErrCodeNotFound, Message: MsgEventNotFound, ID: id}
}

// WrapStorageError wraps a backend failure during op.
func WrapStorageError(op string, err error) *Error {
	return &Error{
		Code:    ErrCodeStorageUnavailable,
		Message: MsgStorageUnavailable,
		Err:     fmt.Errorf("%s: %w", op, err),
	}
}

// CodeOf returns the code of the first *Error in err's chain, or
// ErrCodeStorageUnavailable for any other non-nil error.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeStorageUnavailable
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsStorageUnavailable reports whether err is a backend failure.
func IsStorageUnavailable(err error) bool {
	return hasCode(err, ErrCodeStorageUnavailable)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
