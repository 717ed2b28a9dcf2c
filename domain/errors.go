package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error. Message is user-facing and is the
// only thing the HTTP boundary exposes; Code drives status selection.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Published authentication failures. The message texts are part of the API
// contract; unknown-username and wrong-password deliberately share one
// message so the API does not reveal which accounts exist.
var (
	ErrUsernameTaken      = NewError(ErrCodeConflict, "Username already exists")
	ErrEmailTaken         = NewError(ErrCodeConflict, "Email already exists")
	ErrInvalidCredentials = NewError(ErrCodeUnauthorized, "Invalid username or password")
	ErrAccountDeactivated = NewError(ErrCodeUnauthorized, "Account is deactivated")

	ErrUserNotFound    = NewError(ErrCodeNotFound, "user not found")
	ErrSessionNotFound = NewError(ErrCodeNotFound, "session not found")
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload  = NewError(ErrCodeInvalid, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
