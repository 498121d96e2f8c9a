package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors with a stable code.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// Common application errors.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")

	// ErrRecognition marks an unreadable source document. It is terminal
	// for that document, no further stages run.
	ErrRecognition = errors.New("text recognition failed")
)

// WrapError ties a sentinel to a failure so callers can match it with
// errors.Is while the underlying cause stays readable in the message.
func WrapError(sentinel error, message string, cause error) error {
	if sentinel == nil {
		return nil
	}
	if cause == nil {
		return fmt.Errorf("%s: %w", message, sentinel)
	}
	return fmt.Errorf("%s: %v: %w", message, cause, sentinel)
}
