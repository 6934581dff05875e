// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Prediction errors.
	ErrNoData           = errors.New("no historical data available")
	ErrInsufficientData = errors.New("insufficient data")
	ErrFitFailed        = errors.New("model fitting failed")
	ErrInvalidRequest   = errors.New("invalid request")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// InternalError hides the cause of an unexpected failure behind a generic
// message while keeping it available to errors.Is/As.
func InternalError(err error) error {
	if err == nil {
		return nil
	}
	var userErr *UserError
	if errors.As(err, &userErr) || errors.Is(err, ErrInvalidRequest) {
		return err
	}
	return NewUserError("internal failure while computing predictions", err)
}
