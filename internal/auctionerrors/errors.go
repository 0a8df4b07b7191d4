package auctionerrors

import (
	"errors"
	"fmt"
)

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrVersionConflict = errors.New("auction version conflict")
)

// Error kinds surfaced to callers
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// Error is a classified failure carrying a client-facing message.
// errors.Is matches it against its Kind, errors.Unwrap returns the cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation returns a client-caused failure.
func Validation(message string) error {
	return &Error{Kind: ErrValidation, Message: message}
}

// Validationf is Validation with fmt formatting.
func Validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// AsValidation downgrades err to a validation failure, keeping it as the cause.
func AsValidation(message string, err error) error {
	return &Error{Kind: ErrValidation, Message: message, Err: err}
}

// NotFound returns a failure for an unresolved reference.
func NotFound(message string, err error) error {
	return &Error{Kind: ErrNotFound, Message: message, Err: err}
}

// Conflict returns a failure for a write that lost a race.
func Conflict(message string, err error) error {
	return &Error{Kind: ErrConflict, Message: message, Err: err}
}

// Message extracts the client-facing message, falling back to err.Error().
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
