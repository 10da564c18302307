package common

import (
	"errors"
	"fmt"
)

// ErrTransient and ErrPermanent classify provider failures by whether the
// same request could succeed later.
var (
	ErrTransient = errors.New("transient error")
	ErrPermanent = errors.New("permanent error")
)

// ErrRecoverable and ErrFatal classify adapter failures by their effect on a
// single pipeline invocation: recoverable failures are replaced with canned
// content, fatal ones end the invocation with the fallback reply.
var (
	ErrRecoverable = errors.New("recoverable adapter error")
	ErrFatal       = errors.New("fatal adapter error")
)

// WrapTransient annotates an error so callers can detect transient failures.
func WrapTransient(err error) error {
	if err == nil {
		return ErrTransient
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// WrapPermanent annotates an error as permanent.
func WrapPermanent(err error) error {
	if err == nil {
		return ErrPermanent
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// WrapRecoverable marks an adapter failure the pipeline can continue past.
func WrapRecoverable(err error) error {
	if err == nil {
		return ErrRecoverable
	}
	return fmt.Errorf("%w: %w", ErrRecoverable, err)
}

// WrapFatal marks an adapter failure that ends the current invocation.
func WrapFatal(err error) error {
	if err == nil {
		return ErrFatal
	}
	return fmt.Errorf("%w: %w", ErrFatal, err)
}

// UserError pairs an internal error with text that is safe to show the
// sender.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.UserMessage
	}
	return e.Err.Error()
}

func (e *UserError) Unwrap() error { return e.Err }

// UserMessage extracts the user-facing text from err, if any.
func UserMessage(err error) (string, bool) {
	var ue *UserError
	if errors.As(err, &ue) && ue.UserMessage != "" {
		return ue.UserMessage, true
	}
	return "", false
}
