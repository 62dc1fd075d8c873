package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrForbidden = errors.New("you do not have permission")
	ErrNotFound  = errors.New("record not found")
)

// ValidationError is a missing or malformed field, or a business rule the
// request breaks before anything is written. Message is shown to the operator.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConflictError means a precondition checked inside the write transaction no
// longer holds, e.g. the table was taken by another terminal.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// StoreError wraps a database failure. Its text is logged, not shown.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// storeErr classifies err for op. Typed service errors pass through untouched
// so a rollback keeps the underlying cause.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var ce *ConflictError
	var se *StoreError
	switch {
	case errors.As(err, &ve), errors.As(err, &ce), errors.As(err, &se):
		return err
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidCredentials):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return &StoreError{Op: op, Err: err}
}

// ErrInvalidCredentials is returned by login for an unknown user, a wrong
// password or a deactivated account alike.
var ErrInvalidCredentials = errors.New("invalid username or password")
