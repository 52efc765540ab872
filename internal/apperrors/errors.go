package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the requested state transition is not allowed.
var ErrConflict = errors.New("conflicting state")

// ErrEntryNotFound indicates that the referenced journal entry does not exist.
var ErrEntryNotFound = errors.New("journal entry not found")

// ErrAlreadyReversed indicates that a journal entry has already been reversed
// and is immutable from here on.
var ErrAlreadyReversed = errors.New("journal entry already reversed")

// AppError wraps an underlying error with an internal status code and a
// human-readable message. The repository layer uses it for storage failures;
// callers may retry those with the same idempotency key.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping the given error.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that also matches ErrNotFound via errors.Is.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
