package utils

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Match with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidInput       = errors.New("invalid input")
)

// AppError wraps an operation, error kind, human-facing message, and underlying error.
type AppError struct {
	Op   string
	Kind error
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	msg := e.Msg
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the error's kind.
func (e *AppError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// NewAppError constructs an AppError without a kind.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}

// NotFound reports an unknown id.
func NotFound(op, msg string) error {
	return &AppError{Op: op, Kind: ErrNotFound, Msg: msg}
}

// InvalidInput reports a rejected request.
func InvalidInput(op, msg string) error {
	return &AppError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}

// StorageUnavailable wraps a persistence failure.
func StorageUnavailable(op string, err error) error {
	return &AppError{Op: op, Kind: ErrStorageUnavailable, Msg: "storage unavailable", Err: err}
}
