// Package errors defines the error taxonomy shared by the toolkit: sentinel
// values for each failure class and an AppError wrapper that carries a
// human-readable message and the process exit code a driver should use.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrInvalidInput        = errors.New("invalid input")
	ErrMultiCategory       = errors.New("index must contain exactly one category")
	ErrNotFound            = errors.New("not found")
	ErrOutOfRange          = errors.New("identifier out of range")
	ErrNotCalibrated       = errors.New("supervised weighting not calibrated")
	ErrNothingToOversample = errors.New("nothing to oversample")
)

// Exit codes returned by the command-line drivers.
const (
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitData          = 3
)

type AppError struct {
	Err     error
	Message string
	Code    int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, code int, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
		Code:    code,
	}
}

func Newf(sentinel error, code int, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	}
}

// Configf builds a configuration error.
func Configf(format string, args ...any) *AppError {
	return Newf(ErrInvalidConfig, ExitConfiguration, format, args...)
}

// Dataf builds a data-consistency error around the given sentinel.
func Dataf(sentinel error, format string, args ...any) *AppError {
	return Newf(sentinel, ExitData, format, args...)
}

func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrMultiCategory):
		return ExitConfiguration
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrOutOfRange), errors.Is(err, ErrInvalidInput):
		return ExitData
	default:
		return ExitFailure
	}
}

// Is and As re-export the standard helpers so callers need a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
