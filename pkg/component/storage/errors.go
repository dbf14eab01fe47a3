package storage

import (
	"errors"
	"fmt"
)

// Common storage error types. These can be used directly or enriched
// with WithMessage / WithCause.
var (
	// ErrNotConnected indicates that the storage client is not connected.
	ErrNotConnected = &StorageError{
		Code:    "NOT_CONNECTED",
		Message: "storage client is not connected",
	}

	// ErrConnectionFailed indicates a failed connection attempt.
	ErrConnectionFailed = &StorageError{
		Code:    "CONNECTION_FAILED",
		Message: "failed to connect to storage backend",
	}

	// ErrTimeout indicates a storage operation exceeded its deadline.
	ErrTimeout = &StorageError{
		Code:    "TIMEOUT",
		Message: "storage operation timed out",
	}

	// ErrInvalidConfig indicates invalid storage configuration.
	ErrInvalidConfig = &StorageError{
		Code:    "INVALID_CONFIG",
		Message: "invalid storage configuration",
	}

	// ErrClientNotFound indicates the requested client is not registered.
	ErrClientNotFound = &StorageError{
		Code:    "CLIENT_NOT_FOUND",
		Message: "storage client not found",
	}

	// ErrClientAlreadyExists indicates a duplicate client registration.
	ErrClientAlreadyExists = &StorageError{
		Code:    "CLIENT_ALREADY_EXISTS",
		Message: "storage client already exists",
	}
)

// StorageError represents a storage-related error with a code and message.
type StorageError struct {
	// Code is a machine-readable error code (e.g., "NOT_CONNECTED")
	Code string

	// Message is a human-readable error message
	Message string

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage creates a new StorageError with an updated message.
func (e *StorageError) WithMessage(msg string) *StorageError {
	return &StorageError{
		Code:    e.Code,
		Message: msg,
		Cause:   e.Cause,
	}
}

// WithCause creates a new StorageError wrapping an underlying cause.
func (e *StorageError) WithCause(cause error) *StorageError {
	return &StorageError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   cause,
	}
}

// IsStorageError checks if an error is a StorageError.
func IsStorageError(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}
