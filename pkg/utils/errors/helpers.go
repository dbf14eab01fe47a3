package errors

import "errors"

// FromError converts any error to Errno.
// If err is already an Errno, returns it directly.
// Otherwise, wraps it as ErrInternal.
func FromError(err error) *Errno {
	if err == nil {
		return nil
	}
	var e *Errno
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.WithCause(err)
}

// IsCode checks if the error has the given error code.
func IsCode(err error, code int) bool {
	var e *Errno
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode returns the error code from an error.
// Returns -1 if the error is not an Errno.
func GetCode(err error) int {
	var e *Errno
	if errors.As(err, &e) {
		return e.Code
	}
	return -1
}

// IsTransient reports whether the error represents a temporary condition
// (network or timeout category) that a retry may resolve.
func IsTransient(err error) bool {
	var e *Errno
	if !errors.As(err, &e) {
		return false
	}
	category := GetCategory(e.Code)
	return category == CategoryNetwork || category == CategoryTimeout
}
