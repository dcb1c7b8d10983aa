// Package errors provides the structured error types used throughout the
// store. Every error carries an ErrorCode so callers can branch on the
// failure kind programmatically, a cause chain compatible with the standard
// errors package, and optional structured details for logging.
package errors

import (
	stdErrors "errors"
)

// KeyNotFoundMessage is the exact user-visible rendering of a remove against
// an absent key. The client and the end-to-end tests depend on this string.
const KeyNotFoundMessage = "Key not found"

// coder is implemented by every error type in this package.
type coder interface {
	Code() ErrorCode
}

// NewKeyNotFound creates the failure returned by a remove on an absent key.
func NewKeyNotFound() error {
	return NewBaseError(nil, ErrorCodeKeyNotFound, KeyNotFoundMessage)
}

// IsKeyNotFound reports whether err represents a remove against an absent key.
func IsKeyNotFound(err error) bool {
	return GetErrorCode(err) == ErrorCodeKeyNotFound
}

// IsStorageError determines if an error is related to storage operations,
// such as file I/O or segment file corruption.
func IsStorageError(err error) bool {
	var se *StorageError
	return stdErrors.As(err, &se)
}

// AsStorageError safely extracts a StorageError from an error chain,
// providing access to storage-specific context such as the segment
// generation, byte offset, and file path involved in the failure.
func AsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	if stdErrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from any error produced by this
// package, or returns ErrorCodeInternal for errors that don't carry one.
func GetErrorCode(err error) ErrorCode {
	var c coder
	if stdErrors.As(err, &c) {
		return c.Code()
	}
	return ErrorCodeInternal
}

// GetErrorDetails extracts structured details from any error that carries
// them, returning an empty map otherwise. Useful for structured logging.
func GetErrorDetails(err error) map[string]any {
	type detailed interface {
		Details() map[string]any
	}
	var d detailed
	if stdErrors.As(err, &d) {
		if details := d.Details(); details != nil {
			return details
		}
	}
	return make(map[string]any)
}
