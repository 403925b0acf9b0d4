// Package errors provides the error taxonomy shared by the key tools. Use cases wrap
// these sentinels and handlers map them to HTTP status codes.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAccessDenied indicates the KMS refused the caller's access token.
	ErrAccessDenied = errors.New("access denied")

	// ErrConfiguration indicates missing or malformed settings, or a KMS client
	// that could not be built or initialized.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnsupportedOperation indicates an operation the current mode cannot perform.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrProtocol indicates malformed key material, missing data or storage failures
	// detected while running the key protocol.
	ErrProtocol = errors.New("protocol error")
)

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is like Wrap but formats the message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join returns an error wrapping every non-nil error in errs.
// This is a convenience wrapper around errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
