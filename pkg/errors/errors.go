// Package errors provides common domain error types for the roster engine.
//
// It defines sentinel errors for conditions like "not found" or "not
// configured" that are shared across packages. Typed sentinels enable
// consistent error handling with errors.Is() checks: lookup misses and
// permission denials degrade locally, while configuration errors escalate
// to the caller.
package errors

import "errors"

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrNotFound indicates the requested directory entry was not found.
	// A clean "no such person" result, distinct from a transport failure.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the directory or presence service rejected
	// the request for lack of permission (401/403).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotConfigured indicates a required collaborator (directory client,
	// presence provider) was not wired in. This is a programming or
	// configuration error and is surfaced to the immediate caller.
	ErrNotConfigured = errors.New("not configured")

	// ErrAlreadyExists indicates a participant with the same identity is
	// already on the roster.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidState indicates the operation is not valid for the
	// participant's current match state.
	ErrInvalidState = errors.New("invalid state")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized reports whether any error in err's chain is ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNotConfigured reports whether any error in err's chain is ErrNotConfigured.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// IsAlreadyExists reports whether any error in err's chain is ErrAlreadyExists.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsInvalidState reports whether any error in err's chain is ErrInvalidState.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}
