// Package errs defines the error categories shared by artgit packages.
//
// Package-level errors wrap one of these with %w so callers can branch on
// the category with errors.Is without knowing the concrete error.
package errs

import "errors"

// Categories
var (
	// ErrValidation marks bad caller input: blank messages, no active document.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks unknown commit ids and missing artifact files.
	ErrNotFound = errors.New("not found")

	// ErrPersistence marks disk read/write failures.
	ErrPersistence = errors.New("persistence error")

	// ErrRemote marks failures reported by, or while reaching, a remote service.
	ErrRemote = errors.New("remote service error")
)
