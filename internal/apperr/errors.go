// Package apperr defines the sentinel errors shared across service layers.
// Handlers translate them to HTTP statuses with errors.Is at the boundary.
package apperr

import "errors"

var (
	// ErrBadRequest marks missing or invalid caller input.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound is returned when a package is absent from the npm
	// registry or from the local store.
	ErrNotFound = errors.New("not found")
	// ErrNotAPlugin is returned when an npm package does not declare the
	// @capacitor/core marker dependency.
	ErrNotAPlugin = errors.New("not a capacitor plugin")
	// ErrUnauthorized is returned when no valid session accompanies a
	// request that requires one.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is returned on duplicate inserts (package already
	// submitted, package already liked).
	ErrConflict = errors.New("conflict")
	// ErrReadmeNotFound is returned when an unpacked tarball contains no
	// README file.
	ErrReadmeNotFound = errors.New("readme not found")
)
