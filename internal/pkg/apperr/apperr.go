package apperr

import "errors"

var (
	// ErrNotFound marks lookups for users that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument marks rejected input, e.g. negative skill points.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthorized marks failed credential or token checks.
	ErrUnauthorized = errors.New("unauthorized")
)
