// Package common defines shared constants and sentinel errors used across
// the server, the HTTP layer and the CLI client. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// Registration errors.
	ErrDuplicateUsername = errors.New("username already exists")

	// Login errors. Unknown user and wrong password are reported the same way.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Auth gate errors.
	ErrMissingCredential = errors.New("no authorization token provided")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")

	// Authorization errors.
	ErrNotOwner = errors.New("you are not the author")

	// Upload errors.
	ErrUnsupportedMedia = errors.New("unsupported media type")
)
