package client

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gopherblog/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

var codeErrors = map[string]error{
	"INVALID_INPUT":       common.ErrorValidation,
	"UNSUPPORTED_MEDIA":   common.ErrUnsupportedMedia,
	"DUPLICATE_USERNAME":  common.ErrDuplicateUsername,
	"INVALID_CREDENTIALS": common.ErrInvalidCredentials,
	"MISSING_CREDENTIAL":  common.ErrMissingCredential,
	"TOKEN_EXPIRED":       common.ErrTokenExpired,
	"INVALID_TOKEN":       common.ErrInvalidToken,
	"NOT_OWNER":           common.ErrNotOwner,
	"NOT_FOUND":           common.ErrorNotFound,
}

// Unwrap exposes the matching sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	return codeErrors[e.Code]
}
