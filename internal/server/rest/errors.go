package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gopherblog/internal/common"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type errorMapping struct {
	err    error
	status int
	code   string
	// expose the wrapped message instead of the sentinel text
	detail bool
}

var errorMappings = []errorMapping{
	{common.ErrorValidation, http.StatusBadRequest, "INVALID_INPUT", true},
	{common.ErrUnsupportedMedia, http.StatusBadRequest, "UNSUPPORTED_MEDIA", false},
	{common.ErrDuplicateUsername, http.StatusConflict, "DUPLICATE_USERNAME", false},
	{common.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", false},
	{common.ErrMissingCredential, http.StatusUnauthorized, "MISSING_CREDENTIAL", false},
	{common.ErrTokenExpired, http.StatusForbidden, "TOKEN_EXPIRED", false},
	{common.ErrInvalidToken, http.StatusForbidden, "INVALID_TOKEN", false},
	{common.ErrNotOwner, http.StatusForbidden, "NOT_OWNER", false},
	{common.ErrorNotFound, http.StatusNotFound, "NOT_FOUND", false},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT", false},
}

// statusFor maps an error kind to its HTTP status and response body. Unknown
// errors become a 500 whose message carries no internal detail.
func statusFor(err error) (int, ErrorResponse) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			msg := m.err.Error()
			if m.detail {
				msg = err.Error()
			}
			return m.status, ErrorResponse{Code: m.code, Error: msg}
		}
	}
	return http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL", Error: common.ErrorInternal.Error()}
}

// abortWithError writes the mapped response and stops the handler chain.
func abortWithError(c *gin.Context, err error) {
	status, body := statusFor(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
