// Package httpapi exposes the REST surface over gin: auth, profiles,
// portfolio, connections, messaging history, files, roadmaps, and the admin
// console. Every failure is converted to a JSON error body at this boundary.
package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"devfolio/internal/common"
)

// APIError is the structured error body returned to clients.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: status code %d, message: %s", e.StatusCode, e.Message)
}

func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}

// toAPIError maps the internal error taxonomy to HTTP statuses. Unrecognized
// errors collapse to 500 without leaking internals.
func toAPIError(err error) *APIError {
	switch {
	case errors.Is(err, common.ErrValidation):
		return NewAPIError(http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrNotFound):
		return NewAPIError(http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrConflict):
		return NewAPIError(http.StatusConflict, err.Error())
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return NewAPIError(http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrForbidden):
		return NewAPIError(http.StatusForbidden, "forbidden")
	case errors.Is(err, common.ErrUnavailable):
		return NewAPIError(http.StatusServiceUnavailable, "service unavailable")
	default:
		return NewAPIError(http.StatusInternalServerError, "internal error")
	}
}

func abortWithError(c *gin.Context, err error) {
	apiErr := toAPIError(err)
	c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
}

func abortBadRequest(c *gin.Context, msg string) {
	apiErr := NewAPIError(http.StatusBadRequest, msg)
	c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
}
