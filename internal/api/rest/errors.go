package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/truesource/storefront/internal/api/shared/errors"
)

// respondError responds with an API error wrapped in the error envelope
func respondError(c *gin.Context, status int, err *errors.APIError) {
	c.JSON(status, errors.Response(err))
}

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondError(c, http.StatusBadRequest, errors.NewBadRequestError(message, details...))
}

// respondNotFound responds with a not found error
func respondNotFound(c *gin.Context, message string, details ...string) {
	respondError(c, http.StatusNotFound, errors.NewNotFoundError(message, details...))
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, err error) {
	if apiErr, ok := err.(*errors.APIError); ok {
		respondError(c, http.StatusBadRequest, apiErr)
		return
	}
	respondError(c, http.StatusBadRequest, errors.NewValidationError(err.Error()))
}

// respondServiceUnavailable responds with a service unavailable error
func respondServiceUnavailable(c *gin.Context, message string, details ...string) {
	respondError(c, http.StatusServiceUnavailable, errors.NewServiceUnavailableError(message, details...))
}

// respondUpstreamError responds with an internal server error caused by the blockchain provider
func respondUpstreamError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, errors.NewUpstreamError(message))
}

// respondInternalError responds with an internal server error
func respondInternalError(c *gin.Context, message string, details ...string) {
	respondError(c, http.StatusInternalServerError, errors.NewInternalError(message, details...))
}
