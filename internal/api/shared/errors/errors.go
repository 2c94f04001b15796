package errors

import (
	"encoding/json"
	"strings"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest       ErrorCode = "bad_request"
	ErrCodeNotFound         ErrorCode = "not_found"
	ErrCodeValidationFailed ErrorCode = "validation_failed"
	ErrCodeUnauthorized     ErrorCode = "unauthorized"
	ErrCodeTooManyRequests  ErrorCode = "too_many_requests"

	// Server errors (5xx)
	ErrCodeInternalError      ErrorCode = "internal_error"
	ErrCodeUpstreamError      ErrorCode = "upstream_error"
	ErrCodeServiceUnavailable ErrorCode = "service_unavailable"
)

// APIError represents a structured API error that carries error code and details
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	jsonErr, _ := json.Marshal(e)
	return string(jsonErr)
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// Response wraps an APIError into the response envelope
func Response(err *APIError) ErrorResponse {
	return ErrorResponse{Error: err}
}

func newError(code ErrorCode, message string, details []string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

// Error constructors for common error types
func NewBadRequestError(message string, details ...string) *APIError {
	return newError(ErrCodeBadRequest, message, details)
}

func NewNotFoundError(message string, details ...string) *APIError {
	return newError(ErrCodeNotFound, message, details)
}

func NewValidationError(details ...string) *APIError {
	return newError(ErrCodeValidationFailed, "Validation failed", details)
}

func NewUnauthorizedError(message string, details ...string) *APIError {
	return newError(ErrCodeUnauthorized, message, details)
}

func NewTooManyRequestsError(message string, details ...string) *APIError {
	return newError(ErrCodeTooManyRequests, message, details)
}

func NewInternalError(message string, details ...string) *APIError {
	return newError(ErrCodeInternalError, message, details)
}

func NewUpstreamError(message string, details ...string) *APIError {
	return newError(ErrCodeUpstreamError, message, details)
}

func NewServiceUnavailableError(message string, details ...string) *APIError {
	return newError(ErrCodeServiceUnavailable, message, details)
}
