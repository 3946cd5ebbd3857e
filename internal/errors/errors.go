package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios
var (
	// 400 Bad Request
	ErrInvalidRequest   = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed")
	ErrInvalidFilter    = New(http.StatusBadRequest, "INVALID_FILTER", "Malformed or contradictory filter criteria")
	ErrMissingParameter = New(http.StatusBadRequest, "MISSING_PARAMETER", "Required parameter is missing")

	// 403 Forbidden
	ErrSiteNotAllowed = New(http.StatusForbidden, "SITE_NOT_ALLOWED", "Site access not permitted")

	// 404 Not Found
	ErrNotFound     = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrFileNotFound = New(http.StatusNotFound, "FILE_NOT_FOUND", "Requested file not found")

	// 413 Request Entity Too Large
	ErrPayloadTooLarge = New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Uploaded file exceeds the maximum allowed size")

	// 422 Unprocessable Entity
	ErrUnreadableTable = New(http.StatusUnprocessableEntity, "UNREADABLE_TABLE", "Unsupported or corrupt spreadsheet file")

	// 429 Too Many Requests
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")

	// 500 Internal Server Error
	ErrInternalServer    = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
	ErrAuthNotConfigured = New(http.StatusInternalServerError, "AUTH_NOT_CONFIGURED", "Server authentication not configured")

	// 502 Bad Gateway
	ErrUpstream = New(http.StatusBadGateway, "UPSTREAM_ERROR", "Upstream file store request failed")
)

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// InvalidFilterError creates a filter validation error with field details.
// Filter errors are rejected before the analysis core runs.
func InvalidFilterError(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_FILTER", "Malformed or contradictory filter criteria", ValidationError{
		Field:   field,
		Message: message,
	})
}

// UnreadableTableError creates an unreadable table error. The uploaded bytes
// are not a parseable spreadsheet; this is a client-correctable condition,
// not a server fault.
func UnreadableTableError(err error) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, "UNREADABLE_TABLE", "Unsupported or corrupt spreadsheet file", err.Error())
}

// UpstreamError creates an error for a failed Microsoft Graph request.
// The upstream response body is never echoed to clients.
func UpstreamError(operation string) *APIError {
	return New(http.StatusBadGateway, "UPSTREAM_ERROR", fmt.Sprintf("Microsoft Graph request failed during %s", operation))
}

// NotFoundError creates a not found error with details
func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource), resource)
}

// ErrorResponse represents a standard error response envelope
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error:   err,
	}
}

// Render implements the render.Renderer interface
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Request validation failed",
		ValidationErrors{Errors: errors},
	)
}
