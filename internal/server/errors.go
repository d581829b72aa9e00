package server

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func newAPIError(status int, code, message string) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: message}
}

// WithDetails returns a copy carrying details.
func (e *APIError) WithDetails(details any) *APIError {
	out := *e
	out.Details = details
	return &out
}

var (
	ErrInvalidRequest    = newAPIError(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrValidationFailed  = newAPIError(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed")
	ErrUnauthorized      = newAPIError(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	ErrNotFound          = newAPIError(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrRateLimitExceeded = newAPIError(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")
	ErrPredictionFailed  = newAPIError(http.StatusInternalServerError, "PREDICTION_FAILED", "Prediction failed")
	ErrReloadFailed      = newAPIError(http.StatusInternalServerError, "RELOAD_FAILED", "Artifact reload failed")
	ErrInternalServer    = newAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)
