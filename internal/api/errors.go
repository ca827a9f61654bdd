// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/masrulmollah/DataAnalysis/internal/models"
	"github.com/masrulmollah/DataAnalysis/internal/session"
	"github.com/masrulmollah/DataAnalysis/internal/upload"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error. The resource name feeds
// the error code, so "session" yields SESSION_NOT_FOUND.
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    strings.ToUpper(resource) + "_NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// toAPIError maps any error returned by a handler to a structured response.
// Domain errors carry their own status so handlers can return them as is.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	}

	var unsupported *models.UnsupportedFormatError
	if errors.As(err, &unsupported) {
		return &APIError{
			Status:  http.StatusUnsupportedMediaType,
			Code:    "UNSUPPORTED_FORMAT",
			Message: unsupported.Error(),
		}
	}

	var ingestion *models.IngestionError
	if errors.As(err, &ingestion) {
		return &APIError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "INGESTION_FAILED",
			Message: ingestion.Error(),
		}
	}

	var remote *models.RemoteCallError
	if errors.As(err, &remote) {
		return &APIError{
			Status:  http.StatusBadGateway,
			Code:    "REMOTE_CALL_FAILED",
			Message: remote.Error(),
		}
	}

	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return &APIError{
			Status:  http.StatusNotFound,
			Code:    "SESSION_NOT_FOUND",
			Message: err.Error(),
		}
	case errors.Is(err, session.ErrSessionBusy):
		return &APIError{
			Status:  http.StatusConflict,
			Code:    "SESSION_BUSY",
			Message: err.Error(),
		}
	case errors.Is(err, upload.ErrUploadNotFound):
		return &APIError{
			Status:  http.StatusNotFound,
			Code:    "UPLOAD_NOT_FOUND",
			Message: err.Error(),
		}
	}

	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: "An unexpected error occurred",
		Details: err.Error(),
	}
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	apiErr := toAPIError(err)
	c.JSON(apiErr.Status, apiErr)
}
