// Package httputil writes JSON error bodies for the API handlers.
package httputil

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/billvault/internal/errors"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

type errorMapping struct {
	status  int
	code    string
	message string // empty means the error text is shown to the caller
}

var (
	errorMappings = map[error]errorMapping{
		apperrors.ErrNotFound:        {http.StatusNotFound, "not_found", "The requested resource was not found"},
		apperrors.ErrConflict:        {http.StatusConflict, "conflict", "A conflict occurred with existing data"},
		apperrors.ErrInvalidInput:    {http.StatusUnprocessableEntity, "invalid_input", ""},
		apperrors.ErrUnauthorized:    {http.StatusUnauthorized, "unauthorized", "Authentication is required"},
		apperrors.ErrForbidden:       {http.StatusForbidden, "forbidden", "You don't have permission to access this resource"},
		apperrors.ErrLocked:          {http.StatusLocked, "principal_locked", "Too many failed attempts, the principal is locked"},
		apperrors.ErrTooManyRequests: {http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests, retry later"},
		apperrors.ErrIntegrity:       {http.StatusUnprocessableEntity, "integrity_violation", "Stored data failed an integrity check"},
		apperrors.ErrUnavailable:     {http.StatusServiceUnavailable, "service_unavailable", "A required service is temporarily unavailable"},
	}
	internalError = errorMapping{http.StatusInternalServerError, "internal_error", "An internal error occurred"}
)

// HandleErrorGin writes the status and body for err's category. Uncategorized
// errors become a 500 with no detail. The full error is only logged.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	mapping, ok := errorMappings[apperrors.Category(err)]
	if !ok {
		mapping = internalError
	}
	message := mapping.message
	if message == "" {
		message = err.Error()
	}

	if logger != nil {
		level := slog.LevelWarn
		if mapping.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.LogAttrs(c, level, "request failed",
			slog.Int("status_code", mapping.status),
			slog.String("error_code", mapping.code),
			slog.Any("error", err),
		)
	}

	c.JSON(mapping.status, ErrorResponse{Error: mapping.code, Message: message})
}

// HandleBadRequestGin answers 400 for bodies or parameters that could not be parsed.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	writeClientError(c, logger, http.StatusBadRequest, "bad_request", err.Error())
}

// HandlePayloadTooLargeGin answers 413 for uploads over limit bytes.
func HandlePayloadTooLargeGin(c *gin.Context, limit int64, logger *slog.Logger) {
	writeClientError(c, logger, http.StatusRequestEntityTooLarge, "payload_too_large",
		fmt.Sprintf("Request body exceeds %d bytes", limit))
}

// HandleValidationErrorGin answers 422 with the validation messages.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	writeClientError(c, logger, http.StatusUnprocessableEntity, "validation_error", err.Error())
}

func writeClientError(c *gin.Context, logger *slog.Logger, status int, code, message string) {
	if logger != nil {
		logger.Warn("rejected request", slog.String("error_code", code), slog.String("message", message))
	}
	c.JSON(status, ErrorResponse{Error: code, Message: message})
}
