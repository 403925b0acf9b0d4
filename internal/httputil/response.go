// Package httputil provides HTTP helpers shared by the handlers: error mapping and
// access token extraction.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/parquet-keytools/internal/errors"
)

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type errorMapping struct {
	target     error
	statusCode int
	code       string
	// message is returned to the client. Empty means the error text itself.
	message string
}

// errorMappings is checked in order; the first sentinel in the chain wins. Access
// denied comes first so a KMS rejection during client initialization reports 403
// even though it is also a configuration failure.
var errorMappings = []errorMapping{
	{target: apperrors.ErrAccessDenied, statusCode: http.StatusForbidden, code: "access_denied"},
	{target: apperrors.ErrUnauthorized, statusCode: http.StatusUnauthorized, code: "unauthorized",
		message: "Authentication is required"},
	{target: apperrors.ErrNotFound, statusCode: http.StatusNotFound, code: "not_found",
		message: "The requested resource was not found"},
	{target: apperrors.ErrInvalidInput, statusCode: http.StatusUnprocessableEntity, code: "invalid_input"},
	{target: apperrors.ErrUnsupportedOperation, statusCode: http.StatusUnprocessableEntity,
		code: "unsupported_operation"},
	{target: apperrors.ErrProtocol, statusCode: http.StatusUnprocessableEntity, code: "protocol_error"},
	{target: apperrors.ErrConfiguration, statusCode: http.StatusInternalServerError, code: "configuration_error",
		message: "The key service is misconfigured"},
}

// HandleErrorGin maps domain errors to HTTP status codes and writes a JSON error.
// Unknown errors become 500 without details.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	statusCode := http.StatusInternalServerError
	errorResponse := ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	}
	for _, m := range errorMappings {
		if !apperrors.Is(err, m.target) {
			continue
		}
		statusCode = m.statusCode
		errorResponse = ErrorResponse{Error: m.code, Message: m.message}
		if m.message == "" {
			errorResponse.Message = err.Error()
		}
		break
	}

	if logger != nil {
		logger.Error("request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", errorResponse.Error),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, errorResponse)
}

// HandleBadRequestGin writes a 400 Bad Request response for malformed JSON or parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: err.Error(),
	})
}

// HandleValidationErrorGin writes a 422 Unprocessable Entity response for validation errors.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}
