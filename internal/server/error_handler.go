// file: internal/server/error_handler.go
// version: 2.0.0
// guid: 5d6e7f8a-9b0c-1d2e-3f4a-5b6c7d8e9f0a

package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/lending-library/internal/backup"
	"github.com/jdfalk/lending-library/internal/catalog"
	"github.com/jdfalk/lending-library/internal/codec"
	"github.com/jdfalk/lending-library/internal/lending"
	"github.com/jdfalk/lending-library/internal/server/middleware"
	"go.uber.org/zap"
)

const contextLoggerKey = "logger"

// ErrorResponse provides a consistent error response format
type ErrorResponse struct {
	Error       string   `json:"error"`
	Code        string   `json:"code,omitempty"`
	Status      int      `json:"status"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// RespondWithError sends a standardized error response and logs the error
func RespondWithError(c *gin.Context, statusCode int, message string, code string) {
	respond(c, ErrorResponse{Error: message, Code: code, Status: statusCode})
}

func respond(c *gin.Context, resp ErrorResponse) {
	logErrorWithContext(c, resp.Status, resp.Error)
	c.AbortWithStatusJSON(resp.Status, resp)
}

// RespondWithBadRequest sends a 400 Bad Request error response
func RespondWithBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, message, "BAD_REQUEST")
}

// RespondWithValidationError sends a 400 error for validation failures
func RespondWithValidationError(c *gin.Context, field string, reason string) {
	message := "validation error: " + field
	if reason != "" {
		message = message + " (" + reason + ")"
	}
	RespondWithError(c, http.StatusBadRequest, message, "VALIDATION_ERROR")
}

// RespondWithNotFound sends a 404 Not Found error response
func RespondWithNotFound(c *gin.Context, resourceType string, id string) {
	message := resourceType + " not found"
	if id != "" {
		message = message + ": " + id
	}
	RespondWithError(c, http.StatusNotFound, message, "NOT_FOUND")
}

// RespondWithInternalError sends a 500 Internal Server Error response
func RespondWithInternalError(c *gin.Context, message string) {
	RespondWithError(c, http.StatusInternalServerError, message, "INTERNAL_ERROR")
}

// RespondWithConflict sends a 409 Conflict error response
func RespondWithConflict(c *gin.Context, message string) {
	RespondWithError(c, http.StatusConflict, message, "CONFLICT")
}

// RespondWithServiceError maps a catalog failure onto the error envelope.
// Suggestions, when given, are attached to conflict responses.
func RespondWithServiceError(c *gin.Context, err error, suggestions ...string) {
	var verr ValidationError
	var perr *codec.ParseError
	switch {
	case errors.As(err, &verr):
		RespondWithError(c, http.StatusBadRequest, verr.Error(), "VALIDATION_ERROR")
	case errors.Is(err, lending.ErrInvalidInput), errors.Is(err, catalog.ErrInvalidBook):
		RespondWithError(c, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, lending.ErrUnavailable), errors.Is(err, lending.ErrNoActiveLoan):
		if len(suggestions) == 0 {
			RespondWithConflict(c, err.Error())
			return
		}
		respond(c, ErrorResponse{
			Error:       err.Error(),
			Code:        "CONFLICT",
			Status:      http.StatusConflict,
			Suggestions: suggestions,
		})
	case errors.Is(err, backup.ErrChecksumMismatch):
		RespondWithError(c, http.StatusUnprocessableEntity, err.Error(), "CHECKSUM_MISMATCH")
	case errors.As(err, &perr):
		RespondWithError(c, http.StatusInternalServerError, err.Error(), "PARSE_ERROR")
	default:
		RespondWithInternalError(c, err.Error())
	}
}

// RespondWithOK sends a 200 OK response
func RespondWithOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// RespondWithCreated sends a 201 Created response
func RespondWithCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// RespondWithList sends a list response
func RespondWithList(c *gin.Context, items any, count int) {
	c.JSON(http.StatusOK, ListResponse{Items: items, Count: count})
}

// logErrorWithContext logs an error with request context for debugging
func logErrorWithContext(c *gin.Context, statusCode int, message string) {
	log := zap.NewNop()
	if v, ok := c.Get(contextLoggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			log = l
		}
	}

	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", statusCode),
		zap.String("client_ip", c.ClientIP()),
		zap.String("request_id", middleware.GetRequestID(c)),
	}
	if statusCode >= 500 {
		log.Error(message, fields...)
		return
	}
	log.Warn(message, fields...)
}

// HandleBindError handles JSON binding errors with a consistent response
func HandleBindError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	errMsg := err.Error()
	if strings.Contains(errMsg, "required") || strings.Contains(errMsg, "binding") {
		RespondWithValidationError(c, "request body", errMsg)
	} else {
		RespondWithBadRequest(c, "invalid request: "+errMsg)
	}
	return true
}
