package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContextRequestID is the gin context key the request ID middleware fills.
const ContextRequestID = "requestID"

// Error codes carried in the "code" field of every error body.
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeTooManyRequests     = "TOO_MANY_REQUESTS"
)

// APIError is the body of every non-2xx response, wrapped as {"error": ...}.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

func NewAPIError(statusCode int, code, message, details string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message, Details: details}
}

// RespondWithError writes err, stamps it with the request ID and aborts the chain.
func RespondWithError(c *gin.Context, err *APIError) {
	if err.RequestID == "" {
		err.RequestID = c.GetString(ContextRequestID)
	}
	c.AbortWithStatusJSON(err.StatusCode, gin.H{"error": err})
}

func RespondValidationFailed(c *gin.Context, details string) {
	RespondWithError(c, NewAPIError(http.StatusBadRequest, ErrCodeValidationFailed, "Input validation failed", details))
}

// RespondInternalError hides the cause from the client; callers log it first.
func RespondInternalError(c *gin.Context, message string) {
	RespondWithError(c, NewAPIError(http.StatusInternalServerError, ErrCodeInternalServerError, message, ""))
}
