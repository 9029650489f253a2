package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/codeternalx123/agropulseAI/internal/api/shared/errors"
	"github.com/codeternalx123/agropulseAI/internal/logger"
)

// errorResponse represents a standardized error response
type errorResponse struct {
	Error errorDetail `json:"error"`
}

// errorDetail contains error information
type errorDetail struct {
	Code    apierrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
	Details string              `json:"details,omitempty"`
}

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, code apierrors.ErrorCode, message string, details ...string) {
	response := errorResponse{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	}

	if len(details) > 0 {
		response.Error.Details = details[0]
	}

	c.JSON(statusCode, response)
}

// respondValidationError sends a 400 Bad Request with validation error
func respondValidationError(c *gin.Context, details string) {
	respondWithError(c, http.StatusBadRequest, apierrors.ErrCodeValidationFailed, "Validation failed", details)
}

// respondForbidden sends a 403 Forbidden response
func respondForbidden(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusForbidden, apierrors.ErrCodeForbidden, message, details...)
}

// respondDomainError maps a service error onto the HTTP error envelope.
// Server-side kinds are logged; client-caused conflicts are not.
func respondDomainError(c *gin.Context, err error) {
	apiErr, status := apierrors.FromDomain(err)
	if status >= http.StatusInternalServerError {
		logger.Error(err, zap.String("path", c.Request.URL.Path))
	}
	respondWithError(c, status, apiErr.Code, apiErr.Message, apiErr.Details)
}
