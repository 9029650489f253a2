package errors

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/codeternalx123/agropulseAI/internal/domain"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest       ErrorCode = "bad_request"
	ErrCodeNotFound         ErrorCode = "not_found"
	ErrCodeValidationFailed ErrorCode = "validation_failed"
	ErrCodeUnauthorized     ErrorCode = "unauthorized"
	ErrCodeForbidden        ErrorCode = "forbidden"

	// Domain conflicts (4xx)
	ErrCodeStateConflict        ErrorCode = "state_conflict"
	ErrCodeInsufficientQuantity ErrorCode = "insufficient_quantity"

	// Server errors (5xx)
	ErrCodeInternalError ErrorCode = "internal_error"
	ErrCodeDatabaseError ErrorCode = "database_error"
	ErrCodeServiceError  ErrorCode = "service_error"
	ErrCodeGatewayError  ErrorCode = "gateway_error"
)

// APIError represents a structured API error that carries error code and details
// This is the shared error type used by all REST handlers
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	jsonErr, _ := json.Marshal(e)
	return string(jsonErr)
}

// Error constructors for common error types
func NewBadRequestError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewNotFoundError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewValidationError(details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeValidationFailed,
		Message: "Validation failed",
		Details: strings.Join(details, ", "),
	}
}

func NewUnauthorizedError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewForbiddenError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewInternalError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeInternalError,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewDatabaseError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeDatabaseError,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewServiceError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeServiceError,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

// FromDomain maps a domain error to an API error and the HTTP status to
// respond with. State conflicts carry the record's current state in the
// details so clients can reconcile without a second read.
func FromDomain(err error) (*APIError, int) {
	switch domain.Kind(err) {
	case domain.KindValidation:
		return &APIError{
			Code:    ErrCodeValidationFailed,
			Message: "Validation failed",
			Details: err.Error(),
		}, http.StatusBadRequest
	case domain.KindNotFound:
		return &APIError{
			Code:    ErrCodeNotFound,
			Message: "Resource not found",
			Details: err.Error(),
		}, http.StatusNotFound
	case domain.KindStateConflict:
		apiErr := &APIError{
			Code:    ErrCodeStateConflict,
			Message: "Operation conflicts with current state",
			Details: err.Error(),
		}
		return apiErr, http.StatusConflict
	case domain.KindCapacity:
		return &APIError{
			Code:    ErrCodeInsufficientQuantity,
			Message: "Requested quantity unavailable",
			Details: err.Error(),
		}, http.StatusConflict
	case domain.KindAuthorization:
		return &APIError{
			Code:    ErrCodeForbidden,
			Message: "Not permitted",
			Details: err.Error(),
		}, http.StatusForbidden
	case domain.KindGateway:
		return &APIError{
			Code:    ErrCodeGatewayError,
			Message: "Payment gateway unavailable",
			Details: err.Error(),
		}, http.StatusBadGateway
	default:
		return &APIError{
			Code:    ErrCodeInternalError,
			Message: "Internal server error",
		}, http.StatusInternalServerError
	}
}
