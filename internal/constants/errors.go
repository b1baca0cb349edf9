package constants

import "net/http"

// APIError represents a standardized API error with code, message, and HTTP status.
// Use these predefined errors for consistent API responses across the application.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// WithMessage returns a copy of the APIError with a custom message.
// Useful for validation errors or other dynamic messages.
func (e APIError) WithMessage(message string) APIError {
	return APIError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
	}
}

// Common errors - shared across multiple modules
var (
	ErrInvalidRequestBody = APIError{
		Code:    CodeInvalidRequest,
		Message: MsgInvalidRequestBody,
		Status:  http.StatusBadRequest,
	}
	ErrInternalError = APIError{
		Code:    CodeInternalError,
		Message: MsgInternalError,
		Status:  http.StatusInternalServerError,
	}
	ErrUnauthorized = APIError{
		Code:    CodeUnauthorized,
		Message: MsgUnauthorized,
		Status:  http.StatusUnauthorized,
	}
	ErrRateLimited = APIError{
		Code:    CodeRateLimited,
		Message: MsgRateLimited,
		Status:  http.StatusTooManyRequests,
	}
)

// Gateway admission and resolution errors. Status codes follow the public
// contract the dashboard and customer integrations already depend on,
// including the unusual 404 for a missing key header and an expired plan.
var (
	ErrMissingAPIKey = APIError{
		Code:    CodeMissingAPIKey,
		Message: MsgMissingAPIKey,
		Status:  http.StatusNotFound,
	}
	ErrInvalidAPIKey = APIError{
		Code:    CodeInvalidAPIKey,
		Message: MsgInvalidAPIKey,
		Status:  http.StatusForbidden,
	}
	ErrSubscriptionExpired = APIError{
		Code:    CodeSubscriptionExpired,
		Message: MsgSubscriptionExpired,
		Status:  http.StatusNotFound,
	}
	ErrMissingKey = APIError{
		Code:    CodeMissingKey,
		Message: MsgMissingKey,
		Status:  http.StatusBadRequest,
	}
	ErrShortlinkNotFound = APIError{
		Code:    CodeShortlinkNotFound,
		Message: MsgShortlinkNotFound,
		Status:  http.StatusNotFound,
	}
	ErrVerificationFailed = APIError{
		Code:    CodeVerificationFailed,
		Message: MsgVerificationFailed,
		Status:  http.StatusBadGateway,
	}
	ErrNoValidDestination = APIError{
		Code:    CodeNoValidDestination,
		Message: MsgNoValidDestination,
		Status:  http.StatusBadGateway,
	}
)

// Management API errors
var (
	ErrInvalidURL = APIError{
		Code:    CodeInvalidURL,
		Message: MsgInvalidURL,
		Status:  http.StatusBadRequest,
	}
	ErrKeyTaken = APIError{
		Code:    CodeKeyTaken,
		Message: MsgKeyTaken,
		Status:  http.StatusConflict,
	}
	ErrPlanForbidden = APIError{
		Code:    CodePlanForbidden,
		Message: MsgPlanForbidden,
		Status:  http.StatusForbidden,
	}
)
