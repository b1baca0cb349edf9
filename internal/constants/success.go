package constants

import "net/http"

// APISuccess represents a standardized API success response with code and HTTP status.
// Use these predefined success constants for consistent API responses across the application.
type APISuccess struct {
	Code   string
	Status int
}

// Shortlink management success responses
var (
	SuccessShortlinkCreated = APISuccess{
		Code:   CodeShortlinkCreated,
		Status: http.StatusCreated,
	}
	SuccessShortlinkDeleted = APISuccess{
		Code:   CodeShortlinkDeleted,
		Status: http.StatusOK,
	}
	SuccessShortlinksFound = APISuccess{
		Code:   CodeShortlinksFound,
		Status: http.StatusOK,
	}
	SuccessStatsFound = APISuccess{
		Code:   CodeStatsFound,
		Status: http.StatusOK,
	}
)
