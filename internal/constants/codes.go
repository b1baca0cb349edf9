package constants

// Error codes used in API responses.
// These are the machine-readable codes returned in the "error" field.
const (
	// Common error codes
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeRateLimited    = "RATE_LIMITED"

	// Gateway-specific codes
	CodeMissingAPIKey       = "MISSING_API_KEY"
	CodeInvalidAPIKey       = "INVALID_API_KEY"
	CodeSubscriptionExpired = "SUBSCRIPTION_EXPIRED"
	CodeMissingKey          = "MISSING_KEY"
	CodeShortlinkNotFound   = "SHORTLINK_NOT_FOUND"
	CodeVerificationFailed  = "VERIFICATION_FAILED"
	CodeNoValidDestination  = "NO_VALID_DESTINATION"

	// Management API codes
	CodeInvalidURL    = "INVALID_URL"
	CodeKeyTaken      = "KEY_TAKEN"
	CodePlanForbidden = "PLAN_FORBIDDEN"

	// Success codes
	CodeShortlinkCreated = "SHORTLINK_CREATED"
	CodeShortlinkDeleted = "SHORTLINK_DELETED"
	CodeShortlinksFound  = "SHORTLINKS_FOUND"
	CodeStatsFound       = "STATS_FOUND"
)
