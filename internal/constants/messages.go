package constants

// Error messages used in API responses.
// These are the human-readable messages returned in the "message" field.
// The gateway messages mirror what the dashboard expects verbatim.
const (
	// Common messages
	MsgInvalidRequestBody = "Invalid request body"
	MsgInternalError      = "An internal error occurred"
	MsgUnauthorized       = "Unauthorized"
	MsgRateLimited        = "Rate limit exceeded"

	// Gateway messages
	MsgMissingAPIKey       = "Missing API key"
	MsgInvalidAPIKey       = "Invalid API key"
	MsgSubscriptionExpired = "Subscription Expired."
	MsgMissingKey          = "Missing key"
	MsgShortlinkNotFound   = "Shortlink not found"
	MsgVerificationFailed  = "Unable to verify IP location"
	MsgNoValidDestination  = "No valid destination found"

	// Management API messages
	MsgInvalidURL    = "Invalid URL (must be http or https)"
	MsgKeyTaken      = "Key already exists"
	MsgPlanForbidden = "Free users cannot use advanced filters (device, ISP, country, or connection type)"
)
