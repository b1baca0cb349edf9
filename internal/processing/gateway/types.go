package gateway

import "time"

// Location is the geolocation slice of a visit record, filled from
// whichever intelligence source resolved it.
type Location struct {
	Country     string
	CountryCode string
	Region      string
	City        string
	Latitude    float64
	Longitude   float64
	ISP         string
	FlagImg     string
}

// VisitRecord is the persisted, append-mostly record of one decision.
// At most one record exists per (shortlink key, client IP) within the
// rolling dedup window.
type VisitRecord struct {
	ShortlinkKey string
	ShortlinkID  string
	VisitedAt    time.Time
	IP           string
	UserAgent    string
	Device       string
	Location     Location
	Timezone     string
	// Type is the connection class when known, otherwise the matched UA
	// signature, otherwise "unknown".
	Type        string
	IsBot       bool
	IsBlocked   bool
	BlockReason string
}

// VisitRequest is one inbound visit after the transport layer extracted
// the identity material from headers.
type VisitRequest struct {
	Key       string
	APIKey    string
	ClientIP  string
	UserAgent string
}

// Outcome is the gateway's disposition for an admitted, verified visit.
type Outcome struct {
	Blocked bool
	Reason  string
	// RedirectURL is the destination for allowed visits, or the decoy for
	// blocked visits configured for redirect-on-block. Empty when the
	// block is an explicit JSON status.
	RedirectURL string
	// BlockStatus is 403 or 404 for explicit JSON blocks, 0 otherwise.
	BlockStatus int
}
