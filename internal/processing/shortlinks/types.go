package shortlinks

import (
	"time"

	"github.com/IgorGrieder/guardiao-url/internal/processing/policy"
)

// Destination liveness as precomputed by the prober. An empty status means
// the URL has not been probed yet and is treated as not live.
const (
	URLStatusLive = "LIVE"
	URLStatusDead = "DEAD"
)

const StatusActive = "ACTIVE"

// Subscription plans and account states as stored on user profiles.
const (
	PlanFree = "free"

	ProfileActive  = "active"
	ProfileExpired = "expired"
)

// Shortlink is an owner-configured mapping from a key to one or two
// destination URLs plus the access policy the gateway enforces.
type Shortlink struct {
	ID                 string
	Owner              string
	Key                string
	URL                string
	SecondaryURL       string
	Status             string
	PrimaryURLStatus   string
	SecondaryURLStatus string
	// BlockStatusCode is the configured block behavior: 403 or 404 for an
	// explicit JSON rejection, anything else means redirect to a decoy.
	BlockStatusCode int
	AllowedDevice   string
	ConnectionType  string
	AllowedCountry  string
	AllowedISP      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Policy projects the owner-defined restriction fields into the shape the
// policy engine evaluates.
func (s *Shortlink) Policy() policy.Policy {
	return policy.Policy{
		AllowedDevice:  s.AllowedDevice,
		ConnectionType: s.ConnectionType,
		AllowedCountry: s.AllowedCountry,
		AllowedISP:     s.AllowedISP,
	}
}

// HasAdvancedFilters reports whether any plan-gated restriction is set.
func (s *Shortlink) HasAdvancedFilters() bool {
	return s.AllowedDevice != "" || s.ConnectionType != "" ||
		s.AllowedCountry != "" || s.AllowedISP != ""
}

// Profile is the slice of a user account the gateway needs: the API
// credential, whether the subscription is alive, and the plan tier.
type Profile struct {
	Username         string
	APIKey           string
	Status           string
	SubscriptionType string
}

// DailyVisitCount is one day of aggregated visit traffic for a key.
type DailyVisitCount struct {
	Date    string `json:"date"`
	Total   int64  `json:"total"`
	Blocked int64  `json:"blocked"`
}

type CreateInput struct {
	Owner           string
	Plan            string
	Key             string
	URL             string
	SecondaryURL    string
	BlockStatusCode int
	AllowedDevice   string
	ConnectionType  string
	AllowedCountry  string
	AllowedISP      string
}
