package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/IgorGrieder/guardiao-url/internal/events"
	"github.com/IgorGrieder/guardiao-url/internal/processing/intel"
	"github.com/IgorGrieder/guardiao-url/internal/processing/shortlinks"
)

// Admission and resolution failures, in the order the visit flow can
// produce them. Policy blocks are not errors; they are first-class
// outcomes with a reason.
var (
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrMissingAPIKey       = errors.New("missing api key")
	ErrInvalidAPIKey       = errors.New("invalid api key")
	ErrSubscriptionExpired = errors.New("subscription expired")
	ErrMissingKey          = errors.New("missing key")
	ErrNotFound            = errors.New("shortlink not found")
	ErrVerificationFailed  = errors.New("unable to verify ip")
	ErrNoValidDestination  = errors.New("no valid destination")
)

type ShortlinkFinder interface {
	FindByKey(ctx context.Context, key string) (*shortlinks.Shortlink, error)
}

type ProfileFinder interface {
	FindByAPIKey(ctx context.Context, apiKey string) (*shortlinks.Profile, error)
}

// VisitLedger records decisions best-effort. RecordIfAbsent writes rec
// only when no record for the same (key, ip) exists within the trailing
// window, and reports whether a write happened.
type VisitLedger interface {
	RecordIfAbsent(ctx context.Context, rec *VisitRecord, window time.Duration) (bool, error)
}

// Aggregator is the IP intelligence lookup the gateway fans out to.
type Aggregator interface {
	Lookup(ctx context.Context, ip string) (*intel.Intelligence, []intel.SourceResult, bool)
}

// EventPublisher pushes visit events into the analytics pipeline.
type EventPublisher interface {
	Publish(ctx context.Context, ev events.VisitRecorded) error
}
