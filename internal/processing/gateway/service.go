package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/IgorGrieder/guardiao-url/internal/events"
	"github.com/IgorGrieder/guardiao-url/internal/infrastructure/logger"
	"github.com/IgorGrieder/guardiao-url/internal/processing/intel"
	"github.com/IgorGrieder/guardiao-url/internal/processing/policy"
	"github.com/IgorGrieder/guardiao-url/internal/processing/shortlinks"
	"github.com/IgorGrieder/guardiao-url/internal/processing/useragent"
	"github.com/IgorGrieder/guardiao-url/internal/ratelimit"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var visitsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gateway_visits_total",
		Help: "Visit dispositions by outcome",
	},
	[]string{"outcome"},
)

const recordTimeout = 5 * time.Second

// Options tune per-deployment gateway behavior.
type Options struct {
	// FailOpen admits traffic when the rate-limit store is unreachable.
	// Defaults to false: an unreachable store rejects, because this
	// service exists to keep hostile traffic out.
	FailOpen    bool
	DedupWindow time.Duration
	// DecoyURLs are the candidate redirect targets for blocked visitors.
	// One is picked at startup and used for the process lifetime.
	DecoyURLs []string
}

// Service runs the visit flow: admission, credential checks, visitor
// classification, policy evaluation and the final disposition.
type Service struct {
	admitter    ratelimit.Admitter
	profiles    ProfileFinder
	links       ShortlinkFinder
	aggregator  Aggregator
	ledger      VisitLedger
	publisher   EventPublisher
	failOpen    bool
	dedupWindow time.Duration
	decoyURL    string
	now         func() time.Time
}

func NewService(
	admitter ratelimit.Admitter,
	profiles ProfileFinder,
	links ShortlinkFinder,
	aggregator Aggregator,
	ledger VisitLedger,
	publisher EventPublisher,
	opts Options,
) *Service {
	if opts.DedupWindow <= 0 {
		opts.DedupWindow = time.Hour
	}
	decoy := "https://www.google.com/robots.txt"
	if len(opts.DecoyURLs) > 0 {
		decoy = opts.DecoyURLs[rand.Intn(len(opts.DecoyURLs))]
	}
	return &Service{
		admitter:    admitter,
		profiles:    profiles,
		links:       links,
		aggregator:  aggregator,
		ledger:      ledger,
		publisher:   publisher,
		failOpen:    opts.FailOpen,
		dedupWindow: opts.DedupWindow,
		decoyURL:    decoy,
		now:         time.Now,
	}
}

// Handle runs one visit through the full flow. Sentinel errors cover the
// admission and resolution stages; a policy block is a successful Outcome,
// not an error.
func (s *Service) Handle(ctx context.Context, req VisitRequest) (*Outcome, error) {
	admitted, err := s.admitter.Admit(ctx, req.ClientIP)
	if err != nil {
		logger.Error("rate limit store unreachable",
			zap.String("ip", req.ClientIP),
			zap.Bool("failOpen", s.failOpen),
			zap.Error(err),
		)
		admitted = s.failOpen
	}
	if !admitted {
		visitsTotal.WithLabelValues("rate_limited").Inc()
		return nil, ErrRateLimited
	}

	if req.APIKey == "" {
		visitsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrMissingAPIKey
	}
	profile, err := s.profiles.FindByAPIKey(ctx, req.APIKey)
	if err != nil {
		visitsTotal.WithLabelValues("rejected").Inc()
		if errors.Is(err, shortlinks.ErrProfileNotFound) {
			return nil, ErrInvalidAPIKey
		}
		return nil, fmt.Errorf("profile lookup: %w", err)
	}
	if profile.Status != shortlinks.ProfileActive {
		visitsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrSubscriptionExpired
	}

	if req.Key == "" {
		visitsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrMissingKey
	}
	link, err := s.links.FindByKey(ctx, req.Key)
	if err != nil {
		visitsTotal.WithLabelValues("rejected").Inc()
		if errors.Is(err, shortlinks.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("shortlink lookup: %w", err)
	}
	if link.Owner != profile.Username {
		// A valid credential does not unlock another account's links.
		visitsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrNotFound
	}

	classification := useragent.Classify(req.UserAgent)
	info, _, ok := s.aggregator.Lookup(ctx, req.ClientIP)
	if !ok {
		// Indeterminate visitor: no decision is made and nothing is logged.
		visitsTotal.WithLabelValues("verification_failed").Inc()
		return nil, ErrVerificationFailed
	}

	decision := policy.Decide(link.Policy(), policy.Input{
		ISP:            info.ASNDescription,
		BotISP:         intel.BotInfrastructure(info.ASNDescription, info.BotFlag),
		CountryCode:    info.CountryCode,
		ConnectionType: info.Type,
		DeviceType:     classification.DeviceType,
		MatchedBot:     classification.MatchedBot,
	})

	s.recordAsync(req, link, info, classification, decision)

	if decision.Blocked {
		visitsTotal.WithLabelValues("blocked").Inc()
		logger.Info("visitor blocked",
			zap.String("key", link.Key),
			zap.String("ip", info.IP),
			zap.String("reason", decision.Reason),
		)
		if link.BlockStatusCode == 403 || link.BlockStatusCode == 404 {
			return &Outcome{Blocked: true, Reason: decision.Reason, BlockStatus: link.BlockStatusCode}, nil
		}
		return &Outcome{Blocked: true, Reason: decision.Reason, RedirectURL: s.decoyURL}, nil
	}

	dest := pickDestination(link)
	if dest == "" {
		visitsTotal.WithLabelValues("no_destination").Inc()
		return nil, ErrNoValidDestination
	}
	visitsTotal.WithLabelValues("allowed").Inc()
	return &Outcome{Reason: decision.Reason, RedirectURL: dest}, nil
}

// pickDestination returns the first destination whose last probe was LIVE,
// primary before secondary, or "" when neither is serving.
func pickDestination(link *shortlinks.Shortlink) string {
	if link.PrimaryURLStatus == shortlinks.URLStatusLive {
		return link.URL
	}
	if link.SecondaryURL != "" && link.SecondaryURLStatus == shortlinks.URLStatusLive {
		return link.SecondaryURL
	}
	return ""
}

// recordAsync writes the visit record and emits the analytics event off
// the request path. The visitor's redirect never waits on either store,
// and failures are logged and swallowed.
func (s *Service) recordAsync(
	req VisitRequest,
	link *shortlinks.Shortlink,
	info *intel.Intelligence,
	classification useragent.Classification,
	decision policy.Decision,
) {
	rec := &VisitRecord{
		ShortlinkKey: link.Key,
		ShortlinkID:  link.ID,
		VisitedAt:    s.now().UTC(),
		IP:           info.IP,
		UserAgent:    req.UserAgent,
		Device:       classification.DeviceType,
		Location: Location{
			Country:     info.Country,
			CountryCode: info.CountryCode,
			Region:      info.Region,
			City:        info.City,
			Latitude:    info.Latitude,
			Longitude:   info.Longitude,
			ISP:         info.ISP,
			FlagImg:     info.FlagImg,
		},
		Timezone: info.Timezone,
		Type:     visitorType(info, classification),
		// IsBot is the upstream reputation verdict, independent of the
		// policy outcome: a blocked human stays IsBot=false and an
		// allowlisted bot stays IsBot=true.
		IsBot:       info.BotFlag,
		IsBlocked:   decision.Blocked,
		BlockReason: decision.Reason,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		written, err := s.ledger.RecordIfAbsent(ctx, rec, s.dedupWindow)
		if err != nil {
			logger.Error("failed to record visit",
				zap.String("key", rec.ShortlinkKey),
				zap.String("ip", rec.IP),
				zap.Error(err),
			)
			return
		}
		if !written || s.publisher == nil {
			return
		}

		ev := events.VisitRecorded{
			EventID:     uuid.NewString(),
			Key:         rec.ShortlinkKey,
			IP:          rec.IP,
			Device:      rec.Device,
			CountryCode: rec.Location.CountryCode,
			Blocked:     rec.IsBlocked,
			Reason:      rec.BlockReason,
			OccurredAt:  rec.VisitedAt.Format(time.RFC3339),
		}
		if err := s.publisher.Publish(ctx, ev); err != nil {
			logger.Error("failed to publish visit event",
				zap.String("key", ev.Key),
				zap.Error(err),
			)
		}
	}()
}

// visitorType is what the dashboard shows in the "type" column: the
// connection class when a source reported one, else the matched UA
// signature, else unknown.
func visitorType(info *intel.Intelligence, c useragent.Classification) string {
	if info.Type != "" {
		return info.Type
	}
	if c.MatchedBot != "" {
		return c.MatchedBot
	}
	return "unknown"
}
