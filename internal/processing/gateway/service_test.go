package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IgorGrieder/guardiao-url/internal/events"
	"github.com/IgorGrieder/guardiao-url/internal/processing/intel"
	"github.com/IgorGrieder/guardiao-url/internal/processing/policy"
	"github.com/IgorGrieder/guardiao-url/internal/processing/shortlinks"
)

// --- Hand-written mocks ---

type mockAdmitter struct {
	admit bool
	err   error
}

func (m *mockAdmitter) Admit(_ context.Context, _ string) (bool, error) {
	return m.admit, m.err
}

type mockProfiles struct {
	profile *shortlinks.Profile
	err     error
}

func (m *mockProfiles) FindByAPIKey(_ context.Context, _ string) (*shortlinks.Profile, error) {
	return m.profile, m.err
}

type mockLinks struct {
	link *shortlinks.Shortlink
	err  error
}

func (m *mockLinks) FindByKey(_ context.Context, _ string) (*shortlinks.Shortlink, error) {
	return m.link, m.err
}

type mockAggregator struct {
	info *intel.Intelligence
	ok   bool
}

func (m *mockAggregator) Lookup(_ context.Context, ip string) (*intel.Intelligence, []intel.SourceResult, bool) {
	if m.info == nil {
		return &intel.Intelligence{IP: ip}, nil, m.ok
	}
	return m.info, nil, m.ok
}

// mockLedger signals on a channel so tests can wait for the async write.
type mockLedger struct {
	written bool
	err     error
	got     chan *VisitRecord
}

func newMockLedger(written bool) *mockLedger {
	return &mockLedger{written: written, got: make(chan *VisitRecord, 1)}
}

func (m *mockLedger) RecordIfAbsent(_ context.Context, rec *VisitRecord, _ time.Duration) (bool, error) {
	m.got <- rec
	return m.written, m.err
}

func (m *mockLedger) wait(t *testing.T) *VisitRecord {
	t.Helper()
	select {
	case rec := <-m.got:
		return rec
	case <-time.After(2 * time.Second):
		t.Fatal("visit record was never written")
		return nil
	}
}

func (m *mockLedger) expectNoWrite(t *testing.T) {
	t.Helper()
	select {
	case <-m.got:
		t.Fatal("visit record written, expected none")
	case <-time.After(100 * time.Millisecond):
	}
}

type mockPublisher struct {
	got chan events.VisitRecorded
	err error
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{got: make(chan events.VisitRecorded, 1)}
}

func (m *mockPublisher) Publish(_ context.Context, ev events.VisitRecorded) error {
	m.got <- ev
	return m.err
}

// --- Fixtures ---

func activeProfile() *shortlinks.Profile {
	return &shortlinks.Profile{
		Username:         "alice",
		APIKey:           "key-123",
		Status:           shortlinks.ProfileActive,
		SubscriptionType: "pro",
	}
}

func liveLink() *shortlinks.Shortlink {
	return &shortlinks.Shortlink{
		ID:               "id-1",
		Owner:            "alice",
		Key:              "promo",
		URL:              "https://primary.example.com",
		SecondaryURL:     "https://backup.example.com",
		Status:           shortlinks.StatusActive,
		PrimaryURLStatus: shortlinks.URLStatusLive,
	}
}

func humanIntel() *intel.Intelligence {
	return &intel.Intelligence{
		IP:          "203.0.113.7",
		CountryCode: "BR",
		Country:     "Brazil",
		ISP:         "Vivo",
	}
}

func request() VisitRequest {
	return VisitRequest{
		Key:       "promo",
		APIKey:    "key-123",
		ClientIP:  "203.0.113.7",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
	}
}

func newTestService(
	admitter *mockAdmitter,
	profiles *mockProfiles,
	links *mockLinks,
	agg *mockAggregator,
	ledger *mockLedger,
	pub EventPublisher,
	opts Options,
) *Service {
	return NewService(admitter, profiles, links, agg, ledger, pub, opts)
}

// --- Tests ---

func TestHandleAllowedVisitorRedirectsToPrimary(t *testing.T) {
	ledger := newMockLedger(true)
	svc := newTestService(
		&mockAdmitter{admit: true},
		&mockProfiles{profile: activeProfile()},
		&mockLinks{link: liveLink()},
		&mockAggregator{info: humanIntel(), ok: true},
		ledger, nil, Options{},
	)

	out, err := svc.Handle(context.Background(), request())
	if err != nil {
		t.Fatal(err)
	}
	if out.Blocked {
		t.Fatalf("blocked with reason %q, want allowed", out.Reason)
	}
	if out.RedirectURL != "https://primary.example.com" {
		t.Errorf("RedirectURL = %q, want primary", out.RedirectURL)
	}
	if out.Reason != policy.ReasonHuman {
		t.Errorf("Reason = %q, want %q", out.Reason, policy.ReasonHuman)
	}

	rec := ledger.wait(t)
	if rec.IsBlocked {
		t.Error("record marked blocked for an allowed visit")
	}
	if rec.Location.CountryCode != "BR" {
		t.Errorf("record country = %q, want BR", rec.Location.CountryCode)
	}
}

func TestHandleFallsBackToLiveSecondary(t *testing.T) {
	link := liveLink()
	link.PrimaryURLStatus = shortlinks.URLStatusDead
	link.SecondaryURLStatus = shortlinks.URLStatusLive

	svc := newTestService(
		&mockAdmitter{admit: true},
		&mockProfiles{profile: activeProfile()},
		&mockLinks{link: link},
		&mockAggregator{info: humanIntel(), ok: true},
		newMockLedger(true), nil, Options{},
	)

	out, err := svc.Handle(context.Background(), request())
	if err != nil {
		t.Fatal(err)
	}
	if out.RedirectURL != "https://backup.example.com" {
		t.Errorf("RedirectURL = %q, want secondary", out.RedirectURL)
	}
}

func TestHandleNoLiveDestination(t *testing.T) {
	link := liveLink()
	link.PrimaryURLStatus = shortlinks.URLStatusDead
	link.SecondaryURLStatus = shortlinks.URLStatusDead

	svc := newTestService(
		&mockAdmitter{admit: true},
		&mockProfiles{profile: activeProfile()},
		&mockLinks{link: link},
		&mockAggregator{info: humanIntel(), ok: true},
		newMockLedger(true), nil, Options{},
	)

	if _, err := svc.Handle(context.Background(), request()); !errors.Is(err, ErrNoValidDestination) {
		t.Fatalf("err = %v, want ErrNoValidDestination", err)
	}
}

func TestHandleRateLimited(t *testing.T) {
	svc := newTestService(
		&mockAdmitter{admit: false},
		&mockProfiles{}, &mockLinks{}, &mockAggregator{},
		newMockLedger(true), nil, Options{},
	)

	if _, err := svc.Handle(context.Background(), request()); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestHandleStoreErrorFailsClosedByDefault(t *testing.T) {
	svc := newTestService(
		&mockAdmitter{admit: false, err: errors.New("store down")},
		&mockProfiles{}, &mockLinks{}, &mockAggregator{},
		newMockLedger(true), nil, Options{},
	)

	if _, err := svc.Handle(context.Background(), request()); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited on store failure", err)
	}
}

func TestHandleStoreErrorFailOpenAdmits(t *testing.T) {
	svc := newTestService(
		&mockAdmitter{admit: false, err: errors.New("store down")},
		&mockProfiles{profile: activeProfile()},
		&mockLinks{link: liveLink()},
		&mockAggregator{info: humanIntel(), ok: true},
		newMockLedger(true), nil, Options{FailOpen: true},
	)

	if _, err := svc.Handle(context.Background(), request()); err != nil {
		t.Fatalf("unexpected error with fail-open: %v", err)
	}
}

func TestHandleCredentialFailures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*VisitRequest)
		profiles *mockProfiles
		want     error
	}{
		{
			"missing api key",
			func(r *VisitRequest) { r.APIKey = "" },
			&mockProfiles{profile: activeProfile()},
			ErrMissingAPIKey,
		},
		{
			"unknown api key",
			func(r *VisitRequest) {},
			&mockProfiles{err: shortlinks.ErrProfileNotFound},
			ErrInvalidAPIKey,
		},
		{
			"expired subscription",
			func(r *VisitRequest) {},
			&mockProfiles{profile: &shortlinks.Profile{Username: "alice", Status: shortlinks.ProfileExpired}},
			ErrSubscriptionExpired,
		},
		{
			"missing key",
			func(r *VisitRequest) { r.Key = "" },
			&mockProfiles{profile: activeProfile()},
			ErrMissingKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(
				&mockAdmitter{admit: true},
				tt.profiles,
				&mockLinks{link: liveLink()},
				&mockAggregator{info: humanIntel(), ok: true},
				newMockLedger(true), nil, Options{},
			)

			req := request()
			tt.mutate(&req)
			if _, err := svc.Handle(context.Background(), req); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHandleUnknownKeyNotFound(t *testing.T) {
	svc := newTestService(
		&mockAdmitter{admit: true},
		&mockProfiles{profile: activeProfile()},
		&mockLinks{err: shortlinks.ErrNotFound},
		&mockAggregator{info: humanIntel(), ok: true},
		newMockLedger(true), nil, Options{},
	)

	if _, err := svc.Handle(context.Background(), request()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestHandleForeignLinkNotFound(t *testing.T) {
	link := liveLink()
	link.Owner = "mallory"

	svc := newTestService(
		&mockAdmitter{admit: true},
		&mockProfiles{profile: activeProfile()},
		&mockLinks{link: link},
		&mockAggregator{info: humanIntel(), ok: true},
		newMockLedger(true), nil, Options{},
	)

	if _, err := svc.Handle(context.Background(), request()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for another owner's link", err)
	}
}

func TestHandleAllSourcesFailedNoDecisionNoRecord(t *testing.T) {
	ledger := newMockLedger(true)
	svc := newTestService(
		&mockAdmitter{admit: true},
		&mockProfiles{profile: activeProfile()},
		&mockLinks{link: liveLink()},
		&mockAggregator{ok: false},
		ledger, nil, Options{},
	)

	if _, err := svc.Handle(context.Background(), request()); !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("err = %v, want ErrVerificationFailed", err)
	}
	ledger.expectNoWrite(t)
}

func TestHandleBlockedWithExplicitStatus(t *testing.T) {
	link := liveLink()
	link.BlockStatusCode = 403

	ledger := newMockLedger(true)
	svc := newTestService(
		&mockAdmitter{admit: true},
		&mockProfiles{profile: activeProfile()},
		&mockLinks{link: link},
		&mockAggregator{info: &intel.Intelligence{IP: "203.0.113.7", Type: intel.TypeDatacenter, CountryCode: "US"}, ok: true},
		ledger, nil, Options{},
	)

	out, err := svc.Handle(context.Background(), request())
	if err != nil {
		t.Fatal(err)
	}
	if !out.Blocked {
		t.Fatal("datacenter visitor should be blocked")
	}
	if out.BlockStatus != 403 {
		t.Errorf("BlockStatus = %d, want 403", out.BlockStatus)
	}
	if out.RedirectURL != "" {
		t.Errorf("RedirectURL = %q, want empty for explicit status block", out.RedirectURL)
	}
	if out.Reason != policy.ReasonDatacenter {
		t.Errorf("Reason = %q, want %q", out.Reason, policy.ReasonDatacenter)
	}

	rec := ledger.wait(t)
	if !rec.IsBlocked || rec.BlockReason != policy.ReasonDatacenter {
		t.Errorf("record blocked=%v reason=%q, want blocked datacenter", rec.IsBlocked, rec.BlockReason)
	}
	if rec.Type != intel.TypeDatacenter {
		t.Errorf("record type = %q, want datacenter", rec.Type)
	}
}

func TestHandleBlockedWithoutStatusRedirectsToDecoy(t *testing.T) {
	svc := newTestService(
		&mockAdmitter{admit: true},
		&mockProfiles{profile: activeProfile()},
		&mockLinks{link: liveLink()},
		&mockAggregator{info: &intel.Intelligence{IP: "203.0.113.7", Type: intel.TypeVPN, ASNDescription: "amazon aws"}, ok: true},
		newMockLedger(true), nil,
		Options{DecoyURLs: []string{"https://httpbin.org/status/403"}},
	)

	out, err := svc.Handle(context.Background(), request())
	if err != nil {
		t.Fatal(err)
	}
	if !out.Blocked {
		t.Fatal("cloud-hosted visitor should be blocked")
	}
	if out.RedirectURL != "https://httpbin.org/status/403" {
		t.Errorf("RedirectURL = %q, want the configured decoy", out.RedirectURL)
	}
	if out.BlockStatus != 0 {
		t.Errorf("BlockStatus = %d, want 0 for decoy redirect", out.BlockStatus)
	}
}

func TestHandlePublishesEventOnFreshRecord(t *testing.T) {
	ledger := newMockLedger(true)
	pub := newMockPublisher()
	svc := newTestService(
		&mockAdmitter{admit: true},
		&mockProfiles{profile: activeProfile()},
		&mockLinks{link: liveLink()},
		&mockAggregator{info: humanIntel(), ok: true},
		ledger, pub, Options{},
	)

	if _, err := svc.Handle(context.Background(), request()); err != nil {
		t.Fatal(err)
	}
	ledger.wait(t)

	select {
	case ev := <-pub.got:
		if ev.Key != "promo" || ev.Blocked {
			t.Errorf("event = %+v, want allowed visit on promo", ev)
		}
		if ev.EventID == "" {
			t.Error("event is missing an id")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event published for a fresh record")
	}
}

func TestHandleDedupedRecordSkipsEvent(t *testing.T) {
	ledger := newMockLedger(false)
	pub := newMockPublisher()
	svc := newTestService(
		&mockAdmitter{admit: true},
		&mockProfiles{profile: activeProfile()},
		&mockLinks{link: liveLink()},
		&mockAggregator{info: humanIntel(), ok: true},
		ledger, pub, Options{},
	)

	if _, err := svc.Handle(context.Background(), request()); err != nil {
		t.Fatal(err)
	}
	ledger.wait(t)

	select {
	case ev := <-pub.got:
		t.Fatalf("event %+v published for a deduped visit", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHandleRecordsUpstreamBotFlag(t *testing.T) {
	t.Run("country-blocked human is not marked as a bot", func(t *testing.T) {
		link := liveLink()
		link.AllowedCountry = "US"

		ledger := newMockLedger(true)
		svc := newTestService(
			&mockAdmitter{admit: true},
			&mockProfiles{profile: activeProfile()},
			&mockLinks{link: link},
			&mockAggregator{info: humanIntel(), ok: true},
			ledger, nil, Options{},
		)

		out, err := svc.Handle(context.Background(), request())
		if err != nil {
			t.Fatal(err)
		}
		if !out.Blocked || out.Reason != policy.ReasonCountry {
			t.Fatalf("outcome = %+v, want country block", out)
		}

		rec := ledger.wait(t)
		if !rec.IsBlocked {
			t.Error("record not marked blocked")
		}
		if rec.IsBot {
			t.Error("IsBot = true for a blocked human, want the upstream flag (false)")
		}
	})

	t.Run("allowlisted upstream bot keeps its flag", func(t *testing.T) {
		link := liveLink()
		link.AllowedISP = "amazon"

		ledger := newMockLedger(true)
		svc := newTestService(
			&mockAdmitter{admit: true},
			&mockProfiles{profile: activeProfile()},
			&mockLinks{link: link},
			&mockAggregator{info: &intel.Intelligence{
				IP:             "203.0.113.7",
				BotFlag:        true,
				ASNDescription: "Amazon AWS",
				CountryCode:    "US",
			}, ok: true},
			ledger, nil, Options{},
		)

		out, err := svc.Handle(context.Background(), request())
		if err != nil {
			t.Fatal(err)
		}
		if out.Blocked {
			t.Fatalf("blocked with reason %q, want allowed via ISP allowlist", out.Reason)
		}

		rec := ledger.wait(t)
		if rec.IsBlocked {
			t.Error("record marked blocked for an allowed visit")
		}
		if !rec.IsBot {
			t.Error("IsBot = false for an upstream-flagged bot, want true")
		}
	})
}

func TestHandlePublishFailureDoesNotAffectOutcome(t *testing.T) {
	ledger := newMockLedger(true)
	pub := newMockPublisher()
	pub.err = errors.New("broker down")
	svc := newTestService(
		&mockAdmitter{admit: true},
		&mockProfiles{profile: activeProfile()},
		&mockLinks{link: liveLink()},
		&mockAggregator{info: humanIntel(), ok: true},
		ledger, pub, Options{},
	)

	out, err := svc.Handle(context.Background(), request())
	if err != nil {
		t.Fatal(err)
	}
	if out.RedirectURL != "https://primary.example.com" {
		t.Errorf("RedirectURL = %q, want primary despite publish failure", out.RedirectURL)
	}
	ledger.wait(t)
	<-pub.got
}

func TestHandleLedgerFailureDoesNotAffectOutcome(t *testing.T) {
	ledger := newMockLedger(false)
	ledger.err = errors.New("ledger down")
	svc := newTestService(
		&mockAdmitter{admit: true},
		&mockProfiles{profile: activeProfile()},
		&mockLinks{link: liveLink()},
		&mockAggregator{info: humanIntel(), ok: true},
		ledger, nil, Options{},
	)

	out, err := svc.Handle(context.Background(), request())
	if err != nil {
		t.Fatal(err)
	}
	if out.RedirectURL != "https://primary.example.com" {
		t.Errorf("RedirectURL = %q, want primary despite ledger failure", out.RedirectURL)
	}
	ledger.wait(t)
}
