package shortlinks

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Service implements the owner-facing shortlink management operations.
// The gateway itself only reads shortlinks; everything here exists for
// the dashboard and API integrations.
type Service struct {
	repo   Repository
	prober Prober
	now    func() time.Time
}

func NewService(repo Repository, prober Prober) *Service {
	return &Service{
		repo:   repo,
		prober: prober,
		now:    time.Now,
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Shortlink, error) {
	normalized, err := validateAndNormalizeURL(in.URL)
	if err != nil {
		return nil, ErrInvalidURL
	}

	secondary := ""
	if strings.TrimSpace(in.SecondaryURL) != "" {
		secondary, err = validateAndNormalizeURL(in.SecondaryURL)
		if err != nil {
			return nil, ErrInvalidURL
		}
	}

	link := &Shortlink{
		Owner:           strings.TrimSpace(in.Owner),
		Key:             strings.TrimSpace(in.Key),
		URL:             normalized,
		SecondaryURL:    secondary,
		Status:          StatusActive,
		BlockStatusCode: in.BlockStatusCode,
		AllowedDevice:   strings.TrimSpace(in.AllowedDevice),
		ConnectionType:  strings.TrimSpace(in.ConnectionType),
		AllowedCountry:  strings.ToUpper(strings.TrimSpace(in.AllowedCountry)),
		AllowedISP:      strings.TrimSpace(in.AllowedISP),
		CreatedAt:       s.now().UTC(),
		UpdatedAt:       s.now().UTC(),
	}

	// Advanced filters are a paid feature.
	if in.Plan == PlanFree && link.HasAdvancedFilters() {
		return nil, ErrPlanForbidden
	}

	// Destination liveness is precomputed here so the gateway never probes
	// on the hot path; the monitor keeps it fresh afterwards.
	link.PrimaryURLStatus = s.prober.Probe(ctx, link.URL)
	if link.SecondaryURL != "" {
		link.SecondaryURLStatus = s.prober.Probe(ctx, link.SecondaryURL)
	}

	if err := s.repo.Insert(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *Service) List(ctx context.Context, owner string) ([]Shortlink, error) {
	return s.repo.ListByOwner(ctx, owner)
}

// FindOwned fetches a shortlink and verifies it belongs to owner. A key
// owned by someone else reads as not found.
func (s *Service) FindOwned(ctx context.Context, owner, key string) (*Shortlink, error) {
	link, err := s.repo.FindByKey(ctx, strings.TrimSpace(key))
	if err != nil {
		return nil, err
	}
	if link.Owner != owner {
		return nil, ErrNotFound
	}
	return link, nil
}

func (s *Service) Delete(ctx context.Context, owner, key string) error {
	deleted, err := s.repo.DeleteByOwnerKey(ctx, owner, strings.TrimSpace(key))
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func validateAndNormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", ErrInvalidURL
	}

	u.Fragment = ""
	return u.String(), nil
}
