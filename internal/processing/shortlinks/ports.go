package shortlinks

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("shortlink not found")
	ErrKeyTaken        = errors.New("key already exists")
	ErrInvalidURL      = errors.New("invalid url")
	ErrPlanForbidden   = errors.New("plan does not allow advanced filters")
	ErrProfileNotFound = errors.New("profile not found")
)

type Repository interface {
	Insert(ctx context.Context, link *Shortlink) error
	FindByKey(ctx context.Context, key string) (*Shortlink, error)
	ListByOwner(ctx context.Context, owner string) ([]Shortlink, error)
	DeleteByOwnerKey(ctx context.Context, owner, key string) (bool, error)
	ListAll(ctx context.Context) ([]Shortlink, error)
	UpdateURLStatuses(ctx context.Context, id, primary, secondary string) error
}

type ProfileRepository interface {
	FindByAPIKey(ctx context.Context, apiKey string) (*Profile, error)
}

// Prober reports the liveness of a destination URL.
type Prober interface {
	Probe(ctx context.Context, url string) string
}
