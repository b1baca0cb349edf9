package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/IgorGrieder/guardiao-url/internal/infrastructure/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// FixedWindowAdmitter enforces a per-identity request budget on a shared
// Redis counter, so multiple gateway nodes see the same budget. The key
// embeds the window bucket: INCR on a fresh bucket starts at 1, which is
// the atomic reset on rollover.
type FixedWindowAdmitter struct {
	client *redis.Client
	prefix string
	window time.Duration
	limit  int64
	// failOpen controls the disposition when Redis is unreachable.
	// False (the default) fails closed: an unreachable counter store on a
	// security gateway must not become an open door.
	failOpen bool
	now      func() time.Time
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func NewFixedWindowAdmitter(cfg Config, prefix string, window time.Duration, limit int, failOpen bool) (*FixedWindowAdmitter, error) {
	if prefix == "" {
		prefix = "rate"
	}
	if window <= 0 {
		window = time.Minute
	}
	if limit <= 0 {
		limit = 30
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &FixedWindowAdmitter{
		client:   client,
		prefix:   prefix,
		window:   window,
		limit:    int64(limit),
		failOpen: failOpen,
		now:      time.Now,
	}, nil
}

func (a *FixedWindowAdmitter) Close() error { return a.client.Close() }

func (a *FixedWindowAdmitter) Admit(ctx context.Context, identity string) (bool, error) {
	if identity == "" {
		identity = "unknown"
	}

	windowSeconds := int64(a.window.Seconds())
	bucket := a.now().UTC().Unix() / windowSeconds
	key := fmt.Sprintf("%s:%s:%d", a.prefix, identity, bucket)

	pipe := a.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	// TTL is cleanup only; the bucket in the key is what fixes the window.
	pipe.Expire(ctx, key, time.Duration(windowSeconds*2)*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("rate limit store unreachable",
			zap.Bool("fail_open", a.failOpen),
			zap.Error(err),
		)
		return a.failOpen, err
	}

	return incr.Val() <= a.limit, nil
}
