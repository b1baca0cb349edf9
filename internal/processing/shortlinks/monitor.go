package shortlinks

import (
	"context"
	"time"

	"github.com/IgorGrieder/guardiao-url/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Monitor periodically re-probes every destination URL and persists
// status changes, so the gateway's redirect choice always works from a
// fresh LIVE/DEAD verdict without probing on the hot path.
type Monitor struct {
	repo     Repository
	prober   Prober
	interval time.Duration
}

func NewMonitor(repo Repository, prober Prober, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Monitor{
		repo:     repo,
		prober:   prober,
		interval: interval,
	}
}

// Start blocks until ctx is done. It probes once immediately, then on
// every tick.
func (m *Monitor) Start(ctx context.Context) {
	logger.Info("destination monitor started", zap.Duration("interval", m.interval))

	m.sweep(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("destination monitor stopped")
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Monitor) sweep(ctx context.Context) {
	links, err := m.repo.ListAll(ctx)
	if err != nil {
		logger.Error("monitor failed to list shortlinks", zap.Error(err))
		return
	}

	for _, link := range links {
		if ctx.Err() != nil {
			return
		}

		primary := m.prober.Probe(ctx, link.URL)
		secondary := link.SecondaryURLStatus
		if link.SecondaryURL != "" {
			secondary = m.prober.Probe(ctx, link.SecondaryURL)
		}

		if primary == link.PrimaryURLStatus && secondary == link.SecondaryURLStatus {
			continue
		}

		if err := m.repo.UpdateURLStatuses(ctx, link.ID, primary, secondary); err != nil {
			logger.Error("monitor failed to update url statuses",
				zap.String("key", link.Key),
				zap.Error(err),
			)
			continue
		}
		logger.Info("destination status changed",
			zap.String("key", link.Key),
			zap.String("primary", primary),
			zap.String("secondary", secondary),
		)
	}
}
