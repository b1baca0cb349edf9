package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Admitter decides whether a client identity may proceed with a visit.
// It is injected into the gateway so the backing store can be swapped
// between in-process and networked implementations without touching the
// visit flow.
type Admitter interface {
	Admit(ctx context.Context, identity string) (bool, error)
}

type windowCount struct {
	bucket int64
	count  int64
}

// MemoryFixedWindow is a process-local fixed-window counter. Counts reset
// atomically on window rollover: a request arriving exactly at rollover
// lands in the new window, never both.
type MemoryFixedWindow struct {
	mu     sync.Mutex
	window time.Duration
	limit  int64
	counts map[string]*windowCount
	now    func() time.Time
}

func NewMemoryFixedWindow(window time.Duration, limit int) *MemoryFixedWindow {
	if window <= 0 {
		window = time.Minute
	}
	if limit <= 0 {
		limit = 30
	}
	return &MemoryFixedWindow{
		window: window,
		limit:  int64(limit),
		counts: make(map[string]*windowCount),
		now:    time.Now,
	}
}

func (m *MemoryFixedWindow) Admit(_ context.Context, identity string) (bool, error) {
	if identity == "" {
		identity = "unknown"
	}

	bucket := m.now().UnixNano() / int64(m.window)

	m.mu.Lock()
	defer m.mu.Unlock()

	wc, ok := m.counts[identity]
	if !ok || wc.bucket != bucket {
		m.counts[identity] = &windowCount{bucket: bucket, count: 1}
		return true, nil
	}

	wc.count++
	return wc.count <= m.limit, nil
}

// Janitor periodically drops counters from past windows so idle
// identities do not accumulate. Blocks until ctx is done.
func (m *MemoryFixedWindow) Janitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bucket := m.now().UnixNano() / int64(m.window)
			m.mu.Lock()
			for id, wc := range m.counts {
				if wc.bucket < bucket {
					delete(m.counts, id)
				}
			}
			m.mu.Unlock()
		}
	}
}
