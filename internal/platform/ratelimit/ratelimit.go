// Package ratelimit decides whether a client key may make another request.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is consulted once per request. An error means the backing store
// could not answer; callers decide whether to fail open.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type visitor struct {
	limiter *rate.Limiter
	seenAt  time.Time
}

// Memory is a per-key token bucket kept in process memory. Idle keys are
// pruned once the table grows past maxEntries.
type Memory struct {
	mu         sync.Mutex
	visitors   map[string]*visitor
	limit      rate.Limit
	burst      int
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewMemory(rps, burst int, ttl time.Duration) *Memory {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = rps
	}
	if ttl <= 0 {
		ttl = time.Minute
	}

	return &Memory{
		visitors:   make(map[string]*visitor),
		limit:      rate.Limit(rps),
		burst:      burst,
		ttl:        ttl,
		maxEntries: 50_000,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.visitors) > m.maxEntries {
		m.pruneExpired(now)
	}

	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.visitors[key] = v
	}
	v.seenAt = now
	return v.limiter.AllowN(now, 1), nil
}

func (m *Memory) pruneExpired(now time.Time) {
	for key, v := range m.visitors {
		if now.Sub(v.seenAt) > m.ttl {
			delete(m.visitors, key)
		}
	}
}

func (m *Memory) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visitors)
}
