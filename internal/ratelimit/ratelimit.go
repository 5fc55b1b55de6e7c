// Package ratelimit provides per-key request rate limiting. The limiter
// itself is a collaborator concern for the security core — the core only
// standardizes the 429 response shape — but every deployment of this service
// runs with it enabled.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is the rate limiting interface. The abstraction allows swapping
// the in-memory implementation for a distributed one without touching the
// middleware.
type Limiter interface {
	// Allow reports whether a request from the given key (composite IP key,
	// user ID, etc.) is allowed.
	Allow(ctx context.Context, key string) bool
}

// InMemory implements per-key token buckets. Suitable for single-instance
// deployments; buckets idle past maxAge are evicted by a background sweep.
type InMemory struct {
	rate  rate.Limit
	burst int

	limiters   sync.Map // map[string]*rate.Limiter
	lastAccess sync.Map // map[string]time.Time

	sweepInterval time.Duration
	maxAge        time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

// NewInMemory creates an in-memory limiter allowing rps requests per second
// with the given burst per key.
func NewInMemory(rps float64, burst int) *InMemory {
	l := &InMemory{
		rate:          rate.Limit(rps),
		burst:         burst,
		sweepInterval: 5 * time.Minute,
		maxAge:        10 * time.Minute,
		stop:          make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Allow reports whether one request for key is within the limit.
func (l *InMemory) Allow(_ context.Context, key string) bool {
	limiter := l.bucket(key)
	l.lastAccess.Store(key, time.Now().UTC())
	return limiter.Allow()
}

// bucket gets or creates the token bucket for key. A racing double-create
// is resolved by LoadOrStore; the loser's bucket is discarded.
func (l *InMemory) bucket(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	actual, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	return actual.(*rate.Limiter)
}

func (l *InMemory) sweep() {
	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.stop:
			return
		}
	}
}

func (l *InMemory) evictIdle() {
	cutoff := time.Now().UTC().Add(-l.maxAge)
	var stale []string
	l.lastAccess.Range(func(key, value any) bool {
		if value.(time.Time).Before(cutoff) {
			stale = append(stale, key.(string))
		}
		return true
	})
	for _, key := range stale {
		l.limiters.Delete(key)
		l.lastAccess.Delete(key)
	}
}

// Stop terminates the background sweep.
func (l *InMemory) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
