package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a sliding-window request limiter keyed by an arbitrary
// identifier (user id, client address). Login attempts use the strict path.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	maxReqs int
	window  time.Duration
	cleanup *time.Ticker
}

type bucket struct {
	requests []time.Time
	lastSeen time.Time
}

func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		maxReqs: maxRequests,
		window:  window,
		cleanup: time.NewTicker(5 * time.Minute),
	}
	go l.sweep()
	return l
}

// Allow records a request for the identifier and reports whether it fits
// inside the default window. An empty identifier is never limited.
func (l *Limiter) Allow(id string) bool {
	if id == "" {
		return true
	}
	return l.allow(id, l.maxReqs, l.window)
}

// AllowStrict enforces a tighter limit for sensitive endpoints, tracked
// separately from the default buckets.
func (l *Limiter) AllowStrict(id string, maxReqs int, window time.Duration) bool {
	return l.allow("strict:"+id, maxReqs, window)
}

func (l *Limiter) allow(key string, maxReqs int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{}
		l.buckets[key] = b
	}

	cutoff := now.Add(-window)
	kept := b.requests[:0]
	for _, t := range b.requests {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.requests = kept
	b.lastSeen = now

	if len(b.requests) >= maxReqs {
		return false
	}
	b.requests = append(b.requests, now)
	return true
}

func (l *Limiter) sweep() {
	for range l.cleanup.C {
		l.mu.Lock()
		stale := time.Now().Add(-15 * time.Minute)
		for key, b := range l.buckets {
			if b.lastSeen.Before(stale) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

func (l *Limiter) Stop() {
	l.cleanup.Stop()
}
