package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a sliding-window request limiter keyed by client. Timestamps
// outside the window are dropped on every check, and a background sweep
// removes clients that have gone quiet so the map does not grow with every
// address ever seen.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	maxReqs int
	window  time.Duration
	sweep   *time.Ticker
	done    chan struct{}
}

type bucket struct {
	requests []time.Time
	lastSeen time.Time
}

// NewLimiter creates a limiter allowing maxRequests per window per client.
func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	limiter := &Limiter{
		buckets: make(map[string]*bucket),
		maxReqs: maxRequests,
		window:  window,
		sweep:   time.NewTicker(5 * time.Minute),
		done:    make(chan struct{}),
	}
	go limiter.sweepStaleBuckets()
	return limiter
}

// Allow records a request for the client and reports whether it fits inside
// the window. An empty client key is never limited.
func (l *Limiter) Allow(client string) bool {
	if client == "" {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, exists := l.buckets[client]
	if !exists {
		b = &bucket{}
		l.buckets[client] = b
	}

	cutoff := now.Add(-l.window)
	kept := b.requests[:0]
	for _, t := range b.requests {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.requests = kept
	b.lastSeen = now

	if len(b.requests) >= l.maxReqs {
		return false
	}

	b.requests = append(b.requests, now)
	return true
}

func (l *Limiter) sweepStaleBuckets() {
	for {
		select {
		case <-l.done:
			return
		case <-l.sweep.C:
			l.mu.Lock()
			stale := time.Now().Add(-15 * time.Minute)
			for client, b := range l.buckets {
				if b.lastSeen.Before(stale) {
					delete(l.buckets, client)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Stop halts the background sweep.
func (l *Limiter) Stop() {
	l.sweep.Stop()
	close(l.done)
}
