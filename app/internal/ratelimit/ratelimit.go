package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket rate limiter keyed by caller
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	perMinute float64
	burst     float64
	now       func() time.Time

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// Config for creating a new rate limiter
type Config struct {
	PerMinute int // tokens refilled per minute
	Burst     int // bucket size; defaults to PerMinute
}

// New creates a limiter and starts its stale bucket cleanup
func New(cfg Config) *Limiter {
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.PerMinute
	}

	l := &Limiter{
		buckets:     make(map[string]*bucket),
		perMinute:   float64(cfg.PerMinute),
		burst:       float64(cfg.Burst),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	l.cleanupTicker = time.NewTicker(5 * time.Minute)
	go l.cleanup()

	return l
}

// cleanup drops buckets idle for 10 minutes
func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.mu.Lock()
			now := l.now()
			for key, b := range l.buckets {
				if now.Sub(b.lastCheck) > 10*time.Minute {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		case <-l.stopCleanup:
			l.cleanupTicker.Stop()
			return
		}
	}
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

// refill tops up b for the time since its last check. Callers hold l.mu.
func (l *Limiter) refill(b *bucket, now time.Time) float64 {
	tokens := b.tokens + now.Sub(b.lastCheck).Minutes()*l.perMinute
	if tokens > l.burst {
		tokens = l.burst
	}
	return tokens
}

// Allow takes one token for key, reporting false when the bucket is empty
func (l *Limiter) Allow(key string) bool {
	return l.AllowN(key, 1)
}

// AllowN takes n tokens for key if available
func (l *Limiter) AllowN(key string, n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{tokens: l.burst, lastCheck: now}
		l.buckets[key] = b
	}

	b.tokens = l.refill(b, now)
	b.lastCheck = now
	if b.tokens >= float64(n) {
		b.tokens -= float64(n)
		return true
	}
	return false
}

// Remaining returns the whole tokens left for key
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	if !exists {
		return int(l.burst)
	}
	return int(l.refill(b, l.now()))
}

// RetryAfter returns how long until key has one token again
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	if !exists || l.perMinute <= 0 {
		return 0
	}
	missing := 1 - l.refill(b, l.now())
	if missing <= 0 {
		return 0
	}
	return time.Duration(missing * float64(time.Minute) / l.perMinute)
}

// Reset forgets the bucket of key
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}
