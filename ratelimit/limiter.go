package ratelimit

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-autohub/core"
)

const (
	// DefaultPerMinute is the sustained admission rate for a single key.
	DefaultPerMinute = 60

	idleTTL    = 15 * time.Minute
	sweepEvery = 2 * time.Minute
)

// Key identifies a token bucket: one bucket per caller per route.
type Key struct {
	Client string
	Route  string
}

func NewKey(client, route string) Key {
	return Key{
		Client: strings.TrimSpace(client),
		Route:  strings.TrimSpace(route),
	}
}

type entry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Limiter admits requests through per-key token buckets. Buckets refill at
// perMinute/60 tokens per second and hold at most burst tokens; a fresh
// bucket starts full, so short bursts up to burst are admitted immediately.
// Idle buckets are swept lazily so the map stays bounded.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[Key]*entry
	rate      rate.Limit
	burst     int
	perMinute int
	lastSweep time.Time

	// Now is injectable for tests.
	Now func() time.Time
}

// New builds a Limiter admitting perMinute sustained requests per key with
// the given burst capacity. Burst is clamped to at least perMinute.
func New(perMinute, burst int) *Limiter {
	if perMinute <= 0 {
		perMinute = DefaultPerMinute
	}
	if burst < perMinute {
		burst = perMinute
	}
	return &Limiter{
		buckets:   make(map[Key]*entry),
		rate:      rate.Limit(float64(perMinute) / 60.0),
		burst:     burst,
		perMinute: perMinute,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// Admit reports whether the request identified by key may proceed, consuming
// one token when it does.
func (l *Limiter) Admit(key Key) bool {
	if l == nil {
		return true
	}
	now := l.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepLocked(now)

	bucket, ok := l.buckets[key]
	if !ok {
		bucket = &entry{lim: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[key] = bucket
	}
	bucket.lastSeen = now
	return bucket.lim.AllowN(now, 1)
}

// PerMinute exposes the configured sustained rate for error envelopes.
func (l *Limiter) PerMinute() int {
	if l == nil {
		return DefaultPerMinute
	}
	return l.perMinute
}

// Len reports the number of live buckets. Used by tests and diagnostics.
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < sweepEvery {
		return
	}
	l.lastSweep = now
	for key, bucket := range l.buckets {
		if now.Sub(bucket.lastSeen) > idleTTL {
			delete(l.buckets, key)
		}
	}
}

// RejectionError builds the classified error returned to throttled callers.
func RejectionError(perMinute int) error {
	return goerrors.New(
		fmt.Sprintf("Rate limit exceeded. Max %d requests per minute.", perMinute),
		goerrors.CategoryRateLimit,
	).
		WithCode(http.StatusTooManyRequests).
		WithTextCode(core.ErrorCodeRateLimited).
		WithMetadata(map[string]any{"limit_per_minute": perMinute})
}
