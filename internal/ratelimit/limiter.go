// Package ratelimit applies a token bucket per client key.
package ratelimit

import (
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultIdleTTL = 10 * time.Minute
	sweepEvery     = 512
)

// Result describes one Allow decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter keeps a token bucket per key and evicts idle entries.
type Limiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu    sync.Mutex
	byKey map[string]*bucket
	hits  uint64
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New returns nil when rps or burst is not positive; a nil Limiter allows everything.
func New(rps float64, burst int, idleTTL time.Duration) *Limiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	return &Limiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		byKey:   make(map[string]*bucket),
	}
}

// Allow consumes one token for key at now. Empty keys are not limited.
func (l *Limiter) Allow(key string, now time.Time) Result {
	if l == nil {
		return Result{Allowed: true}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Result{Allowed: true, Limit: l.burst, Remaining: l.burst}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byKey[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = b
	}
	b.lastSeen = now

	res := Result{Limit: l.burst}
	res.Allowed = b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)
	res.Remaining = max(0, int(math.Floor(tokens)))
	if !res.Allowed {
		missing := 1 - tokens
		res.RetryAfter = time.Duration(missing / float64(l.limit) * float64(time.Second))
	}

	l.hits++
	if l.hits%sweepEvery == 0 {
		l.sweep(now)
	}
	return res
}

// Len reports tracked keys.
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}

func (l *Limiter) sweep(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for k, b := range l.byKey {
		if b.lastSeen.Before(cutoff) {
			delete(l.byKey, k)
		}
	}
}
