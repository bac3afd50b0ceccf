// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements an in-memory token-bucket rate limiter with one
// bucket per caller. Authenticated callers (an auth gate ran earlier in the
// chain) are keyed by user id, everybody else by client IP. Idle buckets are
// evicted opportunistically to bound memory.
//
// The limiter is process-local. Rejections are reported as
// apperror.TooManyRequests through ErrorHandler, with Retry-After: 1.
package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/rescue-api/internal/apperror"
)

// KeyFunc selects the bucket a request is charged to.
type KeyFunc func(*gin.Context) string

// KeyByUserOrIP keys by "user:<id>" when the caller is authenticated and by
// "ip:<addr>" otherwise.
func KeyByUserOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if uid := UserID(c); uid != "" {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token-bucket limiter. It is safe for concurrent
// use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn KeyFunc

	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	lookups  uint64
	now      func() time.Time
}

// gcEvery is the number of lookups between sweeps of idle buckets.
const gcEvery = 5000

// NewRateLimiter returns a limiter refilling rps tokens per second with the
// given burst (coerced to at least 1). A nil keyFn uses KeyByUserOrIP.
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByUserOrIP()
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
		now:      time.Now,
	}
}

// limiterFor returns the bucket for key, creating it on first use. Idle
// buckets are swept before the lookup so a stale entry can be evicted even
// when it is the one requested.
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= gcEvery {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Handler enforces the limit. Requests marked as idempotent replays are not
// charged.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsReplay(c) || rl.limiterFor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		Abort(c, apperror.TooManyRequests())
	}
}
