// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a process-local token-bucket limiter with one bucket
// per caller identity (golang.org/x/time/rate). The router mounts two
// instances: a global one for every route and a stricter one in front of
// roadmap generation, where every accepted request may cost a model call.
// Idempotent replays skip both.
//
// Buckets idle for longer than the idle TTL are swept lazily while serving
// lookups, so memory stays bounded without a background goroutine. The limiter
// is cost protection, not authorization; horizontally scaled deployments need
// a shared limiter instead.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP keys buckets by user ("userID" context value, then the
// X-User-ID header) and falls back to the client IP. Keys are prefixed so the
// user and IP namespaces never collide.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get("userID"); ok {
			if s, ok := v.(string); ok && s != "" {
				return "user:" + s
			}
		}
		if s := c.GetHeader("X-User-ID"); s != "" {
			return "user:" + s
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LimiterOption customizes a RateLimiter.
type LimiterOption func(*RateLimiter)

// WithName labels the limiter in metrics and 429 bodies. Default "global".
func WithName(name string) LimiterOption {
	return func(rl *RateLimiter) {
		if name != "" {
			rl.name = name
		}
	}
}

// WithIdleTTL sets how long an unused bucket is kept. Default 10 minutes.
func WithIdleTTL(d time.Duration) LimiterOption {
	return func(rl *RateLimiter) {
		if d > 0 {
			rl.ttl = d
		}
	}
}

// RateLimiter is a per-key token-bucket limiter. Safe for concurrent use.
type RateLimiter struct {
	name  string
	rps   rate.Limit
	burst int
	keyFn keyFunc
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// NewRateLimiter builds a limiter refilling rps tokens per second into
// buckets of size burst (coerced to at least 1), keyed by keyFn.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc, opts ...LimiterOption) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	rl := &RateLimiter{
		name:     "global",
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		ttl:      10 * time.Minute,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
	for _, o := range opts {
		o(rl)
	}
	rl.lastSweep = rl.now()
	return rl
}

// Name is the limiter's metrics label.
func (rl *RateLimiter) Name() string { return rl.name }

// RPS is the refill rate in tokens per second.
func (rl *RateLimiter) RPS() float64 { return float64(rl.rps) }

// Burst is the bucket size.
func (rl *RateLimiter) Burst() int { return rl.burst }

// getVisitor returns the bucket for key, creating it if absent. Idle buckets
// are swept first, at most once per half TTL, so a stale bucket for key is
// replaced by a full one.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.ttl/2 {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// size reports the number of live buckets.
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// retryAfter is the whole number of seconds until one token refills.
func (rl *RateLimiter) retryAfter() string {
	if rl.rps <= 0 {
		return "60"
	}
	secs := int(math.Ceil(1 / float64(rl.rps)))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// IsRateBypass reports whether IdempotencyValidator marked this request as a
// replay that must not consume tokens.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler enforces the limit. Rejected requests get 429 with a Retry-After
// derived from the refill rate and a compact JSON body:
//
//	{"request_id": "...", "code": "rate_limited", "message": "rate limit exceeded", "limiter": "generate"}
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}
		if rl.getVisitor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}

		httpRateLimited.WithLabelValues(rl.name).Inc()
		c.Header("Retry-After", rl.retryAfter())
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
			"limiter":    rl.name,
		})
	}
}
