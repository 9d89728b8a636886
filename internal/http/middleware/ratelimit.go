// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements an in-memory token-bucket rate limiter with one
// bucket per principal (or client IP for anonymous traffic). Buckets live in
// a size-bounded expiring LRU so idle identities are forgotten.
//
// The limiter is process-local; it protects a single instance and is not an
// authorization mechanism.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// KeyFunc selects the identity a rate-limit bucket is keyed by.
type KeyFunc func(*gin.Context) string

// KeyByUserOrIP prefers the authenticated principal and falls back to the
// client IP. Keys are prefixed so the namespaces never collide.
func KeyByUserOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if uid := UserIDFrom(c); uid != "" {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

// RateLimiterOptions bounds the bucket cache.
type RateLimiterOptions struct {
	// MaxKeys caps tracked identities; defaults to 10000.
	MaxKeys int
	// IdleTTL forgets a bucket this long after it was created or last
	// refreshed; defaults to 10 minutes.
	IdleTTL time.Duration
}

// RateLimiter is a per-key token-bucket limiter, safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn KeyFunc

	mu      sync.Mutex
	buckets *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter builds a limiter refilling rps tokens per second up to
// burst (values <= 0 become 1), keyed by keyFn.
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc, opts ...RateLimiterOptions) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	o := RateLimiterOptions{MaxKeys: 10000, IdleTTL: 10 * time.Minute}
	if len(opts) > 0 {
		if opts[0].MaxKeys > 0 {
			o.MaxKeys = opts[0].MaxKeys
		}
		if opts[0].IdleTTL > 0 {
			o.IdleTTL = opts[0].IdleTTL
		}
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: expirable.NewLRU[string, *rate.Limiter](o.MaxKeys, nil, o.IdleTTL),
	}
}

// limiter returns the bucket for key, creating it when absent. Re-adding an
// existing bucket refreshes its TTL.
func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	lim, ok := rl.buckets.Get(key)
	if !ok {
		lim = rate.NewLimiter(rl.rps, rl.burst)
	}
	rl.buckets.Add(key, lim)
	return lim
}

// IsRateBypass reports whether IdempotencyValidator marked this request as a
// replay that should not consume tokens.
func IsRateBypass(c *gin.Context) bool {
	return c.GetBool(ctxKeyRateBypass)
}

// Handler returns the limiting middleware. Rejected requests get 429 with a
// Retry-After header and the standard error envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) || rl.limiter(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		WriteError(c, http.StatusTooManyRequests, "rate limit exceeded")
	}
}
