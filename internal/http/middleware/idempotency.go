// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for create requests. It validates
// the Idempotency-Key header, asks a lookup whether the same principal
// already completed a request with that key in the route's scope, and
// annotates the context so the handler can replay the stored resource and
// the rate limiter can let the replay through.
package middleware

import (
	"context"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-menu-backend/internal/validation"
)

// HeaderIdempotencyKey is the request header carrying the idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // int: resource produced by the original request
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key stashed by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemKey)
	return s, s != ""
}

// ReplayOf returns the resource ID a previous request with the same key
// produced, when this request is a replay.
func ReplayOf(c *gin.Context) (resourceID int, ok bool) {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return 0, false
	}
	resourceID, ok = v.(int)
	return resourceID, ok
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// Scope names the collection keys are unique within ("menus").
	Scope string
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; defaults to ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports the resource a still-valid record for
// (userID, scope, key) points at. Lookup errors do not block the request.
type IdempotencyLookup func(ctx context.Context, userID, scope, key string, now time.Time) (resourceID int, exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header when present.
//
// A malformed key raises a ParamViolationFailure on "header.Idempotency-Key".
// A known key marks the request as a replay of the stored resource and
// bypasses rate limiting. Requests without the header pass untouched.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			abortWith(c, validation.Params("header", validation.Locale(c)).Invalid(HeaderIdempotencyKey).Err())
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			id, exists, _ := lookup(c.Request.Context(), UserIDFrom(c), opts.Scope, key, time.Now().UTC())
			if exists {
				c.Set(ctxKeyIdemReplay, id)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}
