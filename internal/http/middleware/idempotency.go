// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Idempotency-Key support for creating requests. The
// middleware validates the header, stores the key on the context and asks a
// lookup whether the same caller already completed the same operation with
// that key. When it did, the id of the resource created the first time is
// recorded so the handler can answer with it instead of creating a duplicate
// (ReplayOf), and the rate limiter skips the request (IsReplay).
//
// Persisting the key after a successful create is the handler's job.
package middleware

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rescue-api/internal/apperror"
)

// HeaderIdempotencyKey is the request header carrying the key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // string: resource id of the original result
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// IdempotencyOptions configures Idempotency.
type IdempotencyOptions struct {
	// Scope namespaces keys per operation, e.g. "cases".
	Scope string
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Nil uses ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports the resource created earlier for
// (userID, scope, key), if any record is still valid at now. Errors are
// logged and treated as "not found".
type IdempotencyLookup func(ctx context.Context, userID, scope, key string, now time.Time) (resourceID string, found bool, err error)

// Idempotency validates the Idempotency-Key header and detects replays. It
// must run after the auth gate so the caller id is known. Requests without
// the header pass through untouched.
func Idempotency(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
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
			Abort(c, apperror.BadRequest(apperror.Fields{
				HeaderIdempotencyKey: fmt.Sprintf(`"%s" must be at most %d URL-safe characters`, HeaderIdempotencyKey, maxLen),
			}).WithMessage("Invalid Idempotency-Key"))
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			rid, found, err := lookup(c.Request.Context(), UserID(c), opts.Scope, key, time.Now().UTC())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Str("scope", opts.Scope).Msg("idempotency lookup failed")
			case found:
				c.Set(ctxKeyIdemReplay, rid)
			}
		}
		c.Next()
	}
}

// GetIdempotencyKey returns the validated key, if the request carried one.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemKey)
	return s, s != ""
}

// ReplayOf returns the id of the resource created by the original request
// when this request is a replay.
func ReplayOf(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemReplay)
	return s, s != ""
}

// IsReplay reports whether the request replays a completed operation.
func IsReplay(c *gin.Context) bool {
	_, ok := ReplayOf(c)
	return ok
}
