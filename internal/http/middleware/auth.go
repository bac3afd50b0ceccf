// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the two authentication gates.
//
// RequireBearer reads "Authorization: Bearer <token>", verifies it and
// optionally enforces a role. Every failure is 401 with the same message,
// including a role mismatch.
//
// RequireSession reads the token from a cookie and resolves the principal
// through a lookup function. A missing cookie is answered with 404.
//
// On success both gates attach the caller's auth.Identity (IdentityFrom) and
// its id under "userID", which the rate limiter and the access log read.
package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rescue-api/internal/apperror"
	"github.com/tbourn/rescue-api/internal/auth"
)

const (
	identityKey = "identity"
	userIDKey   = "userID"

	// DefaultSessionCookie names the cookie carrying the session token.
	DefaultSessionCookie = "Authorization"

	MessageTokenMissing = "Authentication token missing"
	MessageWrongToken   = "Wrong authentication token"
)

// ErrNoPrincipal is returned by a SessionLookup when the token's subject no
// longer exists.
var ErrNoPrincipal = errors.New("principal not found")

// TokenVerifier verifies a bearer token. *auth.Issuer satisfies it.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// SessionLookup resolves the stored principal for a verified token subject.
// It returns ErrNoPrincipal when the subject is unknown.
type SessionLookup func(ctx context.Context, id string) (auth.Identity, error)

// RequireBearer authenticates the request with a bearer token. When roles are
// given, the token must carry at least one of them.
func RequireBearer(v TokenVerifier, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, reason := bearerToken(c.GetHeader("Authorization"))
		if reason != "" {
			denyBearer(c, reason)
			return
		}
		id, err := v.Verify(token)
		if err != nil {
			denyBearer(c, "invalid_token")
			return
		}
		if !id.HasAnyRole(roles...) {
			denyBearer(c, "role_mismatch")
			return
		}
		SetIdentity(c, id)
		c.Next()
	}
}

// bearerToken extracts the credential from an Authorization header value.
// The scheme must be literally "Bearer".
func bearerToken(h string) (token, reason string) {
	if h == "" {
		return "", "missing_header"
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || scheme != "Bearer" {
		return "", "bad_scheme"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "bad_scheme"
	}
	return token, ""
}

func denyBearer(c *gin.Context, reason string) {
	authFailures.WithLabelValues(reason).Inc()
	Abort(c, apperror.Unauthorized())
}

// RequireSession authenticates the request with the session cookie. An empty
// cookieName uses DefaultSessionCookie.
//
// Lookup failures other than ErrNoPrincipal propagate unchanged.
func RequireSession(v TokenVerifier, cookieName string, lookup SessionLookup) gin.HandlerFunc {
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			authFailures.WithLabelValues("missing_cookie").Inc()
			Abort(c, apperror.New(apperror.KindNotFound, MessageTokenMissing))
			return
		}
		claimed, err := v.Verify(token)
		if err != nil {
			authFailures.WithLabelValues("invalid_token").Inc()
			Abort(c, apperror.New(apperror.KindUnauthorized, MessageWrongToken))
			return
		}
		id, err := lookup(c.Request.Context(), claimed.ID)
		if errors.Is(err, ErrNoPrincipal) {
			authFailures.WithLabelValues("unknown_principal").Inc()
			Abort(c, apperror.New(apperror.KindUnauthorized, MessageWrongToken))
			return
		}
		if err != nil {
			Abort(c, err)
			return
		}
		SetIdentity(c, id)
		c.Next()
	}
}

// SetIdentity attaches id to the request.
func SetIdentity(c *gin.Context, id auth.Identity) {
	c.Set(identityKey, id)
	c.Set(userIDKey, id.ID)
}

// IdentityFrom returns the caller attached by an auth gate.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// UserID returns the caller id, or "" on unauthenticated routes.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
