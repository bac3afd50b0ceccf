// Package auth issues and verifies bearer tokens, hashes passwords, and
// generates one-time passcodes.
//
// Tokens are HS256 JWTs carrying the caller id in the `_id` claim and the
// role tags in `roles`. Verification failures of any kind (bad signature,
// expired, malformed, wrong algorithm) collapse into ErrInvalidToken so that
// callers cannot tell them apart.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for every token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified caller of one request.
type Identity struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles"`
}

// HasAnyRole reports whether the identity carries at least one of roles,
// compared case-insensitively. An empty roles list always matches.
func (i Identity) HasAnyRole(roles ...string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, want := range roles {
		for _, have := range i.Roles {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

// Claims is the JWT payload.
type Claims struct {
	ID    string   `json:"_id"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. ttl <= 0 defaults to one hour.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports the lifetime of issued tokens.
func (is *Issuer) TTL() time.Duration { return is.ttl }

// Issue signs a token for id with roles. It returns the token and its expiry.
func (is *Issuer) Issue(id string, roles []string) (string, time.Time, error) {
	now := is.now()
	exp := now.Add(is.ttl)
	claims := Claims{
		ID:    id,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(is.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks the signature and expiry of token and returns the identity
// it carries.
func (is *Issuer) Verify(token string) (Identity, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return is.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(is.now),
	)
	if err != nil || !parsed.Valid || claims.ID == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: claims.ID, Roles: claims.Roles}, nil
}
