// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, which attaches a conservative set of
// HTTP security headers for a JSON API running behind a reverse proxy: HSTS
// (only for HTTPS requests), cache suppression for credential-bearing
// responses, and browser feature policies.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security on HTTPS requests. Only
	// enable when traffic is HTTPS end-to-end.
	EnableHSTS bool
	// HSTSMaxAge defaults to 180 days.
	HSTSMaxAge time.Duration
	// NoStore adds Cache-Control: no-store with the legacy Pragma/Expires.
	// The auth routes mount a second instance with NoStore set.
	NoStore bool
	// EnablePolicy adds Permissions-Policy and
	// X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool
}

// SecurityHeaders returns middleware setting:
//
//	X-Content-Type-Options: nosniff
//	X-Frame-Options: DENY
//	Referrer-Policy: no-referrer
//
// plus the optional headers selected by opt. When X-Request-ID is already on
// the response it is added to Access-Control-Expose-Headers.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int64(opt.HSTSMaxAge / time.Second)
	if maxAge <= 0 {
		maxAge = int64((180 * 24 * time.Hour) / time.Second)
	}
	hsts := "max-age=" + strconv.FormatInt(maxAge, 10) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			// The API never needs device features; geolocation arrives in
			// request bodies, not from the browser.
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if h.Get(requestIDHeader) != "" {
			const hdr = "Access-Control-Expose-Headers"
			switch cur := h.Get(hdr); {
			case cur == "":
				h.Set(hdr, requestIDHeader)
			case !strings.Contains(cur, requestIDHeader):
				h.Set(hdr, cur+", "+requestIDHeader)
			}
		}

		c.Next()
	}
}

// isHTTPS reports whether the request used HTTPS directly or via a proxy
// that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
