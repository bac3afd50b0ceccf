// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Redactor, the scrubber the access logger runs request
// metadata through before emitting it. Request and response bodies are never
// logged; what remains (query string, headers) is cleaned as follows:
//
//   - Authorization, Cookie and Set-Cookie (plus any configured header) are
//     replaced with "[REDACTED]".
//   - Values of sensitive query parameters (token, otp, password) are
//     replaced with "[REDACTED]".
//   - Email addresses and phone numbers anywhere else are replaced with
//     "[REDACTED:email]" and "[REDACTED:phone]".
//
// Entity identifiers (24-hex ObjectIDs) are left intact so log lines stay
// correlatable with rows.
package middleware

import (
	"net/url"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

var (
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Ten-digit subscriber numbers with an optional country code.
	phoneRE = regexp.MustCompile(`(?:\+\d{1,3}[ .-]?|\b)\d{10}\b`)
)

// RedactOptions configures extra scrubbing for a Redactor.
//
// MaskHeaders and MaskParams are merged case-insensitively with the built-in
// sets.
type RedactOptions struct {
	MaskHeaders []string
	MaskParams  []string
}

// Redactor scrubs PII from request metadata. It is safe for concurrent use.
type Redactor struct {
	headers map[string]struct{}
	params  map[string]struct{}
}

// NewRedactor builds a Redactor from opts.
func NewRedactor(opts RedactOptions) *Redactor {
	r := &Redactor{
		headers: set("authorization", "cookie", "set-cookie"),
		params:  set("token", "otp", "password"),
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			r.headers[h] = struct{}{}
		}
	}
	for _, p := range opts.MaskParams {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			r.params[p] = struct{}{}
		}
	}
	return r
}

// String replaces emails and phone numbers in s.
func (r *Redactor) String(s string) string {
	if s == "" {
		return s
	}
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// Query scrubs a raw query string. Sensitive parameters lose their value;
// the rest goes through String before and after decoding.
func (r *Redactor) Query(raw string) string {
	if raw == "" {
		return raw
	}
	raw = r.String(raw)
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return raw
	}
	for k, vv := range vals {
		if _, ok := r.params[strings.ToLower(k)]; ok {
			vals[k] = []string{redacted}
			continue
		}
		for i := range vv {
			vv[i] = r.String(vv[i])
		}
	}
	// Encode escapes the brackets; unescape for readable logs.
	out, err := url.QueryUnescape(vals.Encode())
	if err != nil {
		return vals.Encode()
	}
	return out
}

// Headers returns a flattened, scrubbed copy of h.
func (r *Redactor) Headers(h map[string][]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := r.headers[strings.ToLower(k)]; ok {
			out[k] = redacted
			continue
		}
		out[k] = r.String(strings.Join(vv, ", "))
	}
	return out
}

func set(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}
