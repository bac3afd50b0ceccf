// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides request correlation, the structured access log and
// panic recovery:
//
//   - RequestID() ensures every request carries a correlation ID
//     (propagated via X-Request-ID and stored in the Gin context).
//   - Logger() attaches a request-scoped zerolog.Logger to both the Gin
//     context and the request context, and emits one access log line per
//     request with query and headers passed through a Redactor.
//   - Recovery() turns panics into *PanicError values for ErrorHandler.
//   - LoggerFrom() retrieves the request-scoped logger.
//
// Recommended order:
//
//	RequestID() -> Logger() -> Metrics() -> ErrorHandler() -> Recovery()
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/rescue-api/internal/http/response"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// loggerKey is the Gin context key of the request-scoped logger.
	loggerKey = "logger"
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
)

// RequestID attaches (or propagates) a correlation identifier per request.
//
// An incoming X-Request-ID is reused; otherwise a new UUIDv4 is generated.
// The ID is echoed in the response header and stored under "requestID".
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// GetRequestID returns the correlation ID set by RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Logger writes a structured access log for each request.
//
// The request-scoped logger carries request_id, method, path and remote_ip.
// It is stored under "logger" in the Gin context and attached to the request
// context so code holding only a context.Context can use zerolog.Ctx.
//
// The access line adds the scrubbed query and headers, user_id (when an auth
// gate identified the caller), status, latency and sizes. Level follows the
// outcome: error for 5xx or reported errors, warn for 4xx, info otherwise.
// A nil Redactor uses the defaults.
func Logger(rd *Redactor) gin.HandlerFunc {
	if rd == nil {
		rd = NewRedactor(RedactOptions{})
	}
	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			// Fallback when route not matched / 404.
			path = c.Request.URL.Path
		}

		l := log.With().
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Logger()

		c.Set(loggerKey, &l)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		query := rd.Query(truncate(c.Request.URL.RawQuery, maxQueryLogLength))
		headers := rd.Headers(c.Request.Header)

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case len(c.Errors) > 0 || status >= http.StatusInternalServerError:
			ev = l.Error()
		case status >= http.StatusBadRequest:
			ev = l.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.
			Str("user_id", c.GetString(userIDKey)).
			Str("query", query).
			Interface("headers", headers).
			// ContentLength can be -1 if unknown.
			Int64("bytes_in", c.Request.ContentLength).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Msg("request")
	}
}

// Recovery intercepts panics, logs the stack and reports a *PanicError.
//
// Under ErrorHandler the error becomes the standard 500 body. Without it,
// Recovery writes that body itself (production form) unless the response
// was already written.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			stack := debug.Stack()
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", stack).
				Msg("panic recovered")

			Abort(c, &PanicError{Value: rec, Stack: stack})
			if c.GetBool(errorHandlerKey) {
				return
			}
			if !response.Sent(c) {
				body, _ := RenderError(c.Errors.Last().Err, false)
				response.Fail(c, body)
				return
			}
			c.AbortWithStatus(http.StatusInternalServerError)
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger.
//
// If Logger() did not run, the global logger is returned, so callers never
// need nil checks.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// truncate returns s unchanged when within max length, otherwise it truncates
// s to max bytes and appends an ellipsis. A max <= 0 disables truncation.
//
// Note: This operates on bytes (not runes) which is acceptable for logging.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
