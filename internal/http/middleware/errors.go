// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the terminal error handler. Handlers and middleware
// report failures with c.Error(err) and abort; ErrorHandler runs after the
// rest of the chain has returned, turns the last reported error into the
// failure body and writes it once.
//
// Three families of error are distinguished:
//
//   - *apperror.Error: status and message are taken from the value; field
//     errors are attached for 4xx responses (and always in development).
//   - *BodyError: a request body could not be read or decoded. The status
//     comes from the parser tag; production hides the detail behind
//     "Something wrong in request".
//   - anything else, including recovered panics: 500. Production answers
//     "Something went wrong"; development exposes the message and a stack.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rescue-api/internal/apperror"
	"github.com/tbourn/rescue-api/internal/http/response"
)

const (
	// errorHandlerKey is set while ErrorHandler wraps the chain.
	errorHandlerKey = "errors.handled"

	MessageSomethingWrong = "Something went wrong"
	MessageBadRequestBody = "Something wrong in request"

	kindBodyError = "BodyError"
	kindUnknown   = "Unknown"
	noStack       = "NO STACKTRACE"
)

// Parser tags carried by BodyError.
const (
	BodyEncodingUnsupported = "encoding.unsupported"
	BodyRequestAborted      = "request.aborted"
	BodyTooLarge            = "entity.too.large"
	BodySizeInvalid         = "request.size.invalid"
	BodyStreamEncodingSet   = "stream.encoding.set"
	BodyTooManyParameters   = "parameters.too.many"
	BodyCharsetUnsupported  = "charset.unsupported"
	BodyVerifyFailed        = "entity.verify.failed"
	BodyParseFailed         = "entity.parse.failed"
)

var bodyStatus = map[string]int{
	BodyEncodingUnsupported: http.StatusUnsupportedMediaType,
	BodyRequestAborted:      http.StatusBadRequest,
	BodyTooLarge:            http.StatusRequestEntityTooLarge,
	BodySizeInvalid:         http.StatusBadRequest,
	BodyStreamEncodingSet:   http.StatusInternalServerError,
	BodyTooManyParameters:   http.StatusRequestEntityTooLarge,
	BodyCharsetUnsupported:  http.StatusUnsupportedMediaType,
	BodyVerifyFailed:        http.StatusForbidden,
	BodyParseFailed:         http.StatusBadRequest,
}

// BodyError reports a failure to read or decode the request body.
type BodyError struct {
	Type   string
	Status int
	Err    error
}

// NewBodyError returns a BodyError for the parser tag typ. Unknown tags map
// to 400.
func NewBodyError(typ string, err error) *BodyError {
	st, ok := bodyStatus[typ]
	if !ok {
		st = http.StatusBadRequest
	}
	return &BodyError{Type: typ, Status: st, Err: err}
}

func (e *BodyError) Error() string {
	if e.Err == nil {
		return e.Type
	}
	return e.Type + ": " + e.Err.Error()
}

func (e *BodyError) Unwrap() error { return e.Err }

// PanicError carries a recovered panic value and the goroutine stack at the
// point of the panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// ErrorOptions configures ErrorHandler.
type ErrorOptions struct {
	// Development exposes stacks, causes and field errors of every status.
	Development bool
}

// ErrorHandler returns the terminal error middleware. Register it before
// Recovery so panics reach it as errors.
func ErrorHandler(opts ErrorOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(errorHandlerKey, true)
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		body, kind := RenderError(err, opts.Development)

		stack := body.Stack
		if stack == "" {
			stack = noStack
		}
		lg := LoggerFrom(c)
		lg.Error().
			Int("status", body.Status).
			Str("kind", kind).
			Str("message", err.Error()).
			Str("stack", stack).
			Msg("request failed")
		apiErrors.WithLabelValues(kind).Inc()

		if response.Sent(c) {
			lg.Warn().Int("status", body.Status).Msg("response already written; error body dropped")
			c.Abort()
			return
		}
		response.Fail(c, body)
	}
}

// RenderError maps err to the failure body and the metric kind label.
func RenderError(err error, dev bool) (response.ErrorBody, string) {
	var (
		ae *apperror.Error
		be *BodyError
		pe *PanicError
	)
	switch {
	case errors.As(err, &ae):
		body := response.ErrorBody{Status: ae.Status(), Message: ae.Message()}
		if f := ae.Fields(); len(f) > 0 && (dev || body.Status < http.StatusInternalServerError) {
			body.Errors = f
		}
		if dev {
			if cause := errors.Unwrap(ae); cause != nil {
				body.Stack = chain(cause)
			}
		}
		return body, string(ae.Kind())

	case errors.As(err, &be):
		body := response.ErrorBody{Status: be.Status, Message: MessageBadRequestBody}
		if dev {
			body.Message = be.Error()
			body.Stack = chain(err)
		}
		return body, kindBodyError

	default:
		body := response.ErrorBody{Status: http.StatusInternalServerError, Message: MessageSomethingWrong}
		if dev {
			body.Message = err.Error()
			if errors.As(err, &pe) {
				body.Stack = string(pe.Stack)
			} else {
				body.Stack = chain(err)
			}
		}
		return body, kindUnknown
	}
}

// chain renders err and every wrapped cause on its own line.
func chain(err error) string {
	var b strings.Builder
	for e := err; e != nil; e = errors.Unwrap(e) {
		if b.Len() > 0 {
			b.WriteString("\n    caused by: ")
		}
		fmt.Fprintf(&b, "%T: %s", e, e.Error())
	}
	return b.String()
}

// Abort reports err to ErrorHandler and stops the chain.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// NotFound answers unmatched routes through the error handler.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		Abort(c, apperror.NotFound())
	}
}

// MethodNotAllowed answers 405 through the error handler.
func MethodNotAllowed() gin.HandlerFunc {
	return func(c *gin.Context) {
		Abort(c, apperror.New(apperror.KindMethodNotAllowed, ""))
	}
}
