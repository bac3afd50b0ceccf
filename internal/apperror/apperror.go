// Package apperror defines the typed failures returned by services, handlers,
// and middleware. Each value carries an HTTP status, a client-safe message,
// and an optional flat set of field errors keyed by dotted path.
//
// Errors are immutable once constructed: WithMessage, WithFields and Wrap
// return modified copies.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind names one variant of the taxonomy.
type Kind string

const (
	KindBadRequest          Kind = "BadRequest"
	KindUnauthorized        Kind = "Unauthorized"
	KindForbidden           Kind = "Forbidden"
	KindNotFound            Kind = "NotFound"
	KindConflict            Kind = "Conflict"
	KindMethodNotAllowed    Kind = "MethodNotAllowed"
	KindTooManyRequests     Kind = "TooManyRequests"
	KindInternalServerError Kind = "InternalServerError"
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// DefaultMessage returns the message used when none is supplied.
func (k Kind) DefaultMessage() string {
	return http.StatusText(k.Status())
}

// Fields maps a dotted field path (e.g. "animalDetails.type", "roles.0")
// to a human-readable message.
type Fields map[string]string

// Error is a typed application failure.
type Error struct {
	kind    Kind
	message string
	fields  Fields
	cause   error
}

func newError(kind Kind, fields []Fields) *Error {
	e := &Error{kind: kind, message: kind.DefaultMessage()}
	for _, f := range fields {
		for k, v := range f {
			if e.fields == nil {
				e.fields = make(Fields, len(f))
			}
			e.fields[k] = v
		}
	}
	return e
}

// BadRequest returns a 400 error.
func BadRequest(fields ...Fields) *Error { return newError(KindBadRequest, fields) }

// Unauthorized returns a 401 error.
func Unauthorized(fields ...Fields) *Error { return newError(KindUnauthorized, fields) }

// Forbidden returns a 403 error.
func Forbidden(fields ...Fields) *Error { return newError(KindForbidden, fields) }

// NotFound returns a 404 error.
func NotFound(fields ...Fields) *Error { return newError(KindNotFound, fields) }

// Conflict returns a 409 error.
func Conflict(fields ...Fields) *Error { return newError(KindConflict, fields) }

// TooManyRequests returns a 429 error.
func TooManyRequests(fields ...Fields) *Error { return newError(KindTooManyRequests, fields) }

// InternalServerError returns a 500 error.
func InternalServerError(fields ...Fields) *Error {
	return newError(KindInternalServerError, fields)
}

// New returns an error of the given kind with a custom message.
func New(kind Kind, message string) *Error {
	return newError(kind, nil).WithMessage(message)
}

// Kind reports the variant.
func (e *Error) Kind() Kind { return e.kind }

// Status reports the HTTP status code.
func (e *Error) Status() int { return e.kind.Status() }

// Message reports the client-safe message.
func (e *Error) Message() string { return e.message }

// Fields returns a copy of the field errors, or nil when there are none.
func (e *Error) Fields() Fields {
	if len(e.fields) == 0 {
		return nil
	}
	out := make(Fields, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	return out
}

// WithMessage returns a copy with msg as the message. Empty msg keeps the
// current one.
func (e *Error) WithMessage(msg string) *Error {
	cp := e.clone()
	if msg != "" {
		cp.message = msg
	}
	return cp
}

// WithFields returns a copy with f merged into the field errors.
func (e *Error) WithFields(f Fields) *Error {
	cp := e.clone()
	for k, v := range f {
		if cp.fields == nil {
			cp.fields = make(Fields, len(f))
		}
		cp.fields[k] = v
	}
	return cp
}

// Wrap returns a copy that records cause for logging. The cause never
// reaches the response body.
func (e *Error) Wrap(cause error) *Error {
	cp := e.clone()
	cp.cause = cause
	return cp
}

func (e *Error) clone() *Error {
	cp := *e
	cp.fields = e.Fields()
	return &cp
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error of the same kind, so errors.Is(err, NotFound())
// works regardless of message or fields.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.kind == e.kind
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsKind reports whether err carries an *Error of kind k.
func IsKind(err error, k Kind) bool {
	ae, ok := As(err)
	return ok && ae.kind == k
}
