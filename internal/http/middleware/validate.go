// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file mounts the schema validator in front of handlers. ValidateBody
// and ValidateQuery decode one request source into a fresh T, validate it and
// store the result on the Gin context. On failure the chain stops with the
// validator's 400 "Invalid data" error and the handler never runs. Path
// identifiers are checked by ValidObjectID instead.
//
// Handlers read the result with Body[T] and Query[T].
package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rescue-api/internal/apperror"
	"github.com/tbourn/rescue-api/internal/validation"
)

const (
	bodyKey  = "validated.body"
	queryKey = "validated.query"
)

// Policy selects how unknown fields are treated.
type Policy int

const (
	// Strict rejects unknown fields with `"<path>" is not allowed`.
	Strict Policy = iota
	// AllowUnknown drops unknown fields silently.
	AllowUnknown
)

// ValidateBody validates the JSON body against T. Body reading failures are
// reported as *BodyError.
func ValidateBody[T any](v *validation.Validator, p Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := readJSONObject(c.Request)
		if err != nil {
			Abort(c, err)
			return
		}
		dst := new(T)
		if err := v.Bind(raw, dst, validation.Options{AllowUnknown: p == AllowUnknown}); err != nil {
			Abort(c, err)
			return
		}
		c.Set(bodyKey, dst)
		c.Next()
	}
}

// ValidateQuery validates the query string against T. Strings are coerced to
// the declared numeric and boolean types; repeated keys become arrays.
func ValidateQuery[T any](v *validation.Validator, p Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := make(map[string]any)
		for k, vv := range c.Request.URL.Query() {
			if len(vv) == 1 {
				raw[k] = vv[0]
				continue
			}
			list := make([]any, len(vv))
			for i, s := range vv {
				list[i] = s
			}
			raw[k] = list
		}
		dst := new(T)
		if err := v.Bind(raw, dst, validation.Options{AllowUnknown: p == AllowUnknown, Coerce: true}); err != nil {
			Abort(c, err)
			return
		}
		c.Set(queryKey, dst)
		c.Next()
	}
}

// Body returns the value stored by ValidateBody[T], or nil.
func Body[T any](c *gin.Context) *T { return validated[T](c, bodyKey) }

// Query returns the value stored by ValidateQuery[T], or nil.
func Query[T any](c *gin.Context) *T { return validated[T](c, queryKey) }

func validated[T any](c *gin.Context, key string) *T {
	v, ok := c.Get(key)
	if !ok {
		return nil
	}
	t, _ := v.(*T)
	return t
}

// BodyLimit caps request bodies at n bytes. Reads past the cap fail with
// *http.MaxBytesError, which readJSONObject reports as entity.too.large.
// Multipart bodies are left to the upload handlers, which apply their own cap.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil && !isMultipart(c.Request) {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mt, "multipart/")
}

// readJSONObject decodes a JSON object body. Requests without a JSON body
// yield an empty object.
func readJSONObject(r *http.Request) (map[string]any, error) {
	out := map[string]any{}
	if r.Body == nil || r.Body == http.NoBody {
		return out, nil
	}
	if enc := strings.ToLower(r.Header.Get("Content-Encoding")); enc != "" && enc != "identity" {
		return nil, NewBodyError(BodyEncodingUnsupported, errors.New("unsupported content encoding "+enc))
	}
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return out, nil
	}
	mt, params, err := mime.ParseMediaType(ct)
	if err != nil || !(mt == "application/json" || strings.HasSuffix(mt, "+json")) {
		return out, nil
	}
	if cs := strings.ToLower(params["charset"]); cs != "" && cs != "utf-8" {
		return nil, NewBodyError(BodyCharsetUnsupported, errors.New("unsupported charset "+cs))
	}

	b, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, NewBodyError(BodyTooLarge, err)
		}
		return nil, NewBodyError(BodyRequestAborted, err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return out, nil
	}

	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, NewBodyError(BodyParseFailed, err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, apperror.BadRequest(apperror.Fields{
			"value": `"value" must be of type object`,
		}).WithMessage(validation.InvalidDataMessage)
	}
	return obj, nil
}
