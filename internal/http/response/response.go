// Package response writes the two JSON body shapes the API produces:
//
//	success: { "status": "success", "data": ..., "message": "OK", "paging": {...} }
//	failure: { "status": 404, "message": "Not Found", "stack": "...", "errors": {...} }
//
// Exactly one body is written per request. The first call to Send or Fail
// claims the response; later calls are logged and ignored.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/rescue-api/internal/utils"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	// sentKey marks the gin context once a body has been claimed.
	sentKey = "response.sent"
)

// Envelope is the success body shape.
type Envelope struct {
	Status  string        `json:"status"  example:"success"`
	Data    any           `json:"data"`
	Message string        `json:"message" example:"OK"`
	Paging  *utils.Paging `json:"paging,omitempty"`
}

// ErrorBody is the failure body shape. Stack is only populated in
// development mode.
type ErrorBody struct {
	Status  int               `json:"status"  example:"404"`
	Message string            `json:"message" example:"Not Found"`
	Stack   string            `json:"stack,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Options describes one success response. Zero values take the defaults
// Code=200, Message="OK", Status="success".
type Options struct {
	Data    any
	Paging  *utils.Paging
	Code    int
	Message string
	Status  string
}

// Build applies defaults and returns the status code and envelope. It has no
// side effects.
func Build(opts Options) (int, Envelope) {
	code := opts.Code
	if code == 0 {
		code = http.StatusOK
	}
	msg := opts.Message
	if msg == "" {
		msg = "OK"
	}
	status := opts.Status
	if status == "" {
		status = StatusSuccess
	}
	return code, Envelope{
		Status:  status,
		Data:    opts.Data,
		Message: msg,
		Paging:  opts.Paging,
	}
}

// Send writes the success envelope. It reports false when the response was
// already claimed, in which case nothing is written.
func Send(c *gin.Context, opts Options) bool {
	if !claim(c, "envelope") {
		return false
	}
	code, env := Build(opts)
	if code == http.StatusNoContent {
		c.Status(code)
		c.Writer.WriteHeaderNow()
		return true
	}
	c.JSON(code, env)
	return true
}

// Fail writes the failure body and aborts the chain. It reports false when
// the response was already claimed.
func Fail(c *gin.Context, body ErrorBody) bool {
	if !claim(c, "error") {
		c.Abort()
		return false
	}
	c.AbortWithStatusJSON(body.Status, body)
	return true
}

// Sent reports whether a body was already claimed or written.
func Sent(c *gin.Context) bool {
	return c.GetBool(sentKey) || c.Writer.Written()
}

func claim(c *gin.Context, what string) bool {
	if Sent(c) {
		zerolog.Ctx(c.Request.Context()).Warn().
			Str("kind", what).
			Str("path", c.Request.URL.Path).
			Msg("response already sent; ignoring")
		return false
	}
	c.Set(sentKey, true)
	return true
}
