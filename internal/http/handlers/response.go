// Package handlers provides HTTP handler implementations for the public API.
//
// This file adapts handler functions to Gin. A handler returns the options
// of its success envelope or an error; Handle writes the former with
// response.Send and reports the latter to the error middleware after mapping
// service errors to typed API errors (see errors.go).
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{ "status": "success", "data": { "id": "65f1c0...", "name": "stray" }, "message": "OK" }
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rescue-api/internal/http/middleware"
	"github.com/tbourn/rescue-api/internal/http/response"
	"github.com/tbourn/rescue-api/internal/utils"
)

// HandlerFunc is the signature of every endpoint in this package.
type HandlerFunc func(c *gin.Context) (response.Options, error)

// Handle adapts fn to a gin.HandlerFunc.
func Handle(fn HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		opts, err := fn(c)
		if err != nil {
			middleware.Abort(c, mapError(err))
			return
		}
		response.Send(c, opts)
	}
}

// reqCtx returns the request context carrying the request-scoped logger so
// services can log through zerolog.Ctx.
func reqCtx(c *gin.Context) context.Context {
	return middleware.LoggerFrom(c).WithContext(c.Request.Context())
}

// errNotMounted signals a route wired without its validator.
var errNotMounted = errors.New("handlers: validated input missing; validator not mounted")

// body returns the validated body, failing when the validator was not
// mounted in front of the handler.
func body[T any](c *gin.Context) (*T, error) {
	if v := middleware.Body[T](c); v != nil {
		return v, nil
	}
	return nil, errNotMounted
}

func query[T any](c *gin.Context) (*T, error) {
	if v := middleware.Query[T](c); v != nil {
		return v, nil
	}
	return nil, errNotMounted
}

func ok(data any) (response.Options, error) {
	return response.Options{Data: data}, nil
}

func created(data any) (response.Options, error) {
	return response.Options{Data: data, Code: http.StatusCreated}, nil
}

func noContent() (response.Options, error) {
	return response.Options{Code: http.StatusNoContent}, nil
}

func paged(data any, p, limit int, total int64) (response.Options, error) {
	return response.Options{Data: data, Paging: utils.NewPaging(p, limit, total)}, nil
}
