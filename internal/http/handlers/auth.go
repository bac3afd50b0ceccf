// Auth HTTP handlers.
//
// This file exposes the account endpoints under /auth:
//   - POST /auth/signup  (register, sends an OTP)
//   - POST /auth/verify  (activate with the OTP)
//   - POST /auth/login   (issue a token and set the session cookie)
//   - POST /auth/logout  (clear the session cookie)
//   - GET  /auth/me      (current principal)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rescue-api/internal/apperror"
	"github.com/tbourn/rescue-api/internal/http/middleware"
	"github.com/tbourn/rescue-api/internal/http/response"
	"github.com/tbourn/rescue-api/internal/services"
)

// Signup godoc
// @ID          signup
// @Summary     Register an account
// @Description Creates a NOT_ACTIVATED user and sends a one-time code for verification.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.SignupRequest  true  "Signup payload"
// @Success     201   {object}  response.Envelope{data=domain.User}
// @Failure     400   {object}  response.ErrorBody
// @Failure     409   {object}  response.ErrorBody  "Email already exists"
// @Router      /auth/signup [post]
func (h *Handlers) Signup(c *gin.Context) (response.Options, error) {
	req, err := body[SignupRequest](c)
	if err != nil {
		return response.Options{}, err
	}
	u, err := h.svc.Auth.Signup(reqCtx(c), services.SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Point:       req.Point,
	})
	if err != nil {
		return response.Options{}, err
	}
	return created(u)
}

// Verify godoc
// @ID          verify
// @Summary     Verify an account
// @Description Activates the account when the one-time code matches and has not expired.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.VerifyRequest  true  "Verification payload"
// @Success     200   {object}  response.Envelope{data=domain.User}
// @Failure     400   {object}  response.ErrorBody
// @Router      /auth/verify [post]
func (h *Handlers) Verify(c *gin.Context) (response.Options, error) {
	req, err := body[VerifyRequest](c)
	if err != nil {
		return response.Options{}, err
	}
	u, err := h.svc.Auth.Verify(reqCtx(c), req.Email, req.OTP)
	if err != nil {
		return response.Options{}, err
	}
	return ok(u)
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Issues a bearer token and sets it as an HttpOnly session cookie.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  response.Envelope{data=services.Session}
// @Header      200   {string}  Set-Cookie  "Session cookie"
// @Failure     400   {object}  response.ErrorBody
// @Failure     409   {object}  response.ErrorBody  "Invalid credentials"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) (response.Options, error) {
	req, err := body[LoginRequest](c)
	if err != nil {
		return response.Options{}, err
	}
	s, err := h.svc.Auth.Login(reqCtx(c), req.Email, req.Password)
	if err != nil {
		return response.Options{}, err
	}
	h.setSessionCookie(c, s.Token, int(s.ExpiresIn))
	return ok(s)
}

// Logout godoc
// @ID          logout
// @Summary     Log out
// @Tags        Auth
// @Produce     json
// @Security    CookieAuth
// @Success     200  {object}  response.Envelope
// @Failure     401  {object}  response.ErrorBody
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) (response.Options, error) {
	h.setSessionCookie(c, "", -1)
	return response.Options{Message: "logout"}, nil
}

// Me godoc
// @ID          me
// @Summary     Current user
// @Tags        Auth
// @Produce     json
// @Security    CookieAuth
// @Success     200  {object}  response.Envelope{data=domain.User}
// @Failure     401  {object}  response.ErrorBody
// @Router      /auth/me [get]
func (h *Handlers) Me(c *gin.Context) (response.Options, error) {
	id, found := middleware.IdentityFrom(c)
	if !found {
		return response.Options{}, apperror.New(apperror.KindUnauthorized, middleware.MessageWrongToken)
	}
	u, err := h.svc.Auth.Principal(reqCtx(c), id.ID)
	if err != nil {
		return response.Options{}, err
	}
	return ok(u)
}

// setSessionCookie writes the session cookie. A negative maxAge deletes it.
func (h *Handlers) setSessionCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
