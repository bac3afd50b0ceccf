// User HTTP handlers.
//
//   - GET    /users        (paginated)
//   - GET    /users/raw    (every user, deleted included; ADMIN)
//   - GET    /users/{id}
//   - POST   /users        (ADMIN)
//   - PUT    /users/{id}
//   - DELETE /users/{id}   (ADMIN)
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/rescue-api/internal/http/response"
	"github.com/tbourn/rescue-api/internal/services"
	"github.com/tbourn/rescue-api/internal/utils"
)

// ListUsers godoc
// @ID          listUsers
// @Summary     List users (paginated)
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Param       page   query     int  false  "Page number"     minimum(1) default(1)
// @Param       limit  query     int  false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200    {object}  response.Envelope{data=[]domain.User}
// @Failure     400    {object}  response.ErrorBody
// @Failure     401    {object}  response.ErrorBody
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) (response.Options, error) {
	q, err := query[ListQuery](c)
	if err != nil {
		return response.Options{}, err
	}
	p, limit, _ := utils.Clamp(q.Page, q.Limit)
	items, total, err := h.svc.Users.ListPage(reqCtx(c), p, limit)
	if err != nil {
		return response.Options{}, err
	}
	return paged(items, p, limit, total)
}

// RawUsers godoc
// @ID          rawUsers
// @Summary     List every user including deleted ones
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  response.Envelope{data=[]domain.User}
// @Failure     401  {object}  response.ErrorBody
// @Router      /users/raw [get]
func (h *Handlers) RawUsers(c *gin.Context) (response.Options, error) {
	items, err := h.svc.Users.Raw(reqCtx(c))
	if err != nil {
		return response.Options{}, err
	}
	return ok(items)
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "User id (24 hex)"
// @Success     200  {object}  response.Envelope{data=domain.User}
// @Failure     404  {object}  response.ErrorBody
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) (response.Options, error) {
	u, err := h.svc.Users.Get(reqCtx(c), c.Param("id"))
	if err != nil {
		return response.Options{}, err
	}
	return ok(u)
}

// CreateUser godoc
// @ID          createUser
// @Summary     Create a user
// @Description Creates an account with explicit roles and status.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.CreateUserRequest  true  "User payload"
// @Success     201   {object}  response.Envelope{data=domain.User}
// @Failure     400   {object}  response.ErrorBody
// @Failure     409   {object}  response.ErrorBody  "Email already exists"
// @Router      /users [post]
func (h *Handlers) CreateUser(c *gin.Context) (response.Options, error) {
	req, err := body[CreateUserRequest](c)
	if err != nil {
		return response.Options{}, err
	}
	u, err := h.svc.Users.Create(reqCtx(c), services.CreateUserInput{
		Email:                req.Email,
		Password:             req.Password,
		Roles:                req.Roles,
		Status:               req.Status,
		PhoneNumber:          req.PhoneNumber,
		AlternatePhoneNumber: req.AlternatePhoneNumber,
		Point:                req.Point,
	})
	if err != nil {
		return response.Options{}, err
	}
	return created(u)
}

// UpdateUser godoc
// @ID          updateUser
// @Summary     Update a user
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string                      true  "User id (24 hex)"
// @Param       body  body      handlers.UpdateUserRequest  true  "Changes"
// @Success     200   {object}  response.Envelope{data=domain.User}
// @Failure     400   {object}  response.ErrorBody
// @Failure     404   {object}  response.ErrorBody
// @Router      /users/{id} [put]
func (h *Handlers) UpdateUser(c *gin.Context) (response.Options, error) {
	req, err := body[UpdateUserRequest](c)
	if err != nil {
		return response.Options{}, err
	}
	u, err := h.svc.Users.Update(reqCtx(c), c.Param("id"), services.UserPatch{
		Password:             req.Password,
		Roles:                req.Roles,
		Status:               req.Status,
		PhoneNumber:          req.PhoneNumber,
		AlternatePhoneNumber: req.AlternatePhoneNumber,
		Point:                req.Point,
	})
	if err != nil {
		return response.Options{}, err
	}
	return ok(u)
}

// DeleteUser godoc
// @ID          deleteUser
// @Summary     Delete a user
// @Tags        Users
// @Security    BearerAuth
// @Param       id  path  string  true  "User id (24 hex)"
// @Success     204
// @Failure     404  {object}  response.ErrorBody
// @Router      /users/{id} [delete]
func (h *Handlers) DeleteUser(c *gin.Context) (response.Options, error) {
	if err := h.svc.Users.Delete(reqCtx(c), c.Param("id")); err != nil {
		return response.Options{}, err
	}
	return noContent()
}
