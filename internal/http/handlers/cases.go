// Case HTTP handlers.
//
//   - GET    /cases        (paginated)
//   - GET    /cases/raw    (ADMIN)
//   - GET    /cases/{id}   (with history)
//   - POST   /cases        (assigns the nearest NGO; Idempotency-Key aware)
//   - PUT    /cases/{id}
//   - DELETE /cases/{id}
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/rescue-api/internal/domain"
	"github.com/tbourn/rescue-api/internal/http/middleware"
	"github.com/tbourn/rescue-api/internal/http/response"
	"github.com/tbourn/rescue-api/internal/services"
	"github.com/tbourn/rescue-api/internal/utils"
)

// ListCases godoc
// @ID          listCases
// @Summary     List cases (paginated)
// @Tags        Cases
// @Produce     json
// @Security    BearerAuth
// @Param       page   query     int  false  "Page number"     minimum(1) default(1)
// @Param       limit  query     int  false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200    {object}  response.Envelope{data=[]domain.Case}
// @Failure     400    {object}  response.ErrorBody
// @Router      /cases [get]
func (h *Handlers) ListCases(c *gin.Context) (response.Options, error) {
	q, err := query[ListQuery](c)
	if err != nil {
		return response.Options{}, err
	}
	p, limit, _ := utils.Clamp(q.Page, q.Limit)
	items, total, err := h.svc.Cases.ListPage(reqCtx(c), p, limit)
	if err != nil {
		return response.Options{}, err
	}
	return paged(items, p, limit, total)
}

// RawCases godoc
// @ID          rawCases
// @Summary     List every case including deleted ones
// @Tags        Cases
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  response.Envelope{data=[]domain.Case}
// @Router      /cases/raw [get]
func (h *Handlers) RawCases(c *gin.Context) (response.Options, error) {
	items, err := h.svc.Cases.Raw(reqCtx(c))
	if err != nil {
		return response.Options{}, err
	}
	return ok(items)
}

// GetCase godoc
// @ID          getCase
// @Summary     Get a case with its history
// @Tags        Cases
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Case id (24 hex)"
// @Success     200  {object}  response.Envelope{data=domain.Case}
// @Failure     404  {object}  response.ErrorBody
// @Router      /cases/{id} [get]
func (h *Handlers) GetCase(c *gin.Context) (response.Options, error) {
	cs, err := h.svc.Cases.Get(reqCtx(c), c.Param("id"))
	if err != nil {
		return response.Options{}, err
	}
	return ok(cs)
}

// CreateCase godoc
// @ID          createCase
// @Summary     Report a case
// @Description Creates a case and assigns it to the nearest NGO. Retrying with the same Idempotency-Key returns the case created the first time.
// @Tags        Cases
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header    string                      false  "Client supplied key"  example(case-7f3a)
// @Param       body             body      handlers.CreateCaseRequest  true   "Case payload"
// @Success     201              {object}  response.Envelope{data=domain.Case}
// @Failure     400              {object}  response.ErrorBody
// @Failure     404              {object}  response.ErrorBody  "No NGO found"
// @Failure     429              {object}  response.ErrorBody
// @Router      /cases [post]
func (h *Handlers) CreateCase(c *gin.Context) (response.Options, error) {
	ctx := reqCtx(c)
	if rid, replay := middleware.ReplayOf(c); replay {
		cs, err := h.svc.Cases.Get(ctx, rid)
		if err != nil {
			return response.Options{}, err
		}
		c.Header("Idempotent-Replay", "true")
		return created(cs)
	}

	req, err := body[CreateCaseRequest](c)
	if err != nil {
		return response.Options{}, err
	}
	in := services.CaseInput{
		Description:          req.Description,
		Address:              req.Address,
		PhoneNumber:          req.PhoneNumber,
		AlternatePhoneNumber: req.AlternatePhoneNumber,
		Point:                req.Point,
		Area:                 req.Area,
	}
	if a := req.AnimalDetails; a != nil {
		in.AnimalDetails = domain.AnimalDetails{
			Type:               a.Type,
			Name:               a.Name,
			Color:              a.Color,
			IdentificationMark: a.IdentificationMark,
			Image:              a.Image,
		}
	}
	key, _ := middleware.GetIdempotencyKey(c)
	cs, err := h.svc.Cases.Create(ctx, middleware.UserID(c), in, key)
	if err != nil {
		return response.Options{}, err
	}
	return created(cs)
}

// UpdateCase godoc
// @ID          updateCase
// @Summary     Update a case
// @Description Only the animal type, the status and the point can change.
// @Tags        Cases
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string                      true  "Case id (24 hex)"
// @Param       body  body      handlers.UpdateCaseRequest  true  "Changes"
// @Success     200   {object}  response.Envelope{data=domain.Case}
// @Failure     400   {object}  response.ErrorBody
// @Failure     404   {object}  response.ErrorBody
// @Router      /cases/{id} [put]
func (h *Handlers) UpdateCase(c *gin.Context) (response.Options, error) {
	req, err := body[UpdateCaseRequest](c)
	if err != nil {
		return response.Options{}, err
	}
	p := services.CasePatch{Status: req.Status, Point: req.Point}
	if req.AnimalDetails != nil {
		p.AnimalType = &req.AnimalDetails.Type
	}
	cs, err := h.svc.Cases.Update(reqCtx(c), c.Param("id"), p)
	if err != nil {
		return response.Options{}, err
	}
	return ok(cs)
}

// DeleteCase godoc
// @ID          deleteCase
// @Summary     Delete a case
// @Tags        Cases
// @Security    BearerAuth
// @Param       id  path  string  true  "Case id (24 hex)"
// @Success     204
// @Failure     404  {object}  response.ErrorBody
// @Router      /cases/{id} [delete]
func (h *Handlers) DeleteCase(c *gin.Context) (response.Options, error) {
	if err := h.svc.Cases.Delete(reqCtx(c), c.Param("id")); err != nil {
		return response.Options{}, err
	}
	return noContent()
}
