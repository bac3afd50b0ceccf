// NGO HTTP handlers.
//
//   - GET    /ngos              (near search)
//   - GET    /ngos/raw          (ADMIN)
//   - GET    /ngos/{id}
//   - POST   /ngos
//   - PUT    /ngos/{id}
//   - PUT    /ngos/{id}/verify  (ADMIN)
//   - DELETE /ngos/{id}
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/rescue-api/internal/http/middleware"
	"github.com/tbourn/rescue-api/internal/http/response"
	"github.com/tbourn/rescue-api/internal/services"
)

// NearNGOs godoc
// @ID          nearNgos
// @Summary     NGOs near a position
// @Description Lists NGOs whose point (or area centroid) lies within the distance band, nearest first. Omitted values use the server defaults.
// @Tags        NGOs
// @Produce     json
// @Param       longitude    query     number  false  "Origin longitude"
// @Param       latitude     query     number  false  "Origin latitude"
// @Param       maxDistance  query     number  false  "Maximum distance in km"
// @Param       minDistance  query     number  false  "Minimum distance in km"
// @Success     200          {object}  response.Envelope{data=[]services.NearbyNGO}
// @Failure     400          {object}  response.ErrorBody
// @Router      /ngos [get]
func (h *Handlers) NearNGOs(c *gin.Context) (response.Options, error) {
	q, err := query[NearQuery](c)
	if err != nil {
		return response.Options{}, err
	}
	items, err := h.svc.NGOs.Near(reqCtx(c), services.NearQuery{
		Longitude:   q.Longitude,
		Latitude:    q.Latitude,
		MaxDistance: q.MaxDistance,
		MinDistance: q.MinDistance,
	})
	if err != nil {
		return response.Options{}, err
	}
	return ok(items)
}

// RawNGOs godoc
// @ID          rawNgos
// @Summary     List every NGO including deleted ones
// @Tags        NGOs
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  response.Envelope{data=[]domain.NGO}
// @Router      /ngos/raw [get]
func (h *Handlers) RawNGOs(c *gin.Context) (response.Options, error) {
	items, err := h.svc.NGOs.Raw(reqCtx(c))
	if err != nil {
		return response.Options{}, err
	}
	return ok(items)
}

// GetNGO godoc
// @ID          getNgo
// @Summary     Get an NGO
// @Tags        NGOs
// @Produce     json
// @Param       id   path      string  true  "NGO id (24 hex)"
// @Success     200  {object}  response.Envelope{data=domain.NGO}
// @Failure     404  {object}  response.ErrorBody
// @Router      /ngos/{id} [get]
func (h *Handlers) GetNGO(c *gin.Context) (response.Options, error) {
	n, err := h.svc.NGOs.Get(reqCtx(c), c.Param("id"))
	if err != nil {
		return response.Options{}, err
	}
	return ok(n)
}

// CreateNGO godoc
// @ID          createNgo
// @Summary     Register an NGO
// @Tags        NGOs
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.CreateNGORequest  true  "NGO payload"
// @Success     201   {object}  response.Envelope{data=domain.NGO}
// @Failure     400   {object}  response.ErrorBody
// @Router      /ngos [post]
func (h *Handlers) CreateNGO(c *gin.Context) (response.Options, error) {
	req, err := body[CreateNGORequest](c)
	if err != nil {
		return response.Options{}, err
	}
	n, err := h.svc.NGOs.Create(reqCtx(c), middleware.UserID(c), services.NGOInput{
		Name:                 req.Name,
		Description:          req.Description,
		Address:              req.Address,
		PhoneNumber:          req.PhoneNumber,
		AlternatePhoneNumber: req.AlternatePhoneNumber,
		Point:                req.Point,
		Area:                 req.Area,
	})
	if err != nil {
		return response.Options{}, err
	}
	return created(n)
}

// UpdateNGO godoc
// @ID          updateNgo
// @Summary     Update an NGO
// @Tags        NGOs
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string                     true  "NGO id (24 hex)"
// @Param       body  body      handlers.UpdateNGORequest  true  "Changes"
// @Success     200   {object}  response.Envelope{data=domain.NGO}
// @Failure     400   {object}  response.ErrorBody
// @Failure     404   {object}  response.ErrorBody
// @Router      /ngos/{id} [put]
func (h *Handlers) UpdateNGO(c *gin.Context) (response.Options, error) {
	req, err := body[UpdateNGORequest](c)
	if err != nil {
		return response.Options{}, err
	}
	n, err := h.svc.NGOs.Update(reqCtx(c), c.Param("id"), services.NGOPatch{
		Name:                 req.Name,
		Description:          req.Description,
		Address:              req.Address,
		PhoneNumber:          req.PhoneNumber,
		AlternatePhoneNumber: req.AlternatePhoneNumber,
		Point:                req.Point,
		Area:                 req.Area,
	})
	if err != nil {
		return response.Options{}, err
	}
	return ok(n)
}

// VerifyNGO godoc
// @ID          verifyNgo
// @Summary     Mark an NGO as verified
// @Tags        NGOs
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "NGO id (24 hex)"
// @Success     200  {object}  response.Envelope{data=domain.NGO}
// @Failure     404  {object}  response.ErrorBody
// @Router      /ngos/{id}/verify [put]
func (h *Handlers) VerifyNGO(c *gin.Context) (response.Options, error) {
	n, err := h.svc.NGOs.Verify(reqCtx(c), c.Param("id"))
	if err != nil {
		return response.Options{}, err
	}
	return ok(n)
}

// DeleteNGO godoc
// @ID          deleteNgo
// @Summary     Delete an NGO
// @Tags        NGOs
// @Security    BearerAuth
// @Param       id  path  string  true  "NGO id (24 hex)"
// @Success     204
// @Failure     404  {object}  response.ErrorBody
// @Router      /ngos/{id} [delete]
func (h *Handlers) DeleteNGO(c *gin.Context) (response.Options, error) {
	if err := h.svc.NGOs.Delete(reqCtx(c), c.Param("id")); err != nil {
		return response.Options{}, err
	}
	return noContent()
}
