// Case history HTTP handlers.
//
//   - GET  /case-histories/{id}
//   - POST /case-histories
//   - PUT  /case-histories/{id}
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/rescue-api/internal/http/middleware"
	"github.com/tbourn/rescue-api/internal/http/response"
	"github.com/tbourn/rescue-api/internal/services"
)

// GetCaseHistory godoc
// @ID          getCaseHistory
// @Summary     Get a case history entry
// @Tags        CaseHistory
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Entry id (24 hex)"
// @Success     200  {object}  response.Envelope{data=domain.CaseHistory}
// @Failure     404  {object}  response.ErrorBody
// @Router      /case-histories/{id} [get]
func (h *Handlers) GetCaseHistory(c *gin.Context) (response.Options, error) {
	e, err := h.svc.CaseHistory.Get(reqCtx(c), c.Param("id"))
	if err != nil {
		return response.Options{}, err
	}
	return ok(e)
}

// CreateCaseHistory godoc
// @ID          createCaseHistory
// @Summary     Add a case history entry
// @Tags        CaseHistory
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.CreateCaseHistoryRequest  true  "Entry payload"
// @Success     201   {object}  response.Envelope{data=domain.CaseHistory}
// @Failure     400   {object}  response.ErrorBody
// @Failure     404   {object}  response.ErrorBody  "Case or assignee does not exist"
// @Router      /case-histories [post]
func (h *Handlers) CreateCaseHistory(c *gin.Context) (response.Options, error) {
	req, err := body[CreateCaseHistoryRequest](c)
	if err != nil {
		return response.Options{}, err
	}
	e, err := h.svc.CaseHistory.Create(reqCtx(c), middleware.UserID(c), services.CaseHistoryInput{
		Description: req.Description,
		Case:        req.Case,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		return response.Options{}, err
	}
	return created(e)
}

// UpdateCaseHistory godoc
// @ID          updateCaseHistory
// @Summary     Update a case history entry
// @Tags        CaseHistory
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string                             true  "Entry id (24 hex)"
// @Param       body  body      handlers.UpdateCaseHistoryRequest  true  "Changes"
// @Success     200   {object}  response.Envelope{data=domain.CaseHistory}
// @Failure     400   {object}  response.ErrorBody
// @Failure     404   {object}  response.ErrorBody
// @Router      /case-histories/{id} [put]
func (h *Handlers) UpdateCaseHistory(c *gin.Context) (response.Options, error) {
	req, err := body[UpdateCaseHistoryRequest](c)
	if err != nil {
		return response.Options{}, err
	}
	e, err := h.svc.CaseHistory.Update(reqCtx(c), c.Param("id"), services.CaseHistoryPatch{
		Description: req.Description,
		Case:        req.Case,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		return response.Options{}, err
	}
	return ok(e)
}
