// Home and health endpoints.
//
//   - GET /        (summary of users, NGOs and cases)
//   - GET /health  (liveness)
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/rescue-api/internal/http/response"
)

// Health is the liveness payload.
type Health struct {
	Status string `json:"status" example:"ok"`
}

// Home godoc
// @ID          home
// @Summary     API summary
// @Description Returns row counts and last-update times of users, NGOs and cases.
// @Tags        Home
// @Produce     json
// @Success     200  {object}  response.Envelope{data=repo.Summary}
// @Failure     500  {object}  response.ErrorBody
// @Router      / [get]
func (h *Handlers) Home(c *gin.Context) (response.Options, error) {
	if h.svc.Stats == nil {
		return ok(nil)
	}
	s, err := h.svc.Stats(reqCtx(c))
	if err != nil {
		return response.Options{}, err
	}
	return ok(s)
}

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Tags        Home
// @Produce     json
// @Success     200  {object}  response.Envelope{data=handlers.Health}
// @Router      /health [get]
func (h *Handlers) Health(*gin.Context) (response.Options, error) {
	return ok(Health{Status: "ok"})
}
