// Tag HTTP handlers.
//
//   - GET    /tags        (paginated)
//   - GET    /tags/{id}
//   - POST   /tags
//   - PUT    /tags/{id}
//   - DELETE /tags/{id}
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/rescue-api/internal/http/response"
	"github.com/tbourn/rescue-api/internal/utils"
)

// MessageTagUpdated is the envelope message of a successful rename.
const MessageTagUpdated = "Tag updated."

// ListTags godoc
// @ID          listTags
// @Summary     List tags (paginated)
// @Tags        Tags
// @Produce     json
// @Param       page   query     int  false  "Page number"     minimum(1) default(1)
// @Param       limit  query     int  false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200    {object}  response.Envelope{data=[]domain.Tag}
// @Failure     400    {object}  response.ErrorBody
// @Router      /tags [get]
func (h *Handlers) ListTags(c *gin.Context) (response.Options, error) {
	q, err := query[ListQuery](c)
	if err != nil {
		return response.Options{}, err
	}
	p, limit, _ := utils.Clamp(q.Page, q.Limit)
	items, total, err := h.svc.Tags.ListPage(reqCtx(c), p, limit)
	if err != nil {
		return response.Options{}, err
	}
	return paged(items, p, limit, total)
}

// GetTag godoc
// @ID          getTag
// @Summary     Get a tag
// @Tags        Tags
// @Produce     json
// @Param       id   path      string  true  "Tag id (24 hex)"
// @Success     200  {object}  response.Envelope{data=domain.Tag}
// @Failure     404  {object}  response.ErrorBody
// @Router      /tags/{id} [get]
func (h *Handlers) GetTag(c *gin.Context) (response.Options, error) {
	t, err := h.svc.Tags.Get(reqCtx(c), c.Param("id"))
	if err != nil {
		return response.Options{}, err
	}
	return ok(t)
}

// CreateTag godoc
// @ID          createTag
// @Summary     Create a tag
// @Tags        Tags
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.TagRequest  true  "Tag payload"
// @Success     201   {object}  response.Envelope{data=domain.Tag}
// @Failure     400   {object}  response.ErrorBody
// @Router      /tags [post]
func (h *Handlers) CreateTag(c *gin.Context) (response.Options, error) {
	req, err := body[TagRequest](c)
	if err != nil {
		return response.Options{}, err
	}
	t, err := h.svc.Tags.Create(reqCtx(c), req.Name)
	if err != nil {
		return response.Options{}, err
	}
	return created(t)
}

// UpdateTag godoc
// @ID          updateTag
// @Summary     Rename a tag
// @Tags        Tags
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string               true  "Tag id (24 hex)"
// @Param       body  body      handlers.TagRequest  true  "New name"
// @Success     200   {object}  response.Envelope{data=domain.Tag}
// @Failure     400   {object}  response.ErrorBody
// @Failure     404   {object}  response.ErrorBody
// @Router      /tags/{id} [put]
func (h *Handlers) UpdateTag(c *gin.Context) (response.Options, error) {
	req, err := body[TagRequest](c)
	if err != nil {
		return response.Options{}, err
	}
	t, err := h.svc.Tags.Rename(reqCtx(c), c.Param("id"), req.Name)
	if err != nil {
		return response.Options{}, err
	}
	return response.Options{Data: t, Message: MessageTagUpdated}, nil
}

// DeleteTag godoc
// @ID          deleteTag
// @Summary     Delete a tag
// @Tags        Tags
// @Security    BearerAuth
// @Param       id  path  string  true  "Tag id (24 hex)"
// @Success     204
// @Failure     404  {object}  response.ErrorBody
// @Router      /tags/{id} [delete]
func (h *Handlers) DeleteTag(c *gin.Context) (response.Options, error) {
	if err := h.svc.Tags.Delete(reqCtx(c), c.Param("id")); err != nil {
		return response.Options{}, err
	}
	return noContent()
}
