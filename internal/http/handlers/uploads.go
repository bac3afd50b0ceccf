// Upload HTTP handlers.
//
//   - POST /uploads/avatar  (multipart, one image)
//   - GET  /uploads/{id}
//   - PUT  /uploads/{id}
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rescue-api/internal/apperror"
	"github.com/tbourn/rescue-api/internal/domain"
	"github.com/tbourn/rescue-api/internal/http/middleware"
	"github.com/tbourn/rescue-api/internal/http/response"
	"github.com/tbourn/rescue-api/internal/services"
	"github.com/tbourn/rescue-api/internal/validation"
)

// multipartSlack is the room left for multipart framing and other parts on
// top of the file cap.
const multipartSlack = 64 << 10

// UploadAvatar godoc
// @ID          uploadAvatar
// @Summary     Upload an avatar
// @Description Stores one .png, .jpg or .jpeg image for the current user.
// @Tags        Uploads
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       avatar  formData  file  true  "Image file"
// @Success     201     {object}  response.Envelope{data=domain.Upload}
// @Failure     400     {object}  response.ErrorBody  "Only .png, .jpg and .jpeg format allowed"
// @Failure     413     {object}  response.ErrorBody
// @Router      /uploads/avatar [post]
func (h *Handlers) UploadAvatar(c *gin.Context) (response.Options, error) {
	field := h.opts.AvatarField
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes+multipartSlack)
	}
	if err := c.Request.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return response.Options{}, middleware.NewBodyError(middleware.BodyTooLarge, err)
		}
		return response.Options{}, fileFieldError(field, fmt.Sprintf(`"%s" is required`, field)).Wrap(err)
	}
	defer c.Request.MultipartForm.RemoveAll()

	files := c.Request.MultipartForm.File[field]
	switch len(files) {
	case 0:
		return response.Options{}, fileFieldError(field, fmt.Sprintf(`"%s" is required`, field))
	case 1:
	default:
		return response.Options{}, fileFieldError(field, fmt.Sprintf(`"%s" must contain exactly one file`, field))
	}

	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return response.Options{}, err
	}
	defer f.Close()

	u, err := h.svc.Uploads.Avatar(reqCtx(c), middleware.UserID(c), services.FileInput{
		Name:   fh.Filename,
		Size:   fh.Size,
		Reader: f,
	})
	if err != nil {
		return response.Options{}, err
	}
	return created(u)
}

func fileFieldError(field, msg string) *apperror.Error {
	return apperror.BadRequest(apperror.Fields{field: msg}).WithMessage(validation.InvalidDataMessage)
}

// GetUpload godoc
// @ID          getUpload
// @Summary     Get upload metadata
// @Tags        Uploads
// @Produce     json
// @Param       id   path      string  true  "Upload id (24 hex)"
// @Success     200  {object}  response.Envelope{data=domain.Upload}
// @Failure     404  {object}  response.ErrorBody
// @Router      /uploads/{id} [get]
func (h *Handlers) GetUpload(c *gin.Context) (response.Options, error) {
	u, err := h.svc.Uploads.Get(reqCtx(c), c.Param("id"))
	if err != nil {
		return response.Options{}, err
	}
	return ok(u)
}

// UpdateUpload godoc
// @ID          updateUpload
// @Summary     Update upload metadata
// @Tags        Uploads
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string                        true  "Upload id (24 hex)"
// @Param       body  body      handlers.UpdateUploadRequest  true  "Changes"
// @Success     200   {object}  response.Envelope{data=domain.Upload}
// @Failure     400   {object}  response.ErrorBody
// @Failure     404   {object}  response.ErrorBody
// @Router      /uploads/{id} [put]
func (h *Handlers) UpdateUpload(c *gin.Context) (response.Options, error) {
	req, err := body[UpdateUploadRequest](c)
	if err != nil {
		return response.Options{}, err
	}
	p := services.UploadPatch{Title: req.Title}
	if r := req.Referer; r != nil {
		p.Referer = &domain.Referer{Type: r.Type, Object: r.Object}
	}
	u, err := h.svc.Uploads.Update(reqCtx(c), c.Param("id"), p)
	if err != nil {
		return response.Options{}, err
	}
	return ok(u)
}
