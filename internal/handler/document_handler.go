package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aims-edu/portal-api/internal/service"
	appErrors "github.com/aims-edu/portal-api/pkg/errors"
	"github.com/aims-edu/portal-api/pkg/response"
)

// DocumentHandler exposes study material endpoints.
type DocumentHandler struct {
	documents *service.DocumentService
	maxUpload int64
}

// NewDocumentHandler creates a new handler. maxUpload bounds the
// multipart body before the service sees it.
func NewDocumentHandler(documents *service.DocumentService, maxUpload int64) *DocumentHandler {
	return &DocumentHandler{documents: documents, maxUpload: maxUpload}
}

// Upload godoc
// @Summary Upload a study material
// @Description Store a PDF scoped to a class level and subject
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Param class_level formData string true "Class level"
// @Param subject formData string true "Subject"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+1)

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file field is required"))
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read upload"))
		return
	}
	defer src.Close() //nolint:errcheck

	item, err := h.documents.Upload(c.Request.Context(), service.UploadInput{
		Filename:   file.Filename,
		Size:       file.Size,
		Body:       src,
		ClassLevel: c.PostForm("class_level"),
		Subject:    c.PostForm("subject"),
	}, accountFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, item)
}

// Delete godoc
// @Summary Delete a study material
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), c.Param("id"), accountFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListMine godoc
// @Summary List my study materials
// @Description List the documents for the caller's assigned class and subject
// @Tags Documents
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) ListMine(c *gin.Context) {
	items, err := h.documents.ListForStudent(c.Request.Context(), accountFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, nil)
}

// ListAll godoc
// @Summary List all study materials
// @Tags Documents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/documents [get]
func (h *DocumentHandler) ListAll(c *gin.Context) {
	items, err := h.documents.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, nil)
}

// Download godoc
// @Summary Download a study material
// @Tags Documents
// @Produce application/pdf
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /documents/{id}/file [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	doc, body, err := h.documents.Fetch(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer body.Close() //nolint:errcheck

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.OriginalName))
	c.DataFromReader(http.StatusOK, doc.SizeBytes, doc.MimeType, body, nil)
}
