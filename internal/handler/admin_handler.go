package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aims-edu/portal-api/internal/dto"
	"github.com/aims-edu/portal-api/internal/service"
	appErrors "github.com/aims-edu/portal-api/pkg/errors"
	"github.com/aims-edu/portal-api/pkg/response"
)

// AdminHandler exposes the admin console endpoints for reviewing
// requests and managing accounts.
type AdminHandler struct {
	ledger *service.LedgerService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(ledger *service.LedgerService) *AdminHandler {
	return &AdminHandler{ledger: ledger}
}

// ListRequests godoc
// @Summary List pending access requests
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/requests [get]
func (h *AdminHandler) ListRequests(c *gin.Context) {
	items, err := h.ledger.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, nil)
}

// ApproveRequest godoc
// @Summary Approve a pending request
// @Description Grant the email a student account scoped to a class level and subject
// @Tags Admin
// @Accept json
// @Produce json
// @Param email path string true "Requester email"
// @Param payload body dto.ApproveRequest true "Scope to grant"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/requests/{email}/approve [post]
func (h *AdminHandler) ApproveRequest(c *gin.Context) {
	var req dto.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
		return
	}

	if err := h.ledger.Approve(c.Request.Context(), c.Param("email"), req, accountFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"message": "request approved"}, nil)
}

// RejectRequest godoc
// @Summary Reject a pending request
// @Description Remove the pending request; the visitor may request again later
// @Tags Admin
// @Produce json
// @Param email path string true "Requester email"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/requests/{email}/reject [post]
func (h *AdminHandler) RejectRequest(c *gin.Context) {
	if err := h.ledger.Reject(c.Request.Context(), c.Param("email"), accountFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"message": "request rejected"}, nil)
}

// ListUsers godoc
// @Summary List managed accounts
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	items, err := h.ledger.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, nil)
}

// ExportUsers godoc
// @Summary Export the managed account roster
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /admin/users/export [get]
func (h *AdminHandler) ExportUsers(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	out, contentType, err := h.ledger.ExportUsers(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	ext := "csv"
	if contentType == "application/pdf" {
		ext = "pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="user-ledger.`+ext+`"`)
	c.Data(http.StatusOK, contentType, out)
}

// UpdateUser godoc
// @Summary Reassign a student's class level or subject
// @Tags Admin
// @Accept json
// @Produce json
// @Param email path string true "Student email"
// @Param payload body dto.UpdateUserRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{email} [patch]
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}

	if err := h.ledger.UpdateUser(c.Request.Context(), c.Param("email"), req, accountFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"message": "user updated"}, nil)
}

// RevokeUser godoc
// @Summary Revoke a student's access
// @Description The account survives with role revoked; restore re-grants it
// @Tags Admin
// @Produce json
// @Param email path string true "Student email"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{email}/revoke [post]
func (h *AdminHandler) RevokeUser(c *gin.Context) {
	if err := h.ledger.Revoke(c.Request.Context(), c.Param("email"), accountFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"message": "access revoked"}, nil)
}

// RestoreUser godoc
// @Summary Restore a revoked account
// @Description Re-grant access with a fresh class level and subject
// @Tags Admin
// @Accept json
// @Produce json
// @Param email path string true "Student email"
// @Param payload body dto.RestoreUserRequest true "Scope to grant"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{email}/restore [post]
func (h *AdminHandler) RestoreUser(c *gin.Context) {
	var req dto.RestoreUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid restore payload"))
		return
	}

	if err := h.ledger.Restore(c.Request.Context(), c.Param("email"), req, accountFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"message": "access restored"}, nil)
}
