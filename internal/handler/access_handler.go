package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aims-edu/portal-api/internal/dto"
	"github.com/aims-edu/portal-api/internal/service"
	appErrors "github.com/aims-edu/portal-api/pkg/errors"
	"github.com/aims-edu/portal-api/pkg/response"
)

// AccessHandler exposes the public request-access endpoints.
type AccessHandler struct {
	ledger *service.LedgerService
}

// NewAccessHandler creates a new handler.
func NewAccessHandler(ledger *service.LedgerService) *AccessHandler {
	return &AccessHandler{ledger: ledger}
}

// SubmitRequest godoc
// @Summary Request portal access
// @Description Submit an email for admin review; requires a captcha token
// @Tags Access
// @Accept json
// @Produce json
// @Param payload body dto.SubmitAccessRequest true "Access request payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /access/requests [post]
func (h *AccessHandler) SubmitRequest(c *gin.Context) {
	var req dto.SubmitAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid access request payload"))
		return
	}

	ack, err := h.ledger.SubmitRequest(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusAccepted, ack, nil)
}

// CheckStatus godoc
// @Summary Check approval status
// @Description Report whether an email is approved, pending, revoked or unknown
// @Tags Access
// @Produce json
// @Param email query string true "Email to check"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /access/status [get]
func (h *AccessHandler) CheckStatus(c *gin.Context) {
	status, err := h.ledger.CheckStatus(c.Request.Context(), c.Query("email"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, status, nil)
}
