package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aims-edu/portal-api/internal/middleware"
	"github.com/aims-edu/portal-api/internal/models"
)

func adminContext(recorder *httptest.ResponseRecorder) (*gin.Context, *models.UserAccount) {
	c, _ := gin.CreateTestContext(recorder)
	admin := &models.UserAccount{ID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin}
	c.Set(middleware.ContextAccountKey, admin)
	return c, admin
}

func TestAdminHandlerApproveRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	notify := &stubNotifier{}
	ledger := newTestLedger(&stubRequestRepo{markApprovedOK: true}, &stubAccountRepo{}, notify)
	h := NewAdminHandler(ledger)

	recorder := httptest.NewRecorder()
	c, _ := adminContext(recorder)
	c.Params = gin.Params{{Key: "email", Value: "visitor@example.com"}}
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/requests/visitor@example.com/approve",
		strings.NewReader(`{"class_level":"Class 10","subject":"Math"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.ApproveRequest(c)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, notify.kinds, 1)
}

func TestAdminHandlerApproveNonPendingConflicts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ledger := newTestLedger(&stubRequestRepo{markApprovedOK: false}, &stubAccountRepo{}, &stubNotifier{})
	h := NewAdminHandler(ledger)

	recorder := httptest.NewRecorder()
	c, _ := adminContext(recorder)
	c.Params = gin.Params{{Key: "email", Value: "visitor@example.com"}}
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/requests/visitor@example.com/approve",
		strings.NewReader(`{"class_level":"Class 10","subject":"Math"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.ApproveRequest(c)

	require.Equal(t, http.StatusConflict, recorder.Code)
}

func TestAdminHandlerApproveUnknownScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ledger := newTestLedger(&stubRequestRepo{markApprovedOK: true}, &stubAccountRepo{}, &stubNotifier{})
	h := NewAdminHandler(ledger)

	recorder := httptest.NewRecorder()
	c, _ := adminContext(recorder)
	c.Params = gin.Params{{Key: "email", Value: "visitor@example.com"}}
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/requests/visitor@example.com/approve",
		strings.NewReader(`{"class_level":"Class 11","subject":"Math"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.ApproveRequest(c)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAdminHandlerRejectRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	notify := &stubNotifier{}
	ledger := newTestLedger(&stubRequestRepo{deleteOK: true}, &stubAccountRepo{}, notify)
	h := NewAdminHandler(ledger)

	recorder := httptest.NewRecorder()
	c, _ := adminContext(recorder)
	c.Params = gin.Params{{Key: "email", Value: "visitor@example.com"}}
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/requests/visitor@example.com/reject", nil)

	h.RejectRequest(c)

	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestAdminHandlerRevokeMissingStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ledger := newTestLedger(&stubRequestRepo{}, &stubAccountRepo{revokeOK: false}, &stubNotifier{})
	h := NewAdminHandler(ledger)

	recorder := httptest.NewRecorder()
	c, _ := adminContext(recorder)
	c.Params = gin.Params{{Key: "email", Value: "nobody@example.com"}}
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/users/nobody@example.com/revoke", nil)

	h.RevokeUser(c)

	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestAdminHandlerListUsers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	class := "Class 10"
	subject := "Math"
	accounts := &stubAccountRepo{accounts: []models.UserAccount{{
		Email: "student@example.com", Role: models.RoleStudent, ClassLevel: &class, Subject: &subject,
	}}}
	ledger := newTestLedger(&stubRequestRepo{}, accounts, &stubNotifier{})
	h := NewAdminHandler(ledger)

	recorder := httptest.NewRecorder()
	c, _ := adminContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/users", nil)

	h.ListUsers(c)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "student@example.com")
}
