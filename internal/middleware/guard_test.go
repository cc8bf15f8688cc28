package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aims-edu/portal-api/internal/guard"
	"github.com/aims-edu/portal-api/internal/models"
)

type stubAccounts struct {
	account *models.UserAccount
	err     error
}

func (s *stubAccounts) FindByEmail(ctx context.Context, email string) (*models.UserAccount, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.account, nil
}

func protectedRouter(accounts *stubAccounts, route guard.RouteClass, identity *models.Identity) *gin.Engine {
	g := guard.New(accounts, zap.NewNop())
	router := gin.New()
	router.GET("/protected",
		func(c *gin.Context) {
			if identity != nil {
				c.Set(ContextIdentityKey, identity)
			}
			c.Next()
		},
		Authorize(g, route),
		func(c *gin.Context) {
			account := AccountFromContext(c)
			c.JSON(http.StatusOK, gin.H{"email": account.Email})
		},
	)
	return router
}

func TestAuthorizeMissingTokenRedirectsToLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := protectedRouter(&stubAccounts{err: sql.ErrNoRows}, guard.RouteStudent, nil)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/protected", nil))

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"redirect":"/login"`)
}

func TestAuthorizeRevokedAccountRedirectsToRequestAccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	accounts := &stubAccounts{account: &models.UserAccount{
		ID: "acc-1", Email: "student@example.com", Role: models.RoleRevoked,
	}}
	router := protectedRouter(accounts, guard.RouteStudent, &models.Identity{UserID: "acc-1", Email: "student@example.com"})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/protected", nil))

	require.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "ACCESS_REVOKED")
	assert.Contains(t, recorder.Body.String(), `"redirect":"/request-access"`)
}

func TestAuthorizeAllowedAccountReachesHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	accounts := &stubAccounts{account: &models.UserAccount{
		ID: "acc-1", Email: "student@example.com", Role: models.RoleStudent,
	}}
	router := protectedRouter(accounts, guard.RouteStudent, &models.Identity{UserID: "acc-1", Email: "student@example.com"})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/protected", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "student@example.com")
}

func TestAuthorizeStudentDeniedAdminRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	accounts := &stubAccounts{account: &models.UserAccount{
		ID: "acc-1", Email: "student@example.com", Role: models.RoleStudent,
	}}
	router := protectedRouter(accounts, guard.RouteAdmin, &models.Identity{UserID: "acc-1", Email: "student@example.com"})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/protected", nil))

	require.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "FORBIDDEN")
}
