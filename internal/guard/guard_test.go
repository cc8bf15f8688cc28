package guard

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aims-edu/portal-api/internal/models"
	appErrors "github.com/aims-edu/portal-api/pkg/errors"
)

type stubResolver struct {
	account *models.UserAccount
	err     error
}

func (s *stubResolver) FindByEmail(ctx context.Context, email string) (*models.UserAccount, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.account, nil
}

func studentAccount() *models.UserAccount {
	class := "Class 10"
	subject := "Math"
	return &models.UserAccount{
		ID:         "acc-1",
		Email:      "student@example.com",
		Role:       models.RoleStudent,
		ClassLevel: &class,
		Subject:    &subject,
	}
}

func TestGuardPublicRouteNeedsNothing(t *testing.T) {
	g := New(&stubResolver{err: errors.New("must not be called")}, zap.NewNop())

	decision := g.Authorize(context.Background(), nil, RoutePublic)
	require.Equal(t, EffectAllow, decision.Effect)
}

func TestGuardMissingIdentityRedirectsToLogin(t *testing.T) {
	g := New(&stubResolver{}, zap.NewNop())

	decision := g.Authorize(context.Background(), nil, RouteStudent)
	require.Equal(t, EffectRedirect, decision.Effect)
	require.Equal(t, TargetLogin, decision.Target)
	require.Equal(t, appErrors.ErrUnauthorized, decision.Err)
}

func TestGuardStudentAllowedOnStudentRoute(t *testing.T) {
	g := New(&stubResolver{account: studentAccount()}, zap.NewNop())

	decision := g.Authorize(context.Background(), &models.Identity{UserID: "acc-1", Email: "student@example.com"}, RouteStudent)
	require.Equal(t, EffectAllow, decision.Effect)
	require.NotNil(t, decision.Account)
	require.Equal(t, models.RoleStudent, decision.Account.Role)
}

func TestGuardStudentDeniedOnAdminRoute(t *testing.T) {
	g := New(&stubResolver{account: studentAccount()}, zap.NewNop())

	decision := g.Authorize(context.Background(), &models.Identity{UserID: "acc-1", Email: "student@example.com"}, RouteAdmin)
	require.Equal(t, EffectDeny, decision.Effect)
	require.Equal(t, appErrors.ErrForbidden, decision.Err)
}

func TestGuardAdminAllowedOnStudentRoute(t *testing.T) {
	admin := &models.UserAccount{ID: "acc-9", Email: "admin@example.com", Role: models.RoleAdmin}
	g := New(&stubResolver{account: admin}, zap.NewNop())

	decision := g.Authorize(context.Background(), &models.Identity{UserID: "acc-9", Email: "admin@example.com"}, RouteStudent)
	require.Equal(t, EffectAllow, decision.Effect)
}

func TestGuardRevocationBeatsStaleToken(t *testing.T) {
	// The token was minted while the account was still a student. The
	// guard reads the current role, so the stale token buys nothing.
	revoked := studentAccount()
	revoked.Role = models.RoleRevoked
	g := New(&stubResolver{account: revoked}, zap.NewNop())

	decision := g.Authorize(context.Background(), &models.Identity{UserID: "acc-1", Email: "student@example.com"}, RouteStudent)
	require.Equal(t, EffectRedirect, decision.Effect)
	require.Equal(t, TargetRequestAccess, decision.Target)
	require.Equal(t, appErrors.ErrAccessRevoked, decision.Err)
}

func TestGuardDeletedAccountTreatedAsSignedOut(t *testing.T) {
	g := New(&stubResolver{err: sql.ErrNoRows}, zap.NewNop())

	decision := g.Authorize(context.Background(), &models.Identity{UserID: "acc-1", Email: "gone@example.com"}, RouteAuthenticated)
	require.Equal(t, EffectRedirect, decision.Effect)
	require.Equal(t, TargetLogin, decision.Target)
}

func TestGuardStoreFailureFailsClosed(t *testing.T) {
	g := New(&stubResolver{err: errors.New("connection refused")}, zap.NewNop())

	decision := g.Authorize(context.Background(), &models.Identity{UserID: "acc-1", Email: "student@example.com"}, RouteStudent)
	require.Equal(t, EffectDeny, decision.Effect)
	require.Equal(t, appErrors.ErrServiceUnavailable, decision.Err)
}
