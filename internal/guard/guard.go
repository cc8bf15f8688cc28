package guard

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/aims-edu/portal-api/internal/models"
	appErrors "github.com/aims-edu/portal-api/pkg/errors"
)

// RouteClass classifies a route by the access it demands. Every route
// in the API belongs to exactly one class, and every protected request
// flows through Guard.Authorize. There is no per-route policy code
// anywhere else.
type RouteClass int

const (
	// RoutePublic needs no identity at all.
	RoutePublic RouteClass = iota
	// RouteAuthenticated needs any signed-in, non-revoked account.
	RouteAuthenticated
	// RouteStudent needs a student account. Admins pass too.
	RouteStudent
	// RouteAdmin needs an admin account.
	RouteAdmin
)

// Effect is the outcome kind of an authorization decision.
type Effect int

const (
	EffectAllow Effect = iota
	EffectRedirect
	EffectDeny
)

// Redirect targets for browser-oriented clients. API clients receive
// them in the error envelope's meta and decide for themselves.
const (
	TargetLogin         = "/login"
	TargetRequestAccess = "/request-access"
)

// Decision is the result of an authorization check. On Allow, Account
// carries the freshly loaded account so handlers never re-resolve it.
type Decision struct {
	Effect  Effect
	Target  string
	Err     *appErrors.Error
	Account *models.UserAccount
}

func allow(account *models.UserAccount) Decision {
	return Decision{Effect: EffectAllow, Account: account}
}

func redirect(target string, err *appErrors.Error) Decision {
	return Decision{Effect: EffectRedirect, Target: target, Err: err}
}

func deny(err *appErrors.Error) Decision {
	return Decision{Effect: EffectDeny, Err: err}
}

// AccountResolver loads the current account for an email.
type AccountResolver interface {
	FindByEmail(ctx context.Context, email string) (*models.UserAccount, error)
}

// Guard is the single authorization decision point. It re-reads the
// account on every check instead of trusting the role baked into the
// token, so a revocation takes effect on the very next request.
type Guard struct {
	accounts AccountResolver
	logger   *zap.Logger
}

// New constructs a Guard.
func New(accounts AccountResolver, logger *zap.Logger) *Guard {
	return &Guard{accounts: accounts, logger: logger}
}

// Authorize decides whether the given identity may use a route of the
// given class. A nil identity means the request carried no valid token.
func (g *Guard) Authorize(ctx context.Context, identity *models.Identity, route RouteClass) Decision {
	if route == RoutePublic {
		return allow(nil)
	}

	if identity == nil {
		return redirect(TargetLogin, appErrors.ErrUnauthorized)
	}

	account, err := g.accounts.FindByEmail(ctx, identity.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The token outlived the account. Treat as signed out.
			return redirect(TargetLogin, appErrors.ErrUnauthorized)
		}
		g.logger.Error("guard account lookup failed", zap.String("email", identity.Email), zap.Error(err))
		return deny(appErrors.ErrServiceUnavailable)
	}

	if account.Role == models.RoleRevoked {
		return redirect(TargetRequestAccess, appErrors.ErrAccessRevoked)
	}

	switch route {
	case RouteAuthenticated:
		return allow(account)
	case RouteStudent:
		if account.Role == models.RoleStudent || account.Role == models.RoleAdmin {
			return allow(account)
		}
	case RouteAdmin:
		if account.Role == models.RoleAdmin {
			return allow(account)
		}
	}

	return deny(appErrors.ErrForbidden)
}
