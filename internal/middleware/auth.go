package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aims-edu/portal-api/internal/models"
	appErrors "github.com/aims-edu/portal-api/pkg/errors"
	"github.com/aims-edu/portal-api/pkg/response"
)

// Context keys for the authenticated caller.
const (
	ContextIdentityKey = "currentIdentity"
	ContextClaimsKey   = "currentClaims"
)

// TokenValidator parses and verifies an access token.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// Authenticate resolves the caller's identity from the Authorization
// header. A missing header leaves the identity unset so the guard can
// decide per route class. A present but invalid token is rejected
// outright.
func Authenticate(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Set(ContextIdentityKey, &models.Identity{UserID: claims.UserID, Email: claims.Email})
		c.Next()
	}
}

// IdentityFromContext returns the identity set by Authenticate, or nil.
func IdentityFromContext(c *gin.Context) *models.Identity {
	value, exists := c.Get(ContextIdentityKey)
	if !exists {
		return nil
	}
	identity, ok := value.(*models.Identity)
	if !ok {
		return nil
	}
	return identity
}
