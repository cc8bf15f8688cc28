package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/aims-edu/portal-api/internal/middleware"
	"github.com/aims-edu/portal-api/internal/models"
)

func accountFromContext(c *gin.Context) *models.UserAccount {
	return middleware.AccountFromContext(c)
}
