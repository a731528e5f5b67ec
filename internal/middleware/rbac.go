package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/lumina-interiors/consultations-api/internal/models"
	appErrors "github.com/lumina-interiors/consultations-api/pkg/errors"
	"github.com/lumina-interiors/consultations-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes. The admin
// surface never returns partial or redacted data; a caller without the
// required role is rejected outright.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
