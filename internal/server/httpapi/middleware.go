package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"devfolio/internal/server/auth"
	"devfolio/internal/server/models"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
)

// authMiddleware validates the Bearer token and stores the caller's identity
// in the request context.
func authMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, NewAPIError(http.StatusUnauthorized, "missing bearer token"))
			return
		}

		claims, err := auth.ParseToken(token, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, NewAPIError(http.StatusUnauthorized, "invalid token"))
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// requireAdmin gates admin console routes. It must run after authMiddleware.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, NewAPIError(http.StatusForbidden, "admin role required"))
			return
		}
		c.Next()
	}
}

func callerID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}
