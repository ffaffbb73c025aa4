package middleware

import (
	"net/http"
	"strings"

	"github.com/chiebuka-eze/msgcore/internal/auth"
	"github.com/gin-gonic/gin"
)

// Context keys for claims stored by AuthMiddleware.
const (
	ContextKeyMemberID = "member_id"
	ContextKeyOrgID    = "org_id"
	ContextKeyEmail    = "email"
)

// AuthMiddleware validates the bearer token and stores the member
// identity in the request context. Requests without a valid token
// never reach a handler.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization format, expected: Bearer <token>",
			})
			return
		}

		claims, err := auth.ParseToken(parts[1], secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyMemberID, claims.MemberID)
		c.Set(ContextKeyOrgID, claims.OrgID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Next()
	}
}

// GetMemberID returns the authenticated member id, or "" when absent.
func GetMemberID(c *gin.Context) string {
	return getString(c, ContextKeyMemberID)
}

// GetOrgID returns the authenticated org id, or "" when absent.
func GetOrgID(c *gin.Context) string {
	return getString(c, ContextKeyOrgID)
}

func getString(c *gin.Context, key string) string {
	val, exists := c.Get(key)
	if !exists {
		return ""
	}
	s, ok := val.(string)
	if !ok {
		return ""
	}
	return s
}
