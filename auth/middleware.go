package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// Middleware authenticates requests via the Authorization Bearer header and
// stores the caller's user ID in the gin context. Handlers behind it can
// call MustUserID without re-checking.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
			return
		}

		claims, err := ValidateToken(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// MustUserID returns the authenticated user's ID. Only valid behind
// Middleware; elsewhere it returns the empty string.
func MustUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
