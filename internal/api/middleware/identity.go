package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// UserIDHeader carries the already-authenticated caller identity. The
	// ledger trusts this header; authentication happens upstream.
	UserIDHeader = "X-User-ID"

	// UserIDKey is the key used to store the caller identity in the context
	UserIDKey = "user_id"
)

// RequireUser middleware extracts the caller identity from the X-User-ID
// header and rejects requests that omit it or carry a malformed UUID
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "MISSING_USER_IDENTITY",
					"message": "X-User-ID header is required",
				},
			})
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "INVALID_USER_IDENTITY",
					"message": "X-User-ID header must be a UUID",
				},
			})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// GetUserID retrieves the caller identity from the gin context. The zero
// UUID means RequireUser did not run on this route.
func GetUserID(c *gin.Context) uuid.UUID {
	if id, exists := c.Get(UserIDKey); exists {
		if userID, ok := id.(uuid.UUID); ok {
			return userID
		}
	}
	return uuid.Nil
}
