package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"invox/internal/auth"
	"invox/internal/domain"
)

const (
	ContextKeyOwnerIdentity = "owner_identity"
)

// AuthMiddleware returns Gin middleware that validates bearer tokens and
// injects the caller identity into the request context.
func AuthMiddleware(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid authorization header"},
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		identity, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid or expired token"},
			})
			return
		}

		c.Set(ContextKeyOwnerIdentity, identity)
		c.Next()
	}
}

// GetOwnerIdentity extracts the caller identity from the Gin context.
func GetOwnerIdentity(c *gin.Context) (string, error) {
	val, exists := c.Get(ContextKeyOwnerIdentity)
	if !exists {
		return "", domain.ErrUnauthorized
	}
	return val.(string), nil
}
