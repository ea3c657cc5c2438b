package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// context key for the authenticated user's claims
const contextClaimsKey = "auth_claims"

// Middleware returns a gin middleware that requires a valid Bearer access
// token and stores its claims on the request context.
func Middleware(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Authentication credentials were not provided",
			})
			return
		}

		claims, err := tokens.ValidateAccess(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid or expired token",
			})
			return
		}

		c.Set(contextClaimsKey, claims)
		c.Next()
	}
}

// CurrentClaims returns the authenticated claims stored by Middleware
func CurrentClaims(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(contextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

// CurrentUserID returns the authenticated user's id, or 0 when the
// request is unauthenticated
func CurrentUserID(c *gin.Context) int64 {
	claims, ok := CurrentClaims(c)
	if !ok {
		return 0
	}
	return claims.UserID
}
