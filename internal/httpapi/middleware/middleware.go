// Package middleware holds the gin middleware the HTTP control plane
// wraps every route with: request-id stamping and the bearer/session
// auth check.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mailaggregator/mailaggregator/internal/auth"
)

// RequestID stamps every response with X-Request-Id, reusing a
// client-supplied value if present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// RequireAuth accepts either the static bearer token (settings.api_token)
// or a valid session token issued by password login. Every mutating
// endpoint requires one or the other.
func RequireAuth(tokens *auth.TokenManager, apiToken func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		if auth.CheckBearerToken(apiToken(), token) {
			c.Next()
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set("username", claims.Username)
		c.Next()
	}
}
