package middlewares

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tribodata/oilwatch_backend/config"
	"github.com/tribodata/oilwatch_backend/utils"
)

// SessionMiddleware resolves the token header against the redis session
// store and hangs the session identity on the request context. Requests
// without a token pass through; handlers decide whether they need one.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		// The redis entry proves the session exists; the signature check
		// catches tokens that outlived an API_SECRET rotation.
		parsed, err := utils.JwtValidate(token)
		if err != nil || !parsed.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := context.WithValue(c.Request.Context(), utils.ContextKeyToken, token)
		ctx = context.WithValue(ctx, utils.ContextKeyUsername, username)
		if claims, ok := parsed.Claims.(*utils.JwtCustomClaim); ok {
			ctx = context.WithValue(ctx, utils.ContextKeyUserId, claims.ID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
