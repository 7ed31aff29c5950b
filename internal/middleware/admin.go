package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/playpool/duelserver/internal/auth"
)

// AdminAuth guards operator routes with a bearer token checked against a
// bcrypt hash. With no hash configured every request is refused.
func AdminAuth(tokenHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Admin-Token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if tokenHash == "" || !auth.VerifyAdminToken(tokenHash, token) {
			log.Printf("[ADMIN] unauthorized %s %s from %s", c.Request.Method, c.FullPath(), c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
