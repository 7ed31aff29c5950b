package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const devTokenTTL = 24 * time.Hour

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	IssueToken(accountID string, ttl time.Duration) (string, error)
}

// IssueDevToken signs an identity token for any account. Only mounted
// outside production.
func IssueDevToken(issuer TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			AccountID string `json:"account_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "account_id required"})
			return
		}
		token, err := issuer.IssueToken(req.AccountID, devTokenTTL)
		if err != nil {
			log.Printf("Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "expires_in": int(devTokenTTL.Seconds())})
	}
}
