package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playpool/duelserver/internal/ledger"
)

// BalanceReader is the read side of the ledger.
type BalanceReader interface {
	Balance(ctx context.Context, accountID string) (int64, error)
}

// GetAccountBalance returns the spendable balance of an account.
func GetAccountBalance(l BalanceReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.Param("id")
		balance, err := l.Balance(c.Request.Context(), accountID)
		if errors.Is(err, ledger.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		if err != nil {
			log.Printf("[ACCOUNTS] balance lookup for %s failed: %v", accountID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"account_id": accountID, "balance": balance})
	}
}
