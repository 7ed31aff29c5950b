package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playpool/duelserver/internal/game"
)

// MatchLister exposes live matches to operators.
type MatchLister interface {
	ActiveMatches() []game.MatchSummary
}

// ConnectionCounter reports open gateway connections.
type ConnectionCounter interface {
	Connections() int
}

// GetActiveMatches lists every match that has not been settled yet.
func GetActiveMatches(m MatchLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		matches := m.ActiveMatches()
		c.JSON(http.StatusOK, gin.H{"matches": matches, "count": len(matches)})
	}
}

// GetAdminStats summarises live load.
func GetAdminStats(m MatchLister, q QueueStatusProvider, conns ConnectionCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		waiting := 0
		for _, n := range q.QueueStatus() {
			waiting += n
		}
		c.JSON(http.StatusOK, gin.H{
			"active_matches": len(m.ActiveMatches()),
			"waiting":        waiting,
			"connections":    conns.Connections(),
		})
	}
}
