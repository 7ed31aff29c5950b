package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/playpool/duelserver/internal/ws"
)

// HandleWebSocket upgrades the request onto the match gateway.
func HandleWebSocket(hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub.ServeWS(c.Writer, c.Request)
	}
}
