package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/playpool/duelserver/internal/api/handlers"
	"github.com/playpool/duelserver/internal/auth"
	"github.com/playpool/duelserver/internal/config"
	"github.com/playpool/duelserver/internal/game"
	"github.com/playpool/duelserver/internal/ledger"
	"github.com/playpool/duelserver/internal/middleware"
	"github.com/playpool/duelserver/internal/ws"
)

// Deps are the long-lived components the routes are served from.
type Deps struct {
	Config  *config.Config
	Manager *game.Manager
	Hub     *ws.Hub
	Ledger  ledger.Ledger
	Tokens  *auth.TokenVerifier
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps) {
	cfg := d.Config
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	router.GET("/health", handlers.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.GET("/queue/status", handlers.GetQueueStatus(d.Manager))
		v1.GET("/accounts/:id/balance", handlers.GetAccountBalance(d.Ledger))
		v1.GET("/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleWebSocket(d.Hub))

		if cfg.Environment != "production" && d.Tokens != nil {
			v1.POST("/dev/token", handlers.IssueDevToken(d.Tokens))
			log.Println("[DEV MODE] /api/v1/dev/token enabled")
		}

		admin := v1.Group("/admin", middleware.AdminAuth(cfg.AdminTokenHash))
		{
			admin.GET("/matches", handlers.GetActiveMatches(d.Manager))
			admin.GET("/stats", handlers.GetAdminStats(d.Manager, d.Manager, d.Hub))
		}
	}
}
