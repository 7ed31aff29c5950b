package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/decred/slog"
	"github.com/gin-gonic/gin"
	"github.com/playpool/duelserver/internal/api"
	"github.com/playpool/duelserver/internal/auth"
	"github.com/playpool/duelserver/internal/config"
	"github.com/playpool/duelserver/internal/database"
	"github.com/playpool/duelserver/internal/events"
	"github.com/playpool/duelserver/internal/game"
	"github.com/playpool/duelserver/internal/ledger"
	"github.com/playpool/duelserver/internal/logging"
	"github.com/playpool/duelserver/internal/migrations"
	"github.com/playpool/duelserver/internal/redis"
	"github.com/playpool/duelserver/internal/ws"
)

func main() {
	// Initialize configuration
	cfg := config.Load()
	logs := logging.New(os.Stdout, cfg.LogLevel)
	ctx := context.Background()

	// Initialize ledger
	var led ledger.Ledger
	switch cfg.LedgerDriver {
	case "postgres":
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if os.Getenv("MIGRATE_ON_START") == "true" {
			log.Println("↗ Running DB migrations on startup...")
			dir := getenv("MIGRATIONS_DIR", filepath.Join(".", "migrations"))
			if err := migrations.RunMigrations(cfg.DatabaseURL, dir); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}
		led = ledger.NewPostgres(db, cfg.CommissionPercentage, logs.Logger(logging.Ledger))
		log.Printf("[LEDGER] using postgres")
	default:
		led = ledger.NewMemory(cfg.StartingBalance, cfg.CommissionPercentage)
		log.Printf("[LEDGER] using in-memory ledger (starting balance %d)", cfg.StartingBalance)
	}

	// Initialize Redis lifecycle events (optional)
	var publisher events.Publisher = events.Nop{}
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()

		evLog := logs.Logger(logging.Events)
		publisher = events.NewRedisPublisher(rdb, evLog)
		if logs.Level() <= slog.LevelDebug {
			events.Subscribe(ctx, rdb, evLog, func(ev events.Event) {
				evLog.Debugf("%s match=%s stake=%d winner=%s reason=%s", ev.Type, ev.MatchID, ev.Stake, ev.Winner, ev.Reason)
			})
		}
		log.Printf("[REDIS] publishing match events on %s", events.Channel)
	} else {
		log.Printf("[REDIS] REDIS_URL not set - match events are not published")
	}

	// Identity tokens (optional)
	var tokens *auth.TokenVerifier
	var verifier game.IdentityVerifier
	if cfg.JWTSecret != "" {
		tokens = auth.NewTokenVerifier(cfg.JWTSecret)
		verifier = tokens
		log.Printf("[AUTH] identity claims require a signed token")
	}

	mgr := game.NewManager(game.Config{
		Ledger:        led,
		Publisher:     publisher,
		Verifier:      verifier,
		Log:           logs.Logger(logging.Match),
		GracePeriod:   cfg.DisconnectGrace(),
		MinStake:      cfg.MinStakeAmount,
		MaxStake:      cfg.MaxStakeAmount,
		LedgerTimeout: cfg.LedgerTimeout(),
	})
	hub := ws.NewHub(mgr, logs.Logger(logging.Gateway))
	mgr.SetNotifier(hub)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, api.Deps{
		Config:  cfg,
		Manager: mgr,
		Hub:     hub,
		Ledger:  led,
		Tokens:  tokens,
	})

	log.Printf("Starting duel server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
