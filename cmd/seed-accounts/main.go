package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/playpool/duelserver/internal/auth"
	"github.com/playpool/duelserver/internal/config"
	"github.com/playpool/duelserver/internal/database"
	"github.com/playpool/duelserver/internal/ledger"
	"github.com/playpool/duelserver/internal/logging"
)

func main() {
	accounts := flag.String("accounts", "alice,bob", "comma separated account ids to open")
	balance := flag.Int64("balance", 1000, "balance given to newly opened accounts")
	adminToken := flag.String("admin-token", "", "print the ADMIN_TOKEN_HASH for this token and exit")
	flag.Parse()

	if *adminToken != "" {
		hash, err := auth.HashAdminToken(*adminToken)
		if err != nil {
			log.Fatalf("Failed to hash admin token: %v", err)
		}
		log.Printf("ADMIN_TOKEN_HASH=%s", hash)
		return
	}

	// Initialize configuration
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required")
	}

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	logs := logging.New(nil, cfg.LogLevel)
	led := ledger.NewPostgres(db, cfg.CommissionPercentage, logs.Logger(logging.Ledger))
	ctx := context.Background()

	for _, id := range strings.Split(*accounts, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if err := led.EnsureAccount(ctx, id, id, *balance); err != nil {
			log.Fatalf("Failed to open account %s: %v", id, err)
		}
		acct, err := led.Account(ctx, id)
		if err != nil {
			log.Fatalf("Failed to read account %s: %v", id, err)
		}
		log.Printf("✓ %s balance=%d wins=%d losses=%d", acct.AccountID, acct.Balance, acct.Wins, acct.Losses)
	}
}
