package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database / ledger
	DatabaseURL     string
	LedgerDriver    string
	StartingBalance int64

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Match settings
	DisconnectGracePeriodSecs int
	MinStakeAmount            int64
	MaxStakeAmount            int64
	CommissionPercentage      int
	LedgerTimeoutSecs         int

	// Security
	JWTSecret      string
	AdminTokenHash string

	// Logging
	LogLevel string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	databaseURL := getEnv("DATABASE_URL", "")
	defaultDriver := "memory"
	if databaseURL != "" {
		defaultDriver = "postgres"
	}

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database / ledger
		DatabaseURL:     databaseURL,
		LedgerDriver:    getEnv("LEDGER_DRIVER", defaultDriver),
		StartingBalance: getEnvInt64("STARTING_BALANCE", 100),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Match settings
		DisconnectGracePeriodSecs: getEnvInt("DISCONNECT_GRACE_PERIOD_SECONDS", 30),
		MinStakeAmount:            getEnvInt64("MIN_STAKE_AMOUNT", 10),
		MaxStakeAmount:            getEnvInt64("MAX_STAKE_AMOUNT", 100000),
		CommissionPercentage:      getEnvInt("COMMISSION_PERCENTAGE", 0),
		LedgerTimeoutSecs:         getEnvInt("LEDGER_TIMEOUT_SECONDS", 5),

		// Security
		JWTSecret:      getEnv("JWT_SECRET", ""),
		AdminTokenHash: getEnv("ADMIN_TOKEN_HASH", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// DisconnectGrace is the reconnect window granted to a dropped player.
func (c *Config) DisconnectGrace() time.Duration {
	return time.Duration(c.DisconnectGracePeriodSecs) * time.Second
}

// LedgerTimeout bounds every external ledger call.
func (c *Config) LedgerTimeout() time.Duration {
	return time.Duration(c.LedgerTimeoutSecs) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}
