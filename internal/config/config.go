// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup.
type Config struct {
	ServerPort        int
	PaymentServiceURL string
	DefaultCurrency   string
	StoreDriver       string // "memory" or "postgres"
	DatabaseDSN       string
	RetryMaxAttempts  int
	RetryBaseDelay    time.Duration
	RetryMaxDelay     time.Duration
	LogLevel          string
}

// Load reads the environment. Missing keys fall back to defaults suitable
// for local development against the payment service on :4000.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:        getEnvAsInt("SERVER_PORT", 8081),
		PaymentServiceURL: getEnv("PAYMENT_SERVICE_URL", "http://localhost:4000"),
		DefaultCurrency:   getEnv("DEFAULT_CURRENCY", "USD"),
		StoreDriver:       getEnv("STORE_DRIVER", "memory"),
		DatabaseDSN:       getEnv("DATABASE_DSN", ""),
		RetryMaxAttempts:  getEnvAsInt("RETRY_MAX_ATTEMPTS", 5),
		RetryBaseDelay:    time.Duration(getEnvAsInt("RETRY_BASE_DELAY_MS", 1000)) * time.Millisecond,
		RetryMaxDelay:     time.Duration(getEnvAsInt("RETRY_MAX_DELAY_MS", 10000)) * time.Millisecond,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
