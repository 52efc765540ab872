package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL       string
	RedisAddr         string
	BaseCurrencyCode  string
	WorkerConcurrency int
	IsProduction      bool
	EnableDBCheck     bool
	MigrationsPath    string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("BASE_CURRENCY_CODE", "USD")
	viper.SetDefault("WORKER_CONCURRENCY", 10)
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.RedisAddr = viper.GetString("REDIS_ADDR")

	cfg.BaseCurrencyCode = viper.GetString("BASE_CURRENCY_CODE")
	if len(cfg.BaseCurrencyCode) != 3 {
		log.Printf("Warning: BASE_CURRENCY_CODE ('%s') is not a 3-letter code. Defaulting to USD.\n", cfg.BaseCurrencyCode)
		cfg.BaseCurrencyCode = "USD"
	}

	cfg.WorkerConcurrency = viper.GetInt("WORKER_CONCURRENCY")
	if cfg.WorkerConcurrency < 1 {
		log.Printf("Warning: WORKER_CONCURRENCY must be at least 1, got %d. Defaulting to 10.\n", cfg.WorkerConcurrency)
		cfg.WorkerConcurrency = 10
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.MigrationsPath = viper.GetString("MIGRATIONS_PATH")

	return cfg, nil
}
