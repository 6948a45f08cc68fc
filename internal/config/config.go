package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Sales  SalesConfig
	Audit  AuditConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port  int
	Debug bool
}

// DBConfig holds the PostgreSQL connection settings.
type DBConfig struct {
	URL string
}

// SalesConfig holds the sale lifecycle policies.
type SalesConfig struct {
	// RestoreStockOnDelete puts the sold quantity back into stock when a
	// sale is deleted. Off by default: most deletions here correct a
	// data-entry mistake after the goods already left the warehouse.
	RestoreStockOnDelete bool
}

// AuditConfig holds the ledger drift audit scheduler settings.
type AuditConfig struct {
	CronSchedule string
	Timezone     string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes
		// from the environment directly.
		_ = godotenv.Load()
	}

	port, err := getenvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:  port,
			Debug: getenvBool("DEBUG", false),
		},
		DB: DBConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Sales: SalesConfig{
			RestoreStockOnDelete: getenvBool("RESTORE_STOCK_ON_SALE_DELETE", false),
		},
		Audit: AuditConfig{
			CronSchedule: getenvWithDefault("AUDIT_CRON_SCHEDULE", "0 * * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Africa/Conakry"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Port <= 0 {
		return errors.New("PORT must be positive")
	}
	if c.DB.URL == "" {
		return errors.New("DATABASE_URL must be provided")
	}
	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return value, nil
}

func getenvBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
