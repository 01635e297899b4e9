// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the server. Command-line flags in
// cmd/server override Port and DBType.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// Database
	DBType            string `env:"DB_TYPE" envDefault:"sqlite"` // sqlite, mysql, mariadb, postgres, sqlserver
	DBHost            string `env:"DB_HOST" envDefault:"localhost"`
	DBPort            string `env:"DB_PORT" envDefault:"3306"`
	DBName            string `env:"DB_NAME" envDefault:"circleclicker"`
	DBUser            string `env:"DB_USER"`
	DBPassword        string `env:"DB_PASSWORD"`
	DBConnectionLimit int    `env:"DB_CONNECTION_LIMIT" envDefault:"5"`
	SQLitePath        string `env:"SQLITE_PATH" envDefault:"circles.db"`
	LogSQL            bool   `env:"LOG_SQL" envDefault:"false"`

	// Game
	CatalogPath            string        `env:"CATALOG_PATH"`
	TickInterval           time.Duration `env:"TICK_INTERVAL" envDefault:"16.666667ms"`
	AutosaveInterval       time.Duration `env:"AUTOSAVE_INTERVAL" envDefault:"60s"`
	MaxOfflineTicks        int           `env:"MAX_OFFLINE_TICKS" envDefault:"10000"`
	ReincarnationThreshold float64       `env:"REINCARNATION_THRESHOLD" envDefault:"1e9"`
	PrestigePower          float64       `env:"PRESTIGE_POWER" envDefault:"0.5"`
	PrestigeBasis          string        `env:"PRESTIGE_BASIS" envDefault:"lifetime"`
	RandomSeed             int64         `env:"RANDOM_SEED" envDefault:"0"`

	// HTTP
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads an optional .env file and parses the environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch c.DBType {
	case "sqlite", "mysql", "mariadb", "postgres", "postgresql", "sqlserver", "mssql":
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL must be positive, got %v", c.TickInterval)
	}
	if c.AutosaveInterval <= 0 {
		return fmt.Errorf("AUTOSAVE_INTERVAL must be positive, got %v", c.AutosaveInterval)
	}
	if c.MaxOfflineTicks <= 0 {
		return fmt.Errorf("MAX_OFFLINE_TICKS must be positive, got %d", c.MaxOfflineTicks)
	}
	switch c.PrestigeBasis {
	case "lifetime", "incarnation":
	default:
		return fmt.Errorf("PRESTIGE_BASIS must be lifetime or incarnation, got %q", c.PrestigeBasis)
	}
	return nil
}

// DatabaseName is the name logged for the configured database.
func (c *Config) DatabaseName() string {
	if c.DBType == "sqlite" {
		return c.SQLitePath
	}
	return c.DBName
}
