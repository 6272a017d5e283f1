package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Config is the server configuration read from the environment
type Config struct {
	Host        string `envconfig:"RPS_HOST"`
	Port        int    `envconfig:"PORT" default:"5000"`
	StorageType string `envconfig:"STORAGE_TYPE" default:"memory"`
	RedisURL    string `envconfig:"REDIS_URL"`
	// AllowedOrigin gates CORS and websocket upgrades; "*" allows any origin
	AllowedOrigin string `envconfig:"RPS_ALLOWED_ORIGIN" default:"http://localhost:3000"`
	LedgerWorkers int    `envconfig:"RPS_LEDGER_WORKERS" default:"2"`
	LedgerQueue   int    `envconfig:"RPS_LEDGER_QUEUE" default:"256"`
	LogLevel      string `envconfig:"RPS_LOG_LEVEL" default:"info"`
}

// Load reads the given env files (or .env when none are named) into the
// process environment without overriding variables already set, then
// populates a Config. A missing default .env is not an error.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c Config) Validate() error {
	switch c.StorageType {
	case StorageTypeMemory:
	case StorageTypeRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be 'memory' or 'redis'", c.StorageType)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.LedgerWorkers < 1 {
		return fmt.Errorf("RPS_LEDGER_WORKERS must be at least 1, got %d", c.LedgerWorkers)
	}
	if c.LedgerQueue < 1 {
		return fmt.Errorf("RPS_LEDGER_QUEUE must be at least 1, got %d", c.LedgerQueue)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level
func (c Config) Level() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ParseLevel maps debug, info, warn and error to slog levels. Empty is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid RPS_LOG_LEVEL %q", s)
	}
}
