package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Config holds the process configuration read from the environment
type Config struct {
	Host string
	Port int

	StorageType string
	RedisURL    string

	// TuningFile is an optional YAML file overriding the default rules and timing
	TuningFile string
	// JournalDir enables per-match action journals when set
	JournalDir string

	LogLevel slog.Level
	// AllowedOrigins lists the websocket origins to accept. Empty accepts any.
	AllowedOrigins []string
}

// Default returns the configuration used when no variables are set
func Default() *Config {
	return &Config{
		Host:        "0.0.0.0",
		Port:        8080,
		StorageType: StorageTypeMemory,
		LogLevel:    slog.LevelInfo,
	}
}

// Load reads a .env file if one exists, then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given variable lookup
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := Default()

	if v := getenv("HOST"); v != "" {
		cfg.Host = v
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v := getenv("STORAGE_TYPE"); v != "" {
		cfg.StorageType = strings.ToLower(v)
	}
	cfg.RedisURL = getenv("REDIS_URL")
	switch cfg.StorageType {
	case StorageTypeMemory:
	case StorageTypeRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
	default:
		return nil, fmt.Errorf("invalid STORAGE_TYPE %q: must be 'memory' or 'redis'", cfg.StorageType)
	}

	cfg.TuningFile = getenv("TUNING_FILE")
	cfg.JournalDir = getenv("JOURNAL_DIR")

	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
		}
	}

	if v := getenv("WS_ALLOWED_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	return cfg, nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
