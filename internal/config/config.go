package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration read from the environment (and .env when present).
type Config struct {
	DatabaseURL    string
	DBMaxConns     int32
	ServerPort     string
	AllowedOrigins string
	JWTSecret      string

	// RedisAddr enables the shared reference-cache tier when non-empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RefCacheTTL   time.Duration

	// QuotationTag is the document type discriminator used for proforma quotations.
	QuotationTag int

	LogLevel  string
	LogFormat string
}

// Load reads configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.RedisDB, err = intFromEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.QuotationTag, err = intFromEnv("QUOTATION_TAG", 1); err != nil {
		return nil, err
	}
	maxConns, err := intFromEnv("DB_MAX_CONNS", 0)
	if err != nil {
		return nil, err
	}
	cfg.DBMaxConns = int32(maxConns)

	cfg.RefCacheTTL = 10 * time.Minute
	if v := os.Getenv("REFCACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REFCACHE_TTL %q: %w", v, err)
		}
		cfg.RefCacheTTL = d
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if cfg.QuotationTag <= 0 {
		return nil, fmt.Errorf("QUOTATION_TAG must be positive, got %d", cfg.QuotationTag)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intFromEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
