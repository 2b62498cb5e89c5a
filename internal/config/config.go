package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Clark-Hu/reactive-movies/internal/retry"
)

// Role selects which of the three services a Config is loaded for.
type Role string

const (
	RoleMovieInfo Role = "movieinfo-service"
	RoleReviews   Role = "review-service"
	RoleMovies    Role = "movies-service"
)

var defaultPorts = map[Role]string{
	RoleMovieInfo: "8080",
	RoleReviews:   "8081",
	RoleMovies:    "8082",
}

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Role               Role
	Port               string
	LogLevel           string
	CORSAllowedOrigins []string
	ReadTimeoutSecs    int
	WriteTimeoutSecs   int
	IdleTimeoutSecs    int

	// Store-backed roles.
	DBURL              string
	DBMaxConns         int
	DBMinConns         int
	DBMaxIdleSecs      int
	DBMaxLifeSecs      int
	DBConnTimeoutSecs  int
	DBStatementCache   int
	DBMigrate          bool
	StreamHistoryLimit int

	// Aggregator role.
	MovieInfoURL        string
	ReviewsURL          string
	UpstreamTimeoutSecs int
	RetryMax            int
	RetryDelayMs        int
	RetryTransport      bool
}

// Load reads configuration for role from environment variables, applying
// defaults and validation.
func Load(role Role) (Config, error) {
	port, ok := defaultPorts[role]
	if !ok {
		return Config{}, fmt.Errorf("unknown service role %q", role)
	}

	cfg := Config{
		Role:               role,
		Port:               getEnv("PORT", port),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		ReadTimeoutSecs:    getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs:   getEnvInt("SERVER_WRITE_TIMEOUT", 15),
		IdleTimeoutSecs:    getEnvInt("SERVER_IDLE_TIMEOUT", 60),
	}
	if cfg.ReadTimeoutSecs <= 0 || cfg.WriteTimeoutSecs <= 0 || cfg.IdleTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("SERVER_READ_TIMEOUT, SERVER_WRITE_TIMEOUT and SERVER_IDLE_TIMEOUT must be positive")
	}

	var err error
	if role == RoleMovies {
		err = cfg.loadAggregator()
	} else {
		err = cfg.loadStore()
	}
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadStore() error {
	c.DBURL = os.Getenv("DB_URL")
	c.DBMaxConns = getEnvInt("DB_MAX_CONNS", 20)
	c.DBMinConns = getEnvInt("DB_MIN_CONNS", 2)
	c.DBMaxIdleSecs = getEnvInt("DB_MAX_CONN_IDLE_SECS", 300)
	c.DBMaxLifeSecs = getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600)
	c.DBConnTimeoutSecs = getEnvInt("DB_CONN_TIMEOUT_SECS", 10)
	c.DBStatementCache = getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 256)
	c.DBMigrate = getEnvBool("DB_MIGRATE", false)
	c.StreamHistoryLimit = getEnvInt("STREAM_HISTORY_LIMIT", 0)

	if c.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if c.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if c.StreamHistoryLimit < 0 {
		return fmt.Errorf("STREAM_HISTORY_LIMIT must be non-negative")
	}
	return nil
}

func (c *Config) loadAggregator() error {
	c.MovieInfoURL = os.Getenv("MOVIEINFO_URL")
	c.ReviewsURL = os.Getenv("REVIEWS_URL")
	c.UpstreamTimeoutSecs = getEnvInt("UPSTREAM_TIMEOUT_SECS", 5)
	c.RetryMax = getEnvInt("RETRY_MAX", retry.DefaultMaxRetries)
	c.RetryDelayMs = getEnvInt("RETRY_DELAY_MS", int(retry.DefaultDelay/time.Millisecond))
	c.RetryTransport = getEnvBool("RETRY_TRANSPORT", true)

	if c.MovieInfoURL == "" {
		return fmt.Errorf("MOVIEINFO_URL is required")
	}
	if c.ReviewsURL == "" {
		return fmt.Errorf("REVIEWS_URL is required")
	}
	if c.UpstreamTimeoutSecs <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT_SECS must be positive")
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("RETRY_MAX must be non-negative")
	}
	if c.RetryDelayMs < 0 {
		return fmt.Errorf("RETRY_DELAY_MS must be non-negative")
	}
	return nil
}

// RetryPolicy returns the policy the aggregator applies to upstream calls.
func (c Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxRetries:     c.RetryMax,
		Delay:          time.Duration(c.RetryDelayMs) * time.Millisecond,
		RetryTransport: c.RetryTransport,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
