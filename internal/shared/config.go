package shared

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries everything the ingestor reads from the environment.
// There are no CLI flags: the run trigger is a parameterless scheduled
// invocation and all credentials/endpoints arrive via env.
type Config struct {
	AppEnv      string
	MetricsAddr string

	MySQLDSN  string
	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	SteamBase string
	SteamRPS  int
	PageSize  int

	Workers      int
	MaxPages     int
	LookbackDays int
	CronSpec     string
}

// ConfigurationError is fatal: the run aborts before any game is processed.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s %s", e.Key, e.Reason)
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	c := Config{
		AppEnv:       env("APP_ENV", "prod"),
		MetricsAddr:  env("METRICS_ADDR", ""),
		MySQLDSN:     env("MYSQL_DSN", ""),
		RedisAddr:    env("REDIS_ADDR", "localhost:6379"),
		RedisDB:      atoi("REDIS_DB", 0),
		RedisPass:    env("REDIS_PASSWORD", ""),
		CacheTTL:     time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		SteamBase:    env("STEAM_BASE_URL", "https://store.steampowered.com"),
		SteamRPS:     atoi("STEAM_RPS", 5),
		PageSize:     atoi("INGEST_PAGE_SIZE", 100),
		Workers:      atoi("INGEST_WORKERS", 8),
		MaxPages:     atoi("INGEST_MAX_PAGES", 200),
		LookbackDays: atoi("INGEST_LOOKBACK_DAYS", 14),
		CronSpec:     env("INGEST_CRON", ""),
	}

	if c.MySQLDSN == "" {
		return Config{}, &ConfigurationError{Key: "MYSQL_DSN", Reason: "is required"}
	}
	if c.SteamBase == "" {
		return Config{}, &ConfigurationError{Key: "STEAM_BASE_URL", Reason: "is required"}
	}
	if c.Workers <= 0 {
		return Config{}, &ConfigurationError{Key: "INGEST_WORKERS", Reason: "must be positive"}
	}
	if c.MaxPages <= 0 {
		return Config{}, &ConfigurationError{Key: "INGEST_MAX_PAGES", Reason: "must be positive"}
	}
	if c.PageSize <= 0 || c.PageSize > 100 {
		return Config{}, &ConfigurationError{Key: "INGEST_PAGE_SIZE", Reason: "must be in 1..100"}
	}
	if c.LookbackDays <= 0 {
		return Config{}, &ConfigurationError{Key: "INGEST_LOOKBACK_DAYS", Reason: "must be positive"}
	}
	return c, nil
}

// Lookback is the trailing window defining which games are eligible.
func (c Config) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
