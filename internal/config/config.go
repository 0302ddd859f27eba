// Package config loads runtime settings from the environment and an
// optional .env file. Command-line flags override what Load returns.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/rcliao/fleet-advisor/internal/afford"
	"github.com/rcliao/fleet-advisor/internal/cache"
	"github.com/rcliao/fleet-advisor/internal/resolve"
)

// EnvPrefix prefixes every variable read by Load.
const EnvPrefix = "FLEET_ADVISOR_"

// Decision log backends.
const (
	LogSQLite = "sqlite"
	LogFile   = "file"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
)

type Config struct {
	Home     string // base directory for default paths
	DataFile string // scraper export used by the file feed

	LogBackend   string
	DBPath       string
	DecisionFile string

	Cache CacheConfig

	BudgetFraction float64
	ItemCap        int
	Tolerance      float64
	OracleTimeout  time.Duration

	LogLevel string
	LogFile  string
}

type CacheConfig struct {
	Backend       string
	Dir           string
	LRUSize       int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CatalogTTL    time.Duration
	FamilyTTL     time.Duration
	StationTTL    time.Duration
}

// Load reads .env (if present) and FLEET_ADVISOR_* variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	home := env("HOME")
	if home == "" {
		dir, _ := os.UserHomeDir()
		home = filepath.Join(dir, ".fleet-advisor")
	}

	c := &Config{
		Home:         home,
		DataFile:     firstNonEmpty(env("DATA"), filepath.Join(home, "export.json")),
		LogBackend:   strings.ToLower(firstNonEmpty(env("LOG_BACKEND"), LogSQLite)),
		DBPath:       firstNonEmpty(env("DB"), filepath.Join(home, "decisions.db")),
		DecisionFile: firstNonEmpty(env("DECISION_FILE"), filepath.Join(home, "decisions.json")),
		Cache: CacheConfig{
			Backend:       strings.ToLower(firstNonEmpty(env("CACHE_BACKEND"), CacheFile)),
			Dir:           firstNonEmpty(env("CACHE_DIR"), filepath.Join(home, "cache")),
			RedisAddr:     firstNonEmpty(env("REDIS_ADDR"), "localhost:6379"),
			RedisPassword: env("REDIS_PASSWORD"),
		},
		LogLevel: firstNonEmpty(env("LOG_LEVEL"), "info"),
		LogFile:  env("LOG_FILE"),
	}

	var err error
	if c.Cache.LRUSize, err = intEnv("CACHE_LRU_SIZE", 64); err != nil {
		return nil, err
	}
	if c.Cache.RedisDB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if c.Cache.CatalogTTL, err = ttlEnv("CATALOG_TTL", cache.DefaultCatalogTTL); err != nil {
		return nil, err
	}
	if c.Cache.FamilyTTL, err = ttlEnv("FAMILY_TTL", cache.DefaultFamilyTTL); err != nil {
		return nil, err
	}
	if c.Cache.StationTTL, err = ttlEnv("STATION_TTL", cache.DefaultStationTTL); err != nil {
		return nil, err
	}
	if c.BudgetFraction, err = floatEnv("BUDGET_FRACTION", afford.DefaultBudgetFraction); err != nil {
		return nil, err
	}
	if c.ItemCap, err = intEnv("ITEM_CAP", 20); err != nil {
		return nil, err
	}
	if c.Tolerance, err = floatEnv("TOLERANCE", resolve.DefaultTolerance); err != nil {
		return nil, err
	}
	if c.OracleTimeout, err = ttlEnv("ORACLE_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}
	return c, c.Validate()
}

// Validate checks values that flags or the environment may have set.
func (c *Config) Validate() error {
	switch c.LogBackend {
	case LogSQLite, LogFile:
	default:
		return fmt.Errorf("unknown decision log backend %q (use %s or %s)", c.LogBackend, LogSQLite, LogFile)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis:
	default:
		return fmt.Errorf("unknown cache backend %q (use %s or %s)", c.Cache.Backend, CacheFile, CacheRedis)
	}
	if c.BudgetFraction <= 0 || c.BudgetFraction > 1 {
		return fmt.Errorf("budget fraction %v must be in (0, 1]", c.BudgetFraction)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance %v must not be negative", c.Tolerance)
	}
	for name, ttl := range map[string]time.Duration{
		"catalog": c.Cache.CatalogTTL,
		"family":  c.Cache.FamilyTTL,
		"station": c.Cache.StationTTL,
	} {
		if ttl <= 0 {
			return fmt.Errorf("%s ttl must be positive", name)
		}
	}
	return nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + name))
}

func intEnv(name string, def int) (int, error) {
	raw := env(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
	}
	return n, nil
}

func floatEnv(name string, def float64) (float64, error) {
	raw := env(name)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
	}
	if strings.HasSuffix(raw, "%") {
		f /= 100
	}
	return f, nil
}

func ttlEnv(name string, def time.Duration) (time.Duration, error) {
	raw := env(name)
	if raw == "" {
		return def, nil
	}
	d, err := cache.ParseTTL(raw)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
