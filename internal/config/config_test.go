package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FLEET_ADVISOR_HOME", home)

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "decisions.db"), c.DBPath)
	assert.Equal(t, filepath.Join(home, "cache"), c.Cache.Dir)
	assert.Equal(t, LogSQLite, c.LogBackend)
	assert.Equal(t, CacheFile, c.Cache.Backend)
	assert.Equal(t, 72*time.Hour, c.Cache.CatalogTTL)
	assert.Equal(t, 168*time.Hour, c.Cache.FamilyTTL)
	assert.Equal(t, 168*time.Hour, c.Cache.StationTTL)
	assert.Equal(t, 0.6, c.BudgetFraction)
	assert.Equal(t, 20, c.ItemCap)
	assert.Equal(t, 0.10, c.Tolerance)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FLEET_ADVISOR_HOME", t.TempDir())
	t.Setenv("FLEET_ADVISOR_DB", "/tmp/x.db")
	t.Setenv("FLEET_ADVISOR_LOG_BACKEND", "FILE")
	t.Setenv("FLEET_ADVISOR_CATALOG_TTL", "3d")
	t.Setenv("FLEET_ADVISOR_BUDGET_FRACTION", "75%")
	t.Setenv("FLEET_ADVISOR_ORACLE_TIMEOUT", "30s")
	t.Setenv("FLEET_ADVISOR_CACHE_BACKEND", "redis")
	t.Setenv("FLEET_ADVISOR_REDIS_DB", "2")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.db", c.DBPath)
	assert.Equal(t, LogFile, c.LogBackend)
	assert.Equal(t, 72*time.Hour, c.Cache.CatalogTTL)
	assert.Equal(t, 0.75, c.BudgetFraction)
	assert.Equal(t, 30*time.Second, c.OracleTimeout)
	assert.Equal(t, CacheRedis, c.Cache.Backend)
	assert.Equal(t, 2, c.Cache.RedisDB)
}

func TestLoadRejectsBadValues(t *testing.T) {
	for name, value := range map[string]string{
		"FLEET_ADVISOR_ITEM_CAP":        "many",
		"FLEET_ADVISOR_BUDGET_FRACTION": "1.5",
		"FLEET_ADVISOR_STATION_TTL":     "forever",
		"FLEET_ADVISOR_LOG_BACKEND":     "postgres",
		"FLEET_ADVISOR_CACHE_BACKEND":   "memcached",
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv("FLEET_ADVISOR_HOME", t.TempDir())
			t.Setenv(name, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
