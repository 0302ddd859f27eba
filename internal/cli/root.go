// Package cli implements the fleet-advisor CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/fleet-advisor/internal/audit"
	"github.com/rcliao/fleet-advisor/internal/cache"
	"github.com/rcliao/fleet-advisor/internal/config"
	"github.com/rcliao/fleet-advisor/internal/feed"
	"github.com/rcliao/fleet-advisor/internal/logging"
	"github.com/rcliao/fleet-advisor/internal/oracle"
	"github.com/rcliao/fleet-advisor/internal/pipeline"
)

var (
	dbPath       string
	logBackend   string
	decisionFile string
	cacheDir     string
	cacheBackend string
	dataFile     string
	logLevel     string
	logFile      string
	formatFlag   string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "fleet-advisor",
	Short: "Oracle-assisted procurement advice for AirlineSim",
	Long: "Recommends aircraft to lease and stations to open from scraped market data,\n" +
		"and keeps an append-only log of every decision for later scoring.",
	SilenceUsage: true,
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.StringVarP(&dbPath, "db", "d", "", "Decision database path (default: $FLEET_ADVISOR_DB or ~/.fleet-advisor/decisions.db)")
	pf.StringVar(&logBackend, "log-backend", "", "Decision log backend: sqlite or file")
	pf.StringVar(&decisionFile, "decision-file", "", "Decision log path for the file backend")
	pf.StringVar(&cacheDir, "cache-dir", "", "Cache directory (default: ~/.fleet-advisor/cache)")
	pf.StringVar(&cacheBackend, "cache-backend", "", "Cache backend: file or redis")
	pf.StringVar(&dataFile, "data", "", "Scraper export to read market data from")
	pf.StringVar(&logLevel, "log-level", "", "Console log level: debug, info, warn, error")
	pf.StringVar(&logFile, "log-file", "", "Also write debug logs as JSON to this file")
	pf.StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

// loadConfig reads the environment and applies any persistent flags given.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitErr("config", err)
	}
	for _, o := range []struct {
		flag string
		dst  *string
	}{
		{dbPath, &cfg.DBPath},
		{logBackend, &cfg.LogBackend},
		{decisionFile, &cfg.DecisionFile},
		{cacheDir, &cfg.Cache.Dir},
		{cacheBackend, &cfg.Cache.Backend},
		{dataFile, &cfg.DataFile},
		{logLevel, &cfg.LogLevel},
		{logFile, &cfg.LogFile},
	} {
		if o.flag != "" {
			*o.dst = o.flag
		}
	}
	if err := cfg.Validate(); err != nil {
		exitErr("config", err)
	}
	return cfg
}

func newLogger(cfg *config.Config) *zap.Logger {
	log, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		exitErr("logger", err)
	}
	zap.ReplaceGlobals(log)
	return log
}

func openLog(cfg *config.Config) (audit.Log, error) {
	if cfg.LogBackend == config.LogFile {
		return audit.NewFileLog(cfg.DecisionFile)
	}
	return audit.NewSQLiteLog(cfg.DBPath)
}

// openCacheStore returns the configured store fronted by an in-process LRU.
func openCacheStore(cfg *config.Config) (cache.Store, func(), error) {
	var (
		next    cache.Store
		closeFn = func() {}
	)
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		r := cache.NewRedisStore(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, "")
		next, closeFn = r, func() { r.Close() }
	default:
		fs, err := cache.NewFileStore(cfg.Cache.Dir)
		if err != nil {
			return nil, nil, err
		}
		next = fs
	}
	lru, err := cache.NewLRUStore(next, cfg.Cache.LRUSize)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return lru, closeFn, nil
}

func newCaches(cfg *config.Config, store cache.Store, log *zap.Logger) pipeline.Caches {
	return pipeline.NewCaches(store, pipeline.TTLs{
		Catalog: cfg.Cache.CatalogTTL,
		Family:  cfg.Cache.FamilyTTL,
		Station: cfg.Cache.StationTTL,
	}, log)
}

func openFeed(cfg *config.Config) *feed.Snapshot {
	snap, err := feed.LoadFile(cfg.DataFile)
	if err != nil {
		exitErr("load market data", err)
	}
	return snap
}

func newOracle(ctx context.Context, cfg *config.Config) oracle.Oracle {
	o, err := oracle.NewFromEnv(ctx)
	if err != nil {
		exitErr("oracle", err)
	}
	return oracle.WithTimeout(o, cfg.OracleTimeout)
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
