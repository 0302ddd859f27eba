package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/fleet-advisor/internal/cache"
	"github.com/rcliao/fleet-advisor/internal/pipeline"
)

func init() {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or refresh cached market data",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show age and validity of each cache entry",
		Run:   runCacheStatus,
	}
	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "Reload every cache entry from the market data export",
		Run:   runCacheRefresh,
	}

	cmd.AddCommand(status, refresh)
	RootCmd.AddCommand(cmd)
}

func runCacheStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	log := newLogger(cfg)
	store, closeStore, err := openCacheStore(cfg)
	if err != nil {
		exitErr("open cache", err)
	}
	defer closeStore()

	c := newCaches(cfg, store, log)
	ctx := cmd.Context()
	statuses := []cache.Status{
		c.Catalog.Status(ctx, pipeline.KeyCatalog),
		c.Families.Status(ctx, pipeline.KeyFamilies),
		c.Stations.Status(ctx, pipeline.KeyStations),
	}

	if formatFlag == "text" {
		for _, s := range statuses {
			state := "missing"
			switch {
			case s.Valid:
				state = "valid"
			case s.Present:
				state = "stale"
			}
			fmt.Printf("%-18s %-8s items=%-5d age=%s ttl=%s\n", s.Key, state, s.Items, s.Age.Round(1e9), s.TTL)
		}
		return
	}
	printJSON(statuses)
}

func runCacheRefresh(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	log := newLogger(cfg)
	snap := openFeed(cfg)
	store, closeStore, err := openCacheStore(cfg)
	if err != nil {
		exitErr("open cache", err)
	}
	defer closeStore()

	c := newCaches(cfg, store, log)
	ctx := cmd.Context()

	catalog, err := c.Catalog.Load(ctx, pipeline.KeyCatalog, true, snap.FetchCatalog)
	if err != nil {
		exitErr("refresh catalog", err)
	}
	families, err := c.Families.Load(ctx, pipeline.KeyFamilies, true, snap.FetchFamilies)
	if err != nil {
		exitErr("refresh families", err)
	}
	stations, err := c.Stations.Load(ctx, pipeline.KeyStations, true, snap.FetchStations)
	if err != nil {
		exitErr("refresh stations", err)
	}
	fmt.Printf(`{"ok":true,"aircraft":%d,"families":%d,"stations":%d}`+"\n", len(catalog), len(families), len(stations))
}
