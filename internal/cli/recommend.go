package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rcliao/fleet-advisor/internal/advisor"
	"github.com/rcliao/fleet-advisor/internal/model"
	"github.com/rcliao/fleet-advisor/internal/oracle"
	"github.com/rcliao/fleet-advisor/internal/pipeline"
	"github.com/rcliao/fleet-advisor/internal/reply"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Ask the oracle for a procurement recommendation",
	}

	aircraft := &cobra.Command{
		Use:   "aircraft",
		Short: "Recommend an aircraft model and quantity to lease",
		Run:   runRecommendAircraft,
	}
	station := &cobra.Command{
		Use:   "station",
		Short: "Recommend the next station to open",
		Long:  "Recommend the next station to open. With --with-aircraft an aircraft is recommended first and the station is chosen to suit it.",
		Run:   runRecommendStation,
	}
	station.Flags().Bool("with-aircraft", false, "Recommend an aircraft first and plan the station around it")
	plan := &cobra.Command{
		Use:   "plan",
		Short: "Recommend an aircraft and a station together",
		Run:   runRecommendPlan,
	}

	for _, c := range []*cobra.Command{aircraft, station, plan} {
		c.Flags().Bool("force-refresh", false, "Ignore cached market data")
		c.Flags().String("budget", "", "Spending limit (default: a fraction of current funds)")
		c.Flags().Float64("budget-fraction", 0, "Share of funds to spend when --budget is not set (default 0.6)")
		c.Flags().Int("item-cap", 0, "Most items shown to the oracle in the second stage (default 20)")
		c.Flags().Float64("tolerance", 0, "Allowed deviation of oracle-stated totals (default 0.10)")
		c.Flags().Duration("oracle-timeout", 0, "Timeout per oracle call (default 2m)")
		c.Flags().String("replies", "", "Replay oracle replies from a file (blocks separated by ---) instead of calling a provider")
		cmd.AddCommand(c)
	}

	RootCmd.AddCommand(cmd)
}

func buildPipeline(cmd *cobra.Command) (*pipeline.Pipeline, func()) {
	cfg := loadConfig()
	log := newLogger(cfg)

	force, _ := cmd.Flags().GetBool("force-refresh")
	replies, _ := cmd.Flags().GetString("replies")
	budgetStr, _ := cmd.Flags().GetString("budget")
	if f, _ := cmd.Flags().GetFloat64("budget-fraction"); f > 0 {
		cfg.BudgetFraction = f
	}
	if n, _ := cmd.Flags().GetInt("item-cap"); n > 0 {
		cfg.ItemCap = n
	}
	if tol, _ := cmd.Flags().GetFloat64("tolerance"); tol > 0 {
		cfg.Tolerance = tol
	}
	if d, _ := cmd.Flags().GetDuration("oracle-timeout"); d > 0 {
		cfg.OracleTimeout = d
	}
	if err := cfg.Validate(); err != nil {
		exitErr("config", err)
	}

	var budget decimal.Decimal
	if budgetStr != "" {
		b, ok := reply.Amount(budgetStr)
		if !ok || !b.IsPositive() {
			exitErr("budget", fmt.Errorf("invalid amount %q", budgetStr))
		}
		budget = b
	}

	snap := openFeed(cfg)
	store, closeStore, err := openCacheStore(cfg)
	if err != nil {
		exitErr("open cache", err)
	}
	l, err := openLog(cfg)
	if err != nil {
		closeStore()
		exitErr("open decision log", err)
	}

	var o oracle.Oracle
	if replies != "" {
		script, err := oracle.LoadScript(replies)
		if err != nil {
			exitErr("replies", err)
		}
		o = script
	} else {
		o = newOracle(cmd.Context(), cfg)
	}

	p := pipeline.New(o,
		pipeline.Sources{Catalog: snap, Stations: snap, Funds: snap, Airline: snap},
		newCaches(cfg, store, log), l,
		pipeline.Options{
			Engine: advisor.Options{
				BudgetFraction: cfg.BudgetFraction,
				ItemCap:        cfg.ItemCap,
				Tolerance:      cfg.Tolerance,
				Logger:         log,
			},
			ForceRefresh: force,
			Budget:       budget,
			Logger:       log,
		})

	return p, func() {
		l.Close()
		closeStore()
		log.Sync()
	}
}

func runRecommendAircraft(cmd *cobra.Command, args []string) {
	p, done := buildPipeline(cmd)
	defer done()

	res, err := p.RecommendAircraft(cmd.Context())
	if err != nil {
		done()
		exitErr("recommend aircraft", err)
	}
	if formatFlag == "text" {
		printAircraft(res)
		return
	}
	printJSON(res)
}

func runRecommendStation(cmd *cobra.Command, args []string) {
	withAircraft, _ := cmd.Flags().GetBool("with-aircraft")
	p, done := buildPipeline(cmd)
	defer done()

	var aircraft *model.Recommendation[model.Aircraft]
	if withAircraft {
		ac, err := p.RecommendAircraft(cmd.Context())
		if err != nil {
			done()
			exitErr("recommend aircraft", err)
		}
		aircraft = ac.Recommendation
		if formatFlag == "text" {
			printAircraft(ac)
		}
	}

	res, err := p.RecommendStation(cmd.Context(), aircraft)
	if err != nil {
		done()
		exitErr("recommend station", err)
	}
	if formatFlag == "text" {
		printStation(res)
		return
	}
	printJSON(res)
}

func runRecommendPlan(cmd *cobra.Command, args []string) {
	p, done := buildPipeline(cmd)
	defer done()

	res, err := p.Plan(cmd.Context())
	if err != nil {
		done()
		exitErr("plan", err)
	}
	if formatFlag == "text" {
		printAircraft(res.Aircraft)
		printStation(res.Station)
		fmt.Printf("Total upfront:   %s AS$\n", money(res.TotalUpfront))
		fmt.Printf("Total weekly:    %s AS$\n", money(res.TotalRecurring))
		fmt.Printf("Decision:        %s\n", res.DecisionID)
		return
	}
	printJSON(res)
}

func money(d decimal.Decimal) string {
	return humanize.Comma(d.Floor().IntPart())
}

func printAircraft(res *pipeline.AircraftResult) {
	r := res.Recommendation
	fmt.Printf("Aircraft:        %dx %s (%s match)\n", r.Quantity, r.Name, r.Tier)
	fmt.Printf("Family:          %s (%s match, target %d seats)\n", r.Category.Name, r.Category.Tier, r.Category.TargetSize)
	fmt.Printf("Deposits:        %s AS$\n", money(r.TotalUpfrontCost))
	fmt.Printf("Weekly rate:     %s AS$\n", money(r.TotalRecurringCost))
	fmt.Printf("Funds:           %s AS$ (budget %s AS$)\n", money(res.Funds), money(r.Budget))
	if !res.Affordability.CanAfford {
		fmt.Printf("Shortfall:       %s AS$\n", money(res.Affordability.Shortfall))
	}
	fmt.Printf("Reason:          %s\n", r.Rationale)
	for _, w := range r.Warnings {
		fmt.Printf("Warning:         %s\n", w)
	}
	fmt.Printf("Decision:        %s\n\n", res.DecisionID)
}

func printStation(res *pipeline.StationResult) {
	r := res.Recommendation
	fmt.Printf("Station:         %s, %s (%s match)\n", r.Name, r.Item.Country, r.Tier)
	fmt.Printf("Region:          %s (%s match)\n", r.Category.Name, r.Category.Tier)
	if route := r.Extras["ROUTE"]; route != "" {
		fmt.Printf("Route:           %s\n", strings.ReplaceAll(route, "\n", " "))
	}
	fmt.Printf("Reason:          %s\n", r.Rationale)
	if len(r.Alternates) > 0 {
		fmt.Printf("Alternatives:    %s\n", strings.Join(r.Alternates, ", "))
	}
	fmt.Printf("Decision:        %s\n\n", res.DecisionID)
}
