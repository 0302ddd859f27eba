package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/fleet-advisor/internal/audit"
	"github.com/rcliao/fleet-advisor/internal/cache"
	"github.com/rcliao/fleet-advisor/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "decisions",
		Short: "Inspect and score the decision log",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded decisions, oldest first",
		Run:   runDecisionsList,
	}
	list.Flags().StringP("category", "c", "", "Filter by category")
	list.Flags().String("since", "", "Only decisions newer than this window, e.g. 7d or 24h")
	list.Flags().IntP("limit", "l", 20, "Most recent N (0 for all)")

	outcome := &cobra.Command{
		Use:   "outcome <id> <outcome>",
		Short: "Attach the observed outcome to a decision",
		Long:  "Attach the observed outcome (e.g. success or failure) and an optional score to a decision. A decision is scored once; later calls are ignored.",
		Args:  cobra.ExactArgs(2),
		Run:   runDecisionsOutcome,
	}
	outcome.Flags().String("score", "", "Numeric score for the outcome")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show decision analytics",
		Run:   runDecisionsStats,
	}
	stats.Flags().String("window", "", "Also report on decisions within this window, e.g. 7d")

	export := &cobra.Command{
		Use:   "export",
		Short: "Export all decisions as a JSON array",
		Run:   runDecisionsExport,
	}

	imp := &cobra.Command{
		Use:   "import [file]",
		Short: "Import decisions from a JSON array",
		Long:  "Import decisions from a JSON array (a file or stdin), e.g. a file-backend log or an export. Existing IDs are skipped. Requires the sqlite backend.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runDecisionsImport,
	}

	cmd.AddCommand(list, outcome, stats, export, imp)
	RootCmd.AddCommand(cmd)
}

func runDecisionsList(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	since, _ := cmd.Flags().GetString("since")
	limit, _ := cmd.Flags().GetInt("limit")

	if category != "" && !model.ValidCategories[category] {
		exitErr("list", fmt.Errorf("unknown category %q", category))
	}
	f := audit.Filter{Category: category, Limit: limit}
	if since != "" {
		d, err := cache.ParseTTL(since)
		if err != nil {
			exitErr("since", err)
		}
		f.Since = time.Now().Add(-d)
	}

	l, err := openLog(loadConfig())
	if err != nil {
		exitErr("open decision log", err)
	}
	defer l.Close()

	decisions, err := l.Query(cmd.Context(), f)
	if err != nil {
		exitErr("list", err)
	}

	if formatFlag == "text" {
		for _, d := range decisions {
			outcome := "pending"
			if d.Outcome != nil {
				outcome = *d.Outcome
			}
			fmt.Printf("%s  %s  %-8s  %-8s  %s\n", d.ID, d.Timestamp.Local().Format("2006-01-02 15:04"), d.Category, outcome, d.Summary)
		}
		return
	}
	printJSON(decisions)
}

func runDecisionsOutcome(cmd *cobra.Command, args []string) {
	scoreStr, _ := cmd.Flags().GetString("score")

	var score *float64
	if scoreStr != "" {
		s, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			exitErr("score", err)
		}
		score = &s
	}

	l, err := openLog(loadConfig())
	if err != nil {
		exitErr("open decision log", err)
	}
	defer l.Close()

	updated, err := l.AttachOutcome(cmd.Context(), args[0], args[1], score)
	if err != nil {
		exitErr("outcome", err)
	}
	fmt.Printf(`{"ok":true,"id":%q,"updated":%t}`+"\n", args[0], updated)
}

func runDecisionsStats(cmd *cobra.Command, args []string) {
	window, _ := cmd.Flags().GetString("window")

	l, err := openLog(loadConfig())
	if err != nil {
		exitErr("open decision log", err)
	}
	defer l.Close()

	if window != "" {
		d, err := cache.ParseTTL(window)
		if err != nil {
			exitErr("window", err)
		}
		r, err := audit.BuildReport(cmd.Context(), l, time.Now(), d)
		if err != nil {
			exitErr("report", err)
		}
		printJSON(r)
		return
	}

	a, err := l.Analytics(cmd.Context())
	if err != nil {
		exitErr("stats", err)
	}
	printJSON(a)
}

func runDecisionsExport(cmd *cobra.Command, args []string) {
	l, err := openLog(loadConfig())
	if err != nil {
		exitErr("open decision log", err)
	}
	defer l.Close()

	decisions, err := l.Query(cmd.Context(), audit.Filter{})
	if err != nil {
		exitErr("export", err)
	}
	if decisions == nil {
		decisions = []model.Decision{}
	}
	printJSON(decisions)
}

func runDecisionsImport(cmd *cobra.Command, args []string) {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read input", err)
	}

	var decisions []model.Decision
	if err := json.Unmarshal(data, &decisions); err != nil {
		exitErr("parse json", err)
	}

	l, err := openLog(loadConfig())
	if err != nil {
		exitErr("open decision log", err)
	}
	defer l.Close()

	sl, ok := l.(*audit.SQLiteLog)
	if !ok {
		exitErr("import", fmt.Errorf("import needs the sqlite backend"))
	}
	imported, err := sl.Import(cmd.Context(), decisions)
	if err != nil {
		exitErr("import", err)
	}
	fmt.Printf(`{"ok":true,"imported":%d}`+"\n", imported)
}
