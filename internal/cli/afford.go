package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rcliao/fleet-advisor/internal/afford"
	"github.com/rcliao/fleet-advisor/internal/model"
	"github.com/rcliao/fleet-advisor/internal/reply"
)

func init() {
	cmd := &cobra.Command{
		Use:   "afford <amount>",
		Short: "Check whether current funds cover an amount",
		Long:  "Check whether current funds cover an amount. Funds come from --funds or the market data export.",
		Args:  cobra.ExactArgs(1),
		Run:   runAfford,
	}

	cmd.Flags().String("funds", "", "Available funds (default: balance from the export)")
	cmd.Flags().Float64("fraction", afford.DefaultBudgetFraction, "Share of funds considered safe to spend")

	RootCmd.AddCommand(cmd)
}

type affordOutput struct {
	Check      model.AffordabilityCheck `json:"check"`
	SafeBudget decimal.Decimal          `json:"safe_budget"`
	Fraction   float64                  `json:"fraction"`
}

func runAfford(cmd *cobra.Command, args []string) {
	fundsStr, _ := cmd.Flags().GetString("funds")
	fraction, _ := cmd.Flags().GetFloat64("fraction")

	required, ok := reply.Amount(args[0])
	if !ok {
		exitErr("afford", fmt.Errorf("invalid amount %q", args[0]))
	}

	var funds decimal.Decimal
	if fundsStr != "" {
		f, ok := reply.Amount(fundsStr)
		if !ok {
			exitErr("afford", fmt.Errorf("invalid funds %q", fundsStr))
		}
		funds = f
	} else {
		cfg := loadConfig()
		f, err := openFeed(cfg).AvailableFunds(cmd.Context())
		if err != nil {
			exitErr("funds", err)
		}
		funds = f
	}

	out := affordOutput{
		Check:      afford.Check(funds, required),
		SafeBudget: afford.SafeBudget(funds, fraction),
		Fraction:   fraction,
	}

	if formatFlag == "text" {
		if out.Check.CanAfford {
			fmt.Printf("Affordable: %s of %s AS$ available\n", money(required), money(funds))
		} else {
			fmt.Printf("Not affordable: need %s AS$ more\n", money(out.Check.Shortfall))
		}
		fmt.Printf("Safe to spend: %s AS$ (%.0f%% of funds)\n", money(out.SafeBudget), fraction*100)
		return
	}
	printJSON(out)
}
