package advisor

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/rcliao/fleet-advisor/internal/reply"
)

// Currency is the in-game currency suffix used in prompts.
const Currency = "AS$"

func money(d decimal.Decimal) string {
	return humanize.Comma(d.Floor().IntPart()) + " " + Currency
}

func moneyf(f float64) string {
	return money(decimal.NewFromFloat(f))
}

// briefing writes the header shared by every prompt.
func briefing(sb *strings.Builder, role string, b Brief) {
	fmt.Fprintf(sb, "You are an AirlineSim expert %s.\n", role)
	sb.WriteString("Goal: build a highly profitable, fast-growing airline.\n\n")
	fmt.Fprintf(sb, "Available budget: %s (current balance: %s)\n", money(b.Budget), money(b.Funds))
	sb.WriteString(b.Airline.Briefing())
	sb.WriteString("\n")
	for _, n := range b.Notes {
		sb.WriteString(n)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// answerFormat writes the closing instruction listing the reply labels.
func answerFormat(sb *strings.Builder, fields ...[2]string) {
	sb.WriteString("ANSWER ONLY WITH:\n")
	for _, f := range fields {
		if f[0] == "" {
			continue
		}
		fmt.Fprintf(sb, "%s: [%s]\n", f[0], f[1])
	}
}

func field(l reply.Label, hint string) [2]string {
	return [2]string{l.Name, hint}
}
