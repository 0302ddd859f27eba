package advisor

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rcliao/fleet-advisor/internal/group"
	"github.com/rcliao/fleet-advisor/internal/model"
	"github.com/rcliao/fleet-advisor/internal/reply"
	"github.com/rcliao/fleet-advisor/internal/resolve"
)

// DefaultTargetPassengers is the seat count assumed when the oracle names none.
const DefaultTargetPassengers = 150

// AircraftDomain picks an aircraft family, then a model to lease from it.
// Upfront cost is the security deposit, recurring cost the weekly rate.
type AircraftDomain struct{}

var aircraftLabels = Labels{
	Category:       reply.Label{Name: "FAMILY", Aliases: []string{"FAMILIE"}},
	CategoryReason: reply.Label{Name: "REASON", Aliases: []string{"GRUND"}},
	Target:         reply.Label{Name: "PASSENGER_TARGET", Aliases: []string{"PASSAGIER_ZIEL"}},

	Item:       reply.Label{Name: "RECOMMENDATION", Aliases: []string{"EMPFEHLUNG"}},
	Quantity:   reply.Label{Name: "QUANTITY", Aliases: []string{"ANZAHL"}},
	ItemReason: reply.Label{Name: "REASON", Aliases: []string{"GRUND"}},
	Upfront:    reply.Label{Name: "SECURITY_DEPOSITS"},
	Recurring:  reply.Label{Name: "WEEKLY_COST", Aliases: []string{"WOCHENKOSTEN"}},
}

func (AircraftDomain) Category() string { return model.CategoryAircraft }

func (AircraftDomain) Keys() group.Keys[model.Aircraft] {
	return group.Keys[model.Aircraft]{
		Group:    func(a model.Aircraft) string { return a.Family },
		Cost:     func(a model.Aircraft) float64 { return a.SecurityDeposit.InexactFloat64() },
		Capacity: func(a model.Aircraft) float64 { return float64(a.Passengers) },
	}
}

func (AircraftDomain) ItemName(a model.Aircraft) string { return a.Model }
func (AircraftDomain) Upfront(a model.Aircraft) decimal.Decimal { return a.SecurityDeposit }
func (AircraftDomain) Recurring(a model.Aircraft) decimal.Decimal { return a.WeeklyRate }
func (AircraftDomain) Capacity(a model.Aircraft) int { return a.Passengers }

// CategoryRatio favours families whose largest model is cheap to start.
func (AircraftDomain) CategoryRatio(g group.Summary[model.Aircraft]) float64 {
	return resolve.Ratio(g.MaxCapacity, g.MinCost)
}

// ItemRatio is seats per unit of deposit.
func (AircraftDomain) ItemRatio(a model.Aircraft) float64 {
	return resolve.Ratio(float64(a.Passengers), a.SecurityDeposit.InexactFloat64())
}

func (AircraftDomain) Labels() Labels { return aircraftLabels }

func (AircraftDomain) Hints() Hints {
	return Hints{Target: DefaultTargetPassengers, Window: 50}
}

func leasingTerms(sb *strings.Builder) {
	sb.WriteString("LEASING TERMS:\n")
	fmt.Fprintf(sb, "- Security deposit: 1/%d of the purchase price, paid once\n", model.DepositDivisor)
	fmt.Fprintf(sb, "- Weekly rate: 1/%d of the purchase price, first week free\n", model.WeeklyRateDivisor)
	sb.WriteString("- Cabin fitting adds roughly 50,000-200,000 AS$ per aircraft\n")
	sb.WriteString("- Deposits plus fitting must stay below 70% of the budget\n\n")
}

func (AircraftDomain) CategoryPrompt(b Brief, groups []group.Summary[model.Aircraft]) string {
	var sb strings.Builder
	briefing(&sb, "choosing an aircraft family to lease", b)
	leasingTerms(&sb)

	sb.WriteString("AVAILABLE FAMILIES:\n")
	for i, g := range groups {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, g.Name)
		fmt.Fprintf(&sb, "   - Models: %d\n", g.Count)
		fmt.Fprintf(&sb, "   - Passengers: %.0f - %.0f\n", g.MinCapacity, g.MaxCapacity)
		fmt.Fprintf(&sb, "   - Security deposit range: %s - %s\n", moneyf(g.MinCost), moneyf(g.MaxCost))
	}
	sb.WriteString("\nWhich family offers the best profit per flight at an affordable start?\n")
	sb.WriteString("Which passenger size suits the hub best?\n\n")

	l := aircraftLabels
	answerFormat(&sb,
		field(l.Category, "exact family name"),
		field(l.CategoryReason, "one or two sentences"),
		field(l.Target, "preferred passenger count"),
	)
	return sb.String()
}

func (AircraftDomain) ItemPrompt(b Brief, choice model.CategoryChoice, items []model.Aircraft) string {
	var sb strings.Builder
	briefing(&sb, "choosing an aircraft model to lease", b)
	leasingTerms(&sb)

	fmt.Fprintf(&sb, "AVAILABLE MODELS IN FAMILY %q (%d cheapest):\n", choice.Name, len(items))
	for i, a := range items {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, a.Model)
		fmt.Fprintf(&sb, "   - Passengers: %d\n", a.Passengers)
		if a.Range != "" {
			fmt.Fprintf(&sb, "   - Range: %s\n", a.Range)
		}
		if a.Speed != "" {
			fmt.Fprintf(&sb, "   - Speed: %s\n", a.Speed)
		}
		if a.PriceText != "" {
			fmt.Fprintf(&sb, "   - Purchase price: %s\n", a.PriceText)
		}
		fmt.Fprintf(&sb, "   - Security deposit: %s (due now)\n", money(a.SecurityDeposit))
		fmt.Fprintf(&sb, "   - Weekly rate: %s (from week 2)\n", money(a.WeeklyRate))
		fmt.Fprintf(&sb, "   - Used on auction: %d\n", a.OnAuction)
	}
	sb.WriteString("\nWhich model, and how many, give the best profit within the budget?\n\n")

	l := aircraftLabels
	answerFormat(&sb,
		field(l.Item, "exact model name"),
		field(l.Quantity, "number"),
		field(l.ItemReason, "one or two sentences"),
		field(l.Upfront, "total security deposits in AS$"),
		field(l.Recurring, "weekly cost from week 2 in AS$"),
	)
	return sb.String()
}
