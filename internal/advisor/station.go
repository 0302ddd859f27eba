package advisor

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rcliao/fleet-advisor/internal/group"
	"github.com/rcliao/fleet-advisor/internal/model"
	"github.com/rcliao/fleet-advisor/internal/reply"
)

// StationDomain picks a region, then a station to open in it. Stations are
// ranked by daily demand since opening one is usually free.
type StationDomain struct {
	// Existing stations are listed in the prompt as the current network.
	Existing []model.Station
}

// RankedStations is how many stations the item stage asks for, best first.
const RankedStations = 5

var stationLabels = Labels{
	Category:       reply.Label{Name: "REGION"},
	CategoryReason: reply.Label{Name: "REASON", Aliases: []string{"GRUND"}},

	Item:       reply.Label{Name: "STATION"},
	ItemReason: reply.Label{Name: "REASON", Aliases: []string{"GRUND"}},
	Extra:      []reply.Label{{Name: "ROUTE"}},

	Ranked:   RankedStations,
	Priority: reply.Label{Name: "PRIORITY", Aliases: []string{"PRIORITÄT", "PRIORITAET"}},
}

func (StationDomain) Category() string { return model.CategoryStation }

func (StationDomain) Keys() group.Keys[model.Station] {
	return group.Keys[model.Station]{
		Group:    func(s model.Station) string { return s.Region },
		Cost:     func(s model.Station) float64 { return s.OpeningCost.InexactFloat64() },
		Capacity: func(s model.Station) float64 { return float64(s.DailyDemand) },
	}
}

func (StationDomain) ItemName(s model.Station) string { return s.Label() }
func (StationDomain) ItemCode(s model.Station) string { return s.Code }
func (StationDomain) Upfront(s model.Station) decimal.Decimal { return s.OpeningCost }
func (StationDomain) Recurring(model.Station) decimal.Decimal { return decimal.Zero }
func (StationDomain) Capacity(s model.Station) int { return s.DailyDemand }

func (StationDomain) CategoryRatio(g group.Summary[model.Station]) float64 { return g.MaxCapacity }
func (StationDomain) ItemRatio(s model.Station) float64 { return float64(s.DailyDemand) }

func (StationDomain) Labels() Labels { return stationLabels }
func (StationDomain) Hints() Hints { return Hints{} }

func (d StationDomain) network(sb *strings.Builder, b Brief) {
	sb.WriteString("CURRENT NETWORK:\n")
	if len(d.Existing) == 0 {
		fmt.Fprintf(sb, "- Hub only: %s\n\n", b.Airline.Hub)
		return
	}
	for _, s := range d.Existing {
		fmt.Fprintf(sb, "- %s: %s\n", s.Label(), s.Country)
	}
	sb.WriteString("\n")
}

func (d StationDomain) CategoryPrompt(b Brief, groups []group.Summary[model.Station]) string {
	var sb strings.Builder
	briefing(&sb, "planning a station network", b)
	d.network(&sb, b)

	sb.WriteString("CANDIDATE REGIONS:\n")
	for i, g := range groups {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, g.Name)
		fmt.Fprintf(&sb, "   - Airports: %d\n", g.Count)
		fmt.Fprintf(&sb, "   - Daily demand: %.0f - %.0f passengers\n", g.MinCapacity, g.MaxCapacity)
		if g.MaxCost > 0 {
			fmt.Fprintf(&sb, "   - Opening cost: %s - %s\n", moneyf(g.MinCost), moneyf(g.MaxCost))
		}
	}
	sb.WriteString("\nWhich region best fits the recommended aircraft's range and size?\n\n")

	l := stationLabels
	answerFormat(&sb,
		field(l.Category, "exact region name"),
		field(l.CategoryReason, "one or two sentences"),
	)
	return sb.String()
}

func (d StationDomain) ItemPrompt(b Brief, choice model.CategoryChoice, items []model.Station) string {
	var sb strings.Builder
	briefing(&sb, "planning a station network", b)
	d.network(&sb, b)

	fmt.Fprintf(&sb, "CANDIDATE AIRPORTS IN %q:\n", choice.Name)
	for i, s := range items {
		fmt.Fprintf(&sb, "%d. %s - %s\n", i+1, s.Label(), s.Country)
		fmt.Fprintf(&sb, "   - Daily demand: %d passengers\n", s.DailyDemand)
		if s.OpeningCost.IsPositive() {
			fmt.Fprintf(&sb, "   - Opening cost: %s\n", money(s.OpeningCost))
		}
	}
	fmt.Fprintf(&sb, "\nRecommend the top %d airports to open for the most profitable routes from the hub, best first.\n\n", RankedStations)

	l := stationLabels
	var fields [][2]string
	names, reasons, routes := numbered(l.Item, l.Ranked), numbered(l.ItemReason, l.Ranked), numbered(l.Extra[0], l.Ranked)
	for i := range names {
		fields = append(fields,
			field(names[i], "airport name (CODE) - country"),
			field(reasons[i], "one or two sentences"),
			field(routes[i], "hub <-> station - estimated daily passengers"),
		)
	}
	fields = append(fields, field(l.Priority, fmt.Sprintf("1-%d, which station to open first", l.Ranked)))
	answerFormat(&sb, fields...)
	return sb.String()
}

// Openable drops candidates whose code is already in the network.
func Openable(candidates, existing []model.Station) []model.Station {
	have := map[string]bool{}
	for _, s := range existing {
		have[strings.ToUpper(s.Code)] = true
	}
	var out []model.Station
	for _, s := range candidates {
		if s.Code != "" && have[strings.ToUpper(s.Code)] {
			continue
		}
		out = append(out, s)
	}
	return out
}
