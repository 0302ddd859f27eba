package model

import (
	"encoding/json"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Decision represents one entry in the decision audit log.
type Decision struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Category  string          `json:"category"`
	Summary   string          `json:"summary"`
	Rationale string          `json:"rationale"`
	Context   json.RawMessage `json:"context,omitempty"`
	Outcome   *string         `json:"outcome"`
	Score     *float64        `json:"score"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

// Decision categories written by the pipelines.
const (
	CategoryAircraft = "aircraft"
	CategoryStation  = "station"
	CategoryRoute    = "route"
	CategoryPricing  = "pricing"
	CategoryFleet    = "fleet"
	CategoryStrategy = "strategy"
)

// ValidCategories are the allowed decision categories.
var ValidCategories = map[string]bool{
	CategoryAircraft: true,
	CategoryStation:  true,
	CategoryRoute:    true,
	CategoryPricing:  true,
	CategoryFleet:    true,
	CategoryStrategy: true,
}

// Outcomes counted by analytics. Other strings are stored verbatim.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AffordabilityCheck compares available funds with a required amount.
type AffordabilityCheck struct {
	Available decimal.Decimal `json:"available_funds"`
	Required  decimal.Decimal `json:"required_amount"`
	CanAfford bool            `json:"can_afford"`
	Ratio     float64         `json:"ratio"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

type affordabilityJSON struct {
	Available decimal.Decimal `json:"available_funds"`
	Required  decimal.Decimal `json:"required_amount"`
	CanAfford bool            `json:"can_afford"`
	Ratio     *float64        `json:"ratio"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

// MarshalJSON writes an infinite ratio (nothing required) as null, since
// JSON has no infinity.
func (c AffordabilityCheck) MarshalJSON() ([]byte, error) {
	out := affordabilityJSON{
		Available: c.Available,
		Required:  c.Required,
		CanAfford: c.CanAfford,
		Shortfall: c.Shortfall,
	}
	if !math.IsInf(c.Ratio, 0) && !math.IsNaN(c.Ratio) {
		r := c.Ratio
		out.Ratio = &r
	}
	return json.Marshal(out)
}

func (c *AffordabilityCheck) UnmarshalJSON(b []byte) error {
	var in affordabilityJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*c = AffordabilityCheck{
		Available: in.Available,
		Required:  in.Required,
		CanAfford: in.CanAfford,
		Shortfall: in.Shortfall,
		Ratio:     math.Inf(1),
	}
	if in.Ratio != nil {
		c.Ratio = *in.Ratio
	}
	return nil
}
