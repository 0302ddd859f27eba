package model

import "github.com/shopspring/decimal"

// Tier records how confidently an oracle label was matched to a candidate.
type Tier string

const (
	TierExact    Tier = "exact"
	TierPartial  Tier = "partial"
	TierFallback Tier = "fallback"
)

// CategoryChoice is the outcome of the first, coarse selection stage.
type CategoryChoice struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Tier        Tier   `json:"tier"`
	Rationale   string `json:"rationale"`
	TargetSize  int    `json:"target_size"`
	RawResponse string `json:"raw_response"`
	MemberCount int    `json:"member_count"`
}

// Recommendation is the structured result of one two-stage run.
// Totals are always computed from the chosen item's own prices.
type Recommendation[T any] struct {
	Item               T                 `json:"item"`
	Name               string            `json:"name"`
	Quantity           int               `json:"quantity"`
	Rationale          string            `json:"rationale"`
	TotalUpfrontCost   decimal.Decimal   `json:"total_upfront_cost"`
	TotalRecurringCost decimal.Decimal   `json:"total_recurring_cost"`
	RawResponse        string            `json:"raw_response"`
	Tier               Tier              `json:"tier"`
	Category           CategoryChoice    `json:"category"`
	Warnings           []string          `json:"warnings,omitempty"`
	Extras             map[string]string `json:"extras,omitempty"`
	Alternates         []string          `json:"alternates,omitempty"`
	Analyzed           int               `json:"analyzed"`
	Budget             decimal.Decimal   `json:"budget"`
}
