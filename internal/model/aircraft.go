// Package model defines the core data types shared by the advisor packages.
package model

import "github.com/shopspring/decimal"

// Leasing ratios applied to a purchase price.
const (
	DepositDivisor    = 20
	WeeklyRateDivisor = 200
)

// Aircraft is a leasable catalog entry scraped from a manufacturer family page.
type Aircraft struct {
	Model           string          `json:"model"`
	Family          string          `json:"family"`
	Passengers      int             `json:"passengers"`
	Cargo           string          `json:"cargo,omitempty"`
	Range           string          `json:"range,omitempty"`
	Speed           string          `json:"speed,omitempty"`
	PriceText       string          `json:"price_text,omitempty"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	SecurityDeposit decimal.Decimal `json:"security_deposit"`
	WeeklyRate      decimal.Decimal `json:"weekly_rate"`
	InitialCost     decimal.Decimal `json:"initial_cost"`
	OnAuction       int             `json:"on_auction"`
}

// Family is a manufacturer aircraft family as listed on the manufacturers page.
type Family struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	URL  string `json:"url,omitempty"`
}

// LeaseTerms derives the upfront and recurring leasing costs from a purchase price.
// The first week is free, so the initial cost is the deposit alone.
func LeaseTerms(price decimal.Decimal) (deposit, weekly decimal.Decimal) {
	deposit = price.Div(decimal.NewFromInt(DepositDivisor)).Floor()
	weekly = price.Div(decimal.NewFromInt(WeeklyRateDivisor)).Floor()
	return deposit, weekly
}

// NewAircraft fills the derived cost fields from the purchase price.
func NewAircraft(a Aircraft) Aircraft {
	a.SecurityDeposit, a.WeeklyRate = LeaseTerms(a.PurchasePrice)
	a.InitialCost = a.SecurityDeposit
	return a
}

// Station is an airport where a new station can be opened.
type Station struct {
	Name        string          `json:"name"`
	Code        string          `json:"code"`
	Country     string          `json:"country"`
	Region      string          `json:"region,omitempty"`
	DailyDemand int             `json:"daily_demand"`
	OpeningCost decimal.Decimal `json:"opening_cost"`
}

// Label is the display name used when matching oracle replies.
func (s Station) Label() string {
	if s.Code == "" {
		return s.Name
	}
	return s.Name + " (" + s.Code + ")"
}
