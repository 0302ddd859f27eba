package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rcliao/fleet-advisor/internal/model"
	"github.com/rcliao/fleet-advisor/internal/reply"
)

// Snapshot is market data captured at one point in time. It implements every
// feed interface and is what LoadFile returns.
type Snapshot struct {
	Balance  decimal.Decimal
	Owner    model.Airline
	Aircraft []model.Aircraft
	Families []model.Family
	Stations []model.Station
	Existing []model.Station
}

// Amount is a money value that may be exported either as a JSON number or
// as display text such as "12,345,678 AS$".
type Amount struct {
	decimal.Decimal
	Set bool
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] != '"' {
		d, err := decimal.NewFromString(string(b))
		if err != nil {
			return fmt.Errorf("amount %s: %w", b, err)
		}
		a.Decimal, a.Set = d, true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d, ok := reply.Amount(s)
	if !ok {
		return fmt.Errorf("amount %q: no number", s)
	}
	a.Decimal, a.Set = d, true
	return nil
}

type exportAircraft struct {
	Model         string `json:"model"`
	Family        string `json:"family"`
	Passengers    int    `json:"passengers"`
	Cargo         string `json:"cargo"`
	Range         string `json:"range"`
	Speed         string `json:"speed"`
	PriceText     string `json:"price_text"`
	PurchasePrice Amount `json:"purchase_price"`
	OnAuction     int    `json:"on_auction"`
}

type exportStation struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Country     string `json:"country"`
	Region      string `json:"region"`
	DailyDemand int    `json:"daily_demand"`
	OpeningCost Amount `json:"opening_cost"`
}

type export struct {
	Balance  Amount           `json:"balance"`
	Airline  model.Airline    `json:"airline"`
	Families []model.Family   `json:"families"`
	Aircraft []exportAircraft `json:"aircraft"`
	Stations []exportStation  `json:"stations"`
	Existing []exportStation  `json:"existing_stations"`
}

// LoadFile reads a JSON export written by the scraper.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON export. Lease terms are derived from each aircraft's
// purchase price, taken from purchase_price or else parsed from price_text.
func Parse(data []byte) (*Snapshot, error) {
	var ex export
	if err := json.Unmarshal(data, &ex); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}

	s := &Snapshot{Balance: ex.Balance.Decimal, Owner: ex.Airline, Families: ex.Families}
	for _, a := range ex.Aircraft {
		price := a.PurchasePrice.Decimal
		if !a.PurchasePrice.Set {
			p, ok := reply.Amount(a.PriceText)
			if !ok {
				return nil, fmt.Errorf("aircraft %q: no price in %q", a.Model, a.PriceText)
			}
			price = p
		}
		s.Aircraft = append(s.Aircraft, model.NewAircraft(model.Aircraft{
			Model:         strings.TrimSpace(a.Model),
			Family:        strings.TrimSpace(a.Family),
			Passengers:    a.Passengers,
			Cargo:         a.Cargo,
			Range:         a.Range,
			Speed:         a.Speed,
			PriceText:     a.PriceText,
			PurchasePrice: price,
			OnAuction:     a.OnAuction,
		}))
	}
	if len(s.Families) == 0 {
		s.Families = familiesOf(s.Aircraft)
	}
	s.Stations = stations(ex.Stations)
	s.Existing = stations(ex.Existing)
	return s, nil
}

func stations(in []exportStation) []model.Station {
	var out []model.Station
	for _, st := range in {
		out = append(out, model.Station{
			Name:        strings.TrimSpace(st.Name),
			Code:        strings.ToUpper(strings.TrimSpace(st.Code)),
			Country:     st.Country,
			Region:      st.Region,
			DailyDemand: st.DailyDemand,
			OpeningCost: st.OpeningCost.Decimal,
		})
	}
	return out
}

func familiesOf(aircraft []model.Aircraft) []model.Family {
	seen := map[string]bool{}
	var out []model.Family
	for _, a := range aircraft {
		if a.Family == "" || seen[a.Family] {
			continue
		}
		seen[a.Family] = true
		out = append(out, model.Family{Name: a.Family})
	}
	return out
}

func (s *Snapshot) FetchCatalog(ctx context.Context) ([]model.Aircraft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]model.Aircraft(nil), s.Aircraft...), nil
}

func (s *Snapshot) FetchFamilies(ctx context.Context) ([]model.Family, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]model.Family(nil), s.Families...), nil
}

func (s *Snapshot) FetchStations(ctx context.Context) ([]model.Station, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]model.Station(nil), s.Stations...), nil
}

func (s *Snapshot) ExistingStations(ctx context.Context) ([]model.Station, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]model.Station(nil), s.Existing...), nil
}

func (s *Snapshot) AvailableFunds(ctx context.Context) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	return s.Balance, nil
}

func (s *Snapshot) Airline(ctx context.Context) (model.Airline, error) {
	if err := ctx.Err(); err != nil {
		return model.Airline{}, err
	}
	return s.Owner, nil
}
