package model

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLeaseTerms(t *testing.T) {
	deposit, weekly := LeaseTerms(decimal.NewFromInt(35_734_123))
	if deposit.String() != "1786706" {
		t.Errorf("expected deposit 1786706, got %s", deposit)
	}
	if weekly.String() != "178670" {
		t.Errorf("expected weekly 178670, got %s", weekly)
	}

	a := NewAircraft(Aircraft{Model: "A320-200", PurchasePrice: decimal.NewFromInt(100_000_000)})
	if !a.InitialCost.Equal(a.SecurityDeposit) {
		t.Errorf("initial cost %s should equal deposit %s", a.InitialCost, a.SecurityDeposit)
	}
}

func TestStationLabel(t *testing.T) {
	if got := (Station{Name: "Frankfurt", Code: "FRA"}).Label(); got != "Frankfurt (FRA)" {
		t.Errorf("unexpected label %q", got)
	}
	if got := (Station{Name: "Nowhere"}).Label(); got != "Nowhere" {
		t.Errorf("unexpected label %q", got)
	}
}

func TestAffordabilityInfiniteRatioJSON(t *testing.T) {
	c := AffordabilityCheck{
		Available: decimal.NewFromInt(100),
		Required:  decimal.Zero,
		CanAfford: true,
		Ratio:     math.Inf(1),
		Shortfall: decimal.Zero,
	}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"ratio":null`) {
		t.Errorf("expected null ratio, got %s", b)
	}

	var back AffordabilityCheck
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !math.IsInf(back.Ratio, 1) || !back.CanAfford {
		t.Errorf("unexpected round trip %+v", back)
	}

	c.Ratio = 0.5
	b, _ = json.Marshal(c)
	if !strings.Contains(string(b), `"ratio":0.5`) {
		t.Errorf("expected finite ratio, got %s", b)
	}
}
