package afford

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCheckShortOfFunds(t *testing.T) {
	c := Check(decimal.NewFromInt(1_000_000), decimal.NewFromInt(1_200_000))
	assert.False(t, c.CanAfford)
	assert.InDelta(t, 0.833, c.Ratio, 0.001)
	assert.Equal(t, "200000", c.Shortfall.String())
}

func TestCheckAffordable(t *testing.T) {
	c := Check(decimal.NewFromInt(2_000_000), decimal.NewFromInt(500_000))
	assert.True(t, c.CanAfford)
	assert.Equal(t, 4.0, c.Ratio)
	assert.True(t, c.Shortfall.IsZero())
}

func TestCheckExactAmount(t *testing.T) {
	c := Check(decimal.NewFromInt(10), decimal.NewFromInt(10))
	assert.True(t, c.CanAfford)
	assert.Equal(t, 1.0, c.Ratio)
}

func TestCheckNothingRequired(t *testing.T) {
	c := Check(decimal.NewFromInt(10), decimal.Zero)
	assert.True(t, c.CanAfford)
	assert.True(t, math.IsInf(c.Ratio, 1))
}

func TestCheckMonotonic(t *testing.T) {
	required := decimal.NewFromInt(5_000)
	wasAffordable := false
	for a := int64(0); a <= 10_000; a += 250 {
		c := Check(decimal.NewFromInt(a), required)
		if wasAffordable {
			assert.True(t, c.CanAfford, "available=%d flipped back to unaffordable", a)
		}
		wasAffordable = c.CanAfford
	}
	assert.True(t, wasAffordable)
}

func TestSafeBudget(t *testing.T) {
	funds := decimal.NewFromInt(10_000_001)
	assert.Equal(t, "6000000", SafeBudget(funds, 0.6).String())
	assert.Equal(t, "8000000", SafeBudget(funds, 0.8).String())
	assert.Equal(t, "6000000", SafeBudget(funds, 0).String(), "invalid fraction uses default")
	assert.Equal(t, "6000000", SafeBudget(funds, 1.5).String())
	assert.True(t, SafeBudget(decimal.NewFromInt(-5), 0.6).IsZero())
}
