// Package afford checks proposed spending against available funds.
package afford

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/rcliao/fleet-advisor/internal/model"
)

// DefaultBudgetFraction is the share of funds offered to a recommendation run.
// The rest is held back for seating, staff and other incidental costs.
const DefaultBudgetFraction = 0.6

// Check reports whether available covers required. Ratio is available/required,
// or +Inf when nothing is required.
func Check(available, required decimal.Decimal) model.AffordabilityCheck {
	c := model.AffordabilityCheck{
		Available: available,
		Required:  required,
		CanAfford: available.GreaterThanOrEqual(required),
		Shortfall: decimal.Max(decimal.Zero, required.Sub(available)),
	}
	if required.IsZero() {
		c.Ratio = math.Inf(1)
	} else {
		c.Ratio = available.Div(required).InexactFloat64()
	}
	return c
}

// SafeBudget returns floor(funds × fraction). A fraction outside (0, 1] falls
// back to DefaultBudgetFraction; negative funds give a zero budget.
func SafeBudget(funds decimal.Decimal, fraction float64) decimal.Decimal {
	if fraction <= 0 || fraction > 1 {
		fraction = DefaultBudgetFraction
	}
	if funds.IsNegative() {
		return decimal.Zero
	}
	return funds.Mul(decimal.NewFromFloat(fraction)).Floor()
}
