package resolve

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// DefaultTolerance is the relative divergence allowed between an
// oracle-stated figure and the computed one before a warning is raised.
const DefaultTolerance = 0.10

// Mismatch describes an oracle-stated figure that disagrees with the computed one.
type Mismatch struct {
	Field     string          `json:"field"`
	Stated    decimal.Decimal `json:"stated"`
	Computed  decimal.Decimal `json:"computed"`
	Deviation float64         `json:"deviation"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: oracle stated %s, computed %s (%.0f%% off)",
		m.Field, m.Stated.StringFixed(0), m.Computed.StringFixed(0), m.Deviation*100)
}

// CheckCost compares a stated figure with the computed one. A stated figure of
// zero or less means the oracle gave none and is never a mismatch.
func CheckCost(field string, stated, computed decimal.Decimal, tolerance float64) (Mismatch, bool) {
	if !stated.IsPositive() {
		return Mismatch{}, false
	}
	diff := computed.Sub(stated).Abs()
	limit := computed.Abs().Mul(decimal.NewFromFloat(tolerance))
	if diff.LessThanOrEqual(limit) {
		return Mismatch{}, false
	}
	dev := math.Inf(1)
	if !computed.IsZero() {
		dev = diff.Div(computed.Abs()).InexactFloat64()
	}
	return Mismatch{Field: field, Stated: stated, Computed: computed, Deviation: dev}, true
}
