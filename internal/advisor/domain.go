// Package advisor runs the two-stage recommendation: the oracle first picks a
// category of items (an aircraft family, a region) from aggregate summaries,
// then a single item from the shortlisted members of that category.
package advisor

import (
	"github.com/shopspring/decimal"

	"github.com/rcliao/fleet-advisor/internal/group"
	"github.com/rcliao/fleet-advisor/internal/model"
	"github.com/rcliao/fleet-advisor/internal/reply"
)

// Labels are the reply fields each stage asks the oracle for. A label with
// an empty Name is not requested and its default applies.
type Labels struct {
	Category       reply.Label
	CategoryReason reply.Label
	Target         reply.Label

	Item       reply.Label
	Quantity   reply.Label
	ItemReason reply.Label
	Upfront    reply.Label
	Recurring  reply.Label

	// Extra item-stage fields copied verbatim into Recommendation.Extras.
	Extra []reply.Label

	// Ranked asks for that many numbered answers (ITEM_1, REASON_1, ...)
	// instead of one. Priority names the rank to prefer; the others that
	// match a candidate become alternates.
	Ranked   int
	Priority reply.Label
}

// Hints tune the shortlist built for the item stage.
type Hints struct {
	// Target is the size hint used when the oracle gives none.
	Target int
	// Window keeps members whose capacity is within Window of the target.
	// Zero disables the filter.
	Window int
}

// Brief is what the caller knows about the airline for one run.
type Brief struct {
	Funds   decimal.Decimal
	Budget  decimal.Decimal // zero means a safe fraction of Funds
	Airline model.Airline
	Notes   []string // extra context lines for both prompts
}

// Coded is implemented by domains whose items carry a short code that
// replies may quote instead of the full name, such as an IATA code.
type Coded[I any] interface {
	ItemCode(I) string
}

// Domain adapts the engine to one kind of catalog item.
type Domain[I any] interface {
	// Category is the decision log category for results of this domain.
	Category() string
	Keys() group.Keys[I]
	ItemName(I) string
	Upfront(I) decimal.Decimal
	Recurring(I) decimal.Decimal
	Capacity(I) int

	// CategoryRatio and ItemRatio rank affordable candidates when the
	// oracle's answer cannot be matched. Higher is better.
	CategoryRatio(group.Summary[I]) float64
	ItemRatio(I) float64

	Labels() Labels
	Hints() Hints

	CategoryPrompt(b Brief, groups []group.Summary[I]) string
	ItemPrompt(b Brief, choice model.CategoryChoice, items []I) string
}
