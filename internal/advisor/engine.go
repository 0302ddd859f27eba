package advisor

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rcliao/fleet-advisor/internal/afford"
	"github.com/rcliao/fleet-advisor/internal/group"
	"github.com/rcliao/fleet-advisor/internal/model"
	"github.com/rcliao/fleet-advisor/internal/oracle"
	"github.com/rcliao/fleet-advisor/internal/reply"
	"github.com/rcliao/fleet-advisor/internal/resolve"
)

// ErrNoViableOption is returned when a stage has nothing to choose from.
var ErrNoViableOption = errors.New("no viable option")

// Defaults for Options fields left zero.
const (
	DefaultItemCap         = 20
	DefaultCeilingFraction = 0.5
)

// State is the engine's position in a run. Runs only move forward.
type State int

const (
	StateStart State = iota
	StateCategorySelection
	StateItemSelection
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateCategorySelection:
		return "category_selection"
	case StateItemSelection:
		return "item_selection"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Options configures an Engine.
type Options struct {
	BudgetFraction  float64 // share of funds used when Brief.Budget is zero
	ItemCap         int     // most members shown in the item stage
	CeilingFraction float64 // share of budget a fallback pick may cost
	Tolerance       float64 // allowed deviation of oracle-stated totals
	Logger          *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.BudgetFraction <= 0 || o.BudgetFraction > 1 {
		o.BudgetFraction = afford.DefaultBudgetFraction
	}
	if o.ItemCap <= 0 {
		o.ItemCap = DefaultItemCap
	}
	if o.CeilingFraction <= 0 {
		o.CeilingFraction = DefaultCeilingFraction
	}
	if o.Tolerance <= 0 {
		o.Tolerance = resolve.DefaultTolerance
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Engine narrows a catalog to one recommended item in two oracle calls.
// It holds no per-run state and may be shared.
type Engine[I any] struct {
	oracle oracle.Oracle
	domain Domain[I]
	opts   Options
	log    *zap.Logger
}

// New returns an engine asking o about items of domain d.
func New[I any](o oracle.Oracle, d Domain[I], opts Options) *Engine[I] {
	opts = opts.withDefaults()
	return &Engine[I]{
		oracle: o,
		domain: d,
		opts:   opts,
		log:    opts.Logger.With(zap.String("domain", d.Category()), zap.String("oracle", o.Name())),
	}
}

// Budget resolves the spending limit for a brief.
func (e *Engine[I]) Budget(b Brief) decimal.Decimal {
	if b.Budget.IsPositive() {
		return b.Budget
	}
	return afford.SafeBudget(b.Funds, e.opts.BudgetFraction)
}

type run struct {
	state State
	log   *zap.Logger
}

func (r *run) advance(to State) {
	if to <= r.state {
		panic(fmt.Sprintf("advisor: illegal transition %s -> %s", r.state, to))
	}
	r.log.Debug("state transition", zap.Stringer("from", r.state), zap.Stringer("to", to))
	r.state = to
}

// Recommend groups items, lets the oracle choose a category and then an
// item from it, and returns the result with totals computed from the
// chosen item's own prices.
func (e *Engine[I]) Recommend(ctx context.Context, items []I, b Brief) (*model.Recommendation[I], error) {
	r := &run{state: StateStart, log: e.log}
	if len(items) == 0 {
		return nil, fmt.Errorf("category selection: %w", ErrNoViableOption)
	}
	b.Budget = e.Budget(b)

	groups := group.By(items, e.domain.Keys())
	e.log.Info("grouped catalog",
		zap.Int("items", len(items)),
		zap.Int("groups", len(groups)),
		zap.String("budget", b.Budget.String()))

	r.advance(StateCategorySelection)
	chosen, choice, err := e.SelectCategory(ctx, groups, b)
	if err != nil {
		return nil, err
	}

	r.advance(StateItemSelection)
	rec, err := e.SelectItem(ctx, chosen.Members, choice, b)
	if err != nil {
		return nil, err
	}

	r.advance(StateDone)
	return rec, nil
}

// SelectCategory asks the oracle for one of groups and resolves its answer.
func (e *Engine[I]) SelectCategory(ctx context.Context, groups []group.Summary[I], b Brief) (group.Summary[I], model.CategoryChoice, error) {
	var none group.Summary[I]
	if len(groups) == 0 {
		return none, model.CategoryChoice{}, fmt.Errorf("category selection: %w", ErrNoViableOption)
	}
	b.Budget = e.Budget(b)
	labels := e.domain.Labels()
	hints := e.domain.Hints()

	text, err := e.ask(ctx, e.domain.CategoryPrompt(b, groups))
	if err != nil {
		return none, model.CategoryChoice{}, fmt.Errorf("category selection: %w", err)
	}
	rep := reply.NewGrammar(labels.Category, labels.CategoryReason, labels.Target).Parse(text)
	e.reportMissing("category", rep, labels.Category.Name, labels.CategoryReason.Name)

	label := rep.Line(labels.Category.Name, "")
	m, err := resolve.Resolve(label, groups, resolve.Options[group.Summary[I]]{
		Name:    func(g group.Summary[I]) string { return g.Name },
		Cost:    func(g group.Summary[I]) float64 { return g.MinCost },
		Ratio:   e.domain.CategoryRatio,
		Ceiling: e.ceiling(b.Budget),
	})
	if err != nil {
		return none, model.CategoryChoice{}, fmt.Errorf("category selection: %w", ErrNoViableOption)
	}

	target := hints.Target
	if labels.Target.Name != "" {
		if n := rep.Int(labels.Target.Name, hints.Target); n > 0 {
			target = n
		}
	}

	choice := model.CategoryChoice{
		Name:        m.Item.Name,
		Label:       label,
		Tier:        m.Tier,
		Rationale:   rep.String(labels.CategoryReason.Name, "Recommendation based on category analysis"),
		TargetSize:  target,
		RawResponse: text,
		MemberCount: m.Item.Count,
	}
	e.logMatch("category", label, m.Item.Name, m.Tier)
	return m.Item, choice, nil
}

// SelectItem shortlists members, asks the oracle for one of them and
// computes the totals for the requested quantity.
func (e *Engine[I]) SelectItem(ctx context.Context, members []I, choice model.CategoryChoice, b Brief) (*model.Recommendation[I], error) {
	d := e.domain
	b.Budget = e.Budget(b)
	labels := d.Labels()

	shortlist := Shortlist(members, choice.TargetSize, d.Hints().Window, e.opts.ItemCap,
		d.Capacity, e.upfront)
	if len(shortlist) == 0 {
		return nil, fmt.Errorf("item selection in %q: %w", choice.Name, ErrNoViableOption)
	}

	text, err := e.ask(ctx, d.ItemPrompt(b, choice, shortlist))
	if err != nil {
		return nil, fmt.Errorf("item selection: %w", err)
	}
	rep := labels.itemGrammar().Parse(text)
	e.reportMissing("item", rep, labels.itemFields()...)

	ropts := resolve.Options[I]{
		Name:    d.ItemName,
		Cost:    e.upfront,
		Ratio:   d.ItemRatio,
		Ceiling: e.ceiling(b.Budget),
	}
	if c, ok := d.(Coded[I]); ok {
		ropts.Code = c.ItemCode
	}

	// The first answer that names a real candidate wins. When none does,
	// the first answer's fallback pick is used.
	answers := readAnswers(rep, labels)
	matches := make([]resolve.Match[I], len(answers))
	best := -1
	for k, a := range answers {
		mk, err := resolve.Resolve(a.label, shortlist, ropts)
		if err != nil {
			return nil, fmt.Errorf("item selection: %w", ErrNoViableOption)
		}
		matches[k] = mk
		if best < 0 && mk.Tier != model.TierFallback {
			best = k
		}
	}
	if best < 0 {
		best = 0
	}
	m, chosen := matches[best], answers[best]
	e.logMatch("item", chosen.label, d.ItemName(m.Item), m.Tier)

	var alternates []string
	for k, mk := range matches {
		if k == best || mk.Tier == model.TierFallback || mk.Index == m.Index {
			continue
		}
		if name := d.ItemName(mk.Item); !slices.Contains(alternates, name) {
			alternates = append(alternates, name)
		}
	}

	rationale := chosen.reason
	if rationale == "" {
		rationale = rep.String(labels.ItemReason.Name, "Recommendation based on item analysis")
	}

	quantity := 1
	if labels.Quantity.Name != "" {
		if n := rep.Int(labels.Quantity.Name, 1); n > 0 {
			quantity = n
		}
	}
	qty := decimal.NewFromInt(int64(quantity))

	rec := &model.Recommendation[I]{
		Item:               m.Item,
		Name:               d.ItemName(m.Item),
		Quantity:           quantity,
		Rationale:          rationale,
		TotalUpfrontCost:   d.Upfront(m.Item).Mul(qty),
		TotalRecurringCost: d.Recurring(m.Item).Mul(qty),
		RawResponse:        text,
		Tier:               m.Tier,
		Category:           choice,
		Analyzed:           len(shortlist),
		Budget:             b.Budget,
		Alternates:         alternates,
	}

	for _, c := range []struct {
		label    reply.Label
		computed decimal.Decimal
	}{
		{labels.Upfront, rec.TotalUpfrontCost},
		{labels.Recurring, rec.TotalRecurringCost},
	} {
		if c.label.Name == "" {
			continue
		}
		mm, bad := resolve.CheckCost(c.label.Name, rep.Money(c.label.Name), c.computed, e.opts.Tolerance)
		if bad {
			e.log.Warn("oracle cost estimate off", zap.String("check", mm.String()))
			rec.Warnings = append(rec.Warnings, mm.String())
		}
	}

	for _, x := range labels.Extra {
		v := chosen.extras[x.Name]
		if v == "" {
			v = rep.String(x.Name, "")
		}
		if v != "" {
			if rec.Extras == nil {
				rec.Extras = map[string]string{}
			}
			rec.Extras[x.Name] = v
		}
	}
	return rec, nil
}

// reportMissing warns about requested fields the reply left out.
func (e *Engine[I]) reportMissing(stage string, rep reply.Reply, want ...string) {
	var names []string
	for _, w := range want {
		if w != "" {
			names = append(names, w)
		}
	}
	if miss := rep.Missing(names...); len(miss) > 0 {
		e.log.Warn("reply missing fields",
			zap.String("stage", stage),
			zap.Strings("missing", miss),
			zap.Strings("found", rep.Found()))
	}
}

// ask calls the oracle and turns the no-response placeholder into an error.
func (e *Engine[I]) ask(ctx context.Context, prompt string) (string, error) {
	e.log.Debug("oracle prompt", zap.Int("chars", len(prompt)))
	text, err := e.oracle.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if oracle.IsNoResponse(text) {
		return "", oracle.ErrEmptyResponse
	}
	e.log.Debug("oracle reply", zap.String("text", text))
	return text, nil
}

func (e *Engine[I]) upfront(it I) float64 {
	return e.domain.Upfront(it).InexactFloat64()
}

func (e *Engine[I]) ceiling(budget decimal.Decimal) float64 {
	return budget.InexactFloat64() * e.opts.CeilingFraction
}

func (e *Engine[I]) logMatch(stage, label, chosen string, tier model.Tier) {
	fields := []zap.Field{
		zap.String("stage", stage),
		zap.String("label", label),
		zap.String("chosen", chosen),
		zap.String("tier", string(tier)),
	}
	if tier == model.TierExact {
		e.log.Info("resolved oracle choice", fields...)
		return
	}
	e.log.Warn("oracle choice not matched exactly", fields...)
}

// Shortlist keeps the members whose capacity is within window of target
// (all of them when none qualify or window is zero), then returns the n
// cheapest in ascending cost order.
func Shortlist[I any](members []I, target, window, n int, capacity func(I) int, cost func(I) float64) []I {
	pool := members
	if window > 0 && target > 0 {
		var near []I
		for _, it := range members {
			diff := capacity(it) - target
			if diff < 0 {
				diff = -diff
			}
			if diff <= window {
				near = append(near, it)
			}
		}
		if len(near) > 0 {
			pool = near
		}
	}
	return group.Cheapest(pool, n, cost)
}
