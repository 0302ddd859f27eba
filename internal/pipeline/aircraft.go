package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rcliao/fleet-advisor/internal/advisor"
	"github.com/rcliao/fleet-advisor/internal/afford"
	"github.com/rcliao/fleet-advisor/internal/audit"
	"github.com/rcliao/fleet-advisor/internal/group"
	"github.com/rcliao/fleet-advisor/internal/model"
)

// Catalog returns the aircraft catalog, from cache when it is still valid.
func (p *Pipeline) Catalog(ctx context.Context) ([]model.Aircraft, error) {
	return p.caches.Catalog.Load(ctx, KeyCatalog, p.opts.ForceRefresh, p.src.Catalog.FetchCatalog)
}

// Families returns the manufacturer family list, from cache when valid.
func (p *Pipeline) Families(ctx context.Context) ([]model.Family, error) {
	return p.caches.Families.Load(ctx, KeyFamilies, p.opts.ForceRefresh, p.src.Catalog.FetchFamilies)
}

// RecommendAircraft picks an aircraft to lease and records the decision.
func (p *Pipeline) RecommendAircraft(ctx context.Context) (*AircraftResult, error) {
	runID := p.opts.NewRunID()
	res, entry, err := p.recommendAircraft(ctx, runID)
	id, err := p.record(ctx, runID, entry, err)
	if err != nil {
		return nil, err
	}
	res.DecisionID = id
	return res, nil
}

func (p *Pipeline) recommendAircraft(ctx context.Context, runID string) (*AircraftResult, audit.Entry, error) {
	entry := audit.Entry{Category: model.CategoryAircraft}
	log := p.logger.With(zap.String("run_id", runID))

	catalog, err := p.Catalog(ctx)
	if err != nil {
		return nil, entry, err
	}
	families, err := p.Families(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, entry, err
		}
		log.Warn("family list unavailable, grouping by catalog families", zap.Error(err))
	}
	listed, dropped := byFamilyList(catalog, families)
	if dropped > 0 {
		log.Info("dropped aircraft of unlisted families", zap.Int("dropped", dropped))
	}

	funds, err := p.funds(ctx)
	if err != nil {
		return nil, entry, err
	}
	owner, err := p.airline(ctx)
	if err != nil {
		return nil, entry, err
	}

	engine := advisor.New[model.Aircraft](p.oracle, advisor.AircraftDomain{}, p.opts.Engine)
	rec, err := engine.Recommend(ctx, listed, advisor.Brief{
		Funds:   funds,
		Budget:  p.opts.Budget,
		Airline: owner,
	})
	if err != nil {
		return nil, entry, err
	}

	check := afford.Check(funds, rec.TotalUpfrontCost)
	if !check.CanAfford {
		log.Warn("recommendation exceeds funds",
			zap.String("required", check.Required.String()),
			zap.String("shortfall", check.Shortfall.String()))
	}

	res := &AircraftResult{RunID: runID, Funds: funds, Recommendation: rec, Affordability: check}
	entry.Summary = fmt.Sprintf("Lease %dx %s", rec.Quantity, rec.Name)
	entry.Rationale = rec.Rationale
	entry.Context = map[string]any{
		"run_id":          runID,
		"oracle":          p.oracle.Name(),
		"family":          rec.Category.Name,
		"family_tier":     rec.Category.Tier,
		"target_size":     rec.Category.TargetSize,
		"model":           rec.Name,
		"tier":            rec.Tier,
		"quantity":        rec.Quantity,
		"upfront_total":   rec.TotalUpfrontCost,
		"recurring_total": rec.TotalRecurringCost,
		"budget":          rec.Budget,
		"funds":           funds,
		"affordability":   check,
		"warnings":        rec.Warnings,
		"analyzed":        rec.Analyzed,
		"catalog_size":    len(catalog),
		"families_listed": len(families),
		"unlisted_family": dropped,
	}
	return res, entry, nil
}

// byFamilyList orders the catalog by the manufacturer family list and spells
// each family the way the list does. Aircraft of unlisted families are
// dropped unless none are listed at all; aircraft without a family are kept
// at the end. It returns the aircraft to use and how many were dropped.
func byFamilyList(catalog []model.Aircraft, families []model.Family) ([]model.Aircraft, int) {
	if len(families) == 0 {
		return catalog, 0
	}
	groups := group.By(catalog, advisor.AircraftDomain{}.Keys())

	var out []model.Aircraft
	seen := map[string]bool{}
	for _, f := range families {
		name := strings.TrimSpace(f.Name)
		g, ok := group.Find(groups, name)
		if !ok || seen[strings.ToLower(g.Name)] {
			continue
		}
		seen[strings.ToLower(g.Name)] = true
		for _, a := range g.Members {
			a.Family = name
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return catalog, 0
	}
	if g, ok := group.Find(groups, group.NoneKey); ok {
		out = append(out, g.Members...)
	}
	return out, len(catalog) - len(out)
}

// remaining is what is left of funds after an upfront spend, never negative.
func remaining(funds, spent decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, funds.Sub(spent))
}
