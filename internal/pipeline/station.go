package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rcliao/fleet-advisor/internal/advisor"
	"github.com/rcliao/fleet-advisor/internal/afford"
	"github.com/rcliao/fleet-advisor/internal/audit"
	"github.com/rcliao/fleet-advisor/internal/model"
)

// Stations returns candidate airports, from cache when still valid.
func (p *Pipeline) Stations(ctx context.Context) ([]model.Station, error) {
	return p.caches.Stations.Load(ctx, KeyStations, p.opts.ForceRefresh, p.src.Stations.FetchStations)
}

// RecommendStation picks the next station to open. When aircraft is set the
// station is chosen to suit it and the budget is what remains after leasing.
func (p *Pipeline) RecommendStation(ctx context.Context, aircraft *model.Recommendation[model.Aircraft]) (*StationResult, error) {
	runID := p.opts.NewRunID()
	res, entry, err := p.recommendStation(ctx, runID, aircraft)
	id, err := p.record(ctx, runID, entry, err)
	if err != nil {
		return nil, err
	}
	res.DecisionID = id
	return res, nil
}

func (p *Pipeline) recommendStation(ctx context.Context, runID string, aircraft *model.Recommendation[model.Aircraft]) (*StationResult, audit.Entry, error) {
	entry := audit.Entry{Category: model.CategoryStation}

	all, err := p.Stations(ctx)
	if err != nil {
		return nil, entry, err
	}
	existing, err := p.src.Stations.ExistingStations(ctx)
	if err != nil {
		return nil, entry, fmt.Errorf("existing stations: %w", err)
	}
	funds, err := p.funds(ctx)
	if err != nil {
		return nil, entry, err
	}
	owner, err := p.airline(ctx)
	if err != nil {
		return nil, entry, err
	}

	b := advisor.Brief{Funds: funds, Airline: owner, Budget: funds}
	if aircraft != nil {
		b.Funds = remaining(funds, aircraft.TotalUpfrontCost)
		b.Budget = b.Funds
		b.Notes = append(b.Notes, aircraftNote(aircraft))
	}

	candidates := advisor.Openable(all, existing)
	p.logger.Debug("station candidates",
		zap.String("run_id", runID),
		zap.Int("all", len(all)),
		zap.Int("openable", len(candidates)))

	d := advisor.StationDomain{Existing: existing}
	rec, err := advisor.New[model.Station](p.oracle, d, p.opts.Engine).Recommend(ctx, candidates, b)
	if err != nil {
		return nil, entry, err
	}

	check := afford.Check(b.Funds, rec.TotalUpfrontCost)
	res := &StationResult{RunID: runID, Funds: b.Funds, Recommendation: rec, Affordability: check}

	entry.Summary = fmt.Sprintf("Open station %s", rec.Name)
	entry.Rationale = rec.Rationale
	ctxData := map[string]any{
		"run_id":        runID,
		"oracle":        p.oracle.Name(),
		"region":        rec.Category.Name,
		"region_tier":   rec.Category.Tier,
		"station":       rec.Item,
		"tier":          rec.Tier,
		"route":         rec.Extras["ROUTE"],
		"alternates":    rec.Alternates,
		"funds":         b.Funds,
		"affordability": check,
		"existing":      len(existing),
	}
	if aircraft != nil {
		ctxData["aircraft"] = aircraft.Name
		ctxData["aircraft_quantity"] = aircraft.Quantity
	}
	entry.Context = ctxData
	return res, entry, nil
}

func aircraftNote(a *model.Recommendation[model.Aircraft]) string {
	note := fmt.Sprintf("Recommended aircraft: %dx %s (%d passengers", a.Quantity, a.Name, a.Item.Passengers)
	if a.Item.Range != "" {
		note += ", range " + a.Item.Range
	}
	if a.Item.Family != "" {
		note += ", family " + a.Item.Family
	}
	return note + ")"
}
