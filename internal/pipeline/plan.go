package pipeline

import (
	"context"
	"fmt"

	"github.com/rcliao/fleet-advisor/internal/audit"
	"github.com/rcliao/fleet-advisor/internal/model"
)

// Plan recommends an aircraft, then a station suited to it, and records a
// strategy decision linking both.
func (p *Pipeline) Plan(ctx context.Context) (*PlanResult, error) {
	runID := p.opts.NewRunID()
	res, entry, err := p.plan(ctx, runID)
	id, err := p.record(ctx, runID, entry, err)
	if err != nil {
		return nil, err
	}
	res.DecisionID = id
	return res, nil
}

func (p *Pipeline) plan(ctx context.Context, runID string) (*PlanResult, audit.Entry, error) {
	entry := audit.Entry{Category: model.CategoryStrategy}

	ac, err := p.RecommendAircraft(ctx)
	if err != nil {
		return nil, entry, fmt.Errorf("aircraft: %w", err)
	}
	st, err := p.RecommendStation(ctx, ac.Recommendation)
	if err != nil {
		return nil, entry, fmt.Errorf("station: %w", err)
	}

	upfront := ac.Recommendation.TotalUpfrontCost.Add(st.Recommendation.TotalUpfrontCost)
	res := &PlanResult{
		RunID:          runID,
		Aircraft:       ac,
		Station:        st,
		TotalUpfront:   upfront,
		TotalRecurring: ac.Recommendation.TotalRecurringCost.Add(st.Recommendation.TotalRecurringCost),
		CanAffordBoth:  ac.Funds.GreaterThanOrEqual(upfront),
	}

	entry.Summary = fmt.Sprintf("Airline setup: %s + %s", ac.Recommendation.Name, st.Recommendation.Name)
	entry.Rationale = fmt.Sprintf("Lease %dx %s and open %s",
		ac.Recommendation.Quantity, ac.Recommendation.Name, st.Recommendation.Name)
	entry.Context = map[string]any{
		"run_id":               runID,
		"aircraft_decision_id": ac.DecisionID,
		"station_decision_id":  st.DecisionID,
		"total_upfront":        res.TotalUpfront,
		"total_recurring":      res.TotalRecurring,
		"funds":                ac.Funds,
		"after_aircraft":       st.Funds,
		"can_afford_both":      res.CanAffordBoth,
	}
	return res, entry, nil
}
