// Package pipeline wires one recommendation run end to end: cached feeds,
// the two-stage engine, the affordability check and the decision log.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rcliao/fleet-advisor/internal/advisor"
	"github.com/rcliao/fleet-advisor/internal/audit"
	"github.com/rcliao/fleet-advisor/internal/cache"
	"github.com/rcliao/fleet-advisor/internal/feed"
	"github.com/rcliao/fleet-advisor/internal/model"
	"github.com/rcliao/fleet-advisor/internal/oracle"
)

// Cache keys for the feeds.
const (
	KeyCatalog  = "aircraft_catalog"
	KeyFamilies = "aircraft_families"
	KeyStations = "stations"
)

// Sources are the collaborators that talk to the game.
type Sources struct {
	Catalog  feed.CatalogFeed
	Stations feed.StationFeed
	Funds    feed.FundsFeed
	Airline  feed.AirlineFeed // optional
}

// Caches front the slow feeds.
type Caches struct {
	Catalog  *cache.Cache[model.Aircraft]
	Families *cache.Cache[model.Family]
	Stations *cache.Cache[model.Station]
}

// TTLs configures NewCaches.
type TTLs struct {
	Catalog, Family, Station time.Duration
}

// NewCaches builds the three caches over one store.
func NewCaches(store cache.Store, ttl TTLs, log *zap.Logger) Caches {
	return Caches{
		Catalog:  cache.New[model.Aircraft](store, cache.Options{TTL: ttl.Catalog, Logger: log}),
		Families: cache.New[model.Family](store, cache.Options{TTL: ttl.Family, Logger: log}),
		Stations: cache.New[model.Station](store, cache.Options{TTL: ttl.Station, Logger: log}),
	}
}

// Options configures a Pipeline.
type Options struct {
	Engine       advisor.Options
	ForceRefresh bool
	// Budget overrides the safe fraction of funds for the aircraft stage.
	Budget   decimal.Decimal
	Logger   *zap.Logger
	NewRunID func() string
}

// Pipeline runs recommendations and records them.
type Pipeline struct {
	oracle oracle.Oracle
	src    Sources
	caches Caches
	log    audit.Log
	opts   Options
	logger *zap.Logger
}

// New returns a pipeline. Every Sources field except Airline is required.
func New(o oracle.Oracle, src Sources, caches Caches, l audit.Log, opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}
	if opts.Engine.Logger == nil {
		opts.Engine.Logger = opts.Logger
	}
	return &Pipeline{oracle: o, src: src, caches: caches, log: l, opts: opts, logger: opts.Logger}
}

// AircraftResult is a recorded aircraft recommendation.
type AircraftResult struct {
	RunID          string                                `json:"run_id"`
	DecisionID     string                                `json:"decision_id"`
	Funds          decimal.Decimal                       `json:"funds"`
	Recommendation *model.Recommendation[model.Aircraft] `json:"recommendation"`
	Affordability  model.AffordabilityCheck              `json:"affordability"`
}

// StationResult is a recorded station recommendation.
type StationResult struct {
	RunID          string                               `json:"run_id"`
	DecisionID     string                               `json:"decision_id"`
	Funds          decimal.Decimal                      `json:"funds"`
	Recommendation *model.Recommendation[model.Station] `json:"recommendation"`
	Affordability  model.AffordabilityCheck             `json:"affordability"`
}

// PlanResult combines an aircraft and a station recommendation.
type PlanResult struct {
	RunID          string          `json:"run_id"`
	DecisionID     string          `json:"decision_id"`
	Aircraft       *AircraftResult `json:"aircraft"`
	Station        *StationResult  `json:"station"`
	TotalUpfront   decimal.Decimal `json:"total_upfront"`
	TotalRecurring decimal.Decimal `json:"total_recurring"`
	CanAffordBoth  bool            `json:"can_afford_both"`
}

// record appends the decision for a finished run. A failed run is recorded
// as a failure unless the context was cancelled.
func (p *Pipeline) record(ctx context.Context, runID string, e audit.Entry, runErr error) (string, error) {
	if runErr != nil {
		if ctx.Err() != nil {
			return "", runErr
		}
		_, err := p.log.Append(ctx, audit.Entry{
			Category:  e.Category,
			Summary:   fmt.Sprintf("%s recommendation failed", e.Category),
			Rationale: runErr.Error(),
			Context:   map[string]any{"run_id": runID, "oracle": p.oracle.Name()},
		})
		if err != nil {
			p.logger.Error("record failed run", zap.String("run_id", runID), zap.Error(err))
		}
		return "", runErr
	}
	id, err := p.log.Append(ctx, e)
	if err != nil {
		return "", fmt.Errorf("record decision: %w", err)
	}
	p.logger.Info("decision recorded",
		zap.String("run_id", runID),
		zap.String("decision_id", id),
		zap.String("category", e.Category),
		zap.String("summary", e.Summary))
	return id, nil
}

func (p *Pipeline) airline(ctx context.Context) (model.Airline, error) {
	if p.src.Airline == nil {
		return model.Airline{}, nil
	}
	a, err := p.src.Airline.Airline(ctx)
	if err != nil {
		return model.Airline{}, fmt.Errorf("airline: %w", err)
	}
	return a, nil
}

func (p *Pipeline) funds(ctx context.Context) (decimal.Decimal, error) {
	f, err := p.src.Funds.AvailableFunds(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("funds: %w", err)
	}
	return f, nil
}
