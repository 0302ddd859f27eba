package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/fleet-advisor/internal/audit"
	"github.com/rcliao/fleet-advisor/internal/cache"
	"github.com/rcliao/fleet-advisor/internal/feed"
	"github.com/rcliao/fleet-advisor/internal/model"
	"github.com/rcliao/fleet-advisor/internal/oracle"
)

const export = `{
  "balance": "20,000,000 AS$",
  "airline": {"name": "Test Air", "code": "TST", "hub": "Munich"},
  "aircraft": [
    {"model": "A320-200", "family": "A320", "passengers": 180, "range": "6,100 km", "price_text": "100,000,000 AS$"},
    {"model": "A319-100", "family": "A320", "passengers": 140, "price_text": "80,000,000 AS$"},
    {"model": "Dash 8-400", "family": "Dash 8", "passengers": 78, "price_text": "30,000,000 AS$"}
  ],
  "stations": [
    {"name": "Frankfurt", "code": "FRA", "country": "Germany", "region": "Europe", "daily_demand": 900},
    {"name": "Vienna", "code": "VIE", "country": "Austria", "region": "Europe", "daily_demand": 400},
    {"name": "Tokyo Haneda", "code": "HND", "country": "Japan", "region": "Asia", "daily_demand": 1200}
  ],
  "existing_stations": [{"name": "Munich", "code": "MUC", "country": "Germany"}]
}`

type countingCatalog struct {
	*feed.Snapshot
	calls atomic.Int32
}

func (c *countingCatalog) FetchCatalog(ctx context.Context) ([]model.Aircraft, error) {
	c.calls.Add(1)
	return c.Snapshot.FetchCatalog(ctx)
}

type fixture struct {
	pipeline *Pipeline
	oracle   *oracle.Scripted
	log      *audit.FileLog
	catalog  *countingCatalog
	store    *cache.FileStore
}

func newFixture(t *testing.T, opts Options, replies ...string) *fixture {
	t.Helper()
	return newFixtureFrom(t, export, opts, replies...)
}

func newFixtureFrom(t *testing.T, data string, opts Options, replies ...string) *fixture {
	t.Helper()
	snap, err := feed.Parse([]byte(data))
	require.NoError(t, err)

	dir := t.TempDir()
	store, err := cache.NewFileStore(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	l, err := audit.NewFileLog(filepath.Join(dir, "decisions.json"))
	require.NoError(t, err)

	var n atomic.Int32
	if opts.NewRunID == nil {
		opts.NewRunID = func() string { return fmt.Sprintf("run-%d", n.Add(1)) }
	}

	f := &fixture{
		oracle:  oracle.NewScripted(replies...),
		log:     l,
		catalog: &countingCatalog{Snapshot: snap},
		store:   store,
	}
	caches := NewCaches(store, TTLs{
		Catalog: cache.DefaultCatalogTTL,
		Family:  cache.DefaultFamilyTTL,
		Station: cache.DefaultStationTTL,
	}, nil)
	f.pipeline = New(f.oracle, Sources{
		Catalog:  f.catalog,
		Stations: snap,
		Funds:    snap,
		Airline:  snap,
	}, caches, l, opts)
	return f
}

func (f *fixture) decisions(t *testing.T) []model.Decision {
	t.Helper()
	ds, err := f.log.Query(context.Background(), audit.Filter{})
	require.NoError(t, err)
	return ds
}

func contextOf(t *testing.T, d model.Decision) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(d.Context, &m))
	return m
}

func TestRecommendAircraftRecordsDecision(t *testing.T) {
	f := newFixture(t, Options{},
		"FAMILY: A320\nREASON: Mainline.\nPASSENGER_TARGET: 180",
		"RECOMMENDATION: A320-200\nQUANTITY: 2\nREASON: Good fit.",
	)
	res, err := f.pipeline.RecommendAircraft(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.NotEmpty(t, res.DecisionID)
	assert.Equal(t, "10000000", res.Recommendation.TotalUpfrontCost.String())
	assert.True(t, res.Affordability.CanAfford)
	assert.Equal(t, "20000000", res.Funds.String())

	ds := f.decisions(t)
	require.Len(t, ds, 1)
	assert.Equal(t, res.DecisionID, ds[0].ID)
	assert.Equal(t, model.CategoryAircraft, ds[0].Category)
	assert.Equal(t, "Lease 2x A320-200", ds[0].Summary)
	assert.Equal(t, "Good fit.", ds[0].Rationale)
	assert.Nil(t, ds[0].Outcome)

	ctxData := contextOf(t, ds[0])
	assert.Equal(t, "run-1", ctxData["run_id"])
	assert.Equal(t, "A320", ctxData["family"])
	assert.Equal(t, "exact", ctxData["tier"])
}

func TestRecommendAircraftUsesCache(t *testing.T) {
	f := newFixture(t, Options{},
		"FAMILY: A320", "RECOMMENDATION: A319-100",
		"FAMILY: A320", "RECOMMENDATION: A319-100",
	)
	ctx := context.Background()
	_, err := f.pipeline.RecommendAircraft(ctx)
	require.NoError(t, err)
	_, err = f.pipeline.RecommendAircraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.catalog.calls.Load())

	st := f.pipeline.caches.Catalog.Status(ctx, KeyCatalog)
	assert.True(t, st.Valid)
	assert.Equal(t, 3, st.Items)
}

func TestRecommendAircraftForceRefresh(t *testing.T) {
	f := newFixture(t, Options{ForceRefresh: true},
		"FAMILY: A320", "RECOMMENDATION: A319-100",
		"FAMILY: A320", "RECOMMENDATION: A319-100",
	)
	ctx := context.Background()
	f.pipeline.RecommendAircraft(ctx)
	f.pipeline.RecommendAircraft(ctx)
	assert.Equal(t, int32(2), f.catalog.calls.Load())
}

func TestRecommendAircraftShortfall(t *testing.T) {
	f := newFixture(t, Options{},
		"FAMILY: A320", "RECOMMENDATION: A320-200\nQUANTITY: 5",
	)
	res, err := f.pipeline.RecommendAircraft(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Affordability.CanAfford)
	assert.Equal(t, "5000000", res.Affordability.Shortfall.String())
	assert.Len(t, f.decisions(t), 1)
}

func TestRecommendAircraftFailureIsRecorded(t *testing.T) {
	f := newFixture(t, Options{}, "")
	_, err := f.pipeline.RecommendAircraft(context.Background())
	require.ErrorIs(t, err, oracle.ErrEmptyResponse)

	ds := f.decisions(t)
	require.Len(t, ds, 1)
	assert.Equal(t, model.CategoryAircraft, ds[0].Category)
	assert.Equal(t, "aircraft recommendation failed", ds[0].Summary)
	assert.Contains(t, ds[0].Rationale, "category selection")
}

func TestRecommendAircraftCancelledWritesNothing(t *testing.T) {
	f := newFixture(t, Options{}, "FAMILY: A320", "RECOMMENDATION: A320-200")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.RecommendAircraft(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.decisions(t))
}

func TestRecommendStationAfterAircraft(t *testing.T) {
	f := newFixture(t, Options{},
		"REGION: Europe",
		"STATION: Vienna (VIE)\nREASON: Underserved.\nROUTE: MUC <-> VIE - 200 passengers",
	)
	aircraft := &model.Recommendation[model.Aircraft]{
		Item:             model.Aircraft{Model: "A320-200", Passengers: 180, Family: "A320"},
		Name:             "A320-200",
		Quantity:         2,
		TotalUpfrontCost: decimal.NewFromInt(10_000_000),
	}
	res, err := f.pipeline.RecommendStation(context.Background(), aircraft)
	require.NoError(t, err)

	assert.Equal(t, "VIE", res.Recommendation.Item.Code)
	assert.Equal(t, model.TierExact, res.Recommendation.Tier)
	assert.Equal(t, "10000000", res.Funds.String())
	assert.True(t, res.Affordability.CanAfford)

	prompts := f.oracle.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "Recommended aircraft: 2x A320-200 (180 passengers, family A320)")

	ds := f.decisions(t)
	require.Len(t, ds, 1)
	assert.Equal(t, "Open station Vienna (VIE)", ds[0].Summary)
	assert.Equal(t, "MUC <-> VIE - 200 passengers", contextOf(t, ds[0])["route"])
}

func TestPlan(t *testing.T) {
	f := newFixture(t, Options{},
		"FAMILY: A320", "RECOMMENDATION: A320-200\nQUANTITY: 2",
		"REGION: Asia", "STATION: Tokyo Haneda (HND)",
	)
	res, err := f.pipeline.Plan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "10000000", res.TotalUpfront.String())
	assert.Equal(t, "1000000", res.TotalRecurring.String())
	assert.True(t, res.CanAffordBoth)
	assert.Equal(t, "HND", res.Station.Recommendation.Item.Code)

	ds := f.decisions(t)
	require.Len(t, ds, 3)
	assert.Equal(t, model.CategoryAircraft, ds[0].Category)
	assert.Equal(t, model.CategoryStation, ds[1].Category)
	assert.Equal(t, model.CategoryStrategy, ds[2].Category)
	assert.Equal(t, res.DecisionID, ds[2].ID)

	ctxData := contextOf(t, ds[2])
	assert.Equal(t, ds[0].ID, ctxData["aircraft_decision_id"])
	assert.Equal(t, ds[1].ID, ctxData["station_decision_id"])
}

func TestPlanStationFailure(t *testing.T) {
	f := newFixture(t, Options{}, "FAMILY: A320", "RECOMMENDATION: A320-200")
	_, err := f.pipeline.Plan(context.Background())
	require.ErrorIs(t, err, oracle.ErrEmptyResponse)

	ds := f.decisions(t)
	require.Len(t, ds, 3)
	assert.Equal(t, "Lease 1x A320-200", ds[0].Summary)
	assert.Equal(t, "station recommendation failed", ds[1].Summary)
	assert.Equal(t, "strategy recommendation failed", ds[2].Summary)
}

const listedExport = `{
  "balance": "20,000,000 AS$",
  "families": [{"name": "Dash 8", "id": "12"}, {"name": "A320", "id": "7"}],
  "aircraft": [
    {"model": "A320-200", "family": "A320", "passengers": 180, "price_text": "100,000,000 AS$"},
    {"model": "Concorde", "family": "Concorde", "passengers": 100, "price_text": "10,000,000 AS$"},
    {"model": "Dash 8-400", "family": "dash 8", "passengers": 78, "price_text": "30,000,000 AS$"}
  ]
}`

func TestRecommendAircraftFollowsFamilyList(t *testing.T) {
	f := newFixtureFrom(t, listedExport, Options{},
		"FAMILY: Dash 8\nREASON: Regional start.",
		"RECOMMENDATION: Dash 8-400\nQUANTITY: 1",
	)
	res, err := f.pipeline.RecommendAircraft(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Dash 8", res.Recommendation.Category.Name)
	assert.Equal(t, model.TierExact, res.Recommendation.Category.Tier)
	assert.Equal(t, "Dash 8", res.Recommendation.Item.Family, "spelled as listed")

	prompts := f.oracle.Prompts()
	require.Len(t, prompts, 2)
	dash, a320 := strings.Index(prompts[0], "Dash 8"), strings.Index(prompts[0], "A320")
	require.True(t, dash >= 0 && a320 >= 0)
	assert.Less(t, dash, a320, "groups follow the family list")
	assert.NotContains(t, prompts[0], "Concorde")

	ctxData := contextOf(t, f.decisions(t)[0])
	assert.Equal(t, float64(1), ctxData["unlisted_family"])
	assert.Equal(t, float64(2), ctxData["families_listed"])
	assert.Equal(t, float64(3), ctxData["catalog_size"])
}

func TestByFamilyList(t *testing.T) {
	catalog := []model.Aircraft{
		{Model: "A", Family: "X"},
		{Model: "B"},
		{Model: "C", Family: "Y"},
	}

	got, dropped := byFamilyList(catalog, nil)
	assert.Equal(t, catalog, got)
	assert.Zero(t, dropped)

	got, dropped = byFamilyList(catalog, []model.Family{{Name: "Z"}})
	assert.Equal(t, catalog, got, "nothing listed keeps the catalog")
	assert.Zero(t, dropped)

	got, dropped = byFamilyList(catalog, []model.Family{{Name: "y"}, {Name: "Y"}})
	require.Len(t, got, 2)
	assert.Equal(t, "C", got[0].Model)
	assert.Equal(t, "y", got[0].Family)
	assert.Equal(t, "B", got[1].Model, "aircraft without a family stay")
	assert.Equal(t, 1, dropped)
}
