// Package feed supplies the market data the advisor works on. The game itself
// is scraped by a separate browser automation; this package only consumes the
// data it exports.
package feed

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rcliao/fleet-advisor/internal/model"
)

// CatalogFeed lists the aircraft that can be leased.
type CatalogFeed interface {
	FetchCatalog(ctx context.Context) ([]model.Aircraft, error)
	FetchFamilies(ctx context.Context) ([]model.Family, error)
}

// StationFeed lists candidate airports and the stations already open.
type StationFeed interface {
	FetchStations(ctx context.Context) ([]model.Station, error)
	ExistingStations(ctx context.Context) ([]model.Station, error)
}

// FundsFeed reports the airline's current account balance.
type FundsFeed interface {
	AvailableFunds(ctx context.Context) (decimal.Decimal, error)
}

// AirlineFeed describes the player's airline.
type AirlineFeed interface {
	Airline(ctx context.Context) (model.Airline, error)
}
