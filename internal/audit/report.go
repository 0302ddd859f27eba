package audit

import (
	"context"
	"time"

	"github.com/rcliao/fleet-advisor/internal/model"
)

// Report is a point-in-time summary of the log plus the decisions made
// within a recent window.
type Report struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Since       time.Time        `json:"since"`
	Overall     *Analytics       `json:"overall"`
	Window      *Analytics       `json:"window"`
	Recent      []model.Decision `json:"recent"`
}

// BuildReport summarises everything in l and the decisions made at or
// after now-window.
func BuildReport(ctx context.Context, l Log, now time.Time, window time.Duration) (*Report, error) {
	overall, err := l.Analytics(ctx)
	if err != nil {
		return nil, err
	}
	since := now.Add(-window)
	recent, err := l.Query(ctx, Filter{Since: since})
	if err != nil {
		return nil, err
	}
	return &Report{
		GeneratedAt: now.UTC(),
		Since:       since.UTC(),
		Overall:     overall,
		Window:      summarize(recent),
		Recent:      recent,
	}, nil
}
