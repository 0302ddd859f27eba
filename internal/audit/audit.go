// Package audit records every recommendation as an append-only decision log.
// Outcomes are attached later, once the effect of a decision is known.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/fleet-advisor/internal/model"
)

// Entry holds the fields supplied when a decision is appended.
type Entry struct {
	Category  string
	Summary   string
	Rationale string
	Context   any // marshalled to JSON; nil stores nothing
}

// Filter selects decisions in Query. Zero values match everything.
type Filter struct {
	Category string
	Since    time.Time // inclusive
	Limit    int       // most recent N, 0 means all
}

// Log defines the decision log interface.
type Log interface {
	// Append durably stores a new decision and returns its ID.
	Append(ctx context.Context, e Entry) (string, error)

	// AttachOutcome sets the outcome and score of a decision once.
	// Unknown IDs and decisions that already have an outcome are left
	// untouched and report updated=false without an error.
	AttachOutcome(ctx context.Context, id, outcome string, score *float64) (updated bool, err error)

	// Query returns matching decisions, oldest first.
	Query(ctx context.Context, f Filter) ([]model.Decision, error)

	// Analytics summarises the whole log.
	Analytics(ctx context.Context) (*Analytics, error)

	// Close releases the backing store.
	Close() error
}

// Analytics holds aggregate counts over the log.
type Analytics struct {
	TotalDecisions  int            `json:"total_decisions"`
	CategoryCounts  map[string]int `json:"category_counts"`
	Successful      int            `json:"successful_decisions"`
	Failed          int            `json:"failed_decisions"`
	Pending         int            `json:"pending_decisions"`
	AverageScore    float64        `json:"avg_score"`
	ScoredDecisions int            `json:"scored_decisions"`
	SuccessRate     float64        `json:"success_rate"`
}

func newID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}

func newDecision(e Entry, now time.Time) (model.Decision, error) {
	category := strings.TrimSpace(e.Category)
	if category == "" {
		return model.Decision{}, fmt.Errorf("category is required")
	}
	d := model.Decision{
		ID:        newID(now),
		Timestamp: now.UTC(),
		Category:  category,
		Summary:   e.Summary,
		Rationale: e.Rationale,
	}
	if e.Context != nil {
		b, err := json.Marshal(e.Context)
		if err != nil {
			return model.Decision{}, fmt.Errorf("encode context: %w", err)
		}
		d.Context = b
	}
	return d, nil
}

func matches(d model.Decision, f Filter) bool {
	if f.Category != "" && d.Category != f.Category {
		return false
	}
	if !f.Since.IsZero() && d.Timestamp.Before(f.Since) {
		return false
	}
	return true
}

// summarize computes Analytics from decisions in memory.
func summarize(decisions []model.Decision) *Analytics {
	a := &Analytics{CategoryCounts: map[string]int{}}
	var scoreSum float64
	for _, d := range decisions {
		a.TotalDecisions++
		a.CategoryCounts[d.Category]++
		switch {
		case d.Outcome == nil:
			a.Pending++
		case *d.Outcome == model.OutcomeSuccess:
			a.Successful++
		case *d.Outcome == model.OutcomeFailure:
			a.Failed++
		}
		if d.Score != nil {
			scoreSum += *d.Score
			a.ScoredDecisions++
		}
	}
	if a.ScoredDecisions > 0 {
		a.AverageScore = scoreSum / float64(a.ScoredDecisions)
	}
	if a.TotalDecisions > 0 {
		a.SuccessRate = float64(a.Successful) / float64(a.TotalDecisions)
	}
	return a
}
