package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rcliao/fleet-advisor/internal/model"
)

type backend struct {
	name string
	open func(t *testing.T) (Log, func(func() time.Time))
}

func backends() []backend {
	return []backend{
		{"file", func(t *testing.T) (Log, func(func() time.Time)) {
			l, err := NewFileLog(filepath.Join(t.TempDir(), "decisions.json"))
			if err != nil {
				t.Fatalf("create file log: %v", err)
			}
			return l, func(now func() time.Time) { l.now = now }
		}},
		{"sqlite", func(t *testing.T) (Log, func(func() time.Time)) {
			l, err := NewSQLiteLog(filepath.Join(t.TempDir(), "decisions.db"))
			if err != nil {
				t.Fatalf("create sqlite log: %v", err)
			}
			t.Cleanup(func() { l.Close() })
			return l, func(now func() time.Time) { l.now = now }
		}},
	}
}

func each(t *testing.T, fn func(t *testing.T, l Log, setNow func(func() time.Time))) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			l, setNow := b.open(t)
			fn(t, l, setNow)
		})
	}
}

func TestAppendAndQuery(t *testing.T) {
	each(t, func(t *testing.T, l Log, _ func(func() time.Time)) {
		ctx := context.Background()
		id, err := l.Append(ctx, Entry{
			Category:  model.CategoryAircraft,
			Summary:   "Selected Model-X",
			Rationale: "cheapest per seat",
			Context:   map[string]any{"budget": "600000"},
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if id == "" {
			t.Fatal("expected non-empty ID")
		}

		got, err := l.Query(ctx, Filter{})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 decision, got %d", len(got))
		}
		d := got[0]
		if d.ID != id || d.Summary != "Selected Model-X" || d.Rationale != "cheapest per seat" {
			t.Errorf("unexpected decision %+v", d)
		}
		if d.Outcome != nil || d.Score != nil {
			t.Error("expected no outcome on a fresh decision")
		}
		var ctxData map[string]string
		if err := json.Unmarshal(d.Context, &ctxData); err != nil {
			t.Fatalf("decode context: %v", err)
		}
		if ctxData["budget"] != "600000" {
			t.Errorf("expected budget in context, got %v", ctxData)
		}
	})
}

func TestAppendRequiresCategory(t *testing.T) {
	each(t, func(t *testing.T, l Log, _ func(func() time.Time)) {
		if _, err := l.Append(context.Background(), Entry{Summary: "x"}); err == nil {
			t.Fatal("expected error for empty category")
		}
	})
}

func TestAppendOnlyOrder(t *testing.T) {
	each(t, func(t *testing.T, l Log, _ func(func() time.Time)) {
		ctx := context.Background()
		var ids []string
		for _, s := range []string{"first", "second", "third"} {
			id, err := l.Append(ctx, Entry{Category: model.CategoryStation, Summary: s})
			if err != nil {
				t.Fatalf("append %s: %v", s, err)
			}
			ids = append(ids, id)
		}
		got, _ := l.Query(ctx, Filter{})
		if len(got) != 3 {
			t.Fatalf("expected 3 decisions, got %d", len(got))
		}
		for i, d := range got {
			if d.ID != ids[i] {
				t.Errorf("position %d: expected %s, got %s", i, ids[i], d.ID)
			}
		}
	})
}

func TestAttachOutcome(t *testing.T) {
	each(t, func(t *testing.T, l Log, _ func(func() time.Time)) {
		ctx := context.Background()
		id, _ := l.Append(ctx, Entry{Category: model.CategoryAircraft, Summary: "buy"})

		score := 0.8
		updated, err := l.AttachOutcome(ctx, id, model.OutcomeSuccess, &score)
		if err != nil {
			t.Fatalf("attach: %v", err)
		}
		if !updated {
			t.Fatal("expected first attach to update")
		}

		// A second attach leaves the first outcome in place.
		other := 0.1
		updated, err = l.AttachOutcome(ctx, id, model.OutcomeFailure, &other)
		if err != nil {
			t.Fatalf("second attach: %v", err)
		}
		if updated {
			t.Error("expected second attach to be ignored")
		}

		got, _ := l.Query(ctx, Filter{})
		d := got[0]
		if d.Outcome == nil || *d.Outcome != model.OutcomeSuccess {
			t.Errorf("expected outcome success, got %v", d.Outcome)
		}
		if d.Score == nil || *d.Score != 0.8 {
			t.Errorf("expected score 0.8, got %v", d.Score)
		}
		if d.UpdatedAt == nil {
			t.Error("expected updated_at to be set")
		}
		if d.Summary != "buy" {
			t.Errorf("summary changed: %q", d.Summary)
		}
	})
}

func TestAttachOutcomeUnknownID(t *testing.T) {
	each(t, func(t *testing.T, l Log, _ func(func() time.Time)) {
		ctx := context.Background()
		l.Append(ctx, Entry{Category: model.CategoryAircraft, Summary: "keep"})
		before, _ := l.Query(ctx, Filter{})

		updated, err := l.AttachOutcome(ctx, "does-not-exist", model.OutcomeSuccess, nil)
		if err != nil {
			t.Fatalf("expected no error for unknown id, got %v", err)
		}
		if updated {
			t.Error("expected no update for unknown id")
		}

		after, _ := l.Query(ctx, Filter{})
		if len(after) != len(before) {
			t.Fatalf("log length changed: %d -> %d", len(before), len(after))
		}
		if after[0].Outcome != nil {
			t.Error("unrelated decision was modified")
		}
	})
}

func TestQueryFilters(t *testing.T) {
	each(t, func(t *testing.T, l Log, setNow func(func() time.Time)) {
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		at := func(d time.Duration) func() time.Time {
			return func() time.Time { return base.Add(d) }
		}

		setNow(at(0))
		l.Append(ctx, Entry{Category: model.CategoryAircraft, Summary: "a1"})
		setNow(at(time.Hour))
		l.Append(ctx, Entry{Category: model.CategoryStation, Summary: "s1"})
		setNow(at(2 * time.Hour))
		l.Append(ctx, Entry{Category: model.CategoryAircraft, Summary: "a2"})
		setNow(at(3 * time.Hour))
		l.Append(ctx, Entry{Category: model.CategoryAircraft, Summary: "a3"})

		got, _ := l.Query(ctx, Filter{Category: model.CategoryAircraft})
		if len(got) != 3 {
			t.Errorf("expected 3 aircraft decisions, got %d", len(got))
		}

		got, _ = l.Query(ctx, Filter{Since: base.Add(time.Hour)})
		if len(got) != 3 || got[0].Summary != "s1" {
			t.Errorf("expected 3 decisions from s1 on, got %+v", got)
		}

		got, _ = l.Query(ctx, Filter{Category: model.CategoryAircraft, Limit: 2})
		if len(got) != 2 {
			t.Fatalf("expected 2 decisions, got %d", len(got))
		}
		if got[0].Summary != "a2" || got[1].Summary != "a3" {
			t.Errorf("expected most recent two in order, got %s, %s", got[0].Summary, got[1].Summary)
		}
	})
}

func TestAnalytics(t *testing.T) {
	each(t, func(t *testing.T, l Log, _ func(func() time.Time)) {
		ctx := context.Background()
		ok, _ := l.Append(ctx, Entry{Category: model.CategoryAircraft, Summary: "a"})
		bad, _ := l.Append(ctx, Entry{Category: model.CategoryAircraft, Summary: "b"})
		l.Append(ctx, Entry{Category: model.CategoryStation, Summary: "c"})

		hi, lo := 1.0, 0.0
		l.AttachOutcome(ctx, ok, model.OutcomeSuccess, &hi)
		l.AttachOutcome(ctx, bad, model.OutcomeFailure, &lo)

		a, err := l.Analytics(ctx)
		if err != nil {
			t.Fatalf("analytics: %v", err)
		}
		if a.TotalDecisions != 3 {
			t.Errorf("expected 3 total, got %d", a.TotalDecisions)
		}
		if a.CategoryCounts[model.CategoryAircraft] != 2 || a.CategoryCounts[model.CategoryStation] != 1 {
			t.Errorf("unexpected category counts %v", a.CategoryCounts)
		}
		if a.Successful != 1 || a.Failed != 1 || a.Pending != 1 {
			t.Errorf("unexpected outcome counts %+v", a)
		}
		if a.ScoredDecisions != 2 || a.AverageScore != 0.5 {
			t.Errorf("expected avg 0.5 over 2, got %v over %d", a.AverageScore, a.ScoredDecisions)
		}
	})
}

func TestConcurrentAppends(t *testing.T) {
	each(t, func(t *testing.T, l Log, _ func(func() time.Time)) {
		ctx := context.Background()
		const n = 20
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := l.Append(ctx, Entry{Category: model.CategoryFleet, Summary: "concurrent"}); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("append: %v", err)
		}

		got, _ := l.Query(ctx, Filter{})
		if len(got) != n {
			t.Errorf("expected %d decisions, got %d", n, len(got))
		}
		seen := map[string]bool{}
		for _, d := range got {
			if seen[d.ID] {
				t.Errorf("duplicate id %s", d.ID)
			}
			seen[d.ID] = true
		}
	})
}

func TestFileLogRefusesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, _ := NewFileLog(path)
	if _, err := l.Append(context.Background(), Entry{Category: model.CategoryAircraft}); err == nil {
		t.Fatal("expected error appending to a corrupt log")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{not json" {
		t.Error("corrupt log was overwritten")
	}
}

func TestFileLogPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "decisions.json")
	l, err := NewFileLog(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id, _ := l.Append(context.Background(), Entry{Category: model.CategoryAircraft, Summary: "x"})

	reopened, _ := NewFileLog(path)
	got, err := reopened.Query(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].ID != id {
		t.Errorf("expected persisted decision %s, got %+v", id, got)
	}
}

func TestSQLiteImport(t *testing.T) {
	ctx := context.Background()
	src, _ := NewFileLog(filepath.Join(t.TempDir(), "decisions.json"))
	id, _ := src.Append(ctx, Entry{Category: model.CategoryAircraft, Summary: "imported"})
	score := 0.9
	src.AttachOutcome(ctx, id, model.OutcomeSuccess, &score)
	decisions, _ := src.Query(ctx, Filter{})

	dst, err := NewSQLiteLog(filepath.Join(t.TempDir(), "decisions.db"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer dst.Close()

	n, err := dst.Import(ctx, decisions)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 imported, got %d", n)
	}
	n, _ = dst.Import(ctx, decisions)
	if n != 0 {
		t.Errorf("expected re-import to skip, got %d", n)
	}

	got, _ := dst.Query(ctx, Filter{})
	if len(got) != 1 || got[0].ID != id {
		t.Fatalf("expected imported decision %s, got %+v", id, got)
	}
	if got[0].Outcome == nil || *got[0].Outcome != model.OutcomeSuccess {
		t.Errorf("expected outcome to carry over, got %v", got[0].Outcome)
	}
}

func TestBuildReport(t *testing.T) {
	ctx := context.Background()
	l, _ := NewFileLog(filepath.Join(t.TempDir(), "decisions.json"))
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	l.now = func() time.Time { return base }
	l.Append(ctx, Entry{Category: model.CategoryAircraft, Summary: "old"})
	l.now = func() time.Time { return base.Add(10 * 24 * time.Hour) }
	l.Append(ctx, Entry{Category: model.CategoryStation, Summary: "new"})

	r, err := BuildReport(ctx, l, base.Add(11*24*time.Hour), 7*24*time.Hour)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if r.Overall.TotalDecisions != 2 {
		t.Errorf("expected 2 overall, got %d", r.Overall.TotalDecisions)
	}
	if r.Window.TotalDecisions != 1 || len(r.Recent) != 1 || r.Recent[0].Summary != "new" {
		t.Errorf("expected only the recent decision in window, got %+v", r.Recent)
	}
}
