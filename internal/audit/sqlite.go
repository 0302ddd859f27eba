package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rcliao/fleet-advisor/internal/model"
)

// Fixed-width so text comparison in SQL orders like time.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteLog implements Log on a SQLite database.
type SQLiteLog struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewSQLiteLog opens or creates a decision database at the given path.
func NewSQLiteLog(dbPath string) (*SQLiteLog, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	l := &SQLiteLog{db: db, path: dbPath, now: time.Now}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return l, nil
}

func (l *SQLiteLog) migrate() error {
	_, err := l.db.Exec(`
	CREATE TABLE IF NOT EXISTS decisions (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		timestamp  TEXT NOT NULL,
		category   TEXT NOT NULL,
		summary    TEXT NOT NULL,
		rationale  TEXT NOT NULL,
		context    TEXT,
		outcome    TEXT,
		score      REAL,
		updated_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_decisions_category ON decisions(category);
	CREATE INDEX IF NOT EXISTS idx_decisions_timestamp ON decisions(timestamp);
	`)
	return err
}

// Path returns the database file location.
func (l *SQLiteLog) Path() string { return l.path }

func (l *SQLiteLog) Append(ctx context.Context, e Entry) (string, error) {
	d, err := newDecision(e, l.now())
	if err != nil {
		return "", err
	}
	if err := l.insert(ctx, l.db, d); err != nil {
		return "", err
	}
	return d.ID, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (l *SQLiteLog) insert(ctx context.Context, db execer, d model.Decision) error {
	var contextJSON *string
	if len(d.Context) > 0 {
		s := string(d.Context)
		contextJSON = &s
	}
	var updatedAt *string
	if d.UpdatedAt != nil {
		s := d.UpdatedAt.UTC().Format(tsLayout)
		updatedAt = &s
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO decisions (id, timestamp, category, summary, rationale, context, outcome, score, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Timestamp.UTC().Format(tsLayout), d.Category, d.Summary, d.Rationale,
		contextJSON, d.Outcome, d.Score, updatedAt)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (l *SQLiteLog) AttachOutcome(ctx context.Context, id, outcome string, score *float64) (bool, error) {
	res, err := l.db.ExecContext(ctx,
		`UPDATE decisions SET outcome = ?, score = ?, updated_at = ?
		 WHERE id = ? AND outcome IS NULL`,
		outcome, score, l.now().UTC().Format(tsLayout), id)
	if err != nil {
		return false, fmt.Errorf("attach outcome: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *SQLiteLog) Query(ctx context.Context, f Filter) ([]model.Decision, error) {
	where := []string{"1 = 1"}
	args := []interface{}{}

	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if !f.Since.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, f.Since.UTC().Format(tsLayout))
	}

	query := `SELECT id, timestamp, category, summary, rationale, context, outcome, score, updated_at
	          FROM decisions WHERE ` + strings.Join(where, " AND ")
	if f.Limit > 0 {
		query += ` ORDER BY seq DESC LIMIT ?`
		args = append(args, f.Limit)
	} else {
		query += ` ORDER BY seq`
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []model.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if f.Limit > 0 {
		for i, j := 0, len(decisions)-1; i < j; i, j = i+1, j-1 {
			decisions[i], decisions[j] = decisions[j], decisions[i]
		}
	}
	return decisions, nil
}

func (l *SQLiteLog) Analytics(ctx context.Context) (*Analytics, error) {
	a := &Analytics{CategoryCounts: map[string]int{}}

	var avg sql.NullFloat64
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(CASE WHEN outcome = ? THEN 1 END),
		       COUNT(CASE WHEN outcome = ? THEN 1 END),
		       COUNT(CASE WHEN outcome IS NULL THEN 1 END),
		       COUNT(score),
		       AVG(score)
		FROM decisions`, model.OutcomeSuccess, model.OutcomeFailure).
		Scan(&a.TotalDecisions, &a.Successful, &a.Failed, &a.Pending, &a.ScoredDecisions, &avg)
	if err != nil {
		return nil, fmt.Errorf("count decisions: %w", err)
	}
	if avg.Valid {
		a.AverageScore = avg.Float64
	}
	if a.TotalDecisions > 0 {
		a.SuccessRate = float64(a.Successful) / float64(a.TotalDecisions)
	}

	rows, err := l.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM decisions GROUP BY category`)
	if err != nil {
		return a, err
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return a, err
		}
		a.CategoryCounts[category] = n
	}
	return a, rows.Err()
}

// Import copies decisions from another log, keeping their IDs.
// Decisions whose ID already exists are skipped.
func (l *SQLiteLog) Import(ctx context.Context, decisions []model.Decision) (int, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	imported := 0
	for _, d := range decisions {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions WHERE id = ?`, d.ID).Scan(&exists); err != nil {
			return 0, err
		}
		if exists > 0 {
			continue
		}
		if err := l.insert(ctx, tx, d); err != nil {
			return 0, err
		}
		imported++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return imported, nil
}

func (l *SQLiteLog) Close() error {
	return l.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDecision(row scanner) (model.Decision, error) {
	var d model.Decision
	var ts string
	var contextJSON, outcome, updatedAt sql.NullString
	var score sql.NullFloat64

	err := row.Scan(&d.ID, &ts, &d.Category, &d.Summary, &d.Rationale,
		&contextJSON, &outcome, &score, &updatedAt)
	if err != nil {
		return d, err
	}

	d.Timestamp, _ = time.Parse(tsLayout, ts)
	if contextJSON.Valid {
		d.Context = []byte(contextJSON.String)
	}
	if outcome.Valid {
		o := outcome.String
		d.Outcome = &o
	}
	if score.Valid {
		s := score.Float64
		d.Score = &s
	}
	if updatedAt.Valid {
		t, _ := time.Parse(tsLayout, updatedAt.String)
		d.UpdatedAt = &t
	}
	return d, nil
}
