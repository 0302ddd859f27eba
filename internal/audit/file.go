package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rcliao/fleet-advisor/internal/model"
)

// FileLog keeps the decision log as a single JSON array on disk.
// Writes go to a temp file that is renamed over the log, so a crash never
// leaves a half-written array behind. The mutex serialises writers within
// one process only.
type FileLog struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileLog returns a log stored at path. The file is created on first append.
func NewFileLog(path string) (*FileLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &FileLog{path: path, now: time.Now}, nil
}

// Path returns the log file location.
func (l *FileLog) Path() string { return l.path }

func (l *FileLog) Append(ctx context.Context, e Entry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d, err := newDecision(e, l.now())
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	decisions, err := l.read()
	if err != nil {
		return "", err
	}
	decisions = append(decisions, d)
	if err := l.write(decisions); err != nil {
		return "", err
	}
	return d.ID, nil
}

func (l *FileLog) AttachOutcome(ctx context.Context, id, outcome string, score *float64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	decisions, err := l.read()
	if err != nil {
		return false, err
	}
	for i := range decisions {
		if decisions[i].ID != id {
			continue
		}
		if decisions[i].Outcome != nil {
			return false, nil
		}
		now := l.now().UTC()
		decisions[i].Outcome = &outcome
		decisions[i].Score = score
		decisions[i].UpdatedAt = &now
		if err := l.write(decisions); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (l *FileLog) Query(ctx context.Context, f Filter) ([]model.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	decisions, err := l.read()
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var out []model.Decision
	for _, d := range decisions {
		if matches(d, f) {
			out = append(out, d)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

func (l *FileLog) Analytics(ctx context.Context) (*Analytics, error) {
	decisions, err := l.Query(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	return summarize(decisions), nil
}

func (l *FileLog) Close() error { return nil }

// read loads the array. A missing file is an empty log; an unreadable one
// is an error so the next write cannot truncate history.
func (l *FileLog) read() ([]model.Decision, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read decision log: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var decisions []model.Decision
	if err := json.Unmarshal(data, &decisions); err != nil {
		return nil, fmt.Errorf("decode decision log %s: %w", l.path, err)
	}
	return decisions, nil
}

func (l *FileLog) write(decisions []model.Decision) error {
	data, err := json.MarshalIndent(decisions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode decision log: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".decisions-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace decision log: %w", err)
	}
	return nil
}
