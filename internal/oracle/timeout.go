package oracle

import (
	"context"
	"time"
)

// Timeout bounds every Generate call of the wrapped oracle.
type Timeout struct {
	next Oracle
	d    time.Duration
}

// WithTimeout wraps next so each call gets at most d. A non-positive d
// returns next unchanged.
func WithTimeout(next Oracle, d time.Duration) Oracle {
	if d <= 0 {
		return next
	}
	return &Timeout{next: next, d: d}
}

func (t *Timeout) Name() string { return t.next.Name() }

func (t *Timeout) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Generate(ctx, prompt)
}
