package oracle

import (
	"context"

	"golang.org/x/time/rate"
)

// Limited spaces out calls to another oracle with a token bucket.
type Limited struct {
	next    Oracle
	limiter *rate.Limiter
}

// NewLimited allows rps calls per second with the given burst (minimum 1).
func NewLimited(next Oracle, rps float64, burst int) *Limited {
	if burst < 1 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *Limited) Name() string { return l.next.Name() }

func (l *Limited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return l.next.Generate(ctx, prompt)
}
