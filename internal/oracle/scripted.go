package oracle

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Scripted replays fixed replies in order and records the prompts it saw.
// After the script runs out it answers NoResponse.
type Scripted struct {
	mu      sync.Mutex
	replies []string
	prompts []string
}

// NewScripted returns an oracle that answers with replies in order.
func NewScripted(replies ...string) *Scripted {
	return &Scripted{replies: replies}
}

// LoadScript reads replies from a file, one reply per block separated by a
// line holding only "---".
func LoadScript(path string) (*Scripted, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return NewScripted(SplitScript(string(data))...), nil
}

// SplitScript splits text into replies at separator lines.
func SplitScript(text string) []string {
	var (
		replies []string
		cur     []string
	)
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "---" {
			replies = append(replies, strings.TrimSpace(strings.Join(cur, "\n")))
			cur = nil
			continue
		}
		cur = append(cur, line)
	}
	if last := strings.TrimSpace(strings.Join(cur, "\n")); last != "" || len(replies) == 0 {
		replies = append(replies, last)
	}
	return replies
}

func (s *Scripted) Name() string { return "scripted" }

func (s *Scripted) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if len(s.replies) == 0 {
		return NoResponse, nil
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return orNoResponse(r), nil
}

// Prompts returns the prompts received so far.
func (s *Scripted) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}
