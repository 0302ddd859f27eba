// Package oracle provides a pluggable interface for text generation providers.
// It is the only package that talks to a text generation service.
package oracle

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
)

// NoResponse is returned in place of empty generated text.
const NoResponse = "No response"

var (
	// ErrUnavailable means the service could not be reached or refused the request.
	ErrUnavailable = errors.New("oracle unavailable")

	// ErrEmptyResponse is for callers that need to fail on a NoResponse reply.
	ErrEmptyResponse = errors.New("oracle returned no usable text")
)

// Oracle turns a prompt into free-form text.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// IsNoResponse reports whether text is the empty-reply sentinel.
func IsNoResponse(text string) bool {
	return strings.TrimSpace(text) == NoResponse
}

func orNoResponse(text string) string {
	if strings.TrimSpace(text) == "" {
		return NoResponse
	}
	return text
}

// --- Factory ---

// NewFromEnv creates an oracle from environment variables.
// FLEET_ADVISOR_ORACLE: "ollama" (default) | "openai" | "gemini"
// FLEET_ADVISOR_ORACLE_MODEL: model name
// FLEET_ADVISOR_ORACLE_URL: base URL override
// FLEET_ADVISOR_ORACLE_RPS, FLEET_ADVISOR_ORACLE_BURST: optional rate limit
// OPENAI_API_KEY, GEMINI_API_KEY: provider credentials
func NewFromEnv(ctx context.Context) (Oracle, error) {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("FLEET_ADVISOR_ORACLE")))
	model := os.Getenv("FLEET_ADVISOR_ORACLE_MODEL")
	url := os.Getenv("FLEET_ADVISOR_ORACLE_URL")

	var o Oracle
	switch provider {
	case "", "ollama":
		o = NewOllama(url, model)
	case "openai":
		o = NewOpenAI(url, os.Getenv("OPENAI_API_KEY"), model)
	case "gemini":
		g, err := NewGemini(ctx, url, os.Getenv("GEMINI_API_KEY"), model)
		if err != nil {
			return nil, err
		}
		o = g
	default:
		return nil, errors.New("unknown oracle provider " + strconv.Quote(provider))
	}

	rps, _ := strconv.ParseFloat(os.Getenv("FLEET_ADVISOR_ORACLE_RPS"), 64)
	burst, _ := strconv.Atoi(os.Getenv("FLEET_ADVISOR_ORACLE_BURST"))
	if rps > 0 {
		o = NewLimited(o, rps, burst)
	}
	return o, nil
}
