// Package resolve matches a label extracted from an oracle reply against the
// known candidates, degrading from exact to partial to a heuristic pick.
package resolve

import (
	"errors"
	"math"
	"regexp"
	"strings"

	"github.com/rcliao/fleet-advisor/internal/model"
)

// ErrNoCandidates is returned when there is nothing to choose from.
var ErrNoCandidates = errors.New("no candidates available")

// Options tells Resolve how to read a candidate.
type Options[T any] struct {
	// Name is the display name compared against the label.
	Name func(T) string
	// Cost is used for the affordability ceiling and the cheapest fallback.
	Cost func(T) float64
	// Ratio ranks affordable candidates in the heuristic tier; higher wins.
	// Nil ranks them by lowest cost instead.
	Ratio func(T) float64
	// Ceiling is the highest cost that counts as affordable.
	Ceiling float64
	// Code, when set, is a short identifier such as an IATA code. Codes
	// found in the label are matched against it before any name tier.
	Code func(T) string
}

// Match is the resolved candidate and how it was found.
type Match[T any] struct {
	Item  T
	Index int
	Tier  model.Tier
	Label string
}

// Resolve picks a candidate for label. It only fails when candidates is empty.
func Resolve[T any](label string, candidates []T, o Options[T]) (Match[T], error) {
	if len(candidates) == 0 {
		return Match[T]{}, ErrNoCandidates
	}
	label = Normalize(label)
	want := strings.ToLower(label)

	if want != "" && o.Code != nil {
		for _, code := range Codes(label) {
			for i, c := range candidates {
				if strings.EqualFold(strings.TrimSpace(o.Code(c)), code) {
					return Match[T]{Item: c, Index: i, Tier: model.TierExact, Label: label}, nil
				}
			}
		}
	}
	if want != "" {
		for i, c := range candidates {
			if strings.ToLower(strings.TrimSpace(o.Name(c))) == want {
				return Match[T]{Item: c, Index: i, Tier: model.TierExact, Label: label}, nil
			}
		}
		for i, c := range candidates {
			name := strings.ToLower(strings.TrimSpace(o.Name(c)))
			if name == "" {
				continue
			}
			if strings.Contains(name, want) || strings.Contains(want, name) {
				return Match[T]{Item: c, Index: i, Tier: model.TierPartial, Label: label}, nil
			}
		}
	}

	i := Fallback(candidates, o)
	return Match[T]{Item: candidates[i], Index: i, Tier: model.TierFallback, Label: label}, nil
}

// Fallback returns the index of the best affordable candidate by Ratio, or of
// the cheapest candidate overall when none is affordable. Ties keep the
// earliest candidate. candidates must not be empty.
func Fallback[T any](candidates []T, o Options[T]) int {
	cost := func(c T) float64 {
		if o.Cost == nil {
			return 0
		}
		return o.Cost(c)
	}

	best := -1
	bestScore := math.Inf(-1)
	for i, c := range candidates {
		if cost(c) > o.Ceiling {
			continue
		}
		score := -cost(c)
		if o.Ratio != nil {
			score = o.Ratio(c)
		}
		if math.IsNaN(score) {
			score = math.Inf(-1)
		}
		if best == -1 || score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 {
		return best
	}

	cheapest := 0
	for i, c := range candidates {
		if cost(c) < cost(candidates[cheapest]) {
			cheapest = i
		}
	}
	return cheapest
}

var (
	bracketedCode = regexp.MustCompile(`\(\s*([A-Za-z]{3})\s*\)`)
	bareCode      = regexp.MustCompile(`^[A-Za-z]{3}$`)
	upperCode     = regexp.MustCompile(`\b[A-Z]{3}\b`)
)

// Codes returns the three-letter codes in label, most explicit first: codes
// in parentheses, the whole label when it is a code, then upper-case words.
func Codes(label string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(c string) {
		c = strings.ToUpper(c)
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, m := range bracketedCode.FindAllStringSubmatch(label, -1) {
		add(m[1])
	}
	if bareCode.MatchString(label) {
		add(label)
	}
	for _, w := range upperCode.FindAllString(label, -1) {
		add(w)
	}
	return out
}

// Normalize strips the decoration oracles tend to copy from prompt templates:
// surrounding brackets, quotes and a trailing full stop.
func Normalize(label string) string {
	label = strings.TrimSpace(label)
	for {
		before := label
		label = strings.TrimSpace(strings.Trim(label, "[]\"'`*"))
		label = strings.TrimSuffix(label, ".")
		if label == before {
			return label
		}
	}
}

// Ratio divides a by b, giving 0 when b is not positive.
func Ratio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}
