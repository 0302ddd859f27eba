// Package group partitions catalog items into named groups with cost and
// capacity ranges, used for the coarse first selection stage.
package group

import (
	"math"
	"sort"
	"strings"
)

// NoneKey names the group of items whose key is empty.
const NoneKey = "(none)"

// Keys extracts the grouping key and the aggregated figures from an item.
// Cost and Capacity may be nil, in which case the aggregates stay zero.
type Keys[T any] struct {
	Group    func(T) string
	Cost     func(T) float64
	Capacity func(T) float64
}

// Summary is one group with its members and aggregate statistics.
type Summary[T any] struct {
	Name        string  `json:"name"`
	Members     []T     `json:"members"`
	MinCost     float64 `json:"min_cost"`
	MaxCost     float64 `json:"max_cost"`
	MinCapacity float64 `json:"min_capacity"`
	MaxCapacity float64 `json:"max_capacity"`
	Count       int     `json:"count"`
}

// By assigns every item to exactly one group. Groups are returned in order
// of first appearance, so identical input gives identical output.
func By[T any](items []T, k Keys[T]) []Summary[T] {
	index := map[string]int{}
	var out []Summary[T]

	for _, it := range items {
		name := strings.TrimSpace(k.Group(it))
		if name == "" {
			name = NoneKey
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, Summary[T]{
				Name:        name,
				MinCost:     math.Inf(1),
				MaxCost:     math.Inf(-1),
				MinCapacity: math.Inf(1),
				MaxCapacity: math.Inf(-1),
			})
		}
		g := &out[i]
		g.Members = append(g.Members, it)
		g.Count++
		if k.Cost != nil {
			c := k.Cost(it)
			g.MinCost = math.Min(g.MinCost, c)
			g.MaxCost = math.Max(g.MaxCost, c)
		}
		if k.Capacity != nil {
			c := k.Capacity(it)
			g.MinCapacity = math.Min(g.MinCapacity, c)
			g.MaxCapacity = math.Max(g.MaxCapacity, c)
		}
	}

	// Without an extractor the seeds would leak out as infinities.
	for i := range out {
		if k.Cost == nil {
			out[i].MinCost, out[i].MaxCost = 0, 0
		}
		if k.Capacity == nil {
			out[i].MinCapacity, out[i].MaxCapacity = 0, 0
		}
	}
	return out
}

// Find returns the group with the given name, case-insensitively.
func Find[T any](groups []Summary[T], name string) (Summary[T], bool) {
	for _, g := range groups {
		if strings.EqualFold(g.Name, name) {
			return g, true
		}
	}
	return Summary[T]{}, false
}

// Cheapest returns up to n items ordered by ascending cost. Items with equal
// cost keep their input order. n <= 0 returns all items. The input is not modified.
func Cheapest[T any](items []T, n int, cost func(T) float64) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return cost(out[i]) < cost(out[j])
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
