package group

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plane struct {
	model  string
	family string
	cost   float64
	seats  float64
}

var planeKeys = Keys[plane]{
	Group:    func(p plane) string { return p.family },
	Cost:     func(p plane) float64 { return p.cost },
	Capacity: func(p plane) float64 { return p.seats },
}

func fleet() []plane {
	return []plane{
		{"A319", "Airbus A320", 1_500_000, 124},
		{"B737-700", "Boeing 737", 1_400_000, 128},
		{"A321", "Airbus A320", 2_100_000, 185},
		{"Mystery", "", 300_000, 20},
		{"B737-800", "Boeing 737", 1_800_000, 162},
	}
}

func TestByAggregates(t *testing.T) {
	groups := By(fleet(), planeKeys)
	require.Len(t, groups, 3)

	a := groups[0]
	assert.Equal(t, "Airbus A320", a.Name)
	assert.Equal(t, 2, a.Count)
	assert.Equal(t, 1_500_000.0, a.MinCost)
	assert.Equal(t, 2_100_000.0, a.MaxCost)
	assert.Equal(t, 124.0, a.MinCapacity)
	assert.Equal(t, 185.0, a.MaxCapacity)

	b := groups[1]
	assert.Equal(t, "Boeing 737", b.Name)
	assert.Equal(t, 1_400_000.0, b.MinCost)
	assert.Equal(t, 162.0, b.MaxCapacity)
}

func TestByKeepsEmptyKeys(t *testing.T) {
	groups := By(fleet(), planeKeys)
	g, ok := Find(groups, NoneKey)
	require.True(t, ok)
	assert.Equal(t, 1, g.Count)
	assert.Equal(t, "Mystery", g.Members[0].model)
}

func TestByIsTotal(t *testing.T) {
	items := make([]plane, 0, 200)
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		items = append(items, plane{
			model:  fmt.Sprintf("m%d", i),
			family: fmt.Sprintf("f%d", r.Intn(9)),
			cost:   float64(r.Intn(1000)),
		})
	}
	groups := By(items, planeKeys)

	seen := map[string]int{}
	total := 0
	for _, g := range groups {
		assert.Equal(t, len(g.Members), g.Count)
		assert.Positive(t, g.Count)
		total += g.Count
		for _, m := range g.Members {
			seen[m.model]++
			assert.Equal(t, g.Name, m.family)
		}
	}
	assert.Equal(t, len(items), total)
	for _, it := range items {
		assert.Equal(t, 1, seen[it.model], "item %s must appear exactly once", it.model)
	}
}

func TestByIsStable(t *testing.T) {
	first := By(fleet(), planeKeys)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, By(fleet(), planeKeys))
	}
}

func TestByWithoutExtractors(t *testing.T) {
	groups := By(fleet(), Keys[plane]{Group: planeKeys.Group})
	for _, g := range groups {
		assert.Zero(t, g.MinCost)
		assert.Zero(t, g.MaxCapacity)
	}
}

func TestByEmpty(t *testing.T) {
	assert.Empty(t, By(nil, planeKeys))
}

func TestCheapest(t *testing.T) {
	items := fleet()
	got := Cheapest(items, 2, planeKeys.Cost)
	require.Len(t, got, 2)
	assert.Equal(t, "Mystery", got[0].model)
	assert.Equal(t, "B737-700", got[1].model)
	assert.Equal(t, "A319", items[0].model, "input untouched")

	assert.Len(t, Cheapest(items, 0, planeKeys.Cost), len(items))
}
