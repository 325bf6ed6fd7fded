// Settlement placement: picks the most humid flat land cells as cities.
package world

import (
	"cmp"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/talgya/mapgen/internal/entropy"
	"github.com/talgya/mapgen/internal/graph"
)

// MaxCityRelief is the corner height spread above which a cell is too
// rough to settle.
const MaxCityRelief = 2.0

// MaxPopulation bounds the population drawn for a city.
const MaxPopulation = 10000

// CitySeed describes a placed city.
type CitySeed struct {
	Node       graph.NodeID
	Name       string
	Humidity   float64 // Humidity of the cell when it was chosen
	Population int
}

// cityCandidate reports whether n may become a city.
func cityCandidate(g *graph.Graph, n graph.NodeID) bool {
	node := g.Nodes[n]
	return node.Humidity > 0 &&
		!node.IsCity &&
		node.Type != graph.Error &&
		!node.Type.IsWater() &&
		g.Relief(n) < MaxCityRelief
}

// PlaceCities marks up to maxCities of the most humid candidate cells as
// cities. Ties keep node order. Each candidate is checked again when its
// turn comes, so every cell is considered at most once.
func PlaceCities(g *graph.Graph, maxCities int, rng *entropy.Source) []CitySeed {
	var candidates []graph.NodeID
	for i := range g.Nodes {
		if cityCandidate(g, graph.NodeID(i)) {
			candidates = append(candidates, graph.NodeID(i))
		}
	}

	// Sort by humidity descending.
	slices.SortStableFunc(candidates, func(a, b graph.NodeID) int {
		return cmp.Compare(g.Nodes[b].Humidity, g.Nodes[a].Humidity)
	})

	var seeds []CitySeed
	for _, n := range candidates {
		if len(seeds) >= maxCities {
			break
		}
		if !cityCandidate(g, n) {
			continue
		}
		node := &g.Nodes[n]
		node.IsCity = true
		node.Population = rng.Intn(MaxPopulation)
		seeds = append(seeds, CitySeed{
			Node:       n,
			Humidity:   node.Humidity,
			Population: node.Population,
		})
	}

	// Assign procedural names.
	names := generateNames(rng, len(seeds))
	for i := range seeds {
		seeds[i].Name = names[i]
	}

	return seeds
}

var (
	namePrefixes = []string{
		"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
		"Silver", "Red", "White", "Dark", "Bright", "High", "Low",
		"Old", "New", "Far", "Deep", "Long", "Broad", "Gold", "Frost",
		"Storm", "Thorn", "Elm", "Oak", "Pine", "Copper", "River",
	}
	nameSuffixes = []string{
		"haven", "ford", "hollow", "wick", "bridge", "gate", "keep",
		"stead", "wood", "field", "dale", "crest", "vale", "port",
		"town", "bury", "marsh", "well", "brook", "cliff", "moor",
		"ridge", "watch", "fall", "rest", "point", "reach", "helm",
	}
)

// generateNames produces procedural settlement names by combining syllables.
func generateNames(rng *entropy.Source, count int) []string {
	used := make(map[string]bool)
	names := make([]string, 0, count)
	combos := len(namePrefixes) * len(nameSuffixes)

	for len(names) < count {
		name := namePrefixes[rng.Intn(len(namePrefixes))] + nameSuffixes[rng.Intn(len(nameSuffixes))]
		if len(used) >= combos {
			name = fmt.Sprintf("%s %d", name, len(names)/combos+1)
		}
		if !used[name] {
			used[name] = true
			names = append(names, name)
		}
	}

	return names
}
