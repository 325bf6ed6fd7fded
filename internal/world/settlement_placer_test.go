package world

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/mapgen/internal/delaunay"
	"github.com/talgya/mapgen/internal/entropy"
	"github.com/talgya/mapgen/internal/graph"
)

func flatGraph(t *testing.T, n int) *graph.Graph {
	t.Helper()
	rng := rand.New(rand.NewSource(11))
	pts := make([]mgl64.Vec2, n)
	for i := range pts {
		pts[i] = mgl64.Vec2{rng.Float64() * 60, rng.Float64() * 60}
	}
	tri, err := delaunay.Triangulate(pts, delaunay.DefaultOptions())
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	g, err := graph.Build(tri, func(x, z float64) float64 { return 1 }, graph.DefaultBuildOptions(60, 60))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i := range g.Nodes {
		g.Nodes[i].Type = graph.Grassland
	}
	return g
}

func TestPlaceCitiesPicksMostHumid(t *testing.T) {
	g := flatGraph(t, 80)
	for i := range g.Nodes {
		g.Nodes[i].Humidity = float64(i%7) * 0.1
	}

	best := 0.0
	for _, n := range g.Nodes {
		best = max(best, n.Humidity)
	}

	cities := PlaceCities(g, 5, entropy.New(1))
	if len(cities) != 5 {
		t.Fatalf("placed %d cities, want 5", len(cities))
	}
	// Most humid first, ties in node order.
	for i, c := range cities {
		if g.Nodes[c.Node].Humidity != best {
			t.Errorf("city %d humidity %v, want the maximum", i, g.Nodes[c.Node].Humidity)
		}
		if i > 0 && c.Node <= cities[i-1].Node {
			t.Errorf("ties should keep node order: %d after %d", c.Node, cities[i-1].Node)
		}
		if c.Population < 0 || c.Population >= MaxPopulation {
			t.Errorf("population %d out of range", c.Population)
		}
		if c.Name == "" {
			t.Errorf("city %d has no name", i)
		}
	}
}

func TestPlaceCitiesRespectsPredicate(t *testing.T) {
	g := flatGraph(t, 60)
	for i := range g.Nodes {
		g.Nodes[i].Humidity = 1
	}
	g.Nodes[0].Type = graph.FreshWater
	g.Nodes[1].Type = graph.SaltWater
	g.Nodes[2].Humidity = 0
	g.SetCornerHeight(g.NodeCorners(3)[0], 10)

	cities := PlaceCities(g, len(g.Nodes), entropy.New(2))
	placed := make(map[graph.NodeID]bool)
	for _, c := range cities {
		placed[c.Node] = true
		n := g.Nodes[c.Node]
		if !n.IsCity || n.Humidity <= 0 || n.Type.IsWater() || g.Relief(c.Node) >= MaxCityRelief {
			t.Errorf("node %d should not be a city", c.Node)
		}
	}
	for _, id := range []graph.NodeID{0, 1, 2, 3} {
		if placed[id] {
			t.Errorf("ineligible node %d became a city", id)
		}
	}

	count := 0
	for _, n := range g.Nodes {
		if n.IsCity {
			count++
		}
	}
	if count != len(cities) {
		t.Errorf("%d nodes flagged as city, %d seeds returned", count, len(cities))
	}

	// A second pass finds no new candidates among existing cities.
	again := PlaceCities(g, len(g.Nodes), entropy.New(2))
	for _, c := range again {
		if placed[c.Node] {
			t.Errorf("node %d placed twice", c.Node)
		}
	}
}

func TestPlaceCitiesCap(t *testing.T) {
	for _, limit := range []int{0, 1, 3} {
		g := flatGraph(t, 40)
		for i := range g.Nodes {
			g.Nodes[i].Humidity = 0.5
		}
		if got := len(PlaceCities(g, limit, entropy.New(3))); got != limit {
			t.Errorf("cap %d: placed %d", limit, got)
		}
	}
}

func TestGenerateNamesUnique(t *testing.T) {
	names := generateNames(entropy.New(4), 900)
	seen := make(map[string]bool)
	for _, n := range names {
		if seen[n] {
			t.Fatalf("duplicate name %q", n)
		}
		seen[n] = true
	}
}
