package graph

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/mapgen/internal/delaunay"
)

func flat(x, z float64) float64 { return 0 }

func buildGraph(t *testing.T, pts []mgl64.Vec2, height HeightFunc, opts BuildOptions) *Graph {
	t.Helper()
	tri, err := delaunay.Triangulate(pts, delaunay.DefaultOptions())
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	g, err := Build(tri, height, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func randomSites(seed int64, n int, size float64) []mgl64.Vec2 {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]mgl64.Vec2, n)
	for i := range pts {
		pts[i] = mgl64.Vec2{rng.Float64() * size, rng.Float64() * size}
	}
	return pts
}

func interiorCorners(g *Graph) int {
	n := 0
	for _, c := range g.Corners {
		p := c.Position
		if p.X() >= 0 && p.X() <= g.Width && p.Z() >= 0 && p.Z() <= g.Depth {
			n++
		}
	}
	return n
}

func TestBuildSquareWithNearDuplicate(t *testing.T) {
	pts := []mgl64.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {1e-9, 0}}
	g := buildGraph(t, pts, flat, DefaultBuildOptions(1, 1))

	if len(g.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(g.Nodes))
	}
	// Both triangles share the circumcenter (0.5, 0.5); the four hull rays
	// add one far corner each.
	if got := interiorCorners(g); got != 1 {
		t.Errorf("expected the two circumcenters to merge into 1 corner, got %d", got)
	}
	if len(g.Corners) != 5 {
		t.Errorf("expected 5 corners, got %d", len(g.Corners))
	}
	for id, n := range g.Nodes {
		if !n.Boundary {
			t.Errorf("node %d should be a boundary node", id)
		}
		if got := len(g.NodeEdges(NodeID(id))); got != 3 {
			t.Errorf("node %d: expected 3 boundary edges, got %d", id, got)
		}
	}
}

func TestBuildSnapMergesNearbyCircumcenters(t *testing.T) {
	// A slightly perturbed square: the two circumcenters differ by ~1e-6.
	pts := []mgl64.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1 + 2e-6}}

	merged := buildGraph(t, pts, flat, DefaultBuildOptions(2, 2))
	if got := interiorCorners(merged); got != 1 {
		t.Errorf("with snapping: expected 1 interior corner, got %d", got)
	}

	opts := DefaultBuildOptions(2, 2)
	opts.SnapDistance = 1e-9
	split := buildGraph(t, pts, flat, opts)
	if got := interiorCorners(split); got != 2 {
		t.Errorf("without snapping: expected 2 interior corners, got %d", got)
	}
}

func TestBuildHalfEdgeConsistency(t *testing.T) {
	g := buildGraph(t, randomSites(3, 300, 100), flat, DefaultBuildOptions(100, 100))

	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	pairs := 0
	for id, e := range g.Edges {
		if e.Opposite == NoEdge {
			if !g.Nodes[e.Node].Boundary {
				t.Fatalf("edge %d without opposite on interior node %d", id, e.Node)
			}
			continue
		}
		pairs++
		if g.Edges[e.Opposite].Opposite != EdgeID(id) {
			t.Fatalf("edge %d: opposite.opposite != edge", id)
		}
		if g.Edges[e.Opposite].Node == e.Node {
			t.Fatalf("edge %d: opposite belongs to the same node", id)
		}
	}
	if pairs%2 != 0 {
		t.Fatalf("paired half-edges should come in twos, got %d", pairs)
	}

	interior := 0
	for id, n := range g.Nodes {
		edges := g.NodeEdges(NodeID(id))
		if len(edges) < 3 {
			t.Fatalf("node %d cycle length %d", id, len(edges))
		}
		for _, e := range edges {
			if g.Edges[g.Edges[e].Next].Previous != e {
				t.Fatalf("node %d: next/previous mismatch at edge %d", id, e)
			}
		}
		if !n.Boundary {
			interior++
		}
	}
	if interior == 0 {
		t.Fatal("expected interior nodes in a 300-site graph")
	}
}

func TestBuildNeighborsAreSymmetric(t *testing.T) {
	g := buildGraph(t, randomSites(5, 150, 50), flat, DefaultBuildOptions(50, 50))
	for id := range g.Nodes {
		for _, nb := range g.Neighbors(NodeID(id)) {
			found := false
			for _, back := range g.Neighbors(nb) {
				if back == NodeID(id) {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("node %d lists %d as neighbor but not vice versa", id, nb)
			}
		}
	}
}

func TestBuildSamplesHeights(t *testing.T) {
	height := func(x, z float64) float64 { return x + 2*z }
	g := buildGraph(t, randomSites(9, 60, 10), height, DefaultBuildOptions(10, 10))

	for id, n := range g.Nodes {
		want := n.Site.X() + 2*n.Site.Y()
		if math.Abs(n.Center.Y()-want) > 1e-12 {
			t.Fatalf("node %d center height = %v, want %v", id, n.Center.Y(), want)
		}
	}
	for id, c := range g.Corners {
		x := math.Max(0, math.Min(10, c.Position.X()))
		z := math.Max(0, math.Min(10, c.Position.Z()))
		if math.Abs(c.Position.Y()-(x+2*z)) > 1e-9 {
			t.Fatalf("corner %d height not sampled at clamped position", id)
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	tri, err := delaunay.Triangulate([]mgl64.Vec2{{0, 0}, {1, 1}}, delaunay.DefaultOptions())
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	g, err := Build(tri, flat, DefaultBuildOptions(1, 1))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(g.Edges) != 0 || len(g.Corners) != 0 {
		t.Fatalf("expected no edges or corners, got %d/%d", len(g.Edges), len(g.Corners))
	}
	for id, n := range g.Nodes {
		if n.Type != Error {
			t.Errorf("node %d without cell should be Error, got %v", id, n.Type)
		}
	}
}

func TestValidateDetectsBrokenOpposite(t *testing.T) {
	g := buildGraph(t, randomSites(1, 40, 20), flat, DefaultBuildOptions(20, 20))
	for id, e := range g.Edges {
		if e.Opposite != NoEdge {
			g.Edges[e.Opposite].Opposite = NoEdge
			if err := g.Validate(); !errors.Is(err, ErrInconsistent) {
				t.Fatalf("expected ErrInconsistent after breaking edge %d, got %v", id, err)
			}
			return
		}
	}
	t.Fatal("no paired edge found")
}
