package hydrology

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/mapgen/internal/delaunay"
	"github.com/talgya/mapgen/internal/graph"
)

// nearestCorner returns the corner closest to (x, z) whose outgoing edges
// all have an opposite.
func nearestCorner(t *testing.T, g *graph.Graph, x, z float64) graph.CornerID {
	t.Helper()
	best, bestDist := graph.CornerID(-1), math.Inf(1)
	for i, c := range g.Corners {
		if len(c.Edges) < 3 {
			continue
		}
		paired := true
		for _, e := range c.Edges {
			if g.Edges[e].Opposite == graph.NoEdge {
				paired = false
				break
			}
		}
		if !paired {
			continue
		}
		if d := math.Hypot(c.Position.X()-x, c.Position.Z()-z); d < bestDist {
			best, bestDist = graph.CornerID(i), d
		}
	}
	if best < 0 {
		t.Fatal("no interior corner")
	}
	return best
}

// seaBeyond resets the map to land and floods every cell whose site lies
// east of x.
func seaBeyond(g *graph.Graph, x float64) {
	ResetTypes(g)
	for i := range g.Nodes {
		if g.Nodes[i].Site.X() > x {
			g.Nodes[i].Type = graph.SaltWater
		}
	}
}

func TestNewCandidateEdgePriority(t *testing.T) {
	type corner struct {
		away, toward, other graph.EdgeID
	}
	setup := func(t *testing.T) (*carver, corner, graph.CornerID) {
		g := newGraph(t, 8, 300, constant(5))
		cid := nearestCorner(t, g, 50, 50)
		p := g.Corners[cid].Position

		// With the center far to the east, westward edges lead away from it.
		c := &carver{g: g, center: mgl64.Vec3{p.X() + 1000, 5, p.Z()}}
		s := corner{graph.NoEdge, graph.NoEdge, graph.NoEdge}
		for _, e := range g.Corners[cid].Edges {
			dx := g.Corners[g.Edges[e].Destination].Position.X() - p.X()
			switch {
			case dx < -0.5 && s.away == graph.NoEdge:
				s.away = e
			case dx > 0.5 && s.toward == graph.NoEdge:
				s.toward = e
			default:
				if s.other == graph.NoEdge {
					s.other = e
				}
			}
		}
		if s.away == graph.NoEdge || s.toward == graph.NoEdge || s.other == graph.NoEdge {
			t.Skip("corner lacks the edge layout this test needs")
		}
		return c, s, cid
	}

	tests := []struct {
		name    string
		prepare func(g *graph.Graph, s corner) (used, previous []graph.EdgeID)
		want    func(s corner) graph.EdgeID
	}{
		{
			name: "existing river first",
			prepare: func(g *graph.Graph, s corner) ([]graph.EdgeID, []graph.EdgeID) {
				g.Edges[s.other].Water = 1
				return nil, []graph.EdgeID{s.toward}
			},
			want: func(s corner) graph.EdgeID { return s.other },
		},
		{
			name: "used river is skipped",
			prepare: func(g *graph.Graph, s corner) ([]graph.EdgeID, []graph.EdgeID) {
				g.Edges[s.other].Water = 1
				return []graph.EdgeID{g.Edges[s.other].Opposite}, []graph.EdgeID{s.toward}
			},
			want: func(s corner) graph.EdgeID { return s.toward },
		},
		{
			name: "previous walk before geometry",
			prepare: func(g *graph.Graph, s corner) ([]graph.EdgeID, []graph.EdgeID) {
				g.SetCornerHeight(g.Edges[s.away].Destination, 0)
				return nil, []graph.EdgeID{s.toward}
			},
			want: func(s corner) graph.EdgeID { return s.toward },
		},
		{
			name: "away from center before lower destination",
			prepare: func(g *graph.Graph, s corner) ([]graph.EdgeID, []graph.EdgeID) {
				g.SetCornerHeight(g.Edges[s.toward].Destination, 0)
				g.SetCornerHeight(g.Edges[s.away].Destination, 4)
				return nil, nil
			},
			want: func(s corner) graph.EdgeID { return s.away },
		},
		{
			name: "nothing left",
			prepare: func(g *graph.Graph, s corner) ([]graph.EdgeID, []graph.EdgeID) {
				return []graph.EdgeID{s.away, s.toward, s.other}, nil
			},
			want: func(s corner) graph.EdgeID { return graph.NoEdge },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, s, cid := setup(t)
			used, previous := tt.prepare(c.g, s)
			if len(c.g.Corners[cid].Edges) > 3 && tt.want(s) == graph.NoEdge {
				t.Skip("corner has more than three edges")
			}
			if got := c.newCandidateEdge(cid, used, previous); got != tt.want(s) {
				t.Fatalf("picked edge %d, want %d (away %d toward %d other %d)",
					got, tt.want(s), s.away, s.toward, s.other)
			}
		})
	}
}

func TestCarveTunnelsOutOfPit(t *testing.T) {
	g := newGraph(t, 7, 400, func(x, z float64) float64 { return 30 - 0.3*x })
	seaBeyond(g, 85)

	pit := nearestCorner(t, g, 70, 50)
	low, up := graph.NoEdge, graph.NoEdge
	for _, e := range g.Corners[pit].Edges {
		h := g.Height(g.Edges[e].Destination)
		if low == graph.NoEdge || h < g.Height(g.Edges[low].Destination) {
			low = e
		}
		if up == graph.NoEdge || h > g.Height(g.Edges[up].Destination) {
			up = e
		}
	}
	// Sink the corner just below all of its neighbours.
	g.SetCornerHeight(pit, g.Height(g.Edges[low].Destination)-0.01)

	c := &carver{g: g, center: g.Center()}
	start := g.Edges[up].Opposite
	if err := c.carve(start); err != nil {
		t.Fatalf("carve: %v", err)
	}
	if c.leveled != 1 {
		t.Fatalf("leveled %d corners, want 1", c.leveled)
	}
	if g.Edges[start].Water != 1 {
		t.Fatalf("start edge water %d, want 1", g.Edges[start].Water)
	}

	out := graph.NoEdge
	for _, e := range g.Corners[pit].Edges {
		if g.Edges[e].Water > 0 {
			if out != graph.NoEdge {
				t.Fatalf("river leaves the pit twice: %d and %d", out, e)
			}
			out = e
		}
	}
	if out == graph.NoEdge {
		t.Fatal("river never left the pit")
	}
	if g.Height(g.Edges[out].Destination) != g.Height(pit) {
		t.Fatalf("tunnel destination at %v, want leveled to %v",
			g.Height(g.Edges[out].Destination), g.Height(pit))
	}

	sea := false
	for id, e := range g.Edges {
		if e.Water == 0 {
			continue
		}
		if e.Water != 1 {
			t.Errorf("edge %d water %d after the re-walk, want 1", id, e.Water)
		}
		if g.Height(e.Destination) > g.Height(e.Origin) {
			t.Errorf("edge %d carries water uphill", id)
		}
		if c.reachesSea(e.Destination) {
			sea = true
		}
	}
	if !sea {
		t.Fatal("river did not reach the sea")
	}
}

func TestCarveRiversAbandonsAfterCheckBudget(t *testing.T) {
	const width, depth = 150.0, 20.0
	rng := rand.New(rand.NewSource(9))
	pts := make([]mgl64.Vec2, 2400)
	for i := range pts {
		pts[i] = mgl64.Vec2{rng.Float64() * width, rng.Float64() * depth}
	}
	tri, err := delaunay.Triangulate(pts, delaunay.DefaultOptions())
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	// A long even slope to a sea at the far end.
	g, err := graph.Build(tri, func(x, z float64) float64 { return math.Max(0, width-x) },
		graph.DefaultBuildOptions(width, depth))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	seaBeyond(g, width-5)

	src := graph.NodeID(-1)
	bestDist := math.Inf(1)
	for i, n := range g.Nodes {
		if n.Boundary || n.Type != graph.Land {
			continue
		}
		if d := math.Hypot(n.Site.X()-5, n.Site.Y()-depth/2); d < bestDist {
			src, bestDist = graph.NodeID(i), d
		}
	}
	if src < 0 {
		t.Fatal("no source cell")
	}
	// Only the source is steep enough to spawn a river.
	g.Nodes[src].Center[1] = 1000

	stats, warnings := CarveRivers(g, 500)
	if stats.Sources != 1 || stats.Abandoned != 1 || stats.Rivers != 0 {
		t.Fatalf("stats %+v, want one abandoned source", stats)
	}
	if len(warnings) != 1 || warnings[0].Node != src || warnings[0].Reason != errRiverBudget.Error() {
		t.Fatalf("warnings %+v, want the check budget warning for node %d", warnings, src)
	}
	for id, e := range g.Edges {
		if e.Water != 0 {
			t.Fatalf("edge %d kept water %d after the river was abandoned", id, e.Water)
		}
	}
}
