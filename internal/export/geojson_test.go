package export

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	geojson "github.com/paulmach/go.geojson"

	"github.com/talgya/mapgen/internal/delaunay"
	"github.com/talgya/mapgen/internal/graph"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	rng := rand.New(rand.NewSource(2))
	pts := make([]mgl64.Vec2, 100)
	for i := range pts {
		pts[i] = mgl64.Vec2{rng.Float64() * 50, rng.Float64() * 50}
	}
	tri, err := delaunay.Triangulate(pts, delaunay.DefaultOptions())
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	g, err := graph.Build(tri, func(x, z float64) float64 { return 1 }, graph.DefaultBuildOptions(50, 50))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestFeatureCollection(t *testing.T) {
	g := testGraph(t)
	interior := 0
	for i, n := range g.Nodes {
		if !n.Boundary {
			interior++
			g.Nodes[i].Type = graph.Woodland
		}
	}

	// One river segment carried on both halves of a pair.
	var river graph.EdgeID = graph.NoEdge
	for id, e := range g.Edges {
		if e.Opposite != graph.NoEdge {
			river = graph.EdgeID(id)
			break
		}
	}
	g.Edges[river].Water = 1
	g.Edges[g.Edges[river].Opposite].Water = 2

	fc := FeatureCollection(g)
	polygons, lines := 0, 0
	for _, f := range fc.Features {
		switch f.Geometry.Type {
		case geojson.GeometryPolygon:
			polygons++
			ring := f.Geometry.Polygon[0]
			if len(ring) < 4 {
				t.Fatalf("polygon ring with %d points", len(ring))
			}
			if ring[0][0] != ring[len(ring)-1][0] || ring[0][1] != ring[len(ring)-1][1] {
				t.Fatal("polygon ring is not closed")
			}
			if f.Properties["fill"] != Fill(graph.Woodland) {
				t.Errorf("fill = %v", f.Properties["fill"])
			}
		case geojson.GeometryLineString:
			lines++
			if f.Properties["water"] != 3 {
				t.Errorf("river water = %v, want 3", f.Properties["water"])
			}
		}
	}
	if polygons != interior {
		t.Errorf("got %d polygons, want %d interior cells", polygons, interior)
	}
	if lines != 1 {
		t.Errorf("got %d river segments, want 1", lines)
	}

	var buf bytes.Buffer
	if err := Write(&buf, g); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := geojson.UnmarshalFeatureCollection(buf.Bytes()); err != nil {
		t.Fatalf("output is not valid GeoJSON: %v", err)
	}
}
