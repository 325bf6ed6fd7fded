// Package hydrology classifies land and water on the Voronoi graph: it
// floods the ocean in from the map border, carves rivers downhill, fills
// closed basins with lakes and spreads humidity away from water.
package hydrology

import (
	"log/slog"

	"github.com/talgya/mapgen/internal/graph"
)

// DefaultLowWaterCutoff is the height at or below which a cell counts as water.
const DefaultLowWaterCutoff = 0.2

// DefaultBeachRelief is the relief below which a coastal cell becomes beach.
const DefaultBeachRelief = 0.8

// ResetTypes marks every buildable cell as Land, awaiting classification.
func ResetTypes(g *graph.Graph) {
	for i := range g.Nodes {
		if g.Nodes[i].Type != graph.Error {
			g.Nodes[i].Type = graph.Land
		}
	}
}

// MarkLowLand turns cells whose center and every corner lie at or below
// cutoff into FreshWater. The ocean flood fill later claims the ones
// connected to the sea.
func MarkLowLand(g *graph.Graph, cutoff float64) int {
	marked := 0
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Type == graph.Error || n.Center.Y() > cutoff {
			continue
		}
		low := true
		for _, e := range g.NodeEdges(graph.NodeID(i)) {
			if g.Height(g.Edges[e].Destination) > cutoff {
				low = false
				break
			}
		}
		if low {
			n.Type = graph.FreshWater
			marked++
		}
	}
	return marked
}

// MarkBoundaryOcean turns every map-border cell into SaltWater.
func MarkBoundaryOcean(g *graph.Graph) int {
	marked := 0
	for i := range g.Nodes {
		if g.Nodes[i].Boundary && g.Nodes[i].Type != graph.Error {
			g.Nodes[i].Type = graph.SaltWater
			marked++
		}
	}
	return marked
}

// FloodOcean spreads SaltWater into connected FreshWater. Each pass marks
// the unvisited salt-water cells as ocean and converts their fresh-water
// neighbors; passes repeat until no unvisited salt water remains.
// Returns the number of converted cells.
func FloodOcean(g *graph.Graph) int {
	converted := 0
	passes := 0
	for {
		var frontier []graph.NodeID
		for i, n := range g.Nodes {
			if !n.OceanCell && n.Type == graph.SaltWater {
				frontier = append(frontier, graph.NodeID(i))
			}
		}
		if len(frontier) == 0 {
			break
		}
		passes++

		for _, id := range frontier {
			g.Nodes[id].OceanCell = true
			for _, nb := range g.Neighbors(id) {
				if g.Nodes[nb].Type == graph.FreshWater {
					g.Nodes[nb].Type = graph.SaltWater
					converted++
				}
			}
		}
	}
	slog.Debug("ocean flooded", "passes", passes, "converted", converted)
	return converted
}

// touchesType reports whether any neighbor of n has type t.
func touchesType(g *graph.Graph, n graph.NodeID, t graph.NodeType) bool {
	for _, nb := range g.Neighbors(n) {
		if g.Nodes[nb].Type == t {
			return true
		}
	}
	return false
}

// MarkBeaches turns flat Land cells on the sea shore into Beach.
func MarkBeaches(g *graph.Graph, maxRelief float64) int {
	marked := 0
	for i := range g.Nodes {
		id := graph.NodeID(i)
		if g.Nodes[i].Type != graph.Land || !touchesType(g, id, graph.SaltWater) {
			continue
		}
		if g.Relief(id) < maxRelief {
			g.Nodes[i].Type = graph.Beach
			marked++
		}
	}
	return marked
}
