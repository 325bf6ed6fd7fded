package hydrology

import (
	"log/slog"
	"math"

	"github.com/talgya/mapgen/internal/graph"
)

// isSink reports whether no edge leaves corner c towards a lower corner.
func isSink(g *graph.Graph, c graph.CornerID) bool {
	h := g.Height(c)
	for _, e := range g.Corners[c].Edges {
		if g.Height(g.Edges[e].Destination) < h {
			return false
		}
	}
	return true
}

// dry reports whether no river runs along the boundary of n.
func dry(g *graph.Graph, n graph.NodeID) bool {
	for _, e := range g.NodeEdges(n) {
		if g.Edges[e].Water != 0 {
			return false
		}
		if opp := g.Edges[e].Opposite; opp != graph.NoEdge && g.Edges[opp].Water != 0 {
			return false
		}
	}
	return true
}

// CreateLakes turns dry Land cells without outflow into FreshWater.
// A cell has no outflow when its lowest corner has no lower neighbor.
// Adjacent lake cells form one lake and are leveled to its lowest corner.
// Returns the number of lakes created.
func CreateLakes(g *graph.Graph) int {
	candidate := make([]bool, len(g.Nodes))
	for i := range g.Nodes {
		id := graph.NodeID(i)
		if g.Nodes[i].Type != graph.Land || !dry(g, id) {
			continue
		}
		candidate[i] = isSink(g, g.LowestCorner(id))
	}

	lakes, cells := 0, 0
	grouped := make([]bool, len(g.Nodes))
	for i := range g.Nodes {
		if !candidate[i] || grouped[i] {
			continue
		}

		// Collect the connected group of candidates.
		group := []graph.NodeID{graph.NodeID(i)}
		grouped[i] = true
		for k := 0; k < len(group); k++ {
			for _, nb := range g.Neighbors(group[k]) {
				if candidate[nb] && !grouped[nb] {
					grouped[nb] = true
					group = append(group, nb)
				}
			}
		}

		level := math.Inf(1)
		for _, n := range group {
			level = math.Min(level, g.Height(g.LowestCorner(n)))
		}
		for _, n := range group {
			g.LevelNode(n, level)
			g.Nodes[n].Type = graph.FreshWater
		}
		lakes++
		cells += len(group)
	}

	slog.Debug("lakes created", "lakes", lakes, "cells", cells)
	return lakes
}
