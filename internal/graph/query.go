package graph

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NodeEdges returns the boundary half-edges of n in cycle order.
func (g *Graph) NodeEdges(n NodeID) []EdgeID {
	start := g.Nodes[n].Edge
	if start == NoEdge {
		return nil
	}
	var edges []EdgeID
	for e := start; ; {
		edges = append(edges, e)
		e = g.Edges[e].Next
		if e == start || e == NoEdge || len(edges) > len(g.Edges) {
			break
		}
	}
	return edges
}

// NodeCorners returns the corners of n in cycle order.
func (g *Graph) NodeCorners(n NodeID) []CornerID {
	edges := g.NodeEdges(n)
	corners := make([]CornerID, len(edges))
	for i, e := range edges {
		corners[i] = g.Edges[e].Origin
	}
	return corners
}

// Neighbors returns the cells sharing a boundary edge with n.
func (g *Graph) Neighbors(n NodeID) []NodeID {
	var out []NodeID
	for _, e := range g.NodeEdges(n) {
		opp := g.Edges[e].Opposite
		if opp == NoEdge {
			continue
		}
		nb := g.Edges[opp].Node
		dup := false
		for _, seen := range out {
			if seen == nb {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, nb)
		}
	}
	return out
}

// CornerNodes returns the cells meeting at corner c.
func (g *Graph) CornerNodes(c CornerID) []NodeID {
	var out []NodeID
	for _, e := range g.Corners[c].Edges {
		n := g.Edges[e].Node
		dup := false
		for _, seen := range out {
			if seen == n {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, n)
		}
	}
	return out
}

// Height returns the height of corner c.
func (g *Graph) Height(c CornerID) float64 {
	return g.Corners[c].Position.Y()
}

// LowestCorner returns the lowest corner of n; ties keep cycle order.
func (g *Graph) LowestCorner(n NodeID) CornerID {
	best := CornerID(-1)
	for _, c := range g.NodeCorners(n) {
		if best < 0 || g.Height(c) < g.Height(best) {
			best = c
		}
	}
	return best
}

// cornerRange returns the lowest and highest corner heights of n.
func (g *Graph) cornerRange(n NodeID) (lo, hi float64) {
	corners := g.NodeCorners(n)
	if len(corners) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, c := range corners {
		h := g.Height(c)
		lo = math.Min(lo, h)
		hi = math.Max(hi, h)
	}
	return lo, hi
}

// Relief is the spread between the highest and lowest corner of n.
func (g *Graph) Relief(n NodeID) float64 {
	lo, hi := g.cornerRange(n)
	return hi - lo
}

// Descent is the drop from the center of n to its lowest corner.
func (g *Graph) Descent(n NodeID) float64 {
	if g.Nodes[n].Edge == NoEdge {
		return 0
	}
	lo, _ := g.cornerRange(n)
	return g.Nodes[n].Center.Y() - lo
}

// Elevation is the center height of n.
func (g *Graph) Elevation(n NodeID) float64 {
	return g.Nodes[n].Center.Y()
}

// SlopeAngle is the downhill angle of e in radians; negative uphill.
func (g *Graph) SlopeAngle(e EdgeID) float64 {
	from := g.Corners[g.Edges[e].Origin].Position
	to := g.Corners[g.Edges[e].Destination].Position
	run := mgl64.Vec2{to.X() - from.X(), to.Z() - from.Z()}.Len()
	return math.Atan2(from.Y()-to.Y(), run)
}

// Center returns the map midpoint at the mean corner height.
func (g *Graph) Center() mgl64.Vec3 {
	y := 0.0
	for _, c := range g.Corners {
		y += c.Position.Y()
	}
	if len(g.Corners) > 0 {
		y /= float64(len(g.Corners))
	}
	return mgl64.Vec3{g.Width / 2, y, g.Depth / 2}
}

// MaxCornerHeight returns the highest corner height, or 0 for an empty graph.
func (g *Graph) MaxCornerHeight() float64 {
	if len(g.Corners) == 0 {
		return 0
	}
	hi := math.Inf(-1)
	for _, c := range g.Corners {
		hi = math.Max(hi, c.Position.Y())
	}
	return hi
}

// SetCornerHeight is the only path that changes corner heights.
func (g *Graph) SetCornerHeight(c CornerID, h float64) {
	p := &g.Corners[c].Position
	p[1] = h
}

// LevelNode sets every corner of n and its center to height h.
func (g *Graph) LevelNode(n NodeID, h float64) {
	for _, c := range g.NodeCorners(n) {
		g.SetCornerHeight(c, h)
	}
	g.Nodes[n].Center[1] = h
}

// Validate checks the half-edge invariants of the graph.
func (g *Graph) Validate() error {
	for id, e := range g.Edges {
		eid := EdgeID(id)
		if e.Opposite != NoEdge {
			opp := g.Edges[e.Opposite]
			if opp.Opposite != eid {
				return fmt.Errorf("edge %d: opposite %d does not point back: %w", id, e.Opposite, ErrInconsistent)
			}
			if opp.Node == e.Node {
				return fmt.Errorf("edge %d: opposite owned by same node %d: %w", id, e.Node, ErrInconsistent)
			}
			if opp.Origin != e.Destination || opp.Destination != e.Origin {
				return fmt.Errorf("edge %d: opposite endpoints mismatch: %w", id, ErrInconsistent)
			}
		}
		if e.Next == NoEdge || e.Previous == NoEdge {
			return fmt.Errorf("edge %d: unlinked cycle: %w", id, ErrOpenCycle)
		}
		if g.Edges[e.Next].Previous != eid {
			return fmt.Errorf("edge %d: next/previous mismatch: %w", id, ErrInconsistent)
		}
		if g.Edges[e.Next].Origin != e.Destination {
			return fmt.Errorf("edge %d: next does not start at destination: %w", id, ErrOpenCycle)
		}
		if g.Edges[e.Next].Node != e.Node {
			return fmt.Errorf("edge %d: next crosses into node %d: %w", id, g.Edges[e.Next].Node, ErrInconsistent)
		}
		if e.Water < 0 {
			return fmt.Errorf("edge %d: negative water %d: %w", id, e.Water, ErrInconsistent)
		}
	}

	for id, n := range g.Nodes {
		if n.Edge == NoEdge {
			if n.Type != Error {
				return fmt.Errorf("node %d has no edges: %w", id, ErrOpenCycle)
			}
			continue
		}
		edges := g.NodeEdges(NodeID(id))
		if len(edges) < 3 {
			return fmt.Errorf("node %d cycle length %d: %w", id, len(edges), ErrOpenCycle)
		}
		if g.Edges[edges[len(edges)-1]].Next != n.Edge {
			return fmt.Errorf("node %d cycle does not close: %w", id, ErrOpenCycle)
		}
	}
	return nil
}
