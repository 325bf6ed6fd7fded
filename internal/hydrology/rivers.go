package hydrology

import (
	"errors"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/slices"

	"github.com/talgya/mapgen/internal/graph"
)

const (
	// DefaultMinRiverSourceElevation is the center-to-lowest-corner drop a
	// cell needs before it spawns a river.
	DefaultMinRiverSourceElevation = 12.0

	// MaxRiverChecks bounds the edges examined for a single river.
	MaxRiverChecks = 100

	// maxRiverIterations is how many times a releveled river is re-walked.
	maxRiverIterations = 1
)

var (
	errRiverBudget = errors.New("maximum number of checks reached")
	errRiverLost   = errors.New("no route after tunneling and backtracking")
)

// Warning records a river attempt that was abandoned.
type Warning struct {
	Node   graph.NodeID // Source cell of the river
	Reason string
}

// RiverStats summarizes a CarveRivers run.
type RiverStats struct {
	Sources   int // Cells steep enough to spawn a river
	Rivers    int // Rivers that were carved
	Abandoned int
	Leveled   int // Corners lowered while tunneling
}

// CarveRivers walks a river downhill from the lowest corner of every cell
// whose descent exceeds minSourceElevation. Failed rivers are abandoned
// and reported as warnings; they never stop the pass.
func CarveRivers(g *graph.Graph, minSourceElevation float64) (RiverStats, []Warning) {
	var stats RiverStats
	var warnings []Warning
	c := &carver{g: g, center: g.Center()}

	for i := range g.Nodes {
		id := graph.NodeID(i)
		if g.Nodes[i].Type == graph.Error || g.Descent(id) <= minSourceElevation {
			continue
		}
		stats.Sources++

		first := c.downSlopeEdge(g.LowestCorner(id), nil)
		if first == graph.NoEdge {
			continue
		}
		if err := c.carve(first); err != nil {
			slog.Warn("unable to find route for river", "node", id, "error", err)
			warnings = append(warnings, Warning{Node: id, Reason: err.Error()})
			stats.Abandoned++
			continue
		}
		stats.Rivers++
	}
	stats.Leveled = c.leveled

	slog.Debug("rivers carved",
		"sources", stats.Sources,
		"rivers", stats.Rivers,
		"abandoned", stats.Abandoned,
		"leveled", stats.Leveled,
	)
	return stats, warnings
}

type carver struct {
	g       *graph.Graph
	center  mgl64.Vec3
	leveled int
}

func (c *carver) height(corner graph.CornerID) float64 {
	return c.g.Height(corner)
}

// seen reports whether e or its opposite is already used.
func seen(g *graph.Graph, used []graph.EdgeID, e graph.EdgeID) bool {
	if slices.Contains(used, e) {
		return true
	}
	opp := g.Edges[e].Opposite
	return opp != graph.NoEdge && slices.Contains(used, opp)
}

// reachesSea reports whether a salt-water cell meets at corner.
func (c *carver) reachesSea(corner graph.CornerID) bool {
	for _, n := range c.g.CornerNodes(corner) {
		if c.g.Nodes[n].Type == graph.SaltWater {
			return true
		}
	}
	return false
}

// downSlopeEdge picks the next river edge leaving corner. Edges already
// carrying water win; otherwise the steepest descent is taken.
func (c *carver) downSlopeEdge(corner graph.CornerID, used []graph.EdgeID) graph.EdgeID {
	g := c.g
	h := c.height(corner)
	best, bestAngle := graph.NoEdge, math.Inf(-1)

	for _, e := range g.Corners[corner].Edges {
		he := g.Edges[e]
		if c.height(he.Destination) >= h || he.Opposite == graph.NoEdge || seen(g, used, e) {
			continue
		}
		if g.Nodes[he.Node].Type == graph.FreshWater || g.Nodes[g.Edges[he.Opposite].Node].Type == graph.FreshWater {
			continue
		}
		if he.Water > 0 {
			return e
		}
		if a := g.SlopeAngle(e); a > bestAngle {
			best, bestAngle = e, a
		}
	}
	return best
}

// newCandidateEdge picks a tunneling edge out of a dead-end corner:
// existing rivers first, then the previous walk of this river, then the
// lowest destination among edges heading away from the map center.
func (c *carver) newCandidateEdge(corner graph.CornerID, used, previous []graph.EdgeID) graph.EdgeID {
	g := c.g
	var edges []graph.EdgeID
	for _, e := range g.Corners[corner].Edges {
		if g.Edges[e].Opposite == graph.NoEdge || seen(g, used, e) {
			continue
		}
		edges = append(edges, e)
	}

	for _, e := range edges {
		if g.Edges[e].Water > 0 {
			return e
		}
	}
	for _, e := range edges {
		if slices.Contains(previous, e) {
			return e
		}
	}

	var away []graph.EdgeID
	for _, e := range edges {
		from := g.Corners[g.Edges[e].Origin].Position
		to := g.Corners[g.Edges[e].Destination].Position
		if to.Sub(from).Dot(to.Sub(c.center)) >= 0 {
			away = append(away, e)
		}
	}
	if len(away) > 0 {
		edges = away
	}

	best := graph.NoEdge
	for _, e := range edges {
		if best == graph.NoEdge || c.height(g.Edges[e].Destination) < c.height(g.Edges[best].Destination) {
			best = e
		}
	}
	return best
}

// levelEdge lowers the destination of e to the height of its origin.
func (c *carver) levelEdge(e graph.EdgeID) bool {
	he := c.g.Edges[e]
	if c.height(he.Destination) <= c.height(he.Origin) {
		return false
	}
	c.g.SetCornerHeight(he.Destination, c.height(he.Origin))
	c.leveled++
	return true
}

func (c *carver) rollback(path []graph.EdgeID) {
	for _, e := range path {
		if c.g.Edges[e].Water > 0 {
			c.g.Edges[e].Water--
		}
	}
}

// carve walks one river from start until it meets the sea or stops.
func (c *carver) carve(start graph.EdgeID) error {
	g := c.g
	checks := 0
	var previous []graph.EdgeID

	for iteration := 0; ; iteration++ {
		leveled := false
		var path, dead []graph.EdgeID

		for next := start; next != graph.NoEdge; {
			if checks >= MaxRiverChecks {
				c.rollback(path)
				return errRiverBudget
			}
			checks++

			cur := next
			if seen(g, path, cur) {
				break // flowing back into itself
			}
			path = append(path, cur)
			g.Edges[cur].Water++

			if c.reachesSea(g.Edges[cur].Destination) {
				break
			}

			next = c.downSlopeEdge(g.Edges[cur].Destination, path)
			if next != graph.NoEdge {
				continue
			}

			// Dead end: tunnel out, backtracking along the path until a
			// candidate appears or the path is exhausted.
			next = c.newCandidateEdge(g.Edges[cur].Destination, append(slices.Clone(path), dead...), previous)
			for next == graph.NoEdge && len(path) > 0 {
				last := path[len(path)-1]
				path = path[:len(path)-1]
				dead = append(dead, last)
				if g.Edges[last].Water > 0 {
					g.Edges[last].Water--
				}
				if len(path) == 0 {
					break
				}
				from := g.Edges[path[len(path)-1]].Destination
				next = c.newCandidateEdge(from, append(slices.Clone(path), dead...), previous)
			}
			if next == graph.NoEdge {
				return errRiverLost
			}
			if c.levelEdge(next) {
				leveled = true
			}
		}

		if iteration >= maxRiverIterations || !leveled {
			return nil
		}
		// Heights changed: undo this walk and check the route once more.
		c.rollback(path)
		previous = path
	}
}
