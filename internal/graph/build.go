package graph

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/mapgen/internal/delaunay"
)

var (
	// ErrOpenCycle is returned when a cell boundary cannot be closed.
	ErrOpenCycle = errors.New("half-edge cycle cannot close")

	// ErrInconsistent is returned by Validate for broken topology.
	ErrInconsistent = errors.New("inconsistent half-edge graph")
)

// BuildOptions controls Voronoi graph construction.
type BuildOptions struct {
	SnapDistance   float64 // Corners closer than this are merged
	BoundaryOffset float64 // Length of synthesized hull rays
	Width          float64 // Map extent along X (0 disables height clamping)
	Depth          float64 // Map extent along Z
}

// DefaultBuildOptions returns options for a map of the given extent.
func DefaultBuildOptions(width, depth float64) BuildOptions {
	return BuildOptions{
		SnapDistance:   1e-3,
		BoundaryOffset: 1000,
		Width:          width,
		Depth:          depth,
	}
}

// segment is one Voronoi edge as seen from its owning site.
type segment struct {
	neighbor int
	from, to CornerID
	angle    float64
}

// Build converts a triangulation into the dual half-edge Voronoi graph.
// Corner and center heights are sampled from height.
func Build(tri *delaunay.Triangulation, height HeightFunc, opts BuildOptions) (*Graph, error) {
	g := &Graph{Width: opts.Width, Depth: opts.Depth}
	if tri == nil {
		return g, nil
	}
	sites := tri.Points

	corners := delaunay.NewPointGrid(opts.SnapDistance)
	cornerAt := func(p mgl64.Vec2) CornerID {
		if idx, ok := corners.Find(p, opts.SnapDistance); ok {
			return CornerID(idx)
		}
		return CornerID(corners.Insert(p))
	}

	triCorner := make([]CornerID, len(tri.Triangles))
	edgeTris := make(map[delaunay.Edge][]int, len(tri.Triangles)*3)
	for ti, t := range tri.Triangles {
		triCorner[ti] = cornerAt(t.Center)
		for _, e := range [3][2]int{{t.A, t.B}, {t.B, t.C}, {t.C, t.A}} {
			key := delaunay.Edge{A: min(e[0], e[1]), B: max(e[0], e[1])}
			edgeTris[key] = append(edgeTris[key], ti)
		}
	}

	// One Voronoi segment per Delaunay edge, recorded for both sites.
	perSite := make([][]segment, len(sites))
	collapsed := 0
	for _, e := range tri.Edges() {
		tris := edgeTris[e]
		var p, q CornerID
		switch len(tris) {
		case 2:
			p, q = triCorner[tris[0]], triCorner[tris[1]]
			if p == q {
				collapsed++
				continue
			}
		case 1:
			t := tri.Triangles[tris[0]]
			p = triCorner[tris[0]]
			q = cornerAt(hullRay(t, sites, e, opts.BoundaryOffset))
		default:
			return nil, fmt.Errorf("edge %d-%d shared by %d triangles: %w", e.A, e.B, len(tris), ErrInconsistent)
		}

		for _, own := range [2][2]int{{e.A, e.B}, {e.B, e.A}} {
			s, o := own[0], own[1]
			from, to := orient(sites[s], corners.Point(int(p)), corners.Point(int(q)), p, q)
			dir := sites[o].Sub(sites[s])
			perSite[s] = append(perSite[s], segment{
				neighbor: o,
				from:     from,
				to:       to,
				angle:    math.Atan2(dir.Y(), dir.X()),
			})
		}
	}

	g.Corners = make([]Corner, corners.Len())
	for i := range g.Corners {
		p := corners.Point(i)
		x, z := clampToExtent(p, opts)
		g.Corners[i].Position = mgl64.Vec3{p.X(), height(x, z), p.Y()}
	}

	g.Nodes = make([]Node, len(sites))
	owned := make(map[[2]int]EdgeID)
	errorCells := 0
	for s, segs := range perSite {
		site := sites[s]
		g.Nodes[s] = Node{
			Site:   site,
			Center: mgl64.Vec3{site.X(), height(site.X(), site.Y()), site.Y()},
			Edge:   NoEdge,
		}
		if len(segs) == 0 {
			g.Nodes[s].Type = Error
			errorCells++
			continue
		}

		sort.SliceStable(segs, func(i, j int) bool { return segs[i].angle < segs[j].angle })

		var cycle []EdgeID
		for i, seg := range segs {
			id := g.addEdge(seg.from, seg.to, NodeID(s))
			owned[[2]int{s, seg.neighbor}] = id
			cycle = append(cycle, id)

			next := segs[(i+1)%len(segs)]
			if seg.to != next.from {
				cycle = append(cycle, g.addEdge(seg.to, next.from, NodeID(s)))
				g.Nodes[s].Boundary = true
			}
		}
		if len(cycle) < 3 {
			return nil, fmt.Errorf("node %d has %d boundary edges: %w", s, len(cycle), ErrOpenCycle)
		}
		for i, id := range cycle {
			g.Edges[id].Next = cycle[(i+1)%len(cycle)]
			g.Edges[id].Previous = cycle[(i+len(cycle)-1)%len(cycle)]
		}
		g.Nodes[s].Edge = cycle[0]
	}

	for key, id := range owned {
		if opp, ok := owned[[2]int{key[1], key[0]}]; ok {
			g.Edges[id].Opposite = opp
		}
	}

	for id, e := range g.Edges {
		g.Corners[e.Origin].Edges = append(g.Corners[e.Origin].Edges, EdgeID(id))
	}

	slog.Debug("voronoi graph built",
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"corners", len(g.Corners),
		"collapsed", collapsed,
		"error_cells", errorCells,
	)

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) addEdge(from, to CornerID, owner NodeID) EdgeID {
	id := EdgeID(len(g.Edges))
	g.Edges = append(g.Edges, HalfEdge{
		Origin:      from,
		Destination: to,
		Opposite:    NoEdge,
		Next:        NoEdge,
		Previous:    NoEdge,
		Node:        owner,
	})
	return id
}

// orient returns the endpoints in counter-clockwise order around site.
func orient(site, pp, pq mgl64.Vec2, p, q CornerID) (CornerID, CornerID) {
	a := pp.Sub(site)
	b := pq.Sub(site)
	if a.X()*b.Y()-a.Y()*b.X() >= 0 {
		return p, q
	}
	return q, p
}

// hullRay returns the far end of the Voronoi ray dual to hull edge e of t,
// pointing away from the triangle's third vertex.
func hullRay(t delaunay.Triangle, sites []mgl64.Vec2, e delaunay.Edge, offset float64) mgl64.Vec2 {
	a, b := sites[e.A], sites[e.B]
	third := t.A
	if third == e.A || third == e.B {
		third = t.B
		if third == e.A || third == e.B {
			third = t.C
		}
	}

	dir := b.Sub(a)
	perp := mgl64.Vec2{-dir.Y(), dir.X()}.Normalize()
	mid := a.Add(b).Mul(0.5)
	if perp.Dot(mid.Sub(sites[third])) < 0 {
		perp = perp.Mul(-1)
	}
	return t.Center.Add(perp.Mul(offset))
}

func clampToExtent(p mgl64.Vec2, opts BuildOptions) (float64, float64) {
	x, z := p.X(), p.Y()
	if opts.Width > 0 {
		x = math.Max(0, math.Min(opts.Width, x))
	}
	if opts.Depth > 0 {
		z = math.Max(0, math.Min(opts.Depth, z))
	}
	return x, z
}
