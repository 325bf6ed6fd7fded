// Package delaunay builds Delaunay triangulations of planar point sets
// using Bowyer-Watson incremental insertion.
package delaunay

import (
	"errors"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrNoTriangles is returned when three or more non-collinear points
// yield an empty triangulation.
var ErrNoTriangles = errors.New("triangulation produced no triangles")

const (
	degenerateDet = 1e-10 // |D| below this marks a collinear triple
	minRadius     = 1e-4  // Circumradius at or below this is rejected
	superScale    = 10.0  // Super-triangle distance in units of the max bound dimension
)

// Options controls triangulation input handling.
type Options struct {
	MinSpacing float64 // Points within this distance of an accepted point are skipped
}

// DefaultOptions returns the options used by world generation.
func DefaultOptions() Options {
	return Options{MinSpacing: 1e-6}
}

// Triangle references three accepted points and caches its circumcircle.
type Triangle struct {
	A, B, C  int        // Indices into Triangulation.Points
	Center   mgl64.Vec2 // Circumcenter
	RadiusSq float64    // Squared circumradius
}

// Contains reports whether p lies in the closed circumcircle.
// Points on the circle count as inside.
func (t Triangle) Contains(p mgl64.Vec2) bool {
	d := p.Sub(t.Center)
	return d.Dot(d) <= t.RadiusSq
}

// Has reports whether the triangle uses point index i.
func (t Triangle) Has(i int) bool {
	return t.A == i || t.B == i || t.C == i
}

// Triangulation is the output of Triangulate.
type Triangulation struct {
	Points    []mgl64.Vec2 // Accepted points, in insertion order
	Source    []int        // Input index of each accepted point
	Skipped   []int        // Input indices dropped as near-duplicates
	Triangles []Triangle
}

// Edge is an undirected triangulation edge with A < B.
type Edge struct{ A, B int }

func makeEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{a, b}
}

// Circumcircle returns the circumcenter and squared radius of (a, b, c).
// ok is false for near-collinear triples.
func Circumcircle(a, b, c mgl64.Vec2) (center mgl64.Vec2, radiusSq float64, ok bool) {
	d := 2 * (a.X()*(b.Y()-c.Y()) + b.X()*(c.Y()-a.Y()) + c.X()*(a.Y()-b.Y()))
	if math.Abs(d) < degenerateDet {
		return mgl64.Vec2{}, 0, false
	}

	a2 := a.Dot(a)
	b2 := b.Dot(b)
	c2 := c.Dot(c)

	ux := (a2*(b.Y()-c.Y()) + b2*(c.Y()-a.Y()) + c2*(a.Y()-b.Y())) / d
	uy := (a2*(c.X()-b.X()) + b2*(a.X()-c.X()) + c2*(b.X()-a.X())) / d
	center = mgl64.Vec2{ux, uy}

	r := a.Sub(center)
	radiusSq = r.Dot(r)
	if math.IsNaN(radiusSq) || radiusSq <= minRadius*minRadius {
		return mgl64.Vec2{}, 0, false
	}
	return center, radiusSq, true
}

func newTriangle(pts []mgl64.Vec2, a, b, c int) (Triangle, bool) {
	center, r2, ok := Circumcircle(pts[a], pts[b], pts[c])
	if !ok {
		return Triangle{}, false
	}
	return Triangle{A: a, B: b, C: c, Center: center, RadiusSq: r2}, true
}

// Triangulate computes the Delaunay triangulation of points.
// Fewer than three usable points, or an all-collinear set, yields an
// empty triangulation and a nil error.
func Triangulate(points []mgl64.Vec2, opts Options) (*Triangulation, error) {
	out := &Triangulation{}

	grid := NewPointGrid(opts.MinSpacing)
	for i, p := range points {
		if _, dup := grid.Find(p, opts.MinSpacing); dup {
			out.Skipped = append(out.Skipped, i)
			continue
		}
		grid.Insert(p)
		out.Points = append(out.Points, p)
		out.Source = append(out.Source, i)
	}
	if len(out.Skipped) > 0 {
		slog.Debug("skipped near-duplicate points", "count", len(out.Skipped))
	}

	n := len(out.Points)
	if n < 3 {
		return out, nil
	}

	// Bounds and super-triangle.
	minX, maxX := out.Points[0].X(), out.Points[0].X()
	minY, maxY := out.Points[0].Y(), out.Points[0].Y()
	for _, p := range out.Points {
		minX = math.Min(minX, p.X())
		maxX = math.Max(maxX, p.X())
		minY = math.Min(minY, p.Y())
		maxY = math.Max(maxY, p.Y())
	}
	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	mid := mgl64.Vec2{(minX + maxX) / 2, (minY + maxY) / 2}
	k := superScale * span

	pts := make([]mgl64.Vec2, n, n+3)
	copy(pts, out.Points)
	pts = append(pts,
		mid.Add(mgl64.Vec2{-2 * k, -k}),
		mid.Add(mgl64.Vec2{0, 2 * k}),
		mid.Add(mgl64.Vec2{2 * k, -k}),
	)

	super, _ := newTriangle(pts, n, n+1, n+2)
	tris := []Triangle{super}

	for pi := 0; pi < n; pi++ {
		tris = insert(tris, pts, pi)
	}

	// Discard everything attached to the super-triangle.
	kept := tris[:0]
	for _, t := range tris {
		if t.A >= n || t.B >= n || t.C >= n {
			continue
		}
		kept = append(kept, t)
	}
	out.Triangles = kept

	if len(out.Triangles) == 0 && !collinear(out.Points) {
		return out, ErrNoTriangles
	}
	return out, nil
}

// insert adds point pi to the triangulation and returns the new triangle set.
func insert(tris []Triangle, pts []mgl64.Vec2, pi int) []Triangle {
	p := pts[pi]

	var bad []int
	for i, t := range tris {
		if t.Contains(p) {
			bad = append(bad, i)
		}
	}
	if len(bad) == 0 {
		return tris
	}

	// Boundary of the cavity: edges used by exactly one bad triangle,
	// kept in encounter order for reproducible output.
	counts := make(map[Edge]int, len(bad)*3)
	type directed struct{ a, b int }
	var order []directed
	for _, bi := range bad {
		t := tris[bi]
		for _, e := range [3]directed{{t.A, t.B}, {t.B, t.C}, {t.C, t.A}} {
			key := makeEdge(e.a, e.b)
			if counts[key] == 0 {
				order = append(order, e)
			}
			counts[key]++
		}
	}

	isBad := make(map[int]bool, len(bad))
	for _, bi := range bad {
		isBad[bi] = true
	}
	kept := make([]Triangle, 0, len(tris)+len(order))
	for i, t := range tris {
		if !isBad[i] {
			kept = append(kept, t)
		}
	}

	for _, e := range order {
		if counts[makeEdge(e.a, e.b)] != 1 {
			continue
		}
		if t, ok := newTriangle(pts, e.a, e.b, pi); ok {
			kept = append(kept, t)
		}
	}
	return kept
}

func collinear(pts []mgl64.Vec2) bool {
	if len(pts) < 3 {
		return true
	}
	a := pts[0]
	var b mgl64.Vec2
	found := false
	for _, p := range pts[1:] {
		if p != a {
			b, found = p, true
			break
		}
	}
	if !found {
		return true
	}
	ab := b.Sub(a)
	for _, p := range pts {
		ap := p.Sub(a)
		if math.Abs(ab.X()*ap.Y()-ab.Y()*ap.X()) > degenerateDet {
			return false
		}
	}
	return true
}

// Edges returns the unique undirected edges of the triangulation in
// first-seen order.
func (t *Triangulation) Edges() []Edge {
	seen := make(map[Edge]bool, len(t.Triangles)*3)
	var edges []Edge
	for _, tri := range t.Triangles {
		for _, e := range [3]Edge{makeEdge(tri.A, tri.B), makeEdge(tri.B, tri.C), makeEdge(tri.C, tri.A)} {
			if !seen[e] {
				seen[e] = true
				edges = append(edges, e)
			}
		}
	}
	return edges
}
