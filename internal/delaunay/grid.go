package delaunay

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// PointGrid is a uniform spatial hash for near-duplicate lookups.
// A non-positive cell size degrades to exact-position matching.
type PointGrid struct {
	cell   float64
	cells  map[[2]int64][]int
	exact  map[mgl64.Vec2]int
	points []mgl64.Vec2
}

// NewPointGrid creates a grid with the given cell size.
func NewPointGrid(cell float64) *PointGrid {
	g := &PointGrid{cell: cell}
	if cell > 0 {
		g.cells = make(map[[2]int64][]int)
	} else {
		g.exact = make(map[mgl64.Vec2]int)
	}
	return g
}

func (g *PointGrid) key(p mgl64.Vec2) [2]int64 {
	return [2]int64{int64(math.Floor(p.X() / g.cell)), int64(math.Floor(p.Y() / g.cell))}
}

// Insert stores p and returns its index.
func (g *PointGrid) Insert(p mgl64.Vec2) int {
	idx := len(g.points)
	g.points = append(g.points, p)
	if g.cells == nil {
		g.exact[p] = idx
		return idx
	}
	k := g.key(p)
	g.cells[k] = append(g.cells[k], idx)
	return idx
}

// Find returns the first stored point within tol of p.
func (g *PointGrid) Find(p mgl64.Vec2, tol float64) (int, bool) {
	if g.cells == nil {
		idx, ok := g.exact[p]
		return idx, ok
	}
	k := g.key(p)
	tol2 := tol * tol
	best, found := -1, false
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, idx := range g.cells[[2]int64{k[0] + dx, k[1] + dy}] {
				d := g.points[idx].Sub(p)
				if d.Dot(d) <= tol2 && (!found || idx < best) {
					best, found = idx, true
				}
			}
		}
	}
	return best, found
}

// Point returns the stored point at idx.
func (g *PointGrid) Point(idx int) mgl64.Vec2 {
	return g.points[idx]
}

// Len returns the number of stored points.
func (g *PointGrid) Len() int {
	return len(g.points)
}
