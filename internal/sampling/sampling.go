// Package sampling generates the site points fed to the triangulator.
package sampling

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// Uniform scatters n points uniformly over [0,width)×[0,depth).
func Uniform(seed int64, n int, width, depth float64) []mgl64.Vec2 {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]mgl64.Vec2, n)
	for i := range pts {
		pts[i] = mgl64.Vec2{rng.Float64() * width, rng.Float64() * depth}
	}
	return pts
}

// Grid places one point per spacing×spacing cell, offset from the cell
// center by up to jitter·spacing/2 in each axis. A small jitter keeps
// the points out of cocircular configurations.
func Grid(seed int64, spacing, jitter, width, depth float64) []mgl64.Vec2 {
	if spacing <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))
	cols := int(width / spacing)
	rows := int(depth / spacing)
	pts := make([]mgl64.Vec2, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			jx := (rng.Float64()*2 - 1) * jitter * spacing / 2
			jz := (rng.Float64()*2 - 1) * jitter * spacing / 2
			pts = append(pts, mgl64.Vec2{
				(float64(c)+0.5)*spacing + jx,
				(float64(r)+0.5)*spacing + jz,
			})
		}
	}
	return pts
}

// PoissonDisc samples points no closer than minDist to each other using
// Bridson's algorithm with maxTries attempts per active point.
func PoissonDisc(seed int64, minDist float64, maxTries int, width, depth float64) []mgl64.Vec2 {
	if minDist <= 0 || width <= 0 || depth <= 0 {
		return nil
	}
	if maxTries <= 0 {
		maxTries = 30
	}
	rng := rand.New(rand.NewSource(seed))

	cell := minDist / math.Sqrt2
	gw := int(math.Ceil(width / cell))
	gh := int(math.Ceil(depth / cell))
	grid := make([]int, gw*gh)
	for i := range grid {
		grid[i] = -1
	}
	toGrid := func(p mgl64.Vec2) (int, int) {
		return min(int(p.X()/cell), gw-1), min(int(p.Y()/cell), gh-1)
	}

	var pts []mgl64.Vec2
	var active []int
	add := func(p mgl64.Vec2) {
		gx, gz := toGrid(p)
		grid[gz*gw+gx] = len(pts)
		active = append(active, len(pts))
		pts = append(pts, p)
	}
	valid := func(p mgl64.Vec2) bool {
		if p.X() < 0 || p.X() >= width || p.Y() < 0 || p.Y() >= depth {
			return false
		}
		gx, gz := toGrid(p)
		for z := max(gz-2, 0); z <= min(gz+2, gh-1); z++ {
			for x := max(gx-2, 0); x <= min(gx+2, gw-1); x++ {
				if idx := grid[z*gw+x]; idx >= 0 && pts[idx].Sub(p).Len() < minDist {
					return false
				}
			}
		}
		return true
	}

	add(mgl64.Vec2{rng.Float64() * width, rng.Float64() * depth})
	for len(active) > 0 {
		k := rng.Intn(len(active))
		origin := pts[active[k]]
		found := false
		for try := 0; try < maxTries; try++ {
			angle := rng.Float64() * 2 * math.Pi
			r := minDist * (1 + rng.Float64())
			p := origin.Add(mgl64.Vec2{math.Cos(angle) * r, math.Sin(angle) * r})
			if valid(p) {
				add(p)
				found = true
				break
			}
		}
		if !found {
			active[k] = active[len(active)-1]
			active = active[:len(active)-1]
		}
	}
	return pts
}

// Generate returns points from the named sampler. spacing is the grid
// cell size, the Poisson minimum distance, or for the uniform sampler
// the spacing whose square sets the point density.
func Generate(kind string, seed int64, spacing, width, depth float64) ([]mgl64.Vec2, error) {
	if spacing <= 0 {
		return nil, fmt.Errorf("invalid spacing %v", spacing)
	}
	switch kind {
	case "", "poisson":
		return PoissonDisc(seed, spacing, 30, width, depth), nil
	case "grid":
		return Grid(seed, spacing, 0.8, width, depth), nil
	case "random":
		n := int(width * depth / (spacing * spacing))
		return Uniform(seed, n, width, depth), nil
	default:
		return nil, fmt.Errorf("unknown sampler %q", kind)
	}
}
