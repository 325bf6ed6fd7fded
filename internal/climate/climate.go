// Package climate derives heat and precipitation for every cell and maps
// them onto biomes.
package climate

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/mapgen/internal/graph"
)

// ForEachNode calls fn for every node index, splitting the nodes into
// contiguous ranges processed concurrently. fn must only write node i.
// A range stops at its first error; the first error of any range is
// returned.
func ForEachNode(g *graph.Graph, fn func(i int) error) error {
	n := len(g.Nodes)
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var eg errgroup.Group
	eg.SetLimit(workers)
	chunk := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += chunk {
		lo := lo // per-iteration copy; go.mod targets go 1.21 loop semantics
		hi := min(lo+chunk, n)
		eg.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := fn(i); err != nil {
					return fmt.Errorf("node %d: %w", i, err)
				}
			}
			return nil
		})
	}
	return eg.Wait()
}

func sech2(x float64) float64 {
	c := math.Cosh(x)
	return 1 / (c * c)
}

// Heat sets a latitude-style temperature on every cell: a bell curve
// across the map depth peaking at the midline, minus half the elevation.
func Heat(g *graph.Graph, overallTemperature float64) error {
	span := g.Depth
	if span <= 0 {
		span = 1
	}
	err := ForEachNode(g, func(i int) error {
		n := &g.Nodes[i]
		n.Heat = overallTemperature*sech2(n.Center.Z()/span-0.5) - n.Center.Y()/2
		return nil
	})
	if err != nil {
		return err
	}
	slog.Debug("heat assigned", "overall", overallTemperature, "span", span)
	return nil
}

// Precipitation sets rainfall from an orographic term that grows towards
// both elevation extremes, plus accumulated humidity and extra rainfall.
func Precipitation(g *graph.Graph, base float64) error {
	span := g.MaxCornerHeight()
	if span <= 0 {
		span = 1
	}
	err := ForEachNode(g, func(i int) error {
		n := &g.Nodes[i]
		c := math.Cosh(n.Center.Y()/span*2 - 1)
		n.Precipitation = base * (c*c + n.Humidity + n.ExtraRainfall)
		return nil
	})
	if err != nil {
		return err
	}
	slog.Debug("precipitation assigned", "base", base, "span", span)
	return nil
}
