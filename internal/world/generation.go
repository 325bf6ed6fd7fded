// Package world drives map generation: it triangulates the input sites,
// builds the Voronoi graph and runs the hydrology, climate and
// settlement passes over it in order.
package world

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/mapgen/internal/climate"
	"github.com/talgya/mapgen/internal/delaunay"
	"github.com/talgya/mapgen/internal/entropy"
	"github.com/talgya/mapgen/internal/graph"
	"github.com/talgya/mapgen/internal/hydrology"
)

// Settings holds map generation parameters.
type Settings struct {
	OverallTemperature      float64 `json:"overall_temperature"` // Peak heat at the map midline
	Precipitation           float64 `json:"precipitation"`       // Base precipitation multiplier
	CityDistrictCount       int     `json:"city_district_count"` // Maximum number of cities
	Seed                    int64   `json:"seed"`
	LowWaterCutoff          float64 `json:"low_water_cutoff"`           // Height at or below which cells are water
	MinRiverSourceElevation float64 `json:"min_river_source_elevation"` // Descent a cell needs to spawn a river
	SnapDistance            float64 `json:"snap_distance"`              // Site and corner merge distance
	BoundaryOffset          float64 `json:"boundary_offset"`            // Length of hull rays
	Beaches                 bool    `json:"beaches"`                    // Mark flat coastal land as Beach
	Mountains               bool    `json:"mountains"`                  // Promote steep or high land to Mountain/Snow
}

// DefaultSettings returns a reasonable starting configuration.
func DefaultSettings() Settings {
	return Settings{
		OverallTemperature:      30,
		Precipitation:           60,
		CityDistrictCount:       12,
		Seed:                    0,
		LowWaterCutoff:          hydrology.DefaultLowWaterCutoff,
		MinRiverSourceElevation: hydrology.DefaultMinRiverSourceElevation,
		SnapDistance:            1e-3,
		BoundaryOffset:          1000,
		Beaches:                 true,
	}
}

// SmallTestSettings returns settings for a tiny map during rapid iteration.
func SmallTestSettings() Settings {
	s := DefaultSettings()
	s.Seed = 42
	s.CityDistrictCount = 3
	s.MinRiverSourceElevation = 1
	return s
}

// Extent is the map size in world units along X and Z.
type Extent struct {
	Width float64
	Depth float64
}

// Result is a fully classified map.
type Result struct {
	Graph    *graph.Graph
	Cities   []CitySeed
	Warnings []hydrology.Warning // Abandoned rivers
	Summary  Summary
}

// Summary collects per-stage statistics of a run.
type Summary struct {
	Sites     int
	Skipped   int // Near-duplicate sites dropped by the triangulator
	Triangles int
	Types     map[graph.NodeType]int
	Rivers    hydrology.RiverStats
	Lakes     int
	Beaches   int
	Mountains int
	Cities    int
	Elapsed   time.Duration
}

// Generate builds a complete map from the input sites. Degenerate input
// yields an empty graph; a structurally broken graph is an error.
func Generate(points []mgl64.Vec2, extent Extent, height graph.HeightFunc, s Settings) (*Result, error) {
	start := time.Now()
	var sum Summary

	tri, err := delaunay.Triangulate(points, delaunay.Options{MinSpacing: s.SnapDistance})
	if err != nil {
		return nil, fmt.Errorf("triangulate: %w", err)
	}
	sum.Sites = len(tri.Points)
	sum.Skipped = len(tri.Skipped)
	sum.Triangles = len(tri.Triangles)

	g, err := graph.Build(tri, height, graph.BuildOptions{
		SnapDistance:   s.SnapDistance,
		BoundaryOffset: s.BoundaryOffset,
		Width:          extent.Width,
		Depth:          extent.Depth,
	})
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	// ── Hydrology ──
	hydrology.ResetTypes(g)
	hydrology.MarkLowLand(g, s.LowWaterCutoff)
	hydrology.MarkBoundaryOcean(g)
	hydrology.FloodOcean(g)
	rivers, warnings := hydrology.CarveRivers(g, s.MinRiverSourceElevation)
	sum.Rivers = rivers
	sum.Lakes = hydrology.CreateLakes(g)
	hydrology.SpreadHumidity(g)
	if s.Beaches {
		sum.Beaches = hydrology.MarkBeaches(g, hydrology.DefaultBeachRelief)
	}

	// ── Climate ──
	if err := climate.Heat(g, s.OverallTemperature); err != nil {
		return nil, fmt.Errorf("heat: %w", err)
	}
	if err := climate.Precipitation(g, s.Precipitation); err != nil {
		return nil, fmt.Errorf("precipitation: %w", err)
	}

	rng := entropy.New(s.Seed)
	rng.Reseed(s.Seed)
	climate.AssignBiomes(g, rng)
	if s.Mountains {
		sum.Mountains = climate.MarkMountains(g)
	}

	// ── Settlements ──
	rng.Reseed(s.Seed)
	cities := PlaceCities(g, s.CityDistrictCount, rng)
	sum.Cities = len(cities)

	if err := AverageCenters(g); err != nil {
		return nil, fmt.Errorf("average centers: %w", err)
	}

	sum.Types = TypeCounts(g)
	sum.Elapsed = time.Since(start)
	slog.Info("map generated",
		"sites", sum.Sites,
		"nodes", len(g.Nodes),
		"rivers", sum.Rivers.Rivers,
		"lakes", sum.Lakes,
		"cities", sum.Cities,
		"warnings", len(warnings),
		"elapsed", sum.Elapsed,
	)

	return &Result{Graph: g, Cities: cities, Warnings: warnings, Summary: sum}, nil
}

// AverageCenters sets every cell's center height to the mean of its
// corner heights.
func AverageCenters(g *graph.Graph) error {
	return climate.ForEachNode(g, func(i int) error {
		corners := g.NodeCorners(graph.NodeID(i))
		if len(corners) == 0 {
			return nil
		}
		sum := 0.0
		for _, c := range corners {
			sum += g.Height(c)
		}
		g.Nodes[i].Center[1] = sum / float64(len(corners))
		return nil
	})
}

// TypeCounts returns a summary of node type distribution.
func TypeCounts(g *graph.Graph) map[graph.NodeType]int {
	counts := make(map[graph.NodeType]int)
	for _, n := range g.Nodes {
		counts[n.Type]++
	}
	return counts
}
