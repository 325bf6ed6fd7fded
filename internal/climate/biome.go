package climate

import (
	"log/slog"

	"github.com/talgya/mapgen/internal/graph"
)

// Coin breaks 50/50 ties in the biome table.
type Coin interface {
	Coin() bool
}

// Elevation overrides applied after the table.
const (
	IceElevation      = 18.0
	MountainElevation = 13.0
)

// band is one precipitation row: cells with precipitation below Below
// get Biome, or Alt instead when the coin comes up false.
type band struct {
	Below float64
	Biome graph.NodeType
	Alt   graph.NodeType // Unclassified when there is no choice
}

// heatBand is one heat column; the last row of Rows catches the rest.
type heatBand struct {
	Above float64
	Rows  []band
}

var biomeTable = []heatBand{
	{Above: 22, Rows: []band{
		{Below: 80, Biome: graph.SubtropicalDesert},
		{Below: 250, Biome: graph.Savanna, Alt: graph.SeasonalForest},
		{Below: inf, Biome: graph.TropicalRainforest},
	}},
	{Above: 18, Rows: []band{
		{Below: 60, Biome: graph.Grassland, Alt: graph.Desert},
		{Below: 100, Biome: graph.Woodland},
		{Below: 200, Biome: graph.SeasonalForest},
		{Below: inf, Biome: graph.TemperateRainforest},
	}},
	{Above: -inf, Rows: []band{
		{Below: 50, Biome: graph.Tundra},
		{Below: 75, Biome: graph.Desert},
		{Below: 90, Biome: graph.Woodland},
		{Below: inf, Biome: graph.BorealForest},
	}},
}

const inf = 1e308

// Classify maps heat, precipitation and elevation to a biome. The coin
// is only flipped for rows with two possible biomes.
func Classify(heat, precipitation, elevation float64, rng Coin) graph.NodeType {
	biome := graph.Land
	for _, hb := range biomeTable {
		if heat <= hb.Above {
			continue
		}
		for _, row := range hb.Rows {
			if precipitation >= row.Below {
				continue
			}
			biome = row.Biome
			if row.Alt != graph.Unclassified && !rng.Coin() {
				biome = row.Alt
			}
			break
		}
		break
	}

	switch {
	case elevation > IceElevation:
		return graph.Ice
	case elevation > MountainElevation:
		return graph.Mountain
	}
	return biome
}

// AssignBiomes classifies every Land cell in node order.
func AssignBiomes(g *graph.Graph, rng Coin) int {
	assigned := 0
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Type != graph.Land {
			continue
		}
		n.Type = Classify(n.Heat, n.Precipitation, n.Center.Y(), rng)
		assigned++
	}
	slog.Debug("biomes assigned", "cells", assigned)
	return assigned
}

// MarkMountains raises steep or high cells to Mountain and the highest
// to Snow. Water cells are left alone.
func MarkMountains(g *graph.Graph) int {
	marked := 0
	for i := range g.Nodes {
		id := graph.NodeID(i)
		n := &g.Nodes[i]
		if n.Type == graph.Error || n.Type.IsWater() {
			continue
		}
		elev := g.Elevation(id)
		switch {
		case elev > 17:
			n.Type = graph.Snow
		case elev > 15 || g.Relief(id) > 7:
			n.Type = graph.Mountain
		default:
			continue
		}
		marked++
	}
	return marked
}
