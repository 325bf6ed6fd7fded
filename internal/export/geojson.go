// Package export renders a generated graph as GeoJSON: one polygon per
// cell and one line string per river segment, in map x/z coordinates.
package export

import (
	"fmt"
	"io"

	geojson "github.com/paulmach/go.geojson"

	"github.com/talgya/mapgen/internal/graph"
)

// fills maps node types to display colours.
var fills = map[graph.NodeType]string{
	graph.Error:               "#ff00ff",
	graph.Land:                "#a0a060",
	graph.SaltWater:           "#2a4f8f",
	graph.FreshWater:          "#4f8fcf",
	graph.Beach:               "#e8d8a0",
	graph.Mountain:            "#7a6a5a",
	graph.Ice:                 "#e0f0ff",
	graph.Snow:                "#ffffff",
	graph.SubtropicalDesert:   "#e9ddc7",
	graph.Savanna:             "#c8c070",
	graph.SeasonalForest:      "#6a9a3a",
	graph.TropicalRainforest:  "#1f7a2f",
	graph.Grassland:           "#9cbb5a",
	graph.Desert:              "#d8c890",
	graph.Woodland:            "#5a8a4a",
	graph.TemperateRainforest: "#2f6f4f",
	graph.Tundra:              "#bbbbaa",
	graph.BorealForest:        "#3f5f3f",
	graph.Taiga:               "#99aa77",
	graph.Swamp:               "#4a5a3a",
}

// Fill returns the display colour of t.
func Fill(t graph.NodeType) string {
	if c, ok := fills[t]; ok {
		return c
	}
	return "#000000"
}

// FeatureCollection converts g into GeoJSON features. Border cells are
// skipped since their far corners lie outside the map.
func FeatureCollection(g *graph.Graph) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for i, n := range g.Nodes {
		if n.Boundary || n.Type == graph.Error {
			continue
		}
		corners := g.NodeCorners(graph.NodeID(i))
		ring := make([][]float64, 0, len(corners)+1)
		for _, c := range corners {
			p := g.Corners[c].Position
			ring = append(ring, []float64{p.X(), p.Z()})
		}
		ring = append(ring, ring[0])

		f := geojson.NewPolygonFeature([][][]float64{ring})
		f.ID = i
		f.SetProperty("type", n.Type.String())
		f.SetProperty("fill", Fill(n.Type))
		f.SetProperty("elevation", n.Center.Y())
		f.SetProperty("humidity", n.Humidity)
		f.SetProperty("heat", n.Heat)
		f.SetProperty("precipitation", n.Precipitation)
		if n.IsCity {
			f.SetProperty("city", true)
			f.SetProperty("population", n.Population)
		}
		fc.AddFeature(f)
	}

	for i, e := range g.Edges {
		water := e.Water
		if e.Opposite != graph.NoEdge {
			if int(e.Opposite) < i {
				continue // counted with its pair
			}
			water += g.Edges[e.Opposite].Water
		}
		if water == 0 {
			continue
		}
		from := g.Corners[e.Origin].Position
		to := g.Corners[e.Destination].Position
		f := geojson.NewLineStringFeature([][]float64{{from.X(), from.Z()}, {to.X(), to.Z()}})
		f.SetProperty("kind", "river")
		f.SetProperty("water", water)
		fc.AddFeature(f)
	}

	return fc
}

// Write encodes g as a GeoJSON FeatureCollection to w.
func Write(w io.Writer, g *graph.Graph) error {
	data, err := FeatureCollection(g).MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}
