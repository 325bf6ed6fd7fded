// Package graph provides the half-edge Voronoi planar graph that every
// terrain pass reads and mutates. Nodes, half-edges and corners live in
// flat slices and reference each other by integer handle.
package graph

import "github.com/go-gl/mathgl/mgl64"

// NodeID indexes Graph.Nodes.
type NodeID int

// EdgeID indexes Graph.Edges.
type EdgeID int

// CornerID indexes Graph.Corners.
type CornerID int

// NoEdge marks a missing half-edge reference (map border).
const NoEdge EdgeID = -1

// HeightFunc samples terrain height at a point of the x/z plane.
type HeightFunc func(x, z float64) float64

// NodeType is the terrain role of a cell.
type NodeType uint8

const (
	Unclassified NodeType = iota
	Error                 // Cell could not be built; skipped by every pass
	Land                  // Placeholder awaiting biome classification
	SaltWater
	FreshWater
	Beach
	Mountain
	Ice
	Snow
	SubtropicalDesert
	Savanna
	SeasonalForest
	TropicalRainforest
	Grassland
	Desert
	Woodland
	TemperateRainforest
	Tundra
	BorealForest
	Taiga
	Swamp
)

var nodeTypeNames = [...]string{
	Unclassified:        "Unclassified",
	Error:               "Error",
	Land:                "Land",
	SaltWater:           "SaltWater",
	FreshWater:          "FreshWater",
	Beach:               "Beach",
	Mountain:            "Mountain",
	Ice:                 "Ice",
	Snow:                "Snow",
	SubtropicalDesert:   "SubtropicalDesert",
	Savanna:             "Savanna",
	SeasonalForest:      "SeasonalForest",
	TropicalRainforest:  "TropicalRainforest",
	Grassland:           "Grassland",
	Desert:              "Desert",
	Woodland:            "Woodland",
	TemperateRainforest: "TemperateRainforest",
	Tundra:              "Tundra",
	BorealForest:        "BorealForest",
	Taiga:               "Taiga",
	Swamp:               "Swamp",
}

// String returns the display name of the type.
func (t NodeType) String() string {
	if int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return "Unknown"
}

// IsWater reports whether the type is salt or fresh water.
func (t NodeType) IsWater() bool {
	return t == SaltWater || t == FreshWater
}

// AllNodeTypes lists every type in declaration order.
func AllNodeTypes() []NodeType {
	types := make([]NodeType, len(nodeTypeNames))
	for i := range types {
		types[i] = NodeType(i)
	}
	return types
}

// Corner is a vertex shared by the cells meeting at it.
type Corner struct {
	Position mgl64.Vec3 // X and Z on the map plane, Y is height
	Edges    []EdgeID   // Outgoing half-edges (Origin == this corner)
}

// HalfEdge is one directed boundary segment of a cell.
type HalfEdge struct {
	Origin      CornerID
	Destination CornerID
	Opposite    EdgeID // Paired half-edge of the neighbor cell, or NoEdge
	Next        EdgeID // Counter-clockwise successor around Node
	Previous    EdgeID
	Node        NodeID
	Water       int // River flow count; 0 means no river
}

// Node is one Voronoi cell.
type Node struct {
	Site   mgl64.Vec2 // Generating point on the map plane
	Center mgl64.Vec3 // Site lifted to terrain height

	Type          NodeType
	Humidity      float64
	Heat          float64
	Precipitation float64
	ExtraRainfall float64

	OceanCell  bool // Reached by the ocean flood fill
	IsCity     bool
	Population int

	Edge     EdgeID // Any boundary half-edge, NoEdge for Error cells
	Boundary bool   // Has a half-edge without opposite
}

// Graph is the planar Voronoi graph of a map.
type Graph struct {
	Nodes   []Node
	Edges   []HalfEdge
	Corners []Corner

	Width float64 // Map extent along X
	Depth float64 // Map extent along Z
}
