// Package heightfield provides continuous terrain height functions built
// from layered noise. Heights rise towards the map interior and fall off
// to sea level along the border.
package heightfield

import (
	"fmt"
	"math"

	perlin "github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/mapgen/internal/graph"
)

// Config holds height sampling parameters.
type Config struct {
	Seed        int64
	Width       float64 // Map extent along X
	Depth       float64 // Map extent along Z
	MaxHeight   float64 // Height of a full-strength noise peak
	Octaves     int
	Frequency   float64 // Base frequency in cycles per map unit
	Persistence float64 // Amplitude falloff per octave
	Falloff     float64 // Exponent of the continental border falloff
}

// DefaultConfig returns a configuration for a map of the given extent.
func DefaultConfig(seed int64, width, depth float64) Config {
	return Config{
		Seed:        seed,
		Width:       width,
		Depth:       depth,
		MaxHeight:   20,
		Octaves:     5,
		Frequency:   3 / math.Max(width, depth),
		Persistence: 0.5,
		Falloff:     3.5,
	}
}

func (c Config) validate() error {
	if c.Width <= 0 || c.Depth <= 0 {
		return fmt.Errorf("invalid extent %vx%v", c.Width, c.Depth)
	}
	if c.Octaves <= 0 {
		return fmt.Errorf("invalid octave count %d", c.Octaves)
	}
	return nil
}

// falloff shapes the continent: 1 at the map center, 0 at the inscribed
// ellipse and beyond.
func (c Config) falloff(x, z float64) float64 {
	dx := (x - c.Width/2) / (c.Width / 2)
	dz := (z - c.Depth/2) / (c.Depth / 2)
	d := math.Sqrt(dx*dx + dz*dz)
	f := 1 - math.Pow(d, c.Falloff)
	if f < 0 {
		return 0
	}
	return f
}

// octaves layers fn at doubling frequencies and returns the weighted mean.
func (c Config) octaves(fn func(x, z float64) float64, x, z float64) float64 {
	total, amplitude, maxVal := 0.0, 1.0, 0.0
	frequency := c.Frequency
	for i := 0; i < c.Octaves; i++ {
		total += fn(x*frequency, z*frequency) * amplitude
		maxVal += amplitude
		amplitude *= c.Persistence
		frequency *= 2
	}
	return total / maxVal
}

// Simplex returns a height function from octave OpenSimplex noise.
func Simplex(cfg Config) (graph.HeightFunc, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("simplex heightfield: %w", err)
	}
	noise := opensimplex.NewNormalized(cfg.Seed)
	return func(x, z float64) float64 {
		return cfg.MaxHeight * cfg.octaves(noise.Eval2, x, z) * cfg.falloff(x, z)
	}, nil
}

// Perlin returns a height function from octave Perlin noise.
func Perlin(cfg Config) (graph.HeightFunc, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("perlin heightfield: %w", err)
	}
	p := perlin.NewPerlin(2, 2, 3, cfg.Seed)
	normalized := func(x, z float64) float64 {
		v := (p.Noise2D(x, z) + 1) * 0.5
		return math.Max(0, math.Min(1, v))
	}
	return func(x, z float64) float64 {
		return cfg.MaxHeight * cfg.octaves(normalized, x, z) * cfg.falloff(x, z)
	}, nil
}

// New returns the height function for the named noise kind.
func New(kind string, cfg Config) (graph.HeightFunc, error) {
	switch kind {
	case "", "simplex":
		return Simplex(cfg)
	case "perlin":
		return Perlin(cfg)
	default:
		return nil, fmt.Errorf("unknown noise kind %q", kind)
	}
}
