// Command mapgen generates a Voronoi terrain map, stores it in SQLite and
// optionally exports it as GeoJSON. It is configured from the environment.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/mapgen/internal/export"
	"github.com/talgya/mapgen/internal/graph"
	"github.com/talgya/mapgen/internal/heightfield"
	"github.com/talgya/mapgen/internal/persistence"
	"github.com/talgya/mapgen/internal/sampling"
	"github.com/talgya/mapgen/internal/world"
)

func main() {
	slog.SetDefault(newLogger(os.Getenv("MAPGEN_LOG_FORMAT")))

	// Configuration from environment.
	seed := envInt64OrDefault("MAPGEN_SEED", 42)
	size := envFloatOrDefault("MAPGEN_SIZE", 200)
	spacing := envFloatOrDefault("MAPGEN_SPACING", 4)
	sampler := envOrDefault("MAPGEN_SAMPLER", "poisson")
	noise := envOrDefault("MAPGEN_NOISE", "simplex")
	dbPath := envOrDefault("MAPGEN_DB", "data/maps.db")
	geoPath := os.Getenv("MAPGEN_GEOJSON")

	settings := world.DefaultSettings()
	settings.Seed = seed
	settings.CityDistrictCount = envIntOrDefault("MAPGEN_CITIES", settings.CityDistrictCount)
	settings.MinRiverSourceElevation = envFloatOrDefault("MAPGEN_RIVER_SOURCE", settings.MinRiverSourceElevation)
	settings.Mountains = os.Getenv("MAPGEN_MOUNTAINS") == "1"

	slog.Info("mapgen starting",
		"seed", seed,
		"size", size,
		"spacing", spacing,
		"sampler", sampler,
		"noise", noise,
	)

	// ── Inputs ────────────────────────────────────────────────────────
	points, err := sampling.Generate(sampler, seed, spacing, size, size)
	if err != nil {
		slog.Error("failed to sample sites", "error", err)
		os.Exit(1)
	}
	height, err := heightfield.New(noise, heightfield.DefaultConfig(seed, size, size))
	if err != nil {
		slog.Error("failed to build heightfield", "error", err)
		os.Exit(1)
	}

	// ── Generation ────────────────────────────────────────────────────
	res, err := world.Generate(points, world.Extent{Width: size, Depth: size}, height, settings)
	if err != nil {
		slog.Error("generation failed", "error", err)
		os.Exit(1)
	}
	logSummary(res)

	// ── Database ──────────────────────────────────────────────────────
	if dbPath != "" {
		runID, err := saveRun(dbPath, seed, settings, res)
		if err != nil {
			slog.Error("failed to save map", "error", err)
			os.Exit(1)
		}
		slog.Info("map stored", "path", dbPath, "run", runID)
	}

	// ── Export ────────────────────────────────────────────────────────
	if geoPath != "" {
		if err := exportGeoJSON(geoPath, res.Graph); err != nil {
			slog.Error("failed to export geojson", "error", err)
			os.Exit(1)
		}
		slog.Info("geojson written", "path", geoPath)
	}
}

func saveRun(path string, seed int64, settings world.Settings, res *world.Result) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	db, err := persistence.Open(path)
	if err != nil {
		return "", err
	}
	defer db.Close()
	return db.SaveRun(seed, settings, res.Graph, res.Warnings)
}

func exportGeoJSON(path string, g *graph.Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.Write(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// newLogger uses a text handler on a terminal and JSON otherwise, unless
// format forces one.
func newLogger(format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if os.Getenv("MAPGEN_DEBUG") == "1" {
		opts.Level = slog.LevelDebug
	}
	if format == "" {
		format = "json"
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			format = "text"
		}
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func logSummary(res *world.Result) {
	s := res.Summary
	slog.Info("summary",
		"sites", humanize.Comma(int64(s.Sites)),
		"skipped", humanize.Comma(int64(s.Skipped)),
		"triangles", humanize.Comma(int64(s.Triangles)),
		"half_edges", humanize.Comma(int64(len(res.Graph.Edges))),
		"rivers", s.Rivers.Rivers,
		"abandoned_rivers", s.Rivers.Abandoned,
		"lakes", s.Lakes,
		"elapsed", s.Elapsed,
	)

	types := make([]graph.NodeType, 0, len(s.Types))
	for t := range s.Types {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		slog.Info("terrain", "type", t.String(), "count", humanize.Comma(int64(s.Types[t])))
	}

	for _, c := range res.Cities {
		slog.Info("city", "name", c.Name, "node", c.Node, "population", humanize.Comma(int64(c.Population)))
	}
}

func envOrDefault(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envInt64OrDefault(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return defaultVal
}

func envFloatOrDefault(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
