package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/talgya/mapgen/internal/heightfield"
	"github.com/talgya/mapgen/internal/persistence"
	"github.com/talgya/mapgen/internal/sampling"
	"github.com/talgya/mapgen/internal/world"
)

func smallMap(t *testing.T) (world.Settings, *world.Result) {
	t.Helper()
	s := world.SmallTestSettings()
	pts := sampling.PoissonDisc(s.Seed, 5, 30, 60, 60)
	height, err := heightfield.Simplex(heightfield.DefaultConfig(s.Seed, 60, 60))
	if err != nil {
		t.Fatalf("Simplex: %v", err)
	}
	res, err := world.Generate(pts, world.Extent{Width: 60, Depth: 60}, height, s)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return s, res
}

func TestSaveRunClosesDatabase(t *testing.T) {
	s, res := smallMap(t)
	path := filepath.Join(t.TempDir(), "nested", "maps.db")

	id, err := saveRun(path, s.Seed, s, res)
	if err != nil {
		t.Fatalf("saveRun: %v", err)
	}

	// Reopen the stored run.
	db, err := persistence.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	g, err := db.LoadGraph(id)
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	if len(g.Nodes) != len(res.Graph.Nodes) {
		t.Fatalf("loaded %d nodes, want %d", len(g.Nodes), len(res.Graph.Nodes))
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestSaveRunReportsOpenFailure(t *testing.T) {
	s, res := smallMap(t)
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := saveRun(filepath.Join(blocker, "maps.db"), s.Seed, s, res); err == nil {
		t.Fatal("expected an error when the data dir is a file")
	}
}

func TestExportGeoJSON(t *testing.T) {
	_, res := smallMap(t)
	path := filepath.Join(t.TempDir(), "map.geojson")
	if err := exportGeoJSON(path, res.Graph); err != nil {
		t.Fatalf("exportGeoJSON: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("empty geojson file")
	}

	if err := exportGeoJSON(filepath.Join(t.TempDir(), "missing", "map.geojson"), res.Graph); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
