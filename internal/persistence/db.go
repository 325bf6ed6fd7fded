// Package persistence provides SQLite-based storage of generated maps.
// Each generation run is stored under its own id with the full graph.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/mapgen/internal/graph"
	"github.com/talgya/mapgen/internal/hydrology"
)

// ErrRunNotFound is returned when a run id is not in the database.
var ErrRunNotFound = errors.New("run not found")

// DB wraps a SQLite connection for map storage.
type DB struct {
	conn *sqlx.DB
}

// Run describes one stored generation run.
type Run struct {
	ID        string  `db:"id"`
	Seed      int64   `db:"seed"`
	Width     float64 `db:"width"`
	Depth     float64 `db:"depth"`
	Settings  string  `db:"settings_json"` // JSON of the settings used
	CreatedAt int64   `db:"created_at"`    // Unix nanoseconds
}

// Created returns the creation time of the run.
func (r Run) Created() time.Time {
	return time.Unix(0, r.CreatedAt).UTC()
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		width REAL NOT NULL,
		depth REAL NOT NULL,
		settings_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS corners (
		run_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		z REAL NOT NULL,
		PRIMARY KEY (run_id, id)
	);

	CREATE TABLE IF NOT EXISTS nodes (
		run_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		site_x REAL NOT NULL,
		site_z REAL NOT NULL,
		center_y REAL NOT NULL,
		type INTEGER NOT NULL,
		humidity REAL NOT NULL,
		heat REAL NOT NULL,
		precipitation REAL NOT NULL,
		extra_rainfall REAL NOT NULL,
		ocean_cell INTEGER NOT NULL,
		is_city INTEGER NOT NULL,
		population INTEGER NOT NULL,
		first_edge INTEGER NOT NULL,
		boundary INTEGER NOT NULL,
		PRIMARY KEY (run_id, id)
	);

	CREATE TABLE IF NOT EXISTS half_edges (
		run_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		origin INTEGER NOT NULL,
		destination INTEGER NOT NULL,
		opposite INTEGER NOT NULL,
		next INTEGER NOT NULL,
		previous INTEGER NOT NULL,
		node INTEGER NOT NULL,
		water INTEGER NOT NULL,
		PRIMARY KEY (run_id, id)
	);

	CREATE TABLE IF NOT EXISTS warnings (
		run_id TEXT NOT NULL,
		node INTEGER NOT NULL,
		reason TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_warnings_run ON warnings(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun stores the graph and its warnings under a new run id.
// settings is stored as JSON alongside the run.
func (db *DB) SaveRun(seed int64, settings any, g *graph.Graph, warnings []hydrology.Warning) (string, error) {
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return "", fmt.Errorf("marshal settings: %w", err)
	}
	id := uuid.NewString()

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO runs (id, seed, width, depth, settings_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, seed, g.Width, g.Depth, string(settingsJSON), time.Now().UnixNano(),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	if err := saveCorners(tx, id, g); err != nil {
		return "", err
	}
	if err := saveNodes(tx, id, g); err != nil {
		return "", err
	}
	if err := saveEdges(tx, id, g); err != nil {
		return "", err
	}
	for _, w := range warnings {
		if _, err := tx.Exec("INSERT INTO warnings (run_id, node, reason) VALUES (?, ?, ?)",
			id, int(w.Node), w.Reason); err != nil {
			return "", fmt.Errorf("insert warning: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	slog.Info("map saved", "run", id, "nodes", len(g.Nodes), "edges", len(g.Edges))
	return id, nil
}

func saveCorners(tx *sqlx.Tx, runID string, g *graph.Graph) error {
	stmt, err := tx.Preparex("INSERT INTO corners (run_id, id, x, y, z) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range g.Corners {
		p := c.Position
		if _, err := stmt.Exec(runID, i, p.X(), p.Y(), p.Z()); err != nil {
			return fmt.Errorf("insert corner %d: %w", i, err)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func saveNodes(tx *sqlx.Tx, runID string, g *graph.Graph) error {
	stmt, err := tx.Preparex(`INSERT INTO nodes
		(run_id, id, site_x, site_z, center_y, type, humidity, heat, precipitation,
		 extra_rainfall, ocean_cell, is_city, population, first_edge, boundary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, n := range g.Nodes {
		_, err := stmt.Exec(
			runID, i, n.Site.X(), n.Site.Y(), n.Center.Y(), int(n.Type),
			n.Humidity, n.Heat, n.Precipitation, n.ExtraRainfall,
			boolInt(n.OceanCell), boolInt(n.IsCity), n.Population,
			int(n.Edge), boolInt(n.Boundary),
		)
		if err != nil {
			return fmt.Errorf("insert node %d: %w", i, err)
		}
	}
	return nil
}

func saveEdges(tx *sqlx.Tx, runID string, g *graph.Graph) error {
	stmt, err := tx.Preparex(`INSERT INTO half_edges
		(run_id, id, origin, destination, opposite, next, previous, node, water)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range g.Edges {
		_, err := stmt.Exec(runID, i, int(e.Origin), int(e.Destination), int(e.Opposite),
			int(e.Next), int(e.Previous), int(e.Node), e.Water)
		if err != nil {
			return fmt.Errorf("insert half-edge %d: %w", i, err)
		}
	}
	return nil
}

// ListRuns returns the stored runs, newest first.
func (db *DB) ListRuns() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs,
		"SELECT id, seed, width, depth, settings_json, created_at FROM runs ORDER BY created_at DESC")
	return runs, err
}

type cornerRow struct {
	ID int     `db:"id"`
	X  float64 `db:"x"`
	Y  float64 `db:"y"`
	Z  float64 `db:"z"`
}

type nodeRow struct {
	ID            int     `db:"id"`
	SiteX         float64 `db:"site_x"`
	SiteZ         float64 `db:"site_z"`
	CenterY       float64 `db:"center_y"`
	Type          int     `db:"type"`
	Humidity      float64 `db:"humidity"`
	Heat          float64 `db:"heat"`
	Precipitation float64 `db:"precipitation"`
	ExtraRainfall float64 `db:"extra_rainfall"`
	OceanCell     bool    `db:"ocean_cell"`
	IsCity        bool    `db:"is_city"`
	Population    int     `db:"population"`
	FirstEdge     int     `db:"first_edge"`
	Boundary      bool    `db:"boundary"`
}

type edgeRow struct {
	ID          int `db:"id"`
	Origin      int `db:"origin"`
	Destination int `db:"destination"`
	Opposite    int `db:"opposite"`
	Next        int `db:"next"`
	Previous    int `db:"previous"`
	Node        int `db:"node"`
	Water       int `db:"water"`
}

// LoadGraph rebuilds the graph stored under runID.
func (db *DB) LoadGraph(runID string) (*graph.Graph, error) {
	var run Run
	err := db.conn.Get(&run,
		"SELECT id, seed, width, depth, settings_json, created_at FROM runs WHERE id = ?", runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	var corners []cornerRow
	if err := db.conn.Select(&corners, "SELECT id, x, y, z FROM corners WHERE run_id = ? ORDER BY id", runID); err != nil {
		return nil, fmt.Errorf("load corners: %w", err)
	}
	var nodes []nodeRow
	if err := db.conn.Select(&nodes, `SELECT id, site_x, site_z, center_y, type, humidity, heat,
		precipitation, extra_rainfall, ocean_cell, is_city, population, first_edge, boundary
		FROM nodes WHERE run_id = ? ORDER BY id`, runID); err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	var edges []edgeRow
	if err := db.conn.Select(&edges, `SELECT id, origin, destination, opposite, next, previous, node, water
		FROM half_edges WHERE run_id = ? ORDER BY id`, runID); err != nil {
		return nil, fmt.Errorf("load half-edges: %w", err)
	}

	if err := checkRefs(corners, nodes, edges); err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	g := &graph.Graph{
		Width:   run.Width,
		Depth:   run.Depth,
		Corners: make([]graph.Corner, len(corners)),
		Nodes:   make([]graph.Node, len(nodes)),
		Edges:   make([]graph.HalfEdge, len(edges)),
	}
	for i, c := range corners {
		g.Corners[i].Position = mgl64.Vec3{c.X, c.Y, c.Z}
	}
	for i, n := range nodes {
		g.Nodes[i] = graph.Node{
			Site:          mgl64.Vec2{n.SiteX, n.SiteZ},
			Center:        mgl64.Vec3{n.SiteX, n.CenterY, n.SiteZ},
			Type:          graph.NodeType(n.Type),
			Humidity:      n.Humidity,
			Heat:          n.Heat,
			Precipitation: n.Precipitation,
			ExtraRainfall: n.ExtraRainfall,
			OceanCell:     n.OceanCell,
			IsCity:        n.IsCity,
			Population:    n.Population,
			Edge:          graph.EdgeID(n.FirstEdge),
			Boundary:      n.Boundary,
		}
	}
	for i, e := range edges {
		g.Edges[i] = graph.HalfEdge{
			Origin:      graph.CornerID(e.Origin),
			Destination: graph.CornerID(e.Destination),
			Opposite:    graph.EdgeID(e.Opposite),
			Next:        graph.EdgeID(e.Next),
			Previous:    graph.EdgeID(e.Previous),
			Node:        graph.NodeID(e.Node),
			Water:       e.Water,
		}
		origin := g.Edges[i].Origin
		g.Corners[origin].Edges = append(g.Corners[origin].Edges, graph.EdgeID(i))
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	return g, nil
}

// checkRefs rejects stored rows whose ids are not dense or whose
// references fall outside the loaded graph.
func checkRefs(corners []cornerRow, nodes []nodeRow, edges []edgeRow) error {
	edgeRef := func(e int) bool { return e == int(graph.NoEdge) || (e >= 0 && e < len(edges)) }
	cornerRef := func(c int) bool { return c >= 0 && c < len(corners) }

	for i, c := range corners {
		if c.ID != i {
			return fmt.Errorf("corner row %d has id %d: %w", i, c.ID, graph.ErrInconsistent)
		}
	}

	for i, n := range nodes {
		if n.ID != i {
			return fmt.Errorf("node row %d has id %d: %w", i, n.ID, graph.ErrInconsistent)
		}
		if !edgeRef(n.FirstEdge) {
			return fmt.Errorf("node %d: edge %d out of range: %w", i, n.FirstEdge, graph.ErrInconsistent)
		}
	}
	for i, e := range edges {
		if e.ID != i {
			return fmt.Errorf("half-edge row %d has id %d: %w", i, e.ID, graph.ErrInconsistent)
		}
		if !cornerRef(e.Origin) || !cornerRef(e.Destination) {
			return fmt.Errorf("half-edge %d: corner %d-%d out of range: %w", i, e.Origin, e.Destination, graph.ErrInconsistent)
		}
		if !edgeRef(e.Opposite) || !edgeRef(e.Next) || !edgeRef(e.Previous) {
			return fmt.Errorf("half-edge %d: edge reference out of range: %w", i, graph.ErrInconsistent)
		}
		if e.Node < 0 || e.Node >= len(nodes) {
			return fmt.Errorf("half-edge %d: node %d out of range: %w", i, e.Node, graph.ErrInconsistent)
		}
	}
	return nil
}

// Warnings returns the river warnings recorded for runID.
func (db *DB) Warnings(runID string) ([]hydrology.Warning, error) {
	var rows []struct {
		Node   int    `db:"node"`
		Reason string `db:"reason"`
	}
	if err := db.conn.Select(&rows, "SELECT node, reason FROM warnings WHERE run_id = ?", runID); err != nil {
		return nil, err
	}
	out := make([]hydrology.Warning, len(rows))
	for i, r := range rows {
		out[i] = hydrology.Warning{Node: graph.NodeID(r.Node), Reason: r.Reason}
	}
	return out, nil
}
