package sink

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/gridcut/pkg/feature"
	pkgio "github.com/matzehuels/gridcut/pkg/io"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cells (
	run_id        TEXT    NOT NULL,
	cell_index    INTEGER NOT NULL,
	x             INTEGER NOT NULL,
	y             INTEGER NOT NULL,
	min_x         DOUBLE,
	min_y         DOUBLE,
	max_x         DOUBLE,
	max_y         DOUBLE,
	feature_count INTEGER NOT NULL,
	geojson       TEXT    NOT NULL,
	created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (run_id, cell_index)
);
`

// SQLiteSink stores cells in the "cells" table of a SQLite database.
// Rewriting a (run_id, cell_index) pair replaces the row.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// WriteCell implements Sink.
func (s *SQLiteSink) WriteCell(ctx context.Context, c Cell) error {
	data, err := pkgio.MarshalGeoJSON(c.Features)
	if err != nil {
		return fmt.Errorf("cell %d: %w", c.Index, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cells
			(run_id, cell_index, x, y, min_x, min_y, max_x, max_y, feature_count, geojson)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.RunID, c.Index, c.X, c.Y,
		c.Bounds.MinX, c.Bounds.MinY, c.Bounds.MaxX, c.Bounds.MaxY,
		len(c.Features), string(data))
	if err != nil {
		return fmt.Errorf("insert cell %d: %w", c.Index, err)
	}
	return nil
}

// CellRow is a stored cell as read back from the table.
type CellRow struct {
	RunID        string
	Index        int
	X, Y         int
	Bounds       feature.Extent
	FeatureCount int
	GeoJSON      string
}

// Cells returns the stored cells of runID in index order.
func (s *SQLiteSink) Cells(ctx context.Context, runID string) ([]CellRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, cell_index, x, y, min_x, min_y, max_x, max_y, feature_count, geojson
		FROM cells WHERE run_id = ? ORDER BY cell_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}
	defer rows.Close()

	var out []CellRow
	for rows.Next() {
		var r CellRow
		if err := rows.Scan(&r.RunID, &r.Index, &r.X, &r.Y,
			&r.Bounds.MinX, &r.Bounds.MinY, &r.Bounds.MaxX, &r.Bounds.MaxY,
			&r.FeatureCount, &r.GeoJSON); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
