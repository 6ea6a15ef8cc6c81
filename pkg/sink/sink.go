// Package sink receives culled cells and stores them somewhere.
//
// A pipeline run calls [Sink.WriteCell] once per cell in index order and
// [Sink.Close] once at the end. Implementations:
//
//   - [DirSink]: one GeoJSON file per cell in a directory
//   - [SQLiteSink]: rows in a SQLite "cells" table
//   - [MongoSink]: one upserted document per cell in MongoDB
//   - [PlotSink]: a PNG/SVG preview of cell outlines and features
//   - [MemorySink]: keeps cells in memory for tests and the HTTP server
//
// [Multi] fans one stream of cells out to several sinks.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/gridcut/pkg/feature"
)

// Cell is one culled grid cell.
type Cell struct {
	RunID    string
	Index    int
	X, Y     int
	Bounds   feature.Extent
	Features feature.Collection
}

// Sink consumes culled cells.
type Sink interface {
	WriteCell(ctx context.Context, c Cell) error
	Close() error
}

type multi struct {
	sinks []Sink
}

// Multi returns a sink that writes every cell to each of sinks in order. A
// write stops at the first failing sink. Close closes all of them and joins
// their errors.
func Multi(sinks ...Sink) Sink {
	return &multi{sinks: sinks}
}

func (m *multi) WriteCell(ctx context.Context, c Cell) error {
	for _, s := range m.sinks {
		if err := s.WriteCell(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (m *multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard is a sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) WriteCell(context.Context, Cell) error { return nil }
func (discard) Close() error                          { return nil }

// FileName returns the per-cell file name "cell_<x>_<y>.geojson".
func FileName(c Cell) string {
	return fmt.Sprintf("cell_%d_%d.geojson", c.X, c.Y)
}
