package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	pkgio "github.com/matzehuels/gridcut/pkg/io"
)

// DirSink writes each non-empty cell to dir/cell_<x>_<y>.geojson.
type DirSink struct {
	dir        string
	writeEmpty bool
	written    []string
}

// NewDirSink creates dir if needed. With writeEmpty, cells without features
// are written as empty collections instead of being skipped.
func NewDirSink(dir string, writeEmpty bool) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &DirSink{dir: dir, writeEmpty: writeEmpty}, nil
}

// WriteCell implements Sink.
func (s *DirSink) WriteCell(ctx context.Context, c Cell) error {
	if len(c.Features) == 0 && !s.writeEmpty {
		return nil
	}
	path := filepath.Join(s.dir, FileName(c))
	if err := pkgio.ExportGeoJSON(path, c.Features); err != nil {
		return fmt.Errorf("cell %d: %w", c.Index, err)
	}
	s.written = append(s.written, path)
	return nil
}

// Files returns the paths written so far.
func (s *DirSink) Files() []string {
	return append([]string(nil), s.written...)
}

// Close implements Sink.
func (s *DirSink) Close() error { return nil }
