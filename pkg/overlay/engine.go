package overlay

import (
	"errors"
	"math"

	"github.com/ctessum/geom"
)

// Sentinel errors returned by engines.
var (
	// ErrNilGeometry is returned when importing a nil geometry.
	ErrNilGeometry = errors.New("overlay: nil geometry")

	// ErrUnsupported is returned for geometry types or operand combinations
	// the engine cannot handle.
	ErrUnsupported = errors.New("overlay: unsupported geometry")

	// ErrInvalidGeometry is returned when an input geometry has non-finite
	// coordinates.
	ErrInvalidGeometry = errors.New("overlay: invalid geometry")

	// ErrOverlayFailed is returned when the overlay operation itself fails.
	ErrOverlayFailed = errors.New("overlay: operation failed")

	// ErrReleased is returned when a shape is used after Release.
	ErrReleased = errors.New("overlay: shape already released")

	// ErrForeignShape is returned when a shape was created by another engine.
	ErrForeignShape = errors.New("overlay: shape belongs to another engine")
)

// Shape is an engine-owned geometry handle. Shapes are only meaningful to the
// engine that created them.
type Shape interface {
	shape()
}

// Engine is a geometry overlay capability.
//
// Every Shape returned by Import or Intersection must be passed to Release
// exactly once. Export never consumes its argument.
type Engine interface {
	// Name identifies the engine in logs.
	Name() string

	// Import converts a native geometry into an engine shape.
	Import(g geom.Geom) (Shape, error)

	// Intersection returns the part of a that lies within b.
	Intersection(a, b Shape) (Shape, error)

	// Export converts a shape back to a native geometry. The boolean is false
	// when the result is empty or not a valid geometry.
	Export(s Shape) (geom.Geom, bool)

	// Release frees a shape. Releasing a shape twice is a no-op.
	Release(s Shape)
}

// Available reports whether this build has an overlay engine.
func Available() bool {
	return Default() != nil
}

// Valid reports whether g is a non-empty geometry with finite coordinates,
// polygon rings of at least three distinct vertices and non-zero area, and
// lines of at least two distinct vertices.
func Valid(g geom.Geom) bool {
	switch t := g.(type) {
	case nil:
		return false
	case geom.Point:
		return finite(t)
	case geom.MultiPoint:
		if len(t) == 0 {
			return false
		}
		for _, p := range t {
			if !finite(p) {
				return false
			}
		}
		return true
	case geom.LineString:
		return validLine(t)
	case geom.MultiLineString:
		if len(t) == 0 {
			return false
		}
		for _, l := range t {
			if !validLine(l) {
				return false
			}
		}
		return true
	case geom.Polygon:
		return validPolygon(t)
	case geom.MultiPolygon:
		if len(t) == 0 {
			return false
		}
		for _, p := range t {
			if !validPolygon(p) {
				return false
			}
		}
		return true
	case *geom.Bounds:
		if t == nil || !finite(t.Min) || !finite(t.Max) {
			return false
		}
		return t.Max.X > t.Min.X && t.Max.Y > t.Min.Y
	}
	return false
}

func validLine(l geom.LineString) bool {
	return distinct([]geom.Point(l)) >= 2
}

func validPolygon(p geom.Polygon) bool {
	if len(p) == 0 {
		return false
	}
	for _, ring := range p {
		if distinct([]geom.Point(ring)) < 3 {
			return false
		}
	}
	return math.Abs(p.Area()) > 0
}

// distinct counts distinct finite vertices. It returns -1 when any vertex is
// not finite.
func distinct(pts []geom.Point) int {
	seen := make(map[geom.Point]struct{}, len(pts))
	for _, p := range pts {
		if !finite(p) {
			return -1
		}
		seen[p] = struct{}{}
	}
	return len(seen)
}

func finite(p geom.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
