package feature

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// ErrInvalidExtent is returned when an extent's minimum exceeds its maximum
// or a coordinate is not finite.
var ErrInvalidExtent = errors.New("invalid extent")

// Extent is an axis-aligned rectangle. The zero value is the degenerate
// rectangle at the origin.
type Extent struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// NewExtent validates and returns an extent.
func NewExtent(minX, minY, maxX, maxY float64) (Extent, error) {
	e := Extent{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
	if err := e.Validate(); err != nil {
		return Extent{}, err
	}
	return e, nil
}

// ExtentOf converts geometry bounds to an extent. Nil bounds yield the zero
// extent.
func ExtentOf(b *geom.Bounds) Extent {
	if b == nil {
		return Extent{}
	}
	return Extent{MinX: b.Min.X, MinY: b.Min.Y, MaxX: b.Max.X, MaxY: b.Max.Y}
}

// Validate checks the min <= max invariant and that all coordinates are finite.
func (e Extent) Validate() error {
	for _, v := range []float64{e.MinX, e.MinY, e.MaxX, e.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite coordinate in %s", ErrInvalidExtent, e)
		}
	}
	if e.MinX > e.MaxX || e.MinY > e.MaxY {
		return fmt.Errorf("%w: min exceeds max in %s", ErrInvalidExtent, e)
	}
	return nil
}

// Width returns MaxX - MinX.
func (e Extent) Width() float64 { return e.MaxX - e.MinX }

// Height returns MaxY - MinY.
func (e Extent) Height() float64 { return e.MaxY - e.MinY }

// Center returns the midpoint of the rectangle.
func (e Extent) Center() geom.Point {
	return geom.Point{X: (e.MinX + e.MaxX) / 2, Y: (e.MinY + e.MaxY) / 2}
}

// Contains reports whether (x, y) lies inside the rectangle. All four edges
// are inclusive, so a point on an edge shared by two rectangles is contained
// by both.
func (e Extent) Contains(x, y float64) bool {
	return e.MinX <= x && x <= e.MaxX && e.MinY <= y && y <= e.MaxY
}

// Intersects reports whether two extents overlap or touch.
func (e Extent) Intersects(o Extent) bool {
	return e.MinX <= o.MaxX && o.MinX <= e.MaxX && e.MinY <= o.MaxY && o.MinY <= e.MaxY
}

// Union returns the smallest extent covering both.
func (e Extent) Union(o Extent) Extent {
	return Extent{
		MinX: math.Min(e.MinX, o.MinX),
		MinY: math.Min(e.MinY, o.MinY),
		MaxX: math.Max(e.MaxX, o.MaxX),
		MaxY: math.Max(e.MaxY, o.MaxY),
	}
}

// Bounds returns the extent as geometry bounds.
func (e Extent) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: e.MinX, Y: e.MinY},
		Max: geom.Point{X: e.MaxX, Y: e.MaxY},
	}
}

// Polygon returns the rectangle as a closed four-vertex ring, counter-clockwise
// from the minimum corner.
func (e Extent) Polygon() geom.Polygon {
	return geom.Polygon{{
		{X: e.MinX, Y: e.MinY},
		{X: e.MaxX, Y: e.MinY},
		{X: e.MaxX, Y: e.MaxY},
		{X: e.MinX, Y: e.MaxY},
	}}
}

// String formats the extent as "minx,miny => maxx,maxy".
func (e Extent) String() string {
	return fmt.Sprintf("%g,%g => %g,%g", e.MinX, e.MinY, e.MaxX, e.MaxY)
}
