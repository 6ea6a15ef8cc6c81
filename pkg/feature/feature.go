package feature

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
)

// Feature is a single vector feature.
type Feature struct {
	ID         string
	Properties map[string]any
	Geometry   geom.Geom
}

// New returns a feature with an empty property map.
func New(id string, g geom.Geom) *Feature {
	return &Feature{ID: id, Properties: map[string]any{}, Geometry: g}
}

// Clone returns a copy of f with its own property map. The geometry value is
// shared.
func (f *Feature) Clone() *Feature {
	props := make(map[string]any, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = v
	}
	return &Feature{ID: f.ID, Properties: props, Geometry: f.Geometry}
}

// WithGeometry returns a clone of f carrying g.
func (f *Feature) WithGeometry(g geom.Geom) *Feature {
	c := f.Clone()
	c.Geometry = g
	return c
}

// Extent returns the bounding box of the feature's geometry. It reports false
// when the feature has no geometry.
func (f *Feature) Extent() (Extent, bool) {
	if f == nil || f.Geometry == nil {
		return Extent{}, false
	}
	b := f.Geometry.Bounds()
	if b == nil {
		return Extent{}, false
	}
	return ExtentOf(b), true
}

// Centroid returns the center of the geometry's bounding box. This is the
// cheap centroid used for cell assignment, not the area-weighted centroid.
func (f *Feature) Centroid() (geom.Point, bool) {
	e, ok := f.Extent()
	if !ok {
		return geom.Point{}, false
	}
	return e.Center(), true
}

// Collection is an ordered list of features.
type Collection []*Feature

// Clone returns a collection of cloned features.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for i, f := range c {
		out[i] = f.Clone()
	}
	return out
}

// Extent returns the union of all feature bounding boxes. It reports false
// when no feature has a geometry.
func (c Collection) Extent() (Extent, bool) {
	var out Extent
	found := false
	for _, f := range c {
		e, ok := f.Extent()
		if !ok {
			continue
		}
		if !found {
			out, found = e, true
			continue
		}
		out = out.Union(e)
	}
	return out, found
}

// ParseExtent parses "minx,miny,maxx,maxy".
func ParseExtent(s string) (Extent, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Extent{}, fmt.Errorf("%w: want minx,miny,maxx,maxy, got %q", ErrInvalidExtent, s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Extent{}, fmt.Errorf("%w: %q: %v", ErrInvalidExtent, p, err)
		}
		v[i] = f
	}
	return NewExtent(v[0], v[1], v[2], v[3])
}
