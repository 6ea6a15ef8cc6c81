package overlay

import (
	"math"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}}
}

func intersect(t *testing.T, e *Planar, g geom.Geom, clip geom.Geom) (geom.Geom, bool) {
	t.Helper()
	a, err := e.Import(g)
	require.NoError(t, err)
	defer e.Release(a)
	b, err := e.Import(clip)
	require.NoError(t, err)
	defer e.Release(b)

	out, err := e.Intersection(a, b)
	require.NoError(t, err)
	defer e.Release(out)
	return e.Export(out)
}

func TestPlanarPolygonIntersection(t *testing.T) {
	e := NewPlanar()
	g, ok := intersect(t, e, square(0, 0, 10, 10), square(5, 5, 15, 15))
	require.True(t, ok)

	poly, isPoly := g.(geom.Polygonal)
	require.True(t, isPoly, "result should be polygonal, got %T", g)
	assert.InDelta(t, 25.0, poly.Area(), 1e-9)
	assert.Equal(t, 0, e.Live(), "all shapes should be released")
}

func TestPlanarDisjointIsEmpty(t *testing.T) {
	e := NewPlanar()
	_, ok := intersect(t, e, square(0, 0, 1, 1), square(5, 5, 6, 6))
	assert.False(t, ok, "disjoint intersection should not export")
	assert.Equal(t, 0, e.Live())
}

func TestPlanarLineClip(t *testing.T) {
	e := NewPlanar()
	line := geom.LineString{{X: -5, Y: 2}, {X: 15, Y: 2}}
	g, ok := intersect(t, e, line, square(0, 0, 10, 10))
	require.True(t, ok)

	lin, isLin := g.(geom.Linear)
	require.True(t, isLin, "result should be linear, got %T", g)
	assert.InDelta(t, 10.0, lin.Length(), 1e-9)
}

func TestPlanarPoints(t *testing.T) {
	e := NewPlanar()
	clip := square(0, 0, 10, 10)

	g, ok := intersect(t, e, geom.Point{X: 3, Y: 3}, clip)
	require.True(t, ok)
	assert.Equal(t, geom.Point{X: 3, Y: 3}, g)

	_, ok = intersect(t, e, geom.Point{X: 30, Y: 3}, clip)
	assert.False(t, ok)

	g, ok = intersect(t, e, geom.Point{X: 10, Y: 5}, clip)
	require.True(t, ok, "points on the boundary are inside")
	assert.Equal(t, geom.Point{X: 10, Y: 5}, g)

	g, ok = intersect(t, e, geom.MultiPoint{{X: 1, Y: 1}, {X: 20, Y: 20}, {X: 9, Y: 9}}, clip)
	require.True(t, ok)
	assert.Equal(t, geom.MultiPoint{{X: 1, Y: 1}, {X: 9, Y: 9}}, g)
}

func TestPlanarClipWithBounds(t *testing.T) {
	e := NewPlanar()
	clip := &geom.Bounds{Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 4, Y: 4}}
	g, ok := intersect(t, e, square(2, 2, 6, 6), clip)
	require.True(t, ok)
	assert.InDelta(t, 4.0, g.(geom.Polygonal).Area(), 1e-9)
}

func TestPlanarImportErrors(t *testing.T) {
	e := NewPlanar()

	_, err := e.Import(nil)
	assert.ErrorIs(t, err, ErrNilGeometry)

	_, err = e.Import(geom.Point{X: math.NaN(), Y: 0})
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	assert.Equal(t, 0, e.Live())
}

func TestPlanarNonPolygonalClip(t *testing.T) {
	e := NewPlanar()
	a, err := e.Import(square(0, 0, 1, 1))
	require.NoError(t, err)
	b, err := e.Import(geom.Point{X: 0, Y: 0})
	require.NoError(t, err)

	_, err = e.Intersection(a, b)
	assert.ErrorIs(t, err, ErrUnsupported)

	e.Release(a)
	e.Release(b)
	assert.Equal(t, 0, e.Live())
}

func TestPlanarReleasedAndForeignShapes(t *testing.T) {
	e := NewPlanar()
	other := NewPlanar()

	a, err := e.Import(square(0, 0, 1, 1))
	require.NoError(t, err)
	b, err := other.Import(square(0, 0, 1, 1))
	require.NoError(t, err)

	_, err = e.Intersection(a, b)
	assert.ErrorIs(t, err, ErrForeignShape)

	e.Release(a)
	e.Release(a) // no-op
	_, err = e.Intersection(a, a)
	assert.ErrorIs(t, err, ErrReleased)

	_, ok := e.Export(a)
	assert.False(t, ok, "released shapes do not export")

	other.Release(b)
	assert.Equal(t, 0, e.Live())
	assert.Equal(t, 0, other.Live())
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		g    geom.Geom
		want bool
	}{
		{"nil", nil, false},
		{"point", geom.Point{X: 1, Y: 1}, true},
		{"nan point", geom.Point{X: math.NaN(), Y: 1}, false},
		{"empty multipoint", geom.MultiPoint{}, false},
		{"line", geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 0}}, true},
		{"degenerate line", geom.LineString{{X: 0, Y: 0}, {X: 0, Y: 0}}, false},
		{"empty multiline", geom.MultiLineString{}, false},
		{"square", square(0, 0, 1, 1), true},
		{"empty polygon", geom.Polygon(nil), false},
		{"sliver", geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}}, false},
		{"bounds", &geom.Bounds{Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 1, Y: 1}}, true},
		{"flat bounds", &geom.Bounds{Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 1, Y: 0}}, false},
		{"multipolygon", geom.MultiPolygon{square(0, 0, 1, 1), square(2, 2, 3, 3)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.g))
		})
	}
}
