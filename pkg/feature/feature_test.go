package feature

import (
	"errors"
	"math"
	"testing"

	"github.com/ctessum/geom"
)

func TestNewExtent(t *testing.T) {
	tests := []struct {
		name    string
		e       [4]float64
		wantErr bool
	}{
		{"valid", [4]float64{0, 0, 10, 5}, false},
		{"degenerate", [4]float64{1, 1, 1, 1}, false},
		{"swapped x", [4]float64{10, 0, 0, 5}, true},
		{"swapped y", [4]float64{0, 5, 10, 0}, true},
		{"nan", [4]float64{math.NaN(), 0, 1, 1}, true},
		{"inf", [4]float64{0, 0, math.Inf(1), 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtent(tt.e[0], tt.e[1], tt.e[2], tt.e[3])
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewExtent error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidExtent) {
				t.Errorf("error should wrap ErrInvalidExtent: %v", err)
			}
		})
	}
}

func TestExtentContainsInclusive(t *testing.T) {
	e := Extent{0, 0, 5, 5}
	for _, p := range [][2]float64{{0, 0}, {5, 5}, {5, 0}, {2.5, 5}, {1, 1}} {
		if !e.Contains(p[0], p[1]) {
			t.Errorf("Contains(%v) = false, want true", p)
		}
	}
	for _, p := range [][2]float64{{-0.001, 1}, {5.001, 1}, {1, 6}} {
		if e.Contains(p[0], p[1]) {
			t.Errorf("Contains(%v) = true, want false", p)
		}
	}
}

func TestExtentPolygon(t *testing.T) {
	e := Extent{1, 2, 3, 4}
	p := e.Polygon()
	if len(p) != 1 || len(p[0]) != 4 {
		t.Fatalf("Polygon() = %v, want one ring of 4 vertices", p)
	}
	if got := ExtentOf(p.Bounds()); got != e {
		t.Errorf("polygon bounds = %v, want %v", got, e)
	}
}

func TestFeatureCentroid(t *testing.T) {
	f := New("a", geom.Polygon{{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 2}, {X: 0, Y: 2}}})
	c, ok := f.Centroid()
	if !ok || c.X != 2 || c.Y != 1 {
		t.Errorf("Centroid() = %v, %v; want (2,1)", c, ok)
	}

	empty := New("b", nil)
	if _, ok := empty.Centroid(); ok {
		t.Error("feature without geometry should have no centroid")
	}
}

func TestFeatureCloneIsolatesProperties(t *testing.T) {
	f := New("a", geom.Point{X: 1, Y: 1})
	f.Properties["name"] = "orig"

	c := f.WithGeometry(geom.Point{X: 2, Y: 2})
	c.Properties["name"] = "changed"

	if f.Properties["name"] != "orig" {
		t.Error("clone should not share the property map")
	}
	if p, _ := f.Geometry.(geom.Point); p.X != 1 {
		t.Error("WithGeometry should not touch the original geometry")
	}
}

func TestCollectionExtent(t *testing.T) {
	c := Collection{
		New("a", geom.Point{X: -1, Y: 2}),
		New("b", nil),
		New("c", geom.LineString{{X: 3, Y: -4}, {X: 5, Y: 0}}),
	}
	e, ok := c.Extent()
	if !ok {
		t.Fatal("Extent() reported no geometry")
	}
	want := Extent{-1, -4, 5, 2}
	if e != want {
		t.Errorf("Extent() = %v, want %v", e, want)
	}

	if _, ok := (Collection{New("x", nil)}).Extent(); ok {
		t.Error("collection without geometries should report false")
	}
}

func TestParseExtent(t *testing.T) {
	e, err := ParseExtent("0, 0, 10,20.5")
	if err != nil {
		t.Fatalf("ParseExtent: %v", err)
	}
	if e != (Extent{0, 0, 10, 20.5}) {
		t.Errorf("ParseExtent = %v", e)
	}
	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "10,0,0,10"} {
		if _, err := ParseExtent(bad); err == nil {
			t.Errorf("ParseExtent(%q) should fail", bad)
		}
	}
}
