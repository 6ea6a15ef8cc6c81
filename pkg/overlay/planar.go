package overlay

import (
	"fmt"
	"sync"

	"github.com/ctessum/geom"
)

// Planar is an Engine backed by github.com/ctessum/geom. Polygons are
// intersected with polyclip, lines are clipped segment by segment and points
// are tested for containment.
//
// Planar tracks live shapes so leaks are observable through Live. It is safe
// for concurrent use.
type Planar struct {
	mu   sync.Mutex
	live map[*planarShape]struct{}
}

type planarShape struct {
	g     geom.Geom
	owner *Planar
}

func (*planarShape) shape() {}

// NewPlanar returns a planar overlay engine.
func NewPlanar() *Planar {
	return &Planar{live: make(map[*planarShape]struct{})}
}

// Name returns "planar".
func (p *Planar) Name() string { return "planar" }

// Import wraps g as a shape. Points, lines, polygons, their multi variants
// and bounds are supported.
func (p *Planar) Import(g geom.Geom) (Shape, error) {
	if g == nil {
		return nil, ErrNilGeometry
	}
	switch t := g.(type) {
	case geom.Point, geom.MultiPoint, geom.LineString, geom.MultiLineString,
		geom.Polygon, geom.MultiPolygon:
	case *geom.Bounds:
		if t == nil {
			return nil, ErrNilGeometry
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, g)
	}
	if distinct(vertices(g)) < 0 {
		return nil, ErrInvalidGeometry
	}
	return p.track(g), nil
}

// Intersection returns the part of a inside b. The clip operand b must be
// polygonal. A panic inside the geometry library is reported as
// ErrOverlayFailed.
func (p *Planar) Intersection(a, b Shape) (out Shape, err error) {
	sa, err := p.unwrap(a)
	if err != nil {
		return nil, err
	}
	sb, err := p.unwrap(b)
	if err != nil {
		return nil, err
	}
	clip, ok := sb.g.(geom.Polygonal)
	if !ok {
		return nil, fmt.Errorf("%w: clip operand must be polygonal, got %T", ErrUnsupported, sb.g)
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrOverlayFailed, r)
		}
	}()

	var res geom.Geom
	switch g := sa.g.(type) {
	case geom.Polygonal:
		res = g.Intersection(clip)
	case geom.Linear:
		res = g.Clip(clip)
	case geom.Point:
		if pointInPolygonal(g, clip) {
			res = g
		} else {
			res = geom.MultiPoint{}
		}
	case geom.MultiPoint:
		kept := geom.MultiPoint{}
		for _, pt := range g {
			if pointInPolygonal(pt, clip) {
				kept = append(kept, pt)
			}
		}
		res = kept
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, sa.g)
	}
	return p.track(res), nil
}

// Export returns the shape's geometry and whether it is valid and non-empty.
func (p *Planar) Export(s Shape) (geom.Geom, bool) {
	ps, err := p.unwrap(s)
	if err != nil {
		return nil, false
	}
	if !Valid(ps.g) {
		return nil, false
	}
	return ps.g, true
}

// Release frees s. Unknown or already released shapes are ignored.
func (p *Planar) Release(s Shape) {
	ps, ok := s.(*planarShape)
	if !ok || ps == nil || ps.owner != p {
		return
	}
	p.mu.Lock()
	delete(p.live, ps)
	p.mu.Unlock()
}

// Live returns the number of shapes imported or produced but not yet
// released.
func (p *Planar) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

func (p *Planar) track(g geom.Geom) *planarShape {
	s := &planarShape{g: g, owner: p}
	p.mu.Lock()
	p.live[s] = struct{}{}
	p.mu.Unlock()
	return s
}

func (p *Planar) unwrap(s Shape) (*planarShape, error) {
	ps, ok := s.(*planarShape)
	if !ok || ps == nil || ps.owner != p {
		return nil, ErrForeignShape
	}
	p.mu.Lock()
	_, live := p.live[ps]
	p.mu.Unlock()
	if !live {
		return nil, ErrReleased
	}
	return ps, nil
}

// pointInPolygonal reports whether pt lies inside or on the boundary of any
// polygon of clip, using even-odd ray casting over all rings.
func pointInPolygonal(pt geom.Point, clip geom.Polygonal) bool {
	for _, poly := range clip.Polygons() {
		inside := false
		for _, ring := range poly {
			n := len(ring)
			for i, j := 0, n-1; i < n; j, i = i, i+1 {
				a, b := ring[i], ring[j]
				if onSegment(pt, a, b) {
					return true
				}
				if (a.Y > pt.Y) != (b.Y > pt.Y) &&
					pt.X < (b.X-a.X)*(pt.Y-a.Y)/(b.Y-a.Y)+a.X {
					inside = !inside
				}
			}
		}
		if inside {
			return true
		}
	}
	return false
}

func onSegment(p, a, b geom.Point) bool {
	cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
	if cross != 0 {
		return false
	}
	return min(a.X, b.X) <= p.X && p.X <= max(a.X, b.X) &&
		min(a.Y, b.Y) <= p.Y && p.Y <= max(a.Y, b.Y)
}

// vertices flattens every coordinate of g.
func vertices(g geom.Geom) []geom.Point {
	switch t := g.(type) {
	case geom.Point:
		return []geom.Point{t}
	case geom.MultiPoint:
		return []geom.Point(t)
	case geom.LineString:
		return []geom.Point(t)
	case geom.MultiLineString:
		var out []geom.Point
		for _, l := range t {
			out = append(out, l...)
		}
		return out
	case geom.Polygon:
		var out []geom.Point
		for _, r := range t {
			out = append(out, r...)
		}
		return out
	case geom.MultiPolygon:
		var out []geom.Point
		for _, p := range t {
			out = append(out, vertices(p)...)
		}
		return out
	case *geom.Bounds:
		return []geom.Point{t.Min, t.Max}
	}
	return nil
}
