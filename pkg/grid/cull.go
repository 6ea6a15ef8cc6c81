package grid

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/ctessum/geom"

	"github.com/matzehuels/gridcut/pkg/feature"
	"github.com/matzehuels/gridcut/pkg/overlay"
)

// CullResult reports the outcome of culling one cell.
type CullResult struct {
	// Index is the requested cell index.
	Index int
	// Found is false when Index is outside the grid. Features is then a copy
	// of the input.
	Found bool
	// Bounds is the cell rectangle. Zero when not found.
	Bounds feature.Extent
	// In and Out count features before and after culling.
	In, Out int
	// Failed counts features dropped because the overlay engine failed on
	// them. Always zero for centroid culling.
	Failed int
	// Features is the culled collection. It never aliases the input slice.
	Features feature.Collection
}

// CullToCell returns the features of fs that belong to cell i. Kept features
// are clones; cropped features carry their clipped geometry. fs is not
// modified. An out-of-range index returns a copy of fs; use Cull to tell that
// case apart.
func (g *Gridder) CullToCell(i int, fs feature.Collection) feature.Collection {
	return g.Cull(i, fs).Features
}

// Cull is CullToCell with counts and the not-found signal.
func (g *Gridder) Cull(i int, fs feature.Collection) CullResult {
	res := CullResult{Index: i, In: len(fs)}

	b, ok := g.CellBounds(i)
	if !ok {
		res.Features = fs.Clone()
		res.Out = len(res.Features)
		g.logger.Debug("cell index out of range, nothing culled", "cell", i, "cells", g.CellCount())
		return res
	}
	res.Found = true
	res.Bounds = b

	res.Features, res.Failed = g.culler.cull(i, b, fs)
	res.Out = len(res.Features)

	g.logger.Debug("culled cell",
		"cell", i,
		"bounds", b,
		"in", res.In,
		"out", res.Out)
	return res
}

type culler interface {
	cull(index int, bounds feature.Extent, fs feature.Collection) (feature.Collection, int)
}

// centroidCuller keeps whole features whose bounding-box center lies in the
// cell, edges included.
type centroidCuller struct{}

func (centroidCuller) cull(_ int, b feature.Extent, fs feature.Collection) (feature.Collection, int) {
	out := make(feature.Collection, 0, len(fs))
	for _, f := range fs {
		c, ok := f.Centroid()
		if !ok || !b.Contains(c.X, c.Y) {
			continue
		}
		out = append(out, f.Clone())
	}
	return out, 0
}

// cropCuller clips each feature to the cell rectangle.
type cropCuller struct {
	engine overlay.Engine
	logger *log.Logger
}

func (c cropCuller) cull(index int, b feature.Extent, fs feature.Collection) (feature.Collection, int) {
	var shapes []overlay.Shape
	defer func() {
		for _, s := range shapes {
			c.engine.Release(s)
		}
	}()
	own := func(s overlay.Shape) {
		if s != nil {
			shapes = append(shapes, s)
		}
	}

	out := make(feature.Collection, 0, len(fs))
	failed := 0

	rect, err := c.engine.Import(b.Polygon())
	if err != nil {
		c.logger.Info("cannot import cell rectangle, cell left empty", "cell", index, "bounds", b, "err", err)
		for _, f := range fs {
			if f.Geometry != nil {
				failed++
			}
		}
		return out, failed
	}
	own(rect)

	for _, f := range fs {
		if f.Geometry == nil {
			continue
		}
		g, ok, err := c.clip(f.Geometry, rect, own)
		if err != nil {
			failed++
			c.logger.Info("overlay failed, feature skipped", "cell", index, "feature", f.ID, "err", err)
			continue
		}
		if !ok {
			continue
		}
		out = append(out, f.WithGeometry(g))
	}
	return out, failed
}

// clip intersects g with rect. Shapes it creates are handed to own for
// release. A panic inside the engine is returned as an error.
func (c cropCuller) clip(g geom.Geom, rect overlay.Shape, own func(overlay.Shape)) (res geom.Geom, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, ok = nil, false
			err = fmt.Errorf("%w: %v", overlay.ErrOverlayFailed, r)
		}
	}()

	s, err := c.engine.Import(g)
	if err != nil {
		return nil, false, err
	}
	own(s)

	inter, err := c.engine.Intersection(s, rect)
	if err != nil {
		return nil, false, err
	}
	own(inter)

	res, ok = c.engine.Export(inter)
	return res, ok, nil
}
