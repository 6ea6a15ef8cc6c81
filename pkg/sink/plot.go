package sink

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"github.com/ctessum/geom"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/matzehuels/gridcut/pkg/feature"
)

// PlotSink draws cell outlines and the culled features of every cell, and
// saves the figure on Close. The image format follows the file extension
// (.png, .svg, .pdf).
type PlotSink struct {
	mu     sync.Mutex
	path   string
	title  string
	width  vg.Length
	height vg.Length
	cells  []Cell
}

// NewPlotSink returns a sink that will write a plot to path.
func NewPlotSink(path, title string) *PlotSink {
	return &PlotSink{
		path:   path,
		title:  title,
		width:  8 * vg.Inch,
		height: 8 * vg.Inch,
	}
}

// WriteCell implements Sink.
func (s *PlotSink) WriteCell(ctx context.Context, c Cell) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells = append(s.cells, c)
	return nil
}

// Close renders and saves the plot. A sink that received no cells writes
// nothing.
func (s *PlotSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cells) == 0 {
		return nil
	}

	p, err := s.render()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := p.Save(s.width, s.height, s.path); err != nil {
		return fmt.Errorf("save plot %s: %w", s.path, err)
	}
	return nil
}

func (s *PlotSink) render() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = s.title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	outline := color.RGBA{R: 150, G: 150, B: 150, A: 255}
	colors := palette(len(s.cells))

	for i, c := range s.cells {
		ring := extentRing(c.Bounds)
		line, err := plotter.NewLine(ring)
		if err != nil {
			return nil, fmt.Errorf("cell %d outline: %w", c.Index, err)
		}
		line.Color = outline
		line.Width = vg.Points(0.5)
		line.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		p.Add(line)

		var pts plotter.XYs
		for _, f := range c.Features {
			paths, points := shapes(f.Geometry)
			for _, path := range paths {
				l, err := plotter.NewLine(path)
				if err != nil {
					return nil, fmt.Errorf("cell %d feature %s: %w", c.Index, f.ID, err)
				}
				l.Color = colors[i]
				l.Width = vg.Points(1)
				p.Add(l)
			}
			pts = append(pts, points...)
		}
		if len(pts) > 0 {
			sc, err := plotter.NewScatter(pts)
			if err != nil {
				return nil, fmt.Errorf("cell %d points: %w", c.Index, err)
			}
			sc.GlyphStyle.Color = colors[i]
			sc.GlyphStyle.Radius = vg.Points(2)
			p.Add(sc)
		}
	}
	return p, nil
}

func extentRing(e feature.Extent) plotter.XYs {
	return plotter.XYs{
		{X: e.MinX, Y: e.MinY},
		{X: e.MaxX, Y: e.MinY},
		{X: e.MaxX, Y: e.MaxY},
		{X: e.MinX, Y: e.MaxY},
		{X: e.MinX, Y: e.MinY},
	}
}

// shapes splits g into drawable paths (closed for polygon rings) and
// isolated points.
func shapes(g geom.Geom) ([]plotter.XYs, plotter.XYs) {
	toXYs := func(pts []geom.Point, closed bool) plotter.XYs {
		out := make(plotter.XYs, 0, len(pts)+1)
		for _, p := range pts {
			out = append(out, plotter.XY{X: p.X, Y: p.Y})
		}
		if closed && len(pts) > 0 && pts[0] != pts[len(pts)-1] {
			out = append(out, plotter.XY{X: pts[0].X, Y: pts[0].Y})
		}
		return out
	}

	var paths []plotter.XYs
	var points plotter.XYs
	switch t := g.(type) {
	case geom.Point:
		points = append(points, plotter.XY{X: t.X, Y: t.Y})
	case geom.MultiPoint:
		points = toXYs(t, false)
	case geom.LineString:
		paths = append(paths, toXYs(t, false))
	case geom.MultiLineString:
		for _, l := range t {
			paths = append(paths, toXYs(l, false))
		}
	case geom.Polygon:
		for _, r := range t {
			paths = append(paths, toXYs(r, true))
		}
	case geom.MultiPolygon:
		for _, poly := range t {
			for _, r := range poly {
				paths = append(paths, toXYs(r, true))
			}
		}
	case *geom.Bounds:
		paths = append(paths, extentRing(feature.ExtentOf(t)))
	}
	return paths, points
}

// palette returns n distinct colours by walking the hue circle.
func palette(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		h := float64(i) * 0.618033988749895
		h -= float64(int(h))
		out[i] = hsv(h, 0.65, 0.85)
	}
	return out
}

func hsv(h, s, v float64) color.Color {
	i := int(h * 6)
	f := h*6 - float64(i)
	p, q, t := v*(1-s), v*(1-f*s), v*(1-(1-f)*s)
	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}
