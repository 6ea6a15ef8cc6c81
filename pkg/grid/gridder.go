package grid

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridcut/pkg/feature"
	"github.com/matzehuels/gridcut/pkg/overlay"
)

// MaxCells bounds the number of cells a Gridder will lay out.
const MaxCells = 1 << 24

// ErrTooManyCells is returned by New when the cell size is so small relative
// to the extent that the grid would exceed MaxCells.
var ErrTooManyCells = errors.New("grid: too many cells")

// Cell describes one grid cell.
type Cell struct {
	Index  int            `json:"index"`
	X      int            `json:"x"`
	Y      int            `json:"y"`
	Bounds feature.Extent `json:"bounds"`
}

// Gridder lays a regular grid over an extent and culls features per cell.
// A Gridder is immutable after New and its methods may be called from several
// goroutines, provided the overlay engine is safe for concurrent use.
type Gridder struct {
	extent   feature.Extent
	policy   Policy
	cellSize float64
	cellsX   int
	cellsY   int

	engine overlay.Engine
	culler culler
	logger *log.Logger
}

// Option configures a Gridder.
type Option func(*options)

type options struct {
	engine    overlay.Engine
	engineSet bool
	logger    *log.Logger
}

// WithOverlay sets the overlay engine used for cropping. Passing nil builds a
// Gridder without overlay capability. Without this option overlay.Default is
// used.
func WithOverlay(e overlay.Engine) Option {
	return func(o *options) {
		o.engine = e
		o.engineSet = true
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// New returns a Gridder over extent.
//
// When the policy asks for cropping but no overlay engine is available, the
// Gridder switches to centroid culling and logs one warning. Policy reports
// the technique actually in effect.
func New(extent feature.Extent, policy Policy, opts ...Option) (*Gridder, error) {
	if err := extent.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !o.engineSet {
		o.engine = overlay.Default()
	}
	if o.logger == nil {
		o.logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	g := &Gridder{
		extent: extent,
		policy: policy,
		cellsX: 1,
		cellsY: 1,
		engine: o.engine,
		logger: o.logger,
	}

	if policy.HasCellSize() {
		g.cellSize = policy.CellSize.Value()
		nx := math.Max(1, math.Ceil(extent.Width()/g.cellSize))
		ny := math.Max(1, math.Ceil(extent.Height()/g.cellSize))
		if nx*ny > MaxCells {
			return nil, fmt.Errorf("%w: %gx%g cells of size %g over %s", ErrTooManyCells, nx, ny, g.cellSize, extent)
		}
		g.cellsX, g.cellsY = int(nx), int(ny)
	}

	switch policy.Technique.Value() {
	case CullByCropping:
		if g.engine == nil {
			g.logger.Warn("no geometry overlay engine available, falling back to centroid culling",
				"requested", CullByCropping)
			g.policy.Technique.Set(CullByCentroid)
			g.culler = centroidCuller{}
		} else {
			g.culler = cropCuller{engine: g.engine, logger: g.logger}
		}
	default:
		g.culler = centroidCuller{}
	}

	g.logger.Debug("grid ready",
		"extent", extent,
		"cols", g.cellsX,
		"rows", g.cellsY,
		"technique", g.policy.Technique.Value())
	return g, nil
}

// CellCount returns the number of cells.
func (g *Gridder) CellCount() int { return g.cellsX * g.cellsY }

// Dims returns the number of columns and rows.
func (g *Gridder) Dims() (cellsX, cellsY int) { return g.cellsX, g.cellsY }

// Extent returns the extent the grid covers.
func (g *Gridder) Extent() feature.Extent { return g.extent }

// Policy returns the effective policy.
func (g *Gridder) Policy() Policy { return g.policy }

// Technique returns the culling technique in effect.
func (g *Gridder) Technique() Technique { return g.policy.Technique.Value() }

// EngineName names the overlay engine used for cropping. It is empty for
// centroid culling.
func (g *Gridder) EngineName() string {
	if g.Technique() != CullByCropping || g.engine == nil {
		return ""
	}
	return g.engine.Name()
}

// CellBounds returns the rectangle of cell i. It reports false when i is
// outside [0, CellCount()).
func (g *Gridder) CellBounds(i int) (feature.Extent, bool) {
	if i < 0 || i >= g.CellCount() {
		return feature.Extent{}, false
	}
	if g.cellSize == 0 {
		return g.extent, true
	}
	x, y := i%g.cellsX, i/g.cellsX
	cs := g.cellSize
	return feature.Extent{
		MinX: g.extent.MinX + cs*float64(x),
		MinY: g.extent.MinY + cs*float64(y),
		MaxX: math.Min(g.extent.MinX+cs*float64(x+1), g.extent.MaxX),
		MaxY: math.Min(g.extent.MinY+cs*float64(y+1), g.extent.MaxY),
	}, true
}

// Cell describes cell i. It reports false when i is out of range.
func (g *Gridder) Cell(i int) (Cell, bool) {
	b, ok := g.CellBounds(i)
	if !ok {
		return Cell{}, false
	}
	return Cell{Index: i, X: i % g.cellsX, Y: i / g.cellsX, Bounds: b}, true
}

// Cells returns every cell in index order.
func (g *Gridder) Cells() []Cell {
	out := make([]Cell, g.CellCount())
	for i := range out {
		out[i], _ = g.Cell(i)
	}
	return out
}
