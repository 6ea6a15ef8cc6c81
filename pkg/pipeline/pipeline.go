// Package pipeline runs the load → grid → cull → sink flow for gridcut.
//
// The CLI, the HTTP server and batch jobs all go through a [Runner] so that
// caching, logging and error codes behave the same everywhere.
//
// # Stages
//
//  1. Load: read features from a GeoJSON file or shapefile
//  2. Grid: resolve the extent and the gridding policy, build a grid.Gridder
//  3. Cull: cull every cell in index order, consulting the per-cell cache
//  4. Sink: hand each culled cell to a sink.Sink
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.Options{
//	    Input:  "parcels.geojson",
//	    Policy: config.Config{"cell_size": "250", "culling_technique": "crop"},
//	}
//	out, _ := sink.NewDirSink("out", false)
//	res, err := runner.Execute(ctx, opts, out)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.RunID, len(res.Cells))
//
// Features already in memory skip the load stage:
//
//	res, err := runner.Grid(ctx, features, extent, policy, s)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridcut/pkg/config"
	gcerrors "github.com/matzehuels/gridcut/pkg/errors"
	"github.com/matzehuels/gridcut/pkg/feature"
	"github.com/matzehuels/gridcut/pkg/grid"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultTTL is how long culled cells stay cached.
	DefaultTTL = 7 * 24 * time.Hour
)

// =============================================================================
// Types
// =============================================================================

// Options configures a pipeline run.
//
// Options can be serialized to JSON so a run can be replayed or queued.
type Options struct {
	// Input options
	Input   string          `json:"input"`
	Columns []string        `json:"columns,omitempty"` // Shapefile attribute columns to keep (default: all)
	Extent  *feature.Extent `json:"extent,omitempty"`  // Grid extent (default: bounds of the input)

	// Gridding options
	Policy config.Config `json:"policy,omitempty"` // cell_size, culling_technique, ...
	Strict bool          `json:"strict,omitempty"` // Reject malformed policy values instead of defaulting

	// Output options
	SkipEmpty bool          `json:"skip_empty,omitempty"` // Do not send empty cells to the sink
	Refresh   bool          `json:"refresh,omitempty"`    // Ignore cached cells (results are still stored)
	TTL       time.Duration `json:"ttl,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in sinks and logs.
	RunID string `json:"run_id"`

	// CellsX and CellsY are the grid dimensions.
	CellsX int `json:"cells_x"`
	CellsY int `json:"cells_y"`

	// Extent is the area the grid covers.
	Extent feature.Extent `json:"extent"`

	// Policy is the effective policy, after any technique downgrade.
	Policy grid.Policy `json:"-"`

	// Cells summarizes every cell in index order.
	Cells []CellSummary `json:"cells"`

	Stats     Stats     `json:"stats"`
	CacheInfo CacheInfo `json:"cache"`
}

// CellSummary describes the outcome of one cell.
type CellSummary struct {
	Index  int            `json:"index"`
	X      int            `json:"x"`
	Y      int            `json:"y"`
	Bounds feature.Extent `json:"bounds"`
	In     int            `json:"in"`
	Out    int            `json:"out"`
	Failed int            `json:"failed,omitempty"`
	Cached bool           `json:"cached,omitempty"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Features int           `json:"features"`
	Kept     int           `json:"kept"`   // Sum of Out over all cells
	Failed   int           `json:"failed"` // Sum of Failed over all cells
	Written  int           `json:"written"`
	LoadTime time.Duration `json:"load_time"`
	CullTime time.Duration `json:"cull_time"`
}

// CacheInfo tracks cache use during a run.
type CacheInfo struct {
	Hits    int  `json:"hits"`
	Misses  int  `json:"misses"`
	GridHit bool `json:"grid_hit,omitempty"` // Summaries came from the grid cache
}

// Empty reports whether no cell kept a feature.
func (r *Result) Empty() bool {
	return r.Stats.Kept == 0
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for a
// file-backed run. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Input == "" {
		return gcerrors.New(gcerrors.ErrCodeInvalidInput, "input is required")
	}
	if err := o.validateShared(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// validateShared checks and defaults everything except the input path.
func (o *Options) validateShared() error {
	if o.Extent != nil {
		if err := o.Extent.Validate(); err != nil {
			return gcerrors.Wrap(gcerrors.ErrCodeInvalidExtent, err, "extent override")
		}
	}
	for _, c := range o.Columns {
		if err := gcerrors.ValidateColumnName(c); err != nil {
			return err
		}
	}
	if o.TTL < 0 {
		return gcerrors.New(gcerrors.ErrCodeInvalidConfig, "ttl must not be negative: %s", o.TTL)
	}
	o.SetDefaults()
	if o.Strict {
		if _, err := grid.ParsePolicyStrict(o.Policy); err != nil {
			return err
		}
	}
	return nil
}

// SetDefaults fills zero values.
func (o *Options) SetDefaults() {
	if o.Policy == nil {
		o.Policy = config.New()
	}
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// GridPolicy parses the policy configuration. Malformed values fall back to
// defaults unless Strict is set.
func (o *Options) GridPolicy() (grid.Policy, error) {
	if o.Strict {
		return grid.ParsePolicyStrict(o.Policy)
	}
	return grid.PolicyFromConfig(o.Policy), nil
}

// ResolveExtent returns override when set, and otherwise the bounds of every
// geometry in fs.
func ResolveExtent(fs feature.Collection, override *feature.Extent) (feature.Extent, error) {
	if override != nil {
		if err := override.Validate(); err != nil {
			return feature.Extent{}, gcerrors.Wrap(gcerrors.ErrCodeInvalidExtent, err, "extent override")
		}
		return *override, nil
	}
	e, ok := fs.Extent()
	if !ok {
		return feature.Extent{}, gcerrors.New(gcerrors.ErrCodeInvalidExtent,
			"input has no geometries to derive an extent from; pass one explicitly")
	}
	return e, nil
}
