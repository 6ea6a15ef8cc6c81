package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/gridcut/pkg/cache"
	gcerrors "github.com/matzehuels/gridcut/pkg/errors"
	"github.com/matzehuels/gridcut/pkg/feature"
	"github.com/matzehuels/gridcut/pkg/grid"
	pkgio "github.com/matzehuels/gridcut/pkg/io"
	"github.com/matzehuels/gridcut/pkg/observability"
	"github.com/matzehuels/gridcut/pkg/sink"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger; it doesn't store
// run results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// GridOpts are passed to every grid.New call, after the logger. Use
	// grid.WithOverlay to pick an overlay engine.
	GridOpts []grid.Option
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// job is a run with its inputs resolved.
type job struct {
	features  feature.Collection
	inputHash string // empty disables caching
	extent    feature.Extent
	policy    grid.Policy
	skipEmpty bool
	refresh   bool
	ttl       time.Duration
	logger    *log.Logger
	loadTime  time.Duration
}

// Execute loads opts.Input, culls every cell and writes the cells to s. s is
// closed before Execute returns.
func (r *Runner) Execute(ctx context.Context, opts Options, s sink.Sink) (*Result, error) {
	j, err := r.prepare(ctx, &opts)
	if err != nil {
		closeQuietly(s, opts.Logger)
		return nil, err
	}
	g, err := r.newGridder(j)
	if err != nil {
		closeQuietly(s, j.logger)
		return nil, err
	}
	return r.run(ctx, j, g, s)
}

// Grid culls in-memory features over extent and writes the cells to s. s is
// closed before Grid returns. Cells are cached under a fingerprint of the
// features.
func (r *Runner) Grid(ctx context.Context, fs feature.Collection, extent feature.Extent, policy grid.Policy, s sink.Sink) (*Result, error) {
	j := job{
		features: fs,
		extent:   extent,
		policy:   policy,
		ttl:      DefaultTTL,
		logger:   r.Logger,
	}
	if data, err := pkgio.MarshalGeoJSON(fs); err == nil {
		j.inputHash = cache.Hash(data)
	} else {
		j.logger.Debug("cannot fingerprint features, caching disabled", "err", err)
	}
	g, err := r.newGridder(j)
	if err != nil {
		closeQuietly(s, j.logger)
		return nil, err
	}
	return r.run(ctx, j, g, s)
}

// Summarize returns the cell summaries of a run without writing cells
// anywhere. A previous run over the same input and policy is answered from
// the cache.
func (r *Runner) Summarize(ctx context.Context, opts Options) (*Result, error) {
	j, err := r.prepare(ctx, &opts)
	if err != nil {
		return nil, err
	}
	g, err := r.newGridder(j)
	if err != nil {
		return nil, err
	}

	if key := r.gridKey(j, g); key != "" && !j.refresh {
		if data, hit := r.get(ctx, key, "grid", j.logger); hit {
			var res Result
			if err := json.Unmarshal(data, &res); err == nil && len(res.Cells) == g.CellCount() {
				res.Policy = g.Policy()
				res.Stats.LoadTime = j.loadTime
				res.Stats.CullTime = 0
				res.CacheInfo = CacheInfo{GridHit: true}
				j.logger.Debug("grid summaries from cache", "run", res.RunID, "cells", len(res.Cells))
				return &res, nil
			}
			j.logger.Debug("discarding unreadable grid cache entry")
		}
	}
	return r.run(ctx, j, g, sink.Discard)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// prepare validates opts and loads the input.
func (r *Runner) prepare(ctx context.Context, opts *Options) (job, error) {
	r.applyLogger(opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return job{}, err
	}
	if err := ctx.Err(); err != nil {
		return job{}, err
	}
	policy, err := opts.GridPolicy()
	if err != nil {
		return job{}, err
	}

	start := time.Now()
	fs, err := pkgio.Import(opts.Input, opts.Columns...)
	if err != nil {
		return job{}, err
	}
	loadTime := time.Since(start)
	opts.Logger.Info("loaded features",
		"input", opts.Input,
		"features", len(fs),
		"duration", loadTime)

	extent, err := ResolveExtent(fs, opts.Extent)
	if err != nil {
		return job{}, err
	}

	hash, err := fingerprint(opts.Input, opts.Columns)
	if err != nil {
		opts.Logger.Debug("cannot fingerprint input, caching disabled", "input", opts.Input, "err", err)
	}

	return job{
		features:  fs,
		inputHash: hash,
		extent:    extent,
		policy:    policy,
		skipEmpty: opts.SkipEmpty,
		refresh:   opts.Refresh,
		ttl:       opts.TTL,
		logger:    opts.Logger,
		loadTime:  loadTime,
	}, nil
}

func (r *Runner) newGridder(j job) (*grid.Gridder, error) {
	opts := append([]grid.Option{grid.WithLogger(j.logger)}, r.GridOpts...)
	g, err := grid.New(j.extent, j.policy, opts...)
	switch {
	case err == nil:
		return g, nil
	case errors.Is(err, grid.ErrTooManyCells):
		return nil, gcerrors.Wrap(gcerrors.ErrCodeInvalidConfig, err, "cell size %s is too small for extent %s", j.policy.CellSize, j.extent)
	default:
		return nil, gcerrors.Wrap(gcerrors.ErrCodeInvalidExtent, err, "build grid")
	}
}

// run culls every cell of g in index order.
func (r *Runner) run(ctx context.Context, j job, g *grid.Gridder, s sink.Sink) (res *Result, err error) {
	runID := uuid.NewString()
	cellsX, cellsY := g.Dims()
	total := g.CellCount()

	hooks := observability.Grid()
	hooks.OnGridStart(ctx, runID, total, g.Technique().String())
	start := time.Now()
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			res, err = nil, gcerrors.Wrap(gcerrors.ErrCodeStorage, cerr, "close sink")
		}
		hooks.OnGridComplete(ctx, runID, total, time.Since(start), err)
	}()

	res = &Result{
		RunID:  runID,
		CellsX: cellsX,
		CellsY: cellsY,
		Extent: g.Extent(),
		Policy: g.Policy(),
		Cells:  make([]CellSummary, 0, total),
		Stats: Stats{
			Features: len(j.features),
			LoadTime: j.loadTime,
		},
	}

	for _, c := range g.Cells() {
		if cerr := ctx.Err(); cerr != nil {
			return nil, interrupted(cerr, c.Index, total)
		}

		cellStart := time.Now()
		cr, cached := r.cullCell(ctx, j, g, c)
		switch {
		case cached:
			res.CacheInfo.Hits++
		case j.inputHash != "":
			res.CacheInfo.Misses++
		}

		res.Cells = append(res.Cells, CellSummary{
			Index:  c.Index,
			X:      c.X,
			Y:      c.Y,
			Bounds: c.Bounds,
			In:     cr.In,
			Out:    cr.Out,
			Failed: cr.Failed,
			Cached: cached,
		})
		res.Stats.Kept += cr.Out
		res.Stats.Failed += cr.Failed

		if cr.Out > 0 || !j.skipEmpty {
			werr := s.WriteCell(ctx, sink.Cell{
				RunID:    runID,
				Index:    c.Index,
				X:        c.X,
				Y:        c.Y,
				Bounds:   c.Bounds,
				Features: cr.Features,
			})
			if werr != nil {
				return nil, gcerrors.Wrap(gcerrors.ErrCodeStorage, werr, "write cell %d", c.Index)
			}
			res.Stats.Written++
		}

		hooks.OnCellComplete(ctx, observability.CellEvent{
			RunID:    runID,
			Index:    c.Index,
			In:       cr.In,
			Out:      cr.Out,
			Failed:   cr.Failed,
			Cached:   cached,
			Duration: time.Since(cellStart),
		})
	}
	res.Stats.CullTime = time.Since(start)

	if key := r.gridKey(j, g); key != "" {
		if data, merr := json.Marshal(res); merr == nil {
			r.set(ctx, key, "grid", data, j.ttl, j.logger)
		}
	}

	j.logger.Info("culled grid",
		"run", runID,
		"cells", total,
		"technique", g.Technique(),
		"kept", res.Stats.Kept,
		"failed", res.Stats.Failed,
		"cache_hits", res.CacheInfo.Hits,
		"duration", res.Stats.CullTime)
	return res, nil
}

// cellEntry is the cached form of one culled cell.
type cellEntry struct {
	Failed   int             `json:"failed,omitempty"`
	Features json.RawMessage `json:"features"`
}

// cullCell culls one cell, reading and filling the cell cache. The boolean
// reports a cache hit.
func (r *Runner) cullCell(ctx context.Context, j job, g *grid.Gridder, c grid.Cell) (grid.CullResult, bool) {
	if j.inputHash == "" {
		return g.Cull(c.Index, j.features), false
	}

	key := r.Keyer.CellKey(j.inputHash, cache.CellKeyOpts{
		Index:     c.Index,
		Bounds:    bounds4(c.Bounds),
		Technique: g.Technique().String(),
		Engine:    g.EngineName(),
	})

	if !j.refresh {
		if data, hit := r.get(ctx, key, "cell", j.logger); hit {
			if fs, failed, err := decodeCell(data); err == nil {
				return grid.CullResult{
					Index:    c.Index,
					Found:    true,
					Bounds:   c.Bounds,
					In:       len(j.features),
					Out:      len(fs),
					Failed:   failed,
					Features: fs,
				}, true
			}
			j.logger.Debug("discarding unreadable cache entry", "cell", c.Index)
		}
	}

	res := g.Cull(c.Index, j.features)
	if data, err := encodeCell(res); err == nil {
		r.set(ctx, key, "cell", data, j.ttl, j.logger)
	} else {
		j.logger.Debug("cell not cacheable", "cell", c.Index, "err", err)
	}
	return res, false
}

func encodeCell(res grid.CullResult) ([]byte, error) {
	fc, err := pkgio.MarshalGeoJSON(res.Features)
	if err != nil {
		return nil, err
	}
	return json.Marshal(cellEntry{Failed: res.Failed, Features: fc})
}

func decodeCell(data []byte) (feature.Collection, int, error) {
	var e cellEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, 0, err
	}
	fs, err := pkgio.ReadGeoJSON(bytes.NewReader(e.Features))
	if err != nil {
		return nil, 0, err
	}
	return fs, e.Failed, nil
}

func (r *Runner) gridKey(j job, g *grid.Gridder) string {
	if j.inputHash == "" {
		return ""
	}
	return r.Keyer.GridKey(j.inputHash, cache.GridKeyOpts{
		Extent: bounds4(g.Extent()),
		Policy: g.Policy().String(),
		Engine: g.EngineName(),
	})
}

// cacheRetryBase is the first backoff delay for retryable cache errors.
const cacheRetryBase = 50 * time.Millisecond

// get reads key and reports backend errors as misses.
func (r *Runner) get(ctx context.Context, key, kind string, logger *log.Logger) ([]byte, bool) {
	var (
		data []byte
		hit  bool
	)
	err := cache.RetryWithBackoff(ctx, cacheRetryBase, func() error {
		var err error
		data, hit, err = r.Cache.Get(ctx, key)
		return err
	})
	if err != nil {
		logger.Debug("cache read failed", "kind", kind, "err", err)
		hit = false
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, kind)
	} else {
		observability.Cache().OnCacheMiss(ctx, kind)
	}
	return data, hit
}

func (r *Runner) set(ctx context.Context, key, kind string, data []byte, ttl time.Duration, logger *log.Logger) {
	err := cache.RetryWithBackoff(ctx, cacheRetryBase, func() error {
		return r.Cache.Set(ctx, key, data, ttl)
	})
	if err != nil {
		logger.Debug("cache write failed", "kind", kind, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, kind, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// fingerprint hashes the input file, the shapefile attribute table when there
// is one, and the selected columns.
func fingerprint(path string, columns []string) (string, error) {
	h, err := cache.HashFile(path)
	if err != nil {
		return "", err
	}
	parts := []string{h}
	if ext := filepath.Ext(path); strings.EqualFold(ext, ".shp") {
		if dh, err := cache.HashFile(strings.TrimSuffix(path, ext) + ".dbf"); err == nil {
			parts = append(parts, dh)
		}
	}
	parts = append(parts, columns...)
	return cache.Hash([]byte(strings.Join(parts, "\x00"))), nil
}

func bounds4(e feature.Extent) [4]float64 {
	return [4]float64{e.MinX, e.MinY, e.MaxX, e.MaxY}
}

func interrupted(err error, index, total int) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return gcerrors.Wrap(gcerrors.ErrCodeTimeout, err, "grid timed out before cell %d of %d", index, total)
	}
	return fmt.Errorf("grid interrupted before cell %d of %d: %w", index, total, err)
}

func closeQuietly(s sink.Sink, logger *log.Logger) {
	if err := s.Close(); err != nil && logger != nil {
		logger.Debug("close sink", "err", err)
	}
}
