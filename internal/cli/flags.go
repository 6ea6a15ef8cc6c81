package cli

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridcut/pkg/config"
	gcerrors "github.com/matzehuels/gridcut/pkg/errors"
	"github.com/matzehuels/gridcut/pkg/feature"
	"github.com/matzehuels/gridcut/pkg/grid"
	"github.com/matzehuels/gridcut/pkg/pipeline"
)

// TOML tables read from --config.
const (
	sectionGridding = "gridding"
	sectionCache    = "cache"
	sectionExtent   = "extent"
)

// gridFlags holds the flags shared by every command that runs the pipeline.
type gridFlags struct {
	cellSize   float64
	technique  string
	configPath string
	strict     bool
	extent     string
	columns    []string
	noCache    bool
	refresh    bool
	redis      string

	// configRedis is the [cache] redis_addr of the loaded config file.
	configRedis string
}

func (f *gridFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.cellSize, "cell-size", 0, "cell edge length in input units (default: one cell over the whole extent)")
	cmd.Flags().StringVar(&f.technique, "technique", "", "culling technique: centroid (default), crop")
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "TOML file with [gridding], [extent] and [cache] tables")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "reject malformed policy values instead of using defaults")
	cmd.Flags().StringVar(&f.extent, "extent", "", "grid extent as minx,miny,maxx,maxy (default: bounds of the input)")
	cmd.Flags().StringSliceVar(&f.columns, "columns", nil, "shapefile attribute columns to keep (default: all)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the cell cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute cached cells")
	cmd.Flags().StringVar(&f.redis, "redis", "", "Redis address or URL for a shared cache (env "+envRedisAddr+")")
}

// options builds pipeline options for input. Flags override the config file.
func (f *gridFlags) options(cmd *cobra.Command, input string) (pipeline.Options, error) {
	doc, err := f.loadConfig()
	if err != nil {
		return pipeline.Options{}, err
	}

	policy := doc.Section(sectionGridding).Clone()
	if cmd.Flags().Changed("cell-size") {
		policy.Set(grid.KeyCellSize, config.Format(f.cellSize))
	}
	if f.technique != "" {
		t, err := grid.ParseTechnique(f.technique)
		if err != nil {
			return pipeline.Options{}, gcerrors.Wrap(gcerrors.ErrCodeInvalidConfig, err, "--technique")
		}
		policy.Set(grid.KeyCullingTechnique, t.String())
	}

	opts := pipeline.Options{
		Input:   input,
		Columns: f.columns,
		Policy:  policy,
		Strict:  f.strict,
		Refresh: f.refresh,
		Logger:  loggerFromContext(cmd.Context()),
	}

	switch {
	case f.extent != "":
		e, err := feature.ParseExtent(f.extent)
		if err != nil {
			return pipeline.Options{}, gcerrors.Wrap(gcerrors.ErrCodeInvalidExtent, err, "--extent")
		}
		opts.Extent = &e
	default:
		e, ok, err := extentFromConfig(doc.Section(sectionExtent))
		if err != nil {
			return pipeline.Options{}, err
		}
		if ok {
			opts.Extent = &e
		}
	}

	cacheConf := doc.Section(sectionCache)
	if cacheConf.HasValue("ttl") {
		ttl, err := time.ParseDuration(cacheConf.Value("ttl"))
		if err != nil {
			return pipeline.Options{}, gcerrors.Wrap(gcerrors.ErrCodeInvalidConfig, err, "[cache] ttl")
		}
		opts.TTL = ttl
	}
	f.configRedis = cacheConf.Value("redis_addr")

	return opts, nil
}

func (f *gridFlags) loadConfig() (config.Document, error) {
	if f.configPath == "" {
		return config.Document{}, nil
	}
	doc, err := config.Load(f.configPath)
	switch {
	case err == nil:
		return doc, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, gcerrors.Wrap(gcerrors.ErrCodeFileNotFound, err, "config %s", f.configPath)
	default:
		return nil, gcerrors.Wrap(gcerrors.ErrCodeInvalidConfig, err, "config %s", f.configPath)
	}
}

// redisAddr picks the Redis address: flag, then environment, then config.
func (f *gridFlags) redisAddr() string {
	if f.redis != "" {
		return f.redis
	}
	if v := os.Getenv(envRedisAddr); v != "" {
		return v
	}
	return f.configRedis
}

// extentFromConfig reads min_x, min_y, max_x and max_y. All four or none must
// be present.
func extentFromConfig(c config.Config) (feature.Extent, bool, error) {
	keys := []string{"min_x", "min_y", "max_x", "max_y"}
	var v [4]float64
	found := 0
	for i, k := range keys {
		if !c.HasValue(k) {
			continue
		}
		x, err := config.Parse[float64](c.Value(k))
		if err != nil {
			return feature.Extent{}, false, gcerrors.Wrap(gcerrors.ErrCodeInvalidConfig, err, "[extent] %s", k)
		}
		v[i] = x
		found++
	}
	switch found {
	case 0:
		return feature.Extent{}, false, nil
	case len(keys):
		e, err := feature.NewExtent(v[0], v[1], v[2], v[3])
		if err != nil {
			return feature.Extent{}, false, gcerrors.Wrap(gcerrors.ErrCodeInvalidExtent, err, "[extent]")
		}
		return e, true, nil
	default:
		return feature.Extent{}, false, gcerrors.New(gcerrors.ErrCodeInvalidConfig, "[extent] needs min_x, min_y, max_x and max_y")
	}
}
