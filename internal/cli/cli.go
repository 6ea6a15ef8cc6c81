// Package cli implements the gridcut command-line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridcut/pkg/buildinfo"
	"github.com/matzehuels/gridcut/pkg/cache"
	gcerrors "github.com/matzehuels/gridcut/pkg/errors"
	"github.com/matzehuels/gridcut/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "gridcut"

	// envRedisAddr and envMongoURI name the environment variables that
	// configure shared backends. Both may come from a .env file.
	envRedisAddr = "GRIDCUT_REDIS_ADDR"
	envMongoURI  = "GRIDCUT_MONGO_URI"

	// redisKeyPrefix scopes gridcut keys in a shared Redis.
	redisKeyPrefix = appName + ":"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "gridcut partitions vector features into a regular grid",
		Long: `gridcut lays a regular grid over GeoJSON or shapefile features and culls
them per cell, either by bounding-box centroid or by cropping geometries to
the cell rectangle. Cells go to GeoJSON files, SQLite, MongoDB or a preview
plot, or are served over HTTP.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnv(".env"); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.gridCommand())
	root.AddCommand(c.cellsCommand())
	root.AddCommand(c.policyCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadEnv reads KEY=VALUE pairs from path into the environment. A missing
// file is fine; variables already set win.
func loadEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. With a Redis address the
// cache is shared and compressed; otherwise it lives on disk.
func (c *CLI) newRunner(ctx context.Context, f *gridFlags) (*pipeline.Runner, error) {
	logger := loggerFromContext(ctx)
	if f.noCache {
		return pipeline.NewRunner(cache.NewNullCache(), nil, logger), nil
	}

	if addr := f.redisAddr(); addr != "" {
		rc, err := cache.DialRedis(ctx, addr)
		if err != nil {
			return nil, gcerrors.Wrap(gcerrors.ErrCodeStorage, err, "redis cache")
		}
		cc, err := cache.NewCompressedCache(rc)
		if err != nil {
			rc.Close()
			return nil, err
		}
		logger.Debug("using redis cache", "addr", addr)
		return pipeline.NewRunner(cc, cache.NewScopedKeyer(nil, redisKeyPrefix), logger), nil
	}

	fc, err := newFileCache()
	if err != nil {
		logger.Warn("file cache unavailable, caching disabled", "err", err)
		return pipeline.NewRunner(cache.NewNullCache(), nil, logger), nil
	}
	cc, err := cache.NewCompressedCache(fc)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, logger), nil
}

func newFileCache() (*cache.FileCache, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/gridcut/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
