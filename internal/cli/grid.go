package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	gcerrors "github.com/matzehuels/gridcut/pkg/errors"
	"github.com/matzehuels/gridcut/pkg/observability"
	"github.com/matzehuels/gridcut/pkg/pipeline"
	"github.com/matzehuels/gridcut/pkg/sink"
)

// Sink names accepted by --sink.
const (
	sinkDir    = "dir"
	sinkSQLite = "sqlite"
	sinkMongo  = "mongo"
	sinkPlot   = "plot"
	sinkNone   = "none"
)

// gridOpts holds the command-line flags for the grid command.
type gridOpts struct {
	gridFlags

	output    string   // directory for per-cell GeoJSON files
	sinks     []string // enabled sinks
	sqlite    string   // SQLite database path
	mongoURI  string   // MongoDB connection string
	mongoDB   string   // MongoDB database
	mongoColl string   // MongoDB collection
	plot      string   // preview image path
	skipEmpty bool     // do not emit empty cells
}

// gridCommand creates the grid command, which culls every cell of an input
// and writes the cells out.
func (c *CLI) gridCommand() *cobra.Command {
	opts := gridOpts{
		output:    "cells",
		sinks:     []string{sinkDir},
		sqlite:    "cells.db",
		mongoDB:   appName,
		mongoColl: "cells",
	}

	cmd := &cobra.Command{
		Use:   "grid <input>",
		Short: "Cull features into grid cells and write them out",
		Long: `Lay a grid over the features of a GeoJSON file or shapefile, cull every cell
and write the cells to the selected sinks.

Sinks:
  dir     one GeoJSON file per non-empty cell in --output
  sqlite  rows in the "cells" table of --sqlite
  mongo   one upserted document per cell (--mongo-uri)
  plot    a PNG or SVG preview at --plot
  none    discard cells, print statistics only`,
		Example: `  gridcut grid parcels.geojson --cell-size 250
  gridcut grid roads.shp --cell-size 1000 --technique crop --sink dir,plot --plot roads.png
  gridcut grid parcels.geojson -c gridcut.toml --sink sqlite --sqlite parcels.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, flag := range []struct{ name, sink string }{
				{"sqlite", sinkSQLite}, {"mongo-uri", sinkMongo}, {"plot", sinkPlot},
			} {
				if cmd.Flags().Changed(flag.name) && !contains(opts.sinks, flag.sink) {
					opts.sinks = append(opts.sinks, flag.sink)
				}
			}
			return c.runGrid(cmd, args[0], &opts)
		},
	}

	opts.gridFlags.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "directory for per-cell GeoJSON files")
	cmd.Flags().StringSliceVar(&opts.sinks, "sink", opts.sinks, "sinks: dir, sqlite, mongo, plot, none (comma-separated)")
	cmd.Flags().StringVar(&opts.sqlite, "sqlite", opts.sqlite, "SQLite database path (enables the sqlite sink)")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", "", "MongoDB connection string (env "+envMongoURI+", enables the mongo sink)")
	cmd.Flags().StringVar(&opts.mongoDB, "mongo-db", opts.mongoDB, "MongoDB database")
	cmd.Flags().StringVar(&opts.mongoColl, "mongo-collection", opts.mongoColl, "MongoDB collection")
	cmd.Flags().StringVar(&opts.plot, "plot", "", "write a preview image (.png or .svg; enables the plot sink)")
	cmd.Flags().BoolVar(&opts.skipEmpty, "skip-empty", false, "do not send empty cells to any sink")

	return cmd
}

func (c *CLI) runGrid(cmd *cobra.Command, input string, opts *gridOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	popts, err := opts.options(cmd, input)
	if err != nil {
		return err
	}
	popts.SkipEmpty = opts.skipEmpty

	runner, err := c.newRunner(ctx, &opts.gridFlags)
	if err != nil {
		return err
	}
	defer runner.Close()

	s, outputs, err := opts.openSinks(ctx, input)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	res, err := withGridProgress(ctx, logger, "Culling "+filepath.Base(input), func() (*pipeline.Result, error) {
		return runner.Execute(ctx, popts, s)
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Culled %d cells", len(res.Cells)))

	printRunSummary(res)
	for _, o := range outputs {
		printFile(o)
	}
	printNewline()
	printNextStep("Browse cells", fmt.Sprintf("%s cells %s --interactive", appName, input))
	return nil
}

// openSinks opens every selected sink. On error the sinks opened so far are
// closed.
func (o *gridOpts) openSinks(ctx context.Context, input string) (sink.Sink, []string, error) {
	var (
		sinks   []sink.Sink
		outputs []string
	)
	fail := func(err error) (sink.Sink, []string, error) {
		_ = sink.Multi(sinks...).Close()
		return nil, nil, err
	}

	for _, name := range o.sinks {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case sinkDir:
			s, err := sink.NewDirSink(o.output, false)
			if err != nil {
				return fail(gcerrors.Wrap(gcerrors.ErrCodeStorage, err, "open %s", o.output))
			}
			sinks = append(sinks, s)
			outputs = append(outputs, o.output+string(os.PathSeparator))
		case sinkSQLite:
			s, err := sink.OpenSQLite(o.sqlite)
			if err != nil {
				return fail(gcerrors.Wrap(gcerrors.ErrCodeStorage, err, "open %s", o.sqlite))
			}
			sinks = append(sinks, s)
			outputs = append(outputs, o.sqlite)
		case sinkMongo:
			uri := o.mongoURI
			if uri == "" {
				uri = os.Getenv(envMongoURI)
			}
			if uri == "" {
				return fail(gcerrors.New(gcerrors.ErrCodeInvalidConfig, "mongo sink needs --mongo-uri or %s", envMongoURI))
			}
			if err := gcerrors.ValidateURL(uri, "mongodb", "mongodb+srv"); err != nil {
				return fail(err)
			}
			s, err := sink.DialMongo(ctx, uri, o.mongoDB, o.mongoColl)
			if err != nil {
				return fail(gcerrors.Wrap(gcerrors.ErrCodeStorage, err, "connect to mongodb"))
			}
			sinks = append(sinks, s)
			outputs = append(outputs, fmt.Sprintf("mongodb %s.%s", o.mongoDB, o.mongoColl))
		case sinkPlot:
			path := o.plot
			if path == "" {
				path = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".png"
			}
			sinks = append(sinks, sink.NewPlotSink(path, filepath.Base(input)))
			outputs = append(outputs, path)
		case sinkNone:
		default:
			return fail(gcerrors.New(gcerrors.ErrCodeInvalidInput, "unknown sink %q (want dir, sqlite, mongo, plot or none)", name))
		}
	}

	if len(sinks) == 0 {
		return sink.Discard, nil, nil
	}
	return sink.Multi(sinks...), outputs, nil
}

// withGridProgress runs fn while reporting per-cell progress. Verbose runs
// log every cell instead of showing a spinner.
func withGridProgress(ctx context.Context, logger *log.Logger, msg string, fn func() (*pipeline.Result, error)) (*pipeline.Result, error) {
	defer observability.Reset()

	if logger.GetLevel() <= log.DebugLevel {
		observability.SetGridHooks(observability.NewLogGridHooks(logger))
		return fn()
	}

	spinner := newSpinnerWithContext(ctx, msg)
	observability.SetGridHooks(&spinnerHooks{spinner: spinner})
	spinner.Start()
	res, err := fn()
	spinner.Stop()
	return res, err
}

// spinnerHooks shows cell progress in a spinner.
type spinnerHooks struct {
	observability.NoopGridHooks
	spinner *Spinner
	total   int
}

func (h *spinnerHooks) OnGridStart(_ context.Context, _ string, cells int, _ string) {
	h.total = cells
	h.spinner.SetProgress(0, cells)
}

func (h *spinnerHooks) OnCellComplete(_ context.Context, ev observability.CellEvent) {
	h.spinner.SetProgress(ev.Index+1, h.total)
}

// printRunSummary prints the outcome of a pipeline run.
func printRunSummary(res *pipeline.Result) {
	printKeyValue("Run", res.RunID)
	printKeyValue("Grid", fmt.Sprintf("%d x %d cells", res.CellsX, res.CellsY))
	printKeyValue("Extent", res.Extent.String())
	printKeyValue("Policy", res.Policy.String())
	printRunStats(res.Stats, res.CacheInfo)
	if res.Stats.Failed > 0 {
		printWarning("%d features could not be cropped and were skipped (see --verbose)", res.Stats.Failed)
	}
	if res.Empty() && res.Stats.Features > 0 {
		printWarning("no cell kept a feature; check the extent")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
