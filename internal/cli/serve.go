package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridcut/pkg/pipeline"
	"github.com/matzehuels/gridcut/pkg/server"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	gridFlags

	addr string
}

// serveCommand creates the serve command, which culls an input into memory
// and serves the cells over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{addr: "127.0.0.1:8080"}

	cmd := &cobra.Command{
		Use:   "serve <input>",
		Short: "Serve culled cells over HTTP",
		Long: `Cull every cell of an input into memory and serve the result:

  GET /healthz               liveness
  GET /grid                  grid dimensions, extent and policy
  GET /cells                 per-cell counts
  GET /cells/{index}         features of one cell as GeoJSON
  GET /cells/{index}/bounds  rectangle of one cell`,
		Example: `  gridcut serve parcels.geojson --cell-size 250
  gridcut serve roads.shp -c gridcut.toml --addr :9000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, args[0], &opts)
		},
	}

	opts.gridFlags.register(cmd)
	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, input string, opts *serveOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	popts, err := opts.options(cmd, input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, &opts.gridFlags)
	if err != nil {
		return err
	}
	defer runner.Close()

	var srv *server.Server
	if _, err := withGridProgress(ctx, logger, "Culling "+input, func() (*pipeline.Result, error) {
		s, err := server.Load(ctx, runner, popts)
		if err != nil {
			return nil, err
		}
		srv = s
		return s.Result(), nil
	}); err != nil {
		return err
	}

	printRunSummary(srv.Result())
	printNewline()
	printInfo("Listening on %s", StyleLink.Render(fmt.Sprintf("http://%s/grid", opts.addr)))
	printDetail("Press Ctrl+C to stop")

	return srv.ListenAndServe(ctx, opts.addr)
}
