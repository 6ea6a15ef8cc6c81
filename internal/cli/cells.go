package cli

import (
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridcut/pkg/pipeline"
)

// cellsOpts holds the command-line flags for the cells command.
type cellsOpts struct {
	gridFlags

	interactive bool
	nonEmpty    bool
	json        bool
}

// cellsCommand creates the cells command, which lists per-cell counts
// without writing any cell.
func (c *CLI) cellsCommand() *cobra.Command {
	var opts cellsOpts

	cmd := &cobra.Command{
		Use:   "cells <input>",
		Short: "List per-cell feature counts",
		Long: `Cull every cell of an input and list how many features each cell received.
A grid already culled with the same input and policy is read from the cache.`,
		Example: `  gridcut cells parcels.geojson --cell-size 250
  gridcut cells parcels.geojson --cell-size 250 --interactive
  gridcut cells roads.shp -c gridcut.toml --non-empty --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCells(cmd, args[0], &opts)
		},
	}

	opts.gridFlags.register(cmd)
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "browse cells interactively")
	cmd.Flags().BoolVar(&opts.nonEmpty, "non-empty", false, "only list cells that kept features")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the run result as JSON")

	return cmd
}

func (c *CLI) runCells(cmd *cobra.Command, input string, opts *cellsOpts) error {
	ctx := cmd.Context()

	popts, err := opts.options(cmd, input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, &opts.gridFlags)
	if err != nil {
		return err
	}
	defer runner.Close()

	var res *pipeline.Result
	if opts.json || opts.interactive {
		res, err = runner.Summarize(ctx, popts)
	} else {
		res, err = withGridProgress(ctx, loggerFromContext(ctx), "Culling "+input, func() (*pipeline.Result, error) {
			return runner.Summarize(ctx, popts)
		})
	}
	if err != nil {
		return err
	}

	cells := res.Cells
	if opts.nonEmpty {
		cells = nonEmptyCells(cells)
	}

	switch {
	case opts.json:
		out := *res
		out.Cells = cells
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case opts.interactive:
		m := NewCellListModel(cells)
		m.HideZero = opts.nonEmpty
		_, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
		return err
	}

	fmt.Println(renderCellTable(cells, -1))
	printRunSummary(res)
	if res.CacheInfo.GridHit {
		printDetail("grid read from cache; use --refresh to recompute")
	}
	return nil
}

func nonEmptyCells(cells []pipeline.CellSummary) []pipeline.CellSummary {
	out := make([]pipeline.CellSummary, 0, len(cells))
	for _, c := range cells {
		if c.Out > 0 {
			out = append(out, c)
		}
	}
	return out
}
