package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridcut/pkg/config"
	gcerrors "github.com/matzehuels/gridcut/pkg/errors"
	"github.com/matzehuels/gridcut/pkg/grid"
	"github.com/matzehuels/gridcut/pkg/pipeline"
)

const defaultConfigFile = appName + ".toml"

// policyCommand creates the policy command for inspecting and writing
// gridding configuration.
func (c *CLI) policyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect or create gridding configuration",
	}

	cmd.AddCommand(c.policyShowCommand())
	cmd.AddCommand(c.policyInitCommand())

	return cmd
}

// policyShowCommand creates the "policy show" subcommand.
func (c *CLI) policyShowCommand() *cobra.Command {
	var f gridFlags

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective policy after merging config and flags",
		Example: `  gridcut policy show -c gridcut.toml
  gridcut policy show -c gridcut.toml --technique crop --strict`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options(cmd, "")
			if err != nil {
				return err
			}
			policy, err := opts.GridPolicy()
			if err != nil {
				return err
			}
			printPolicy(policy, opts)
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

func printPolicy(p grid.Policy, opts pipeline.Options) {
	mark := func(set bool, v string) string {
		if set {
			return v
		}
		return v + StyleDim.Render(" (default)")
	}

	size := "none, single cell"
	if p.HasCellSize() {
		size = config.Format(p.CellSize.Value())
	}
	printKeyValue(grid.KeyCellSize, mark(p.CellSize.IsSet(), size))
	printKeyValue("technique", mark(p.Technique.IsSet(), p.Technique.Value().String()))
	printKeyValue("spatialize", mark(p.SpatializeGroups.IsSet(), strconv.FormatBool(p.SpatializeGroups.Value())))
	printKeyValue("clustering", mark(p.ClusterCulling.IsSet(), strconv.FormatBool(p.ClusterCulling.Value())))

	extent := "bounds of the input"
	if opts.Extent != nil {
		extent = opts.Extent.String()
	}
	printKeyValue("extent", extent)

	ttl := opts.TTL
	if ttl == 0 {
		ttl = pipeline.DefaultTTL
	}
	printKeyValue("cache ttl", ttl.String())
}

// policyInitCommand creates the "policy init" subcommand.
func (c *CLI) policyInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a configuration template",
		Long: `Write a TOML configuration with the [gridding], [extent] and [cache] tables.
The file defaults to ` + defaultConfigFile + ` in the current directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			if err := gcerrors.ValidateInputPath(path, ".toml"); err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return gcerrors.New(gcerrors.ErrCodeInvalidInput, "%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			if err := configTemplate().Save(path); err != nil {
				return gcerrors.Wrap(gcerrors.ErrCodeStorage, err, "write %s", path)
			}
			printSuccess("Wrote %s", path)
			printNextStep("Run", fmt.Sprintf("%s grid <input> -c %s", appName, path))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

// configTemplate returns the document written by "policy init".
func configTemplate() config.Document {
	policy := grid.DefaultPolicy()
	policy.CellSize.Set(1000)
	policy.Technique.Set(grid.CullByCentroid)

	doc := config.Document{}
	doc.SetSection(sectionGridding, policy.Config())
	doc.SetSection(sectionCache, config.Config{
		"ttl": pipeline.DefaultTTL.String(),
	})
	doc.SetSection(sectionExtent, config.Config{
		"min_x": "0",
		"min_y": "0",
		"max_x": "10000",
		"max_y": "10000",
	})
	return doc
}
