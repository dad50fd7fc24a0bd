package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodewriter/pkg/errors"
	nwio "github.com/matzehuels/nodewriter/pkg/io"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		flags   renderFlags
		format  string
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Dump the parsed document tree as JSON or YAML",
		Long: `Dump the parsed document tree as JSON or YAML.

The dump lists every node with its kind, name, data, attributes and
children. It can be edited and fed back to 'fmt --input json' (or yaml).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := nwio.ParseFormat(format)
			if err != nil {
				return err
			}
			if f == nwio.FormatXML {
				return errors.New(errors.ErrCodeInvalidFormat, "export format must be json or yaml")
			}
			return c.runExport(cmd.Context(), cmd, inputArg(args), &flags, f, output, noCache)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "tree format: json, yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, cmd *cobra.Command, path string, flags *renderFlags, format nwio.Format, output string, noCache bool) error {
	input, name, err := c.readInput(path)
	if err != nil {
		return err
	}
	opts, err := c.options(cmd, flags, name)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	tree, cached, err := runner.Parse(ctx, input, opts)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	c.Logger.Debug("parsed tree", "nodes", tree.Count(), "cached", cached)

	if output == "" {
		return nwio.Write(tree, c.stdout, format)
	}
	switch format {
	case nwio.FormatYAML:
		err = nwio.ExportYAML(tree, output)
	default:
		err = nwio.ExportJSON(tree, output)
	}
	if err != nil {
		return err
	}
	c.printSuccess("Exported %d nodes", tree.Count())
	c.printFile(output)
	return nil
}

// inputArg returns the single optional input argument, "-" when absent.
func inputArg(args []string) string {
	if len(args) == 0 {
		return stdinName
	}
	return args[0]
}

// readInput reads a file, or standard input for "-". The returned name is
// empty for standard input.
func (c *CLI) readInput(path string) ([]byte, string, error) {
	if path == stdinName {
		data, err := io.ReadAll(c.stdin)
		return data, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, path, nil
}
