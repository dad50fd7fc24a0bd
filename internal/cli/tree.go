package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodewriter/pkg/errors"
	"github.com/matzehuels/nodewriter/pkg/render/nodelink"
)

// Diagram formats of the tree command.
const (
	diagramDOT = "dot"
	diagramSVG = "svg"
	diagramPNG = "png"
)

// treeOpts holds the command-line flags for the tree command.
type treeOpts struct {
	renderFlags
	format   string
	output   string
	detailed bool
	maxLabel int
}

// treeCommand creates the tree command for drawing document trees.
func (c *CLI) treeCommand() *cobra.Command {
	opts := treeOpts{format: diagramSVG, maxLabel: nodelink.DefaultMaxLabel}

	cmd := &cobra.Command{
		Use:   "tree [file]",
		Short: "Draw the parsed document tree as a diagram",
		Long: `Draw the parsed document tree as a node-link diagram.

DOT output can be processed with external Graphviz tools; SVG and PNG are
rendered in-process.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.format {
			case diagramDOT, diagramSVG, diagramPNG:
			default:
				return errors.New(errors.ErrCodeInvalidFormat, "invalid diagram format %q (must be one of: dot, svg, png)", opts.format)
			}
			if opts.format == diagramPNG && opts.output == "" && isTerminal(c.stdout) {
				return errors.New(errors.ErrCodeInvalidOption, "refusing to write PNG to a terminal, use -o")
			}
			return c.runTree(cmd.Context(), cmd, inputArg(args), &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "diagram format: svg (default), dot, png")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show attributes and levels")
	cmd.Flags().IntVar(&opts.maxLabel, "max-label", opts.maxLabel, "truncate text labels to this many characters")

	return cmd
}

func (c *CLI) runTree(ctx context.Context, cmd *cobra.Command, path string, opts *treeOpts) error {
	input, name, err := c.readInput(path)
	if err != nil {
		return err
	}
	popts, err := c.options(cmd, &opts.renderFlags, name)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	tree, _, err := runner.Parse(ctx, input, popts)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	dot := nodelink.ToDOT(tree, nodelink.Options{Detailed: opts.detailed, MaxLabel: opts.maxLabel})
	var data []byte
	switch opts.format {
	case diagramDOT:
		data = []byte(dot)
	case diagramSVG:
		data, err = nodelink.RenderSVG(ctx, dot)
	case diagramPNG:
		data, err = nodelink.RenderPNG(ctx, dot)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, err, "draw tree")
	}

	if opts.output == "" {
		_, err = c.stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return err
	}
	c.printSuccess("Drew %d nodes", tree.Count())
	c.printFile(opts.output)
	return nil
}
