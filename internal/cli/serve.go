package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodewriter/internal/server"
)

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags   renderFlags
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Routes:
  POST /v1/render   format the request body
  POST /v1/tree     dump the parsed tree as JSON (?format=yaml for YAML)
  GET  /healthz     liveness and build information

Query parameters override the defaults set by the configuration file and
the flags below, e.g. POST /v1/render?tab=%09&entity=%3C%25s%3E.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), cmd, &flags, addr, noCache)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cmd *cobra.Command, flags *renderFlags, addr string, noCache bool) error {
	defaults, err := c.options(cmd, flags, "")
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	c.printInfo("Serving on %s", StyleHighlight.Render(addr))
	return server.New(runner, c.Logger, defaults).ListenAndServe(ctx, addr)
}
