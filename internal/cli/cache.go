package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodewriter/pkg/cache"
	"github.com/matzehuels/nodewriter/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached trees and renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend := c.Config.Cache.Backend
			if backend == config.BackendNone {
				c.printInfo("Caching is disabled")
				return nil
			}

			ch, err := c.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer ch.Close()

			clearer, ok := ch.(cache.Clearer)
			if !ok {
				c.printWarning("The %s cache cannot be cleared", backend)
				return nil
			}
			if err := clearer.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			c.printSuccess("Cleared %s cache", backend)
			if fc, ok := ch.(*cache.FileCache); ok {
				c.printDetail("Directory: %s", fc.Dir())
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config.Cache
			switch cfg.Backend {
			case config.BackendRedis:
				fmt.Fprintln(c.stdout, "redis://"+cfg.RedisAddr)
			case config.BackendMongo:
				fmt.Fprintln(c.stdout, cfg.MongoURI+" ("+cfg.MongoDatabase+")")
			case config.BackendNone:
				fmt.Fprintln(c.stdout, "none")
			default:
				dir := cfg.Dir
				if dir == "" {
					d, err := cacheDir()
					if err != nil {
						return fmt.Errorf("get cache dir: %w", err)
					}
					dir = d
				}
				fmt.Fprintln(c.stdout, dir)
			}
			return nil
		},
	}
}
