package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodewriter/pkg/buildinfo"
	"github.com/matzehuels/nodewriter/pkg/cache"
	"github.com/matzehuels/nodewriter/pkg/config"
	nwio "github.com/matzehuels/nodewriter/pkg/io"
	"github.com/matzehuels/nodewriter/pkg/observability"
	"github.com/matzehuels/nodewriter/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "nodewriter"
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

	// Config is loaded before any subcommand runs.
	Config config.Config

	configPath string
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetVerbose switches to debug logging and reports pipeline, cache and
// HTTP events through the logger.
func (c *CLI) SetVerbose(verbose bool) {
	if !verbose {
		c.SetLogLevel(LogInfo)
		observability.Reset()
		return
	}
	c.SetLogLevel(LogDebug)
	observability.NewLogHooks(c.Logger).Install()
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "nodewriter pretty-prints XML-like documents",
		Long: `nodewriter reads XML (or a JSON/YAML tree dump), builds a document tree and
writes it back with consistent indentation: block elements on their own lines,
runs of text and entities kept inline, whitespace collapsed.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (applied after the user and project files)")

	// Register all subcommands
	root.AddCommand(c.fmtCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig layers the configuration files onto the defaults.
func (c *CLI) loadConfig() error {
	cfg, applied, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	for _, path := range applied {
		c.Logger.Debug("loaded config", "path", path)
	}
	c.Config = cfg
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(ch, cache.NewScopedKeyer(nil, buildinfo.CacheScope()), c.Logger)
	runner.TTL = c.Config.Cache.TTL.Duration
	return runner, nil
}

// newCache opens the configured backend. An unreachable server downgrades
// to no caching with a warning rather than failing the command.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	ch, err := c.openCache(ctx)
	if err != nil {
		if c.Config.Cache.Backend == config.BackendFile {
			return nil, err
		}
		c.Logger.Warn("cache unavailable, continuing without it", "backend", c.Config.Cache.Backend, "err", err)
		return cache.NewNullCache(), nil
	}
	return ch, nil
}

// openCache opens the configured backend without fallback.
func (c *CLI) openCache(ctx context.Context) (cache.Cache, error) {
	cfg := c.Config.Cache
	dir := cfg.Dir
	if dir == "" && (cfg.Backend == config.BackendFile || cfg.Backend == "") {
		d, err := cacheDir()
		if err != nil {
			return nil, fmt.Errorf("get cache dir: %w", err)
		}
		dir = d
	}
	ch, err := cache.Open(ctx, cache.Options{
		Backend:       cfg.Backend,
		Dir:           dir,
		RedisAddr:     cfg.RedisAddr,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.Backend, err)
	}
	return ch, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/nodewriter/).
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

// =============================================================================
// Options Helpers
// =============================================================================

// renderFlags are the pipeline settings that can be overridden per command.
type renderFlags struct {
	tab        string
	entity     string
	input      string
	rawText    []string
	permissive bool
	refresh    bool
}

// register adds the flags to cmd. Defaults come from the loaded
// configuration, so only flags the user set override it.
func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tab, "tab", "", `indentation unit (default "    ")`)
	cmd.Flags().StringVar(&f.entity, "entity", "", `template applied to entity references, e.g. "<%s>"`)
	cmd.Flags().StringVar(&f.input, "input", "", "input format: xml, json, yaml (default: from file extension)")
	cmd.Flags().StringSliceVar(&f.rawText, "raw-text", nil, "elements whose content is kept verbatim (default script,style)")
	cmd.Flags().BoolVar(&f.permissive, "permissive", false, "accept unclosed HTML-style tags")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results")
}

// options merges the configuration with the flags set on cmd. path picks
// the input format when --input is not given.
func (c *CLI) options(cmd *cobra.Command, f *renderFlags, path string) (pipeline.Options, error) {
	cfg := c.Config
	opts := pipeline.Options{
		RawText:      cfg.RawText,
		Permissive:   cfg.Permissive,
		HTMLEntities: cfg.HTMLEntities,
		Tab:          pipeline.StringPtr(cfg.Tab),
		Entity:       cfg.Entity,
		Refresh:      f.refresh,
		Logger:       c.Logger,
	}
	flags := cmd.Flags()
	if flags.Changed("tab") {
		opts.Tab = pipeline.StringPtr(f.tab)
	}
	if flags.Changed("entity") {
		opts.Entity = f.entity
	}
	if flags.Changed("raw-text") {
		opts.RawText = f.rawText
	}
	if flags.Changed("permissive") {
		opts.Permissive = f.permissive
	}

	switch {
	case f.input != "":
		format, err := nwio.ParseFormat(f.input)
		if err != nil {
			return opts, err
		}
		opts.Input = format
	case path != "":
		opts.Input = nwio.FormatFromPath(path)
	default:
		opts.Input = nwio.FormatXML
	}
	return opts, opts.ValidateAndSetDefaults()
}
