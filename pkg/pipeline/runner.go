package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodewriter/pkg/cache"
	"github.com/matzehuels/nodewriter/pkg/dom"
	nwio "github.com/matzehuels/nodewriter/pkg/io"
	"github.com/matzehuels/nodewriter/pkg/observability"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeTree   = "tree"
	keyTypeRender = "render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultTTL,
	}
}

// Format runs the complete parse → render pipeline with caching.
func (r *Runner) Format(ctx context.Context, input []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{InputHash: cache.Hash(input)}
	result.Stats.InputBytes = len(input)

	renderKey := r.Keyer.RenderKey(result.InputHash, opts.RenderKeyOpts())
	if data, ok := r.lookup(ctx, renderKey, keyTypeRender, opts.Refresh); ok {
		result.Output = data
		result.Stats.OutputSize = int64(len(data))
		result.CacheInfo.RenderHit = true
		r.Logger.Debug("render cache hit", "bytes", len(data))
		return result, nil
	}

	// Stage 1: Parse
	parseStart := time.Now()
	tree, treeHit, err := r.parse(ctx, input, result.InputHash, opts)
	if err != nil {
		return nil, err
	}
	result.Tree = tree
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.NodeCount = tree.Count()
	result.CacheInfo.TreeHit = treeHit

	r.Logger.Debug("parsed input",
		"nodes", result.Stats.NodeCount,
		"cached", treeHit,
		"duration", result.Stats.ParseTime)

	// Stage 2: Render
	renderStart := time.Now()
	out, _, err := Render(ctx, tree, opts)
	if err != nil {
		return nil, err
	}
	result.Output = out
	result.Stats.RenderTime = time.Since(renderStart)
	result.Stats.OutputSize = int64(len(out))
	r.store(ctx, renderKey, keyTypeRender, out)

	r.Logger.Debug("rendered output",
		"style", opts.Style,
		"bytes", len(out),
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Parse decodes input with caching. The boolean reports a cache hit.
func (r *Runner) Parse(ctx context.Context, input []byte, opts Options) (*dom.Node, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForParse(); err != nil {
		return nil, false, err
	}
	return r.parse(ctx, input, cache.Hash(input), opts)
}

func (r *Runner) parse(ctx context.Context, input []byte, inputHash string, opts Options) (*dom.Node, bool, error) {
	key := r.Keyer.TreeKey(inputHash, opts.TreeKeyOpts())
	if data, ok := r.lookup(ctx, key, keyTypeTree, opts.Refresh); ok {
		tree, err := nwio.ReadJSON(bytes.NewReader(data))
		if err == nil {
			return tree, true, nil
		}
		// Unreadable entries are replaced below.
		r.Logger.Debug("discarding cached tree", "err", err)
	}

	tree, err := Parse(ctx, input, opts)
	if err != nil {
		return nil, false, err
	}
	var buf bytes.Buffer
	if err := nwio.WriteJSON(tree, &buf); err == nil {
		r.store(ctx, key, keyTypeTree, buf.Bytes())
	}
	return tree, false, nil
}

func (r *Runner) lookup(ctx context.Context, key, keyType string, refresh bool) ([]byte, bool) {
	if refresh {
		return nil, false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "type", keyType, "err", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) store(ctx context.Context, key, keyType string, data []byte) {
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
