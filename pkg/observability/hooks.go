// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about parsing, rendering, cache operations and API requests.
//
// # Architecture
//
// Each event category has a hook interface with a no-op default.
// Hooks are registered by main, never by libraries, so pkg/pipeline and
// internal/server only depend on this package.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnParseStart(ctx, "xml", len(input))
//	// ... do parsing ...
//	observability.Pipeline().OnParseComplete(ctx, "xml", nodeCount, duration, err)
//
// [LogHooks] implements every hook interface on top of a charmbracelet
// logger; the CLI installs it when --verbose is set.
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the parse and render stages.
type PipelineHooks interface {
	// Parse events
	OnParseStart(ctx context.Context, format string, inputSize int)
	OnParseComplete(ctx context.Context, format string, nodeCount int, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, style string, nodeCount int)
	OnRenderComplete(ctx context.Context, style string, bytes int64, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records a completed response.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)

	// OnError records a request that failed with an error response.
	OnError(ctx context.Context, method, route string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnParseStart(context.Context, string, int) {}
func (NoopPipelineHooks) OnParseComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnRenderStart(context.Context, string, int) {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, int64, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// registry holds the installed hooks. Readers copy it under the read
// lock.
type registry struct {
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
}

var (
	hooksMu sync.RWMutex
	current = defaults()
)

func defaults() registry {
	return registry{NoopPipelineHooks{}, NoopCacheHooks{}, NoopHTTPHooks{}}
}

func update(fn func(*registry)) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	fn(&current)
}

func snapshot() registry {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return current
}

// SetPipelineHooks registers pipeline hooks. A nil h is ignored.
// Call it at startup, before any parse or render runs.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		update(func(r *registry) { r.pipeline = h })
	}
}

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(r *registry) { r.cache = h })
	}
}

// SetHTTPHooks registers HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(r *registry) { r.http = h })
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks { return snapshot().pipeline }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return snapshot().cache }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return snapshot().http }

// Reset restores the no-op hooks. Tests and the CLI (when --verbose is
// off) use it.
func Reset() {
	update(func(r *registry) { *r = defaults() })
}
