package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports every event as a debug line on Logger.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks creates hooks logging to l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{Logger: l.WithPrefix("hooks")}
}

// Install registers h for every hook category.
func (h *LogHooks) Install() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnParseStart(_ context.Context, format string, inputSize int) {
	h.Logger.Debug("parse start", "format", format, "bytes", inputSize)
}

func (h *LogHooks) OnParseComplete(_ context.Context, format string, nodeCount int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("parse failed", "format", format, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("parse done", "format", format, "nodes", nodeCount, "duration", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, style string, nodeCount int) {
	h.Logger.Debug("render start", "style", style, "nodes", nodeCount)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, style string, bytes int64, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("render failed", "style", style, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("render done", "style", style, "bytes", bytes, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.Logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.Logger.Debug("response", "method", method, "route", route, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, route string, err error) {
	h.Logger.Debug("request failed", "method", method, "route", route, "err", err)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
