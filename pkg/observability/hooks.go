// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through the registered hooks; which backend receives
// them (logs, Prometheus, OpenTelemetry) is decided once by main. Nothing in
// the library imports a metrics framework.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetGridHooks(observability.NewLogGridHooks(logger))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Grid().OnGridStart(ctx, runID, cellCount, technique)
//	// ... cull every cell ...
//	observability.Grid().OnGridComplete(ctx, runID, cellCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// =============================================================================
// Grid Hooks
// =============================================================================

// CellEvent describes one culled cell.
type CellEvent struct {
	RunID    string
	Index    int
	In       int
	Out      int
	Failed   int
	Cached   bool
	Duration time.Duration
}

// GridHooks receives events from a gridding run.
type GridHooks interface {
	OnGridStart(ctx context.Context, runID string, cells int, technique string)
	OnCellComplete(ctx context.Context, ev CellEvent)
	OnGridComplete(ctx context.Context, runID string, cells int, duration time.Duration, err error)
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

// HTTPHooks receives events from the HTTP server.
type HTTPHooks interface {
	// OnRequest records a served request. route is the matched pattern, not
	// the raw path.
	OnRequest(ctx context.Context, method, route string, status int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGridHooks is a no-op implementation of GridHooks.
type NoopGridHooks struct{}

func (NoopGridHooks) OnGridStart(context.Context, string, int, string)                   {}
func (NoopGridHooks) OnCellComplete(context.Context, CellEvent)                          {}
func (NoopGridHooks) OnGridComplete(context.Context, string, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Log Implementations
// =============================================================================

// LogGridHooks writes grid events to a logger at debug level.
type LogGridHooks struct {
	Logger *log.Logger
}

// NewLogGridHooks returns grid hooks logging to l.
func NewLogGridHooks(l *log.Logger) *LogGridHooks {
	return &LogGridHooks{Logger: l}
}

func (h *LogGridHooks) OnGridStart(_ context.Context, runID string, cells int, technique string) {
	h.Logger.Debug("grid start", "run", runID, "cells", cells, "technique", technique)
}

func (h *LogGridHooks) OnCellComplete(_ context.Context, ev CellEvent) {
	h.Logger.Debug("cell done",
		"run", ev.RunID,
		"cell", ev.Index,
		"in", ev.In,
		"out", ev.Out,
		"failed", ev.Failed,
		"cached", ev.Cached,
		"took", ev.Duration)
}

func (h *LogGridHooks) OnGridComplete(_ context.Context, runID string, cells int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("grid failed", "run", runID, "cells", cells, "took", d, "err", err)
		return
	}
	h.Logger.Debug("grid complete", "run", runID, "cells", cells, "took", d)
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	gridHooks  GridHooks  = NoopGridHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetGridHooks registers custom grid hooks.
// This should be called once at application startup before any run.
func SetGridHooks(h GridHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		gridHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Grid returns the registered grid hooks.
func Grid() GridHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return gridHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	gridHooks = NoopGridHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
