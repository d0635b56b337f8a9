// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends to the search and layout packages.
// Consumers register hooks at startup to receive events about searches,
// pipeline stages, cache operations, and served HTTP requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// [PrometheusHooks] implements every interface on top of a Prometheus
// registry, and [StartSpan] opens OpenTelemetry spans for pipeline stages.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    prom := observability.NewPrometheusHooks(prometheus.NewRegistry())
//	    observability.SetSearchHooks(prom)
//	    observability.SetCacheHooks(prom)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Search().OnSearchStart(ctx, boxes, pins)
//	// ... run A* ...
//	observability.Search().OnSearchComplete(ctx, outcome)
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// Search Hooks
// =============================================================================

// SearchOutcome summarizes a finished transformer run.
type SearchOutcome struct {
	Solved     bool
	Expansions int
	Generated  int
	GCost      float64
	ChainLen   int
	Duration   time.Duration
	Err        error
}

// SearchHooks receives events from the graph transformer.
type SearchHooks interface {
	// OnSearchStart is called once before the first expansion.
	OnSearchStart(ctx context.Context, boxes, pins int)

	// OnSearchComplete is called once when the run reaches a terminal state.
	OnSearchComplete(ctx context.Context, outcome SearchOutcome)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the transform → layout → render pipeline.
type PipelineHooks interface {
	// Transform events
	OnTransformStart(ctx context.Context, boxes, pins int)
	OnTransformComplete(ctx context.Context, duration time.Duration, err error)

	// Layout events
	OnLayoutStart(ctx context.Context, boxes int)
	OnLayoutComplete(ctx context.Context, iterations int, converged bool, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
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

// HTTPHooks receives events from the HTTP API server.
type HTTPHooks interface {
	// OnRequest records an incoming request before it is handled.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records the response written for a request.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSearchHooks is a no-op implementation of SearchHooks.
type NoopSearchHooks struct{}

func (NoopSearchHooks) OnSearchStart(context.Context, int, int)         {}
func (NoopSearchHooks) OnSearchComplete(context.Context, SearchOutcome) {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnTransformStart(context.Context, int, int)                        {}
func (NoopPipelineHooks) OnTransformComplete(context.Context, time.Duration, error)         {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, int)                                {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, int, bool, time.Duration, error) {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                           {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error)  {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// hookSet is swapped as a whole so readers never see a half-registered set.
type hookSet struct {
	search   SearchHooks
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
}

func noopHooks() *hookSet {
	return &hookSet{NoopSearchHooks{}, NoopPipelineHooks{}, NoopCacheHooks{}, NoopHTTPHooks{}}
}

var (
	current atomic.Pointer[hookSet]
	writeMu sync.Mutex // serializes copy-on-write updates
)

func init() { current.Store(noopHooks()) }

func update(fn func(*hookSet)) {
	writeMu.Lock()
	defer writeMu.Unlock()
	next := *current.Load()
	fn(&next)
	current.Store(&next)
}

// SetSearchHooks registers search hooks. Nil is ignored. Register hooks at
// startup, before the first search.
func SetSearchHooks(h SearchHooks) {
	if h != nil {
		update(func(s *hookSet) { s.search = h })
	}
}

// SetPipelineHooks registers pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		update(func(s *hookSet) { s.pipeline = h })
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(s *hookSet) { s.cache = h })
	}
}

// SetHTTPHooks registers HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(s *hookSet) { s.http = h })
	}
}

func Search() SearchHooks     { return current.Load().search }
func Pipeline() PipelineHooks { return current.Load().pipeline }
func Cache() CacheHooks       { return current.Load().cache }
func HTTP() HTTPHooks         { return current.Load().http }

// Reset restores the no-op hooks. The serve command calls it on shutdown so
// a later server in the same process starts clean.
func Reset() {
	writeMu.Lock()
	defer writeMu.Unlock()
	current.Store(noopHooks())
}
