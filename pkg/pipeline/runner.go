package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/cache"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
	"github.com/matzehuels/bpcgraph/pkg/graph"
	"github.com/matzehuels/bpcgraph/pkg/observability"
	"github.com/matzehuels/bpcgraph/pkg/ops"
	"github.com/matzehuels/bpcgraph/pkg/similarity"
	"github.com/matzehuels/bpcgraph/pkg/transformer"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// The cache is wrapped so hits and misses reach the observability hooks.
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
		Cache:  cache.Observed(c),
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete transform → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	runID := uuid.NewString()
	opts.Logger = opts.Logger.With("run", runID)
	result := &Result{
		RunID:     runID,
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Transform
	transformStart := time.Now()
	sol, transformHit, err := r.TransformWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	sol.RunID = runID
	result.Solution = sol
	result.Stats.TransformTime = time.Since(transformStart)
	result.Stats.Operations = len(sol.Operations)
	result.CacheInfo.TransformHit = transformHit

	opts.Logger.Info("transformed graph",
		"solved", sol.Solved,
		"operations", len(sol.Operations),
		"gcost", sol.GCost,
		"cached", transformHit,
		"duration", result.Stats.TransformTime)

	g := sol.FinalGraph
	if opts.AdoptTargetIDs && sol.Solved {
		mode, _ := similarity.ParseNetworkMode(opts.Problem.NetworkMode)
		g, err = transformer.AdoptTargetIDs(g, opts.Problem.TargetGraph, similarity.WithNetworkMode(mode))
		if err != nil {
			return nil, fmt.Errorf("adopt target ids: %w", err)
		}
	}
	result.Stats.Boxes = len(g.Boxes)
	result.Stats.Pins = len(g.Pins)

	// Stage 2: Layout
	if !opts.SkipLayout {
		layoutStart := time.Now()
		l, layoutHit, err := r.LayoutWithCacheInfo(ctx, g, opts)
		if err != nil {
			return nil, fmt.Errorf("layout: %w", err)
		}
		l.RunID = runID
		result.Layout = l
		result.Stats.LayoutTime = time.Since(layoutStart)
		result.CacheInfo.LayoutHit = layoutHit
		g = l.Graph

		opts.Logger.Info("computed layout",
			"iterations", l.Iterations,
			"converged", l.Converged,
			"duration", result.Stats.LayoutTime)
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, sol.Operations, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// TransformWithCacheInfo runs the search with caching and returns cache hit info.
// Cancelled runs are never cached.
func (r *Runner) TransformWithCacheInfo(ctx context.Context, opts Options) (sol graph.Solution, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForTransform(); err != nil {
		return graph.Solution{}, false, err
	}

	p := opts.Problem
	ctx, end := observability.StartSpan(ctx, "pipeline.transform",
		attribute.Int("boxes", len(p.InitialGraph.Boxes)),
		attribute.Int("pins", len(p.InitialGraph.Pins)))
	defer func() { end(err) }()

	problemData, err := graph.MarshalProblem(p)
	if err != nil {
		return graph.Solution{}, false, err
	}
	cacheKey := r.Keyer.TransformKey(cache.Hash(problemData))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if cerr := cache.GetJSON(ctx, r.Cache, cacheKey, &sol); cerr == nil {
			return sol, true, nil // Cache hit
		} else if !errors.Is(cerr, cache.ErrCacheMiss) {
			opts.Logger.Debug("cache read failed", "key", cacheKey, "err", cerr)
		}
	}

	hooks := observability.Pipeline()
	hooks.OnTransformStart(ctx, len(p.InitialGraph.Boxes), len(p.InitialGraph.Pins))
	start := time.Now()
	sol, err = Transform(ctx, opts)
	hooks.OnTransformComplete(ctx, time.Since(start), err)
	if err != nil {
		return sol, false, err
	}

	if serr := cache.SetJSON(ctx, r.Cache, cacheKey, sol, cache.TransformTTL); serr != nil {
		opts.Logger.Debug("cache write failed", "key", cacheKey, "err", serr)
	}
	return sol, false, nil // Cache miss
}

// Transform is a convenience wrapper that calls TransformWithCacheInfo and discards the cache hit info.
func (r *Runner) Transform(ctx context.Context, opts Options) (graph.Solution, error) {
	sol, _, err := r.TransformWithCacheInfo(ctx, opts)
	return sol, err
}

// LayoutWithCacheInfo lays out g with caching and returns cache hit info.
//
// The key hashes the serialized graph rather than its signature: the
// simulation depends on box and pin order, which signatures ignore.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g bpc.Graph, opts Options) (l graph.Layout, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, false, err
	}

	ctx, end := observability.StartSpan(ctx, "pipeline.layout", attribute.Int("boxes", len(g.Boxes)))
	defer func() { end(err) }()

	graphData, err := graph.MarshalGraph(g)
	if err != nil {
		return graph.Layout{}, false, err
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(graphData), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, ok, cerr := r.Cache.Get(ctx, cacheKey); cerr == nil && ok {
			if cached, uerr := graph.UnmarshalLayout(data); uerr == nil {
				return cached, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
		}
	}

	l, err = Layout(ctx, g, opts)
	if err != nil {
		return graph.Layout{}, false, err
	}

	if data, merr := graph.MarshalLayout(l); merr == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.LayoutTTL)
	}
	return l, false, nil // Cache miss
}

// LayoutGraph is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) LayoutGraph(ctx context.Context, g bpc.Graph, opts Options) (graph.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, g, opts)
	return l, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
// The hit flag is set only when every requested format came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g bpc.Graph, chain []ops.Operation, opts Options) (artifacts map[string][]byte, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	ctx, end := observability.StartSpan(ctx, "pipeline.render",
		attribute.StringSlice("formats", opts.Formats),
		attribute.Int("boxes", len(g.Boxes)))
	defer func() { end(err) }()

	graphData, err := graph.MarshalGraph(g)
	if err != nil {
		return nil, false, err
	}
	graphHash := cache.Hash(graphData)
	chainHash := ""
	if len(chain) > 0 {
		chainData, _ := json.Marshal(chain)
		chainHash = cache.Hash(chainData)
	}
	keyFor := func(format string) string {
		return r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(format, chainHash))
	}

	// Try to get all formats from cache
	if !opts.Refresh {
		cached := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, ok, cerr := r.Cache.Get(ctx, keyFor(format))
			if cerr != nil || !ok {
				break
			}
			cached[format] = data
		}
		if len(cached) == len(uniqueFormats(opts.Formats)) {
			return cached, true, nil // All artifacts from cache
		}
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	artifacts, err = Render(ctx, g, chain, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range artifacts {
		_ = r.Cache.Set(ctx, keyFor(format), data, cache.ArtifactTTL)
	}
	return artifacts, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g bpc.Graph, chain []ops.Operation, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, chain, opts)
	return artifacts, err
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

func uniqueFormats(formats []string) map[string]bool {
	seen := make(map[string]bool, len(formats))
	for _, f := range formats {
		seen[f] = true
	}
	return seen
}

// IsCancelled reports whether err stems from a cancelled context.
func IsCancelled(err error) bool {
	return apperr.Is(err, apperr.ErrCodeCancelled) || errors.Is(err, context.Canceled)
}
