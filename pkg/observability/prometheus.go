package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusHooks records search, pipeline, cache and HTTP events as
// Prometheus metrics. It implements every hook interface in this package.
type PrometheusHooks struct {
	searchesTotal     *prometheus.CounterVec
	searchDuration    prometheus.Histogram
	searchExpansions  prometheus.Histogram
	searchChainLength prometheus.Histogram

	stageDuration  *prometheus.HistogramVec
	stageErrors    *prometheus.CounterVec
	layoutOutcomes *prometheus.CounterVec

	cacheEvents   *prometheus.CounterVec
	cacheSetBytes *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInFlight        prometheus.Gauge
}

// NewPrometheusHooks registers the bpcgraph metrics with reg.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	f := promauto.With(reg)
	return &PrometheusHooks{
		searchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bpcgraph_searches_total",
			Help: "Transformer runs by outcome",
		}, []string{"outcome"}),
		searchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bpcgraph_search_duration_seconds",
			Help:    "Transformer run latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		searchExpansions: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bpcgraph_search_expansions",
			Help:    "Nodes expanded per transformer run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		searchChainLength: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bpcgraph_search_chain_length",
			Help:    "Operations in solved chains",
			Buckets: prometheus.LinearBuckets(0, 2, 16),
		}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bpcgraph_pipeline_stage_duration_seconds",
			Help:    "Pipeline stage latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		stageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bpcgraph_pipeline_stage_errors_total",
			Help: "Pipeline stage failures",
		}, []string{"stage"}),
		layoutOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bpcgraph_layout_runs_total",
			Help: "Layout runs by convergence",
		}, []string{"converged"}),
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bpcgraph_cache_events_total",
			Help: "Cache hits, misses and writes by key type",
		}, []string{"key_type", "event"}),
		cacheSetBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bpcgraph_cache_set_bytes_total",
			Help: "Bytes written to the cache by key type",
		}, []string{"key_type"}),
		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bpcgraph_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bpcgraph_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "bpcgraph_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		}),
	}
}

// Register installs h as the search, pipeline, cache and HTTP hooks.
func (h *PrometheusHooks) Register() {
	SetSearchHooks(h)
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *PrometheusHooks) OnSearchStart(context.Context, int, int) {}

func (h *PrometheusHooks) OnSearchComplete(_ context.Context, o SearchOutcome) {
	outcome := "failed"
	if o.Solved {
		outcome = "solved"
		h.searchChainLength.Observe(float64(o.ChainLen))
	}
	h.searchesTotal.WithLabelValues(outcome).Inc()
	h.searchDuration.Observe(o.Duration.Seconds())
	h.searchExpansions.Observe(float64(o.Expansions))
}

func (h *PrometheusHooks) OnTransformStart(context.Context, int, int) {}

func (h *PrometheusHooks) OnTransformComplete(_ context.Context, d time.Duration, err error) {
	h.observeStage("transform", d, err)
}

func (h *PrometheusHooks) OnLayoutStart(context.Context, int) {}

func (h *PrometheusHooks) OnLayoutComplete(_ context.Context, _ int, converged bool, d time.Duration, err error) {
	h.observeStage("layout", d, err)
	if err == nil {
		h.layoutOutcomes.WithLabelValues(strconv.FormatBool(converged)).Inc()
	}
}

func (h *PrometheusHooks) OnRenderStart(context.Context, []string) {}

func (h *PrometheusHooks) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	h.observeStage("render", d, err)
}

func (h *PrometheusHooks) observeStage(stage string, d time.Duration, err error) {
	h.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		h.stageErrors.WithLabelValues(stage).Inc()
	}
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheEvents.WithLabelValues(keyType, "set").Inc()
	h.cacheSetBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *PrometheusHooks) OnRequest(context.Context, string, string) {
	h.httpInFlight.Inc()
}

func (h *PrometheusHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.httpInFlight.Dec()
	h.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
