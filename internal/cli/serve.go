package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bpcgraph/internal/server"
	"github.com/matzehuels/bpcgraph/pkg/cache"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
	"github.com/matzehuels/bpcgraph/pkg/observability"
	"github.com/matzehuels/bpcgraph/pkg/pipeline"
)

// Cache backends selectable with --cache.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendMongo = "mongo"
	backendNone  = "none"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr            string
	backend         string
	redisURL        string
	mongoURI        string
	mongoDatabase   string
	mongoCollection string
	keyPrefix       string
	maxBodyBytes    int64
	requestTimeout  time.Duration
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	o := serveOpts{
		addr:            server.DefaultAddr,
		backend:         backendFile,
		redisURL:        "redis://localhost:6379/0",
		mongoURI:        "mongodb://localhost:27017",
		mongoDatabase:   cache.DefaultMongoDatabase,
		mongoCollection: cache.DefaultMongoCollection,
		maxBodyBytes:    server.DefaultMaxBodyBytes,
		requestTimeout:  server.DefaultRequestTimeout,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API exposing transform, layout, render and the full pipeline.

Results are cached in the local cache directory by default. Use --cache
redis or --cache mongo to share a cache between several servers, and
--key-prefix to keep their entries apart. Prometheus metrics are served
on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), o)
		},
	}

	cmd.Flags().StringVar(&o.addr, "addr", o.addr, "listen address")
	cmd.Flags().StringVar(&o.backend, "cache", o.backend, "cache backend: file, redis, mongo, none")
	cmd.Flags().StringVar(&o.redisURL, "redis-url", o.redisURL, "Redis URL (--cache redis)")
	cmd.Flags().StringVar(&o.mongoURI, "mongo-uri", o.mongoURI, "MongoDB URI (--cache mongo)")
	cmd.Flags().StringVar(&o.mongoDatabase, "mongo-db", o.mongoDatabase, "MongoDB database (--cache mongo)")
	cmd.Flags().StringVar(&o.mongoCollection, "mongo-collection", o.mongoCollection, "MongoDB collection (--cache mongo)")
	cmd.Flags().StringVar(&o.keyPrefix, "key-prefix", "", "prefix for every cache key")
	cmd.Flags().Int64Var(&o.maxBodyBytes, "max-body", o.maxBodyBytes, "maximum request body size in bytes")
	cmd.Flags().DurationVar(&o.requestTimeout, "timeout", o.requestTimeout, "per-request timeout")

	return cmd
}

// openBackend connects the cache backend named by o.backend.
func (c *CLI) openBackend(ctx context.Context, o serveOpts) (cache.Cache, error) {
	switch o.backend {
	case backendFile:
		return c.newCache(false)
	case backendNone:
		return cache.NewNullCache(), nil
	case backendRedis:
		return cache.NewRedisCache(ctx, o.redisURL)
	case backendMongo:
		return cache.NewMongoCache(ctx, o.mongoURI, o.mongoDatabase, o.mongoCollection)
	}
	return nil, apperr.New(apperr.ErrCodeInvalidInput, "unknown cache backend %q (want file, redis, mongo or none)", o.backend)
}

// runServe wires metrics, the cache and the runner into a server and blocks
// until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, o serveOpts) error {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	backend, err := c.openBackend(connectCtx, o)
	cancel()
	if err != nil {
		return fmt.Errorf("open %s cache: %w", o.backend, err)
	}

	var keyer cache.Keyer
	if o.keyPrefix != "" {
		keyer = cache.NewScopedKeyer(nil, o.keyPrefix)
	}
	runner := pipeline.NewRunner(backend, keyer, c.Logger)
	defer runner.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observability.NewPrometheusHooks(reg).Register()
	defer observability.Reset()

	srv := server.New(runner, server.Config{
		Addr:           o.addr,
		MaxBodyBytes:   o.maxBodyBytes,
		RequestTimeout: o.requestTimeout,
		Gatherer:       reg,
		Logger:         c.Logger,
	})

	printDetail("Cache: %s", o.backend)
	return srv.ListenAndServe(ctx)
}
