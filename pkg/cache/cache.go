// Package cache stores serialized transform, layout and render results.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: a Redis instance, for the HTTP server
//   - [MongoCache]: a MongoDB collection with a TTL index, for the HTTP server
//   - [NullCache]: stores nothing
//
// Wrap any backend with [Observed] to report hits and misses to the
// registered observability hooks.
//
// # Keys
//
// A [Keyer] derives keys from content hashes so identical inputs share
// entries across runs and processes:
//
//	k := cache.NewDefaultKeyer()
//	key := k.TransformKey(cache.Hash(problemJSON))
//
// [ScopedKeyer] prefixes every key for namespace isolation.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Default time-to-live values per entry type.
const (
	TransformTTL = 7 * 24 * time.Hour
	LayoutTTL    = 7 * 24 * time.Hour
	ArtifactTTL  = 24 * time.Hour
)

// keyVersion is bumped whenever the serialized form of a cached value
// changes incompatibly.
const keyVersion = "v1"

// Cache is a byte-oriented key-value store with expiration.
type Cache interface {
	// Get returns the value and true, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// TransformKey keys a transformer result by the hash of its problem.
	TransformKey(problemHash string) string
	// LayoutKey keys a layout result by the hash of its input graph.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	// ArtifactKey keys a rendered artifact by the hash of its graph.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds the layout settings that change the result.
type LayoutKeyOpts struct {
	Iterations           int     `json:"iterations"`
	SpringStiffness      float64 `json:"spring_stiffness"`
	TargetLength         float64 `json:"target_length"`
	Repulsion            float64 `json:"repulsion"`
	Damping              float64 `json:"damping"`
	StepSize             float64 `json:"step_size"`
	ConvergenceThreshold float64 `json:"convergence_threshold"`
	MinDistance          float64 `json:"min_distance"`
	MaxStep              float64 `json:"max_step"`
}

// ArtifactKeyOpts holds the render settings that change the output.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Scale     float64 `json:"scale,omitempty"`
	PinLabels bool    `json:"pin_labels,omitempty"`
	ChainHash string  `json:"chain_hash,omitempty"`
}

// DefaultKeyer produces "<kind>:<version>:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// TransformKey implements Keyer.
func (DefaultKeyer) TransformKey(problemHash string) string {
	return hashKey("transform:"+keyVersion, problemHash)
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout:"+keyVersion, graphHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+keyVersion, graphHash, opts)
}

// KeyType returns the entry type of a key produced by a Keyer: "transform",
// "layout", "artifact" or "other". Scope prefixes are skipped.
func KeyType(key string) string {
	for _, t := range []string{"transform", "layout", "artifact"} {
		if strings.Contains(key, t+":"+keyVersion+":") {
			return t
		}
	}
	return "other"
}

// GetJSON reads key and decodes it into v. It returns ErrCacheMiss on a
// miss and on entries that no longer decode, which are deleted.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.Delete(ctx, key)
		return ErrCacheMiss
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
