package cache

import (
	"context"
	"time"

	"github.com/matzehuels/bpcgraph/pkg/observability"
)

// observed reports cache traffic to the registered cache hooks.
type observed struct {
	Cache
}

// Observed wraps c so every Get reports a hit or miss and every Set reports
// its size to [observability.Cache], labelled with [KeyType].
func Observed(c Cache) Cache {
	if _, ok := c.(observed); ok {
		return c
	}
	return observed{Cache: c}
}

func (o observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := o.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, KeyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KeyType(key))
		}
	}
	return data, ok, err
}

func (o observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := o.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	}
	return err
}
