//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Run with:
//
//	BPCGRAPH_TEST_REDIS=redis://localhost:6379/0 \
//	BPCGRAPH_TEST_MONGO=mongodb://localhost:27017 \
//	go test -tags integration ./pkg/cache/

func backends(t *testing.T) map[string]Cache {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out := map[string]Cache{}
	if url := os.Getenv("BPCGRAPH_TEST_REDIS"); url != "" {
		c, err := NewRedisCache(ctx, url)
		if err != nil {
			t.Fatalf("NewRedisCache: %v", err)
		}
		out["redis"] = c
	}
	if uri := os.Getenv("BPCGRAPH_TEST_MONGO"); uri != "" {
		c, err := NewMongoCache(ctx, uri, "bpcgraph_test", "cache_"+uuid.NewString()[:8])
		if err != nil {
			t.Fatalf("NewMongoCache: %v", err)
		}
		out["mongo"] = c
	}
	if len(out) == 0 {
		t.Skip("no BPCGRAPH_TEST_REDIS or BPCGRAPH_TEST_MONGO configured")
	}
	return out
}

func TestBackendRoundTrip(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer c.Close()
			ctx := context.Background()
			key := "test:" + uuid.NewString()

			if _, hit, err := c.Get(ctx, key); hit || err != nil {
				t.Fatalf("Get before Set: hit=%v err=%v", hit, err)
			}
			if err := c.Set(ctx, key, []byte("value"), time.Minute); err != nil {
				t.Fatalf("Set: %v", err)
			}
			data, hit, err := c.Get(ctx, key)
			if err != nil || !hit || string(data) != "value" {
				t.Fatalf("Get = %q, %v, %v", data, hit, err)
			}
			if err := c.Set(ctx, key, []byte("other"), 0); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			if data, _, _ := c.Get(ctx, key); string(data) != "other" {
				t.Errorf("overwrite not visible: %q", data)
			}
			if err := c.Delete(ctx, key); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, hit, _ := c.Get(ctx, key); hit {
				t.Error("entry survived Delete")
			}
		})
	}
}

func TestBackendExpiry(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer c.Close()
			ctx := context.Background()
			key := "test:" + uuid.NewString()

			if err := c.Set(ctx, key, []byte("short"), time.Second); err != nil {
				t.Fatalf("Set: %v", err)
			}
			time.Sleep(1500 * time.Millisecond)
			if _, hit, _ := c.Get(ctx, key); hit {
				t.Error("expired entry returned")
			}
		})
	}
}
