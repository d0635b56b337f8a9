package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/bpcgraph/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "a", []byte("alpha"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "a")
	if err != nil || !hit || string(data) != "alpha" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	// Expired entries are misses and get removed.
	if err := c.Set(ctx, "b", []byte("beta"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	c.now = func() time.Time { return time.Now().Add(time.Hour) }
	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("b")); !os.IsNotExist(err) {
		t.Error("expired entry was not removed")
	}
	c.now = time.Now

	// Corrupt entries are misses.
	if err := os.MkdirAll(filepath.Dir(c.path("c")), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("c"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "c"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}

	if err := c.Delete(ctx, "a"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if err := c.Delete(ctx, "a"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
}

// fillFileCache stores one transform, two layout and one artifact entry.
func fillFileCache(t *testing.T, c *FileCache) {
	t.Helper()
	ctx := context.Background()
	k := NewDefaultKeyer()
	keys := []string{
		k.TransformKey("p1"),
		k.LayoutKey("g1", LayoutKeyOpts{}),
		k.LayoutKey("g2", LayoutKeyOpts{}),
		k.ArtifactKey("g1", ArtifactKeyOpts{Format: "svg"}),
	}
	for _, key := range keys {
		if err := c.Set(ctx, key, []byte(key), time.Hour); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
	}
}

func TestFileCacheStats(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	fillFileCache(t, c)

	st, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Total() != 4 || st.Entries["transform"] != 1 || st.Entries["layout"] != 2 || st.Entries["artifact"] != 1 {
		t.Errorf("Stats entries = %v", st.Entries)
	}
	if st.Bytes == 0 {
		t.Error("Stats reported zero bytes")
	}

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if st, _ = c.Stats(); st.Expired != 4 || st.Total() != 0 {
		t.Errorf("after expiry: %d expired, %d live", st.Expired, st.Total())
	}
	n, err := c.Prune()
	if err != nil || n != 4 {
		t.Errorf("Prune = %d, %v, want 4", n, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	fillFileCache(t, c)

	n, err := c.ClearType("layout")
	if err != nil || n != 2 {
		t.Fatalf("ClearType(layout) = %d, %v, want 2", n, err)
	}
	if st, _ := c.Stats(); st.Entries["layout"] != 0 || st.Total() != 2 {
		t.Errorf("after ClearType: %v", st.Entries)
	}

	n, err = c.Clear()
	if err != nil || n != 2 {
		t.Fatalf("Clear = %d, %v, want 2", n, err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("%d directories left after Clear", len(entries))
	}
}

func TestFileCacheConcurrentSet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	key := NewDefaultKeyer().TransformKey("shared")

	const writers = 16
	payloads := make(map[string]bool, writers)
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := range writers {
		data := strings.Repeat(string(rune('a'+i)), 4096)
		payloads[data] = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Set(ctx, key, []byte(data), time.Hour)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Set: %v", err)
		}
	}

	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || !payloads[string(data)] {
		t.Fatalf("Get = %d bytes, hit=%v, err=%v", len(data), hit, err)
	}
	tmps, _ := filepath.Glob(filepath.Join(dir, "*", "*.tmp"))
	if len(tmps) != 0 {
		t.Errorf("temp files left behind: %v", tmps)
	}
}

func TestDefaultDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg", "bpcgraph") {
		t.Errorf("DefaultDir() = %s", dir)
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	type entry struct{ N int }
	var got entry
	if err := GetJSON(ctx, c, "k", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("GetJSON on empty cache = %v", err)
	}
	if err := SetJSON(ctx, c, "k", entry{N: 7}, time.Hour); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	if err := GetJSON(ctx, c, "k", &got); err != nil || got.N != 7 {
		t.Fatalf("GetJSON = %+v, %v", got, err)
	}

	if err := c.Set(ctx, "bad", []byte("not json"), 0); err != nil {
		t.Fatal(err)
	}
	if err := GetJSON(ctx, c, "bad", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("GetJSON on undecodable entry = %v", err)
	}
	if _, hit, _ := c.Get(ctx, "bad"); hit {
		t.Error("undecodable entry was not deleted")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
	if HashString("hello") != h1 {
		t.Error("HashString differs from Hash")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	tk := k.TransformKey("abc")
	if !strings.HasPrefix(tk, "transform:v1:") || KeyType(tk) != "transform" {
		t.Errorf("TransformKey unexpected: %s", tk)
	}
	if k.TransformKey("abc") != tk {
		t.Error("TransformKey is not deterministic")
	}

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Iterations: 100})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Iterations: 200})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}
	if KeyType(lk1) != "layout" {
		t.Errorf("KeyType(%s) = %s", lk1, KeyType(lk1))
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "dot"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
	if KeyType("random") != "other" {
		t.Error("unknown keys should have type other")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "staging:")

	key := scoped.TransformKey("abc")
	if key != "staging:"+NewDefaultKeyer().TransformKey("abc") {
		t.Errorf("ScopedKeyer TransformKey unexpected: %s", key)
	}
	if KeyType(key) != "transform" {
		t.Errorf("KeyType ignores scope prefix: %s", KeyType(key))
	}
	if lk := scoped.LayoutKey("h", LayoutKeyOpts{}); !strings.HasPrefix(lk, "staging:layout:") {
		t.Errorf("ScopedKeyer LayoutKey should be prefixed: %s", lk)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"})
	if !strings.HasPrefix(key, "prefix:artifact:v1:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets int
}

func (h *countingHooks) OnCacheHit(context.Context, string)      { h.hits++ }
func (h *countingHooks) OnCacheMiss(context.Context, string)     { h.misses++ }
func (h *countingHooks) OnCacheSet(context.Context, string, int) { h.sets++ }

func TestObserved(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := Observed(Observed(fc))

	_, _, _ = c.Get(ctx, "k")
	_ = c.Set(ctx, "k", []byte("v"), 0)
	_, _, _ = c.Get(ctx, "k")

	if hooks.hits != 1 || hooks.misses != 1 || hooks.sets != 1 {
		t.Errorf("hits=%d misses=%d sets=%d", hooks.hits, hooks.misses, hooks.sets)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrUnavailable)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrCacheMiss) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestTransient(t *testing.T) {
	if transient(nil) != nil {
		t.Error("transient(nil) should be nil")
	}
	if IsRetryable(transient(errors.New("WRONGTYPE"))) {
		t.Error("command errors are not retryable")
	}
	if !IsRetryable(transient(&timeoutErr{})) {
		t.Error("network errors are retryable")
	}
}

type timeoutErr struct{}

func (*timeoutErr) Error() string   { return "i/o timeout" }
func (*timeoutErr) Timeout() bool   { return true }
func (*timeoutErr) Temporary() bool { return true }

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	retryBaseDelay = time.Millisecond
	t.Cleanup(func() { retryBaseDelay = 200 * time.Millisecond })

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("success: err=%v calls=%d", err, calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return ErrCacheMiss
	})
	if err != ErrCacheMiss || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
