package cli

import (
	"os"
	"strings"
	"testing"
)

func TestCachePathCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path error = %v", err)
	}
	if got := strings.TrimSpace(out); !strings.HasPrefix(got, dir) || !strings.HasSuffix(got, appName) {
		t.Errorf("cache path = %q", got)
	}
}

func TestCacheClearCommand(t *testing.T) {
	path := writeProblem(t)
	if _, err := execute(t, "transform", path); err != nil {
		t.Fatalf("transform error = %v", err)
	}

	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) == 0 {
		t.Fatal("transform left no cache entries")
	}

	if _, err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear error = %v", err)
	}
	entries, _ = os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("%d entries left after clear", len(entries))
	}
}

func TestCacheStatsAndKindClear(t *testing.T) {
	path := writeProblem(t)
	if _, err := execute(t, "transform", path); err != nil {
		t.Fatalf("transform error = %v", err)
	}

	out := captureOutput(t)
	if _, err := execute(t, "cache", "stats"); err != nil {
		t.Fatalf("cache stats error = %v", err)
	}
	if !strings.Contains(out.String(), "transform") {
		t.Errorf("stats output %q lacks transform count", out.String())
	}

	if _, err := execute(t, "cache", "clear", "--kind", "layout"); err != nil {
		t.Fatalf("cache clear --kind layout error = %v", err)
	}
	fc, ok, err := openFileCache()
	if err != nil || !ok {
		t.Fatalf("openFileCache = %v, %v", ok, err)
	}
	if st, _ := fc.Stats(); st.Entries["transform"] != 1 {
		t.Errorf("clearing layouts removed transforms: %v", st.Entries)
	}

	if _, err := execute(t, "cache", "clear", "--kind", "bogus"); err == nil {
		t.Error("cache clear accepted an unknown kind")
	}
	if _, err := execute(t, "cache", "prune"); err != nil {
		t.Errorf("cache prune error = %v", err)
	}
}
