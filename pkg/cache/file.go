package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileCache stores one JSON file per entry, fanned out into subdirectories
// by the first two hex digits of the key hash. Every file records its key
// type so entries can be counted and cleared per stage.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache opens a cache rooted at dir, creating it if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

// DefaultDir returns $XDG_CACHE_HOME/bpcgraph, falling back to the
// platform user cache directory.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "bpcgraph"), nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "bpcgraph"), nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

type fileEntry struct {
	Type      string    `json:"type"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	Data      []byte    `json:"data"`
}

func (e fileEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Get implements Cache. Expired and undecodable entries are removed and
// reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	e, err := readFileEntry(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil || e.expired(c.now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set implements Cache. A ttl of zero never expires.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := c.now()
	e := fileEntry{Type: KeyType(key), StoredAt: now, Data: data}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	// Each writer gets its own temp file and renames it into place, so
	// readers and concurrent writers of the same key never see half an entry.
	tmp, err := os.CreateTemp(filepath.Dir(path), "*.tmp")
	if err != nil {
		return err
	}
	_, werr := tmp.Write(raw)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Delete implements Cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Close implements Cache.
func (c *FileCache) Close() error { return nil }

// FileStats summarizes the entries of a FileCache.
type FileStats struct {
	// Entries counts live entries per key type.
	Entries map[string]int
	// Expired counts entries past their expiry that were not yet removed.
	Expired int
	// Bytes is the total size of all entry files.
	Bytes int64
}

// Total returns the number of live entries.
func (s FileStats) Total() int {
	var n int
	for _, v := range s.Entries {
		n += v
	}
	return n
}

// Stats walks the cache and counts its entries.
func (c *FileCache) Stats() (FileStats, error) {
	st := FileStats{Entries: map[string]int{}}
	now := c.now()
	err := c.walk(func(path string, info fs.FileInfo, e fileEntry) error {
		st.Bytes += info.Size()
		if e.expired(now) {
			st.Expired++
			return nil
		}
		st.Entries[e.Type]++
		return nil
	})
	return st, err
}

// Clear removes every entry and returns how many were removed.
func (c *FileCache) Clear() (int, error) {
	return c.remove(func(fileEntry) bool { return true })
}

// ClearType removes the entries of one key type ("transform", "layout" or
// "artifact") and returns how many were removed.
func (c *FileCache) ClearType(keyType string) (int, error) {
	return c.remove(func(e fileEntry) bool { return e.Type == keyType })
}

// Prune removes expired and undecodable entries.
func (c *FileCache) Prune() (int, error) {
	now := c.now()
	return c.remove(func(e fileEntry) bool { return e.expired(now) })
}

func (c *FileCache) remove(match func(fileEntry) bool) (int, error) {
	var n int
	err := c.walk(func(path string, _ fs.FileInfo, e fileEntry) error {
		if !match(e) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, err
	}
	c.removeEmptyDirs()
	return n, nil
}

// removeEmptyDirs drops fan-out directories left empty. os.Remove refuses
// non-empty directories, so errors are ignored.
func (c *FileCache) removeEmptyDirs() {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			_ = os.Remove(filepath.Join(c.dir, e.Name()))
		}
	}
}

// walk calls fn for every entry file. Undecodable files are removed on the
// way and not passed to fn.
func (c *FileCache) walk(fn func(path string, info fs.FileInfo, e fileEntry) error) error {
	return filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		e, err := readFileEntry(path)
		if err != nil {
			return os.Remove(path)
		}
		return fn(path, info, e)
	})
}

func readFileEntry(path string) (fileEntry, error) {
	var e fileEntry
	raw, err := os.ReadFile(path)
	if err != nil {
		return e, err
	}
	err = json.Unmarshal(raw, &e)
	return e, err
}

func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, h[:2], h[2:]+".json")
}

var _ Cache = (*FileCache)(nil)
