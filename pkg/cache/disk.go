package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const (
	tmpPrefix    = ".tmp-"
	lockSuffix   = ".lock"
	lockRetry    = 50 * time.Millisecond
	defaultPerms = 0o755
)

// DiskCache stores one file per key at <root>/qrcode/<key>, holding the
// fetched bytes exactly as received.
//
// Writes go to a temporary file in the same directory and are renamed into
// place, so a reader never observes a partially written entry and two
// concurrent writers of the same key simply race to the final rename.
type DiskCache struct {
	root string
	dir  string
}

// NewDiskCache creates a disk cache rooted at root. The qrcode
// subdirectory is created lazily on first write.
func NewDiskCache(root string) (*DiskCache, error) {
	if root == "" {
		return nil, errors.New("cache root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve cache root: %w", err)
	}
	return &DiskCache{root: abs, dir: filepath.Join(abs, Dir)}, nil
}

// Root returns the absolute cache root directory.
func (c *DiskCache) Root() string { return c.root }

// Dir returns the directory holding entries (<root>/qrcode).
func (c *DiskCache) Dir() string { return c.dir }

// Path returns the file path for key.
func (c *DiskCache) Path(key Key) string {
	return filepath.Join(c.dir, string(key))
}

// Exists reports whether a regular file is present for key.
func (c *DiskCache) Exists(_ context.Context, key Key) bool {
	if !key.Valid() {
		return false
	}
	info, err := os.Stat(c.Path(key))
	return err == nil && info.Mode().IsRegular()
}

// Read returns the entry for key.
func (c *DiskCache) Read(_ context.Context, key Key) ([]byte, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("invalid cache key %q", key)
	}
	data, err := os.ReadFile(c.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write stores data under key, creating missing parent directories and
// silently replacing an existing entry.
func (c *DiskCache) Write(_ context.Context, key Key, data []byte) error {
	if !key.Valid() {
		return fmt.Errorf("invalid cache key %q", key)
	}
	if err := os.MkdirAll(c.dir, defaultPerms); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, tmpPrefix+string(key)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	_, err = tmp.Write(data)
	closeErr := tmp.Close()
	if err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, c.Path(key)); err != nil {
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

// Delete removes the entry for key.
func (c *DiskCache) Delete(_ context.Context, key Key) error {
	if !key.Valid() {
		return fmt.Errorf("invalid cache key %q", key)
	}
	err := os.Remove(c.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Close does nothing for the disk cache.
func (c *DiskCache) Close() error { return nil }

// Stats summarizes the entries currently on disk.
type Stats struct {
	Entries int
	Bytes   int64
}

// Stats walks the cache directory and counts entries. Temporary files from
// in-flight writes are skipped.
func (c *DiskCache) Stats() (Stats, error) {
	var s Stats
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || !Key(e.Name()).Valid() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		s.Entries++
		s.Bytes += info.Size()
	}
	return s, nil
}

// Clear removes every entry and stale temporary file. It holds an
// exclusive file lock on <root>/qrcode.lock so that two clears never
// interleave; ordinary reads and writes do not take the lock.
func (c *DiskCache) Clear(ctx context.Context) (int, error) {
	if err := os.MkdirAll(c.root, defaultPerms); err != nil {
		return 0, err
	}
	lock := flock.New(filepath.Join(c.root, Dir+lockSuffix))
	locked, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return 0, fmt.Errorf("lock cache: %w", err)
	}
	if !locked {
		return 0, errors.New("cache is locked by another process")
	}
	defer lock.Unlock()

	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			continue
		}
		if !strings.HasPrefix(e.Name(), tmpPrefix) {
			count++
		}
	}
	return count, nil
}

// Ensure DiskCache implements Cache.
var _ Cache = (*DiskCache)(nil)
