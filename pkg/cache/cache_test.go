package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestKeyFor(t *testing.T) {
	k1 := KeyFor("https://example.com/a.png")
	k2 := KeyFor("https://example.com/a.png")
	if k1 != k2 {
		t.Error("KeyFor should be deterministic")
	}

	k3 := KeyFor("https://example.com/b.png")
	if k1 == k3 {
		t.Error("different URLs should produce different keys")
	}

	if len(k1) != 16 {
		t.Errorf("key length = %d, want 16", len(k1))
	}
	if !k1.Valid() {
		t.Errorf("KeyFor() produced invalid key %q", k1)
	}
}

func TestKeyValid(t *testing.T) {
	tests := []struct {
		key  Key
		want bool
	}{
		{"0123456789abcdef", true},
		{"0123456789ABCDEF", false},
		{"../../etc/passwd", false},
		{"", false},
		{"0123456789abcde", false},
	}
	for _, tt := range tests {
		if got := tt.key.Valid(); got != tt.want {
			t.Errorf("Key(%q).Valid() = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	key := KeyFor("x")
	if err := c.Write(ctx, key, []byte("value")); err != nil {
		t.Errorf("Write error: %v", err)
	}
	if c.Exists(ctx, key) {
		t.Error("NullCache.Exists should always be false")
	}
	if _, err := c.Read(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read error = %v, want ErrNotFound", err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestDiskCacheLayout(t *testing.T) {
	root := t.TempDir()
	c, err := NewDiskCache(root)
	if err != nil {
		t.Fatalf("NewDiskCache() error: %v", err)
	}

	key := KeyFor("https://example.com/qr.png")
	want := filepath.Join(root, "qrcode", string(key))
	if got := c.Path(key); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestDiskCacheReadWrite(t *testing.T) {
	ctx := context.Background()
	c, _ := NewDiskCache(t.TempDir())
	key := KeyFor("https://example.com/qr.png")

	if c.Exists(ctx, key) {
		t.Fatal("Exists() = true before write")
	}
	if _, err := c.Read(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read() error = %v, want ErrNotFound", err)
	}

	data := []byte("\x89PNG raw bytes")
	if err := c.Write(ctx, key, data); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if !c.Exists(ctx, key) {
		t.Fatal("Exists() = false after write")
	}

	got, err := c.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Read() = %q, want %q", got, data)
	}

	// Raw bytes on disk, no wrapper.
	onDisk, _ := os.ReadFile(c.Path(key))
	if !bytes.Equal(onDisk, data) {
		t.Errorf("file contents = %q, want raw bytes", onDisk)
	}
}

func TestDiskCacheOverwrite(t *testing.T) {
	ctx := context.Background()
	c, _ := NewDiskCache(t.TempDir())
	key := KeyFor("u")

	_ = c.Write(ctx, key, []byte("old"))
	if err := c.Write(ctx, key, []byte("new")); err != nil {
		t.Fatalf("Write() overwrite error: %v", err)
	}
	got, _ := c.Read(ctx, key)
	if string(got) != "new" {
		t.Errorf("Read() = %q, want %q", got, "new")
	}
}

func TestDiskCacheCreatesMissingDirs(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b")
	c, _ := NewDiskCache(root)

	if err := c.Write(context.Background(), KeyFor("u"), []byte("x")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "qrcode")); err != nil {
		t.Errorf("qrcode dir not created: %v", err)
	}
}

func TestDiskCacheDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := NewDiskCache(t.TempDir())
	key := KeyFor("u")

	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Delete() of missing key error: %v", err)
	}

	_ = c.Write(ctx, key, []byte("x"))
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if c.Exists(ctx, key) {
		t.Error("Exists() = true after delete")
	}
}

func TestDiskCacheRejectsInvalidKey(t *testing.T) {
	ctx := context.Background()
	c, _ := NewDiskCache(t.TempDir())
	bad := Key("../escape")

	if err := c.Write(ctx, bad, []byte("x")); err == nil {
		t.Error("Write() with invalid key should fail")
	}
	if c.Exists(ctx, bad) {
		t.Error("Exists() with invalid key should be false")
	}
}

func TestDiskCacheConcurrentWritesSameKey(t *testing.T) {
	ctx := context.Background()
	c, _ := NewDiskCache(t.TempDir())
	key := KeyFor("same")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Write(ctx, key, []byte("payload")); err != nil {
				t.Errorf("Write() error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := c.Read(ctx, key)
	if err != nil || string(got) != "payload" {
		t.Errorf("Read() = %q, %v", got, err)
	}

	stats, _ := c.Stats()
	if stats.Entries != 1 {
		t.Errorf("Stats().Entries = %d, want 1 (temp files left behind?)", stats.Entries)
	}
}

func TestDiskCacheStatsAndClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewDiskCache(t.TempDir())

	stats, err := c.Stats()
	if err != nil || stats.Entries != 0 {
		t.Fatalf("Stats() on empty cache = %+v, %v", stats, err)
	}

	_ = c.Write(ctx, KeyFor("a"), []byte("12345"))
	_ = c.Write(ctx, KeyFor("b"), []byte("123"))

	stats, _ = c.Stats()
	if stats.Entries != 2 || stats.Bytes != 8 {
		t.Errorf("Stats() = %+v, want 2 entries / 8 bytes", stats)
	}

	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if n != 2 {
		t.Errorf("Clear() removed %d, want 2", n)
	}
	stats, _ = c.Stats()
	if stats.Entries != 0 {
		t.Errorf("Stats() after clear = %+v", stats)
	}
}

func TestDiskCacheClearMissingDir(t *testing.T) {
	c, _ := NewDiskCache(filepath.Join(t.TempDir(), "never-written"))
	n, err := c.Clear(context.Background())
	if err != nil || n != 0 {
		t.Errorf("Clear() = %d, %v; want 0, nil", n, err)
	}
}

func TestNewDiskCacheEmptyRoot(t *testing.T) {
	if _, err := NewDiskCache(""); err == nil {
		t.Error("NewDiskCache(\"\") should fail")
	}
}
