package imagefetch

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/qrfetch/pkg/async"
	"github.com/matzehuels/qrfetch/pkg/cache"
	"github.com/matzehuels/qrfetch/pkg/errors"
	"github.com/matzehuels/qrfetch/pkg/pixel"
)

// stubNet serves fixed bytes per URL and counts calls.
type stubNet struct {
	mu    sync.Mutex
	body  map[string][]byte
	err   error
	calls map[string]int
}

func newStubNet() *stubNet {
	return &stubNet{body: map[string][]byte{}, calls: map[string]int{}}
}

func (s *stubNet) FetchBinary(_ context.Context, rawURL string) <-chan async.Result[[]byte] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[rawURL]++
	if s.err != nil {
		return async.Fail[[]byte](s.err)
	}
	data, ok := s.body[rawURL]
	if !ok {
		return async.Fail[[]byte](errors.Wrap(errors.ErrCodeNetwork,
			errors.New(errors.ErrCodeNotFound, "status 404"), "GET %s", rawURL))
	}
	return async.Done(data, nil)
}

func (s *stubNet) count(rawURL string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[rawURL]
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	buf := pixel.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.Set(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 50, A: 255})
		}
	}
	data, err := buf.EncodePNG()
	require.NoError(t, err)
	return data
}

func quietLogger() *log.Logger {
	l := log.New(os.Stderr)
	l.SetLevel(log.FatalLevel)
	return l
}

func newDisk(t *testing.T) *cache.DiskCache {
	t.Helper()
	c, err := cache.NewDiskCache(t.TempDir())
	require.NoError(t, err)
	return c
}

const imgURL = "http://img.example/q.png"

func TestFetchImageCachesAfterFirstFetch(t *testing.T) {
	ctx := context.Background()
	net := newStubNet()
	net.body[imgURL] = testPNG(t, 8, 6)
	disk := newDisk(t)
	f := New(net, disk, quietLogger())

	first := <-f.FetchImage(ctx, imgURL)
	require.NoError(t, first.Err)
	assert.Equal(t, 8, first.Value.Width)
	assert.Equal(t, 6, first.Value.Height)
	assert.FileExists(t, disk.Path(cache.KeyFor(imgURL)))

	second := <-f.FetchImage(ctx, imgURL)
	require.NoError(t, second.Err)
	assert.Equal(t, 1, net.count(imgURL), "second fetch must not touch the network")
	assert.True(t, first.Value.Equal(second.Value), "cached result must be pixel-identical")
}

func TestFetchImageStoresExactBytes(t *testing.T) {
	ctx := context.Background()
	net := newStubNet()
	net.body[imgURL] = testPNG(t, 4, 4)
	disk := newDisk(t)

	res := <-New(net, disk, quietLogger()).FetchImage(ctx, imgURL)
	require.NoError(t, res.Err)

	stored, err := os.ReadFile(filepath.Join(disk.Dir(), cache.KeyFor(imgURL).String()))
	require.NoError(t, err)
	assert.Equal(t, net.body[imgURL], stored)
}

func TestFetchImageCorruptEntryIsReplaced(t *testing.T) {
	ctx := context.Background()
	net := newStubNet()
	net.body[imgURL] = testPNG(t, 5, 5)
	disk := newDisk(t)
	key := cache.KeyFor(imgURL)
	require.NoError(t, disk.Write(ctx, key, []byte("definitely not an image")))

	res := <-New(net, disk, quietLogger()).FetchImage(ctx, imgURL)
	require.NoError(t, res.Err)
	assert.Equal(t, 5, res.Value.Width)
	assert.Equal(t, 1, net.count(imgURL))

	stored, err := disk.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, net.body[imgURL], stored, "corrupt entry should be replaced by fresh bytes")
}

func TestFetchImageCorruptEntryDeletedOnNetworkFailure(t *testing.T) {
	ctx := context.Background()
	net := newStubNet()
	disk := newDisk(t)
	key := cache.KeyFor(imgURL)
	require.NoError(t, disk.Write(ctx, key, []byte{0x00, 0x01}))

	res := <-New(net, disk, quietLogger()).FetchImage(ctx, imgURL)
	require.Error(t, res.Err)
	assert.False(t, disk.Exists(ctx, key), "stale entry should be removed")
}

func TestFetchImageDecodeFailureNotCached(t *testing.T) {
	ctx := context.Background()
	net := newStubNet()
	net.body[imgURL] = []byte("<html>oops</html>")
	disk := newDisk(t)

	res := <-New(net, disk, quietLogger()).FetchImage(ctx, imgURL)
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, errors.ErrCodeDecode))
	assert.False(t, disk.Exists(ctx, cache.KeyFor(imgURL)))
}

func TestFetchImageNetworkFailure(t *testing.T) {
	net := newStubNet()
	net.err = errors.New(errors.ErrCodeNetwork, "connection refused")

	res := <-New(net, newDisk(t), quietLogger()).FetchImage(context.Background(), imgURL)
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, errors.ErrCodeNetwork))
}

func TestFetchImageEmptyURL(t *testing.T) {
	net := newStubNet()
	res := <-New(net, nil, nil).FetchImage(context.Background(), "")
	require.Error(t, res.Err)
	assert.Empty(t, net.calls)
}

func TestFetchImageLocalFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "local.png")
	require.NoError(t, os.WriteFile(path, testPNG(t, 3, 2), 0o644))

	net := newStubNet()
	disk := newDisk(t)
	f := New(net, disk, quietLogger())

	for _, ref := range []string{"file://" + path, path} {
		res := <-f.FetchImage(ctx, ref)
		require.NoError(t, res.Err, ref)
		assert.Equal(t, 3, res.Value.Width)
		assert.False(t, disk.Exists(ctx, cache.KeyFor(ref)), "local files are never cached")
	}
	assert.Empty(t, net.calls)
}

func TestFetchImageMissingLocalFile(t *testing.T) {
	res := <-New(newStubNet(), nil, quietLogger()).FetchImage(context.Background(), "file:///no/such/file.png")
	require.Error(t, res.Err)
}

func TestFetchImageNullCache(t *testing.T) {
	ctx := context.Background()
	net := newStubNet()
	net.body[imgURL] = testPNG(t, 2, 2)
	f := New(net, cache.NewNullCache(), quietLogger())

	for i := 0; i < 2; i++ {
		res := <-f.FetchImage(ctx, imgURL)
		require.NoError(t, res.Err)
	}
	assert.Equal(t, 2, net.count(imgURL))
}
