package loader

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/any-hub/imgcache/internal/cache"
	"github.com/any-hub/imgcache/internal/imaging"
)

// fakeFetcher 记录调用次数，可按 URL 阻塞或返回错误。
type fakeFetcher struct {
	total atomic.Int32

	mu    sync.Mutex
	calls map[string]int
	gates map[string]chan struct{}
	fails map[string]error
	sizes map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		calls: make(map[string]int),
		gates: make(map[string]chan struct{}),
		fails: make(map[string]error),
		sizes: make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	f.total.Add(1)
	f.mu.Lock()
	f.calls[url]++
	gate := f.gates[url]
	failure := f.fails[url]
	size := f.sizes[url]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failure != nil {
		return nil, failure
	}
	if size == 0 {
		size = 8
	}
	return solidImage(size, size), nil
}

func (f *fakeFetcher) block(url string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gates[url] = gate
	return gate
}

func (f *fakeFetcher) failWith(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails[url] = err
}

func (f *fakeFetcher) sizeFor(url string, size int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sizes[url] = size
}

func (f *fakeFetcher) callsFor(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

// testClock 是可手动推进的时钟。
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now().Truncate(time.Second)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	loader  *Loader
	memory  *cache.MemoryCache
	disk    *cache.DiskCache
	fetcher *fakeFetcher
	clock   *testClock
	hook    *test.Hook
	dir     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithDir(t, t.TempDir(), newFakeFetcher())
}

func newHarnessWithDir(t *testing.T, dir string, fetcher Fetcher) *harness {
	t.Helper()

	clock := newTestClock()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	memory := cache.NewMemoryCache(clock.Now)
	disk, err := cache.NewDiskCache(dir, cache.DiskOptions{Index: memory, Now: clock.Now})
	if err != nil {
		t.Fatalf("disk cache: %v", err)
	}

	l, err := New(Options{
		Memory:  memory,
		Disk:    disk,
		Fetcher: fetcher,
		Logger:  logger,
		Now:     clock.Now,
	})
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	ff, _ := fetcher.(*fakeFetcher)
	return &harness{
		loader:  l,
		memory:  memory,
		disk:    disk,
		fetcher: ff,
		clock:   clock,
		hook:    hook,
		dir:     dir,
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitSlot(t *testing.T, slot *Slot) (image.Image, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	img, err := slot.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("slot never resolved")
	}
	return img, err
}

func solidImage(w, h int) *imaging.RGB565 {
	src := image.NewUniform(color.RGBA{R: 0x40, G: 0x80, B: 0xc0, A: 0xff})
	dst := imaging.NewRGB565(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(x, y, src.C)
		}
	}
	return dst
}


func quietLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func newQuietHookLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}
