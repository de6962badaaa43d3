package cache

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"
	"testing"
	"time"
)

// fakeLoader counts loads per path and fails paths listed in bad.
type fakeLoader struct {
	mu    sync.Mutex
	loads map[string]int
	bad   map[string]bool
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{loads: make(map[string]int), bad: make(map[string]bool)}
}

func (f *fakeLoader) load(path string, target image.Point) (*image.NRGBA, error) {
	f.mu.Lock()
	f.loads[path]++
	f.mu.Unlock()
	if f.bad[path] {
		return nil, errors.New("decode failed")
	}
	return image.NewNRGBA(image.Rect(0, 0, 2, 2)), nil
}

func (f *fakeLoader) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads[path]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPrefetchAndGet(t *testing.T) {
	loader := newFakeLoader()
	c := New(8, loader.load)
	defer c.Stop()

	c.Prefetch([]string{"a", "b"}, image.Point{})
	waitFor(t, "prefetch drain", func() bool { return c.Contains("a") && c.Contains("b") })

	img, ok := c.Get("a")
	if !ok {
		t.Fatal("expected hit for prefetched path")
	}
	if img == nil || img.Bounds().Dx() != 2 {
		t.Fatalf("unexpected image from Get: %v", img)
	}

	if _, ok := c.Get("zzz"); ok {
		t.Error("expected miss for unknown path")
	}
}

func TestGetReturnsIndependentCopy(t *testing.T) {
	loader := newFakeLoader()
	c := New(8, loader.load)
	defer c.Stop()

	c.Prefetch([]string{"a"}, image.Point{})
	waitFor(t, "prefetch drain", func() bool { return c.Contains("a") })

	first, _ := c.Get("a")
	first.Pix[0] = 99

	second, _ := c.Get("a")
	if second.Pix[0] == 99 {
		t.Error("cached buffer was mutated through a Get copy")
	}
}

func TestDuplicatePrefetchIsNoOp(t *testing.T) {
	loader := newFakeLoader()
	c := New(8, loader.load)
	defer c.Stop()

	c.Prefetch([]string{"a", "a", "a"}, image.Point{})
	c.Prefetch([]string{"a"}, image.Point{})
	waitFor(t, "prefetch drain", func() bool { return c.Contains("a") })

	// Already-cached path must not be re-enqueued either.
	c.Prefetch([]string{"a"}, image.Point{})
	time.Sleep(150 * time.Millisecond)

	if n := loader.count("a"); n != 1 {
		t.Errorf("path loaded %d times, want 1", n)
	}
}

func TestEvictionUnderPressure(t *testing.T) {
	loader := newFakeLoader()
	c := New(2, loader.load)
	defer c.Stop()

	c.Prefetch([]string{"A"}, image.Point{})
	waitFor(t, "A cached", func() bool { return c.Contains("A") })
	c.Prefetch([]string{"B"}, image.Point{})
	waitFor(t, "B cached", func() bool { return c.Contains("B") })
	c.Prefetch([]string{"C"}, image.Point{})
	waitFor(t, "C cached", func() bool { return c.Contains("C") })

	paths := c.Paths()
	sort.Strings(paths)
	if len(paths) != 2 || paths[0] != "B" || paths[1] != "C" {
		t.Errorf("cache contents: got %v, want [B C]", paths)
	}
}

func TestGetPromotesAgainstEviction(t *testing.T) {
	loader := newFakeLoader()
	c := New(2, loader.load)
	defer c.Stop()

	c.Prefetch([]string{"A"}, image.Point{})
	waitFor(t, "A cached", func() bool { return c.Contains("A") })
	c.Prefetch([]string{"B"}, image.Point{})
	waitFor(t, "B cached", func() bool { return c.Contains("B") })

	// Touch A so B becomes the LRU entry.
	if _, ok := c.Get("A"); !ok {
		t.Fatal("expected hit for A")
	}

	c.Prefetch([]string{"C"}, image.Point{})
	waitFor(t, "C cached", func() bool { return c.Contains("C") })

	if !c.Contains("A") {
		t.Error("recently read A was evicted")
	}
	if c.Contains("B") {
		t.Error("LRU entry B survived eviction")
	}
}

func TestLRUBoundHolds(t *testing.T) {
	loader := newFakeLoader()
	const maxSize = 3
	c := New(maxSize, loader.load)
	defer c.Stop()

	for i := 0; i < 10; i++ {
		p := fmt.Sprintf("img-%d", i)
		c.Prefetch([]string{p}, image.Point{})
		waitFor(t, p+" cached", func() bool { return c.Contains(p) })
		if got := c.Len(); got > maxSize {
			t.Fatalf("cache holds %d entries, bound is %d", got, maxSize)
		}
	}

	// The survivors are exactly the most recently inserted paths.
	want := []string{"img-7", "img-8", "img-9"}
	got := c.Paths()
	sort.Strings(got)
	for i, p := range want {
		if got[i] != p {
			t.Fatalf("cache contents: got %v, want %v", got, want)
		}
	}
}

func TestDecodeFailureSkipsAndContinues(t *testing.T) {
	loader := newFakeLoader()
	loader.bad["broken"] = true
	c := New(8, loader.load)
	defer c.Stop()

	c.Prefetch([]string{"broken", "good"}, image.Point{})
	waitFor(t, "good cached past the failure", func() bool { return c.Contains("good") })

	if c.Contains("broken") {
		t.Error("failed decode must not insert an entry")
	}

	// The failed path may be requested again later.
	c.Prefetch([]string{"broken"}, image.Point{})
	waitFor(t, "broken retried", func() bool { return loader.count("broken") >= 2 })
}

func TestLoadSyncInsertsAndReturns(t *testing.T) {
	loader := newFakeLoader()
	c := New(8, loader.load)
	defer c.Stop()

	img, err := c.LoadSync("direct", image.Point{})
	if err != nil {
		t.Fatalf("LoadSync: %v", err)
	}
	if img == nil {
		t.Fatal("LoadSync returned nil image")
	}
	if !c.Contains("direct") {
		t.Error("LoadSync did not insert into cache")
	}

	loader.bad["bad"] = true
	if _, err := c.LoadSync("bad", image.Point{}); err == nil {
		t.Error("expected error from LoadSync on bad path")
	}
}

func TestSetMaxSizeShrinkEvicts(t *testing.T) {
	loader := newFakeLoader()
	c := New(8, loader.load)
	defer c.Stop()

	for _, p := range []string{"a", "b", "c", "d"} {
		c.Prefetch([]string{p}, image.Point{})
		waitFor(t, p+" cached", func() bool { return c.Contains(p) })
	}

	c.SetMaxSize(2)
	if got := c.Len(); got != 2 {
		t.Errorf("after shrink: %d entries, want 2", got)
	}
	if !c.Contains("c") || !c.Contains("d") {
		t.Errorf("after shrink: got %v, want the two most recent [c d]", c.Paths())
	}
}

func TestStopDoesNotDeadlock(t *testing.T) {
	loader := newFakeLoader()
	c := New(8, loader.load)
	c.Prefetch([]string{"a", "b", "c"}, image.Point{})

	done := make(chan struct{})
	go func() {
		c.Stop()
		c.Stop() // second Stop must be safe
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop deadlocked")
	}
}
