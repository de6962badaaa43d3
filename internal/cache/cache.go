// Package cache provides a bounded LRU cache of decoded images with a
// background prefetch worker.
package cache

import (
	"image"
	"os"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/glowframe/glowframe/internal/logging"
	"github.com/glowframe/glowframe/internal/media"
	"github.com/glowframe/glowframe/internal/metrics"
)

// DefaultMaxSize is the default entry-count bound.
const DefaultMaxSize = 128

// idleSleep is how long the worker waits when the queue is empty.
const idleSleep = 100 * time.Millisecond

// LoadFunc decodes an image file, already orientation-corrected, optionally
// downsampled to fit within target.
type LoadFunc func(path string, target image.Point) (*image.NRGBA, error)

type entry struct {
	img      *image.NRGBA
	modTime  time.Time
	lastUsed uint64
}

type request struct {
	path   string
	target image.Point
}

// Cache maps media paths to decoded pixel buffers. All cache state is
// guarded by one mutex; decoding always happens with no lock held. A single
// worker goroutine drains the prefetch queue.
type Cache struct {
	load LoadFunc

	mu      sync.Mutex
	maxSize int
	entries map[string]*entry
	queue   []request
	queued  map[string]struct{}
	useTick uint64

	stopOnce sync.Once
	done     chan struct{}
	stopped  chan struct{}
}

// New creates a cache and starts its background worker. A non-positive
// maxSize falls back to DefaultMaxSize; a nil load falls back to media.Load.
func New(maxSize int, load LoadFunc) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if load == nil {
		load = media.Load
	}
	c := &Cache{
		load:    load,
		maxSize: maxSize,
		entries: make(map[string]*entry),
		queued:  make(map[string]struct{}),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go c.worker()
	return c
}

// Get returns an independent copy of the cached image for path. A hit
// promotes the entry to most recently used.
func (c *Cache) Get(path string) (*image.NRGBA, bool) {
	c.mu.Lock()
	e, ok := c.entries[path]
	if ok {
		c.useTick++
		e.lastUsed = c.useTick
	}
	c.mu.Unlock()

	if !ok {
		metrics.RecordCacheMiss()
		return nil, false
	}
	metrics.RecordCacheHit()
	return imaging.Clone(e.img), true
}

// Prefetch enqueues load requests for paths not already cached or queued.
// Non-blocking; duplicates are no-ops.
func (c *Cache) Prefetch(paths []string, target image.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range paths {
		if _, ok := c.entries[p]; ok {
			continue
		}
		if _, ok := c.queued[p]; ok {
			continue
		}
		c.queue = append(c.queue, request{path: p, target: target})
		c.queued[p] = struct{}{}
	}
}

// LoadSync decodes path on the caller's goroutine, inserts it into the
// cache and returns an independent copy. It is the miss fallback for the
// item about to be displayed.
func (c *Cache) LoadSync(path string, target image.Point) (*image.NRGBA, error) {
	img, err := c.decode(path, target)
	if err != nil {
		return nil, err
	}
	c.insert(path, img)
	return imaging.Clone(img), nil
}

// SetMaxSize changes the entry bound, evicting immediately if it shrank.
func (c *Cache) SetMaxSize(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	c.maxSize = n
	c.evictOverflow()
	c.mu.Unlock()
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Contains reports whether path is currently cached.
func (c *Cache) Contains(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[path]
	return ok
}

// Paths returns the currently cached paths, in no particular order.
func (c *Cache) Paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	paths := make([]string, 0, len(c.entries))
	for p := range c.entries {
		paths = append(paths, p)
	}
	return paths
}

// Stop signals the worker to exit after its current item and joins with a
// bounded timeout. It never deadlocks program exit.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
	select {
	case <-c.stopped:
	case <-time.After(time.Second):
		logging.Warn("cache worker did not stop within timeout")
	}
}

func (c *Cache) worker() {
	defer close(c.stopped)

	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.mu.Lock()
		var req request
		havework := len(c.queue) > 0
		if havework {
			req = c.queue[0]
			c.queue = c.queue[1:]
		}
		c.mu.Unlock()

		if !havework {
			select {
			case <-c.done:
				return
			case <-time.After(idleSleep):
			}
			continue
		}

		img, err := c.decode(req.path, req.target)
		if err != nil {
			// One bad file must not stop the worker or poison the queue.
			logging.Warn("prefetch decode failed", zap.String("path", req.path), zap.Error(err))
			c.mu.Lock()
			delete(c.queued, req.path)
			c.mu.Unlock()
			continue
		}
		c.insert(req.path, img)
	}
}

// decode runs the load function with no lock held and records metrics.
func (c *Cache) decode(path string, target image.Point) (*image.NRGBA, error) {
	start := time.Now()
	img, err := c.load(path, target)
	metrics.RecordDecode(time.Since(start), err == nil)
	return img, err
}

// insert stores a decoded image with its source mtime, promotes it to most
// recently used and evicts while over the bound.
func (c *Cache) insert(path string, img *image.NRGBA) {
	var modTime time.Time
	if info, err := os.Stat(path); err == nil {
		modTime = info.ModTime()
	}

	c.mu.Lock()
	c.useTick++
	c.entries[path] = &entry{img: img, modTime: modTime, lastUsed: c.useTick}
	delete(c.queued, path)
	c.evictOverflow()
	count := len(c.entries)
	c.mu.Unlock()

	metrics.SetCacheEntries(count)
}

// evictOverflow removes least-recently-used entries while the count exceeds
// maxSize. Loops because maxSize may have shrunk. Must be called with the
// lock held.
func (c *Cache) evictOverflow() {
	for len(c.entries) > c.maxSize {
		var oldestPath string
		var oldest *entry
		for p, e := range c.entries {
			if oldest == nil || e.lastUsed < oldest.lastUsed {
				oldest = e
				oldestPath = p
			}
		}
		delete(c.entries, oldestPath)
		metrics.RecordCacheEviction()
	}
}
