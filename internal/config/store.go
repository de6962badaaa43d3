package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/glowframe/glowframe/internal/logging"
	"github.com/glowframe/glowframe/internal/metrics"
)

// Store holds the current settings snapshot and polls the on-disk document
// for changes. Readers always see a complete snapshot: the document is
// replaced wholesale on reload, never mutated field by field.
type Store struct {
	path string

	mu         sync.RWMutex
	current    Settings
	activeFile string
	mtime      time.Time
	callbacks  []func(Settings)

	watchOnce sync.Once
	done      chan struct{}
}

// NewStore creates a store rooted at the given base settings path and
// performs an initial load. A missing or corrupt file leaves the schema
// defaults in place.
func NewStore(path string) *Store {
	s := &Store{
		path:       path,
		current:    Defaults(),
		activeFile: path,
		done:       make(chan struct{}),
	}
	if _, err := s.Load(); err != nil {
		logging.Warn("initial settings load failed, using defaults",
			zap.String("path", path), zap.Error(err))
	}
	return s
}

// Current returns a deep-copied snapshot of the active settings.
func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// resolveTarget picks the most specific settings file for this host. It is
// re-evaluated on every load because the override file may appear or
// disappear at any time.
func (s *Store) resolveTarget() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return s.path
	}
	override := hostOverridePath(s.path, hostname)
	if _, err := os.Stat(override); err == nil {
		return override
	}
	return s.path
}

// Load reads the most specific on-disk source. It returns changed=false
// without reparsing when the file's modification time is unchanged. On a
// parse failure the prior valid document is retained and the error is
// returned for logging only.
func (s *Store) Load() (bool, error) {
	target := s.resolveTarget()

	info, err := os.Stat(target)
	if err != nil {
		// No file at all: keep whatever we have.
		return false, nil
	}

	s.mu.Lock()
	unchanged := target == s.activeFile && info.ModTime().Equal(s.mtime)
	s.mu.Unlock()
	if unchanged {
		return false, nil
	}

	data, err := os.ReadFile(target)
	if err != nil {
		metrics.RecordConfigReload(false)
		return false, fmt.Errorf("read settings: %w", err)
	}

	doc, err := Coerce(data)
	if err != nil {
		metrics.RecordConfigReload(false)
		return false, err
	}

	s.mu.Lock()
	s.current = doc
	s.activeFile = target
	s.mtime = info.ModTime()
	s.mu.Unlock()

	metrics.RecordConfigReload(true)
	return true, nil
}

// Save serializes only the typed schema fields back to the file the current
// document was loaded from, then adopts the given settings as the current
// snapshot. The recorded mtime is advanced so the watcher does not re-fire
// on our own write.
func (s *Store) Save(doc Settings) error {
	s.mu.RLock()
	target := s.activeFile
	s.mu.RUnlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(target, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	var mtime time.Time
	if info, err := os.Stat(target); err == nil {
		mtime = info.ModTime()
	}

	s.mu.Lock()
	s.current = doc.clone()
	s.mtime = mtime
	s.mu.Unlock()
	return nil
}

// Update applies fn to a copy of the current settings and saves the result.
// The change is visible to Current() immediately, without waiting for the
// polling watcher to notice the write.
func (s *Store) Update(fn func(*Settings)) error {
	doc := s.Current()
	fn(&doc)
	return s.Save(doc)
}

// OnChange registers a callback invoked with the new snapshot after every
// detected change. Callbacks run on the watcher goroutine in registration
// order.
func (s *Store) OnChange(cb func(Settings)) {
	s.mu.Lock()
	s.callbacks = append(s.callbacks, cb)
	s.mu.Unlock()
}

// Watch polls Load on the given interval until ctx is done or Stop is
// called. A zero interval defaults to 2 seconds.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	s.watchOnce.Do(func() {
		go s.watchLoop(ctx, interval)
	})
}

// Stop halts the watch loop.
func (s *Store) Stop() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *Store) watchLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			changed, err := s.Load()
			if err != nil {
				logging.Warn("settings reload failed, keeping previous", zap.Error(err))
				continue
			}
			if changed {
				logging.Info("settings changed", zap.String("file", s.ActiveFile()))
				s.notify()
			}
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// notify invokes every callback with a fresh snapshot, isolating panics so
// one failing subscriber cannot stop the rest or the watch loop.
func (s *Store) notify() {
	s.mu.RLock()
	callbacks := append([]func(Settings){}, s.callbacks...)
	s.mu.RUnlock()

	for _, cb := range callbacks {
		snap := s.Current()
		func() {
			defer func() {
				if r := recover(); r != nil {
					logging.Error("settings subscriber panicked", zap.Any("panic", r))
				}
			}()
			cb(snap)
		}()
	}
}

// ActiveFile returns the file the current document was loaded from.
func (s *Store) ActiveFile() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeFile
}
