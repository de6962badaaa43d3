// Package player drives the slideshow: which item is on screen, when it
// advances, and how pause, the menu overlay and the night window interact.
package player

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/glowframe/glowframe/internal/cache"
	"github.com/glowframe/glowframe/internal/config"
	"github.com/glowframe/glowframe/internal/display"
	"github.com/glowframe/glowframe/internal/input"
	"github.com/glowframe/glowframe/internal/logging"
	"github.com/glowframe/glowframe/internal/media"
	"github.com/glowframe/glowframe/internal/metrics"
	"github.com/glowframe/glowframe/internal/render"
	"github.com/glowframe/glowframe/internal/video"
)

// tickRate is the render loop frequency.
const tickRate = 60

// Controller owns the playback state machine. All state is mutated on the
// loop goroutine only; the cache and config store handle their own locking.
type Controller struct {
	store     *config.Store
	cache     *cache.Cache
	surf      display.Surface
	clock     Clock
	openVideo video.OpenFunc

	cfg        config.Settings
	cfgChanged chan struct{}

	mode   string
	images []string
	index  int
	videos *video.Player
	menu   Menu

	paused            bool
	inMenu            bool
	pausedBeforeMenu  bool
	nightActive       bool
	pausedBeforeNight bool

	lastSwitch   time.Time
	currentPath  string
	currentFrame *image.NRGBA
	caption      string
	quit         bool
}

// New creates a controller. A nil clock uses the system clock; a nil open
// function plays clips through the GIF source.
func New(store *config.Store, c *cache.Cache, surf display.Surface, clock Clock, openVideo video.OpenFunc) *Controller {
	if clock == nil {
		clock = RealClock{}
	}
	return &Controller{
		store:      store,
		cache:      c,
		surf:       surf,
		clock:      clock,
		openVideo:  openVideo,
		cfgChanged: make(chan struct{}, 1),
	}
}

// Start loads the initial item set and shows the first item. It subscribes
// to configuration changes and fails when there is nothing at all to show.
func (c *Controller) Start() error {
	c.cfg = c.store.Current()
	c.mode = c.cfg.Mode
	c.lastSwitch = c.clock.Now()

	c.store.OnChange(func(config.Settings) {
		select {
		case c.cfgChanged <- struct{}{}:
		default:
		}
	})

	switch c.mode {
	case config.ModeVideos:
		c.videos = video.NewPlayer(c.cfg.Videos, c.openVideo)
		if c.videos.Empty() {
			return fmt.Errorf("no videos configured")
		}
		c.videos.LoadCurrent(c.clock.Now())
	default:
		c.loadImages()
		if len(c.images) == 0 {
			return fmt.Errorf("no images found in folders %v", c.cfg.Folders)
		}
		c.index = 0
		c.showCurrent(false)
		c.prefetchUpcoming()
	}
	return nil
}

// Run drives the controller at the tick rate until the context is done, a
// quit action arrives, or Start fails.
func (c *Controller) Run(ctx context.Context, actions <-chan input.Action) error {
	if err := c.Start(); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	for !c.quit {
		select {
		case <-ctx.Done():
			return nil
		case action, ok := <-actions:
			if !ok {
				return nil
			}
			c.HandleAction(action)
		case <-ticker.C:
			c.Tick()
		}
	}
	return nil
}

// Tick advances the state machine by one frame: apply pending config
// changes, re-derive the menu and night pause gates, autoadvance if due,
// and present the current frame.
func (c *Controller) Tick() {
	now := c.clock.Now()

	select {
	case <-c.cfgChanged:
		c.applyConfigChange()
	default:
	}

	// Menu overlay: opening snapshots the pause flag and forces pause;
	// closing restores the snapshot.
	if c.menu.IsOpen() {
		if !c.inMenu {
			c.inMenu = true
			c.pausedBeforeMenu = c.paused
			c.paused = true
		}
	} else if c.inMenu {
		c.inMenu = false
		c.paused = c.pausedBeforeMenu
	}

	// Night gate, re-derived every tick. Entering snapshots the pause flag;
	// leaving restores it, symmetric with the menu.
	night := c.cfg.NightMode.Enabled &&
		InNightWindow(now, c.cfg.NightMode.Start, c.cfg.NightMode.End)
	if night && !c.nightActive {
		c.nightActive = true
		c.pausedBeforeNight = c.paused
	}
	if !night && c.nightActive {
		c.nightActive = false
		c.paused = c.pausedBeforeNight
	}
	if night {
		c.paused = true
	}
	metrics.SetNightActive(night)

	if c.mode == config.ModePhotos && !c.paused && !c.menu.IsOpen() {
		interval := time.Duration(c.cfg.IntervalSeconds) * time.Second
		if now.Sub(c.lastSwitch) >= interval {
			c.advance(1)
		}
	}

	c.draw(now)
}

func (c *Controller) draw(now time.Time) {
	if c.mode == config.ModeVideos && !c.paused {
		if frame := c.videos.Frame(now); frame != nil {
			scaled := render.Scale(frame, c.surf.Size(), c.cfg.ScalePolicy)
			c.currentFrame = render.ComposeFrame(scaled, c.surf.Size(), false)
		}
	}
	if c.currentFrame == nil {
		c.currentFrame = render.ComposeFrame(nil, c.surf.Size(), false)
	}
	if err := c.surf.Present(c.currentFrame); err != nil {
		logging.Warn("present failed", zap.Error(err))
	}
}

// HandleAction applies one symbolic input action.
func (c *Controller) HandleAction(action input.Action) {
	if c.menu.IsOpen() {
		switch action {
		case input.ActionMenuUp:
			c.menu.Up(len(c.cfg.Videos))
			return
		case input.ActionMenuDown:
			c.menu.Down(len(c.cfg.Videos))
			return
		case input.ActionMenuSelect:
			c.applyMenuSelection()
			return
		}
	}

	switch action {
	case input.ActionQuit:
		c.quit = true
	case input.ActionNext:
		if c.mode == config.ModePhotos {
			c.advance(1)
		} else {
			c.videos.Next(c.clock.Now())
		}
	case input.ActionPrev:
		if c.mode == config.ModePhotos {
			c.advance(-1)
		} else {
			c.videos.Prev(c.clock.Now())
		}
	case input.ActionPause:
		if c.nightActive {
			// During the night window pause is forced; the toggle retargets
			// the flag restored when the window ends.
			c.pausedBeforeNight = !c.pausedBeforeNight
		} else {
			c.paused = !c.paused
		}
	case input.ActionMenu:
		c.menu.Toggle()
	case input.ActionToggleMode:
		c.toggleMode()
	}
}

// advance moves the photo index by step (wrapping), cross-fades to the new
// frame and queues the upcoming prefetch window.
func (c *Controller) advance(step int) {
	if len(c.images) == 0 {
		return
	}
	c.index = (c.index + step + len(c.images)) % len(c.images)
	c.lastSwitch = c.clock.Now()

	if !c.showCurrent(true) {
		return
	}

	direction := "next"
	if step < 0 {
		direction = "prev"
	}
	metrics.RecordSlideShown(direction)
	c.prefetchUpcoming()
}

// showCurrent loads, scales and composes the image at the current index and
// presents it, cross-fading from the previous frame when transition is set.
// A decode failure keeps the previous frame on screen and reports false.
func (c *Controller) showCurrent(transition bool) bool {
	path := c.images[c.index]
	screen := c.surf.Size()

	img, ok := c.cache.Get(path)
	if !ok {
		var err error
		img, err = c.cache.LoadSync(path, screen)
		if err != nil {
			logging.Warn("skipping undecodable image", zap.String("path", path), zap.Error(err))
			return false
		}
	}

	scaled := render.Scale(img, screen, c.cfg.ScalePolicy)
	frame := render.ComposeFrame(scaled, screen, true)

	if transition {
		duration := time.Duration(c.cfg.TransitionDuration * float64(time.Second))
		start := time.Now()
		if err := render.Crossfade(c.surf, c.currentFrame, frame, duration); err != nil {
			logging.Warn("transition failed", zap.Error(err))
		}
		metrics.RecordTransition(time.Since(start))
	}

	c.currentFrame = frame
	c.currentPath = path
	if c.cfg.ShowExif {
		c.caption = media.Caption(path)
	} else {
		c.caption = ""
	}
	return true
}

// prefetchUpcoming queues the next prefetch_count items after the current
// index.
func (c *Controller) prefetchUpcoming() {
	n := c.cfg.PrefetchCount
	if n <= 0 || len(c.images) == 0 {
		return
	}
	if n > len(c.images)-1 {
		n = len(c.images) - 1
	}
	paths := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		paths = append(paths, c.images[(c.index+i)%len(c.images)])
	}
	c.cache.Prefetch(paths, c.surf.Size())
}

func (c *Controller) loadImages() {
	c.images = media.ScanFolders(c.cfg.Folders)
	if c.cfg.Randomize {
		media.Shuffle(c.images)
	}
	logging.Info("image set loaded",
		zap.Int("count", len(c.images)),
		zap.Strings("folders", c.cfg.Folders))
}

// toggleMode switches photos<->videos, persists the new mode and applies it
// immediately.
func (c *Controller) toggleMode() {
	newMode := config.ModeVideos
	if c.mode == config.ModeVideos {
		newMode = config.ModePhotos
	}
	if err := c.store.Update(func(doc *config.Settings) { doc.Mode = newMode }); err != nil {
		logging.Warn("failed to persist mode", zap.Error(err))
	}
	c.cfg = c.store.Current()
	c.applyMode(newMode)
}

// applyConfigChange adopts a fresh settings snapshot; a changed effective
// mode triggers a full mode switch even without user input.
func (c *Controller) applyConfigChange() {
	c.cfg = c.store.Current()
	if c.cfg.Mode != c.mode {
		c.applyMode(c.cfg.Mode)
	}
}

// applyMode reinitializes the item set for a new display mode.
func (c *Controller) applyMode(mode string) {
	c.mode = mode
	if mode == config.ModeVideos {
		if c.videos != nil {
			c.videos.Close()
		}
		c.videos = video.NewPlayer(c.cfg.Videos, c.openVideo)
		if c.videos.Empty() {
			logging.Warn("switched to videos mode with no videos configured")
		} else {
			c.videos.LoadCurrent(c.clock.Now())
		}
		c.currentFrame = nil
		c.caption = ""
		return
	}

	c.loadImages()
	if len(c.images) == 0 {
		logging.Warn("switched to photos mode with no images found")
		return
	}
	c.index = 0
	c.lastSwitch = c.clock.Now()
	c.showCurrent(false)
	c.prefetchUpcoming()
}

// applyMenuSelection executes the highlighted menu entry. Settings changes
// apply and persist immediately, without waiting for the polling watcher.
func (c *Controller) applyMenuSelection() {
	item, videoIndex := c.menu.Selection()
	switch item {
	case menuToggleMode:
		c.toggleMode()
	case menuToggleCaption:
		if err := c.store.Update(func(doc *config.Settings) { doc.ShowExif = !doc.ShowExif }); err != nil {
			logging.Warn("failed to persist caption toggle", zap.Error(err))
		}
		c.cfg = c.store.Current()
		if !c.cfg.ShowExif {
			c.caption = ""
		} else if c.currentPath != "" {
			c.caption = media.Caption(c.currentPath)
		}
	case menuClose:
		c.menu.Close()
	default:
		if videoIndex >= 0 && videoIndex < len(c.cfg.Videos) {
			if err := c.store.Update(func(doc *config.Settings) { doc.Mode = config.ModeVideos }); err != nil {
				logging.Warn("failed to persist mode", zap.Error(err))
			}
			c.cfg = c.store.Current()
			c.applyMode(config.ModeVideos)
			c.videos.Select(videoIndex, c.clock.Now())
			c.menu.Close()
		}
	}
}

// Caption returns the overlay text for the current item (empty when the
// overlay is disabled).
func (c *Controller) Caption() string {
	return c.caption
}

// Index returns the current item index.
func (c *Controller) Index() int {
	return c.index
}

// Paused reports the effective pause flag.
func (c *Controller) Paused() bool {
	return c.paused
}

// Mode returns the active display mode.
func (c *Controller) Mode() string {
	return c.mode
}
