// Glowframe slideshow
//
// Features:
// - Full-screen photo slideshow with crossfade transitions
// - Bounded LRU image cache with background prefetch
// - Hot-reloaded JSON settings with per-host overrides
// - Night window pausing and overlay menu
// - Video clip playback mode
// - Prometheus metrics & structured logging (zap)
package main

import (
	"bufio"
	"context"
	"flag"
	"image"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/glowframe/glowframe/internal/cache"
	"github.com/glowframe/glowframe/internal/config"
	"github.com/glowframe/glowframe/internal/display"
	"github.com/glowframe/glowframe/internal/input"
	"github.com/glowframe/glowframe/internal/logging"
	"github.com/glowframe/glowframe/internal/metrics"
	"github.com/glowframe/glowframe/internal/player"
)

func main() {
	var (
		configPath  = flag.String("config", "settings.json", "path to the settings document")
		displayKind = flag.String("display", "fb", "output surface: fb or none")
		fbDevice    = flag.String("fb", "fb0", "framebuffer device name under /sys/class/graphics")
		metricsAddr = flag.String("metrics", ":9090", "Prometheus metrics listen address")
		cacheSize   = flag.Int("cache-size", cache.DefaultMaxSize, "maximum cached images")
		logLevel    = flag.String("log-level", "info", "log level: debug, info, warn, error")
		logFormat   = flag.String("log-format", "console", "log format: console or json")
	)
	flag.Parse()

	if err := logging.Init(logging.Config{
		Level:  *logLevel,
		Format: *logFormat,
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	logging.Info("glowframe starting",
		zap.String("config", *configPath),
		zap.String("display", *displayKind),
		zap.String("metrics", *metricsAddr))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := config.NewStore(*configPath)
	store.Watch(ctx, 0)
	defer store.Stop()
	logging.Info("settings loaded", zap.String("file", store.ActiveFile()))

	imgCache := cache.New(*cacheSize, nil)
	defer imgCache.Stop()

	surf, err := openSurface(*displayKind, *fbDevice)
	if err != nil {
		logging.Fatal("display init failed", zap.Error(err))
	}
	if closer, ok := surf.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	ctrl := player.New(store, imgCache, surf, nil, nil)

	metricsServer := &http.Server{
		Addr:    *metricsAddr,
		Handler: metrics.Handler(),
	}
	go func() {
		logging.Info("metrics server listening", zap.String("addr", *metricsAddr))
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logging.Info("shutting down...")
		cancel()
		metricsServer.Close()
	}()

	actions := make(chan input.Action, 8)
	go readKeys(ctx, store, actions)

	if err := ctrl.Run(ctx, actions); err != nil {
		logging.Fatal("playback failed", zap.Error(err))
	}
	logging.Info("glowframe stopped")
}

// openSurface picks the output surface. "none" runs headless against an
// in-memory surface sized like a small HD panel, useful for smoke runs on a
// machine without a framebuffer.
func openSurface(kind, fbDevice string) (display.Surface, error) {
	if kind == "none" {
		return display.NewMemory(image.Pt(1280, 720)), nil
	}
	return display.OpenFBDev(fbDevice)
}

// readKeys turns stdin lines into playback actions. Key names follow the
// built-in map plus any per-action overrides from the settings document,
// re-read per keypress so binding changes apply without a restart.
func readKeys(ctx context.Context, store *config.Store, actions chan<- input.Action) {
	defer close(actions)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		action, ok := input.MapKey(scanner.Text(), store.Current().KeyBindings)
		if !ok {
			logging.Debug("unmapped key", zap.String("key", scanner.Text()))
			continue
		}
		select {
		case actions <- action:
		case <-ctx.Done():
			return
		}
	}
}
