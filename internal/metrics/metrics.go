// Package metrics provides Prometheus metrics for the glowframe daemon.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cache metrics
	cacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "glowframe_cache_hits_total",
			Help: "Total image cache hits",
		},
	)

	cacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "glowframe_cache_misses_total",
			Help: "Total image cache misses",
		},
	)

	cacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "glowframe_cache_evictions_total",
			Help: "Total cache entries evicted",
		},
	)

	cacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "glowframe_cache_entries",
			Help: "Current number of cached images",
		},
	)

	decodeFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "glowframe_decode_failures_total",
			Help: "Total image decode failures",
		},
	)

	decodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "glowframe_decode_duration_seconds",
			Help:    "Image decode and orientation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Playback metrics
	slidesShownTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glowframe_slides_shown_total",
			Help: "Total slide switches",
		},
		[]string{"direction"},
	)

	transitionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "glowframe_transition_duration_seconds",
			Help:    "Cross-fade transition render duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	nightActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "glowframe_night_window_active",
			Help: "1 while the night quiet window is active",
		},
	)

	// Config metrics
	configReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glowframe_config_reloads_total",
			Help: "Total configuration reloads",
		},
		[]string{"result"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCacheHit records an image cache hit.
func RecordCacheHit() {
	cacheHitsTotal.Inc()
}

// RecordCacheMiss records an image cache miss.
func RecordCacheMiss() {
	cacheMissesTotal.Inc()
}

// RecordCacheEviction records an evicted cache entry.
func RecordCacheEviction() {
	cacheEvictionsTotal.Inc()
}

// SetCacheEntries sets the current cache entry count.
func SetCacheEntries(count int) {
	cacheEntries.Set(float64(count))
}

// RecordDecode records an image decode attempt.
func RecordDecode(duration time.Duration, success bool) {
	if !success {
		decodeFailuresTotal.Inc()
		return
	}
	decodeDuration.Observe(duration.Seconds())
}

// RecordSlideShown records a slide switch.
func RecordSlideShown(direction string) {
	slidesShownTotal.WithLabelValues(direction).Inc()
}

// RecordTransition records a cross-fade render duration.
func RecordTransition(duration time.Duration) {
	transitionDuration.Observe(duration.Seconds())
}

// SetNightActive sets the night window gauge.
func SetNightActive(active bool) {
	if active {
		nightActive.Set(1)
	} else {
		nightActive.Set(0)
	}
}

// RecordConfigReload records a configuration reload result.
func RecordConfigReload(success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	configReloadsTotal.WithLabelValues(result).Inc()
}
