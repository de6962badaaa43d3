// Package config loads and watches the slideshow settings document.
//
// Settings live in a JSON file. A host-specific override named
// settings.<hostname>.json beside the base file takes precedence whenever it
// exists, and saves go back to whichever file was loaded. Every field has a
// default, so a partial or corrupt document always coerces to a complete one.
package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Scale policies.
const (
	PolicyCover = "cover"
	PolicyFit   = "fit"
)

// Display modes.
const (
	ModePhotos = "photos"
	ModeVideos = "videos"
)

// NightWindow is the nightly quiet period during which playback is paused.
// Start and End are local times of day in HH:MM form; a window with
// Start > End wraps past midnight.
type NightWindow struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Settings is an immutable snapshot of the slideshow configuration.
type Settings struct {
	Folders            []string            `json:"folders"`
	IntervalSeconds    int                 `json:"interval_seconds"`
	PrefetchCount      int                 `json:"prefetch_count"`
	TransitionDuration float64             `json:"transition_duration"`
	NightMode          NightWindow         `json:"night_mode"`
	ShowExif           bool                `json:"show_exif"`
	Randomize          bool                `json:"randomize"`
	ScalePolicy        string              `json:"scale_policy"`
	Mode               string              `json:"mode"`
	Videos             []string            `json:"videos"`
	KeyBindings        map[string][]string `json:"key_bindings"`
}

// Defaults returns the schema defaults.
func Defaults() Settings {
	return Settings{
		Folders:            []string{"./images"},
		IntervalSeconds:    6,
		PrefetchCount:      4,
		TransitionDuration: 0.6,
		NightMode: NightWindow{
			Enabled: true,
			Start:   "23:00",
			End:     "06:00",
		},
		ShowExif:    true,
		Randomize:   true,
		ScalePolicy: PolicyCover,
		Mode:        ModePhotos,
		Videos:      []string{},
		KeyBindings: map[string][]string{},
	}
}

// clone deep-copies a Settings value so snapshot holders cannot alias the
// store's slices and maps.
func (s Settings) clone() Settings {
	out := s
	out.Folders = append([]string(nil), s.Folders...)
	out.Videos = append([]string(nil), s.Videos...)
	out.KeyBindings = make(map[string][]string, len(s.KeyBindings))
	for action, keys := range s.KeyBindings {
		out.KeyBindings[action] = append([]string(nil), keys...)
	}
	return out
}

// rawSettings mirrors Settings with optional fields so missing keys can be
// told apart from zero values during coercion. Unknown keys are dropped by
// the JSON decoder.
type rawSettings struct {
	Folders            *[]string           `json:"folders"`
	IntervalSeconds    *int                `json:"interval_seconds"`
	PrefetchCount      *int                `json:"prefetch_count"`
	TransitionDuration *float64            `json:"transition_duration"`
	NightMode          *rawNightWindow     `json:"night_mode"`
	ShowExif           *bool               `json:"show_exif"`
	Randomize          *bool               `json:"randomize"`
	ScalePolicy        *string             `json:"scale_policy"`
	Mode               *string             `json:"mode"`
	Videos             *[]string           `json:"videos"`
	KeyBindings        map[string][]string `json:"key_bindings"`
}

type rawNightWindow struct {
	Enabled *bool   `json:"enabled"`
	Start   *string `json:"start"`
	End     *string `json:"end"`
}

// Coerce parses a raw JSON document into a complete Settings value. Missing
// fields take schema defaults; out-of-range or malformed fields fall back to
// their defaults field by field. Coerce never returns a partial document.
func Coerce(data []byte) (Settings, error) {
	out := Defaults()

	var raw rawSettings
	if err := json.Unmarshal(data, &raw); err != nil {
		return out, fmt.Errorf("parse settings: %w", err)
	}

	if raw.Folders != nil && len(*raw.Folders) > 0 {
		out.Folders = *raw.Folders
	}
	if raw.IntervalSeconds != nil && *raw.IntervalSeconds > 0 {
		out.IntervalSeconds = *raw.IntervalSeconds
	}
	if raw.PrefetchCount != nil && *raw.PrefetchCount >= 0 {
		out.PrefetchCount = *raw.PrefetchCount
	}
	if raw.TransitionDuration != nil && *raw.TransitionDuration >= 0 {
		out.TransitionDuration = *raw.TransitionDuration
	}
	if raw.NightMode != nil {
		if raw.NightMode.Enabled != nil {
			out.NightMode.Enabled = *raw.NightMode.Enabled
		}
		if raw.NightMode.Start != nil {
			if _, err := ParseClock(*raw.NightMode.Start); err == nil {
				out.NightMode.Start = *raw.NightMode.Start
			}
		}
		if raw.NightMode.End != nil {
			if _, err := ParseClock(*raw.NightMode.End); err == nil {
				out.NightMode.End = *raw.NightMode.End
			}
		}
	}
	if raw.ShowExif != nil {
		out.ShowExif = *raw.ShowExif
	}
	if raw.Randomize != nil {
		out.Randomize = *raw.Randomize
	}
	if raw.ScalePolicy != nil && (*raw.ScalePolicy == PolicyCover || *raw.ScalePolicy == PolicyFit) {
		out.ScalePolicy = *raw.ScalePolicy
	}
	if raw.Mode != nil && (*raw.Mode == ModePhotos || *raw.Mode == ModeVideos) {
		out.Mode = *raw.Mode
	}
	if raw.Videos != nil {
		out.Videos = *raw.Videos
	}
	if raw.KeyBindings != nil {
		out.KeyBindings = raw.KeyBindings
	}

	return out, nil
}

// ParseClock parses an HH:MM time of day into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	var hour, min int
	if _, err := fmt.Sscanf(parts[0], "%d", &hour); err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &min); err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, fmt.Errorf("clock time out of range %q", s)
	}
	return hour*60 + min, nil
}

// hostOverridePath returns the host-specific sibling of a base settings path,
// e.g. settings.json -> settings.myhost.json.
func hostOverridePath(base, hostname string) string {
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "." + hostname + ext
}
