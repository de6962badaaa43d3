package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestCoerceEmptyDocument(t *testing.T) {
	doc, err := Coerce([]byte(`{}`))
	if err != nil {
		t.Fatalf("Coerce: %v", err)
	}
	if !reflect.DeepEqual(doc, Defaults()) {
		t.Errorf("empty document should coerce to defaults\ngot:  %+v\nwant: %+v", doc, Defaults())
	}
}

func TestCoercePartialDocument(t *testing.T) {
	doc, err := Coerce([]byte(`{"interval_seconds": 10, "scale_policy": "fit"}`))
	if err != nil {
		t.Fatalf("Coerce: %v", err)
	}

	want := Defaults()
	want.IntervalSeconds = 10
	want.ScalePolicy = PolicyFit
	if !reflect.DeepEqual(doc, want) {
		t.Errorf("partial merge mismatch\ngot:  %+v\nwant: %+v", doc, want)
	}
}

func TestCoerceInvalidFieldsFallBack(t *testing.T) {
	raw := `{
		"interval_seconds": -3,
		"prefetch_count": -1,
		"transition_duration": -0.5,
		"scale_policy": "stretch",
		"mode": "tv",
		"night_mode": {"start": "25:99", "end": "not-a-time"}
	}`
	doc, err := Coerce([]byte(raw))
	if err != nil {
		t.Fatalf("Coerce: %v", err)
	}

	def := Defaults()
	if doc.IntervalSeconds != def.IntervalSeconds {
		t.Errorf("interval: got %d, want default %d", doc.IntervalSeconds, def.IntervalSeconds)
	}
	if doc.PrefetchCount != def.PrefetchCount {
		t.Errorf("prefetch: got %d, want default %d", doc.PrefetchCount, def.PrefetchCount)
	}
	if doc.TransitionDuration != def.TransitionDuration {
		t.Errorf("transition: got %v, want default %v", doc.TransitionDuration, def.TransitionDuration)
	}
	if doc.ScalePolicy != def.ScalePolicy {
		t.Errorf("policy: got %q, want default %q", doc.ScalePolicy, def.ScalePolicy)
	}
	if doc.Mode != def.Mode {
		t.Errorf("mode: got %q, want default %q", doc.Mode, def.Mode)
	}
	if doc.NightMode.Start != def.NightMode.Start || doc.NightMode.End != def.NightMode.End {
		t.Errorf("night window: got %+v, want default %+v", doc.NightMode, def.NightMode)
	}
}

func TestCoerceUnknownKeysIgnored(t *testing.T) {
	doc, err := Coerce([]byte(`{"interval_seconds": 8, "mystery_field": true}`))
	if err != nil {
		t.Fatalf("Coerce: %v", err)
	}
	if doc.IntervalSeconds != 8 {
		t.Errorf("interval: got %d, want 8", doc.IntervalSeconds)
	}
}

func TestCoerceCorruptDocument(t *testing.T) {
	if _, err := Coerce([]byte(`{not json`)); err == nil {
		t.Fatal("expected parse error for corrupt input")
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		minutes int
		ok      bool
	}{
		{"00:00", 0, true},
		{"23:00", 23 * 60, true},
		{"06:30", 6*60 + 30, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"noon", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, err := ParseClock(c.in)
		if c.ok && err != nil {
			t.Errorf("ParseClock(%q): unexpected error %v", c.in, err)
			continue
		}
		if !c.ok {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error", c.in)
			}
			continue
		}
		if got != c.minutes {
			t.Errorf("ParseClock(%q): got %d, want %d", c.in, got, c.minutes)
		}
	}
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{"interval_seconds": 3, "randomize": false}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s := NewStore(path)
	doc := s.Current()

	want := Defaults()
	want.IntervalSeconds = 3
	want.Randomize = false
	if !reflect.DeepEqual(doc, want) {
		t.Fatalf("load mismatch\ngot:  %+v\nwant: %+v", doc, want)
	}

	if err := s.Save(doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A fresh store must see the same coerced document.
	again := NewStore(path).Current()
	if !reflect.DeepEqual(again, want) {
		t.Errorf("round-trip mismatch\ngot:  %+v\nwant: %+v", again, want)
	}
}

func TestStoreSaveDropsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{"interval_seconds": 3, "legacy_cruft": 42}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s := NewStore(path)
	if err := s.Save(s.Current()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) == "" {
		t.Fatal("saved file is empty")
	}
	if contains := string(data); containsSubstring(contains, "legacy_cruft") {
		t.Errorf("saved document still contains unknown key: %s", data)
	}
}

func bumpMtime(t *testing.T, path string) {
	t.Helper()
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
}

func containsSubstring(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func TestStoreCorruptFileRetainsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{"interval_seconds": 9}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s := NewStore(path)
	if got := s.Current().IntervalSeconds; got != 9 {
		t.Fatalf("interval: got %d, want 9", got)
	}

	if err := os.WriteFile(path, []byte(`{broken`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// Force a future mtime so the change is detected.
	bumpMtime(t, path)

	changed, err := s.Load()
	if err == nil {
		t.Error("expected parse error from corrupt file")
	}
	if changed {
		t.Error("corrupt file must not count as a change")
	}
	if got := s.Current().IntervalSeconds; got != 9 {
		t.Errorf("prior document lost: interval got %d, want 9", got)
	}
}

func TestStoreUnchangedMtimeSkipsReparse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{"interval_seconds": 5}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s := NewStore(path)
	changed, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if changed {
		t.Error("unchanged file reported as changed")
	}
}

func TestStoreHostOverridePreferred(t *testing.T) {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		t.Skip("no hostname available")
	}

	dir := t.TempDir()
	base := filepath.Join(dir, "settings.json")
	override := filepath.Join(dir, "settings."+hostname+".json")
	if err := os.WriteFile(base, []byte(`{"interval_seconds": 5}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(override, []byte(`{"interval_seconds": 11}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s := NewStore(base)
	if got := s.Current().IntervalSeconds; got != 11 {
		t.Errorf("interval: got %d, want 11 from host override", got)
	}
	if s.ActiveFile() != override {
		t.Errorf("active file: got %q, want %q", s.ActiveFile(), override)
	}

	// Saves must go to the override, leaving the base file host-generic.
	if err := s.Update(func(doc *Settings) { doc.IntervalSeconds = 12 }); err != nil {
		t.Fatalf("Update: %v", err)
	}
	baseDoc, err := os.ReadFile(base)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if containsSubstring(string(baseDoc), "12") {
		t.Errorf("save leaked into base file: %s", baseDoc)
	}

	// Override disappearing must fall back to the base file on next load.
	if err := os.Remove(override); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	changed, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !changed {
		t.Fatal("expected change after override removal")
	}
	if got := s.Current().IntervalSeconds; got != 5 {
		t.Errorf("interval: got %d, want 5 from base file", got)
	}
}

func TestStoreUpdateVisibleImmediately(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	s := NewStore(path)
	// activeFile points at the (missing) base; Save creates it.
	if err := s.Update(func(doc *Settings) { doc.Mode = ModeVideos }); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := s.Current().Mode; got != ModeVideos {
		t.Errorf("mode: got %q, want %q without waiting for the watcher", got, ModeVideos)
	}

	// The store's own write must not register as a change on the next poll.
	changed, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if changed {
		t.Error("own save detected as external change")
	}
}

func TestNotifyIsolatesPanickingSubscriber(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	s := NewStore(path)

	var order []int
	s.OnChange(func(Settings) { order = append(order, 1); panic("boom") })
	s.OnChange(func(Settings) { order = append(order, 2) })

	s.notify()

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("subscriber order: got %v, want [1 2]", order)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "settings.json"))

	snap := s.Current()
	snap.Folders[0] = "/mutated"
	snap.KeyBindings["next"] = []string{"x"}

	fresh := s.Current()
	if fresh.Folders[0] == "/mutated" {
		t.Error("snapshot shares folder slice with store")
	}
	if _, ok := fresh.KeyBindings["next"]; ok {
		t.Error("snapshot shares key binding map with store")
	}
}
