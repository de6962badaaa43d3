package player

import (
	"time"

	"github.com/glowframe/glowframe/internal/config"
)

// InNightWindow reports whether the time of day of now falls inside the
// [start, end) window. A window with start > end wraps past midnight:
// [start, 24:00) followed by [00:00, end).
func InNightWindow(now time.Time, start, end string) bool {
	s, err := config.ParseClock(start)
	if err != nil {
		return false
	}
	e, err := config.ParseClock(end)
	if err != nil {
		return false
	}
	m := now.Hour()*60 + now.Minute()
	if s <= e {
		return s <= m && m < e
	}
	return m >= s || m < e
}
