package render

import (
	"image"
	"time"

	"github.com/glowframe/glowframe/internal/display"
)

// crossfadeRate is the blend sampling rate during a transition.
const crossfadeRate = 60

// Crossfade presents a timed alpha blend from one full-screen frame to the
// next. Both frames must already be fully composed (echo backgrounds
// included) so per-tick work is just the blend and the present. A
// non-positive duration or missing source degenerates to a direct draw of
// the destination.
func Crossfade(surf display.Surface, from, to *image.NRGBA, duration time.Duration) error {
	if duration <= 0 || from == nil {
		return surf.Present(to)
	}

	start := time.Now()
	ticker := time.NewTicker(time.Second / crossfadeRate)
	defer ticker.Stop()

	for {
		t := float64(time.Since(start)) / float64(duration)
		if t >= 1 {
			// Final draw is the destination at full opacity.
			return surf.Present(to)
		}
		if err := surf.Present(Blend(from, to, uint8(255*t))); err != nil {
			return err
		}
		<-ticker.C
	}
}
