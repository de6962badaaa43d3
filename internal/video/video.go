// Package video plays short clips as a sequence of decoded frames.
package video

import (
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/glowframe/glowframe/internal/logging"
)

// FrameSource yields decoded frames for one clip. Frame may return a nil
// frame (clip still opening, decode hiccup) without it being fatal.
type FrameSource interface {
	Frame(at time.Duration) (*image.NRGBA, error)
	Close() error
}

// OpenFunc opens a clip file as a FrameSource.
type OpenFunc func(path string) (FrameSource, error)

// Player cycles through a list of clips and tolerates missing frames by
// reusing the last good one.
type Player struct {
	paths []string
	open  OpenFunc

	index    int
	src      FrameSource
	started  time.Time
	lastGood *image.NRGBA
}

// NewPlayer creates a clip player. A nil open function defaults to OpenGIF.
func NewPlayer(paths []string, open OpenFunc) *Player {
	if open == nil {
		open = OpenGIF
	}
	return &Player{paths: paths, open: open}
}

// Empty reports whether there are no clips configured.
func (p *Player) Empty() bool {
	return len(p.paths) == 0
}

// Current returns the current clip path, or empty.
func (p *Player) Current() string {
	if p.Empty() {
		return ""
	}
	return p.paths[p.index]
}

// LoadCurrent (re)opens the current clip. An open failure is logged and
// leaves the player producing its last good frame.
func (p *Player) LoadCurrent(now time.Time) {
	if p.Empty() {
		return
	}
	if p.src != nil {
		p.src.Close()
		p.src = nil
	}
	src, err := p.open(p.paths[p.index])
	if err != nil {
		logging.Warn("failed to open clip", zap.String("path", p.paths[p.index]), zap.Error(err))
		return
	}
	p.src = src
	p.started = now
}

// Next advances to the next clip, wrapping around.
func (p *Player) Next(now time.Time) {
	if p.Empty() {
		return
	}
	p.index = (p.index + 1) % len(p.paths)
	p.LoadCurrent(now)
}

// Prev steps back to the previous clip, wrapping around.
func (p *Player) Prev(now time.Time) {
	if p.Empty() {
		return
	}
	p.index = (p.index - 1 + len(p.paths)) % len(p.paths)
	p.LoadCurrent(now)
}

// Select jumps to the clip at index i.
func (p *Player) Select(i int, now time.Time) {
	if i < 0 || i >= len(p.paths) {
		return
	}
	p.index = i
	p.LoadCurrent(now)
}

// Frame returns the frame for the current playback position. A nil or
// failed frame falls back to the last good one, which may itself be nil
// before the first successful decode.
func (p *Player) Frame(now time.Time) *image.NRGBA {
	if p.src == nil {
		return p.lastGood
	}
	frame, err := p.src.Frame(now.Sub(p.started))
	if err != nil || frame == nil {
		return p.lastGood
	}
	p.lastGood = frame
	return frame
}

// Close releases the current clip source.
func (p *Player) Close() {
	if p.src != nil {
		p.src.Close()
		p.src = nil
	}
}
