package video

import (
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"os"
	"time"
)

// gifSource plays an animated GIF as a looping clip. Frames are flattened
// onto a canvas at open time so Frame is just a timestamp lookup.
type gifSource struct {
	frames []*image.NRGBA
	delays []time.Duration
	total  time.Duration
}

// OpenGIF opens an animated GIF file as a FrameSource.
func OpenGIF(path string) (FrameSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("decode clip: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("clip has no frames")
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}

	src := &gifSource{}
	canvas := image.NewNRGBA(bounds)
	for i, frame := range g.Image {
		// GIF frames may be partial updates over the previous canvas.
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		flat := image.NewNRGBA(bounds)
		draw.Draw(flat, bounds, canvas, bounds.Min, draw.Src)
		src.frames = append(src.frames, flat)

		delay := 100 * time.Millisecond
		if i < len(g.Delay) && g.Delay[i] > 0 {
			delay = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		}
		src.delays = append(src.delays, delay)
		src.total += delay
	}

	return src, nil
}

// Frame returns the frame covering the given playback position, looping.
func (s *gifSource) Frame(at time.Duration) (*image.NRGBA, error) {
	if at < 0 {
		at = 0
	}
	if s.total > 0 {
		at = at % s.total
	}
	var elapsed time.Duration
	for i, d := range s.delays {
		elapsed += d
		if at < elapsed {
			return s.frames[i], nil
		}
	}
	return s.frames[len(s.frames)-1], nil
}

// Close is a no-op; all frames live in memory.
func (s *gifSource) Close() error {
	return nil
}
