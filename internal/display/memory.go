package display

import (
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// Memory is an in-memory surface for headless runs and tests. It records the
// last presented frame and a present count.
type Memory struct {
	size image.Point

	mu       sync.Mutex
	last     *image.NRGBA
	presents int
}

// NewMemory creates a memory surface of the given size.
func NewMemory(size image.Point) *Memory {
	return &Memory{size: size}
}

// Size returns the surface dimensions.
func (m *Memory) Size() image.Point {
	return m.size
}

// Present stores a copy of the frame.
func (m *Memory) Present(frame *image.NRGBA) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = imaging.Clone(frame)
	m.presents++
	return nil
}

// Last returns the most recently presented frame, or nil.
func (m *Memory) Last() *image.NRGBA {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Presents returns how many frames have been presented.
func (m *Memory) Presents() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.presents
}
