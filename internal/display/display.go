// Package display abstracts the output surface composed frames are drawn to.
package display

import "image"

// Surface is a fixed-size display target. Present replaces the whole visible
// frame; implementations must not retain the passed buffer past the call.
type Surface interface {
	Size() image.Point
	Present(frame *image.NRGBA) error
}
