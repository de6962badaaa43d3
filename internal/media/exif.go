package media

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rwcarlsen/goexif/exif"
)

// Orientation reads the EXIF orientation tag from an image stream.
// Returns 1 (no transform) when no usable EXIF is present.
func Orientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// Caption returns a short display string for an image: the capture date as
// MM/YYYY when EXIF carries one, otherwise the containing folder's name.
func Caption(path string) string {
	if f, err := os.Open(path); err == nil {
		x, err := exif.Decode(f)
		f.Close()
		if err == nil {
			if dt, err := x.DateTime(); err == nil {
				return dt.Format("01/2006")
			}
		}
	}
	return filepath.Base(filepath.Dir(path))
}
