package display

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
)

// FBDev writes frames straight to a Linux framebuffer device. Geometry and
// pixel depth are read from sysfs, so no ioctls are needed. Supported depths
// are 32 (XRGB8888) and 16 (RGB565), which covers the usual HDMI and SPI
// panel setups a photo frame runs on.
type FBDev struct {
	f      *os.File
	size   image.Point
	bpp    int
	stride int
	buf    []byte
}

// OpenFBDev opens a framebuffer device such as /dev/fb0.
func OpenFBDev(device string) (*FBDev, error) {
	name := filepath.Base(device)
	sysdir := filepath.Join("/sys/class/graphics", name)

	size, err := readVirtualSize(filepath.Join(sysdir, "virtual_size"))
	if err != nil {
		return nil, fmt.Errorf("framebuffer geometry: %w", err)
	}
	bpp, err := readInt(filepath.Join(sysdir, "bits_per_pixel"))
	if err != nil {
		return nil, fmt.Errorf("framebuffer depth: %w", err)
	}
	if bpp != 32 && bpp != 16 {
		return nil, fmt.Errorf("unsupported framebuffer depth %d bpp", bpp)
	}
	stride, err := readInt(filepath.Join(sysdir, "stride"))
	if err != nil {
		stride = size.X * bpp / 8
	}

	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open framebuffer: %w", err)
	}

	return &FBDev{
		f:      f,
		size:   size,
		bpp:    bpp,
		stride: stride,
		buf:    make([]byte, stride*size.Y),
	}, nil
}

// Size returns the framebuffer dimensions.
func (d *FBDev) Size() image.Point {
	return d.size
}

// Present packs the frame into the device pixel format and writes it out.
func (d *FBDev) Present(frame *image.NRGBA) error {
	w, h := d.size.X, d.size.Y
	fw, fh := frame.Bounds().Dx(), frame.Bounds().Dy()
	if fw < w {
		w = fw
	}
	if fh < h {
		h = fh
	}

	for y := 0; y < h; y++ {
		src := frame.Pix[y*frame.Stride:]
		dst := d.buf[y*d.stride:]
		switch d.bpp {
		case 32:
			for x := 0; x < w; x++ {
				r, g, b := src[x*4], src[x*4+1], src[x*4+2]
				dst[x*4] = b
				dst[x*4+1] = g
				dst[x*4+2] = r
				dst[x*4+3] = 0xff
			}
		case 16:
			for x := 0; x < w; x++ {
				r, g, b := src[x*4], src[x*4+1], src[x*4+2]
				v := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
				dst[x*2] = byte(v)
				dst[x*2+1] = byte(v >> 8)
			}
		}
	}

	if _, err := d.f.WriteAt(d.buf, 0); err != nil {
		return fmt.Errorf("framebuffer write: %w", err)
	}
	return nil
}

// Close releases the device.
func (d *FBDev) Close() error {
	return d.f.Close()
}

func readVirtualSize(path string) (image.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return image.Point{}, err
	}
	parts := strings.Split(strings.TrimSpace(string(data)), ",")
	if len(parts) != 2 {
		return image.Point{}, fmt.Errorf("malformed virtual_size %q", data)
	}
	var w, h int
	if _, err := fmt.Sscanf(parts[0], "%d", &w); err != nil {
		return image.Point{}, err
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &h); err != nil {
		return image.Point{}, err
	}
	if w <= 0 || h <= 0 {
		return image.Point{}, fmt.Errorf("degenerate framebuffer size %dx%d", w, h)
	}
	return image.Pt(w, h), nil
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var v int
	if _, err := fmt.Sscanf(strings.TrimSpace(string(data)), "%d", &v); err != nil {
		return 0, err
	}
	return v, nil
}
