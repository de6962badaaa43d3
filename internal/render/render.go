// Package render holds the pure frame-composition pipeline: aspect scaling,
// mirrored-blur edge fill and cross-fade blending. Nothing here keeps state;
// callers own all buffers.
package render

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Scale policies.
const (
	PolicyCover = "cover"
	PolicyFit   = "fit"
)

const (
	// echoStripWidth is the maximum edge strip taken for the echo fill.
	echoStripWidth = 8
	// echoBlurRadius is the Gaussian blur applied to echo strips.
	echoBlurRadius = 28
)

// Scale resizes img for a target size. Cover fills the target and may
// overflow; fit keeps the whole image visible and may leave margin. A
// zero-dimension source is returned unchanged.
func Scale(img image.Image, target image.Point, policy string) *image.NRGBA {
	sw := img.Bounds().Dx()
	sh := img.Bounds().Dy()
	if sw == 0 || sh == 0 {
		return imaging.Clone(img)
	}

	var scale float64
	if policy == PolicyFit {
		scale = min(float64(target.X)/float64(sw), float64(target.Y)/float64(sh))
	} else {
		scale = max(float64(target.X)/float64(sw), float64(target.Y)/float64(sh))
	}

	nw := max(1, int(float64(sw)*scale+0.5))
	nh := max(1, int(float64(sh)*scale+0.5))
	return imaging.Resize(img, nw, nh, imaging.Lanczos)
}

// CenterRect positions a buffer of the given size centered on the screen.
func CenterRect(size, screen image.Point) image.Rectangle {
	x := (screen.X - size.X) / 2
	y := (screen.Y - size.Y) / 2
	return image.Rect(x, y, x+size.X, y+size.Y)
}

// EchoBackground synthesizes the full-screen background behind a scaled
// image placed at dst. With echo disabled it is solid black. Otherwise each
// strictly positive margin between dst and the screen edge is filled with a
// thin strip from the matching image edge, stretched across the margin,
// mirrored along the margin's axis and strongly blurred, hiding hard
// letterbox bars with content-derived fill.
func EchoBackground(scaled *image.NRGBA, screen image.Point, dst image.Rectangle, enableEcho bool) *image.NRGBA {
	bg := imaging.New(screen.X, screen.Y, color.NRGBA{A: 255})
	if !enableEcho || scaled == nil {
		return bg
	}

	w := scaled.Bounds().Dx()
	h := scaled.Bounds().Dy()
	if w == 0 || h == 0 {
		return bg
	}

	left := dst.Min.X
	right := screen.X - dst.Max.X
	top := dst.Min.Y
	bottom := screen.Y - dst.Max.Y

	stripW := min(echoStripWidth, w)
	stripH := min(echoStripWidth, h)

	if left > 0 {
		strip := imaging.Crop(scaled, image.Rect(0, 0, stripW, h))
		echo := echoStrip(strip, left, dst.Dy(), true, false)
		bg = imaging.Paste(bg, echo, image.Pt(0, dst.Min.Y))
	}
	if right > 0 {
		strip := imaging.Crop(scaled, image.Rect(w-stripW, 0, w, h))
		echo := echoStrip(strip, right, dst.Dy(), true, false)
		bg = imaging.Paste(bg, echo, image.Pt(dst.Max.X, dst.Min.Y))
	}
	if top > 0 {
		strip := imaging.Crop(scaled, image.Rect(0, 0, w, stripH))
		echo := echoStrip(strip, dst.Dx(), top, false, true)
		bg = imaging.Paste(bg, echo, image.Pt(dst.Min.X, 0))
	}
	if bottom > 0 {
		strip := imaging.Crop(scaled, image.Rect(0, h-stripH, w, h))
		echo := echoStrip(strip, dst.Dx(), bottom, false, true)
		bg = imaging.Paste(bg, echo, image.Pt(dst.Min.X, dst.Max.Y))
	}

	return bg
}

// echoStrip stretches an edge strip to the margin size, mirrors it and blurs
// it.
func echoStrip(strip *image.NRGBA, w, h int, flipH, flipV bool) *image.NRGBA {
	echo := imaging.Resize(strip, max(1, w), max(1, h), imaging.Lanczos)
	if flipH {
		echo = imaging.FlipH(echo)
	}
	if flipV {
		echo = imaging.FlipV(echo)
	}
	return imaging.Blur(echo, echoBlurRadius)
}

// ComposeFrame builds the full-screen frame for a scaled image: echo (or
// black) background with the image pasted centered on top.
func ComposeFrame(scaled *image.NRGBA, screen image.Point, enableEcho bool) *image.NRGBA {
	if scaled == nil {
		return imaging.New(screen.X, screen.Y, color.NRGBA{A: 255})
	}
	dst := CenterRect(image.Pt(scaled.Bounds().Dx(), scaled.Bounds().Dy()), screen)
	bg := EchoBackground(scaled, screen, dst, enableEcho)
	return imaging.Paste(bg, scaled, dst.Min)
}

// Blend linearly interpolates two equally sized frames; alpha 0 yields from,
// alpha 255 yields to.
func Blend(from, to *image.NRGBA, alpha uint8) *image.NRGBA {
	out := imaging.Clone(from)
	n := len(out.Pix)
	if len(to.Pix) < n {
		n = len(to.Pix)
	}
	a := int(alpha)
	for i := 0; i < n; i++ {
		f := int(out.Pix[i])
		out.Pix[i] = uint8(f + (int(to.Pix[i])-f)*a/255)
	}
	return out
}
