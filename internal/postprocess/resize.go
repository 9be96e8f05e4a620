// Package postprocess holds presentation-time image operations applied after
// the frame has been tonemapped to 8 bits.
package postprocess

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Resize rescales img to w×h with premultiplied-alpha-aware Catmull-Rom
// filtering. This prevents dark halo artifacts at transparent edges.
func Resize(img *image.NRGBA, w, h int) *image.NRGBA {
	b := img.Bounds()
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if b.Dx() == w && b.Dy() == h {
		return img
	}

	// Premultiply alpha
	premul := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si := img.PixOffset(x, y)
			di := premul.PixOffset(x, y)
			a := float64(img.Pix[si+3]) / 255.0
			premul.Pix[di] = uint8(float64(img.Pix[si])*a + 0.5)
			premul.Pix[di+1] = uint8(float64(img.Pix[si+1])*a + 0.5)
			premul.Pix[di+2] = uint8(float64(img.Pix[si+2])*a + 0.5)
			premul.Pix[di+3] = img.Pix[si+3]
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	// Unpremultiply alpha
	result := image.NewNRGBA(dst.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := dst.PixOffset(x, y)
			di := result.PixOffset(x, y)
			a := float64(dst.Pix[si+3])
			if a > 1 {
				inv := 255.0 / a
				result.Pix[di] = clamp8(float64(dst.Pix[si]) * inv)
				result.Pix[di+1] = clamp8(float64(dst.Pix[si+1]) * inv)
				result.Pix[di+2] = clamp8(float64(dst.Pix[si+2]) * inv)
			}
			result.Pix[di+3] = dst.Pix[si+3]
		}
	}
	return result
}

// FitSize returns the largest size with the aspect ratio of w×h that fits
// inside maxW×maxH, at least 1×1.
func FitSize(w, h, maxW, maxH int) (int, int) {
	if w < 1 || h < 1 {
		return 1, 1
	}
	s := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	fw := max(1, int(float64(w)*s+0.5))
	fh := max(1, int(float64(h)*s+0.5))
	return min(fw, max(maxW, 1)), min(fh, max(maxH, 1))
}

// Fit resizes img to fit inside maxW×maxH keeping its aspect ratio.
func Fit(img *image.NRGBA, maxW, maxH int) *image.NRGBA {
	b := img.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), maxW, maxH)
	return Resize(img, w, h)
}

// Letterbox fits img inside a transparent w×h canvas and centers it.
func Letterbox(img *image.NRGBA, w, h int) *image.NRGBA {
	scaled := Fit(img, w, h)
	canvas := image.NewNRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	sb := scaled.Bounds()
	off := image.Pt((canvas.Rect.Dx()-sb.Dx())/2, (canvas.Rect.Dy()-sb.Dy())/2)
	draw.Copy(canvas, off, scaled, sb, draw.Src, nil)
	return canvas
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
