package raster

import (
	"image"
	"image/color"
	"math"
)

// ToNRGBA tonemaps the linear color buffer (exposure, ACES, sRGB encode) into an
// 8-bit image. LDR targets skip the tonemap and are only gamma encoded.
func (t *Target) ToNRGBA(exposure float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, t.Width, t.Height))
	const invGamma = 1.0 / 2.2
	hdr := t.Depth.HDR()
	for i := 0; i < t.Width*t.Height; i++ {
		si := i * 4
		for k := 0; k < 3; k++ {
			v := float64(t.Color[si+k])
			if hdr {
				v = ACESTonemap(v * exposure)
			}
			if v < 0 {
				v = 0
			}
			img.Pix[si+k] = clamp255(math.Pow(v, invGamma) * 255)
		}
		img.Pix[si+3] = clamp255(float64(t.Color[si+3]) * 255)
	}
	return img
}

// FromImage decodes an sRGB image into a new linear target at the image's size.
// The depth buffer is left at the far plane.
func FromImage(src image.Image, depth ColorDepth) *Target {
	b := src.Bounds()
	t := NewTarget(b.Dx(), b.Dy(), depth)
	nrgba, _ := src.(*image.NRGBA)
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			var c color.NRGBA
			if nrgba != nil {
				c = nrgba.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			} else {
				c = color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			}
			i := (y*t.Width + x) * 4
			t.Color[i] = srgbToLinear[c.R]
			t.Color[i+1] = srgbToLinear[c.G]
			t.Color[i+2] = srgbToLinear[c.B]
			t.Color[i+3] = float32(c.A) / 255
		}
	}
	return t
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
