package raster

import "image"

// SampleTexture performs bilinear filtering with UV wrapping and returns linear RGBA.
// Accesses tex.Pix directly for performance.
func SampleTexture(tex *image.NRGBA, u, v float64) [4]float32 {
	w := tex.Rect.Dx()
	h := tex.Rect.Dy()

	// Wrap UVs
	u = u - float64(int(u))
	if u < 0 {
		u += 1.0
	}
	v = v - float64(int(v))
	if v < 0 {
		v += 1.0
	}

	fx := u * float64(w-1)
	fy := v * float64(h-1)
	x0 := int(fx)
	y0 := int(fy)
	x1 := (x0 + 1) % w
	y1 := (y0 + 1) % h
	dx := float32(fx - float64(x0))
	dy := float32(fy - float64(y0))

	stride := tex.Stride
	pix := tex.Pix

	// Four texels
	i00 := y0*stride + x0*4
	i10 := y0*stride + x1*4
	i01 := y1*stride + x0*4
	i11 := y1*stride + x1*4

	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	var out [4]float32
	for k := 0; k < 3; k++ {
		out[k] = srgbToLinear[pix[i00+k]]*w00 + srgbToLinear[pix[i10+k]]*w10 +
			srgbToLinear[pix[i01+k]]*w01 + srgbToLinear[pix[i11+k]]*w11
	}
	out[3] = (float32(pix[i00+3])*w00 + float32(pix[i10+3])*w10 +
		float32(pix[i01+3])*w01 + float32(pix[i11+3])*w11) / 255
	return out
}
