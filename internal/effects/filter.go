package effects

import "postfx-renderer/internal/raster"

// downsample2x2 box-filters src into dst, which is expected at half size.
func downsample2x2(src, dst *raster.Target) {
	for y := 0; y < dst.Height; y++ {
		sy0 := min(2*y, src.Height-1)
		sy1 := min(2*y+1, src.Height-1)
		for x := 0; x < dst.Width; x++ {
			sx0 := min(2*x, src.Width-1)
			sx1 := min(2*x+1, src.Width-1)
			i00 := (sy0*src.Width + sx0) * 4
			i10 := (sy0*src.Width + sx1) * 4
			i01 := (sy1*src.Width + sx0) * 4
			i11 := (sy1*src.Width + sx1) * 4
			di := (y*dst.Width + x) * 4
			for k := 0; k < 4; k++ {
				dst.Color[di+k] = (src.Color[i00+k] + src.Color[i10+k] + src.Color[i01+k] + src.Color[i11+k]) * 0.25
			}
		}
	}
}

// tent samples src with four bilinear taps one texel apart, a 4×4 tent filter.
func tent(src *raster.Target, u, v float64) [4]float32 {
	du := 1 / float64(src.Width)
	dv := 1 / float64(src.Height)
	a := src.Sample(u-du, v-dv)
	b := src.Sample(u+du, v-dv)
	c := src.Sample(u-du, v+dv)
	d := src.Sample(u+du, v+dv)
	var out [4]float32
	for k := 0; k < 4; k++ {
		out[k] = (a[k] + b[k] + c[k] + d[k]) * 0.25
	}
	return out
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func smoothstep(e0, e1, x float32) float32 {
	t := clampf((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}
