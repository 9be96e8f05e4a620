package effects

import (
	"math"

	"postfx-renderer/internal/raster"
)

// volumetrics integrates scattering and transmittance at half resolution and
// composites the result onto in at full resolution. Returns in unchanged when
// the scene has no volume.
func (p *Pipeline) volumetrics(fc *frameContext, in *raster.Target) *raster.Target {
	vol := fc.scene.Volumetrics()
	if vol == nil {
		return in
	}
	fc.matrices(StageVolumetric)
	fc.stats.VolumetricColored = vol.ColoredTransmittance

	p.integrateVolume(fc, in, vol)

	// Resolve at full res, in place.
	w, h := in.Width, in.Height
	for y := 0; y < h; y++ {
		v := (float64(y) + 0.5) / float64(h)
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			s := p.volumetric.Sample(u, v)
			c := in.Pixel(x, y)
			if vol.ColoredTransmittance {
				t := p.volumetricTransmit.Sample(u, v)
				c[0] = c[0]*t[0] + s[0]
				c[1] = c[1]*t[1] + s[1]
				c[2] = c[2]*t[2] + s[2]
			} else {
				c[0] = c[0]*s[3] + s[0]
				c[1] = c[1]*s[3] + s[1]
				c[2] = c[2]*s[3] + s[2]
			}
			in.SetPixel(x, y, c)
		}
	}
	return in
}

// integrateVolume marches every half-res pixel's view ray from the volume
// start to the nearer of the volume end and the opaque surface.
func (p *Pipeline) integrateVolume(fc *frameContext, in *raster.Target, vol *Volume) {
	dst := p.volumetric
	transmit := p.volumetricTransmit
	samples := p.cfg.VolumetricSamples
	start, end := p.cfg.VolumetricStart, p.cfg.VolumetricEnd
	segment := (end - start) / float64(samples)

	var sigmaT [3]float64
	for k := 0; k < 3; k++ {
		sigmaT[k] = vol.Density
		if vol.ColoredTransmittance {
			sigmaT[k] *= vol.Absorption[k]
		}
	}
	var source [3]float64
	for k := 0; k < 3; k++ {
		source[k] = vol.Density*vol.Scattering[k]*vol.LightColor[k] + vol.Emission[k]
	}

	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			// Nearest full-res surface under this half-res pixel.
			fx := min(x*in.Width/dst.Width, in.Width-1)
			fy := min(y*in.Height/dst.Height, in.Height-1)
			z := in.DepthAt(fx, fy)
			pos := fc.viewPosition(fx, fy, z, in.Width, in.Height)
			surface := pos.Len()
			if z >= 1 {
				surface = math.Inf(1)
			}
			limit := math.Min(end, surface)

			trans := [3]float64{1, 1, 1}
			mono := 1.0
			var scatter [3]float64
			for i := 0; i < samples; i++ {
				t0 := start + segment*float64(i)
				if t0 >= limit {
					break
				}
				ds := math.Min(segment, limit-t0)
				for k := 0; k < 3; k++ {
					// Analytic integral of the source over the segment.
					step := math.Exp(-sigmaT[k] * ds)
					if sigmaT[k] > 0 {
						scatter[k] += trans[k] * source[k] * (1 - step) / sigmaT[k]
					} else {
						scatter[k] += trans[k] * source[k] * ds
					}
					trans[k] *= step
				}
				mono *= math.Exp(-vol.Density * ds)
			}

			dst.SetPixel(x, y, [4]float32{float32(scatter[0]), float32(scatter[1]), float32(scatter[2]), float32(mono)})
			if vol.ColoredTransmittance {
				transmit.SetPixel(x, y, [4]float32{float32(trans[0]), float32(trans[1]), float32(trans[2]), 1})
			}
		}
	}
}
