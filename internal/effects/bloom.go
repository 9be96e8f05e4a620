package effects

import "postfx-renderer/internal/raster"

// bloomIterations returns how many downsample passes fit, starting at half
// resolution, without going below 1 pixel.
func bloomIterations(requested, w, h int) int {
	n := 1
	for n < requested && w > 1 && h > 1 {
		w, h = w/2, h/2
		n++
	}
	return n
}

// bloom extracts bright pixels from the shared half-res downsample, walks the
// chain down and back up accumulating glow, then composites the glow over in
// into the dedicated bloom target.
func (p *Pipeline) bloom(fc *frameContext, in *raster.Target) *raster.Target {
	hw, hh := raster.HalfSize(in.Width, in.Height)
	shared, produced := p.pool.Shared(Key{Width: hw, Height: hh, Depth: p.depth}, fc.frame, func(dst *raster.Target) {
		fc.downsampleColor(in, dst)
	})
	defer shared.Release()
	if produced {
		fc.stats.SharedDownsamples++
	}

	iterations := bloomIterations(p.cfg.BloomIterations, hw, hh)
	down := make([]*Scratch, 0, iterations)
	up := make([]*Scratch, 0, iterations)
	defer func() {
		for _, s := range down {
			s.Release()
		}
		for _, s := range up {
			s.Release()
		}
	}()

	// Extract bright pixels.
	first := p.pool.Acquire(Key{Width: hw, Height: hh, Depth: raster.ColorDepthFloat})
	p.brightPass(shared.Target, first.Target)
	down = append(down, first)
	fc.stats.BloomDownsamples = 1

	// Downsample.
	for i := 1; i < iterations; i++ {
		prev := down[i-1]
		w, h := raster.HalfSize(prev.Width, prev.Height)
		next := p.pool.Acquire(Key{Width: w, Height: h, Depth: raster.ColorDepthFloat})
		for y := 0; y < h; y++ {
			v := (float64(y) + 0.5) / float64(h)
			for x := 0; x < w; x++ {
				u := (float64(x) + 0.5) / float64(w)
				next.SetPixel(x, y, tent(prev.Target, u, v))
			}
		}
		down = append(down, next)
		fc.stats.BloomDownsamples++
	}

	// Upsample and accumulate.
	last := down[len(down)-1]
	for i := iterations - 2; i >= 0; i-- {
		base := down[i]
		acc := p.pool.Acquire(KeyOf(base.Target))
		for y := 0; y < acc.Height; y++ {
			v := (float64(y) + 0.5) / float64(acc.Height)
			for x := 0; x < acc.Width; x++ {
				u := (float64(x) + 0.5) / float64(acc.Width)
				b := base.Pixel(x, y)
				g := tent(last.Target, u, v)
				acc.SetPixel(x, y, [4]float32{b[0] + g[0], b[1] + g[1], b[2] + g[2], 1})
			}
		}
		up = append(up, acc)
		last = acc
		fc.stats.BloomUpsamples++
	}

	// Resolve.
	out := p.bloomTarget
	out.CopyDepthFrom(in)
	intensity := float32(p.cfg.BloomIntensity)
	for y := 0; y < in.Height; y++ {
		v := (float64(y) + 0.5) / float64(in.Height)
		for x := 0; x < in.Width; x++ {
			u := (float64(x) + 0.5) / float64(in.Width)
			g := last.Sample(u, v)
			c := in.Pixel(x, y)
			c[0] += g[0] * intensity
			c[1] += g[1] * intensity
			c[2] += g[2] * intensity
			out.SetPixel(x, y, c)
		}
	}
	return out
}

// brightPass keeps the part of each pixel above the threshold with a soft knee.
func (p *Pipeline) brightPass(src, dst *raster.Target) {
	threshold := float32(p.cfg.BloomThreshold)
	knee := float32(p.cfg.BloomKnee)
	clampMax := float32(p.cfg.BloomClamp)
	for i := 0; i < src.Width*src.Height; i++ {
		si := i * 4
		r, g, b := src.Color[si], src.Color[si+1], src.Color[si+2]
		br := max(r, g, b)
		if clampMax > 0 && br > clampMax {
			s := clampMax / br
			r, g, b, br = r*s, g*s, b*s, clampMax
		}
		var rq float32
		if knee > 0 {
			rq = clampf(br-threshold+knee, 0, 2*knee)
			rq = rq * rq * (0.25 / knee)
		}
		m := max(rq, br-threshold) / max(br, 1e-5)
		if m < 0 {
			m = 0
		}
		dst.Color[si] = r * m
		dst.Color[si+1] = g * m
		dst.Color[si+2] = b * m
		dst.Color[si+3] = 1
	}
}
