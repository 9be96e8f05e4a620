package effects

import (
	"math"

	"postfx-renderer/internal/mathutil"
	"postfx-renderer/internal/raster"
)

const (
	ssrMipLevels    = 9
	ssrPyramidLevel = 2 // coarse level used to skip empty space while marching
	ssrRaySpread    = 0.08
	ssrEdgeFade     = 0.1 // fraction of the screen over which hits fade out
)

// screenSpaceReflections traces reflection rays against the depth buffer and
// resolves them into in. One hit buffer is attached per ray; all of them, and
// the color mip chain, are detached before returning.
func (p *Pipeline) screenSpaceReflections(fc *frameContext, in *raster.Target) {
	fc.matrices(StageSSR)
	p.ssrReprojection = fc.viewProj
	w, h := in.Width, in.Height
	rays := p.cfg.SSRRayCount
	fc.stats.SSRRays = rays

	hitKey := Key{Width: w, Height: h, Depth: raster.ColorDepthFloat}
	hits := make([]*Scratch, rays)
	for i := range hits {
		hits[i] = p.pool.Acquire(hitKey)
		hits[i].Clear(0, 0, 0, 0)
	}
	defer func() {
		for _, s := range hits {
			s.Release()
		}
	}()

	normals := make([]mathutil.Vec3, w*h)
	positions := make([]mathutil.Vec3, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			positions[y*w+x] = fc.viewPosition(x, y, in.ZBuf[y*w+x], w, h)
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			normals[y*w+x] = reconstructNormal(positions, in.ZBuf, x, y, w, h)
		}
	}

	// Raytrace.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if in.ZBuf[idx] >= 1 {
				continue
			}
			pos := positions[idx]
			n := normals[idx]
			viewDir := pos.Normalize()
			refl := reflect(viewDir, n)
			for r := 0; r < rays; r++ {
				dir := refl
				if r > 0 {
					hx, hy := mathutil.Halton23(r)
					dir = perturb(refl, n, (hx-0.5)*ssrRaySpread, (hy-0.5)*ssrRaySpread)
				}
				u, v, dist, ok := p.traceRay(fc, in, pos, dir)
				if !ok {
					continue
				}
				fade := edgeFade(u, v) * float32(1-dist/p.cfg.SSRMaxDistance)
				hits[r].SetPixel(x, y, [4]float32{float32(u), float32(v), float32(dist), fade})
			}
		}
	}

	// Color mip chain of the unresolved frame.
	mips := p.colorMipChain(in)
	defer func() {
		for _, m := range mips {
			m.Release()
		}
	}()

	// Resolve at full res.
	f0 := float32(p.cfg.SSRReflectivity)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if in.ZBuf[idx] >= 1 {
				continue
			}
			var acc [3]float32
			var weight float32
			for r := 0; r < rays; r++ {
				hit := hits[r].Pixel(x, y)
				if hit[3] <= 0 {
					continue
				}
				level := int(float64(hit[2]) / p.cfg.SSRMaxDistance * 3)
				if level >= len(mips) {
					level = len(mips) - 1
				}
				c := mips[level].Sample(float64(hit[0]), float64(hit[1]))
				acc[0] += c[0] * hit[3]
				acc[1] += c[1] * hit[3]
				acc[2] += c[2] * hit[3]
				weight += hit[3]
			}
			if weight <= 0 {
				continue
			}
			cosTheta := math.Abs(normals[idx].Dot(positions[idx].Normalize()))
			fresnel := f0 + (1-f0)*float32(math.Pow(1-cosTheta, 5))
			scale := fresnel / float32(rays)
			c := in.Pixel(x, y)
			c[0] += acc[0] * scale
			c[1] += acc[1] * scale
			c[2] += acc[2] * scale
			in.SetPixel(x, y, c)
		}
	}
}

// traceRay marches from pos along dir in view space and returns the hit's
// screen coordinates and travelled distance.
func (p *Pipeline) traceRay(fc *frameContext, in *raster.Target, pos, dir mathutil.Vec3) (u, v, dist float64, ok bool) {
	steps := p.cfg.SSRMaxSteps
	stepLen := p.cfg.SSRMaxDistance / float64(steps)
	w, h := in.Width, in.Height
	coarse := min(ssrPyramidLevel, len(p.pyramid.Levels)-1)

	for i := 1; i <= steps; i++ {
		t := stepLen * float64(i)
		rp := pos.Add(dir.Scale(t))
		ndc, front := fc.proj.Project(rp)
		if !front {
			return 0, 0, 0, false
		}
		if ndc[0] < -1 || ndc[0] > 1 || ndc[1] < -1 || ndc[1] > 1 {
			return 0, 0, 0, false
		}
		u, v = screenUV(ndc)
		px := min(int(u*float64(w)), w-1)
		py := min(int(v*float64(h)), h-1)
		rayDepth := float32(ndc[2]*0.5 + 0.5)

		// Everything in this tile is behind the ray.
		if coarse >= 0 && rayDepth < p.pyramid.MinAt(coarse, px, py) {
			continue
		}

		sceneDepth := in.ZBuf[py*w+px]
		if sceneDepth >= 1 || rayDepth <= sceneDepth {
			continue
		}
		scenePos := fc.viewPosition(px, py, sceneDepth, w, h)
		// View space looks down -Z: the ray is at most thickness behind the surface.
		if scenePos[2]-rp[2] < p.cfg.SSRThickness {
			return u, v, t, true
		}
	}
	return 0, 0, 0, false
}

// colorMipChain copies in to level 0 and box-filters down to ssrMipLevels levels.
func (p *Pipeline) colorMipChain(in *raster.Target) []*Scratch {
	mips := make([]*Scratch, 0, ssrMipLevels)
	base := p.pool.Acquire(KeyOf(in))
	base.CopyColorFrom(in)
	mips = append(mips, base)
	for len(mips) < ssrMipLevels {
		prev := mips[len(mips)-1]
		if prev.Width == 1 && prev.Height == 1 {
			break
		}
		hw, hh := raster.HalfSize(prev.Width, prev.Height)
		next := p.pool.Acquire(Key{Width: hw, Height: hh, Depth: in.Depth})
		downsample2x2(prev.Target, next.Target)
		mips = append(mips, next)
	}
	return mips
}

// reconstructNormal derives a view-space normal from neighbouring positions,
// picking the neighbour with the smaller depth gap on each axis.
func reconstructNormal(pos []mathutil.Vec3, depth []float32, x, y, w, h int) mathutil.Vec3 {
	c := pos[y*w+x]
	ddx := neighbourDelta(pos, depth, c, y*w+x, x > 0, x < w-1, 1)
	ddy := neighbourDelta(pos, depth, c, y*w+x, y > 0, y < h-1, w)
	n := ddx.Cross(ddy).Normalize()
	// Face the camera.
	if n.Dot(c) > 0 {
		n = n.Scale(-1)
	}
	return n
}

func neighbourDelta(pos []mathutil.Vec3, depth []float32, c mathutil.Vec3, idx int, hasPrev, hasNext bool, stride int) mathutil.Vec3 {
	switch {
	case hasPrev && hasNext:
		dp := math.Abs(float64(depth[idx] - depth[idx-stride]))
		dn := math.Abs(float64(depth[idx+stride] - depth[idx]))
		if dp < dn {
			return c.Sub(pos[idx-stride])
		}
		return pos[idx+stride].Sub(c)
	case hasNext:
		return pos[idx+stride].Sub(c)
	case hasPrev:
		return c.Sub(pos[idx-stride])
	}
	if stride == 1 {
		return mathutil.Vec3{1, 0, 0}
	}
	return mathutil.Vec3{0, -1, 0}
}

func reflect(d, n mathutil.Vec3) mathutil.Vec3 {
	return d.Sub(n.Scale(2 * d.Dot(n)))
}

// perturb tilts dir inside the plane tangent to n.
func perturb(dir, n mathutil.Vec3, a, b float64) mathutil.Vec3 {
	t := n.Cross(mathutil.Vec3{0, 1, 0})
	if t.Len() < 1e-6 {
		t = n.Cross(mathutil.Vec3{1, 0, 0})
	}
	t = t.Normalize()
	bt := n.Cross(t)
	return dir.Add(t.Scale(a)).Add(bt.Scale(b)).Normalize()
}

func edgeFade(u, v float64) float32 {
	d := math.Min(math.Min(u, 1-u), math.Min(v, 1-v))
	return float32(math.Max(0, math.Min(1, d/ssrEdgeFade)))
}
