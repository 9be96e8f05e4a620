package effects

import (
	"math"

	"postfx-renderer/internal/raster"
)

const (
	// sensorScale converts the sensor size from millimetres to metres.
	sensorScale   = 0.001
	defaultSensor = 36.0
)

type dofState struct {
	// Lazily initialised from the active camera, which does not exist yet
	// when the pipeline is built.
	ready  bool
	sensor float64
	scale  float64 // pixels per metre of sensor
	inits  int

	fullCoC             []float32      // full res, signed pixels; >0 far
	coc                 []float32      // half res average of fullCoC
	far, near           *raster.Target // half res, premultiplied, A = coverage
	farAccum, nearAccum *raster.Target
	target              *raster.Target
}

func (d *dofState) allocate(w, h int, depth raster.ColorDepth) {
	hw, hh := raster.HalfSize(w, h)
	d.fullCoC = make([]float32, w*h)
	d.coc = make([]float32, hw*hh)
	d.far = raster.NewTarget(hw, hh, raster.ColorDepthFloat)
	d.near = raster.NewTarget(hw, hh, raster.ColorDepthFloat)
	d.farAccum = raster.NewTarget(hw, hh, raster.ColorDepthFloat)
	d.nearAccum = raster.NewTarget(hw, hh, raster.ColorDepthFloat)
	d.target = raster.NewTarget(w, h, depth)
}

// initDOF derives the sensor scale. It only recomputes when the sensor size
// differs from the one seen last time.
func (p *Pipeline) initDOF(cam Camera) {
	sensor := cam.SensorSize()
	if sensor <= 0 {
		sensor = defaultSensor
	}
	if p.dof.ready && p.dof.sensor == sensor {
		return
	}
	p.dof.sensor = sensor
	p.dof.scale = float64(p.width) / (sensorScale * sensor)
	p.dof.ready = true
	p.dof.inits++
}

// circleOfConfusion returns the signed blur diameter in pixels for an object
// at view distance z: negative in front of the focus plane, positive behind.
func (p *Pipeline) circleOfConfusion(lens Lens, z float64) float32 {
	if lens.FStop <= 0 || lens.FocalLength <= 0 || z <= 0 {
		return 0
	}
	f := lens.FocalLength * sensorScale
	s := lens.FocusDistance
	if s <= f {
		s = f * 1.001
	}
	aperture := f / lens.FStop
	coc := aperture * f * (z - s) / (z * (s - f)) * p.dof.scale
	limit := p.cfg.BokehMaxSize
	return float32(math.Max(-limit, math.Min(limit, coc)))
}

// depthOfField splits the frame into near and far layers at half resolution,
// scatters each layer as discs sized by the circle of confusion and resolves
// both over in into the dedicated DOF target.
//
// With bloom enabled both layers read the shared half-res downsample, which
// bloom reuses later in the frame; otherwise the color is downsampled into a
// pooled scratch target.
func (p *Pipeline) depthOfField(fc *frameContext, in *raster.Target) *raster.Target {
	fc.matrices(StageDOF)
	cam := fc.camera(StageDOF)
	p.initDOF(cam)
	lens := cam.Lens()
	d := &p.dof
	hw, hh := d.far.Width, d.far.Height

	var half *Scratch
	if p.flags.Has(EffectBloom) {
		var produced bool
		half, produced = p.pool.Shared(Key{Width: hw, Height: hh, Depth: p.depth}, fc.frame, func(dst *raster.Target) {
			fc.downsampleColor(in, dst)
		})
		if produced {
			fc.stats.SharedDownsamples++
		}
		fc.stats.DOFNearShared = true
	} else {
		half = p.pool.Acquire(Key{Width: hw, Height: hh, Depth: raster.ColorDepthFloat})
		fc.downsampleColor(in, half.Target)
		fc.stats.DOFNearDownsampled = true
	}
	defer half.Release()

	// Full-res CoC, reused by the resolve.
	for y := 0; y < in.Height; y++ {
		for x := 0; x < in.Width; x++ {
			d.fullCoC[y*in.Width+x] = p.pixelCoC(fc, lens, in, x, y)
		}
	}

	for y := 0; y < hh; y++ {
		for x := 0; x < hw; x++ {
			var coc float32
			for sy := 0; sy < 2; sy++ {
				for sx := 0; sx < 2; sx++ {
					px := min(2*x+sx, in.Width-1)
					py := min(2*y+sy, in.Height-1)
					coc += d.fullCoC[py*in.Width+px] * 0.25
				}
			}
			d.coc[y*hw+x] = coc

			c := half.Pixel(x, y)
			farCov := float32(0)
			if coc >= 0 {
				farCov = 1
			}
			d.far.SetPixel(x, y, [4]float32{c[0] * farCov, c[1] * farCov, c[2] * farCov, farCov})
			nearCov := smoothstep(0, 1, -coc)
			d.near.SetPixel(x, y, [4]float32{c[0] * nearCov, c[1] * nearCov, c[2] * nearCov, nearCov})
		}
	}

	// Scatter far, then near.
	scatterLayer(d.far, d.coc, d.farAccum)
	scatterLayer(d.near, d.coc, d.nearAccum)

	// Resolve.
	out := d.target
	out.CopyDepthFrom(in)
	for y := 0; y < in.Height; y++ {
		v := (float64(y) + 0.5) / float64(in.Height)
		for x := 0; x < in.Width; x++ {
			u := (float64(x) + 0.5) / float64(in.Width)
			c := in.Pixel(x, y)
			coc := d.fullCoC[y*in.Width+x]

			if far := d.farAccum.Sample(u, v); far[3] > 1e-4 {
				fw := smoothstep(0.5, 2, coc)
				for k := 0; k < 3; k++ {
					c[k] += (far[k]/far[3] - c[k]) * fw
				}
			}
			if near := d.nearAccum.Sample(u, v); near[3] > 1e-4 {
				nw := clampf(near[3], 0, 1)
				for k := 0; k < 3; k++ {
					c[k] += (near[k]/near[3] - c[k]) * nw
				}
			}
			out.SetPixel(x, y, c)
		}
	}
	return out
}

func (p *Pipeline) pixelCoC(fc *frameContext, lens Lens, in *raster.Target, x, y int) float32 {
	z := in.DepthAt(x, y)
	if z >= 1 {
		return float32(p.cfg.BokehMaxSize)
	}
	pos := fc.viewPosition(x, y, z, in.Width, in.Height)
	return p.circleOfConfusion(lens, -pos[2])
}

// scatterLayer splats every covered pixel of layer as a disc with its CoC
// radius into accum. Weights are normalized by disc area so energy is kept.
func scatterLayer(layer *raster.Target, coc []float32, accum *raster.Target) {
	accum.Clear(0, 0, 0, 0)
	w, h := layer.Width, layer.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			src := layer.Color[idx*4 : idx*4+4]
			if src[3] <= 0 {
				continue
			}
			// Half-res radius.
			r := float32(math.Abs(float64(coc[idx]))) * 0.25
			if r < 0.5 {
				di := idx * 4
				for k := 0; k < 4; k++ {
					accum.Color[di+k] += src[k]
				}
				continue
			}
			ri := int(math.Ceil(float64(r)))
			weight := 1 / float32(math.Max(1, math.Pi*float64(r*r)))
			r2 := r * r
			for dy := -ri; dy <= ri; dy++ {
				ty := y + dy
				if ty < 0 || ty >= h {
					continue
				}
				for dx := -ri; dx <= ri; dx++ {
					tx := x + dx
					if tx < 0 || tx >= w || float32(dx*dx+dy*dy) > r2 {
						continue
					}
					di := (ty*w + tx) * 4
					for k := 0; k < 4; k++ {
						accum.Color[di+k] += src[k] * weight
					}
				}
			}
		}
	}
}
