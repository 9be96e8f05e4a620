package effects

import (
	"math"

	"postfx-renderer/internal/mathutil"
	"postfx-renderer/internal/raster"
)

// maxBlurLength caps the per-pixel blur vector, in normalized screen units.
const maxBlurLength = 0.15

type motionState struct {
	hasPast bool
	// pastWorldToCam is the previous frame's world-to-camera transform with
	// its translation scaled by the shutter.
	pastWorldToCam mathutil.Mat4
}

// motionBlur blurs each pixel along the screen-space motion between the
// previous and the current camera, both with shutter-scaled translations, and
// writes into the dedicated blur target. Depth is carried over from in.
func (p *Pipeline) motionBlur(fc *frameContext, in *raster.Target) *raster.Target {
	fc.matrices(StageMotionBlur)
	cam := fc.camera(StageMotionBlur)
	shutter := p.cfg.MotionBlurShutter

	current := cam.CameraToWorld().ScaleTranslation(shutter)
	past := p.motion.pastWorldToCam
	if !p.motion.hasPast {
		past = cam.WorldToCamera().ScaleTranslation(shutter)
	}
	// Maps current camera space to past camera space.
	delta := mathutil.Mat4Mul(past, current)

	out := p.blurTarget
	out.CopyDepthFrom(in)

	w, h := in.Width, in.Height
	samples := p.cfg.MotionBlurSamples
	still := delta.IsIdentity()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if still || samples == 1 {
				copy(out.Color[idx*4:idx*4+4], in.Color[idx*4:idx*4+4])
				continue
			}
			pos := fc.viewPosition(x, y, in.ZBuf[idx], w, h)
			pastNDC, ok := fc.proj.Project(delta.MulPoint(pos))
			if !ok {
				copy(out.Color[idx*4:idx*4+4], in.Color[idx*4:idx*4+4])
				continue
			}
			u := (float64(x) + 0.5) / float64(w)
			v := (float64(y) + 0.5) / float64(h)
			pu, pv := screenUV(pastNDC)
			du, dv := u-pu, v-pv
			if l := math.Hypot(du, dv); l > maxBlurLength {
				du *= maxBlurLength / l
				dv *= maxBlurLength / l
			}

			var acc [4]float32
			for i := 0; i < samples; i++ {
				t := float64(i)/float64(samples-1) - 0.5
				c := in.Sample(u+du*t, v+dv*t)
				for k := 0; k < 4; k++ {
					acc[k] += c[k]
				}
			}
			inv := 1 / float32(samples)
			out.SetPixel(x, y, [4]float32{acc[0] * inv, acc[1] * inv, acc[2] * inv, acc[3] * inv})
		}
	}

	p.motion.pastWorldToCam = cam.WorldToCamera().ScaleTranslation(shutter)
	p.motion.hasPast = true
	return out
}
