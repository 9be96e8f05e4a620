package effects

import (
	"postfx-renderer/internal/mathutil"
	"postfx-renderer/internal/raster"
)

// taaState persists across frames.
type taaState struct {
	valid       bool // prevPersmat/prevSupport hold a previous frame
	prevPersmat mathutil.Mat4
	prevSupport uint64
	current     int

	history      *raster.Target // accumulated color
	depthHistory *raster.Target // depth of sample 1
	sample       *raster.Target // jittered re-render
}

// temporalResolve accumulates jittered samples of a static view into the
// history buffer and writes the accumulated result back into in.
//
// History is discarded when the projection*view matrix moved beyond tolerance
// or the scene's draw-support state changed; either alone resets. A reset
// makes this frame sample 1 and keeps its depth for the frames that follow.
// While the budget is not exhausted every further sample is re-rendered with
// a Halton (2,3) sub-pixel offset applied to the projection.
func (p *Pipeline) temporalResolve(fc *frameContext, in *raster.Target) {
	fc.matrices(StageTAA)
	st := &p.taa

	persmat := fc.viewProj
	viewValid := st.valid && persmat.ApproxEqual(st.prevPersmat, p.cfg.TAATolerance)
	st.prevPersmat = persmat

	// Prevent ghosting from stale render state.
	support := fc.scene.DrawSupport()
	viewValid = viewValid && st.prevSupport == support
	st.prevSupport = support
	st.valid = true

	total := p.cfg.TAASamples
	converged := false
	switch {
	case !viewValid:
		st.current = 1
		fc.stats.TAAReset = true
	case total == 0 || st.current < total:
		st.current++
	default:
		converged = true
	}
	fc.stats.TAASample = st.current

	if st.current == 1 {
		// Save this frame as the start of the history, depth included, so the
		// next frame has something to blend against and validate with.
		st.history.CopyColorFrom(in)
		st.depthHistory.CopyDepthFrom(in)
		Logger().Debug("temporal history reset", "frame", fc.frame)
		return
	}

	if !converged {
		hx, hy := mathutil.Halton23(st.current - 1)
		dx := (hx*2 - 1) / float64(p.width)
		dy := (hy*2 - 1) / float64(p.height)
		jittered := mathutil.Mat4Mul(fc.proj.WindowTranslate(dx, dy), fc.view)

		// The sample starts from the host background, never the shaded frame.
		set := fc.scene.VisibleMeshes(fc.camera(StageTAA), 0)
		bg := fc.scene.ClearColor()
		st.sample.Clear(bg[0], bg[1], bg[2], bg[3])
		st.sample.ClearDepth()
		fc.scene.RenderBuckets(set, jittered, st.sample)
		fc.stats.TAARerendered = true

		alpha := float32(1) / float32(st.current)
		hist := st.history.Color
		smp := st.sample.Color
		for i := range hist {
			hist[i] += (smp[i] - hist[i]) * alpha
		}
	}

	in.CopyColorFrom(st.history)
	// Restore the depth from sample 1.
	in.CopyDepthFrom(st.depthHistory)
}
