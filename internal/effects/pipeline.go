// Package effects implements the post-effects pipeline: an ordered chain of
// optional image-space stages over frame targets. Each stage reads the
// previous stage's output; a disabled stage hands its input through untouched.
//
// Stage order: temporal resolve, min/max depth pyramid, screen-space
// reflections, volumetrics, motion blur, depth of field, bloom.
package effects

import (
	"fmt"
	"time"

	"postfx-renderer/internal/mathutil"
	"postfx-renderer/internal/raster"
)

// Stage names as reported in FrameStats.
const (
	StageTAA        = "taa"
	StagePyramid    = "minmax_depth"
	StageSSR        = "ssr"
	StageVolumetric = "volumetric"
	StageMotionBlur = "motion_blur"
	StageDOF        = "dof"
	StageBloom      = "bloom"
)

// Pipeline owns the stage targets and the temporal state. It is not safe for
// concurrent use.
type Pipeline struct {
	cfg   Config
	flags Flags

	width, height int
	depth         raster.ColorDepth

	scene Scene
	pool  *Pool
	frame uint64
	stats FrameStats

	taa     taaState
	pyramid DepthPyramid

	// projection*view of the last frame that traced reflections.
	ssrReprojection mathutil.Mat4

	// Dedicated stage targets, allocated at construction for enabled stages.
	volumetric         *raster.Target // half res: scattering RGB, mono transmittance A
	volumetricTransmit *raster.Target // half res: colored transmittance
	blurTarget         *raster.Target
	dof                dofState
	bloomTarget        *raster.Target

	motion motionState

	closed bool
}

// New builds a pipeline for the canvas. cfg is read once; scene is queried
// lazily, so its active camera may still be missing at this point.
func New(cfg Config, canvas Canvas, scene Scene) *Pipeline {
	cfg = cfg.sanitized()
	w, h := canvas.Width(), canvas.Height()
	if w < 1 || h < 1 {
		panic(fmt.Sprintf("effects: invalid canvas %dx%d", w, h))
	}
	p := &Pipeline{
		cfg:    cfg,
		flags:  cfg.Flags(),
		width:  w,
		height: h,
		depth:  canvas.ColorDepth(),
		scene:  scene,
		pool:   NewPool(),
	}

	hw, hh := raster.HalfSize(w, h)
	if p.flags.Has(EffectTAA) {
		p.taa.history = raster.NewTarget(w, h, p.depth)
		p.taa.depthHistory = raster.NewTarget(w, h, p.depth)
		p.taa.sample = raster.NewTarget(w, h, p.depth)
	}
	if p.flags.Has(EffectVolumetric) {
		p.volumetric = raster.NewTarget(hw, hh, raster.ColorDepthFloat)
		p.volumetricTransmit = raster.NewTarget(hw, hh, raster.ColorDepthFloat)
	}
	if p.flags.Has(EffectMotionBlur) {
		p.blurTarget = raster.NewTarget(w, h, p.depth)
	}
	if p.flags.Has(EffectDOF) {
		p.dof.allocate(w, h, p.depth)
	}
	if p.flags.Has(EffectBloom) {
		p.bloomTarget = raster.NewTarget(w, h, p.depth)
	}

	Logger().Info("post-effects pipeline created",
		"width", w, "height", h, "depth", p.depth.String(), "effects", p.flags.String())
	return p
}

// Flags returns the active effect set.
func (p *Pipeline) Flags() Flags { return p.flags }

// Config returns the sanitized configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Size returns the full render resolution.
func (p *Pipeline) Size() (int, int) { return p.width, p.height }

// LastStats describes the most recent Apply.
func (p *Pipeline) LastStats() FrameStats { return p.stats }

// Pool exposes the scratch pool, mainly to check attach/detach balance.
func (p *Pipeline) Pool() *Pool { return p.pool }

// DepthPyramid returns the min/max depth pyramid of the last frame. It is only
// maintained while ambient occlusion or screen-space reflections are enabled.
func (p *Pipeline) DepthPyramid() *DepthPyramid { return &p.pyramid }

// SSRReprojection returns the projection*view matrix recorded by the last
// reflection pass, used to reproject the previous frame's reflections.
func (p *Pipeline) SSRReprojection() mathutil.Mat4 { return p.ssrReprojection }

// Apply runs every stage over in and returns the post-processed frame: either
// in itself or one of the pipeline's stage targets. in must match the canvas
// resolution. The returned target is owned by the pipeline and is overwritten
// by the next Apply.
func (p *Pipeline) Apply(in *raster.Target) *raster.Target {
	if p.closed {
		panic("effects: Apply on a closed pipeline")
	}
	if in.Width != p.width || in.Height != p.height {
		panic(fmt.Sprintf("effects: input %dx%d does not match canvas %dx%d", in.Width, in.Height, p.width, p.height))
	}
	p.frame++
	p.stats = FrameStats{Frame: p.frame}
	fc := &frameContext{frame: p.frame, scene: p.scene, stats: &p.stats}

	// Temporal resolve must come first.
	p.stage(StageTAA, EffectTAA, func() { p.temporalResolve(fc, in) })

	if p.flags&(EffectAO|EffectSSR) != 0 {
		p.stage(StagePyramid, EffectNone, func() {
			p.pyramid.Build(in)
			p.stats.PyramidBuilt = true
		})
	}

	p.stage(StageSSR, EffectSSR, func() { p.screenSpaceReflections(fc, in) })

	out := in
	p.stage(StageVolumetric, EffectVolumetric, func() { out = p.volumetrics(fc, out) })
	p.stage(StageMotionBlur, EffectMotionBlur, func() { out = p.motionBlur(fc, out) })
	p.stage(StageDOF, EffectDOF, func() { out = p.depthOfField(fc, out) })
	p.stage(StageBloom, EffectBloom, func() { out = p.bloom(fc, out) })

	if n := p.pool.Outstanding(); n != 0 {
		Logger().Warn("scratch targets still attached after frame", "frame", p.frame, "count", n)
	}
	return out
}

// InvalidateHistory discards temporal state, for example after the host
// recreated its render context. The next frame restarts at sample 1.
func (p *Pipeline) InvalidateHistory() {
	p.taa.valid = false
	p.motion.hasPast = false
}

// TAASample returns the current temporal sample index (0 before the first frame).
func (p *Pipeline) TAASample() int { return p.taa.current }

// Close releases the pipeline's targets. The pipeline cannot be used afterwards.
func (p *Pipeline) Close() {
	p.closed = true
	p.pool.Drain()
	p.taa = taaState{}
	p.volumetric = nil
	p.volumetricTransmit = nil
	p.blurTarget = nil
	p.dof = dofState{}
	p.bloomTarget = nil
	p.pyramid = DepthPyramid{}
	Logger().Info("post-effects pipeline closed", "frames", p.frame)
}

// stage runs fn when required is active (EffectNone always runs) and records it.
func (p *Pipeline) stage(name string, required Flags, fn func()) {
	if required != EffectNone && !p.flags.Has(required) {
		return
	}
	start := time.Now()
	fn()
	d := time.Since(start)
	p.stats.Stages = append(p.stats.Stages, StageTiming{Name: name, Duration: d})
	Logger().Debug("stage done", "frame", p.frame, "stage", name, "elapsed", d)
}

// frameContext carries the per-frame inputs shared by the stages. Host queries
// are made on first use so disabled stages never touch the camera.
type frameContext struct {
	frame uint64
	scene Scene
	stats *FrameStats

	cam      Camera
	haveMats bool
	proj     mathutil.Mat4
	invProj  mathutil.Mat4
	view     mathutil.Mat4
	viewProj mathutil.Mat4
}

func (fc *frameContext) camera(stage string) Camera {
	if fc.cam == nil {
		fc.cam = fc.scene.ActiveCamera()
		if fc.cam == nil {
			panic("effects: " + stage + " reached without an active camera")
		}
	}
	return fc.cam
}

func (fc *frameContext) matrices(stage string) {
	if fc.haveMats {
		return
	}
	cam := fc.camera(stage)
	fc.proj = cam.Projection()
	fc.view = cam.ModelView()
	fc.invProj = fc.proj.Inverse()
	fc.viewProj = mathutil.Mat4Mul(fc.proj, fc.view)
	fc.haveMats = true
}

// downsampleColor box-filters a full-res frame into dst at half size.
func (fc *frameContext) downsampleColor(src, dst *raster.Target) {
	downsample2x2(src, dst)
	fc.stats.ColorDownsamples++
}

// viewPosition reconstructs the view-space position of pixel (x, y) at NDC depth z.
func (fc *frameContext) viewPosition(x, y int, z float32, w, h int) mathutil.Vec3 {
	ndc := mathutil.Vec3{
		2*(float64(x)+0.5)/float64(w) - 1,
		1 - 2*(float64(y)+0.5)/float64(h),
		2*float64(z) - 1,
	}
	return fc.invProj.Unproject(ndc)
}

// screenUV maps an NDC position to normalized target coordinates (v down).
func screenUV(ndc mathutil.Vec3) (float64, float64) {
	return ndc[0]*0.5 + 0.5, 0.5 - ndc[1]*0.5
}
