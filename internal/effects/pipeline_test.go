package effects

import (
	"math"
	"math/bits"
	"slices"
	"testing"

	"postfx-renderer/internal/mathutil"
)

func TestApplyWithoutEffectsIsIdentity(t *testing.T) {
	scene := &fakeScene{} // no active camera
	p := New(DefaultConfig(), canvas(32, 24), scene)
	in := testFrame(32, 24)
	want := in.Clone()

	out := p.Apply(in)
	if out != in {
		t.Fatal("expected the input target to be returned")
	}
	if !slices.Equal(out.Color, want.Color) || !slices.Equal(out.ZBuf, want.ZBuf) {
		t.Error("input was modified")
	}
	if scene.cameraCalls != 0 {
		t.Errorf("camera queried %d times with every effect disabled", scene.cameraCalls)
	}
	if n := len(p.LastStats().Stages); n != 0 {
		t.Errorf("%d stages ran", n)
	}
}

func TestBloomOnlyFullHD(t *testing.T) {
	if testing.Short() {
		t.Skip("full resolution frame")
	}
	cfg := DefaultConfig()
	cfg.Bloom = true
	p := New(cfg, canvas(1920, 1080), &fakeScene{})
	in := testFrame(1920, 1080)

	out := p.Apply(in)
	if out == in {
		t.Fatal("bloom returned its input target")
	}
	if out.Width != 1920 || out.Height != 1080 {
		t.Fatalf("output is %dx%d", out.Width, out.Height)
	}
	if slices.Equal(out.Color, in.Color) {
		t.Error("bloom output has the same content as its input")
	}
	if !slices.Equal(out.ZBuf, in.ZBuf) {
		t.Error("bloom target did not carry depth forward")
	}
	if p.Pool().Outstanding() != 0 {
		t.Errorf("outstanding scratch references: %d", p.Pool().Outstanding())
	}
}

func TestOutputSizeForEveryToggleCombination(t *testing.T) {
	const w, h = 20, 14
	all := []Flags{EffectTAA, EffectAO, EffectSSR, EffectVolumetric, EffectMotionBlur, EffectDOF, EffectBloom}
	for mask := 0; mask < 1<<len(all); mask++ {
		var fl Flags
		for i, f := range all {
			if mask&(1<<i) != 0 {
				fl |= f
			}
		}
		t.Run(fl.String(), func(t *testing.T) {
			scene := &fakeScene{cam: newFakeCamera(w, h), volume: &Volume{Density: 0.05, Scattering: [3]float64{1, 1, 1}, LightColor: [3]float64{1, 1, 1}}}
			p := New(DefaultConfig().WithFlags(fl), canvas(w, h), scene)
			for frame := 0; frame < 2; frame++ {
				out := p.Apply(testFrame(w, h))
				if out.Width != w || out.Height != h {
					t.Fatalf("frame %d: output %dx%d", frame, out.Width, out.Height)
				}
				if n := p.Pool().Outstanding(); n != 0 {
					t.Fatalf("frame %d: %d scratch references outstanding", frame, n)
				}
			}
			if p.Flags() != fl {
				t.Errorf("flags = %v", p.Flags())
			}
			wantStages := bits.OnesCount32(uint32(fl &^ EffectAO))
			if fl&(EffectAO|EffectSSR) != 0 {
				wantStages++
			}
			if got := len(p.LastStats().Stages); got != wantStages {
				t.Errorf("stages = %v, want %d", p.LastStats().StageNames(), wantStages)
			}
		})
	}
}

func TestStageOrder(t *testing.T) {
	cfg := DefaultConfig().WithFlags(EffectTAA | EffectAO | EffectSSR | EffectVolumetric | EffectMotionBlur | EffectDOF | EffectBloom)
	scene := &fakeScene{cam: newFakeCamera(16, 16), volume: &Volume{Density: 0.1}}
	p := New(cfg, canvas(16, 16), scene)
	p.Apply(testFrame(16, 16))

	want := []string{StageTAA, StagePyramid, StageSSR, StageVolumetric, StageMotionBlur, StageDOF, StageBloom}
	if got := p.LastStats().StageNames(); !slices.Equal(got, want) {
		t.Errorf("stages = %v, want %v", got, want)
	}
}

func TestTAAAccumulatesAndStaysConverged(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TAASamples = 8
	scene := &fakeScene{cam: newFakeCamera(16, 12)}
	p := New(cfg, canvas(16, 12), scene)

	for i := 1; i <= 12; i++ {
		p.Apply(testFrame(16, 12))
		want := min(i, 8)
		st := p.LastStats()
		if st.TAASample != want || p.TAASample() != want {
			t.Fatalf("frame %d: sample %d, want %d", i, st.TAASample, want)
		}
		if rerendered := i > 1 && i <= 8; st.TAARerendered != rerendered {
			t.Errorf("frame %d: rerendered = %v", i, st.TAARerendered)
		}
	}
	if scene.renders != 7 {
		t.Errorf("scene re-rendered %d times, want 7", scene.renders)
	}

	// Any camera movement beyond the tolerance restarts accumulation.
	scene.cam.pos = scene.cam.pos.Add(mathutil.Vec3{0.01, 0, 0})
	p.Apply(testFrame(16, 12))
	if st := p.LastStats(); st.TAASample != 1 || !st.TAAReset {
		t.Errorf("after move: sample %d reset %v", st.TAASample, st.TAAReset)
	}
	p.Apply(testFrame(16, 12))
	if p.TAASample() != 2 {
		t.Errorf("sample after reset = %d, want 2", p.TAASample())
	}
}

func TestTAAResetsOnDrawSupportChange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TAASamples = 0
	scene := &fakeScene{cam: newFakeCamera(8, 8)}
	p := New(cfg, canvas(8, 8), scene)
	for i := 0; i < 5; i++ {
		p.Apply(testFrame(8, 8))
	}
	if p.TAASample() != 5 {
		t.Fatalf("unbounded accumulation reached %d, want 5", p.TAASample())
	}

	scene.support++
	p.Apply(testFrame(8, 8))
	if p.TAASample() != 1 {
		t.Errorf("sample = %d after draw-support change, want 1", p.TAASample())
	}

	p.InvalidateHistory()
	p.Apply(testFrame(8, 8))
	if p.TAASample() != 1 {
		t.Errorf("sample = %d after InvalidateHistory, want 1", p.TAASample())
	}
}

func TestTAARestoresFirstSampleDepth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TAASamples = 4
	p := New(cfg, canvas(8, 8), &fakeScene{cam: newFakeCamera(8, 8)})
	first := testFrame(8, 8)
	p.Apply(first)

	second := testFrame(8, 8)
	second.ClearDepth()
	out := p.Apply(second)
	if !slices.Equal(out.ZBuf, first.ZBuf) {
		t.Error("depth of sample 1 was not restored")
	}
}

func TestDOFInitializesOnce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DOF = true
	scene := &fakeScene{cam: newFakeCamera(16, 16)}
	p := New(cfg, canvas(16, 16), scene)
	if p.dof.inits != 0 {
		t.Fatal("DOF initialized before the first frame")
	}
	for i := 0; i < 3; i++ {
		p.Apply(testFrame(16, 16))
	}
	if p.dof.inits != 1 {
		t.Errorf("DOF initialized %d times, want 1", p.dof.inits)
	}
	if want := 16 / (sensorScale * 36); math.Abs(p.dof.scale-want) > 1e-9 {
		t.Errorf("scale = %v, want %v", p.dof.scale, want)
	}

	scene.cam.sensor = 24
	p.Apply(testFrame(16, 16))
	if p.dof.inits != 2 {
		t.Errorf("sensor change: initialized %d times, want 2", p.dof.inits)
	}
}

func TestDOFNearFieldRouting(t *testing.T) {
	tests := []struct {
		name        string
		bloom       bool
		wantShared  bool
		wantOwnDown bool
		wantFills   int
	}{
		{"dof only", false, false, true, 0},
		{"dof and bloom", true, true, false, 1},
	}
	// Either way the full-res color is box-filtered exactly once per frame.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DOF = true
			cfg.Bloom = tt.bloom
			p := New(cfg, canvas(24, 16), &fakeScene{cam: newFakeCamera(24, 16)})
			for i := 0; i < 2; i++ {
				p.Apply(testFrame(24, 16))
				st := p.LastStats()
				if st.DOFNearShared != tt.wantShared || st.DOFNearDownsampled != tt.wantOwnDown {
					t.Errorf("shared=%v own=%v", st.DOFNearShared, st.DOFNearDownsampled)
				}
				if st.SharedDownsamples != tt.wantFills {
					t.Errorf("shared buffer filled %d times, want %d", st.SharedDownsamples, tt.wantFills)
				}
				if st.ColorDownsamples != 1 {
					t.Errorf("color downsampled %d times, want 1", st.ColorDownsamples)
				}
				if n := p.Pool().Outstanding(); n != 0 {
					t.Errorf("%d scratch references outstanding", n)
				}
			}
		})
	}
}

func TestBloomChainIsSymmetric(t *testing.T) {
	for _, iterations := range []int{1, 3, 6, 12} {
		cfg := DefaultConfig()
		cfg.Bloom = true
		cfg.BloomIterations = iterations
		p := New(cfg, canvas(64, 48), &fakeScene{})
		p.Apply(testFrame(64, 48))
		st := p.LastStats()
		if st.BloomUpsamples != st.BloomDownsamples-1 {
			t.Errorf("iterations %d: %d down, %d up", iterations, st.BloomDownsamples, st.BloomUpsamples)
		}
		if st.BloomDownsamples != bloomIterations(iterations, 32, 24) {
			t.Errorf("iterations %d: %d downsamples", iterations, st.BloomDownsamples)
		}
	}
}

func TestBloomIterations(t *testing.T) {
	tests := []struct {
		requested, w, h, want int
	}{
		{6, 960, 540, 6},
		{12, 32, 24, 5},
		{4, 1, 1, 1},
		{1, 100, 100, 1},
	}
	for _, tt := range tests {
		if got := bloomIterations(tt.requested, tt.w, tt.h); got != tt.want {
			t.Errorf("bloomIterations(%d, %d, %d) = %d, want %d", tt.requested, tt.w, tt.h, got, tt.want)
		}
	}
}

func TestMotionBlurStaticCameraKeepsColor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MotionBlur = true
	p := New(cfg, canvas(16, 12), &fakeScene{cam: newFakeCamera(16, 12)})
	for i := 0; i < 2; i++ {
		in := testFrame(16, 12)
		out := p.Apply(in)
		if out == in {
			t.Fatal("motion blur returned its input target")
		}
		if !slices.Equal(out.Color, in.Color) {
			t.Errorf("frame %d: static camera blurred the image", i)
		}
	}
}

func TestMotionBlurMovingCamera(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MotionBlur = true
	scene := &fakeScene{cam: newFakeCamera(32, 24)}
	p := New(cfg, canvas(32, 24), scene)
	p.Apply(testFrame(32, 24))

	scene.cam.pos = scene.cam.pos.Add(mathutil.Vec3{1, 0, 0})
	in := testFrame(32, 24)
	out := p.Apply(in)
	if slices.Equal(out.Color, in.Color) {
		t.Error("moving camera produced no blur")
	}
}

func TestVolumetricsWithoutVolumePassThrough(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Volumetric = true
	p := New(cfg, canvas(8, 8), &fakeScene{cam: newFakeCamera(8, 8)})
	in := testFrame(8, 8)
	want := in.Clone()
	out := p.Apply(in)
	if out != in || !slices.Equal(out.Color, want.Color) {
		t.Error("volumetrics changed a frame without a volume")
	}
}

func TestVolumetricsColoredVariant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Volumetric = true
	vol := &Volume{
		Density:              0.2,
		Scattering:           [3]float64{0.5, 0.5, 0.5},
		Absorption:           [3]float64{1, 0.5, 0.25},
		LightColor:           [3]float64{1, 1, 1},
		ColoredTransmittance: true,
	}
	p := New(cfg, canvas(8, 8), &fakeScene{cam: newFakeCamera(8, 8), volume: vol})
	in := testFrame(8, 8)
	want := in.Clone()
	p.Apply(in)
	if !p.LastStats().VolumetricColored {
		t.Error("colored variant not reported")
	}
	if slices.Equal(in.Color, want.Color) {
		t.Error("volume left the frame untouched")
	}
}

func TestSSRRecordsReprojection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SSR = true
	cfg.SSRRayCount = 9
	cam := newFakeCamera(16, 16)
	p := New(cfg, canvas(16, 16), &fakeScene{cam: cam})
	p.Apply(testFrame(16, 16))

	st := p.LastStats()
	if st.SSRRays != maxSSRRays {
		t.Errorf("rays = %d, want clamp to %d", st.SSRRays, maxSSRRays)
	}
	if !st.PyramidBuilt {
		t.Error("pyramid not built for SSR")
	}
	want := mathutil.Mat4Mul(cam.Projection(), cam.ModelView())
	if !p.SSRReprojection().ApproxEqual(want, 1e-12) {
		t.Error("reprojection matrix is not projection*view")
	}
}

func TestCameraStageWithoutCameraPanics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DOF = true
	p := New(cfg, canvas(8, 8), &fakeScene{})
	defer func() {
		if recover() == nil {
			t.Error("expected a panic without an active camera")
		}
	}()
	p.Apply(testFrame(8, 8))
}

func TestBloomDoesNotQueryCamera(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bloom = true
	scene := &fakeScene{}
	p := New(cfg, canvas(8, 8), scene)
	p.Apply(testFrame(8, 8))
	if scene.cameraCalls != 0 {
		t.Errorf("camera queried %d times", scene.cameraCalls)
	}
}

func TestApplyRejectsWrongSize(t *testing.T) {
	p := New(DefaultConfig(), canvas(8, 8), &fakeScene{})
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for a mismatched input")
		}
	}()
	p.Apply(testFrame(4, 4))
}

func TestApplyAfterClosePanics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TAASamples = 4
	p := New(cfg, canvas(8, 8), &fakeScene{cam: newFakeCamera(8, 8)})
	p.Apply(testFrame(8, 8))
	p.Close()
	defer func() {
		if r := recover(); r != "effects: Apply on a closed pipeline" {
			t.Errorf("recovered %v", r)
		}
	}()
	p.Apply(testFrame(8, 8))
}
