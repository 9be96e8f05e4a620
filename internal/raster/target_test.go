package raster

import (
	"image"
	"image/color"
	"testing"
)

func TestNewTargetClearsDepthToFar(t *testing.T) {
	tg := NewTarget(0, -3, ColorDepthFloat)
	if tg.Width != 1 || tg.Height != 1 {
		t.Fatalf("size %dx%d, want 1x1", tg.Width, tg.Height)
	}
	tg = NewTarget(3, 2, ColorDepth8)
	for i, z := range tg.ZBuf {
		if z != 1 {
			t.Fatalf("depth[%d] = %v", i, z)
		}
	}
}

func TestHalfSize(t *testing.T) {
	tests := []struct{ w, h, hw, hh int }{
		{1920, 1080, 960, 540},
		{5, 3, 2, 1},
		{1, 1, 1, 1},
	}
	for _, tt := range tests {
		if hw, hh := HalfSize(tt.w, tt.h); hw != tt.hw || hh != tt.hh {
			t.Errorf("HalfSize(%d, %d) = %d, %d", tt.w, tt.h, hw, hh)
		}
	}
}

func TestSetPixelClampsOnlyLDR(t *testing.T) {
	ldr := NewTarget(1, 1, ColorDepth8)
	hdr := NewTarget(1, 1, ColorDepthHalf)
	c := [4]float32{2, -1, 0.5, 1}
	ldr.SetPixel(0, 0, c)
	hdr.SetPixel(0, 0, c)
	if got := ldr.Pixel(0, 0); got != [4]float32{1, 0, 0.5, 1} {
		t.Errorf("ldr = %v", got)
	}
	if got := hdr.Pixel(0, 0); got != c {
		t.Errorf("hdr = %v", got)
	}
}

func TestSampleBilinear(t *testing.T) {
	tg := NewTarget(2, 1, ColorDepthFloat)
	tg.SetPixel(0, 0, [4]float32{0, 0, 0, 1})
	tg.SetPixel(1, 0, [4]float32{1, 1, 1, 1})
	if got := tg.Sample(0.5, 0.5)[0]; got != 0.5 {
		t.Errorf("center = %v", got)
	}
	if got := tg.Sample(-1, 0.5)[0]; got != 0 {
		t.Errorf("clamped left = %v", got)
	}
	if got := tg.Sample(2, 0.5)[0]; got != 1 {
		t.Errorf("clamped right = %v", got)
	}
}

func TestCopyMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic")
		}
	}()
	NewTarget(2, 2, ColorDepth8).CopyFrom(NewTarget(3, 2, ColorDepth8))
}

func TestCloneIsIndependent(t *testing.T) {
	a := NewTarget(2, 2, ColorDepthFloat)
	a.Clear(0.2, 0.3, 0.4, 1)
	b := a.Clone()
	b.SetPixel(0, 0, [4]float32{1, 1, 1, 1})
	b.ZBuf[0] = 0
	if a.Pixel(0, 0)[0] != 0.2 || a.ZBuf[0] != 1 {
		t.Error("clone shares storage")
	}
}

func TestParseColorDepth(t *testing.T) {
	tests := []struct {
		in   string
		want ColorDepth
		ok   bool
	}{
		{"ldr", ColorDepth8, true},
		{"16", ColorDepthHalf, true},
		{"Float", ColorDepthFloat, true},
		{"64", ColorDepth8, false},
	}
	for _, tt := range tests {
		got, err := ParseColorDepth(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseColorDepth(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestImageRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.SetNRGBA(0, 0, color.NRGBA{255, 128, 0, 255})
	src.SetNRGBA(2, 1, color.NRGBA{200, 128, 64, 255})
	tg := FromImage(src, ColorDepth8)
	if tg.Width != 3 || tg.Height != 2 {
		t.Fatalf("size %dx%d", tg.Width, tg.Height)
	}
	out := tg.ToNRGBA(1)
	for _, p := range []image.Point{{0, 0}, {2, 1}} {
		want := src.NRGBAAt(p.X, p.Y)
		got := out.NRGBAAt(p.X, p.Y)
		// Decoding uses the sRGB curve, encoding a 2.2 gamma.
		if diff(got.R, want.R) > 3 || diff(got.G, want.G) > 3 || diff(got.B, want.B) > 3 {
			t.Errorf("%v: got %v, want %v", p, got, want)
		}
	}
}

func diff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestRasterizeTriangleDepthTest(t *testing.T) {
	tg := NewTarget(8, 8, ColorDepthFloat)
	near := &Material{Color: [4]float32{1, 0, 0, 1}}
	far := &Material{Color: [4]float32{0, 0, 1, 1}}
	tri := func(z float64) [3]Vertex {
		return [3]Vertex{{X: 0, Y: 0, Z: z}, {X: 8, Y: 0, Z: z}, {X: 0, Y: 8, Z: z}}
	}
	RasterizeTriangle(tg, tri(0.3), 1, near)
	RasterizeTriangle(tg, tri(0.6), 1, far)
	if got := tg.Pixel(1, 1); got[0] != 1 || got[2] != 0 {
		t.Errorf("far triangle overwrote near one: %v", got)
	}
	if got := tg.DepthAt(1, 1); got != 0.3 {
		t.Errorf("depth = %v", got)
	}
	if got := tg.DepthAt(7, 7); got != 1 {
		t.Errorf("uncovered pixel depth = %v", got)
	}
}

func TestRasterizeTriangleAdditiveIgnoresDepth(t *testing.T) {
	tg := NewTarget(8, 8, ColorDepthFloat)
	tri := func(z float64) [3]Vertex {
		return [3]Vertex{{X: 0, Y: 0, Z: z}, {X: 8, Y: 0, Z: z}, {X: 0, Y: 8, Z: z}}
	}
	RasterizeTriangle(tg, tri(0.3), 1, &Material{Color: [4]float32{1, 0, 0, 1}})
	RasterizeTriangleAdditive(tg, tri(0.9), 0.5, &Material{Color: [4]float32{0, 0, 1, 1}})

	got := tg.Pixel(1, 1)
	if got[0] != 1 || got[2] != 0.5 {
		t.Errorf("additive pixel = %v, want red plus half blue", got)
	}
	if d := tg.DepthAt(1, 1); d != 0.3 {
		t.Errorf("additive pass wrote depth %v", d)
	}
}
