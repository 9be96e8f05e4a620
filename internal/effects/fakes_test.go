package effects

import (
	"math"

	"postfx-renderer/internal/mathutil"
	"postfx-renderer/internal/raster"
)

type fakeCamera struct {
	pos        mathutil.Vec3
	yaw, pitch float64
	aspect     float64
	sensor     float64
	lens       Lens
	sensorHits int
}

func newFakeCamera(w, h int) *fakeCamera {
	return &fakeCamera{
		pos:    mathutil.Vec3{0, 0, 5},
		aspect: float64(w) / float64(h),
		sensor: 36,
		lens:   Lens{FocalLength: 50, FStop: 1.4, FocusDistance: 3},
	}
}

func (c *fakeCamera) Projection() mathutil.Mat4 {
	return mathutil.Perspective(math.Pi/3, c.aspect, 0.1, 100)
}
func (c *fakeCamera) CameraToWorld() mathutil.Mat4 {
	return mathutil.CameraToWorld(c.pos, c.yaw, c.pitch)
}
func (c *fakeCamera) WorldToCamera() mathutil.Mat4 { return c.CameraToWorld().Inverse() }
func (c *fakeCamera) ModelView() mathutil.Mat4     { return c.WorldToCamera() }
func (c *fakeCamera) SensorSize() float64 {
	c.sensorHits++
	return c.sensor
}
func (c *fakeCamera) Lens() Lens { return c.lens }

type fakeSet int

func (s fakeSet) Len() int { return int(s) }

// fakeScene counts host queries. RenderBuckets paints a solid quad over the
// middle of the target at depth 0.5.
type fakeScene struct {
	cam         *fakeCamera
	volume      *Volume
	support     uint64
	cameraCalls int
	renders     int
}

func (s *fakeScene) ActiveCamera() Camera {
	s.cameraCalls++
	if s.cam == nil {
		return nil
	}
	return s.cam
}

func (s *fakeScene) VisibleMeshes(Camera, int) VisibleSet { return fakeSet(1) }

func (s *fakeScene) RenderBuckets(_ VisibleSet, _ mathutil.Mat4, dst *raster.Target) {
	s.renders++
	for y := dst.Height / 4; y < dst.Height*3/4; y++ {
		for x := dst.Width / 4; x < dst.Width*3/4; x++ {
			dst.SetPixel(x, y, [4]float32{0.9, 0.3, 0.1, 1})
			dst.ZBuf[y*dst.Width+x] = 0.5
		}
	}
}

func (s *fakeScene) Volumetrics() *Volume   { return s.volume }
func (s *fakeScene) DrawSupport() uint64    { return s.support }
func (s *fakeScene) ClearColor() [4]float32 { return [4]float32{0, 0, 0, 1} }

// testFrame builds a host frame: a dim gradient background at the far plane
// with a bright quad in front of it.
func testFrame(w, h int) *raster.Target {
	t := raster.NewTarget(w, h, raster.ColorDepthFloat)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t.SetPixel(x, y, [4]float32{float32(x) / float32(w) * 0.2, float32(y) / float32(h) * 0.2, 0.1, 1})
		}
	}
	for y := h / 4; y < h*3/4; y++ {
		for x := w / 4; x < w*3/4; x++ {
			t.SetPixel(x, y, [4]float32{4, 3, 2, 1})
			t.ZBuf[y*w+x] = 0.5
		}
	}
	return t
}

func canvas(w, h int) CanvasSize {
	return CanvasSize{W: w, H: h, Depth: raster.ColorDepthFloat}
}
