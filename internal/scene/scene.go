// Package scene is a small software host for the post-effects pipeline: a
// camera, triangle meshes rasterized on the CPU, and an optional volume.
package scene

import (
	"postfx-renderer/internal/effects"
	"postfx-renderer/internal/mathutil"
	"postfx-renderer/internal/raster"
)

// Scene implements effects.Scene.
type Scene struct {
	Meshes     []*Mesh
	Camera     *Camera // nil until the scene starts
	Volume     *effects.Volume
	Light      raster.LightConfig
	Background [4]float32

	support uint64
}

var _ effects.Scene = (*Scene)(nil)

// New returns an empty scene with the default light.
func New() *Scene {
	return &Scene{Light: raster.DefaultLightConfig(), Background: [4]float32{0, 0, 0, 1}}
}

// Add appends meshes and bumps the draw-support state.
func (s *Scene) Add(meshes ...*Mesh) {
	s.Meshes = append(s.Meshes, meshes...)
	s.Bump()
}

// Bump signals a change of anything other than the camera that affects the
// rendered image, such as geometry, materials or lighting. Temporal history
// rendered before the bump is discarded by the pipeline.
func (s *Scene) Bump() { s.support++ }

func (s *Scene) DrawSupport() uint64 { return s.support }

func (s *Scene) ClearColor() [4]float32 { return s.Background }

func (s *Scene) ActiveCamera() effects.Camera {
	if s.Camera == nil {
		return nil
	}
	return s.Camera
}

func (s *Scene) Volumetrics() *effects.Volume { return s.Volume }

// meshSet is the VisibleSet handed out by VisibleMeshes.
type meshSet []*Mesh

func (m meshSet) Len() int { return len(m) }

// VisibleMeshes returns the meshes of layer whose bounds intersect the view frustum.
func (s *Scene) VisibleMeshes(cam effects.Camera, layer int) effects.VisibleSet {
	viewProj := mathutil.Mat4Mul(cam.Projection(), cam.ModelView())
	var set meshSet
	for _, m := range s.Meshes {
		if !m.InLayer(layer) || len(m.Triangles) == 0 {
			continue
		}
		lo, hi := m.Bounds()
		if outsideFrustum(viewProj, lo, hi) {
			continue
		}
		set = append(set, m)
	}
	return set
}

// outsideFrustum reports whether all corners of the box lie beyond one clip plane.
func outsideFrustum(viewProj mathutil.Mat4, lo, hi mathutil.Vec3) bool {
	var outside [6]int
	for i := 0; i < 8; i++ {
		p := [4]float64{lo[0], lo[1], lo[2], 1}
		if i&1 != 0 {
			p[0] = hi[0]
		}
		if i&2 != 0 {
			p[1] = hi[1]
		}
		if i&4 != 0 {
			p[2] = hi[2]
		}
		c := viewProj.MulVec4(p)
		for axis := 0; axis < 3; axis++ {
			if c[axis] < -c[3] {
				outside[axis*2]++
			}
			if c[axis] > c[3] {
				outside[axis*2+1]++
			}
		}
	}
	for _, n := range outside {
		if n == 8 {
			return true
		}
	}
	return false
}

// RenderBuckets rasterizes set into dst with viewProj, depth tested against
// whatever dst already holds.
func (s *Scene) RenderBuckets(set effects.VisibleSet, viewProj mathutil.Mat4, dst *raster.Target) {
	meshes, _ := set.(meshSet)
	var poly [8]clipVertex
	var tmp [8]clipVertex
	for _, m := range meshes {
		mvp := mathutil.Mat4Mul(viewProj, m.Transform)
		for _, tri := range m.Triangles {
			var world [3]mathutil.Vec3
			in := poly[:0]
			for k, idx := range tri {
				p := m.Positions[idx]
				world[k] = m.Transform.MulPoint(p)
				var uv [2]float64
				if idx < len(m.UVs) {
					uv = m.UVs[idx]
				}
				in = append(in, clipVertex{pos: mvp.MulVec4([4]float64{p[0], p[1], p[2], 1}), uv: uv})
			}

			normal := world[1].Sub(world[0]).Cross(world[2].Sub(world[0]))
			if normal.Len() < 1e-12 {
				continue
			}
			shade := s.Light.ComputeShade(normal.Normalize())

			clipped := clipNear(in, tmp[:0])
			if len(clipped) < 3 {
				continue
			}
			var verts [8]raster.Vertex
			for i, cv := range clipped {
				verts[i] = toScreen(cv, dst.Width, dst.Height)
			}
			fill := raster.RasterizeTriangle
			if m.Additive {
				fill = raster.RasterizeTriangleAdditive
			}
			for i := 1; i+1 < len(clipped); i++ {
				fill(dst, [3]raster.Vertex{verts[0], verts[i], verts[i+1]}, shade, &m.Material)
			}
		}
	}
}

// Render draws the scene from its camera into dst, clearing it first.
func (s *Scene) Render(dst *raster.Target) {
	bg := s.ClearColor()
	dst.Clear(bg[0], bg[1], bg[2], bg[3])
	dst.ClearDepth()
	if s.Camera == nil {
		return
	}
	s.RenderBuckets(s.VisibleMeshes(s.Camera, 0), s.Camera.ViewProjection(), dst)
}

type clipVertex struct {
	pos [4]float64
	uv  [2]float64
}

// clipNear clips a convex polygon in clip space against the near plane z = -w.
func clipNear(in []clipVertex, out []clipVertex) []clipVertex {
	dist := func(v clipVertex) float64 { return v.pos[2] + v.pos[3] }
	for i := range in {
		a, b := in[i], in[(i+1)%len(in)]
		da, db := dist(a), dist(b)
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			t := da / (da - db)
			var v clipVertex
			for k := 0; k < 4; k++ {
				v.pos[k] = a.pos[k] + (b.pos[k]-a.pos[k])*t
			}
			v.uv[0] = a.uv[0] + (b.uv[0]-a.uv[0])*t
			v.uv[1] = a.uv[1] + (b.uv[1]-a.uv[1])*t
			out = append(out, v)
		}
	}
	return out
}

func toScreen(v clipVertex, w, h int) raster.Vertex {
	invW := 1 / v.pos[3]
	x, y, z := v.pos[0]*invW, v.pos[1]*invW, v.pos[2]*invW
	return raster.Vertex{
		X: (x*0.5 + 0.5) * float64(w),
		Y: (0.5 - y*0.5) * float64(h),
		Z: z*0.5 + 0.5,
		U: v.uv[0],
		V: v.uv[1],
	}
}
