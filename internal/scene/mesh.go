package scene

import (
	"math"

	"postfx-renderer/internal/mathutil"
	"postfx-renderer/internal/raster"
)

// Mesh is an indexed triangle mesh with one material.
type Mesh struct {
	Name      string
	Positions []mathutil.Vec3 // object space
	UVs       [][2]float64    // parallel to Positions
	Triangles [][3]int
	Material  raster.Material
	// Additive meshes add their radiance without depth test or write (glow cards).
	Additive  bool
	// Layers is a bitmask of render layers; zero means layer 0 only.
	Layers    uint32
	Transform mathutil.Mat4
}

// InLayer reports whether the mesh belongs to layer.
func (m *Mesh) InLayer(layer int) bool {
	mask := m.Layers
	if mask == 0 {
		mask = 1
	}
	return layer >= 0 && layer < 32 && mask&(1<<uint(layer)) != 0
}

// Bounds returns the world-space axis-aligned bounding box.
func (m *Mesh) Bounds() (lo, hi mathutil.Vec3) {
	lo = mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, p := range m.Positions {
		w := m.Transform.MulPoint(p)
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], w[k])
			hi[k] = math.Max(hi[k], w[k])
		}
	}
	return lo, hi
}

// Box builds an axis-aligned box of the given size centred on the origin.
// Each face carries its own 0..1 UVs.
func Box(size mathutil.Vec3) *Mesh {
	h := size.Scale(0.5)
	m := &Mesh{Transform: mathutil.Mat4Identity()}
	// Each face: normal axis, sign, and the two in-plane axes.
	faces := []struct {
		axis, u, v int
		sign       float64
	}{
		{0, 2, 1, 1}, {0, 2, 1, -1},
		{1, 0, 2, 1}, {1, 0, 2, -1},
		{2, 0, 1, 1}, {2, 0, 1, -1},
	}
	for _, f := range faces {
		base := len(m.Positions)
		for _, c := range [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			var p mathutil.Vec3
			p[f.axis] = f.sign * h[f.axis]
			p[f.u] = c[0] * h[f.u]
			p[f.v] = c[1] * h[f.v]
			m.Positions = append(m.Positions, p)
			m.UVs = append(m.UVs, [2]float64{(c[0] + 1) / 2, (1 - c[1]) / 2})
		}
		m.Triangles = append(m.Triangles,
			[3]int{base, base + 1, base + 2},
			[3]int{base, base + 2, base + 3})
	}
	return m
}

// Plane builds a horizontal width×depth plane at y=0, split into segments²
// quads. UVs repeat every uvScale units (0 stretches one tile over the plane).
func Plane(width, depth float64, segments int, uvScale float64) *Mesh {
	if segments < 1 {
		segments = 1
	}
	m := &Mesh{Transform: mathutil.Mat4Identity()}
	n := segments + 1
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			x := (float64(i)/float64(segments) - 0.5) * width
			z := (float64(j)/float64(segments) - 0.5) * depth
			m.Positions = append(m.Positions, mathutil.Vec3{x, 0, z})
			u, v := float64(i)/float64(segments), float64(j)/float64(segments)
			if uvScale > 0 {
				u, v = x/uvScale, z/uvScale
			}
			m.UVs = append(m.UVs, [2]float64{u, v})
		}
	}
	for j := 0; j < segments; j++ {
		for i := 0; i < segments; i++ {
			a := j*n + i
			m.Triangles = append(m.Triangles,
				[3]int{a, a + n, a + n + 1},
				[3]int{a, a + n + 1, a + 1})
		}
	}
	return m
}
