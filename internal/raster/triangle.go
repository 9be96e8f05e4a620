package raster

import (
	"image"
	"math"
)

// Vertex is a screen-space vertex: pixel coordinates, NDC depth in [0,1] and UV.
type Vertex struct {
	X, Y, Z float64
	U, V    float64
}

// Material is the surface description used when filling a triangle.
type Material struct {
	Color    [4]float32 // linear base color
	Emission float32    // emitted radiance as a multiple of Color
	Texture  *image.NRGBA
}

// RasterizeTriangle fills a triangle with depth test and write, flat shading
// and optional texture mapping.
//
// This is the HOT PATH: no allocation in the pixel loop.
func RasterizeTriangle(t *Target, v [3]Vertex, shade float64, mat *Material) {
	fillTriangle(t, v, shade, mat, false)
}

// RasterizeTriangleAdditive adds the triangle's radiance to the target without
// depth test or write. Used for glow cards and light shafts.
func RasterizeTriangleAdditive(t *Target, v [3]Vertex, shade float64, mat *Material) {
	fillTriangle(t, v, shade, mat, true)
}

func fillTriangle(t *Target, v [3]Vertex, shade float64, mat *Material, additive bool) {
	x0, y0 := v[0].X, v[0].Y
	x1, y1 := v[1].X, v[1].Y
	x2, y2 := v[2].X, v[2].Y

	// Bounding box
	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))

	if minX < 0 {
		minX = 0
	}
	if maxX >= t.Width {
		maxX = t.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= t.Height {
		maxY = t.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	// Precompute edge deltas
	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	tex := mat.Texture
	base := mat.Color
	lit := float32(shade) + mat.Emission
	hdr := t.Depth.HDR()

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * t.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			zIdx := rowOff + sx
			z := float32(w0*v[0].Z + w1*v[1].Z + w2*v[2].Z)
			if !additive && (z < 0 || z >= t.ZBuf[zIdx]) {
				continue
			}

			c := base
			if tex != nil {
				u := w0*v[0].U + w1*v[1].U + w2*v[2].U
				vv := w0*v[0].V + w1*v[1].V + w2*v[2].V
				tc := SampleTexture(tex, u, vv)
				c[0] *= tc[0]
				c[1] *= tc[1]
				c[2] *= tc[2]
				c[3] *= tc[3]
			}

			// Skip transparent texels
			if c[3] < 8.0/255 {
				continue
			}

			pxIdx := zIdx * 4
			r, g, b := c[0]*lit, c[1]*lit, c[2]*lit
			if additive {
				r += t.Color[pxIdx]
				g += t.Color[pxIdx+1]
				b += t.Color[pxIdx+2]
			} else {
				t.ZBuf[zIdx] = z
			}
			if !hdr {
				r, g, b = clamp01(r), clamp01(g), clamp01(b)
			}
			t.Color[pxIdx] = r
			t.Color[pxIdx+1] = g
			t.Color[pxIdx+2] = b
			if c[3] > t.Color[pxIdx+3] || !additive {
				t.Color[pxIdx+3] = c[3]
			}
		}
	}
}
