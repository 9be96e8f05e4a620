package raster

import (
	"math"

	"postfx-renderer/internal/mathutil"
)

// LightConfig holds precomputed lighting parameters for flat-shaded geometry.
type LightConfig struct {
	LightDir mathutil.Vec3
	RimDir   mathutil.Vec3
	ViewDir  mathutil.Vec3
	HalfMain mathutil.Vec3 // precomputed half-vector for Blinn-Phong
	Ambient  float64
	Hemi     float64
	Direct   float64
	Rim      float64
	SpecInt  float64
	SpecPow  float64
}

// DefaultLightConfig returns a key light from the upper right with a cool rim from behind.
func DefaultLightConfig() LightConfig {
	lightDir := mathutil.Vec3{0.45, 0.8, 0.35}.Normalize()
	rimDir := mathutil.Vec3{-0.4, 0.3, -0.5}.Normalize()
	viewDir := mathutil.Vec3{0, -0.25, -1}.Normalize()

	halfMain := lightDir.Sub(viewDir).Normalize()

	return LightConfig{
		LightDir: lightDir,
		RimDir:   rimDir,
		ViewDir:  viewDir,
		HalfMain: halfMain,
		Ambient:  0.15,
		Hemi:     0.20,
		Direct:   0.85,
		Rim:      0.25,
		SpecInt:  0.30,
		SpecPow:  16.0,
	}
}

// ComputeShade returns the combined lighting scalar for a world-space face normal.
func (lc *LightConfig) ComputeShade(normal mathutil.Vec3) float64 {
	// Lambertian (abs for double-sided)
	ndlMain := math.Abs(normal.Dot(lc.LightDir))
	ndlRim := math.Abs(normal.Dot(lc.RimDir))

	// Hemisphere fill, brighter for upward-facing surfaces
	hemi := normal[1]*0.5 + 0.5
	hemiLight := hemi * lc.Hemi

	// Blinn-Phong specular
	ndh := normal.Dot(lc.HalfMain)
	if ndh < 0 {
		ndh = 0
	}
	spec := math.Pow(ndh, lc.SpecPow) * lc.SpecInt

	return lc.Ambient + hemiLight + ndlMain*lc.Direct + ndlRim*lc.Rim + spec
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float32

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = float32(math.Pow(float64(i)/255.0, 2.2))
	}
}

// SRGBToLinear decodes an 8-bit sRGB channel.
func SRGBToLinear(c uint8) float32 {
	return srgbToLinear[c]
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}
