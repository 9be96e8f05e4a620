package effects

import (
	"postfx-renderer/internal/mathutil"
	"postfx-renderer/internal/raster"
)

// Lens describes the physical camera optics used by depth of field.
type Lens struct {
	FocalLength   float64 // millimetres
	FStop         float64
	FocusDistance float64 // world units from the camera
}

// Camera is the active camera supplied by the host.
type Camera interface {
	Projection() mathutil.Mat4
	ModelView() mathutil.Mat4
	CameraToWorld() mathutil.Mat4
	WorldToCamera() mathutil.Mat4
	// SensorSize is the horizontal sensor width in millimetres.
	SensorSize() float64
	Lens() Lens
}

// VisibleSet is an opaque result of a visibility query, handed back to RenderBuckets.
type VisibleSet interface {
	Len() int
}

// Volume carries the parameters of a scene's volumetric shading graph.
type Volume struct {
	Density              float64    // extinction per world unit
	Scattering           [3]float64 // single-scattering albedo
	Absorption           [3]float64 // per-channel extinction scale, colored variant only
	Emission             [3]float64
	LightColor           [3]float64
	ColoredTransmittance bool
}

// Scene is the host scene. ActiveCamera may return nil until the scene starts;
// the pipeline only asks for it from stages that are enabled and reached.
type Scene interface {
	ActiveCamera() Camera
	VisibleMeshes(cam Camera, layer int) VisibleSet
	// RenderBuckets draws set into dst using viewProj, depth tested against dst.
	RenderBuckets(set VisibleSet, viewProj mathutil.Mat4, dst *raster.Target)
	// ClearColor is the background the host clears to before its primary pass.
	ClearColor() [4]float32
	// Volumetrics returns nil when the scene has no volumetric shading graph.
	Volumetrics() *Volume
	// DrawSupport identifies the render state that temporal history depends on.
	DrawSupport() uint64
}

// Canvas supplies the output dimensions and color depth.
type Canvas interface {
	Width() int
	Height() int
	ColorDepth() raster.ColorDepth
}

// CanvasSize is a fixed Canvas.
type CanvasSize struct {
	W, H  int
	Depth raster.ColorDepth
}

func (c CanvasSize) Width() int                    { return c.W }
func (c CanvasSize) Height() int                   { return c.H }
func (c CanvasSize) ColorDepth() raster.ColorDepth { return c.Depth }
