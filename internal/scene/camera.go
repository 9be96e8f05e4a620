package scene

import (
	"math"

	"postfx-renderer/internal/effects"
	"postfx-renderer/internal/mathutil"
)

// Camera is a perspective camera with a physical lens. Angles are radians.
type Camera struct {
	Position   mathutil.Vec3
	Yaw, Pitch float64
	// FovY is the vertical field of view. Zero derives it from the sensor
	// width and focal length.
	FovY      float64
	Aspect    float64
	Near, Far float64

	Sensor        float64 // sensor width, millimetres
	FocalLength   float64 // millimetres
	FStop         float64
	FocusDistance float64
}

var _ effects.Camera = (*Camera)(nil)

// DefaultCamera is a 50mm lens on a full-frame sensor, five units back from the origin.
func DefaultCamera(aspect float64) Camera {
	return Camera{
		Position:      mathutil.Vec3{0, 1, 5},
		Aspect:        aspect,
		Near:          0.1,
		Far:           100,
		Sensor:        36,
		FocalLength:   50,
		FStop:         2.8,
		FocusDistance: 5,
	}
}

// FieldOfView returns the vertical field of view in radians.
func (c *Camera) FieldOfView() float64 {
	if c.FovY > 0 {
		return c.FovY
	}
	fovX := 2 * math.Atan(c.Sensor/(2*c.FocalLength))
	return 2 * math.Atan(math.Tan(fovX/2)/c.aspect())
}

func (c *Camera) aspect() float64 {
	if c.Aspect <= 0 {
		return 1
	}
	return c.Aspect
}

// LookAt points the camera at target.
func (c *Camera) LookAt(target mathutil.Vec3) {
	d := target.Sub(c.Position)
	if d.Len() < 1e-9 {
		return
	}
	d = d.Normalize()
	c.Pitch = math.Asin(math.Max(-1, math.Min(1, d[1])))
	c.Yaw = math.Atan2(-d[0], -d[2])
}

// Forward returns the viewing direction in world space.
func (c *Camera) Forward() mathutil.Vec3 {
	return mathutil.Vec3{
		-math.Sin(c.Yaw) * math.Cos(c.Pitch),
		math.Sin(c.Pitch),
		-math.Cos(c.Yaw) * math.Cos(c.Pitch),
	}
}

func (c *Camera) Projection() mathutil.Mat4 {
	return mathutil.Perspective(c.FieldOfView(), c.aspect(), c.Near, c.Far)
}

func (c *Camera) CameraToWorld() mathutil.Mat4 {
	return mathutil.CameraToWorld(c.Position, c.Yaw, c.Pitch)
}

func (c *Camera) WorldToCamera() mathutil.Mat4 {
	return c.CameraToWorld().Inverse()
}

func (c *Camera) ModelView() mathutil.Mat4 { return c.WorldToCamera() }

// ViewProjection returns Projection × ModelView.
func (c *Camera) ViewProjection() mathutil.Mat4 {
	return mathutil.Mat4Mul(c.Projection(), c.ModelView())
}

func (c *Camera) SensorSize() float64 { return c.Sensor }

func (c *Camera) Lens() effects.Lens {
	return effects.Lens{FocalLength: c.FocalLength, FStop: c.FStop, FocusDistance: c.FocusDistance}
}
