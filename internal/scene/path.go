package scene

import (
	"fmt"
	"math"
	"strings"

	"postfx-renderer/internal/mathutil"
)

// PathDesc animates the camera over a frame sequence.
//
//   - static: the camera never moves
//   - orbit: circles Center at Radius and Height, StepDegrees per step
//   - dolly: moves linearly from the base position to To over Steps steps
//
// Hold keeps each position for that many frames, giving temporal
// antialiasing frames to converge between moves.
type PathDesc struct {
	Kind        string     `yaml:"kind"`
	Center      [3]float64 `yaml:"center,omitempty"`
	Radius      float64    `yaml:"radius,omitempty"`
	Height      float64    `yaml:"height,omitempty"`
	StepDegrees float64    `yaml:"step_degrees,omitempty"`
	To          [3]float64 `yaml:"to,omitempty"`
	Steps       int        `yaml:"steps,omitempty"`
	Hold        int        `yaml:"hold,omitempty"`
}

// Validate checks the path kind.
func (p PathDesc) Validate() error {
	switch strings.ToLower(p.Kind) {
	case "", "static", "orbit", "dolly":
		return nil
	}
	return fmt.Errorf("scene: unknown camera path %q", p.Kind)
}

// CameraAt returns base moved to where the path puts it at frame (0-based).
func (p PathDesc) CameraAt(base Camera, frame int) Camera {
	step := frame
	if p.Hold > 1 {
		step = frame / p.Hold
	}
	c := base
	switch strings.ToLower(p.Kind) {
	case "orbit":
		center := mathutil.Vec3(p.Center)
		radius := p.Radius
		if radius <= 0 {
			radius = base.Position.Sub(center).Len()
		}
		start := math.Atan2(base.Position[0]-center[0], base.Position[2]-center[2])
		a := start + mathutil.Deg2Rad(p.StepDegrees)*float64(step)
		c.Position = mathutil.Vec3{
			center[0] + radius*math.Sin(a),
			center[1] + p.Height,
			center[2] + radius*math.Cos(a),
		}
		c.LookAt(center)
	case "dolly":
		t := 1.0
		if p.Steps > 0 {
			t = math.Min(1, float64(step)/float64(p.Steps))
		}
		c.Position = base.Position.Lerp(mathutil.Vec3(p.To), t)
	}
	return c
}
