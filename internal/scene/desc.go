package scene

import (
	"fmt"
	"strings"

	"postfx-renderer/internal/effects"
	"postfx-renderer/internal/mathutil"
	"postfx-renderer/internal/texture"
)

// Desc is the YAML scene description.
type Desc struct {
	Background [3]float64   `yaml:"background"`
	TextureDir string       `yaml:"texture_dir,omitempty"`
	Camera     CameraDesc   `yaml:"camera"`
	Objects    []ObjectDesc `yaml:"objects"`
	Volume     *VolumeDesc  `yaml:"volume,omitempty"`
}

// CameraDesc describes the camera. Angles are in degrees; LookAt, when set,
// overrides yaw and pitch.
type CameraDesc struct {
	Position      [3]float64  `yaml:"position"`
	LookAt        *[3]float64 `yaml:"look_at,omitempty"`
	Yaw           float64     `yaml:"yaw,omitempty"`
	Pitch         float64     `yaml:"pitch,omitempty"`
	FovY          float64     `yaml:"fov_y,omitempty"`
	Near          float64     `yaml:"near,omitempty"`
	Far           float64     `yaml:"far,omitempty"`
	Sensor        float64     `yaml:"sensor,omitempty"`
	FocalLength   float64     `yaml:"focal_length,omitempty"`
	FStop         float64     `yaml:"f_stop,omitempty"`
	FocusDistance float64     `yaml:"focus_distance,omitempty"`
}

// ObjectDesc describes one mesh.
type ObjectDesc struct {
	Name     string     `yaml:"name,omitempty"`
	Shape    string     `yaml:"shape"` // box or plane
	Size     [3]float64 `yaml:"size"`  // plane: x and z
	Segments int        `yaml:"segments,omitempty"`
	Position [3]float64 `yaml:"position"`
	Rotation float64    `yaml:"rotation,omitempty"` // degrees around +Y
	Color    [4]float64 `yaml:"color"`
	Emission float64    `yaml:"emission,omitempty"`
	Texture  string     `yaml:"texture,omitempty"`
	UVScale  float64    `yaml:"uv_scale,omitempty"`
	Layers   []int      `yaml:"layers,omitempty"`
	Additive bool       `yaml:"additive,omitempty"`
}

// VolumeDesc describes a homogeneous participating medium.
type VolumeDesc struct {
	Density     float64    `yaml:"density"`
	Scattering  [3]float64 `yaml:"scattering"`
	Absorption  [3]float64 `yaml:"absorption,omitempty"`
	Emission    [3]float64 `yaml:"emission,omitempty"`
	LightColor  [3]float64 `yaml:"light_color"`
	Transmitted bool       `yaml:"colored_transmittance,omitempty"`
}

// DefaultDesc is the demo scene: a ground plane, a few boxes and one emitter.
func DefaultDesc() Desc {
	target := [3]float64{0, 0.5, 0}
	return Desc{
		Background: [3]float64{0.02, 0.025, 0.04},
		Camera: CameraDesc{
			Position:      [3]float64{0, 2, 6},
			LookAt:        &target,
			FocalLength:   50,
			FStop:         2.8,
			FocusDistance: 6,
		},
		Objects: []ObjectDesc{
			{Name: "ground", Shape: "plane", Size: [3]float64{20, 0, 20}, Segments: 8, Color: [4]float64{0.5, 0.5, 0.5, 1}},
			{Name: "crate", Shape: "box", Size: [3]float64{1, 1, 1}, Position: [3]float64{-1.2, 0.5, 0}, Rotation: 30, Color: [4]float64{0.8, 0.35, 0.2, 1}},
			{Name: "pillar", Shape: "box", Size: [3]float64{0.6, 2.5, 0.6}, Position: [3]float64{1.5, 1.25, -1.5}, Color: [4]float64{0.3, 0.5, 0.8, 1}},
			{Name: "lamp", Shape: "box", Size: [3]float64{0.4, 0.4, 0.4}, Position: [3]float64{0.3, 0.2, 1.2}, Color: [4]float64{1, 0.8, 0.5, 1}, Emission: 6},
			{Name: "far", Shape: "box", Size: [3]float64{2, 2, 2}, Position: [3]float64{-3, 1, -8}, Rotation: 15, Color: [4]float64{0.4, 0.7, 0.4, 1}},
		},
	}
}

// Build creates a scene for a canvas of the given aspect ratio. Textures are
// looked up through textures, which may be nil when no object uses one.
func Build(d Desc, aspect float64, textures texture.Resolver) (*Scene, error) {
	s := New()
	s.Background = [4]float32{float32(d.Background[0]), float32(d.Background[1]), float32(d.Background[2]), 1}

	cam := d.Camera.camera(aspect)
	s.Camera = &cam

	for i, od := range d.Objects {
		m, err := od.mesh(textures)
		if err != nil {
			name := od.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("scene: object %s: %w", name, err)
		}
		s.Meshes = append(s.Meshes, m)
	}

	if v := d.Volume; v != nil {
		s.Volume = &effects.Volume{
			Density:              v.Density,
			Scattering:           v.Scattering,
			Absorption:           v.Absorption,
			Emission:             v.Emission,
			LightColor:           v.LightColor,
			ColoredTransmittance: v.Transmitted,
		}
	}
	return s, nil
}

func (cd CameraDesc) camera(aspect float64) Camera {
	c := DefaultCamera(aspect)
	c.Position = mathutil.Vec3(cd.Position)
	c.Yaw = mathutil.Deg2Rad(cd.Yaw)
	c.Pitch = mathutil.Deg2Rad(cd.Pitch)
	c.FovY = mathutil.Deg2Rad(cd.FovY)
	if cd.Near > 0 {
		c.Near = cd.Near
	}
	if cd.Far > c.Near {
		c.Far = cd.Far
	}
	if cd.Sensor > 0 {
		c.Sensor = cd.Sensor
	}
	if cd.FocalLength > 0 {
		c.FocalLength = cd.FocalLength
	}
	if cd.FStop > 0 {
		c.FStop = cd.FStop
	}
	if cd.FocusDistance > 0 {
		c.FocusDistance = cd.FocusDistance
	}
	if cd.LookAt != nil {
		c.LookAt(mathutil.Vec3(*cd.LookAt))
	}
	return c
}

func (od ObjectDesc) mesh(textures texture.Resolver) (*Mesh, error) {
	var m *Mesh
	switch strings.ToLower(od.Shape) {
	case "box", "":
		m = Box(mathutil.Vec3(od.Size))
	case "plane":
		m = Plane(od.Size[0], od.Size[2], od.Segments, od.UVScale)
	default:
		return nil, fmt.Errorf("unknown shape %q", od.Shape)
	}
	m.Name = od.Name
	m.Transform = mathutil.FromMat3Translation(mathutil.RotY(mathutil.Deg2Rad(od.Rotation)), mathutil.Vec3(od.Position))

	col := od.Color
	if col == ([4]float64{}) {
		col = [4]float64{1, 1, 1, 1}
	}
	m.Material.Color = [4]float32{float32(col[0]), float32(col[1]), float32(col[2]), float32(col[3])}
	m.Material.Emission = float32(od.Emission)
	m.Additive = od.Additive

	if od.Texture != "" {
		if textures == nil {
			return nil, fmt.Errorf("texture %q: no texture directory", od.Texture)
		}
		img := textures.Resolve(od.Texture)
		if img == nil {
			return nil, fmt.Errorf("texture %q not found", od.Texture)
		}
		m.Material.Texture = img
	}

	for _, l := range od.Layers {
		if l < 0 || l >= 32 {
			return nil, fmt.Errorf("layer %d out of range", l)
		}
		m.Layers |= 1 << uint(l)
	}
	return m, nil
}
