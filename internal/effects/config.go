package effects

import "postfx-renderer/internal/props"

// Config holds the per-effect parameters. It is read once when the pipeline is
// built; changing it afterwards requires a new Pipeline.
type Config struct {
	// TAASamples is the temporal sample budget. 1 disables temporal
	// antialiasing, 0 accumulates without bound.
	TAASamples int
	// TAATolerance is the per-element tolerance used to decide whether the
	// projection*view matrix changed between frames.
	TAATolerance float64

	AO bool

	SSR             bool
	SSRRayCount     int
	SSRMaxSteps     int
	SSRThickness    float64 // world units
	SSRMaxDistance  float64 // world units
	SSRReflectivity float64 // Fresnel F0

	Volumetric        bool
	VolumetricSamples int
	VolumetricStart   float64
	VolumetricEnd     float64

	MotionBlur        bool
	MotionBlurSamples int
	MotionBlurShutter float64

	DOF          bool
	BokehMaxSize float64 // pixels

	Bloom           bool
	BloomThreshold  float64
	BloomKnee       float64
	BloomIntensity  float64
	BloomClamp      float64 // 0 disables clamping
	BloomIterations int
}

const maxSSRRays = 4

// DefaultConfig returns a configuration with every optional effect disabled
// and the remaining parameters at their usual values.
func DefaultConfig() Config {
	return Config{
		TAASamples:   1,
		TAATolerance: 1e-6,

		SSRRayCount:     1,
		SSRMaxSteps:     32,
		SSRThickness:    0.2,
		SSRMaxDistance:  20,
		SSRReflectivity: 0.04,

		VolumetricSamples: 32,
		VolumetricStart:   0.1,
		VolumetricEnd:     100,

		MotionBlurSamples: 8,
		MotionBlurShutter: 0.5,

		BokehMaxSize: 32,

		BloomThreshold:  0.8,
		BloomKnee:       0.5,
		BloomIntensity:  0.05,
		BloomIterations: 6,
	}
}

// ConfigFromProperties reads engine properties on top of DefaultConfig.
// Missing properties keep their defaults.
func ConfigFromProperties(p *props.Properties) Config {
	c := DefaultConfig()
	if p == nil {
		return c
	}
	c.TAASamples = p.Int("taa_samples", c.TAASamples)
	c.TAATolerance = p.Float("taa_reprojection_tolerance", c.TAATolerance)

	c.AO = p.Bool("gtao_enable", c.AO)

	c.SSR = p.Bool("ssr_enable", c.SSR)
	c.SSRRayCount = p.Int("ssr_ray_count", c.SSRRayCount)
	c.SSRMaxSteps = p.Int("ssr_max_steps", c.SSRMaxSteps)
	c.SSRThickness = p.Float("ssr_thickness", c.SSRThickness)
	c.SSRMaxDistance = p.Float("ssr_max_distance", c.SSRMaxDistance)
	c.SSRReflectivity = p.Float("ssr_reflectivity", c.SSRReflectivity)

	c.Volumetric = p.Bool("volumetric_enable", c.Volumetric)
	c.VolumetricSamples = p.Int("volumetric_samples", c.VolumetricSamples)
	c.VolumetricStart = p.Float("volumetric_start", c.VolumetricStart)
	c.VolumetricEnd = p.Float("volumetric_end", c.VolumetricEnd)

	c.MotionBlur = p.Bool("motion_blur_enable", c.MotionBlur)
	c.MotionBlurSamples = p.Int("motion_blur_samples", c.MotionBlurSamples)
	c.MotionBlurShutter = p.Float("motion_blur_shutter", c.MotionBlurShutter)

	c.DOF = p.Bool("dof_enable", c.DOF)
	c.BokehMaxSize = p.Float("bokeh_max_size", c.BokehMaxSize)

	c.Bloom = p.Bool("bloom_enable", c.Bloom)
	c.BloomThreshold = p.Float("bloom_threshold", c.BloomThreshold)
	c.BloomKnee = p.Float("bloom_knee", c.BloomKnee)
	c.BloomIntensity = p.Float("bloom_intensity", c.BloomIntensity)
	c.BloomClamp = p.Float("bloom_clamp", c.BloomClamp)
	c.BloomIterations = p.Int("bloom_iterations", c.BloomIterations)
	return c
}

// Properties is the inverse of ConfigFromProperties.
func (c Config) Properties() *props.Properties {
	p := props.New()
	p.Set("taa_samples", props.Int(int64(c.TAASamples)))
	p.Set("taa_reprojection_tolerance", props.Float(c.TAATolerance))
	p.Set("gtao_enable", props.Bool(c.AO))
	p.Set("ssr_enable", props.Bool(c.SSR))
	p.Set("ssr_ray_count", props.Int(int64(c.SSRRayCount)))
	p.Set("ssr_max_steps", props.Int(int64(c.SSRMaxSteps)))
	p.Set("ssr_thickness", props.Float(c.SSRThickness))
	p.Set("ssr_max_distance", props.Float(c.SSRMaxDistance))
	p.Set("ssr_reflectivity", props.Float(c.SSRReflectivity))
	p.Set("volumetric_enable", props.Bool(c.Volumetric))
	p.Set("volumetric_samples", props.Int(int64(c.VolumetricSamples)))
	p.Set("volumetric_start", props.Float(c.VolumetricStart))
	p.Set("volumetric_end", props.Float(c.VolumetricEnd))
	p.Set("motion_blur_enable", props.Bool(c.MotionBlur))
	p.Set("motion_blur_samples", props.Int(int64(c.MotionBlurSamples)))
	p.Set("motion_blur_shutter", props.Float(c.MotionBlurShutter))
	p.Set("dof_enable", props.Bool(c.DOF))
	p.Set("bokeh_max_size", props.Float(c.BokehMaxSize))
	p.Set("bloom_enable", props.Bool(c.Bloom))
	p.Set("bloom_threshold", props.Float(c.BloomThreshold))
	p.Set("bloom_knee", props.Float(c.BloomKnee))
	p.Set("bloom_intensity", props.Float(c.BloomIntensity))
	p.Set("bloom_clamp", props.Float(c.BloomClamp))
	p.Set("bloom_iterations", props.Int(int64(c.BloomIterations)))
	return p
}

// Flags returns the effect toggle set described by the configuration.
func (c Config) Flags() Flags {
	var fl Flags
	if c.TAASamples != 1 {
		fl |= EffectTAA
	}
	if c.AO {
		fl |= EffectAO
	}
	if c.SSR {
		fl |= EffectSSR
	}
	if c.Volumetric {
		fl |= EffectVolumetric
	}
	if c.MotionBlur {
		fl |= EffectMotionBlur
	}
	if c.DOF {
		fl |= EffectDOF
	}
	if c.Bloom {
		fl |= EffectBloom
	}
	return fl
}

// WithFlags returns a copy whose enable switches match fl. Enabling TAA on a
// configuration without a budget selects 16 samples.
func (c Config) WithFlags(fl Flags) Config {
	switch {
	case fl&EffectTAA == 0:
		c.TAASamples = 1
	case c.TAASamples == 1:
		c.TAASamples = 16
	}
	c.AO = fl&EffectAO != 0
	c.SSR = fl&EffectSSR != 0
	c.Volumetric = fl&EffectVolumetric != 0
	c.MotionBlur = fl&EffectMotionBlur != 0
	c.DOF = fl&EffectDOF != 0
	c.Bloom = fl&EffectBloom != 0
	return c
}

// sanitized clamps counts into workable ranges.
func (c Config) sanitized() Config {
	if c.TAASamples < 0 {
		c.TAASamples = 0
	}
	if c.SSRRayCount < 1 {
		c.SSRRayCount = 1
	}
	if c.SSRRayCount > maxSSRRays {
		c.SSRRayCount = maxSSRRays
	}
	if c.SSRMaxSteps < 1 {
		c.SSRMaxSteps = 1
	}
	if c.VolumetricSamples < 1 {
		c.VolumetricSamples = 1
	}
	if c.VolumetricEnd <= c.VolumetricStart {
		c.VolumetricEnd = c.VolumetricStart + 1
	}
	if c.MotionBlurSamples < 1 {
		c.MotionBlurSamples = 1
	}
	if c.BokehMaxSize < 1 {
		c.BokehMaxSize = 1
	}
	if c.BloomIterations < 1 {
		c.BloomIterations = 1
	}
	return c
}
