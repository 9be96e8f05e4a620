// Package config loads the renderer configuration from YAML and applies CLI
// overrides on top of it.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v2"

	"postfx-renderer/internal/effects"
	"postfx-renderer/internal/props"
	"postfx-renderer/internal/raster"
	"postfx-renderer/internal/scene"
)

// Config holds every configurable setting of a render run.
type Config struct {
	Canvas     CanvasConfig      `yaml:"canvas"`
	Effects    *props.Properties `yaml:"effects"`
	Scene      scene.Desc        `yaml:"scene"`
	CameraPath scene.PathDesc    `yaml:"camera_path"`
	Output     OutputConfig      `yaml:"output"`
	LogLevel   string            `yaml:"log_level"`
}

// CanvasConfig is the render resolution and color precision.
type CanvasConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	ColorDepth string `yaml:"color_depth"`
}

// OutputConfig controls what a sequence run writes.
type OutputConfig struct {
	Dir      string  `yaml:"dir"`
	Format   string  `yaml:"format"` // webp or png
	Frames   int     `yaml:"frames"`
	Workers  int     `yaml:"workers"`
	Exposure float64 `yaml:"exposure"`
	// Scale resizes encoded frames; 1 keeps the canvas size.
	Scale float64 `yaml:"scale"`
	// Dump additionally writes each pipeline output as a raw snapshot.
	Dump bool `yaml:"dump"`
}

// Default returns the demo configuration: the built-in scene at 640×360 with
// temporal antialiasing and bloom.
func Default() Config {
	fx := effects.DefaultConfig()
	fx.TAASamples = 8
	fx.Bloom = true
	return Config{
		Canvas:  CanvasConfig{Width: 640, Height: 360, ColorDepth: "half"},
		Effects: fx.Properties(),
		Scene:   scene.DefaultDesc(),
		CameraPath: scene.PathDesc{
			Kind: "static",
		},
		Output: OutputConfig{
			Dir:      "frames",
			Format:   "webp",
			Frames:   8,
			Exposure: 1,
			Scale:    1,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML config file on top of Default. Effect properties present
// in the file override the defaults one by one.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	base := cfg.Effects.Clone()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	base.Merge(cfg.Effects)
	cfg.Effects = base
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Frames    int
	OutputDir string
	Format    string
	Workers   int
	Width     int
	Height    int
	Dump      bool
	LogLevel  string
	// Effects are forced on in addition to those the file enables.
	Effects effects.Flags
}

// Resolve applies CLI overrides and fills empty fields with defaults.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.Frames > 0 {
		c.Output.Frames = flags.Frames
	}
	if flags.OutputDir != "" {
		c.Output.Dir = flags.OutputDir
	}
	if flags.Format != "" {
		c.Output.Format = flags.Format
	}
	if flags.Workers > 0 {
		c.Output.Workers = flags.Workers
	}
	if flags.Width > 0 {
		c.Canvas.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Canvas.Height = flags.Height
	}
	if flags.Dump {
		c.Output.Dump = true
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}

	if c.Effects == nil {
		c.Effects = props.New()
	}
	if flags.Effects != effects.EffectNone {
		fx := c.EffectsConfig()
		c.Effects.Merge(fx.WithFlags(fx.Flags() | flags.Effects).Properties())
	}

	// Defaults for render settings
	if c.Canvas.Width <= 0 {
		c.Canvas.Width = 640
	}
	if c.Canvas.Height <= 0 {
		c.Canvas.Height = 360
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "frames"
	}
	if c.Output.Format == "" {
		c.Output.Format = "webp"
	}
	if c.Output.Frames <= 0 {
		c.Output.Frames = 1
	}
	if c.Output.Workers <= 0 {
		c.Output.Workers = runtime.NumCPU()
	}
	if c.Output.Exposure <= 0 {
		c.Output.Exposure = 1
	}
	if c.Output.Scale <= 0 {
		c.Output.Scale = 1
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports settings that cannot be rendered.
func (c *Config) Validate() error {
	if _, err := c.ColorDepth(); err != nil {
		return fmt.Errorf("config: canvas: %w", err)
	}
	switch strings.ToLower(c.Output.Format) {
	case "webp", "png":
	default:
		return fmt.Errorf("config: unknown output format %q", c.Output.Format)
	}
	if err := c.CameraPath.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// EffectsConfig returns the pipeline configuration described by the effects section.
func (c *Config) EffectsConfig() effects.Config {
	return effects.ConfigFromProperties(c.Effects)
}

// ColorDepth parses the canvas color depth.
func (c *Config) ColorDepth() (raster.ColorDepth, error) {
	return raster.ParseColorDepth(c.Canvas.ColorDepth)
}

// CanvasSize returns the pipeline canvas.
func (c *Config) CanvasSize() effects.CanvasSize {
	depth, _ := c.ColorDepth()
	return effects.CanvasSize{W: c.Canvas.Width, H: c.Canvas.Height, Depth: depth}
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log level: %w", err)
	}
	return l, nil
}
