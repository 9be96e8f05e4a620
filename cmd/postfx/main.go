package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"postfx-renderer/internal/batch"
	"postfx-renderer/internal/config"
	"postfx-renderer/internal/effects"
	"postfx-renderer/internal/scene"
	"postfx-renderer/internal/texture"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to a YAML config file (default: built-in demo)")
	initFile := flag.String("init", "", "Write the default config to this path and exit")
	frames := flag.Int("frames", 0, "Number of frames to render")
	outputDir := flag.String("output", "", "Output directory (default: frames)")
	format := flag.String("format", "", "Output format: webp or png")
	workers := flag.Int("workers", 0, "Number of encoder goroutines (default: NumCPU)")
	width := flag.Int("width", 0, "Canvas width")
	height := flag.Int("height", 0, "Canvas height")
	dump := flag.Bool("dump", false, "Also write raw frame snapshots")
	fxList := flag.String("effects", "", "Comma-separated effects to force on (taa,ao,ssr,volumetric,motion_blur,dof,bloom)")
	logLevel := flag.String("log-level", "", "debug, info, warn or error")

	flag.Parse()

	if *initFile != "" {
		if err := config.Save(*initFile, config.Default()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *initFile)
		return
	}

	// Load config
	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	forced, err := effects.ParseFlags(*fxList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		Frames:    *frames,
		OutputDir: *outputDir,
		Format:    *format,
		Workers:   *workers,
		Width:     *width,
		Height:    *height,
		Dump:      *dump,
		LogLevel:  *logLevel,
		Effects:   forced,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	effects.SetLogger(logger)

	// Build texture index
	texIndex := texture.BuildIndex(cfg.Scene.TextureDir)
	texCache := texture.NewCache(texIndex)
	if cfg.Scene.TextureDir != "" {
		fmt.Printf("Textures: %d indexed\n", texIndex.Len())
	}

	canvas := cfg.CanvasSize()
	sc, err := scene.Build(cfg.Scene, float64(canvas.W)/float64(canvas.H), texCache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building scene: %v\n", err)
		os.Exit(1)
	}
	fx := cfg.EffectsConfig()

	// Print summary
	fmt.Printf("Post-effects renderer → %s\n", cfg.Output.Format)
	fmt.Printf("Canvas: %dx%d %s, Frames: %d, Workers: %d\n", canvas.W, canvas.H, canvas.Depth, cfg.Output.Frames, cfg.Output.Workers)
	fmt.Printf("Effects: %s\n", fx.Flags())
	fmt.Printf("Output: %s\n", cfg.Output.Dir)
	fmt.Println("------------------------------------------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()

	// Run batch
	results, runErr := batch.Run(ctx, batch.Config{
		OutputDir: cfg.Output.Dir,
		Format:    cfg.Output.Format,
		Frames:    cfg.Output.Frames,
		Workers:   cfg.Output.Workers,
		Exposure:  cfg.Output.Exposure,
		Scale:     cfg.Output.Scale,
		Dump:      cfg.Output.Dump,
		Canvas:    canvas,
		Effects:   fx,
		Scene:     sc,
		Path:      cfg.CameraPath,
		Progress:  os.Stdout,
	})

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Stopped: %v\n", runErr)
	}

	// Count results
	success := 0
	var failed []batch.Result
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed = append(failed, r)
		}
	}
	fmt.Printf("Rendered: %d/%d\n", success, cfg.Output.Frames)

	if len(failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failed))
		for _, r := range failed[:min(len(failed), 20)] {
			fmt.Printf("  frame %d: %s\n", r.Frame, r.Error)
		}
	}

	// Write manifest
	if len(results) > 0 {
		manifestPath := filepath.Join(cfg.Output.Dir, "manifest.json")
		if err := batch.WriteManifest(manifestPath, results); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
		} else {
			fmt.Printf("Manifest: %s\n", manifestPath)
		}
	}

	if len(failed) > 0 || runErr != nil {
		os.Exit(1)
	}
}
