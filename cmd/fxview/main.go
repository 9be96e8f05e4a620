package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gdamore/tcell/v2"

	"postfx-renderer/internal/config"
	"postfx-renderer/internal/effects"
	"postfx-renderer/internal/raster"
	"postfx-renderer/internal/scene"
	"postfx-renderer/internal/snapshot"
	"postfx-renderer/internal/texture"
)

func main() {
	configFile := flag.String("config", "", "Path to a YAML config file (default: built-in demo)")
	snapFile := flag.String("snapshot", "", "Open a frame snapshot instead of rendering the scene")
	imageFile := flag.String("image", "", "Open a PNG/JPEG/TGA/WebP image instead of rendering the scene")
	width := flag.Int("width", 0, "Render width (default: from config)")
	height := flag.Int("height", 0, "Render height (default: from config)")
	fxList := flag.String("effects", "", "Comma-separated effects to force on")
	logFile := flag.String("log", "", "Write debug logs to this file")
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	forced, err := effects.ParseFlags(*fxList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	cfg.Resolve(config.Flags{Width: *width, Height: *height, Effects: forced})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// The terminal owns stdout and stderr while the viewer runs.
	if *logFile != "" {
		f, err := os.Create(*logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		effects.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	var still *raster.Target
	switch {
	case *snapFile != "":
		if still, err = snapshot.Load(*snapFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case *imageFile != "":
		img, err := texture.Load(*imageFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		depth, _ := cfg.ColorDepth()
		still = raster.FromImage(img, depth)
	}

	canvas := cfg.CanvasSize()
	if still != nil {
		canvas = effects.CanvasSize{W: still.Width, H: still.Height, Depth: still.Depth}
	}
	sc, err := scene.Build(cfg.Scene, float64(canvas.W)/float64(canvas.H), texture.NewCache(texture.BuildIndex(cfg.Scene.TextureDir)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building scene: %v\n", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	v := newViewer(screen, cfg, canvas, sc, still)
	v.run()
	screen.Fini()
}
