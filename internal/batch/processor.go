// Package batch renders frame sequences through the post-effects pipeline and
// encodes the results on a worker pool.
package batch

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"

	"postfx-renderer/internal/effects"
	"postfx-renderer/internal/postprocess"
	"postfx-renderer/internal/raster"
	"postfx-renderer/internal/scene"
	"postfx-renderer/internal/snapshot"
)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir string
	Format    string // webp or png
	Frames    int
	Workers   int
	Exposure  float64
	Scale     float64 // output resize factor, 1 keeps the canvas size
	Dump      bool    // also write raw snapshots of the pipeline output

	Canvas  effects.CanvasSize
	Effects effects.Config
	Scene   *scene.Scene
	Path    scene.PathDesc

	// Progress receives a periodic progress line; nil disables it.
	Progress io.Writer
}

// Result holds the outcome of one frame.
type Result struct {
	Frame     int
	Image     string // relative to OutputDir
	Snapshot  string // relative to OutputDir, empty unless dumping
	TAASample int
	TAAReset  bool
	Stages    []string
	Render    time.Duration
	Success   bool
	Error     string
}

type job struct {
	frame int
	img   *image.NRGBA
	snap  *raster.Target
}

// Run renders cfg.Frames frames. Rendering and post-processing happen on the
// calling goroutine, in order, because the pipeline carries temporal state;
// encoding fans out to cfg.Workers goroutines. On cancellation Run stops
// rendering, waits for queued frames and returns the results so far with
// ctx.Err().
func Run(ctx context.Context, cfg Config) ([]Result, error) {
	if cfg.Scene == nil || cfg.Scene.Camera == nil {
		return nil, fmt.Errorf("batch: scene has no camera")
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("batch: create %s: %w", cfg.OutputDir, err)
	}
	workers := max(cfg.Workers, 1)
	total := cfg.Frames
	results := make([]Result, total)
	var encoded atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	if cfg.Progress != nil {
		go func() {
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := encoded.Load()
					if p > 0 {
						rate := float64(p) / time.Since(start).Seconds()
						fmt.Fprintf(cfg.Progress, "  [%d/%d] %.1f frames/sec\n", p, total, rate)
					}
				}
			}
		}()
	}

	// Worker pool
	jobs := make(chan job, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				encodeFrame(cfg, j, &results[j.frame])
				encoded.Add(1)
			}
		}()
	}

	p := effects.New(cfg.Effects, cfg.Canvas, cfg.Scene)
	defer p.Close()
	base := *cfg.Scene.Camera
	target := raster.NewTarget(cfg.Canvas.W, cfg.Canvas.H, cfg.Canvas.Depth)

	var runErr error
	rendered := 0
	for frame := 0; frame < total; frame++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		cam := cfg.Path.CameraAt(base, frame)
		cfg.Scene.Camera = &cam

		t0 := time.Now()
		cfg.Scene.Render(target)
		out := p.Apply(target)
		st := p.LastStats()

		r := &results[frame]
		r.Frame = frame
		r.TAASample = st.TAASample
		r.TAAReset = st.TAAReset
		r.Stages = st.StageNames()
		r.Render = time.Since(t0)

		j := job{frame: frame, img: out.ToNRGBA(cfg.Exposure)}
		if cfg.Dump {
			// out is overwritten by the next Apply.
			j.snap = out.Clone()
		}
		jobs <- j
		rendered++
	}
	close(jobs)
	wg.Wait()
	close(done)

	cfg.Scene.Camera = &base
	return results[:rendered], runErr
}

func encodeFrame(cfg Config, j job, r *Result) {
	img := j.img
	if cfg.Scale > 0 && cfg.Scale != 1 {
		b := img.Bounds()
		img = postprocess.Resize(img, int(float64(b.Dx())*cfg.Scale+0.5), int(float64(b.Dy())*cfg.Scale+0.5))
	}

	format := strings.ToLower(cfg.Format)
	if format == "" {
		format = "webp"
	}
	name := fmt.Sprintf("frame_%04d.%s", j.frame, format)
	if err := writeImage(filepath.Join(cfg.OutputDir, name), img, format); err != nil {
		r.Error = err.Error()
		return
	}
	r.Image = name

	if j.snap != nil {
		snap := fmt.Sprintf("frame_%04d.pfxs", j.frame)
		if err := snapshot.Save(filepath.Join(cfg.OutputDir, snap), j.snap); err != nil {
			r.Error = err.Error()
			return
		}
		r.Snapshot = snap
	}
	r.Success = true
}

func writeImage(path string, img *image.NRGBA, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("batch: create %s: %w", path, err)
	}
	defer f.Close()

	switch format {
	case "webp":
		err = nativewebp.Encode(f, img, nil)
	case "png":
		err = png.Encode(f, img)
	default:
		return fmt.Errorf("batch: unknown format %q", format)
	}
	if err != nil {
		return fmt.Errorf("batch: encode %s: %w", path, err)
	}
	return nil
}
