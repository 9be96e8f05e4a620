package main

import (
	"fmt"
	"image"

	"github.com/gdamore/tcell/v2"

	"postfx-renderer/internal/config"
	"postfx-renderer/internal/effects"
	"postfx-renderer/internal/postprocess"
	"postfx-renderer/internal/raster"
	"postfx-renderer/internal/scene"
)

// toggleKeys maps keys to the effect they switch.
var toggleKeys = map[rune]effects.Flags{
	't': effects.EffectTAA,
	'a': effects.EffectAO,
	's': effects.EffectSSR,
	'v': effects.EffectVolumetric,
	'm': effects.EffectMotionBlur,
	'd': effects.EffectDOF,
	'b': effects.EffectBloom,
}

type viewer struct {
	screen tcell.Screen
	cfg    config.Config
	canvas effects.CanvasSize
	scene  *scene.Scene
	base   scene.Camera
	still  *raster.Target // fixed input frame, nil to render the scene

	fx       effects.Config
	pipeline *effects.Pipeline
	frame    int
	exposure float64
	frameBuf *raster.Target
	last     *image.NRGBA
}

func newViewer(screen tcell.Screen, cfg config.Config, canvas effects.CanvasSize, sc *scene.Scene, still *raster.Target) *viewer {
	v := &viewer{
		screen:   screen,
		cfg:      cfg,
		canvas:   canvas,
		scene:    sc,
		base:     *sc.Camera,
		still:    still,
		fx:       cfg.EffectsConfig(),
		exposure: cfg.Output.Exposure,
		frameBuf: raster.NewTarget(canvas.W, canvas.H, canvas.Depth),
	}
	v.rebuild()
	return v
}

// rebuild recreates the pipeline; effect configuration is only read at construction.
func (v *viewer) rebuild() {
	if v.pipeline != nil {
		v.pipeline.Close()
	}
	v.pipeline = effects.New(v.fx, v.canvas, v.scene)
}

func (v *viewer) step() {
	cam := v.cfg.CameraPath.CameraAt(v.base, v.frame)
	v.scene.Camera = &cam
	if v.still != nil {
		v.frameBuf.CopyFrom(v.still)
	} else {
		v.scene.Render(v.frameBuf)
	}
	out := v.pipeline.Apply(v.frameBuf)
	v.last = out.ToNRGBA(v.exposure)
}

func (v *viewer) run() {
	v.step()
	v.draw()
	for {
		switch ev := v.screen.PollEvent().(type) {
		case *tcell.EventKey:
			if !v.handleKey(ev) {
				return
			}
			v.draw()
		case *tcell.EventResize:
			v.screen.Sync()
			v.draw()
		case nil:
			return
		}
	}
}

func (v *viewer) handleKey(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		return false
	}
	if ev.Key() != tcell.KeyRune {
		return true
	}
	r := ev.Rune()
	switch {
	case r == 'q':
		return false
	case r == ' ':
		v.frame++
		v.step()
	case r == '+' || r == '=':
		v.exposure *= 1.25
		v.step()
	case r == '-':
		v.exposure /= 1.25
		v.step()
	case r == 'r':
		v.pipeline.InvalidateHistory()
		v.step()
	default:
		if f, ok := toggleKeys[r]; ok {
			v.fx = v.fx.WithFlags(v.fx.Flags() ^ f)
			v.rebuild()
			v.step()
		}
	}
	return true
}

// draw paints the last frame with upper-half-block cells, two pixels per cell.
func (v *viewer) draw() {
	v.screen.Clear()
	cols, rows := v.screen.Size()
	if cols < 1 || rows < 2 || v.last == nil {
		v.screen.Show()
		return
	}
	img := postprocess.Letterbox(v.last, cols, (rows-1)*2)
	for y := 0; y+1 < img.Rect.Dy(); y += 2 {
		for x := 0; x < img.Rect.Dx(); x++ {
			top := img.NRGBAAt(x, y)
			bottom := img.NRGBAAt(x, y+1)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			v.screen.SetContent(x, y/2, '▀', nil, style)
		}
	}

	st := v.pipeline.LastStats()
	status := fmt.Sprintf(" frame %d  taa %d  fx [%s]  exp %.2f  | t a s v m d b toggle  space next  r reset  q quit",
		v.frame, st.TAASample, v.pipeline.Flags(), v.exposure)
	for i, r := range []rune(status) {
		if i >= cols {
			break
		}
		v.screen.SetContent(i, rows-1, r, nil, tcell.StyleDefault.Reverse(true))
	}
	v.screen.Show()
}
