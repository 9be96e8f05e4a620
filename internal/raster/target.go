package raster

import (
	"fmt"
	"strings"
)

// ColorDepth describes the storage precision of a target's color channels.
type ColorDepth int

const (
	ColorDepth8     ColorDepth = iota // LDR, writes clamp to [0,1]
	ColorDepthHalf                    // HDR half float
	ColorDepthFloat                   // HDR full float
)

// ParseColorDepth accepts "ldr"/"8", "half"/"16" and "float"/"32".
func ParseColorDepth(s string) (ColorDepth, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ldr", "8":
		return ColorDepth8, nil
	case "half", "16":
		return ColorDepthHalf, nil
	case "float", "32":
		return ColorDepthFloat, nil
	}
	return ColorDepth8, fmt.Errorf("raster: unknown color depth %q", s)
}

func (d ColorDepth) String() string {
	switch d {
	case ColorDepthHalf:
		return "half"
	case ColorDepthFloat:
		return "float"
	}
	return "ldr"
}

// HDR reports whether values above 1 survive a write.
func (d ColorDepth) HDR() bool {
	return d != ColorDepth8
}

// Target is an owned color+depth surface stored as flat slices for cache locality.
// Color is linear RGBA; depth is NDC depth in [0,1] with 1 at the far plane.
type Target struct {
	Width  int
	Height int
	Depth  ColorDepth
	Color  []float32 // RGBA interleaved, len = W*H*4
	ZBuf   []float32 // len = W*H, cleared to 1
}

// NewTarget allocates a black transparent target with a cleared depth buffer.
func NewTarget(w, h int, depth ColorDepth) *Target {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	n := w * h
	t := &Target{
		Width:  w,
		Height: h,
		Depth:  depth,
		Color:  make([]float32, n*4),
		ZBuf:   make([]float32, n),
	}
	t.ClearDepth()
	return t
}

// HalfSize returns the dimensions of a half-resolution companion, at least 1×1.
func HalfSize(w, h int) (int, int) {
	hw, hh := w/2, h/2
	if hw < 1 {
		hw = 1
	}
	if hh < 1 {
		hh = 1
	}
	return hw, hh
}

// Clear fills the color buffer.
func (t *Target) Clear(r, g, b, a float32) {
	for i := 0; i < len(t.Color); i += 4 {
		t.Color[i] = r
		t.Color[i+1] = g
		t.Color[i+2] = b
		t.Color[i+3] = a
	}
}

// ClearDepth resets every depth sample to the far plane.
func (t *Target) ClearDepth() {
	for i := range t.ZBuf {
		t.ZBuf[i] = 1
	}
}

// SameSize reports whether o has identical dimensions.
func (t *Target) SameSize(o *Target) bool {
	return t.Width == o.Width && t.Height == o.Height
}

// CopyFrom copies color and depth from a target of the same size.
func (t *Target) CopyFrom(src *Target) {
	t.CopyColorFrom(src)
	t.CopyDepthFrom(src)
}

func (t *Target) CopyColorFrom(src *Target) {
	if !t.SameSize(src) {
		panic(fmt.Sprintf("raster: color copy %dx%d into %dx%d", src.Width, src.Height, t.Width, t.Height))
	}
	copy(t.Color, src.Color)
}

func (t *Target) CopyDepthFrom(src *Target) {
	if !t.SameSize(src) {
		panic(fmt.Sprintf("raster: depth copy %dx%d into %dx%d", src.Width, src.Height, t.Width, t.Height))
	}
	copy(t.ZBuf, src.ZBuf)
}

// Clone returns a deep copy.
func (t *Target) Clone() *Target {
	c := &Target{
		Width:  t.Width,
		Height: t.Height,
		Depth:  t.Depth,
		Color:  make([]float32, len(t.Color)),
		ZBuf:   make([]float32, len(t.ZBuf)),
	}
	copy(c.Color, t.Color)
	copy(c.ZBuf, t.ZBuf)
	return c
}

// Pixel returns the RGBA value at (x, y) clamped to the edges.
func (t *Target) Pixel(x, y int) [4]float32 {
	x, y = t.clampXY(x, y)
	i := (y*t.Width + x) * 4
	return [4]float32{t.Color[i], t.Color[i+1], t.Color[i+2], t.Color[i+3]}
}

// SetPixel stores an RGBA value, clamping to [0,1] on LDR targets.
func (t *Target) SetPixel(x, y int, c [4]float32) {
	i := (y*t.Width + x) * 4
	if !t.Depth.HDR() {
		for k := range c {
			c[k] = clamp01(c[k])
		}
	}
	t.Color[i] = c[0]
	t.Color[i+1] = c[1]
	t.Color[i+2] = c[2]
	t.Color[i+3] = c[3]
}

// DepthAt returns the depth at (x, y) clamped to the edges.
func (t *Target) DepthAt(x, y int) float32 {
	x, y = t.clampXY(x, y)
	return t.ZBuf[y*t.Width+x]
}

// Sample performs bilinear filtering at normalized coordinates (u, v) with
// clamp-to-edge addressing. v=0 is the top row.
func (t *Target) Sample(u, v float64) [4]float32 {
	fx := u*float64(t.Width) - 0.5
	fy := v*float64(t.Height) - 0.5
	x0 := int(floor(fx))
	y0 := int(floor(fy))
	dx := float32(fx - float64(x0))
	dy := float32(fy - float64(y0))

	c00 := t.Pixel(x0, y0)
	c10 := t.Pixel(x0+1, y0)
	c01 := t.Pixel(x0, y0+1)
	c11 := t.Pixel(x0+1, y0+1)

	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	var out [4]float32
	for k := 0; k < 4; k++ {
		out[k] = c00[k]*w00 + c10[k]*w10 + c01[k]*w01 + c11[k]*w11
	}
	return out
}

func (t *Target) clampXY(x, y int) (int, int) {
	if x < 0 {
		x = 0
	} else if x >= t.Width {
		x = t.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= t.Height {
		y = t.Height - 1
	}
	return x, y
}

func floor(v float64) float64 {
	i := float64(int(v))
	if v < i {
		return i - 1
	}
	return i
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
