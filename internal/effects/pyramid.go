package effects

import "postfx-renderer/internal/raster"

// DepthLevel is one level of the min/max depth pyramid.
type DepthLevel struct {
	Width, Height int
	Min, Max      []float32
}

// DepthPyramid is a hierarchical min/max depth buffer. Level 0 matches the
// source resolution; every further level halves it down to 1×1.
type DepthPyramid struct {
	Levels []DepthLevel
}

// Build fills the pyramid from src, reallocating only when the size changed.
func (d *DepthPyramid) Build(src *raster.Target) {
	if len(d.Levels) == 0 || d.Levels[0].Width != src.Width || d.Levels[0].Height != src.Height {
		d.allocate(src.Width, src.Height)
	}

	l0 := &d.Levels[0]
	copy(l0.Min, src.ZBuf)
	copy(l0.Max, src.ZBuf)

	for i := 1; i < len(d.Levels); i++ {
		prev := &d.Levels[i-1]
		cur := &d.Levels[i]
		for y := 0; y < cur.Height; y++ {
			for x := 0; x < cur.Width; x++ {
				mn, mx := float32(1), float32(0)
				// Odd sizes fold the trailing row/column into the last cell.
				x1 := min(2*x+1, prev.Width-1)
				y1 := min(2*y+1, prev.Height-1)
				if x == cur.Width-1 {
					x1 = prev.Width - 1
				}
				if y == cur.Height-1 {
					y1 = prev.Height - 1
				}
				for sy := 2 * y; sy <= y1; sy++ {
					row := sy * prev.Width
					for sx := 2 * x; sx <= x1; sx++ {
						if v := prev.Min[row+sx]; v < mn {
							mn = v
						}
						if v := prev.Max[row+sx]; v > mx {
							mx = v
						}
					}
				}
				cur.Min[y*cur.Width+x] = mn
				cur.Max[y*cur.Width+x] = mx
			}
		}
	}
}

func (d *DepthPyramid) allocate(w, h int) {
	d.Levels = d.Levels[:0]
	for {
		n := w * h
		d.Levels = append(d.Levels, DepthLevel{
			Width:  w,
			Height: h,
			Min:    make([]float32, n),
			Max:    make([]float32, n),
		})
		if w == 1 && h == 1 {
			return
		}
		w, h = max(w/2, 1), max(h/2, 1)
	}
}

// MinAt returns the minimum depth covering full-resolution pixel (x, y) at level.
func (d *DepthPyramid) MinAt(level, x, y int) float32 {
	l := &d.Levels[level]
	lx := min(max(x>>level, 0), l.Width-1)
	ly := min(max(y>>level, 0), l.Height-1)
	return l.Min[ly*l.Width+lx]
}

// MaxAt returns the maximum depth covering full-resolution pixel (x, y) at level.
func (d *DepthPyramid) MaxAt(level, x, y int) float32 {
	l := &d.Levels[level]
	lx := min(max(x>>level, 0), l.Width-1)
	ly := min(max(y>>level, 0), l.Height-1)
	return l.Max[ly*l.Width+lx]
}
