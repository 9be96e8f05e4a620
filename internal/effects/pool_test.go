package effects

import (
	"testing"

	"postfx-renderer/internal/raster"
)

func TestPoolReusesReleasedTargets(t *testing.T) {
	p := NewPool()
	k := Key{Width: 4, Height: 4, Depth: raster.ColorDepthFloat}
	a := p.Acquire(k)
	if p.Outstanding() != 1 {
		t.Fatalf("outstanding = %d", p.Outstanding())
	}
	a.Release()
	b := p.Acquire(k)
	if a != b {
		t.Error("released target was not reused")
	}
	c := p.Acquire(Key{Width: 2, Height: 2, Depth: raster.ColorDepthFloat})
	if c == b || p.Allocated() != 2 {
		t.Errorf("allocated = %d", p.Allocated())
	}
	b.Release()
	c.Release()
	if p.Outstanding() != 0 {
		t.Errorf("outstanding = %d", p.Outstanding())
	}
}

func TestPoolRetainKeepsTargetAttached(t *testing.T) {
	p := NewPool()
	k := Key{Width: 2, Height: 2, Depth: raster.ColorDepth8}
	a := p.Acquire(k).Retain()
	a.Release()
	if b := p.Acquire(k); b == a {
		t.Error("target handed out while still referenced")
	} else {
		b.Release()
	}
	a.Release()
}

func TestPoolOverReleasePanics(t *testing.T) {
	p := NewPool()
	s := p.Acquire(Key{Width: 1, Height: 1})
	s.Release()
	defer func() {
		if recover() == nil {
			t.Error("expected a panic")
		}
	}()
	s.Release()
}

func TestPoolSharedFillsOncePerFrame(t *testing.T) {
	p := NewPool()
	k := Key{Width: 2, Height: 2, Depth: raster.ColorDepthFloat}
	fills := 0
	fill := func(dst *raster.Target) {
		fills++
		dst.Clear(float32(fills), 0, 0, 1)
	}

	a, produced := p.Shared(k, 1, fill)
	if !produced {
		t.Error("first use in a frame should fill")
	}
	b, produced := p.Shared(k, 1, fill)
	if produced || a != b {
		t.Error("second use in the same frame should reuse the content")
	}
	a.Release()
	b.Release()

	c, produced := p.Shared(k, 2, fill)
	if !produced || fills != 2 {
		t.Errorf("new frame: produced=%v fills=%d", produced, fills)
	}
	if got := c.Pixel(0, 0)[0]; got != 2 {
		t.Errorf("content = %v, want refreshed", got)
	}
	c.Release()
	if p.Outstanding() != 0 {
		t.Errorf("outstanding = %d", p.Outstanding())
	}
}
