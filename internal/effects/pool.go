package effects

import (
	"fmt"

	"postfx-renderer/internal/raster"
)

// Key identifies interchangeable scratch targets.
type Key struct {
	Width, Height int
	Depth         raster.ColorDepth
}

// KeyOf returns the key matching t.
func KeyOf(t *raster.Target) Key {
	return Key{Width: t.Width, Height: t.Height, Depth: t.Depth}
}

// Scratch is a reference-counted target borrowed from a Pool. Its contents are
// undefined when acquired.
type Scratch struct {
	*raster.Target
	key    Key
	refs   int
	frame  uint64 // shared entries: frame whose content is stored
	shared bool
	pool   *Pool
}

// Retain adds a reference.
func (s *Scratch) Retain() *Scratch {
	s.refs++
	s.pool.outstanding++
	return s
}

// Release drops a reference. The last release returns the target to the pool.
func (s *Scratch) Release() {
	if s.refs <= 0 {
		panic(fmt.Sprintf("effects: release of unreferenced %dx%d scratch", s.key.Width, s.key.Height))
	}
	s.refs--
	s.pool.outstanding--
	if s.refs == 0 && !s.shared {
		s.pool.free[s.key] = append(s.pool.free[s.key], s)
	}
}

// Pool hands out scratch targets keyed by resolution and color depth. Acquire
// and Release pair up like attach and detach; Outstanding must be back at zero
// before a target is reused for a different purpose.
//
// Pool is not safe for concurrent use; the pipeline runs on one goroutine.
type Pool struct {
	free        map[Key][]*Scratch
	shared      map[Key]*Scratch
	outstanding int
	allocated   int
}

func NewPool() *Pool {
	return &Pool{
		free:   make(map[Key][]*Scratch),
		shared: make(map[Key]*Scratch),
	}
}

// Acquire returns a scratch target with one reference.
func (p *Pool) Acquire(k Key) *Scratch {
	if list := p.free[k]; len(list) > 0 {
		s := list[len(list)-1]
		p.free[k] = list[:len(list)-1]
		return s.Retain()
	}
	p.allocated++
	s := &Scratch{
		Target: raster.NewTarget(k.Width, k.Height, k.Depth),
		key:    k,
		pool:   p,
	}
	return s.Retain()
}

// Shared returns the per-frame shared buffer for k with one reference for the
// caller. The first caller in a frame fills it; later callers in the same frame
// get the stored content and produced is false.
func (p *Pool) Shared(k Key, frame uint64, fill func(dst *raster.Target)) (s *Scratch, produced bool) {
	s = p.shared[k]
	if s == nil {
		p.allocated++
		s = &Scratch{
			Target: raster.NewTarget(k.Width, k.Height, k.Depth),
			key:    k,
			shared: true,
			pool:   p,
		}
		p.shared[k] = s
	}
	if s.frame != frame {
		fill(s.Target)
		s.frame = frame
		produced = true
	}
	return s.Retain(), produced
}

// Outstanding returns the number of unreleased references.
func (p *Pool) Outstanding() int { return p.outstanding }

// Allocated returns how many targets the pool has created.
func (p *Pool) Allocated() int { return p.allocated }

// Drain forgets every pooled target. Outstanding references stay valid but are
// no longer recycled.
func (p *Pool) Drain() {
	if p.outstanding != 0 {
		Logger().Warn("scratch pool drained with outstanding references", "count", p.outstanding)
	}
	p.free = make(map[Key][]*Scratch)
	p.shared = make(map[Key]*Scratch)
}
