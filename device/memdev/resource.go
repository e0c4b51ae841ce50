package memdev

import (
	"sync/atomic"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
)

var nextID atomic.Uint64

func newID() uint64 { return nextID.Add(1) }

// base implements device.Resource bookkeeping.
type base struct {
	dev       *Device
	id        uint64
	size      int64
	released  bool
	abandoned bool
}

func (b *base) ID() uint64       { return b.id }
func (b *base) SizeBytes() int64 { return b.size }
func (b *base) IsValid() bool    { return !b.released && !b.abandoned }
func (b *base) Abandon()         { b.abandoned = true }

func (b *base) release() bool {
	if b.released {
		return false
	}
	b.released = true
	if !b.abandoned {
		b.dev.untrack(b.id, b.size)
	}
	return true
}

// Texture is an in-memory texture. Pixels are stored premultiplied in
// RGBA byte order, four bytes per pixel, whatever the declared format.
type Texture struct {
	base
	desc device.TextureDesc
	pix  []byte
	rt   *RenderTarget
}

var _ device.Texture = (*Texture)(nil)

func (t *Texture) Desc() device.TextureDesc       { return t.desc }
func (t *Texture) Width() int                     { return t.desc.Width }
func (t *Texture) Height() int                    { return t.desc.Height }
func (t *Texture) Format() gputypes.TextureFormat { return t.desc.Format }

// Release frees the texture and its render target view.
func (t *Texture) Release() {
	if t.base.release() && t.rt != nil {
		t.rt.base.release()
	}
}

// Abandon marks the texture and its render target view abandoned.
func (t *Texture) Abandon() {
	t.base.Abandon()
	if t.rt != nil {
		t.rt.base.Abandon()
	}
}

func (t *Texture) RenderTarget() device.RenderTarget {
	if t.rt == nil {
		return nil
	}
	return t.rt
}

// Pixel returns the stored premultiplied RGBA value at (x, y).
func (t *Texture) Pixel(x, y int) [4]uint8 {
	i := (y*t.desc.Width + x) * 4
	return [4]uint8{t.pix[i], t.pix[i+1], t.pix[i+2], t.pix[i+3]}
}

// RenderTarget is an in-memory render target. Texture-backed targets share
// the texture's pixels.
type RenderTarget struct {
	base
	width, height int
	format        gputypes.TextureFormat
	samples       int
	tex           *Texture
	pix           []byte

	resolves int
}

var _ device.RenderTarget = (*RenderTarget)(nil)

func (r *RenderTarget) Width() int                     { return r.width }
func (r *RenderTarget) Height() int                    { return r.height }
func (r *RenderTarget) Format() gputypes.TextureFormat { return r.format }
func (r *RenderTarget) SampleCount() int               { return r.samples }
func (r *RenderTarget) Release()                       { r.base.release() }
func (r *RenderTarget) Texture() device.Texture {
	if r.tex == nil {
		return nil
	}
	return r.tex
}

// Resolves returns how many times the target was resolved.
func (r *RenderTarget) Resolves() int { return r.resolves }

// Pixel returns the stored premultiplied RGBA value at (x, y).
func (r *RenderTarget) Pixel(x, y int) [4]uint8 {
	i := (y*r.width + x) * 4
	p := r.pixels()
	return [4]uint8{p[i], p[i+1], p[i+2], p[i+3]}
}

func (r *RenderTarget) pixels() []byte {
	if r.tex != nil {
		return r.tex.pix
	}
	return r.pix
}

// StencilBuffer is an in-memory 8-bit stencil plane.
type StencilBuffer struct {
	base
	width, height, samples int
	bits                   []uint8
}

var _ device.StencilBuffer = (*StencilBuffer)(nil)

func (s *StencilBuffer) Width() int       { return s.width }
func (s *StencilBuffer) Height() int      { return s.height }
func (s *StencilBuffer) SampleCount() int { return s.samples }
func (s *StencilBuffer) Release()         { s.base.release() }

// Value returns the stencil value at (x, y).
func (s *StencilBuffer) Value(x, y int) uint8 { return s.bits[y*s.width+x] }
