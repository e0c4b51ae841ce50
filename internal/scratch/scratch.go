// Package scratch hands out reusable textures from the resource cache.
//
// A scratch texture is interchangeable with any other texture of the same
// descriptor. Lock returns one for exclusive use; Unlock makes it reusable
// again. Between the two the texture is detached from the cache, so no
// second Lock can return it.
package scratch

import (
	"errors"
	"fmt"
	"log/slog"
	"math/bits"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/internal/cache"
)

// DefaultMinSize is the smallest dimension of an approximately matched
// scratch texture.
const DefaultMinSize = 256

// ErrScratchUnavailable is returned when no cached texture matched and the
// device could not allocate a new one.
var ErrScratchUnavailable = errors.New("scratch: texture unavailable")

// Match selects how closely a scratch texture must fit the request.
type Match uint8

const (
	// MatchApprox accepts a larger texture with compatible flags.
	MatchApprox Match = iota
	// MatchExact requires the exact descriptor.
	MatchExact
)

// Allocator locks scratch textures out of a cache, allocating on miss.
type Allocator struct {
	cache   *cache.Cache
	dev     device.Device
	minSize int
	logger  *slog.Logger
}

// New creates an allocator. minSize <= 0 selects DefaultMinSize.
// A nil logger disables logging.
func New(c *cache.Cache, dev device.Device, minSize int, logger *slog.Logger) *Allocator {
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Allocator{cache: c, dev: dev, minSize: minSize, logger: logger}
}

// MinSize returns the approximate-match floor.
func (a *Allocator) MinSize() int { return a.minSize }

// nextPow2 returns the smallest power of two >= n.
func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// Normalize returns the descriptor Lock allocates for desc under match.
func (a *Allocator) Normalize(desc device.TextureDesc, match Match) device.TextureDesc {
	if desc.SampleCount < 1 {
		desc.SampleCount = 1
	}
	if match == MatchApprox {
		desc.Width = max(a.minSize, nextPow2(desc.Width))
		desc.Height = max(a.minSize, nextPow2(desc.Height))
	}
	return desc
}

// Lock returns a texture at least as large as desc for exclusive use.
//
// For approximate matches the search relaxes the request step by step:
// add the render-target flag, drop the no-stencil flag, then retry the same
// flag sequence at double width and finally at double height. A miss
// allocates with the normalized but unrelaxed descriptor.
func (a *Allocator) Lock(desc device.TextureDesc, match Match) (device.Texture, error) {
	e, err := a.lockEntry(desc, match)
	if err != nil {
		return nil, err
	}
	return e.Resource().(device.Texture), nil
}

func (a *Allocator) lockEntry(in device.TextureDesc, match Match) (*cache.Entry, error) {
	in = a.Normalize(in, match)
	desc := in
	doubledW, doubledH := false, false
	for {
		if e := a.cache.FindAndLock(cache.ScratchKey(desc), cache.LockSingle); e != nil {
			if desc != in {
				a.logger.Debug("scratch: relaxed match", "want", in.String(), "got", desc.String())
			}
			a.cache.Detach(e)
			return e, nil
		}
		if match == MatchExact {
			break
		}
		switch {
		case !desc.Flags.Has(device.FlagRenderTarget):
			desc.Flags |= device.FlagRenderTarget
		case desc.Flags.Has(device.FlagNoStencil):
			desc.Flags &^= device.FlagNoStencil
		case !doubledW:
			desc.Flags = in.Flags
			desc.Width *= 2
			doubledW = true
		case !doubledH:
			desc.Flags = in.Flags
			desc.Width /= 2
			desc.Height *= 2
			doubledH = true
		default:
			return a.allocate(in)
		}
	}
	return a.allocate(in)
}

func (a *Allocator) allocate(desc device.TextureDesc) (*cache.Entry, error) {
	tex, err := a.dev.CreateTexture(desc, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrScratchUnavailable, desc, err)
	}
	e, err := a.cache.CreateAndLock(cache.ScratchKey(desc), tex)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("%w: %w", ErrScratchUnavailable, err)
	}
	a.cache.Detach(e)
	return e, nil
}

// Unlock returns a texture obtained from Lock. Scratch entries are
// reattached so later Locks can reuse them; other cached textures are
// simply unlocked.
func (a *Allocator) Unlock(tex device.Texture) {
	e := a.cache.EntryFor(tex)
	if e == nil {
		a.logger.Warn("scratch: unlock of untracked texture", "id", tex.ID())
		return
	}
	a.unlockEntry(e)
}

func (a *Allocator) unlockEntry(e *cache.Entry) {
	if e.Key().IsScratch() {
		a.cache.ReattachAndUnlock(e)
		return
	}
	a.cache.Unlock(e)
}

// AddExisting donates tex to the scratch pool without a lock cycle. The
// cache takes ownership.
func (a *Allocator) AddExisting(tex device.Texture) {
	desc := tex.Desc()
	if desc.SampleCount < 1 {
		desc.SampleCount = 1
	}
	a.cache.Attach(cache.ScratchKey(desc), tex)
}

// Acquire locks a scratch texture and returns a guard that unlocks it.
//
//	h, err := alloc.Acquire(desc, scratch.MatchApprox)
//	if err != nil {
//		return err
//	}
//	defer h.Release()
func (a *Allocator) Acquire(desc device.TextureDesc, match Match) (*Handle, error) {
	e, err := a.lockEntry(desc, match)
	if err != nil {
		return nil, err
	}
	return &Handle{alloc: a, entry: e, tex: e.Resource().(device.Texture)}, nil
}

// Handle is a scoped scratch lock.
type Handle struct {
	alloc *Allocator
	entry *cache.Entry
	tex   device.Texture
	done  bool
}

// Texture returns the locked texture, or nil after Release or Detach.
func (h *Handle) Texture() device.Texture {
	if h.done {
		return nil
	}
	return h.tex
}

// Release unlocks the texture. Safe to call more than once.
func (h *Handle) Release() {
	if h.done {
		return
	}
	h.done = true
	h.alloc.unlockEntry(h.entry)
}

// Detach transfers the lock to the caller, who must later pass the
// texture to Allocator.Unlock. Release becomes a no-op.
func (h *Handle) Detach() device.Texture {
	if h.done {
		return nil
	}
	h.done = true
	return h.tex
}
