package gr

import (
	"fmt"
	"image"
	"math/bits"

	"github.com/disintegration/imaging"
	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/drawstate"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/internal/cache"
	"github.com/gogpu/gr/internal/color"
	"github.com/gogpu/gr/internal/scratch"
)

// ScratchMatch selects how closely a scratch texture must fit a request.
type ScratchMatch = scratch.Match

const (
	// MatchApprox accepts a larger power-of-two texture.
	MatchApprox = scratch.MatchApprox
	// MatchExact requires the exact descriptor.
	MatchExact = scratch.MatchExact
)

// ResourceCacheStats is a snapshot of the resource cache counters.
type ResourceCacheStats = cache.Stats

// Textures stretched to power-of-two sizes are at least this large.
const minResizedSize = 64

func isPow2(n int) bool { return n > 0 && n&(n-1) == 0 }

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// textureKey returns the cache key of a client texture. Tiled NPOT
// textures on devices without NPOT tiling are keyed as resized.
func (c *Context) textureKey(params device.TextureParams, desc device.TextureDesc, clientID uint64) cache.Key {
	if desc.SampleCount < 1 {
		desc.SampleCount = 1
	}
	var resize cache.ResizeFlags
	if params.Tiled && !c.caps.NPOTTextureTileSupport && (!isPow2(desc.Width) || !isPow2(desc.Height)) {
		resize = cache.ResizeNeeded
		if params.Filtered() {
			resize |= cache.ResizeFiltered
		}
	}
	return cache.TextureKey(clientID, desc, resize)
}

// FindAndLockTexture returns the cached client texture for the arguments,
// locked, or nil. Lock calls nest.
func (c *Context) FindAndLockTexture(params device.TextureParams, desc device.TextureDesc, clientID uint64) device.Texture {
	e := c.cache.FindAndLock(c.textureKey(params, desc, clientID), cache.LockNested)
	if e == nil {
		return nil
	}
	return e.Resource().(device.Texture)
}

// IsTextureInCache reports whether FindAndLockTexture would hit.
func (c *Context) IsTextureInCache(params device.TextureParams, desc device.TextureDesc, clientID uint64) bool {
	return c.cache.HasKey(c.textureKey(params, desc, clientID))
}

// CreateAndLockTexture creates a client texture from data, caches it under
// clientID and returns it locked. When params need tiling the device
// cannot do on a non-power-of-two texture, the data is stretched to a
// power-of-two texture.
func (c *Context) CreateAndLockTexture(params device.TextureParams, desc device.TextureDesc, clientID uint64, data []byte, rowBytes int) (device.Texture, error) {
	key := c.textureKey(params, desc, clientID)

	var (
		tex device.Texture
		err error
	)
	if key.Resize&cache.ResizeNeeded != 0 {
		tex, err = c.createResizedTexture(desc, clientID, data, rowBytes, params.Filtered())
	} else {
		tex, err = c.dev.CreateTexture(desc, data, rowBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("gr: create texture %s: %w", desc, err)
	}
	if _, err := c.cache.CreateAndLock(key, tex); err != nil {
		tex.Release()
		return nil, err
	}
	return tex, nil
}

// createResizedTexture stretches the clamped version of a client texture
// into a power-of-two render target, or on the CPU when no such target can
// be made.
func (c *Context) createResizedTexture(desc device.TextureDesc, clientID uint64, data []byte, rowBytes int, filter bool) (device.Texture, error) {
	clamped := c.FindAndLockTexture(device.TextureParams{}, desc, clientID)
	if clamped == nil {
		var err error
		clamped, err = c.CreateAndLockTexture(device.TextureParams{}, desc, clientID, data, rowBytes)
		if err != nil {
			return nil, err
		}
	}
	defer c.UnlockTexture(clamped)

	rtDesc := desc
	rtDesc.Flags |= device.FlagRenderTarget | device.FlagNoStencil
	rtDesc.Width = nextPow2(max(desc.Width, minResizedSize))
	rtDesc.Height = nextPow2(max(desc.Height, minResizedSize))

	if c.caps.IsRenderable(desc.Format) {
		tex, err := c.dev.CreateTexture(rtDesc, nil, 0)
		if err == nil && tex.RenderTarget() != nil {
			if err := c.stretchOnDevice(clamped, tex, filter); err != nil {
				tex.Release()
				return nil, err
			}
			return tex, nil
		}
		if err == nil {
			tex.Release()
		}
	}

	c.logger.Warn("gr: resizing texture on the CPU", "desc", desc.String())
	stretched := desc
	stretched.Width = rtDesc.Width
	stretched.Height = rtDesc.Height
	if data == nil {
		return c.dev.CreateTexture(stretched, nil, 0)
	}
	pix, stride, err := stretchPixels(desc, data, rowBytes, stretched.Width, stretched.Height, filter)
	if err != nil {
		return nil, err
	}
	return c.dev.CreateTexture(stretched, pix, stride)
}

// stretchOnDevice draws src over the whole of dst.
func (c *Context) stretchOnDevice(src, dst device.Texture, filter bool) error {
	g := c.state.SaveReset(drawstate.FieldAll)
	defer g.Restore()

	st := c.state.State()
	st.RenderTarget = dst.RenderTarget()
	st.Samplers[0].Texture = src
	st.Samplers[0].Matrix = geom.IDiv(dst.Width(), dst.Height())
	if filter {
		st.Samplers[0].Params.Filter = gputypes.FilterModeLinear
	}
	st.SetBlend(gputypes.BlendFactorOne, gputypes.BlendFactorZero)
	return c.dev.Draw(st, device.RectCall(geom.XYWH(0, 0, float64(dst.Width()), float64(dst.Height()))))
}

// stretchPixels resamples premultiplied pixels to w x h. Filtered
// stretches interpolate linearly; others take the nearest texel.
func stretchPixels(desc device.TextureDesc, data []byte, rowBytes, w, h int, filter bool) ([]byte, int, error) {
	if rowBytes == 0 {
		rowBytes = desc.Width * device.BytesPerPixel(desc.Format)
	}
	srcRect := image.Rect(0, 0, desc.Width, desc.Height)
	dstRect := image.Rect(0, 0, w, h)

	if desc.Format == gputypes.TextureFormatR8Unorm {
		src := &image.Gray{Pix: data, Stride: rowBytes, Rect: srcRect}
		if !filter {
			dst := image.NewGray(dstRect)
			xdraw.NearestNeighbor.Scale(dst, dstRect, src, srcRect, xdraw.Src, nil)
			return dst.Pix, dst.Stride, nil
		}
		out := imaging.Resize(src, w, h, imaging.Linear)
		pix := make([]byte, w*h)
		for i := range pix {
			pix[i] = out.Pix[i*4]
		}
		return pix, w, nil
	}

	cfg, ok := color.ConfigFor(desc.Format, false)
	if !ok {
		return nil, 0, fmt.Errorf("%w: resize of %s", ErrUnsupportedFormat, device.FormatName(desc.Format))
	}
	// Work in premultiplied RGBA, the layout image.RGBA uses.
	rgba := make([]byte, desc.Width*desc.Height*4)
	color.ConvertPixels(rgba, desc.Width*4, color.RGBAPremul, data, rowBytes, cfg, desc.Width, desc.Height)
	src := &image.RGBA{Pix: rgba, Stride: desc.Width * 4, Rect: srcRect}

	var pix []byte
	if filter {
		out := imaging.Resize(src, w, h, imaging.Linear)
		pix = out.Pix
		color.ConvertPixels(pix, w*4, cfg, pix, out.Stride, color.RGBAUnpremul, w, h)
	} else {
		dst := image.NewRGBA(dstRect)
		xdraw.NearestNeighbor.Scale(dst, dstRect, src, srcRect, xdraw.Src, nil)
		pix = dst.Pix
		color.ConvertPixels(pix, w*4, cfg, pix, dst.Stride, color.RGBAPremul, w, h)
	}
	return pix, w * 4, nil
}

// LockScratchTexture returns a scratch texture for exclusive use. Return
// it with UnlockTexture.
func (c *Context) LockScratchTexture(desc device.TextureDesc, match ScratchMatch) (device.Texture, error) {
	return c.scratch.Lock(desc, match)
}

// AddExistingTextureToCache gives tex to the cache as a reusable scratch
// texture. The cache owns it afterwards.
func (c *Context) AddExistingTextureToCache(tex device.Texture) {
	c.scratch.AddExisting(tex)
}

// UnlockTexture releases a lock taken by FindAndLockTexture,
// CreateAndLockTexture or LockScratchTexture.
func (c *Context) UnlockTexture(tex device.Texture) {
	c.assertOwned(tex)
	c.scratch.Unlock(tex)
}

// FreeEntry removes an unlocked cached resource and releases it.
func (c *Context) FreeEntry(res device.Resource) error {
	e := c.cache.EntryFor(res)
	if e == nil {
		return ErrUnknownResource
	}
	if !e.IsLocked() {
		// Buffered draws may still sample it.
		if err := c.flushDrawBuffer(); err != nil {
			return err
		}
	}
	return c.cache.FreeEntry(e)
}

// CreateUncachedTexture creates a texture the cache does not track. The
// caller releases it.
func (c *Context) CreateUncachedTexture(desc device.TextureDesc, data []byte, rowBytes int) (device.Texture, error) {
	return c.dev.CreateTexture(desc, data, rowBytes)
}

// FindStencilBuffer returns an unlocked cached stencil buffer of the given
// size, now locked, or nil.
func (c *Context) FindStencilBuffer(width, height, sampleCount int) device.StencilBuffer {
	e := c.cache.FindAndLock(cache.StencilKey(width, height, max(sampleCount, 1)), cache.LockSingle)
	if e == nil {
		return nil
	}
	return e.Resource().(device.StencilBuffer)
}

// AddAndLockStencilBuffer caches sb and returns it locked.
func (c *Context) AddAndLockStencilBuffer(sb device.StencilBuffer) {
	c.cache.AddAndLock(cache.StencilKey(sb.Width(), sb.Height(), max(sb.SampleCount(), 1)), sb)
}

// LockStencilBuffer finds a free stencil buffer or creates one.
func (c *Context) LockStencilBuffer(width, height, sampleCount int) (device.StencilBuffer, error) {
	sampleCount = max(sampleCount, 1)
	if sb := c.FindStencilBuffer(width, height, sampleCount); sb != nil {
		return sb, nil
	}
	sb, err := c.dev.CreateStencilBuffer(width, height, sampleCount)
	if err != nil {
		return nil, fmt.Errorf("gr: create stencil %dx%d: %w", width, height, err)
	}
	c.AddAndLockStencilBuffer(sb)
	return sb, nil
}

// UnlockStencilBuffer releases a stencil buffer lock.
func (c *Context) UnlockStencilBuffer(sb device.StencilBuffer) {
	e := c.cache.EntryFor(sb)
	c.assertf(e != nil, "unlock of stencil buffer %d not owned by the cache", sb.ID())
	if e != nil {
		c.cache.Unlock(e)
	}
}

// TextureCacheLimits returns the cache budget.
func (c *Context) TextureCacheLimits() (maxCount int, maxBytes int64) {
	return c.cache.Limits()
}

// SetTextureCacheLimits changes the cache budget. Entries over a lowered
// budget are evicted by the next insertion.
func (c *Context) SetTextureCacheLimits(maxCount int, maxBytes int64) {
	c.cache.SetLimits(maxCount, maxBytes)
}

// TextureCacheBytes returns the bytes charged to the cache.
func (c *Context) TextureCacheBytes() int64 { return c.cache.Bytes() }

// CacheStats returns the cache counters.
func (c *Context) CacheStats() ResourceCacheStats { return c.cache.Stats() }

// MaxTextureSize returns the device texture size limit.
func (c *Context) MaxTextureSize() int { return c.caps.MaxTextureSize }

// MaxRenderTargetSize returns the device render target size limit.
func (c *Context) MaxRenderTargetSize() int { return c.caps.MaxRenderTargetSize }

// IsConfigRenderable reports whether format can back a render target.
func (c *Context) IsConfigRenderable(format gputypes.TextureFormat) bool {
	return c.caps.IsRenderable(format)
}

// SupportsPaletteConfig reports whether a paletted texture of the given
// size and sampling can be uploaded. Tiled NPOT palettes need NPOT tiling
// support since they cannot be stretched.
func (c *Context) SupportsPaletteConfig(params device.TextureParams, width, height int) bool {
	if !c.caps.PaletteSupport {
		return false
	}
	if !params.Tiled || (isPow2(width) && isPow2(height)) {
		return true
	}
	return c.caps.NPOTTextureTileSupport
}
