package gr

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/drawstate"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/internal/cache"
	"github.com/gogpu/gr/internal/drawbuffer"
	"github.com/gogpu/gr/internal/scratch"
	"github.com/gogpu/gr/internal/shaders"
	"github.com/gogpu/gr/path"
	"github.com/gogpu/gr/pathrender"
)

// instanceCount tracks live contexts for diagnostics.
var instanceCount atomic.Int64

// InstanceCount returns the number of contexts created and not yet closed
// in this process.
func InstanceCount() int64 {
	return instanceCount.Load()
}

// paintFields are the draw state fields a Paint sets.
const paintFields = drawstate.FieldSamplers | drawstate.FieldBlend | drawstate.FieldColor |
	drawstate.FieldFlags | drawstate.FieldColorFilter

// Context issues draws and manages GPU resources for one device.
//
// A Context is not safe for concurrent use.
type Context struct {
	dev    device.Device
	caps   device.Caps
	opts   contextOptions
	logger *slog.Logger

	cache   *cache.Cache
	scratch *scratch.Allocator
	state   *drawstate.Stack
	chain   *pathrender.Chain

	// drawBuffer is nil while it replays, so draws and flushes issued
	// during replay go to the device.
	drawBuffer       *drawbuffer.Buffer
	flushing         bool
	lastDrawBuffered bool
	drawBuffered     bool

	deviceClip      device.Clip
	deviceClipValid bool

	closed bool
}

// NewContext creates a context drawing through dev.
func NewContext(dev device.Device, opts ...ContextOption) (*Context, error) {
	if dev == nil {
		return nil, errors.New("gr: nil device")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	logger := Logger()
	c := &Context{
		dev:    dev,
		caps:   dev.Caps(),
		opts:   o,
		logger: logger,
		state:  drawstate.New(),
	}
	c.cache = cache.New(o.maxCount, o.maxBytes, logger)
	c.scratch = scratch.New(c.cache, dev, o.scratchMinSize, logger)
	c.cache.SetEvictionHook(c.flushBeforeEviction)

	if o.loadShaders {
		if err := c.loadPrograms(); err != nil {
			return nil, err
		}
	}
	if o.buffering {
		c.setupDrawBuffer()
	}

	instanceCount.Add(1)
	attrs := []any{
		"buffering", o.buffering,
		"maxTextures", o.maxCount,
		"maxTextureBytes", o.maxBytes,
	}
	if p, ok := dev.(gpucontext.DeviceProvider); ok {
		info := p.AdapterInfo()
		attrs = append(attrs, "adapter", info.Name, "adapterType", info.Type.String())
	}
	logger.Info("gr: context created", attrs...)
	return c, nil
}

func (c *Context) loadPrograms() error {
	loader, ok := c.dev.(device.ProgramLoader)
	if !ok {
		c.logger.Warn("gr: device does not load programs")
		return nil
	}
	if err := shaders.LoadAll(loader); err != nil {
		return fmt.Errorf("gr: load programs: %w", err)
	}
	return nil
}

func (c *Context) setupDrawBuffer() {
	c.drawBuffer = drawbuffer.New(c.logger)
}

// Close flushes pending draws and releases every cached resource. It is
// safe to call more than once.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	err := c.Flush(0)

	// The device may hold scratch textures; let it drop them first.
	c.dev.PurgeResources()
	c.cache.RemoveAll()
	c.chain = nil
	c.drawBuffer = nil
	c.closed = true
	instanceCount.Add(-1)
	return err
}

// Device returns the device the context draws through.
func (c *Context) Device() device.Device { return c.dev }

// Caps returns the device capabilities.
func (c *Context) Caps() device.Caps { return c.caps }

// ContextLost abandons every device resource and prepares the context for
// a recreated device.
func (c *Context) ContextLost() {
	c.ContextDestroyed()
	c.setupDrawBuffer()
}

// ContextDestroyed abandons every device resource without freeing it
// through the device. Buffered draws are discarded. Locked resources stay
// with their holders but are no longer found by key.
func (c *Context) ContextDestroyed() {
	// Abandon first so releases below do not reach the device.
	c.dev.AbandonResources()

	// Path renderers may hold resources that are now unusable.
	c.chain = nil

	c.drawBuffer = nil
	c.lastDrawBuffered = false

	c.cache.RemoveAll()
	c.dev.MarkContextDirty()
	c.deviceClipValid = false
	c.logger.Info("gr: context lost", "cache", c.cache.Stats().String())
}

// ResetContext tells the device that its state was changed behind the
// context's back.
func (c *Context) ResetContext() {
	c.dev.MarkContextDirty()
	c.deviceClipValid = false
}

// FreeGPUResources flushes, then releases every unlocked cached resource.
func (c *Context) FreeGPUResources() error {
	err := c.Flush(0)
	c.dev.PurgeResources()
	c.cache.RemoveAll()
	c.chain = nil
	return err
}

// SetRenderTarget binds rt for subsequent draws.
func (c *Context) SetRenderTarget(rt device.RenderTarget) {
	c.state.State().RenderTarget = rt
}

// RenderTarget returns the bound render target.
func (c *Context) RenderTarget() device.RenderTarget {
	return c.state.State().RenderTarget
}

// SetMatrix replaces the view matrix.
func (c *Context) SetMatrix(m geom.Matrix) {
	c.state.State().ViewMatrix = m
}

// Matrix returns the view matrix.
func (c *Context) Matrix() geom.Matrix {
	return c.state.State().ViewMatrix
}

// ConcatMatrix applies m before the current view matrix.
func (c *Context) ConcatMatrix(m geom.Matrix) {
	st := c.state.State()
	st.ViewMatrix = st.ViewMatrix.PreConcat(m)
}

// SetClip replaces the clip. A disabled clip turns clipping off.
func (c *Context) SetClip(clip device.Clip) {
	st := c.state.State()
	st.Clip = clip
	if clip.Enabled {
		st.Flags |= device.StateClip
	} else {
		st.Flags &^= device.StateClip
	}
}

// Clip returns the current clip.
func (c *Context) Clip() device.Clip {
	return c.state.State().Clip
}

// AutoMatrix replaces the view matrix until the guard is restored.
//
//	defer ctx.AutoMatrix(geom.Identity()).Restore()
func (c *Context) AutoMatrix(m geom.Matrix) *drawstate.Guard {
	return c.state.SaveMatrix(m)
}

// AutoClip clips to r, rounded out, until the guard is restored.
func (c *Context) AutoClip(r geom.Rect) *drawstate.Guard {
	return c.state.SaveClip(device.Clip{Rect: r.RoundOut(), Enabled: true})
}

// AutoRenderTarget binds rt until the guard is restored.
func (c *Context) AutoRenderTarget(rt device.RenderTarget) *drawstate.Guard {
	return c.state.SaveRenderTarget(rt)
}

// SetDrawBuffering switches buffered drawing on or off. The next draw
// after switching it off flushes what was buffered.
func (c *Context) SetDrawBuffering(enabled bool) {
	c.opts.buffering = enabled
}

// Flush sends buffered draws to the device, or drops them with
// FlushDiscard.
func (c *Context) Flush(flags FlushFlags) error {
	var err error
	if flags&FlushDiscard != 0 {
		if c.drawBuffer != nil {
			c.drawBuffer.Reset()
		}
	} else {
		err = c.flushDrawBuffer()
	}
	if flags&FlushForceCurrentRenderTarget != 0 {
		if rt := c.state.State().RenderTarget; rt != nil {
			err = errors.Join(err, c.dev.FlushRenderTarget(rt))
		}
	}
	return err
}

// flushDrawBuffer replays the buffer with the buffer detached from the
// context. A software path renderer reached during replay may upload a
// mask, which flushes; that flush finds no buffer and returns.
func (c *Context) flushDrawBuffer() error {
	buf := c.drawBuffer
	if buf == nil {
		return nil
	}
	c.drawBuffer = nil
	c.flushing = true
	err := buf.FlushTo(c.dev)
	c.flushing = false
	c.drawBuffer = buf
	c.deviceClipValid = false
	if err != nil {
		c.logger.Warn("gr: flush failed", "err", err)
	}
	return err
}

// flushBeforeEviction submits buffered draws before the cache releases
// unlocked resources they may still sample. Failures are logged by
// flushDrawBuffer.
func (c *Context) flushBeforeEviction() {
	if c.drawBuffer == nil || c.drawBuffer.Len() == 0 {
		return
	}
	c.logger.Debug("gr: flush before eviction", "commands", c.drawBuffer.Len())
	_ = c.flushDrawBuffer()
}

// prepareToDraw routes the next draw to the buffer or the device and
// applies p to the draw state. The guard, nil when p is nil, restores the
// fields p changed.
func (c *Context) prepareToDraw(p *Paint) (*drawstate.Guard, error) {
	if c.closed {
		return nil, ErrContextClosed
	}
	buffered := c.opts.buffering
	if !buffered && c.lastDrawBuffered {
		c.lastDrawBuffered = false
		if err := c.flushDrawBuffer(); err != nil {
			return nil, err
		}
	}

	var g *drawstate.Guard
	if p != nil {
		g = c.state.Save(paintFields)
		p.apply(c.state.State())
	}

	if buffered {
		if c.drawBuffer == nil && !c.flushing {
			c.setupDrawBuffer()
		}
		if c.drawBuffer != nil {
			c.drawBuffer.SetClip(c.state.State().Clip)
		}
		c.lastDrawBuffered = true
	}
	c.drawBuffered = buffered
	return g, nil
}

// draw submits call with the live state to the target chosen by the last
// prepareToDraw.
func (c *Context) draw(call *device.DrawCall) error {
	st := c.state.State()
	if st.RenderTarget == nil {
		return ErrNoRenderTarget
	}
	if c.drawBuffered && c.drawBuffer != nil {
		c.drawBuffer.Draw(st, call)
		return nil
	}
	if err := c.syncClip(); err != nil {
		return err
	}
	return c.dev.Draw(st, call)
}

// syncClip sends the state clip to the device when it may differ.
func (c *Context) syncClip() error {
	clip := c.state.State().Clip
	if c.deviceClipValid && c.deviceClip == clip {
		return nil
	}
	if err := c.dev.SetClip(clip); err != nil {
		return err
	}
	c.deviceClip, c.deviceClipValid = clip, true
	return nil
}

// Clear fills rect of rt with color, ignoring the clip. A nil rect clears
// the whole target; a nil rt clears the bound render target.
func (c *Context) Clear(rect *geom.IRect, color gputypes.Color, rt device.RenderTarget) error {
	if _, err := c.prepareToDraw(nil); err != nil {
		return err
	}
	if rt == nil {
		if rt = c.state.State().RenderTarget; rt == nil {
			return ErrNoRenderTarget
		}
	}
	r := geom.IXYWH(0, 0, rt.Width(), rt.Height())
	if rect != nil {
		r = *rect
	}
	if c.drawBuffered && c.drawBuffer != nil {
		c.drawBuffer.Clear(rt, r, color)
		return nil
	}
	return c.dev.Clear(rt, r, color)
}

// isMultisampled reports whether the bound render target has more than one
// sample per pixel.
func (c *Context) isMultisampled() bool {
	rt := c.state.State().RenderTarget
	return rt != nil && rt.SampleCount() > 1
}

// pathRenderer returns the first renderer able to draw p, building the
// chain on first use.
func (c *Context) pathRenderer(p *path.Path, fill path.FillRule, aa, allowSoftware bool) pathrender.Renderer {
	if c.chain == nil {
		c.chain = pathrender.NewChain(c.caps, c.opts.pathRenderers...)
	}
	return c.chain.Select(p, fill, aa, allowSoftware)
}

// preferredReadFormat returns the 8888 layout the device reads fastest for
// format. Devices that expose a surface report its format.
func (c *Context) preferredReadFormat(format gputypes.TextureFormat) gputypes.TextureFormat {
	if c.caps.ReadFormat != gputypes.TextureFormatUndefined {
		return c.caps.PreferredReadFormat(format)
	}
	if p, ok := c.dev.(gpucontext.DeviceProvider); ok && device.Is8888(format) {
		if sf := p.SurfaceFormat(); device.Is8888(sf) {
			return sf
		}
	}
	return format
}

// pathHost adapts the context to the interface path renderers draw
// through.
type pathHost struct {
	c *Context
}

var _ pathrender.Host = pathHost{}

func (h pathHost) Caps() device.Caps                           { return h.c.caps }
func (h pathHost) DrawState() *drawstate.Stack                 { return h.c.state }
func (h pathHost) Draw(call *device.DrawCall) error            { return h.c.draw(call) }
func (h pathHost) UnlockTexture(tex device.Texture)            { h.c.UnlockTexture(tex) }
func (h pathHost) UnlockStencilBuffer(sb device.StencilBuffer) { h.c.UnlockStencilBuffer(sb) }

func (h pathHost) LockScratchTexture(desc device.TextureDesc, exact bool) (device.Texture, error) {
	match := MatchApprox
	if exact {
		match = MatchExact
	}
	return h.c.LockScratchTexture(desc, match)
}

func (h pathHost) WriteTexturePixels(tex device.Texture, rect geom.IRect, format gputypes.TextureFormat, src []byte, rowBytes int) error {
	return h.c.WriteTexturePixels(tex, rect, format, src, rowBytes, 0)
}

func (h pathHost) LockStencilBuffer(width, height, sampleCount int) (device.StencilBuffer, error) {
	return h.c.LockStencilBuffer(width, height, sampleCount)
}

// assertOwned checks that the cache tracks res.
func (c *Context) assertOwned(res device.Resource) {
	if !debugAsserts || res == nil {
		return
	}
	c.assertf(c.cache.EntryFor(res) != nil, "resource %d is not owned by the cache", res.ID())
}
