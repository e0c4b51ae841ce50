// Package memdev is an in-memory implementation of device.Device.
//
// It rasterizes triangles and lines on the CPU with a single sample per
// pixel, supports texture stages, stencil passes, blending and 1D image
// effects, and records every submission so tests can assert on the command
// stream a rendering context produced.
package memdev

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// SubmissionKind identifies a recorded device operation.
type SubmissionKind uint8

const (
	SubmitDraw SubmissionKind = iota
	SubmitClear
	SubmitSetClip
	SubmitRead
	SubmitWrite
)

var submissionNames = [...]string{
	SubmitDraw:    "Draw",
	SubmitClear:   "Clear",
	SubmitSetClip: "SetClip",
	SubmitRead:    "Read",
	SubmitWrite:   "Write",
}

// String returns the kind name.
func (k SubmissionKind) String() string {
	if int(k) < len(submissionNames) {
		return submissionNames[k]
	}
	return fmt.Sprintf("SubmissionKind(%d)", k)
}

// Submission is one recorded device operation.
type Submission struct {
	Kind      SubmissionKind
	Target    uint64
	Primitive device.Primitive
	Vertices  int
	Clip      device.Clip
}

// Option configures a Device.
type Option func(*Device)

// WithCaps adjusts the default capabilities.
func WithCaps(fn func(*device.Caps)) Option {
	return func(d *Device) { fn(&d.caps) }
}

// WithSurfaceFormat sets the format reported by SurfaceFormat.
func WithSurfaceFormat(f gputypes.TextureFormat) Option {
	return func(d *Device) { d.surfaceFormat = f }
}

// WithMemoryLimit caps the bytes of live resources. Zero means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(d *Device) { d.memoryLimit = bytes }
}

// Device is the in-memory device. It is not safe for concurrent use.
type Device struct {
	caps          device.Caps
	surfaceFormat gputypes.TextureFormat
	memoryLimit   int64

	clip      device.Clip
	live      map[uint64]device.Resource
	liveBytes int64
	abandoned bool
	dirty     int
	purges    int
	allocs    int
	failNext  error

	submissions []Submission
	programs    map[string][]uint32
}

var (
	_ device.Device             = (*Device)(nil)
	_ device.ProgramLoader      = (*Device)(nil)
	_ gpucontext.DeviceProvider = (*Device)(nil)
)

// DefaultCaps returns the capabilities of a new Device.
func DefaultCaps() device.Caps {
	return device.Caps{
		MaxTextureSize:         4096,
		MaxRenderTargetSize:    4096,
		NPOTTextureTileSupport: true,
		StencilSupport:         true,
		MSAA:                   true,
		CoverageAA:             true,
		RenderableFormats: []gputypes.TextureFormat{
			gputypes.TextureFormatRGBA8Unorm,
			gputypes.TextureFormatBGRA8Unorm,
		},
	}
}

// New creates a Device.
func New(opts ...Option) *Device {
	d := &Device{
		caps:          DefaultCaps(),
		surfaceFormat: gputypes.TextureFormatRGBA8Unorm,
		live:          make(map[uint64]device.Resource),
		programs:      make(map[string][]uint32),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Caps returns the device capabilities.
func (d *Device) Caps() device.Caps { return d.caps }

// Device returns nil; there is no native device behind memdev.
func (d *Device) Device() gpucontext.Device { return nil }

// Queue returns nil.
func (d *Device) Queue() gpucontext.Queue { return nil }

// Adapter returns nil.
func (d *Device) Adapter() gpucontext.Adapter { return nil }

// AdapterInfo reports a software adapter.
func (d *Device) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "memdev", Type: gpucontext.AdapterTypeSoftware}
}

// SurfaceFormat returns the configured surface format.
func (d *Device) SurfaceFormat() gputypes.TextureFormat { return d.surfaceFormat }

// FailNextAllocation makes the next texture or stencil allocation fail
// with err.
func (d *Device) FailNextAllocation(err error) { d.failNext = err }

// Allocations returns the number of successful allocations.
func (d *Device) Allocations() int { return d.allocs }

// LiveResources returns the number of allocated, unreleased resources.
func (d *Device) LiveResources() int { return len(d.live) }

// LiveBytes returns the bytes held by unreleased resources.
func (d *Device) LiveBytes() int64 { return d.liveBytes }

// Submissions returns the recorded operations.
func (d *Device) Submissions() []Submission { return d.submissions }

// ResetSubmissions clears the recorded operations.
func (d *Device) ResetSubmissions() { d.submissions = d.submissions[:0] }

// DirtyCount returns how many times MarkContextDirty was called.
func (d *Device) DirtyCount() int { return d.dirty }

// Purges returns how many times PurgeResources was called.
func (d *Device) Purges() int { return d.purges }

// Program returns a loaded program by label.
func (d *Device) Program(label string) ([]uint32, bool) {
	p, ok := d.programs[label]
	return p, ok
}

// LoadProgram stores a compiled program.
func (d *Device) LoadProgram(label string, spirv []uint32) error {
	if d.abandoned {
		return device.ErrDeviceLost
	}
	if len(spirv) == 0 {
		return fmt.Errorf("%w: empty program %q", device.ErrUnsupported, label)
	}
	d.programs[label] = spirv
	return nil
}

// Restore brings an abandoned device back, as a driver does after the
// application recreated its context.
func (d *Device) Restore() { d.abandoned = false }

func (d *Device) track(res device.Resource) {
	d.live[res.ID()] = res
	d.liveBytes += res.SizeBytes()
	d.allocs++
}

func (d *Device) untrack(id uint64, size int64) {
	if _, ok := d.live[id]; !ok {
		return
	}
	delete(d.live, id)
	d.liveBytes -= size
}

func (d *Device) checkAlloc(size int64) error {
	if d.abandoned {
		return device.ErrDeviceLost
	}
	if err := d.failNext; err != nil {
		d.failNext = nil
		return err
	}
	if d.memoryLimit > 0 && d.liveBytes+size > d.memoryLimit {
		return fmt.Errorf("%w: %d bytes requested, %d of %d in use",
			device.ErrOutOfMemory, size, d.liveBytes, d.memoryLimit)
	}
	return nil
}

// CreateTexture allocates a texture, optionally initialized from data.
func (d *Device) CreateTexture(desc device.TextureDesc, data []byte, rowBytes int) (device.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: texture size %dx%d", device.ErrUnsupported, desc.Width, desc.Height)
	}
	if desc.Width > d.caps.MaxTextureSize || desc.Height > d.caps.MaxTextureSize {
		return nil, fmt.Errorf("%w: texture %dx%d exceeds %d", device.ErrOutOfMemory, desc.Width, desc.Height, d.caps.MaxTextureSize)
	}
	bpp := device.BytesPerPixel(desc.Format)
	if bpp == 0 {
		return nil, fmt.Errorf("%w: format %s", device.ErrUnsupported, device.FormatName(desc.Format))
	}
	isRT := desc.Flags.Has(device.FlagRenderTarget)
	if isRT && !d.caps.IsRenderable(desc.Format) {
		return nil, fmt.Errorf("%w: format %s is not renderable", device.ErrUnsupported, device.FormatName(desc.Format))
	}
	if desc.SampleCount < 1 {
		desc.SampleCount = 1
	}
	size := int64(desc.Width) * int64(desc.Height) * int64(bpp) * int64(desc.SampleCount)
	if err := d.checkAlloc(size); err != nil {
		return nil, err
	}

	t := &Texture{
		base: base{dev: d, id: newID(), size: size},
		desc: desc,
		pix:  make([]byte, desc.Width*desc.Height*4),
	}
	if isRT {
		t.rt = &RenderTarget{
			base:    base{dev: d, id: newID()},
			width:   desc.Width,
			height:  desc.Height,
			format:  desc.Format,
			samples: desc.SampleCount,
			tex:     t,
		}
	}
	d.track(t)
	if data != nil {
		if err := storePixels(t.pix, desc.Width, geom.IXYWH(0, 0, desc.Width, desc.Height), desc.Format, data, rowBytes); err != nil {
			t.Release()
			return nil, err
		}
	}
	return t, nil
}

// NewRenderTarget creates a target without a sampleable texture, like a
// window surface.
func (d *Device) NewRenderTarget(width, height int, format gputypes.TextureFormat) (*RenderTarget, error) {
	if !device.Is8888(format) {
		return nil, fmt.Errorf("%w: format %s", device.ErrUnsupported, device.FormatName(format))
	}
	size := int64(width) * int64(height) * 4
	if err := d.checkAlloc(size); err != nil {
		return nil, err
	}
	rt := &RenderTarget{
		base:    base{dev: d, id: newID(), size: size},
		width:   width,
		height:  height,
		format:  format,
		samples: 1,
		pix:     make([]byte, width*height*4),
	}
	d.track(rt)
	return rt, nil
}

// CreateStencilBuffer allocates a stencil plane.
func (d *Device) CreateStencilBuffer(width, height, sampleCount int) (device.StencilBuffer, error) {
	if !d.caps.StencilSupport {
		return nil, fmt.Errorf("%w: stencil buffers", device.ErrUnsupported)
	}
	if sampleCount < 1 {
		sampleCount = 1
	}
	size := int64(width) * int64(height) * int64(sampleCount)
	if err := d.checkAlloc(size); err != nil {
		return nil, err
	}
	sb := &StencilBuffer{
		base:    base{dev: d, id: newID(), size: size},
		width:   width,
		height:  height,
		samples: sampleCount,
		bits:    make([]uint8, width*height),
	}
	d.track(sb)
	return sb, nil
}

// SetClip sets the clip applied to draws carrying StateClip.
func (d *Device) SetClip(clip device.Clip) error {
	if d.abandoned {
		return device.ErrDeviceLost
	}
	d.clip = clip
	d.submissions = append(d.submissions, Submission{Kind: SubmitSetClip, Clip: clip})
	return nil
}

// CurrentClip returns the clip set by the last SetClip.
func (d *Device) CurrentClip() device.Clip { return d.clip }

// Clear fills rect of rt with color.
func (d *Device) Clear(rt device.RenderTarget, rect geom.IRect, color gputypes.Color) error {
	target, err := d.target(rt)
	if err != nil {
		return err
	}
	r, ok := rect.Intersect(geom.IXYWH(0, 0, target.width, target.height))
	d.submissions = append(d.submissions, Submission{Kind: SubmitClear, Target: target.id})
	if !ok {
		return nil
	}
	px := quantize(rgba{color.R, color.G, color.B, color.A})
	pix := target.pixels()
	for y := r.Top; y < r.Bottom; y++ {
		for x := r.Left; x < r.Right; x++ {
			copy(pix[(y*target.width+x)*4:], px[:])
		}
	}
	return nil
}

// ReadPixels copies rect of rt into dst.
func (d *Device) ReadPixels(rt device.RenderTarget, rect geom.IRect, format gputypes.TextureFormat, dst []byte, rowBytes int, invertY bool) error {
	target, err := d.target(rt)
	if err != nil {
		return err
	}
	if !geom.IXYWH(0, 0, target.width, target.height).Contains(rect) || rect.IsEmpty() {
		return fmt.Errorf("%w: read rect %v outside %dx%d", device.ErrUnsupported, rect, target.width, target.height)
	}
	d.submissions = append(d.submissions, Submission{Kind: SubmitRead, Target: target.id})
	return loadPixels(dst, rowBytes, format, target.pixels(), target.width, rect, invertY)
}

// WriteTexturePixels copies src into rect of tex.
func (d *Device) WriteTexturePixels(tex device.Texture, rect geom.IRect, format gputypes.TextureFormat, src []byte, rowBytes int) error {
	if d.abandoned {
		return device.ErrDeviceLost
	}
	t, ok := tex.(*Texture)
	if !ok || !t.IsValid() {
		return device.ErrInvalidResource
	}
	if !geom.IXYWH(0, 0, t.desc.Width, t.desc.Height).Contains(rect) || rect.IsEmpty() {
		return fmt.Errorf("%w: write rect %v outside %dx%d", device.ErrUnsupported, rect, t.desc.Width, t.desc.Height)
	}
	d.submissions = append(d.submissions, Submission{Kind: SubmitWrite, Target: t.id})
	return storePixels(t.pix, t.desc.Width, rect, format, src, rowBytes)
}

// ResolveRenderTarget counts the resolve; samples are already resolved.
func (d *Device) ResolveRenderTarget(rt device.RenderTarget) error {
	target, err := d.target(rt)
	if err != nil {
		return err
	}
	target.resolves++
	return nil
}

// FlushRenderTarget is a no-op; work completes synchronously.
func (d *Device) FlushRenderTarget(rt device.RenderTarget) error {
	_, err := d.target(rt)
	return err
}

// PurgeResources counts the purge.
func (d *Device) PurgeResources() { d.purges++ }

// AbandonResources marks every live resource abandoned and rejects further
// work until Restore.
func (d *Device) AbandonResources() {
	d.abandoned = true
	for _, res := range d.live {
		res.Abandon()
	}
	d.live = make(map[uint64]device.Resource)
	d.liveBytes = 0
}

// MarkContextDirty counts the call and resets the clip.
func (d *Device) MarkContextDirty() {
	d.dirty++
	d.clip = device.NoClip
}

func (d *Device) target(rt device.RenderTarget) (*RenderTarget, error) {
	if d.abandoned {
		return nil, device.ErrDeviceLost
	}
	target, ok := rt.(*RenderTarget)
	if !ok || target == nil || !target.IsValid() {
		return nil, device.ErrInvalidResource
	}
	return target, nil
}
