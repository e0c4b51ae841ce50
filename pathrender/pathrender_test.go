package pathrender

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/device/memdev"
	"github.com/gogpu/gr/drawstate"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/internal/cache"
	"github.com/gogpu/gr/internal/scratch"
	"github.com/gogpu/gr/path"
)

// testHost draws straight to a memdev device.
type testHost struct {
	dev    *memdev.Device
	stack  *drawstate.Stack
	cache  *cache.Cache
	alloc  *scratch.Allocator
	rt     *memdev.RenderTarget
	writes int
}

func newHost(t *testing.T, opts ...memdev.Option) *testHost {
	t.Helper()
	dev := memdev.New(opts...)
	c := cache.New(cache.DefaultMaxCount, cache.DefaultMaxBytes, nil)
	rt, err := dev.NewRenderTarget(16, 16, gputypes.TextureFormatRGBA8Unorm)
	require.NoError(t, err)
	h := &testHost{dev: dev, stack: drawstate.New(), cache: c, alloc: scratch.New(c, dev, 0, nil), rt: rt}
	h.stack.State().RenderTarget = rt
	return h
}

func (h *testHost) Caps() device.Caps             { return h.dev.Caps() }
func (h *testHost) DrawState() *drawstate.Stack   { return h.stack }
func (h *testHost) Draw(c *device.DrawCall) error { return h.dev.Draw(h.stack.State(), c) }

func (h *testHost) LockScratchTexture(desc device.TextureDesc, exact bool) (device.Texture, error) {
	m := scratch.MatchApprox
	if exact {
		m = scratch.MatchExact
	}
	return h.alloc.Lock(desc, m)
}

func (h *testHost) UnlockTexture(tex device.Texture) { h.alloc.Unlock(tex) }

func (h *testHost) WriteTexturePixels(tex device.Texture, r geom.IRect, f gputypes.TextureFormat, src []byte, rb int) error {
	h.writes++
	return h.dev.WriteTexturePixels(tex, r, f, src, rb)
}

func (h *testHost) LockStencilBuffer(w, hgt, samples int) (device.StencilBuffer, error) {
	key := cache.StencilKey(w, hgt, samples)
	if e := h.cache.FindAndLock(key, cache.LockSingle); e != nil {
		return e.Resource().(device.StencilBuffer), nil
	}
	sb, err := h.dev.CreateStencilBuffer(w, hgt, samples)
	if err != nil {
		return nil, err
	}
	if _, err := h.cache.CreateAndLock(key, sb); err != nil {
		return nil, err
	}
	return sb, nil
}

func (h *testHost) UnlockStencilBuffer(sb device.StencilBuffer) {
	h.cache.Unlock(h.cache.EntryFor(sb))
}

func (h *testHost) covered() int {
	n := 0
	for y := 0; y < h.rt.Height(); y++ {
		for x := 0; x < h.rt.Width(); x++ {
			if h.rt.Pixel(x, y)[3] == 255 {
				n++
			}
		}
	}
	return n
}

func concave() *path.Path {
	p := path.New()
	p.MoveTo(0, 0)
	p.LineTo(8, 0)
	p.LineTo(4, 4)
	p.LineTo(8, 8)
	p.LineTo(0, 8)
	p.Close()
	return p
}

func overlapping() *path.Path {
	p := path.NewRect(geom.XYWH(0, 0, 4, 4))
	q := path.NewRect(geom.XYWH(2, 2, 4, 4))
	p.MoveTo(q.Points()[0].X, q.Points()[0].Y)
	for _, pt := range q.Points()[1:] {
		p.LineTo(pt.X, pt.Y)
	}
	p.Close()
	return p
}

func TestChainOrder(t *testing.T) {
	c := NewChain(memdev.DefaultCaps())
	var names []string
	for _, r := range c.Renderers() {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"convex", "hairline", "stencil", "software"}, names)

	noStencil := memdev.DefaultCaps()
	noStencil.StencilSupport = false
	assert.Len(t, NewChain(noStencil).Renderers(), 3)
}

func TestChainSelect(t *testing.T) {
	c := NewChain(memdev.DefaultCaps())
	square := path.NewRect(geom.XYWH(0, 0, 4, 4))

	tests := []struct {
		name    string
		p       *path.Path
		fill    path.FillRule
		aa      bool
		allowSW bool
		want    string
	}{
		{"convex", square, path.NonZero, false, true, "convex"},
		{"convex aa", square, path.NonZero, true, true, "convex"},
		{"concave", concave(), path.NonZero, false, true, "stencil"},
		{"concave aa", concave(), path.NonZero, true, true, "software"},
		{"inverse", square, path.InverseNonZero, false, true, "stencil"},
		{"hairline", square, path.Hairline, false, true, "hairline"},
		{"aa hairline without hw lines", square, path.Hairline, true, true, "software"},
		{"skip without software", concave(), path.EvenOdd, true, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for range 3 {
				r := c.Select(tt.p, tt.fill, tt.aa, tt.allowSW)
				if tt.want == "" {
					assert.Nil(t, r)
					continue
				}
				require.NotNil(t, r)
				assert.Equal(t, tt.want, r.Name())
			}
		})
	}
}

type namedRenderer struct {
	SoftwareRenderer
	name string
}

func (r *namedRenderer) Name() string { return r.name }
func (r *namedRenderer) Kind() Kind   { return KindSpecialized }

func TestRegistry(t *testing.T) {
	Register("late", 20, func(device.Caps) Renderer { return &namedRenderer{name: "late"} })
	Register("early", 10, func(device.Caps) Renderer { return &namedRenderer{name: "early"} })
	Register("absent", 0, func(device.Caps) Renderer { return nil })
	t.Cleanup(func() {
		Unregister("late")
		Unregister("early")
		Unregister("absent")
	})

	assert.Equal(t, []string{"absent", "early", "late"}, Registered())

	var names []string
	for _, r := range NewChain(memdev.DefaultCaps(), &namedRenderer{name: "extra"}).Renderers() {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"convex", "hairline", "stencil", "early", "late", "extra", "software"}, names)
}

func TestConvexRendererFills(t *testing.T) {
	h := newHost(t)
	r := NewConvexRenderer(h.Caps())
	require.NoError(t, r.DrawPath(h, path.NewRect(geom.XYWH(0, 0, 8, 8)), path.NonZero, geom.Pt(4, 4), false))
	assert.Equal(t, 64, h.covered())
	assert.Equal(t, [4]uint8{255, 255, 255, 255}, h.rt.Pixel(4, 4))
	assert.Zero(t, h.rt.Pixel(3, 3)[3])
}

func TestConvexRendererAntialias(t *testing.T) {
	h := newHost(t)
	h.stack.State().ViewMatrix = geom.Translate(0.5, 0.5)
	r := NewConvexRenderer(h.Caps())
	require.NoError(t, r.DrawPath(h, path.NewRect(geom.XYWH(4, 4, 7, 7)), path.NonZero, geom.Point{}, true))

	assert.True(t, h.stack.State().ViewMatrix == geom.Translate(0.5, 0.5), "view matrix restored")
	assert.Equal(t, uint8(255), h.rt.Pixel(8, 8)[3])
	edge := h.rt.Pixel(4, 8)[3]
	assert.InDelta(t, 128, int(edge), 3)
	assert.Zero(t, h.rt.Pixel(2, 8)[3])
}

func TestStencilRendererEvenOdd(t *testing.T) {
	h := newHost(t)
	r := NewStencilRenderer(h.Caps())
	require.NoError(t, r.DrawPath(h, overlapping(), path.EvenOdd, geom.Point{}, false))
	assert.Equal(t, 24, h.covered())
	assert.Zero(t, h.cache.Stats().Locked, "stencil buffer unlocked after draw")
	assert.Equal(t, device.StencilOff, h.stack.State().Stencil.Pass)

	h2 := newHost(t)
	require.NoError(t, r.DrawPath(h2, overlapping(), path.NonZero, geom.Point{}, false))
	assert.Equal(t, 28, h2.covered())
}

func TestStencilRendererInverse(t *testing.T) {
	h := newHost(t)
	r := NewStencilRenderer(h.Caps())
	require.NoError(t, r.DrawPath(h, path.NewRect(geom.XYWH(0, 0, 8, 8)), path.InverseNonZero, geom.Point{}, false))
	assert.Equal(t, 256-64, h.covered())
	assert.Zero(t, h.rt.Pixel(0, 0)[3])
}

func TestSoftwareRenderer(t *testing.T) {
	tests := []struct {
		name string
		p    *path.Path
		fill path.FillRule
		aa   bool
		want int
	}{
		{"aa nonzero", path.NewRect(geom.XYWH(2, 2, 8, 8)), path.NonZero, true, 64},
		{"aliased evenodd", overlapping(), path.EvenOdd, false, 24},
		{"aliased nonzero", overlapping(), path.NonZero, false, 28},
		{"inverse", path.NewRect(geom.XYWH(0, 0, 8, 8)), path.InverseEvenOdd, false, 256 - 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHost(t)
			r := NewSoftwareRenderer()
			require.NoError(t, r.DrawPath(h, tt.p, tt.fill, geom.Point{}, tt.aa))
			assert.Equal(t, tt.want, h.covered())
			assert.Equal(t, 1, h.writes)
			assert.Zero(t, h.cache.Stats().Locked, "mask texture unlocked")
			assert.False(t, h.stack.State().StagesEnabled(), "stages restored")
		})
	}
}

func TestSoftwareHairline(t *testing.T) {
	h := newHost(t)
	p := path.New()
	p.MoveTo(2.5, 5.5)
	p.LineTo(12.5, 5.5)
	require.NoError(t, NewSoftwareRenderer().DrawPath(h, p, path.Hairline, geom.Point{}, true))
	assert.Equal(t, 11, h.covered())
}

func TestHairlineRenderer(t *testing.T) {
	h := newHost(t)
	p := path.New()
	p.MoveTo(2.5, 5.5)
	p.LineTo(12.5, 5.5)
	require.NoError(t, NewHairlineRenderer(h.Caps()).DrawPath(h, p, path.Hairline, geom.Point{}, false))
	assert.Equal(t, 11, h.covered())
}

func TestRasterizeMaskOffset(t *testing.T) {
	cs := path.NewRect(geom.XYWH(10, 10, 2, 2)).Contours(path.DefaultTolerance)
	m := RasterizeMask(cs, geom.IXYWH(10, 10, 4, 4), path.NonZero, false)
	assert.Equal(t, uint8(255), m.AlphaAt(0, 0).A)
	assert.Equal(t, uint8(255), m.AlphaAt(1, 1).A)
	assert.Zero(t, m.AlphaAt(2, 2).A)
}
