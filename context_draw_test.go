package gr

import (
	"bytes"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/device/memdev"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/path"
)

func aaPaint() *Paint {
	p := NewPaint(white)
	p.Antialias = true
	return p
}

func lastDraw(t *testing.T, dev *memdev.Device) memdev.Submission {
	t.Helper()
	subs := dev.Submissions()
	for i := len(subs) - 1; i >= 0; i-- {
		if subs[i].Kind == memdev.SubmitDraw {
			return subs[i]
		}
	}
	t.Fatal("no draw submitted")
	return memdev.Submission{}
}

func TestAARectEdgeCoverage(t *testing.T) {
	dev := memdev.New()
	ctx := newTestContext(t, dev)
	tex := newTarget(t, ctx, 32, 32)
	ctx.SetRenderTarget(tex.RenderTarget())

	require.NoError(t, ctx.DrawRect(aaPaint(), geom.XYWH(10.5, 10.5, 5, 5), -1, nil))
	require.NoError(t, ctx.Flush(0))

	assert.Equal(t, device.PrimitiveTriangles, lastDraw(t, dev).Primitive)
	assert.InDelta(t, 128, int(pixelAt(tex, 10, 12)[3]), 1, "half covered edge")
	assert.Equal(t, uint8(255), pixelAt(tex, 12, 12)[3])
	assert.Equal(t, uint8(0), pixelAt(tex, 9, 12)[3])
	assert.InDelta(t, 128, int(pixelAt(tex, 15, 12)[3]), 1)
}

func TestAARectFallsBackToPlainFill(t *testing.T) {
	tests := []struct {
		name  string
		opts  []memdev.Option
		rect  geom.Rect
		setup func(*Context)
	}{
		{name: "integral", rect: geom.XYWH(2, 2, 4, 4)},
		{
			name: "no coverage aa",
			opts: []memdev.Option{memdev.WithCaps(func(c *device.Caps) { c.CoverageAA = false })},
			rect: geom.XYWH(2.5, 2.5, 4, 4),
		},
		{
			name:  "rotated",
			rect:  geom.XYWH(2.5, 2.5, 4, 4),
			setup: func(c *Context) { c.SetMatrix(geom.Matrix{A: 0.8, B: -0.6, D: 0.6, E: 0.8}) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := memdev.New(tt.opts...)
			ctx := newTestContext(t, dev, WithDrawBuffering(false))
			ctx.SetRenderTarget(newTarget(t, ctx, 16, 16).RenderTarget())
			if tt.setup != nil {
				tt.setup(ctx)
			}
			require.NoError(t, ctx.DrawRect(aaPaint(), tt.rect, -1, nil))
			assert.Equal(t, device.PrimitiveTriangleFan, lastDraw(t, dev).Primitive)
		})
	}
}

func TestAARectOnMultisampledTarget(t *testing.T) {
	dev := memdev.New()
	ctx := newTestContext(t, dev, WithDrawBuffering(false))
	tex, err := ctx.CreateUncachedTexture(device.TextureDesc{
		Flags:       device.FlagRenderTarget,
		Width:       16,
		Height:      16,
		Format:      gputypes.TextureFormatRGBA8Unorm,
		SampleCount: 4,
	}, nil, 0)
	require.NoError(t, err)
	ctx.SetRenderTarget(tex.RenderTarget())

	require.NoError(t, ctx.DrawRect(aaPaint(), geom.XYWH(2.5, 2.5, 4, 4), -1, nil))
	assert.Equal(t, device.PrimitiveTriangleFan, lastDraw(t, dev).Primitive)
}

func TestAAStrokeRect(t *testing.T) {
	dev := memdev.New()
	ctx := newTestContext(t, dev)
	tex := newTarget(t, ctx, 32, 32)
	ctx.SetRenderTarget(tex.RenderTarget())

	require.NoError(t, ctx.DrawRect(aaPaint(), geom.XYWH(8, 8, 16, 16), 4, nil))
	require.NoError(t, ctx.Flush(0))

	assert.Equal(t, uint8(255), pixelAt(tex, 8, 16)[3], "on the stroke")
	assert.Equal(t, uint8(0), pixelAt(tex, 16, 16)[3], "interior")
	assert.Equal(t, uint8(0), pixelAt(tex, 4, 16)[3], "outside")
}

func TestStrokeRectStrip(t *testing.T) {
	dev := memdev.New()
	ctx := newTestContext(t, dev, WithDrawBuffering(false))
	tex := newTarget(t, ctx, 32, 32)
	ctx.SetRenderTarget(tex.RenderTarget())

	require.NoError(t, ctx.DrawRect(NewPaint(white), geom.XYWH(8, 8, 16, 16), 2, nil))
	d := lastDraw(t, dev)
	assert.Equal(t, device.PrimitiveTriangleStrip, d.Primitive)
	assert.Equal(t, 10, d.Vertices)
	assert.Equal(t, uint8(255), pixelAt(tex, 8, 16)[3])
	assert.Equal(t, uint8(0), pixelAt(tex, 16, 16)[3])

	require.NoError(t, ctx.DrawRect(NewPaint(white), geom.XYWH(2, 2, 4, 4), 0, nil))
	assert.Equal(t, device.PrimitiveLineStrip, lastDraw(t, dev).Primitive)
}

func TestDrawRectLocalMatrixKeepsTextures(t *testing.T) {
	ctx := newTestContext(t, memdev.New())
	src := newTarget(t, ctx, 16, 16)
	require.NoError(t, ctx.WriteTexturePixels(src, geom.IXYWH(0, 0, 16, 16), gputypes.TextureFormatRGBA8Unorm, opaquePattern(16, 16), 0, 0))
	tex := newTarget(t, ctx, 16, 16)
	ctx.SetRenderTarget(tex.RenderTarget())

	p := NewPaint(white)
	p.SetTexture(0, src, geom.IDiv(16, 16))
	m := geom.Translate(8, 8)
	require.NoError(t, ctx.DrawRect(p, geom.XYWH(0, 0, 4, 4), -1, &m))
	require.NoError(t, ctx.Flush(0))

	// The rect moves, the texture stays where the view put it.
	assert.Equal(t, pixelAt(src, 9, 10), pixelAt(tex, 9, 10))
	assert.Equal(t, pixelAt(src, 11, 8), pixelAt(tex, 11, 8))
	assert.Equal(t, [4]uint8{}, pixelAt(tex, 1, 2))
}

func TestDrawRectToRect(t *testing.T) {
	ctx := newTestContext(t, memdev.New())
	src := newTarget(t, ctx, 4, 4)
	require.NoError(t, ctx.WriteTexturePixels(src, geom.IXYWH(0, 0, 4, 4), gputypes.TextureFormatRGBA8Unorm, opaquePattern(4, 4), 0, 0))
	tex := newTarget(t, ctx, 16, 16)
	ctx.SetRenderTarget(tex.RenderTarget())

	p := NewPaint(white)
	p.SetTexture(0, src, geom.IDiv(4, 4))
	require.NoError(t, ctx.DrawRectToRect(p, geom.XYWH(0, 0, 8, 8), geom.XYWH(2, 2, 2, 2), nil, nil))
	require.NoError(t, ctx.Flush(0))

	// Each source texel covers a 4x4 block.
	assert.Equal(t, pixelAt(src, 2, 2), pixelAt(tex, 1, 1))
	assert.Equal(t, pixelAt(src, 3, 2), pixelAt(tex, 6, 1))
	assert.Equal(t, pixelAt(src, 3, 3), pixelAt(tex, 6, 6))
	assert.Equal(t, [4]uint8{}, pixelAt(tex, 9, 9))
}

func TestDrawPaintCoversClip(t *testing.T) {
	ctx := newTestContext(t, memdev.New())
	tex := newTarget(t, ctx, 16, 16)
	ctx.SetRenderTarget(tex.RenderTarget())
	ctx.SetMatrix(geom.Scale(2, 2))
	ctx.SetClip(device.Clip{Rect: geom.IXYWH(4, 4, 4, 4), Enabled: true})

	require.NoError(t, ctx.DrawPaint(aaPaint()))
	require.NoError(t, ctx.Flush(0))
	assert.Equal(t, uint8(255), pixelAt(tex, 5, 5)[3])
	assert.Equal(t, uint8(0), pixelAt(tex, 2, 2)[3])
	assert.Equal(t, uint8(0), pixelAt(tex, 12, 12)[3])

	ctx.SetMatrix(geom.Scale(0, 0))
	assert.ErrorIs(t, ctx.DrawPaint(NewPaint(white)), ErrSingularMatrix)
}

func TestBlendModes(t *testing.T) {
	ctx := newTestContext(t, memdev.New())
	tex := newTarget(t, ctx, 8, 8)
	ctx.SetRenderTarget(tex.RenderTarget())
	require.NoError(t, ctx.Clear(nil, white, nil))

	half := gputypes.Color{R: 0, G: 0, B: 0.5, A: 0.5}
	over := NewPaint(half)
	require.NoError(t, ctx.DrawRect(over, geom.XYWH(0, 0, 4, 8), -1, nil))
	src := NewPaint(half)
	src.Blend = BlendSource
	require.NoError(t, ctx.DrawRect(src, geom.XYWH(4, 0, 4, 8), -1, nil))
	require.NoError(t, ctx.Flush(0))

	assert.Equal(t, [4]uint8{128, 128, 255, 255}, pixelAt(tex, 1, 1))
	assert.Equal(t, [4]uint8{0, 0, 128, 128}, pixelAt(tex, 5, 1))
}

func TestDrawOvalAACircle(t *testing.T) {
	dev := memdev.New()
	ctx := newTestContext(t, dev)
	tex := newTarget(t, ctx, 32, 32)
	ctx.SetRenderTarget(tex.RenderTarget())

	require.NoError(t, ctx.DrawOval(aaPaint(), geom.XYWH(8, 8, 16, 16), -1))
	require.NoError(t, ctx.Flush(0))
	assert.Equal(t, device.PrimitiveTriangles, lastDraw(t, dev).Primitive)

	assert.Equal(t, uint8(255), pixelAt(tex, 16, 16)[3])
	assert.Equal(t, uint8(0), pixelAt(tex, 1, 1)[3])
	assert.Equal(t, uint8(0), pixelAt(tex, 9, 9)[3], "outside the circle near the bounding box corner")

	partial := false
	for x := 0; x < 32; x++ {
		if a := pixelAt(tex, x, 16)[3]; a > 0 && a < 255 {
			partial = true
		}
	}
	assert.True(t, partial, "the edge is antialiased")
}

func TestDrawOvalStroke(t *testing.T) {
	dev := memdev.New()
	ctx := newTestContext(t, dev)
	tex := newTarget(t, ctx, 32, 32)
	ctx.SetRenderTarget(tex.RenderTarget())

	require.NoError(t, ctx.DrawOval(NewPaint(white), geom.XYWH(8, 8, 16, 16), 2))
	require.NoError(t, ctx.Flush(0))

	assert.Equal(t, uint8(255), pixelAt(tex, 24, 16)[3], "on the ring")
	assert.Equal(t, uint8(0), pixelAt(tex, 16, 16)[3], "inside the ring")
	assert.Equal(t, uint8(0), pixelAt(tex, 28, 16)[3], "outside the ring")
}

func TestDrawPathOvalUsesCircleMesh(t *testing.T) {
	dev := memdev.New()
	ctx := newTestContext(t, dev, WithDrawBuffering(false))
	ctx.SetRenderTarget(newTarget(t, ctx, 32, 32).RenderTarget())

	off := geom.Pt(2, 2)
	require.NoError(t, ctx.DrawPath(aaPaint(), path.NewOval(geom.XYWH(4, 4, 10, 10)), path.NonZero, &off))
	d := lastDraw(t, dev)
	assert.Equal(t, device.PrimitiveTriangles, d.Primitive)
}

func TestDrawEmptyPath(t *testing.T) {
	dev := memdev.New()
	ctx := newTestContext(t, dev, WithDrawBuffering(false))
	tex := newTarget(t, ctx, 8, 8)
	ctx.SetRenderTarget(tex.RenderTarget())
	dev.ResetSubmissions()

	require.NoError(t, ctx.DrawPath(NewPaint(white), path.New(), path.NonZero, nil))
	assert.Empty(t, dev.Submissions())

	require.NoError(t, ctx.DrawPath(NewPaint(white), path.New(), path.InverseNonZero, nil))
	assert.Equal(t, uint8(255), pixelAt(tex, 4, 4)[3], "an empty inverse fill covers everything")
}

// lShape returns a concave L covering x 8..40, y 8..40 minus the lower right.
func lShape() *path.Path {
	p := path.New()
	p.MoveTo(8, 8)
	p.LineTo(40, 8)
	p.LineTo(40, 20)
	p.LineTo(20, 20)
	p.LineTo(20, 40)
	p.LineTo(8, 40)
	p.Close()
	return p
}

func TestSoftwarePathFlushesPendingDraws(t *testing.T) {
	dev := memdev.New()
	ctx := newTestContext(t, dev)
	tex := newTarget(t, ctx, 64, 64)
	ctx.SetRenderTarget(tex.RenderTarget())
	dev.ResetSubmissions()

	require.NoError(t, ctx.DrawRect(NewPaint(white), geom.XYWH(48, 48, 8, 8), -1, nil))
	require.NoError(t, ctx.DrawPath(aaPaint(), lShape(), path.NonZero, nil))

	// The mask upload flushed the rect; the mask draw is still buffered.
	assert.Equal(t, []memdev.SubmissionKind{
		memdev.SubmitSetClip, memdev.SubmitDraw, memdev.SubmitWrite,
	}, submissionKinds(dev))

	require.NoError(t, ctx.Flush(0))
	assert.Equal(t, []memdev.SubmissionKind{
		memdev.SubmitSetClip, memdev.SubmitDraw, memdev.SubmitWrite, memdev.SubmitDraw,
	}, submissionKinds(dev))

	assert.Equal(t, uint8(255), pixelAt(tex, 12, 30)[3])
	assert.Equal(t, uint8(0), pixelAt(tex, 30, 30)[3])
	assert.Equal(t, uint8(255), pixelAt(tex, 50, 50)[3])
}

func TestBufferedMaskSurvivesEviction(t *testing.T) {
	dev := memdev.New()
	ctx := newTestContext(t, dev, WithCacheLimits(1, 1<<30))
	tex := newTarget(t, ctx, 512, 512)
	ctx.SetRenderTarget(tex.RenderTarget())

	big := path.New()
	big.MoveTo(100, 100)
	big.LineTo(500, 100)
	big.LineTo(500, 200)
	big.LineTo(200, 200)
	big.LineTo(200, 500)
	big.LineTo(100, 500)
	big.Close()

	// The two masks land in different scratch buckets, so the second
	// allocation evicts the first while its draw is still buffered.
	require.NoError(t, ctx.DrawPath(aaPaint(), lShape(), path.NonZero, nil))
	require.NoError(t, ctx.DrawPath(aaPaint(), big, path.NonZero, nil))
	require.NoError(t, ctx.Flush(0))

	assert.EqualValues(t, 1, ctx.CacheStats().Evictions)
	assert.Equal(t, uint8(255), pixelAt(tex, 12, 30)[3])
	assert.Equal(t, uint8(255), pixelAt(tex, 150, 400)[3])
	assert.Equal(t, uint8(0), pixelAt(tex, 300, 300)[3])
}

func TestFreeEntryFlushesBufferedDraws(t *testing.T) {
	dev := memdev.New()
	ctx := newTestContext(t, dev)
	target := newTarget(t, ctx, 8, 8)
	ctx.SetRenderTarget(target.RenderTarget())

	desc := device.TextureDesc{Width: 2, Height: 2, Format: gputypes.TextureFormatRGBA8Unorm}
	src, err := ctx.CreateAndLockTexture(device.TextureParams{}, desc, 3, bytes.Repeat([]byte{0, 0, 255, 255}, 4), 0)
	require.NoError(t, err)
	p := NewPaint(white)
	p.SetTexture(0, src, geom.IDiv(8, 8))
	require.NoError(t, ctx.DrawRect(p, geom.XYWH(0, 0, 8, 8), -1, nil))
	ctx.UnlockTexture(src)

	require.NoError(t, ctx.FreeEntry(src))
	assert.Equal(t, [4]uint8{0, 0, 255, 255}, pixelAt(target, 4, 4))
}

func TestSoftwarePathDisabled(t *testing.T) {
	dev := memdev.New()
	ctx := newTestContext(t, dev, WithSoftwarePathRenderer(false), WithDrawBuffering(false))
	ctx.SetRenderTarget(newTarget(t, ctx, 64, 64).RenderTarget())
	dev.ResetSubmissions()

	require.NoError(t, ctx.DrawPath(aaPaint(), lShape(), path.NonZero, nil))
	assert.Empty(t, dev.Submissions(), "paths no renderer accepts are skipped")
}

func TestStencilPath(t *testing.T) {
	dev := memdev.New()
	ctx := newTestContext(t, dev, WithDrawBuffering(false))
	tex := newTarget(t, ctx, 64, 64)
	ctx.SetRenderTarget(tex.RenderTarget())

	require.NoError(t, ctx.DrawPath(NewPaint(white), lShape(), path.NonZero, nil))
	assert.Equal(t, uint8(255), pixelAt(tex, 12, 30)[3])
	assert.Equal(t, uint8(0), pixelAt(tex, 30, 30)[3])

	// The stencil buffer went back to the cache unlocked and cleared.
	sb := ctx.FindStencilBuffer(64, 64, 1)
	require.NotNil(t, sb)
	assert.Equal(t, uint8(0), sb.(*memdev.StencilBuffer).Value(12, 30))
	ctx.UnlockStencilBuffer(sb)

	require.NoError(t, ctx.DrawPath(NewPaint(white), lShape(), path.InverseNonZero, nil))
	assert.Equal(t, uint8(255), pixelAt(tex, 30, 30)[3], "inverse fill covers the notch")
}

func TestHairlinePath(t *testing.T) {
	dev := memdev.New()
	ctx := newTestContext(t, dev, WithDrawBuffering(false))
	tex := newTarget(t, ctx, 16, 16)
	ctx.SetRenderTarget(tex.RenderTarget())

	p := path.New()
	p.MoveTo(2, 4.5)
	p.LineTo(12, 4.5)
	require.NoError(t, ctx.DrawPath(NewPaint(white), p, path.Hairline, nil))
	assert.Equal(t, device.PrimitiveLineStrip, lastDraw(t, dev).Primitive)
	assert.Equal(t, uint8(255), pixelAt(tex, 6, 4)[3])
}
