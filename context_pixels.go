package gr

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/drawstate"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/internal/color"
)

func checkRect(rect geom.IRect, width, height int) error {
	if rect.IsEmpty() || !geom.IXYWH(0, 0, width, height).Contains(rect) {
		return fmt.Errorf("%w: %v in %dx%d", ErrRectOutOfBounds, rect, width, height)
	}
	return nil
}

// ReadRenderTargetPixels copies rect of rt into dst in format. A nil rt
// reads the bound render target. rowBytes of zero means tightly packed.
//
// Pending draws are flushed first unless flags has PixelOpsDontFlush. With
// PixelOpsUnpremul dst receives unpremultiplied colors.
func (c *Context) ReadRenderTargetPixels(rt device.RenderTarget, rect geom.IRect, format gputypes.TextureFormat, dst []byte, rowBytes int, flags PixelOpsFlags) error {
	if rt == nil {
		if rt = c.state.State().RenderTarget; rt == nil {
			return ErrNoRenderTarget
		}
	}
	if err := checkRect(rect, rt.Width(), rt.Height()); err != nil {
		return err
	}
	if rowBytes == 0 {
		rowBytes = rect.Width() * device.BytesPerPixel(format)
	}
	if len(dst) < rowBytes*(rect.Height()-1)+rect.Width()*device.BytesPerPixel(format) {
		return fmt.Errorf("gr: read buffer of %d bytes is too small", len(dst))
	}
	w, h := rect.Width(), rect.Height()
	unpremul := flags&PixelOpsUnpremul != 0
	cpuUnpremul := unpremul && !c.caps.PreserveUnpremul
	src := rt.Texture()

	var dstCfg, srcCfg color.Config8888
	if cpuUnpremul {
		var ok, ok2 bool
		dstCfg, ok = color.ConfigFor(format, true)
		srcCfg, ok2 = color.ConfigFor(rt.Format(), false)
		if !ok || !ok2 {
			return ErrUnsupportedFormat
		}
	} else if unpremul && src == nil {
		return ErrUnsupportedFormat
	}

	if flags&PixelOpsDontFlush == 0 {
		if err := c.Flush(0); err != nil {
			return err
		}
	}

	if cpuUnpremul {
		if err := c.ReadRenderTargetPixels(rt, rect, rt.Format(), dst, rowBytes, PixelOpsDontFlush); err != nil {
			return err
		}
		color.ConvertPixels(dst, rowBytes, dstCfg, dst, rowBytes, srcCfg, w, h)
		return nil
	}

	if src == nil {
		return c.dev.ReadPixels(rt, rect, format, dst, rowBytes, false)
	}
	swapRB := device.Is8888(format) && c.preferredReadFormat(format) == device.SwapRB(format)
	flipY := c.caps.ReadFlipCostly
	if !swapRB && !flipY && !unpremul {
		return c.dev.ReadPixels(rt, rect, format, dst, rowBytes, false)
	}

	// Draw into a scratch target with the conversions applied, then read
	// that back.
	match := MatchApprox
	if c.caps.FullReadFasterThanPartial && rect == geom.IXYWH(0, 0, src.Width(), src.Height()) {
		match = MatchExact
	}
	tmp, err := c.scratch.Acquire(device.TextureDesc{
		Flags:  device.FlagRenderTarget | device.FlagNoStencil,
		Width:  w,
		Height: h,
		Format: rt.Format(),
	}, match)
	if err != nil {
		return err
	}
	defer tmp.Release()
	target := tmp.Texture().RenderTarget()

	g := c.state.SaveReset(drawstate.FieldAll)
	defer g.Restore()
	st := c.state.State()
	st.RenderTarget = target
	m := geom.Translate(float64(rect.Left), float64(rect.Top))
	if flipY {
		m = geom.Translate(float64(rect.Left), float64(rect.Top+h)).Multiply(geom.Scale(1, -1))
	}
	st.Samplers[0] = device.Sampler{
		Texture: src,
		Matrix:  m.PostIDiv(src.Width(), src.Height()),
		SwapRB:  swapRB,
	}
	if unpremul {
		st.Flags |= device.StateUnpremultiply
	}
	st.SetBlend(gputypes.BlendFactorOne, gputypes.BlendFactorZero)
	if err := c.dev.Draw(st, device.RectCall(geom.XYWH(0, 0, float64(w), float64(h)))); err != nil {
		return err
	}

	readFormat := format
	if swapRB {
		readFormat = device.SwapRB(format)
	}
	return c.dev.ReadPixels(target, geom.IXYWH(0, 0, w, h), readFormat, dst, rowBytes, flipY)
}

// ReadTexturePixels reads a texture that is also a render target.
func (c *Context) ReadTexturePixels(tex device.Texture, rect geom.IRect, format gputypes.TextureFormat, dst []byte, rowBytes int, flags PixelOpsFlags) error {
	rt := tex.RenderTarget()
	if rt == nil {
		return fmt.Errorf("%w: texture %d is not renderable", ErrNoRenderTarget, tex.ID())
	}
	return c.ReadRenderTargetPixels(rt, rect, format, dst, rowBytes, flags)
}

// WriteTexturePixels uploads src into rect of tex. rowBytes of zero means
// tightly packed.
func (c *Context) WriteTexturePixels(tex device.Texture, rect geom.IRect, format gputypes.TextureFormat, src []byte, rowBytes int, flags PixelOpsFlags) error {
	if err := checkRect(rect, tex.Width(), tex.Height()); err != nil {
		return err
	}
	if flags&PixelOpsUnpremul != 0 {
		var err error
		if src, rowBytes, err = premultiplied(format, format, src, rowBytes, rect.Width(), rect.Height()); err != nil {
			return err
		}
	}
	// The texture may be read by buffered draws.
	if flags&PixelOpsDontFlush == 0 {
		if err := c.Flush(0); err != nil {
			return err
		}
	}
	return c.dev.WriteTexturePixels(tex, rect, format, src, rowBytes)
}

// premultiplied converts unpremultiplied pixels in format to premultiplied
// ones in dstFormat.
func premultiplied(format, dstFormat gputypes.TextureFormat, src []byte, rowBytes, w, h int) ([]byte, int, error) {
	srcCfg, ok := color.ConfigFor(format, true)
	dstCfg, ok2 := color.ConfigFor(dstFormat, false)
	if !ok || !ok2 {
		return nil, 0, ErrUnsupportedFormat
	}
	out := make([]byte, w*h*4)
	color.ConvertPixels(out, w*4, dstCfg, src, rowBytes, srcCfg, w, h)
	return out, w * 4, nil
}

// WriteRenderTargetPixels writes src into rect of rt. A nil rt writes the
// bound render target.
func (c *Context) WriteRenderTargetPixels(rt device.RenderTarget, rect geom.IRect, format gputypes.TextureFormat, src []byte, rowBytes int, flags PixelOpsFlags) error {
	if rt == nil {
		if rt = c.state.State().RenderTarget; rt == nil {
			return ErrNoRenderTarget
		}
	}
	unpremul := flags&PixelOpsUnpremul != 0
	if tex := rt.Texture(); tex != nil && !unpremul {
		return c.WriteTexturePixels(tex, rect, format, src, rowBytes, flags)
	}
	if err := checkRect(rect, rt.Width(), rt.Height()); err != nil {
		return err
	}
	w, h := rect.Width(), rect.Height()
	if rowBytes == 0 {
		rowBytes = w * device.BytesPerPixel(format)
	}

	if unpremul && !c.caps.PreserveUnpremul {
		pm, stride, err := premultiplied(format, rt.Format(), src, rowBytes, w, h)
		if err != nil {
			return err
		}
		return c.WriteRenderTargetPixels(rt, rect, rt.Format(), pm, stride, flags&^PixelOpsUnpremul)
	}
	if flags&PixelOpsDontFlush == 0 {
		if err := c.Flush(0); err != nil {
			return err
		}
	}

	swapRB := device.Is8888(format) && c.preferredReadFormat(format) == device.SwapRB(format)
	uploadFormat := format
	if swapRB {
		uploadFormat = device.SwapRB(format)
	}
	tmp, err := c.scratch.Acquire(device.TextureDesc{Width: w, Height: h, Format: uploadFormat}, MatchApprox)
	if err != nil {
		return err
	}
	defer tmp.Release()
	tex := tmp.Texture()
	if err := c.dev.WriteTexturePixels(tex, geom.IXYWH(0, 0, w, h), uploadFormat, src, rowBytes); err != nil {
		return err
	}

	g := c.state.SaveReset(drawstate.FieldAll)
	defer g.Restore()
	st := c.state.State()
	st.RenderTarget = rt
	st.ViewMatrix = geom.Translate(float64(rect.Left), float64(rect.Top))
	st.Samplers[0] = device.Sampler{
		Texture:     tex,
		Matrix:      geom.IDiv(tex.Width(), tex.Height()),
		SwapRB:      swapRB,
		Premultiply: unpremul,
	}
	st.SetBlend(gputypes.BlendFactorOne, gputypes.BlendFactorZero)
	return c.dev.Draw(st, device.RectCall(geom.XYWH(0, 0, float64(w), float64(h))))
}

// CopyTexture draws src into the top left of dst, replacing what is there.
func (c *Context) CopyTexture(src device.Texture, dst device.RenderTarget) error {
	if err := c.Flush(0); err != nil {
		return err
	}
	g := c.state.SaveReset(drawstate.FieldAll)
	defer g.Restore()
	st := c.state.State()
	st.RenderTarget = dst
	st.Samplers[0] = device.Sampler{Texture: src, Matrix: geom.IDiv(src.Width(), src.Height())}
	st.SetBlend(gputypes.BlendFactorOne, gputypes.BlendFactorZero)
	w := min(src.Width(), dst.Width())
	h := min(src.Height(), dst.Height())
	return c.dev.Draw(st, device.RectCall(geom.XYWH(0, 0, float64(w), float64(h))))
}

// ResolveRenderTarget flushes and resolves a multisampled target into its
// texture.
func (c *Context) ResolveRenderTarget(rt device.RenderTarget) error {
	if err := c.Flush(0); err != nil {
		return err
	}
	return c.dev.ResolveRenderTarget(rt)
}
