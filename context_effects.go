package gr

import (
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/drawstate"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/internal/scratch"
)

// Blur sizes. Larger sigmas are reached by downsampling first.
const (
	maxBlurSigma    = 4.0
	maxKernelRadius = 12
)

// MorphologyKind selects the morphology operator.
type MorphologyKind uint8

const (
	// MorphologyDilate grows bright regions.
	MorphologyDilate MorphologyKind = iota
	// MorphologyErode shrinks bright regions.
	MorphologyErode
)

func (k MorphologyKind) effect() device.EffectKind {
	if k == MorphologyErode {
		return device.EffectErode
	}
	return device.EffectDilate
}

// adjustSigma halves sigma until it is small enough to convolve directly
// and returns the downsample factor and the kernel radius.
func adjustSigma(sigma float64) (adjusted float64, scale, radius int) {
	scale = 1
	for sigma > maxBlurSigma {
		scale *= 2
		sigma *= 0.5
	}
	radius = min(int(math.Ceil(sigma*3)), maxKernelRadius)
	return sigma, scale, radius
}

// gaussianKernel returns 2*radius+1 normalized weights.
func gaussianKernel(sigma float64, radius int) []float32 {
	k := make([]float32, 2*radius+1)
	denom := 1 / (2 * sigma * sigma)
	var sum float64
	w := make([]float64, len(k))
	for i := range w {
		x := float64(i - radius)
		w[i] = math.Exp(-x * x * denom)
		sum += w[i]
	}
	for i := range k {
		k[i] = float32(w[i] / sum)
	}
	return k
}

// effectTargets hands out the two ping-pong targets of a multi-pass
// effect and releases every one but the result.
type effectTargets struct {
	handles []*scratch.Handle
}

func (t *effectTargets) lock(c *Context, desc device.TextureDesc) (device.Texture, error) {
	h, err := c.scratch.Acquire(desc, MatchApprox)
	if err != nil {
		return nil, err
	}
	t.handles = append(t.handles, h)
	return h.Texture(), nil
}

// finish releases every target except result, which stays locked. A nil
// result releases them all.
func (t *effectTargets) finish(result device.Texture) {
	for _, h := range t.handles {
		if h.Texture() == result {
			h.Detach()
			continue
		}
		h.Release()
	}
}

// GaussianBlur blurs rect of src with the given standard deviations.
//
// The result is a locked scratch texture the caller passes to
// UnlockTexture, or src itself when no pass was needed. With canClobberSrc
// src may be used as an intermediate target. Pixels of the result outside
// rect are undefined.
func (c *Context) GaussianBlur(src device.Texture, canClobberSrc bool, rect geom.Rect, sigmaX, sigmaY float64) (_ device.Texture, err error) {
	sigmaX, scaleX, radiusX := adjustSigma(sigmaX)
	sigmaY, scaleY, radiusY := adjustSigma(sigmaY)

	srcRect := rect.Scale(1/float64(scaleX), 1/float64(scaleY)).RoundOut().ToRect().
		Scale(float64(scaleX), float64(scaleY))

	defer c.AutoMatrix(geom.Identity()).Restore()
	defer c.AutoClip(srcRect).Restore()
	defer c.state.Save(drawstate.FieldRenderTarget).Restore()

	desc := device.TextureDesc{
		Flags:  device.FlagRenderTarget | device.FlagNoStencil,
		Width:  int(math.Ceil(srcRect.Right)),
		Height: int(math.Ceil(srcRect.Bottom)),
		Format: gputypes.TextureFormatRGBA8Unorm,
	}
	var targets effectTargets
	result := src
	defer func() {
		if err != nil {
			result = nil
		}
		targets.finish(result)
	}()

	dst, err := targets.lock(c, desc)
	if err != nil {
		return nil, err
	}
	spare := src
	if !canClobberSrc || src.RenderTarget() == nil {
		if spare, err = targets.lock(c, desc); err != nil {
			return nil, err
		}
	}
	// clearStrip blanks texels a pass samples outside the rect, on targets
	// the blur owns.
	clearStrip := func(tex device.Texture, r geom.IRect) error {
		if tex.RenderTarget() == nil || (tex == src && !canClobberSrc) {
			return nil
		}
		return c.Clear(&r, gputypes.Color{}, tex.RenderTarget())
	}
	swap := func() {
		result, dst = dst, result
		if dst == src && spare != src {
			dst = spare
		}
	}

	for i := 1; i < scaleX || i < scaleY; i *= 2 {
		sx, sy := 1.0, 1.0
		if i < scaleX {
			sx = 0.5
		}
		if i < scaleY {
			sy = 0.5
		}
		dstRect := srcRect.Scale(sx, sy)
		if err := c.resample(result, dst, srcRect, dstRect); err != nil {
			return nil, err
		}
		srcRect = dstRect
		swap()
	}

	if radiusX > 0 {
		strip := geom.IXYWH(int(srcRect.Right), int(srcRect.Top), radiusX, int(math.Ceil(srcRect.Height())))
		if err := clearStrip(result, strip); err != nil {
			return nil, err
		}
		kernel := device.Effect{Kind: device.EffectConvolution, Direction: device.DirectionX, Radius: radiusX, Kernel: gaussianKernel(sigmaX, radiusX)}
		if err := c.applyEffect(result, dst, srcRect, kernel); err != nil {
			return nil, err
		}
		swap()
	}

	if radiusY > 0 {
		strip := geom.IXYWH(int(srcRect.Left), int(srcRect.Bottom), int(math.Ceil(srcRect.Width())), radiusY)
		if err := clearStrip(result, strip); err != nil {
			return nil, err
		}
		kernel := device.Effect{Kind: device.EffectConvolution, Direction: device.DirectionY, Radius: radiusY, Kernel: gaussianKernel(sigmaY, radiusY)}
		if err := c.applyEffect(result, dst, srcRect, kernel); err != nil {
			return nil, err
		}
		swap()
	}

	if scaleX > 1 || scaleY > 1 {
		// Clear the edges the bilinear upsample reads past.
		right := geom.IXYWH(int(srcRect.Right), int(srcRect.Top), 1, int(math.Ceil(srcRect.Height())))
		bottom := geom.IXYWH(int(srcRect.Left), int(srcRect.Bottom), int(math.Ceil(srcRect.Width()))+1, 1)
		for _, r := range []geom.IRect{right, bottom} {
			if err := clearStrip(result, r); err != nil {
				return nil, err
			}
		}
		dstRect := srcRect.Scale(float64(scaleX), float64(scaleY))
		if err := c.resample(result, dst, srcRect, dstRect); err != nil {
			return nil, err
		}
		swap()
	}
	return result, nil
}

// resample draws srcRect of src over dstRect of dst with bilinear
// filtering.
func (c *Context) resample(src, dst device.Texture, srcRect, dstRect geom.Rect) error {
	c.state.State().RenderTarget = dst.RenderTarget()
	p := &Paint{Color: gputypes.Color{R: 1, G: 1, B: 1, A: 1}, Blend: BlendSource}
	p.SetTexture(0, src, geom.IDiv(src.Width(), src.Height()))
	p.Textures[0].Params.Filter = gputypes.FilterModeLinear
	return c.DrawRectToRect(p, dstRect, srcRect, nil, nil)
}

// applyEffect draws rect of src into the same rect of dst through a 1D
// effect.
func (c *Context) applyEffect(src, dst device.Texture, rect geom.Rect, effect device.Effect) error {
	c.state.State().RenderTarget = dst.RenderTarget()
	if _, err := c.prepareToDraw(nil); err != nil {
		return err
	}
	st := c.state.State()
	clip := st.Flags & device.StateClip
	g := c.state.SaveReset(drawstate.FieldSamplers | drawstate.FieldBlend | drawstate.FieldColor |
		drawstate.FieldFlags | drawstate.FieldColorFilter)
	defer g.Restore()
	st.Flags = clip
	st.Samplers[0] = device.Sampler{
		Texture: src,
		Matrix:  geom.IDiv(src.Width(), src.Height()),
		Effect:  effect,
	}
	st.SetBlend(gputypes.BlendFactorOne, gputypes.BlendFactorZero)
	return c.draw(device.RectCall(rect))
}

// ApplyMorphology dilates or erodes rect of src by the given radii. The
// result is a locked scratch texture the caller passes to UnlockTexture,
// or src itself when both radii are zero.
func (c *Context) ApplyMorphology(src device.Texture, rect geom.Rect, kind MorphologyKind, radiusX, radiusY int) (_ device.Texture, err error) {
	defer c.AutoMatrix(geom.Identity()).Restore()
	defer c.AutoClip(rect).Restore()
	defer c.state.Save(drawstate.FieldRenderTarget).Restore()

	desc := device.TextureDesc{
		Flags:  device.FlagRenderTarget | device.FlagNoStencil,
		Width:  int(math.Ceil(rect.Right)),
		Height: int(math.Ceil(rect.Bottom)),
		Format: gputypes.TextureFormatRGBA8Unorm,
	}
	var targets effectTargets
	result := src
	defer func() {
		if err != nil {
			result = nil
		}
		targets.finish(result)
	}()

	if radiusX > 0 {
		dst, err := targets.lock(c, desc)
		if err != nil {
			return nil, err
		}
		effect := device.Effect{Kind: kind.effect(), Direction: device.DirectionX, Radius: radiusX}
		if err := c.applyEffect(result, dst, rect, effect); err != nil {
			return nil, err
		}
		// The Y pass reads below rect.
		if radiusY > 0 {
			strip := geom.IXYWH(int(rect.Left), int(math.Ceil(rect.Bottom)), int(math.Ceil(rect.Width())), radiusY)
			if err := c.Clear(&strip, gputypes.Color{}, dst.RenderTarget()); err != nil {
				return nil, err
			}
		}
		result = dst
	}
	if radiusY > 0 {
		dst, err := targets.lock(c, desc)
		if err != nil {
			return nil, err
		}
		effect := device.Effect{Kind: kind.effect(), Direction: device.DirectionY, Radius: radiusY}
		if err := c.applyEffect(result, dst, rect, effect); err != nil {
			return nil, err
		}
		result = dst
	}
	return result, nil
}
