package pathrender

import (
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/drawstate"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/path"
)

// StencilRenderer fills arbitrary paths with stencil-then-cover: every
// contour is drawn as a fan into the stencil buffer, then a covering rect
// draws color where the stencil test passes.
type StencilRenderer struct {
	caps device.Caps
}

// NewStencilRenderer creates a stencil renderer.
func NewStencilRenderer(caps device.Caps) *StencilRenderer {
	return &StencilRenderer{caps: caps}
}

func (*StencilRenderer) Name() string { return "stencil" }
func (*StencilRenderer) Kind() Kind   { return KindSpecialized }

// CanDrawPath accepts every aliased fill. Antialiased fills are declined:
// multisampled targets reach this renderer with aa already turned off.
func (r *StencilRenderer) CanDrawPath(_ *path.Path, fill path.FillRule, aa bool) bool {
	return r.caps.StencilSupport && fill != path.Hairline && !aa
}

// DrawPath stencils then covers.
func (r *StencilRenderer) DrawPath(h Host, p *path.Path, fill path.FillRule, translate geom.Point, _ bool) error {
	stack := h.DrawState()
	st := stack.State()
	rt := st.RenderTarget
	sb, err := h.LockStencilBuffer(rt.Width(), rt.Height(), rt.SampleCount())
	if err != nil {
		return err
	}
	defer h.UnlockStencilBuffer(sb)

	g := stack.Save(drawstate.FieldStencil)
	defer g.Restore()

	pass := device.StencilWriteWinding
	if fill.IsEvenOdd() {
		pass = device.StencilWriteEvenOdd
	}
	st.Stencil = device.Stencil{Pass: pass, Buffer: sb}
	for _, c := range p.Contours(path.DefaultTolerance) {
		if len(c.Points) < 3 {
			continue
		}
		pts := make([]geom.Point, len(c.Points))
		for i, pt := range c.Points {
			pts[i] = pt.Add(translate)
		}
		if err := h.Draw(&device.DrawCall{Primitive: device.PrimitiveTriangleFan, Positions: pts}); err != nil {
			return err
		}
	}

	if !fill.IsInverse() {
		st.Stencil.Pass = device.StencilCoverNonZero
		return h.Draw(device.RectCall(p.Bounds().Offset(translate.X, translate.Y)))
	}

	st.Stencil.Pass = device.StencilCoverZero
	dg, ok := stack.SaveDeviceCoords()
	if !ok {
		return nil
	}
	defer dg.Restore()
	return h.Draw(device.RectCall(geom.XYWH(0, 0, float64(rt.Width()), float64(rt.Height()))))
}
