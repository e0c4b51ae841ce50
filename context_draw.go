package gr

import (
	"math"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/drawstate"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/path"
)

// DrawPaint fills the whole render target, or the clip when clipping is on.
func (c *Context) DrawPaint(p *Paint) error {
	rt := c.state.State().RenderTarget
	if rt == nil {
		return ErrNoRenderTarget
	}
	inv, ok := c.state.State().ViewMatrix.Invert()
	if !ok {
		return ErrSingularMatrix
	}
	r := inv.MapRect(geom.IXYWH(0, 0, rt.Width(), rt.Height()).ToRect())

	// Antialiasing only softens the target edges, which are never visible.
	q := *p
	q.Antialias = false
	return c.DrawRect(&q, r, -1, nil)
}

// DrawRect fills rect when strokeWidth is negative, draws a one pixel
// hairline when it is zero and strokes it otherwise. A non-nil matrix is
// applied to rect before the view matrix.
func (c *Context) DrawRect(p *Paint, rect geom.Rect, strokeWidth float64, matrix *geom.Matrix) error {
	g, err := c.prepareToDraw(p)
	if err != nil {
		return err
	}
	defer g.Restore()

	st := c.state.State()
	combined := st.ViewMatrix
	if matrix != nil {
		combined = combined.PreConcat(*matrix)
	}

	if devRect, ok := c.applyAAToRect(p, rect, strokeWidth, combined); ok {
		dg, ok := c.state.SaveDeviceCoords()
		if !ok {
			return nil
		}
		defer dg.Restore()
		if strokeWidth < 0 {
			return c.draw(fillAARect(devRect))
		}
		stroke := geom.Pt(1, 1)
		if strokeWidth > 0 {
			v := combined.TransformVector(geom.Pt(strokeWidth, strokeWidth))
			stroke = geom.Pt(math.Abs(v.X), math.Abs(v.Y))
		}
		return c.draw(strokeAARect(devRect, stroke))
	}

	if matrix != nil {
		mg := c.state.Save(drawstate.FieldViewMatrix | drawstate.FieldSamplers)
		defer mg.Restore()
		st.ViewMatrix = combined
		c.preConcatSamplers(*matrix)
	}

	switch {
	case strokeWidth > 0:
		return c.draw(&device.DrawCall{
			Primitive: device.PrimitiveTriangleStrip,
			Positions: setStrokeRectStrip(rect, strokeWidth),
		})
	case strokeWidth == 0:
		return c.draw(&device.DrawCall{
			Primitive: device.PrimitiveLineStrip,
			Positions: []geom.Point{
				geom.Pt(rect.Left, rect.Top),
				geom.Pt(rect.Right, rect.Top),
				geom.Pt(rect.Right, rect.Bottom),
				geom.Pt(rect.Left, rect.Bottom),
				geom.Pt(rect.Left, rect.Top),
			},
		})
	}
	return c.draw(device.RectCall(rect))
}

// preConcatSamplers makes enabled sampler matrices see coordinates before m
// is applied, so a draw's local matrix does not move its textures.
func (c *Context) preConcatSamplers(m geom.Matrix) {
	st := c.state.State()
	for i := range st.Samplers {
		if st.Samplers[i].Enabled() {
			st.Samplers[i].Matrix = st.Samplers[i].Matrix.Multiply(m)
		}
	}
}

// applyAAToRect decides whether rect is drawn with a coverage ramp and
// returns its device bounds when it is.
func (c *Context) applyAAToRect(p *Paint, rect geom.Rect, strokeWidth float64, combined geom.Matrix) (geom.Rect, bool) {
	if !p.Antialias || c.isMultisampled() {
		return geom.Rect{}, false
	}
	st := c.state.State()
	if !c.caps.CoverageAA || !st.CanApplyCoverage() {
		return geom.Rect{}, false
	}
	if strokeWidth == 0 && c.caps.HWAALines {
		return geom.Rect{}, false
	}
	if !combined.PreservesAxisAlignment() {
		return geom.Rect{}, false
	}
	devRect := combined.MapRect(rect).Sort()
	if strokeWidth < 0 && devRect.IsIntegral() {
		return geom.Rect{}, false
	}
	return devRect, true
}

// DrawRectToRect draws dst with texture stage 0 mapped so that src, in the
// texture's local coordinates, fills dst. Without a texture it draws dst
// like DrawRect.
func (c *Context) DrawRectToRect(p *Paint, dst, src geom.Rect, dstMatrix, srcMatrix *geom.Matrix) error {
	if !p.Textures[0].Enabled() {
		return c.DrawRect(p, dst, -1, dstMatrix)
	}
	g, err := c.prepareToDraw(p)
	if err != nil {
		return err
	}
	defer g.Restore()

	mg := c.state.Save(drawstate.FieldViewMatrix | drawstate.FieldSamplers)
	defer mg.Restore()
	st := c.state.State()
	if dstMatrix != nil {
		st.ViewMatrix = st.ViewMatrix.PreConcat(*dstMatrix)
		for i := 1; i < len(st.Samplers); i++ {
			if st.Samplers[i].Enabled() {
				st.Samplers[i].Matrix = st.Samplers[i].Matrix.Multiply(*dstMatrix)
			}
		}
	}
	m := st.Samplers[0].Matrix
	if srcMatrix != nil {
		m = m.Multiply(*srcMatrix)
	}
	st.Samplers[0].Matrix = m.Multiply(rectToRect(dst, src))
	return c.draw(device.RectCall(dst))
}

// rectToRect maps from onto to.
func rectToRect(from, to geom.Rect) geom.Matrix {
	sx := to.Width() / from.Width()
	sy := to.Height() / from.Height()
	return geom.Matrix{
		A: sx, C: to.Left - from.Left*sx,
		E: sy, F: to.Top - from.Top*sy,
	}
}

// DrawVertices draws raw geometry. texCoords and indices are optional.
func (c *Context) DrawVertices(p *Paint, prim device.Primitive, positions, texCoords []geom.Point, indices []uint16) error {
	g, err := c.prepareToDraw(p)
	if err != nil {
		return err
	}
	defer g.Restore()
	return c.draw(&device.DrawCall{
		Primitive: prim,
		Positions: positions,
		TexCoords: texCoords,
		Indices:   indices,
	})
}

// DrawOval fills rect's inscribed oval when strokeWidth is negative,
// outlines it with a hairline when it is zero and strokes it otherwise.
// Filled and hairline circles under a similarity transform get a dedicated
// coverage mesh; everything else goes through the path renderers.
func (c *Context) DrawOval(p *Paint, rect geom.Rect, strokeWidth float64) error {
	if !c.canDrawAACircle(p, rect, strokeWidth) {
		return c.drawOvalPath(p, rect, strokeWidth)
	}
	g, err := c.prepareToDraw(p)
	if err != nil {
		return err
	}
	defer g.Restore()

	view := c.state.State().ViewMatrix
	center := view.TransformPoint(geom.Pt((rect.Left+rect.Right)/2, (rect.Top+rect.Bottom)/2))
	det := view.A*view.E - view.B*view.D
	radius := rect.Width() / 2 * math.Sqrt(math.Abs(det))

	dg, ok := c.state.SaveDeviceCoords()
	if !ok {
		return nil
	}
	defer dg.Restore()
	if strokeWidth == 0 {
		return c.draw(hairlineAACircle(center, radius))
	}
	return c.draw(fillAACircle(center, radius))
}

func (c *Context) canDrawAACircle(p *Paint, rect geom.Rect, strokeWidth float64) bool {
	if !p.Antialias || strokeWidth > 0 || rect.Width() != rect.Height() {
		return false
	}
	if !c.caps.CoverageAA || c.isMultisampled() {
		return false
	}
	if !isSimilarity(c.state.State().ViewMatrix) {
		return false
	}
	src, dst := p.Blend.Factors()
	probe := device.DrawState{SrcBlend: src, DstBlend: dst}
	return probe.CanApplyCoverage()
}

// isSimilarity reports whether m is a uniform scale plus rotation and
// translation.
func isSimilarity(m geom.Matrix) bool {
	const tol = 1e-9
	return math.Abs(m.A-m.E) < tol && math.Abs(m.B+m.D) < tol ||
		math.Abs(m.A+m.E) < tol && math.Abs(m.B-m.D) < tol
}

// drawOvalPath draws the oval as a path. Strokes become the even-odd
// region between the outset and inset ovals.
func (c *Context) drawOvalPath(p *Paint, rect geom.Rect, strokeWidth float64) error {
	switch {
	case strokeWidth < 0:
		return c.internalDrawPath(p, path.NewOval(rect), path.NonZero, geom.Point{})
	case strokeWidth == 0:
		return c.internalDrawPath(p, path.NewOval(rect), path.Hairline, geom.Point{})
	}
	rect = rect.Sort()
	rad := strokeWidth / 2
	pth := path.New()
	pth.AddOval(rect.Inset(-rad, -rad))
	if inner := rect.Inset(rad, rad); !inner.IsEmpty() {
		pth.AddOval(inner)
	}
	return c.internalDrawPath(p, pth, path.EvenOdd, geom.Point{})
}

// DrawPath draws pth with fill. A non-nil translate offsets the path.
//
// Paths no renderer accepts are skipped.
func (c *Context) DrawPath(p *Paint, pth *path.Path, fill path.FillRule, translate *geom.Point) error {
	if pth.IsEmpty() {
		if fill.IsInverse() {
			return c.DrawPaint(p)
		}
		return nil
	}
	var off geom.Point
	if translate != nil {
		off = *translate
	}
	if !fill.IsInverse() && fill != path.Hairline {
		if r, ok := pth.IsOval(); ok {
			return c.DrawOval(p, r.Offset(off.X, off.Y), -1)
		}
	}
	return c.internalDrawPath(p, pth, fill, off)
}

func (c *Context) internalDrawPath(p *Paint, pth *path.Path, fill path.FillRule, translate geom.Point) error {
	g, err := c.prepareToDraw(p)
	if err != nil {
		return err
	}
	defer g.Restore()

	aa := p.Antialias && !c.isMultisampled() && c.state.State().CanApplyCoverage()
	pr := c.pathRenderer(pth, fill, aa, c.opts.softwarePaths)
	if pr == nil {
		c.logger.Debug("gr: no path renderer", "fill", fill.String(), "aa", aa)
		return nil
	}
	return pr.DrawPath(pathHost{c}, pth, fill, translate, aa)
}
