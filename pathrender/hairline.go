package pathrender

import (
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/drawstate"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/path"
)

// HairlineRenderer draws one-pixel strokes as line strips.
type HairlineRenderer struct {
	caps device.Caps
}

// NewHairlineRenderer creates a hairline renderer.
func NewHairlineRenderer(caps device.Caps) *HairlineRenderer {
	return &HairlineRenderer{caps: caps}
}

func (*HairlineRenderer) Name() string { return "hairline" }
func (*HairlineRenderer) Kind() Kind   { return KindSpecialized }

// CanDrawPath accepts hairlines; antialiased ones need hardware AA lines.
func (r *HairlineRenderer) CanDrawPath(p *path.Path, fill path.FillRule, aa bool) bool {
	if fill != path.Hairline {
		return false
	}
	return !aa || r.caps.HWAALines
}

// DrawPath emits one line strip per contour.
func (r *HairlineRenderer) DrawPath(h Host, p *path.Path, _ path.FillRule, translate geom.Point, aa bool) error {
	stack := h.DrawState()
	if aa {
		g := stack.Save(drawstate.FieldFlags)
		defer g.Restore()
		stack.State().Flags |= device.StateHWAntialias
	}
	for _, c := range p.Contours(path.DefaultTolerance) {
		pts := make([]geom.Point, 0, len(c.Points)+1)
		for _, pt := range c.Points {
			pts = append(pts, pt.Add(translate))
		}
		if c.Closed {
			pts = append(pts, pts[0])
		}
		if err := h.Draw(&device.DrawCall{Primitive: device.PrimitiveLineStrip, Positions: pts}); err != nil {
			return err
		}
	}
	return nil
}
