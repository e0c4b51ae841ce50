package pathrender

import (
	"math"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/path"
)

// fringeHalfWidth is half the width of the antialiasing ramp in pixels.
const fringeHalfWidth = 0.5

// maxMiter bounds the offset of a fringe vertex at sharp corners.
const maxMiter = 4.0

// ConvexRenderer draws single convex contours as a triangle fan, with an
// antialiasing fringe when the device applies per-vertex coverage.
type ConvexRenderer struct {
	caps device.Caps
}

// NewConvexRenderer creates a convex renderer.
func NewConvexRenderer(caps device.Caps) *ConvexRenderer {
	return &ConvexRenderer{caps: caps}
}

func (*ConvexRenderer) Name() string { return "convex" }
func (*ConvexRenderer) Kind() Kind   { return KindSpecialized }

// CanDrawPath accepts non-inverse fills of convex paths.
func (r *ConvexRenderer) CanDrawPath(p *path.Path, fill path.FillRule, aa bool) bool {
	if fill.IsInverse() || fill == path.Hairline {
		return false
	}
	if aa && !r.caps.CoverageAA {
		return false
	}
	return p.IsConvex()
}

// DrawPath emits the fan, or the fan plus fringe in device space for aa.
func (r *ConvexRenderer) DrawPath(h Host, p *path.Path, fill path.FillRule, translate geom.Point, aa bool) error {
	stack := h.DrawState()
	if !aa {
		cs := p.Contours(path.DefaultTolerance)
		if len(cs) == 0 {
			return nil
		}
		pts := cs[0].Points
		for i := range pts {
			pts[i] = pts[i].Add(translate)
		}
		return h.Draw(fanCall(pts))
	}

	cs := deviceContours(p, translate, stack.State().ViewMatrix)
	if len(cs) == 0 {
		return nil
	}
	g, ok := stack.SaveDeviceCoords()
	if !ok {
		return nil
	}
	defer g.Restore()
	call := fringeCall(cs[0].Points)
	if call == nil {
		return nil
	}
	return h.Draw(call)
}

func fanCall(pts []geom.Point) *device.DrawCall {
	c := centroid(pts)
	positions := make([]geom.Point, 0, len(pts)+2)
	positions = append(positions, c)
	positions = append(positions, pts...)
	positions = append(positions, pts[0])
	return &device.DrawCall{Primitive: device.PrimitiveTriangleFan, Positions: positions}
}

func centroid(pts []geom.Point) geom.Point {
	var c geom.Point
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(pts)))
}

// fringeCall builds an interior fan at full coverage inset by half a pixel
// and a ring of quads ramping from full to zero coverage across the edge.
func fringeCall(pts []geom.Point) *device.DrawCall {
	pts = dedupeClosed(pts)
	n := len(pts)
	res := path.AnalyzeConvexity(pts)
	if n < 3 || res.Winding == 0 {
		return nil
	}

	normals := make([]geom.Point, n)
	for i := range n {
		e := pts[(i+1)%n].Sub(pts[i])
		nrm := geom.Pt(e.Y, -e.X).Normalize()
		if res.Winding < 0 {
			nrm = nrm.Mul(-1)
		}
		normals[i] = nrm
	}

	inner := make([]geom.Point, n)
	outer := make([]geom.Point, n)
	for i := range n {
		n0 := normals[(i+n-1)%n]
		n1 := normals[i]
		m := n0.Add(n1).Normalize()
		d := m.X*n1.X + m.Y*n1.Y
		scale := fringeHalfWidth / math.Max(d, fringeHalfWidth/maxMiter)
		off := m.Mul(scale)
		inner[i] = pts[i].Sub(off)
		outer[i] = pts[i].Add(off)
	}

	c := centroid(pts)
	call := &device.DrawCall{Primitive: device.PrimitiveTriangles}
	add := func(p geom.Point, cov float32) {
		call.Positions = append(call.Positions, p)
		call.Coverages = append(call.Coverages, cov)
	}
	for i := range n {
		j := (i + 1) % n
		add(c, 1)
		add(inner[i], 1)
		add(inner[j], 1)

		add(inner[i], 1)
		add(outer[i], 0)
		add(outer[j], 0)

		add(inner[i], 1)
		add(outer[j], 0)
		add(inner[j], 1)
	}
	return call
}

func dedupeClosed(pts []geom.Point) []geom.Point {
	out := make([]geom.Point, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}
