package gr

import (
	"math"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// Coverage meshes are built in device space. Each ring is a rect whose four
// corners carry one coverage value; the device interpolates coverage across
// the band between two rings.

// coverageMesh accumulates an indexed triangle list with per-vertex
// coverage.
type coverageMesh struct {
	call device.DrawCall
}

func newCoverageMesh() *coverageMesh {
	return &coverageMesh{call: device.DrawCall{Primitive: device.PrimitiveTriangles}}
}

// ring appends the corners of r, clockwise from the top left, and returns
// the index of the first one.
func (m *coverageMesh) ring(r geom.Rect, cov float32) uint16 {
	base := uint16(len(m.call.Positions))
	m.call.Positions = append(m.call.Positions,
		geom.Pt(r.Left, r.Top),
		geom.Pt(r.Right, r.Top),
		geom.Pt(r.Right, r.Bottom),
		geom.Pt(r.Left, r.Bottom),
	)
	m.call.Coverages = append(m.call.Coverages, cov, cov, cov, cov)
	return base
}

// band connects two rings of four vertices.
func (m *coverageMesh) band(a, b uint16) {
	for k := range uint16(4) {
		k1 := (k + 1) % 4
		m.call.Indices = append(m.call.Indices,
			a+k, a+k1, b+k1,
			a+k, b+k1, b+k,
		)
	}
}

// quad fills the interior of a ring.
func (m *coverageMesh) quad(a uint16) {
	m.call.Indices = append(m.call.Indices, a, a+1, a+2, a, a+2, a+3)
}

// fillAARect covers r with a one pixel coverage ramp centered on its edges.
// Rects thinner than a pixel get proportionally less coverage.
func fillAARect(r geom.Rect) *device.DrawCall {
	w, h := r.Width(), r.Height()
	m := newCoverageMesh()
	outer := m.ring(r.Inset(-0.5, -0.5), 0)
	inner := m.ring(r.Inset(min(0.5, w/2), min(0.5, h/2)), float32(min(1, w)*min(1, h)))
	m.band(outer, inner)
	m.quad(inner)
	return &m.call
}

// strokeAARect strokes r with a stroke of size stroke, where stroke.X is
// the device width of vertical edges and stroke.Y that of horizontal ones.
// A stroke wide enough to close the interior becomes a fill.
func strokeAARect(r geom.Rect, stroke geom.Point) *device.DrawCall {
	rx, ry := stroke.X/2, stroke.Y/2
	spare := min(r.Width()-stroke.X, r.Height()-stroke.Y)
	if spare <= 0 {
		return fillAARect(r.Inset(-rx, -ry))
	}

	m := newCoverageMesh()
	if rx < 0.5 || ry < 0.5 {
		// Thinner than a pixel: one ramp up to the centerline and down.
		cov := float32(min(1, stroke.X) * min(1, stroke.Y))
		o := m.ring(r.Inset(-rx-0.5, -ry-0.5), 0)
		c := m.ring(r, cov)
		i := m.ring(r.Inset(rx+0.5, ry+0.5), 0)
		m.band(o, c)
		m.band(c, i)
		return &m.call
	}
	r0 := m.ring(r.Inset(-rx-0.5, -ry-0.5), 0)
	r1 := m.ring(r.Inset(-rx+0.5, -ry+0.5), 1)
	r2 := m.ring(r.Inset(rx-0.5, ry-0.5), 1)
	r3 := m.ring(r.Inset(rx+0.5, ry+0.5), 0)
	m.band(r0, r1)
	m.band(r1, r2)
	m.band(r2, r3)
	return &m.call
}

// Oval tessellation bounds.
const (
	minOvalSegments = 16
	maxOvalSegments = 512
)

// ovalSegments picks a segment count keeping the chord error under a
// quarter pixel.
func ovalSegments(radius float64) int {
	if radius <= 0 {
		return minOvalSegments
	}
	n := int(math.Ceil(math.Pi / math.Acos(max(-1, 1-0.25/radius))))
	return min(max(n, minOvalSegments), maxOvalSegments)
}

// circleMesh builds concentric rings around center. radii and covs list
// the rings from the inside out; a leading zero radius is a single center
// vertex.
func circleMesh(center geom.Point, n int, radii []float64, covs []float32) *device.DrawCall {
	call := &device.DrawCall{Primitive: device.PrimitiveTriangles}
	starts := make([]int, len(radii))
	for i, r := range radii {
		starts[i] = len(call.Positions)
		if r <= 0 {
			call.Positions = append(call.Positions, center)
			call.Coverages = append(call.Coverages, covs[i])
			continue
		}
		for k := range n {
			a := 2 * math.Pi * float64(k) / float64(n)
			call.Positions = append(call.Positions, geom.Pt(center.X+r*math.Cos(a), center.Y+r*math.Sin(a)))
			call.Coverages = append(call.Coverages, covs[i])
		}
	}
	for i := 1; i < len(radii); i++ {
		a, b := starts[i-1], starts[i]
		for k := range n {
			k1 := (k + 1) % n
			if radii[i-1] <= 0 {
				call.Indices = append(call.Indices, uint16(a), uint16(b+k), uint16(b+k1))
				continue
			}
			call.Indices = append(call.Indices,
				uint16(a+k), uint16(a+k1), uint16(b+k1),
				uint16(a+k), uint16(b+k1), uint16(b+k),
			)
		}
	}
	return call
}

// fillAACircle fills a circle with a one pixel coverage ramp at its edge.
func fillAACircle(center geom.Point, radius float64) *device.DrawCall {
	n := ovalSegments(radius)
	if radius <= 0.5 {
		return circleMesh(center, n,
			[]float64{0, radius + 0.5},
			[]float32{float32(min(1, radius*2)), 0})
	}
	return circleMesh(center, n,
		[]float64{0, radius - 0.5, radius + 0.5},
		[]float32{1, 1, 0})
}

// hairlineAACircle draws a one pixel wide antialiased circle outline.
func hairlineAACircle(center geom.Point, radius float64) *device.DrawCall {
	n := ovalSegments(radius)
	inner := max(radius-1, 0)
	if inner == 0 {
		return circleMesh(center, n, []float64{0, radius, radius + 1}, []float32{1, 1, 0})
	}
	return circleMesh(center, n, []float64{inner, radius, radius + 1}, []float32{0, 1, 0})
}

// setStrokeRectStrip returns the ten vertex triangle strip of a rect
// stroke of the given width, alternating outer and inner corners.
func setStrokeRectStrip(r geom.Rect, width float64) []geom.Point {
	rad := width / 2
	o := r.Inset(-rad, -rad)
	i := r.Inset(rad, rad)
	return []geom.Point{
		geom.Pt(o.Left, o.Top), geom.Pt(i.Left, i.Top),
		geom.Pt(o.Right, o.Top), geom.Pt(i.Right, i.Top),
		geom.Pt(o.Right, o.Bottom), geom.Pt(i.Right, i.Bottom),
		geom.Pt(o.Left, o.Bottom), geom.Pt(i.Left, i.Bottom),
		geom.Pt(o.Left, o.Top), geom.Pt(i.Left, i.Top),
	}
}
