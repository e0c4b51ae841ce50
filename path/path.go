// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package path

import (
	"math"

	"github.com/gogpu/gr/geom"
)

// Verb identifies a path segment type.
type Verb uint8

const (
	// VerbMoveTo starts a new contour.
	VerbMoveTo Verb = iota
	// VerbLineTo adds a line segment (one point).
	VerbLineTo
	// VerbQuadTo adds a quadratic Bezier (two points).
	VerbQuadTo
	// VerbCubicTo adds a cubic Bezier (three points).
	VerbCubicTo
	// VerbClose closes the current contour.
	VerbClose
)

// pointCount returns how many points a verb consumes.
func (v Verb) pointCount() int {
	switch v {
	case VerbMoveTo, VerbLineTo:
		return 1
	case VerbQuadTo:
		return 2
	case VerbCubicTo:
		return 3
	default:
		return 0
	}
}

// Path represents a vector path for drawing operations.
//
// Example:
//
//	p := path.New()
//	p.MoveTo(100, 100)
//	p.LineTo(200, 100)
//	p.LineTo(150, 200)
//	p.Close()
type Path struct {
	verbs  []Verb
	points []geom.Point
	start  geom.Point
	cur    geom.Point

	// oval is set by NewOval and cleared by any later mutation.
	oval   geom.Rect
	isOval bool
}

// New creates a new empty path.
func New() *Path {
	return &Path{
		verbs:  make([]Verb, 0, 16),
		points: make([]geom.Point, 0, 32),
	}
}

// kappa is the cubic control distance approximating a quarter circle.
const kappa = 0.5522847498307936

// NewOval returns a closed path approximating the ellipse inscribed in r.
// The path remembers that it is an oval so callers can take a fast path.
func NewOval(r geom.Rect) *Path {
	r = r.Sort()
	p := New()
	p.AddOval(r)
	p.oval, p.isOval = r, true
	return p
}

// AddOval appends a closed subpath approximating the ellipse inscribed in r.
func (p *Path) AddOval(r geom.Rect) {
	r = r.Sort()
	cx, cy := (r.Left+r.Right)/2, (r.Top+r.Bottom)/2
	rx, ry := r.Width()/2, r.Height()/2
	ox, oy := rx*kappa, ry*kappa

	p.MoveTo(r.Right, cy)
	p.CubicTo(r.Right, cy+oy, cx+ox, r.Bottom, cx, r.Bottom)
	p.CubicTo(cx-ox, r.Bottom, r.Left, cy+oy, r.Left, cy)
	p.CubicTo(r.Left, cy-oy, cx-ox, r.Top, cx, r.Top)
	p.CubicTo(cx+ox, r.Top, r.Right, cy-oy, r.Right, cy)
	p.Close()
}

// NewRect returns a closed clockwise path for r.
func NewRect(r geom.Rect) *Path {
	p := New()
	p.MoveTo(r.Left, r.Top)
	p.LineTo(r.Right, r.Top)
	p.LineTo(r.Right, r.Bottom)
	p.LineTo(r.Left, r.Bottom)
	p.Close()
	return p
}

// MoveTo starts a new subpath at the given point.
func (p *Path) MoveTo(x, y float64) {
	p.isOval = false
	p.verbs = append(p.verbs, VerbMoveTo)
	p.points = append(p.points, geom.Pt(x, y))
	p.start = geom.Pt(x, y)
	p.cur = p.start
}

// LineTo adds a line from the current point to (x, y).
func (p *Path) LineTo(x, y float64) {
	if len(p.verbs) == 0 {
		p.MoveTo(x, y)
		return
	}
	p.isOval = false
	p.verbs = append(p.verbs, VerbLineTo)
	p.points = append(p.points, geom.Pt(x, y))
	p.cur = geom.Pt(x, y)
}

// QuadTo adds a quadratic Bezier curve from the current point.
func (p *Path) QuadTo(cx, cy, x, y float64) {
	if len(p.verbs) == 0 {
		p.MoveTo(cx, cy)
	}
	p.isOval = false
	p.verbs = append(p.verbs, VerbQuadTo)
	p.points = append(p.points, geom.Pt(cx, cy), geom.Pt(x, y))
	p.cur = geom.Pt(x, y)
}

// CubicTo adds a cubic Bezier curve from the current point.
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	if len(p.verbs) == 0 {
		p.MoveTo(c1x, c1y)
	}
	p.isOval = false
	p.verbs = append(p.verbs, VerbCubicTo)
	p.points = append(p.points, geom.Pt(c1x, c1y), geom.Pt(c2x, c2y), geom.Pt(x, y))
	p.cur = geom.Pt(x, y)
}

// Close closes the current subpath by connecting to the start point.
func (p *Path) Close() {
	if len(p.verbs) == 0 {
		return
	}
	p.isOval = false
	p.verbs = append(p.verbs, VerbClose)
	p.cur = p.start
}

// IsEmpty returns true if the path has no elements.
func (p *Path) IsEmpty() bool {
	return p == nil || len(p.verbs) == 0
}

// IsOval returns the oval bounds when the path was built by NewOval and
// has not been modified since.
func (p *Path) IsOval() (geom.Rect, bool) {
	return p.oval, p.isOval
}

// Verbs returns the verb slice. The slice must not be modified.
func (p *Path) Verbs() []Verb { return p.verbs }

// Points returns the point slice. The slice must not be modified.
func (p *Path) Points() []geom.Point { return p.points }

// Bounds returns the bounds of all points including control points.
func (p *Path) Bounds() geom.Rect {
	return geom.BoundsOf(p.points)
}

// Clone creates a deep copy of the path.
func (p *Path) Clone() *Path {
	c := *p
	c.verbs = append([]Verb(nil), p.verbs...)
	c.points = append([]geom.Point(nil), p.points...)
	return &c
}

// Offset returns a copy of the path translated by (dx, dy).
func (p *Path) Offset(dx, dy float64) *Path {
	c := p.Clone()
	for i := range c.points {
		c.points[i] = c.points[i].Add(geom.Pt(dx, dy))
	}
	c.start = c.start.Add(geom.Pt(dx, dy))
	c.cur = c.cur.Add(geom.Pt(dx, dy))
	c.oval = c.oval.Offset(dx, dy)
	return c
}

// Contours flattens the path into closed or open polylines, one per
// subpath. Curves are subdivided until they deviate from the chord by
// less than tolerance.
func (p *Path) Contours(tolerance float64) []Contour {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	var (
		out []Contour
		cur Contour
		pi  int
	)
	flush := func() {
		if len(cur.Points) > 1 {
			out = append(out, cur)
		}
		cur = Contour{}
	}
	var last geom.Point
	for _, v := range p.verbs {
		pts := p.points[pi : pi+v.pointCount()]
		pi += v.pointCount()
		switch v {
		case VerbMoveTo:
			flush()
			cur.Points = append(cur.Points, pts[0])
			last = pts[0]
		case VerbLineTo:
			cur.Points = append(cur.Points, pts[0])
			last = pts[0]
		case VerbQuadTo:
			cur.Points = flattenQuad(cur.Points, last, pts[0], pts[1], tolerance, 0)
			last = pts[1]
		case VerbCubicTo:
			cur.Points = flattenCubic(cur.Points, last, pts[0], pts[1], pts[2], tolerance, 0)
			last = pts[2]
		case VerbClose:
			cur.Closed = true
			if len(cur.Points) > 0 {
				last = cur.Points[0]
			}
			flush()
			cur.Points = append(cur.Points, last)
		}
	}
	flush()
	return out
}

// Contour is one flattened subpath.
type Contour struct {
	Points []geom.Point
	Closed bool
}

// DefaultTolerance is the flattening tolerance in device pixels.
const DefaultTolerance = 0.25

// maxSubdivision bounds curve recursion for degenerate inputs.
const maxSubdivision = 16

func lerp(a, b geom.Point, t float64) geom.Point {
	return geom.Pt(a.X+(b.X-a.X)*t, a.Y+(b.Y-a.Y)*t)
}

func flattenQuad(dst []geom.Point, p0, p1, p2 geom.Point, tol float64, depth int) []geom.Point {
	if depth >= maxSubdivision || distanceToLine(p1, p0, p2) < tol {
		return append(dst, p2)
	}
	q0 := lerp(p0, p1, 0.5)
	q1 := lerp(p1, p2, 0.5)
	q2 := lerp(q0, q1, 0.5)
	dst = flattenQuad(dst, p0, q0, q2, tol, depth+1)
	return flattenQuad(dst, q2, q1, p2, tol, depth+1)
}

func flattenCubic(dst []geom.Point, p0, p1, p2, p3 geom.Point, tol float64, depth int) []geom.Point {
	d := math.Max(distanceToLine(p1, p0, p3), distanceToLine(p2, p0, p3))
	if depth >= maxSubdivision || d < tol {
		return append(dst, p3)
	}
	q0 := lerp(p0, p1, 0.5)
	q1 := lerp(p1, p2, 0.5)
	q2 := lerp(p2, p3, 0.5)
	r0 := lerp(q0, q1, 0.5)
	r1 := lerp(q1, q2, 0.5)
	s := lerp(r0, r1, 0.5)
	dst = flattenCubic(dst, p0, q0, r0, s, tol, depth+1)
	return flattenCubic(dst, s, r1, q2, p3, tol, depth+1)
}

// distanceToLine calculates the distance from p to segment (a, b).
func distanceToLine(p, a, b geom.Point) float64 {
	ab := b.Sub(a)
	abLen := ab.Length()
	if abLen < 1e-10 {
		return p.Sub(a).Length()
	}
	ap := p.Sub(a)
	t := (ap.X*ab.X + ap.Y*ab.Y) / (abLen * abLen)
	switch {
	case t < 0:
		return p.Sub(a).Length()
	case t > 1:
		return p.Sub(b).Length()
	}
	return p.Sub(a.Add(ab.Mul(t))).Length()
}
