package geom

import "math"

// Point is a position or offset in pixels.
type Point struct {
	X, Y float64
}

// Pt returns the point (x, y).
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Mul scales both coordinates by s.
func (p Point) Mul(s float64) Point { return Point{X: p.X * s, Y: p.Y * s} }

// Cross is the z component of the 3D cross product. Its sign gives the turn
// direction from p to q.
func (p Point) Cross(q Point) float64 { return p.X*q.Y - p.Y*q.X }

func (p Point) Length() float64 { return math.Hypot(p.X, p.Y) }

// Normalize scales p to unit length. A zero offset stays zero.
func (p Point) Normalize() Point {
	if l := p.Length(); l != 0 {
		return p.Mul(1 / l)
	}
	return p
}
