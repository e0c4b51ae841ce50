package geom

import "math"

// Matrix is a 2D affine transform stored as the top two rows of a 3x3
// matrix:
//
//	x' = A*x + B*y + C
//	y' = D*x + E*y + F
//
// View matrices map local coordinates to device pixels. Sampler matrices
// map local coordinates to normalized texture coordinates.
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

func Identity() Matrix { return Matrix{A: 1, E: 1} }

func Translate(x, y float64) Matrix { return Matrix{A: 1, C: x, E: 1, F: y} }

func Scale(x, y float64) Matrix { return Matrix{A: x, E: y} }

// IDiv maps the pixel grid of a w x h texture onto [0,1].
func IDiv(w, h int) Matrix {
	return Scale(1/float64(w), 1/float64(h))
}

// Multiply returns m * o, the transform applying o first.
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		A: m.A*o.A + m.B*o.D,
		B: m.A*o.B + m.B*o.E,
		C: m.A*o.C + m.B*o.F + m.C,
		D: m.D*o.A + m.E*o.D,
		E: m.D*o.B + m.E*o.E,
		F: m.D*o.C + m.E*o.F + m.F,
	}
}

// PreConcat returns m * other: other is applied to points before m.
func (m Matrix) PreConcat(other Matrix) Matrix {
	return m.Multiply(other)
}

// PostConcat returns other * m: other is applied to points after m.
func (m Matrix) PostConcat(other Matrix) Matrix {
	return other.Multiply(m)
}

// PostIDiv appends a normalization by a w x h texture size.
func (m Matrix) PostIDiv(w, h int) Matrix {
	return m.PostConcat(IDiv(w, h))
}

func (m Matrix) TransformPoint(p Point) Point {
	return Pt(m.A*p.X+m.B*p.Y+m.C, m.D*p.X+m.E*p.Y+m.F)
}

// TransformVector maps an offset, ignoring translation.
func (m Matrix) TransformVector(p Point) Point {
	return Pt(m.A*p.X+m.B*p.Y, m.D*p.X+m.E*p.Y)
}

// Invert returns the inverse of m. For a singular m it returns the identity
// and false.
func (m Matrix) Invert() (Matrix, bool) {
	det := m.A*m.E - m.B*m.D
	if math.Abs(det) < 1e-10 {
		return Identity(), false
	}

	inv := 1 / det
	return Matrix{
		A: m.E * inv, B: -m.B * inv, C: (m.B*m.F - m.C*m.E) * inv,
		D: -m.D * inv, E: m.A * inv, F: (m.C*m.D - m.A*m.F) * inv,
	}, true
}

func (m Matrix) IsIdentity() bool { return m == Identity() }

// IsTranslation reports whether m only moves points.
func (m Matrix) IsTranslation() bool {
	return m.A == 1 && m.B == 0 && m.D == 0 && m.E == 1
}

// PreservesAxisAlignment reports whether axis-aligned rectangles stay
// axis-aligned under m (scale, translate and 90 degree rotations).
func (m Matrix) PreservesAxisAlignment() bool {
	return (m.B == 0 && m.D == 0) || (m.A == 0 && m.E == 0)
}

// MapRect returns the bounds of r after transformation.
func (m Matrix) MapRect(r Rect) Rect {
	pts := [4]Point{
		m.TransformPoint(Point{X: r.Left, Y: r.Top}),
		m.TransformPoint(Point{X: r.Right, Y: r.Top}),
		m.TransformPoint(Point{X: r.Right, Y: r.Bottom}),
		m.TransformPoint(Point{X: r.Left, Y: r.Bottom}),
	}
	return BoundsOf(pts[:])
}
