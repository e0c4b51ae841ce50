package geom

import "math"

// Rect is an axis-aligned rectangle with float coordinates.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// XYWH creates a Rect from origin and size.
func XYWH(x, y, w, h float64) Rect {
	return Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// Width returns the rectangle width.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the rectangle height.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// IsEmpty reports whether the rectangle encloses no area.
func (r Rect) IsEmpty() bool { return !(r.Left < r.Right && r.Top < r.Bottom) }

// Sort returns r with Left <= Right and Top <= Bottom.
func (r Rect) Sort() Rect {
	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Top > r.Bottom {
		r.Top, r.Bottom = r.Bottom, r.Top
	}
	return r
}

// Offset returns r translated by (dx, dy).
func (r Rect) Offset(dx, dy float64) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

// Inset returns r shrunk by (dx, dy) on each side. Negative values grow it.
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right - dx, Bottom: r.Bottom - dy}
}

// Scale returns r with each coordinate scaled.
func (r Rect) Scale(sx, sy float64) Rect {
	return Rect{Left: r.Left * sx, Top: r.Top * sy, Right: r.Right * sx, Bottom: r.Bottom * sy}
}

// IsIntegral reports whether all edges lie on integer coordinates.
func (r Rect) IsIntegral() bool {
	return r.Left == math.Trunc(r.Left) && r.Top == math.Trunc(r.Top) &&
		r.Right == math.Trunc(r.Right) && r.Bottom == math.Trunc(r.Bottom)
}

// RoundOut returns the smallest IRect containing r.
func (r Rect) RoundOut() IRect {
	return IRect{
		Left:   int(math.Floor(r.Left)),
		Top:    int(math.Floor(r.Top)),
		Right:  int(math.Ceil(r.Right)),
		Bottom: int(math.Ceil(r.Bottom)),
	}
}

// BoundsOf returns the bounding box of pts. An empty slice yields a zero Rect.
func BoundsOf(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{Left: pts[0].X, Top: pts[0].Y, Right: pts[0].X, Bottom: pts[0].Y}
	for _, p := range pts[1:] {
		r.Left = math.Min(r.Left, p.X)
		r.Top = math.Min(r.Top, p.Y)
		r.Right = math.Max(r.Right, p.X)
		r.Bottom = math.Max(r.Bottom, p.Y)
	}
	return r
}

// IRect is an axis-aligned rectangle with integer coordinates.
type IRect struct {
	Left, Top, Right, Bottom int
}

// IXYWH creates an IRect from origin and size.
func IXYWH(x, y, w, h int) IRect {
	return IRect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// Width returns the rectangle width.
func (r IRect) Width() int { return r.Right - r.Left }

// Height returns the rectangle height.
func (r IRect) Height() int { return r.Bottom - r.Top }

// IsEmpty reports whether the rectangle encloses no pixels.
func (r IRect) IsEmpty() bool { return r.Left >= r.Right || r.Top >= r.Bottom }

// Intersect returns the intersection of r and o and whether it is non-empty.
func (r IRect) Intersect(o IRect) (IRect, bool) {
	out := IRect{
		Left:   max(r.Left, o.Left),
		Top:    max(r.Top, o.Top),
		Right:  min(r.Right, o.Right),
		Bottom: min(r.Bottom, o.Bottom),
	}
	return out, !out.IsEmpty()
}

// Contains reports whether o lies entirely inside r.
func (r IRect) Contains(o IRect) bool {
	return o.Left >= r.Left && o.Top >= r.Top && o.Right <= r.Right && o.Bottom <= r.Bottom
}

// ToRect converts r to a float Rect.
func (r IRect) ToRect() Rect {
	return Rect{Left: float64(r.Left), Top: float64(r.Top), Right: float64(r.Right), Bottom: float64(r.Bottom)}
}
