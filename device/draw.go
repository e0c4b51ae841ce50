package device

import "github.com/gogpu/gr/geom"

// Primitive is the topology of a draw call.
type Primitive uint8

const (
	PrimitiveTriangles Primitive = iota
	PrimitiveTriangleStrip
	PrimitiveTriangleFan
	PrimitiveLines
	PrimitiveLineStrip
)

var primitiveNames = [...]string{
	PrimitiveTriangles:     "Triangles",
	PrimitiveTriangleStrip: "TriangleStrip",
	PrimitiveTriangleFan:   "TriangleFan",
	PrimitiveLines:         "Lines",
	PrimitiveLineStrip:     "LineStrip",
}

// String returns the primitive name.
func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "Unknown"
}

// DrawCall is a batch of vertices. Optional attribute slices are either
// empty or the same length as Positions.
type DrawCall struct {
	Primitive Primitive
	Positions []geom.Point
	TexCoords []geom.Point
	// Coverages holds per-vertex coverage in [0,1].
	Coverages []float32
	Indices   []uint16
}

// VertexCount returns the number of vertices the call emits.
func (c *DrawCall) VertexCount() int {
	if len(c.Indices) > 0 {
		return len(c.Indices)
	}
	return len(c.Positions)
}

// Clone returns a deep copy.
func (c *DrawCall) Clone() *DrawCall {
	return &DrawCall{
		Primitive: c.Primitive,
		Positions: cloneSlice(c.Positions),
		TexCoords: cloneSlice(c.TexCoords),
		Coverages: cloneSlice(c.Coverages),
		Indices:   cloneSlice(c.Indices),
	}
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// RectCall returns a triangle fan covering r.
func RectCall(r geom.Rect) *DrawCall {
	return &DrawCall{
		Primitive: PrimitiveTriangleFan,
		Positions: []geom.Point{
			{X: r.Left, Y: r.Top},
			{X: r.Right, Y: r.Top},
			{X: r.Right, Y: r.Bottom},
			{X: r.Left, Y: r.Bottom},
		},
	}
}
