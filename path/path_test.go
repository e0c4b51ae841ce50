package path

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/gr/geom"
)

func star() *Path {
	p := New()
	for i := 0; i < 5; i++ {
		a := float64(i*2)*2*math.Pi/5 - math.Pi/2
		x, y := 50+40*math.Cos(a), 50+40*math.Sin(a)
		if i == 0 {
			p.MoveTo(x, y)
		} else {
			p.LineTo(x, y)
		}
	}
	p.Close()
	return p
}

func TestConvexity(t *testing.T) {
	tri := New()
	tri.MoveTo(0, 0)
	tri.LineTo(10, 0)
	tri.LineTo(5, 10)
	tri.Close()

	concave := New()
	concave.MoveTo(0, 0)
	concave.LineTo(10, 0)
	concave.LineTo(5, 3)
	concave.LineTo(10, 10)
	concave.LineTo(0, 10)
	concave.Close()

	tests := []struct {
		name string
		p    *Path
		want bool
	}{
		{"triangle", tri, true},
		{"rect", NewRect(geom.XYWH(1, 1, 5, 5)), true},
		{"oval", NewOval(geom.XYWH(0, 0, 20, 10)), true},
		{"concave", concave, false},
		{"pentagram", star(), false},
		{"empty", New(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.IsConvex())
		})
	}
}

func TestAnalyzeConvexityWinding(t *testing.T) {
	cw := []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	ccw := []geom.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}}
	assert.Equal(t, 1, AnalyzeConvexity(cw).Winding)
	assert.Equal(t, -1, AnalyzeConvexity(ccw).Winding)

	line := []geom.Point{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 10, Y: 0}}
	assert.False(t, AnalyzeConvexity(line).Convex)
}

func TestOvalMarkerClearedByMutation(t *testing.T) {
	p := NewOval(geom.XYWH(10, 10, 20, 20))
	r, ok := p.IsOval()
	require.True(t, ok)
	assert.Equal(t, geom.XYWH(10, 10, 20, 20), r)

	moved := p.Offset(5, 0)
	r, ok = moved.IsOval()
	require.True(t, ok)
	assert.InDelta(t, 15, r.Left, 1e-9)

	p.LineTo(0, 0)
	_, ok = p.IsOval()
	assert.False(t, ok)
}

func TestContours(t *testing.T) {
	p := New()
	p.MoveTo(0, 0)
	p.QuadTo(50, 100, 100, 0)
	p.Close()
	p.MoveTo(200, 200)
	p.LineTo(210, 200)

	cs := p.Contours(0.1)
	require.Len(t, cs, 2)
	assert.True(t, cs[0].Closed)
	assert.Greater(t, len(cs[0].Points), 4)
	assert.Equal(t, geom.Pt(100, 0), cs[0].Points[len(cs[0].Points)-1])
	assert.False(t, cs[1].Closed)
	assert.Len(t, cs[1].Points, 2)
}

func TestFillRule(t *testing.T) {
	assert.True(t, InverseEvenOdd.IsInverse())
	assert.Equal(t, EvenOdd, InverseEvenOdd.NonInverse())
	assert.Equal(t, NonZero, NonZero.NonInverse())
	assert.True(t, InverseEvenOdd.IsEvenOdd())
	assert.False(t, Hairline.IsInverse())
	assert.Equal(t, "Hairline", Hairline.String())
}

func TestBoundsAndClone(t *testing.T) {
	p := NewRect(geom.XYWH(2, 3, 4, 5))
	c := p.Clone()
	c.LineTo(100, 100)
	assert.Equal(t, geom.Rect{Left: 2, Top: 3, Right: 6, Bottom: 8}, p.Bounds())
	assert.NotEqual(t, p.Bounds(), c.Bounds())
}
