// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package path

import (
	"math"

	"github.com/gogpu/gr/geom"
)

// convexityEpsilon is the tolerance for cross product comparisons.
// Values below this threshold are treated as zero (collinear edges).
const convexityEpsilon = 1e-10

// Convexity is the result of analyzing a single closed polygon.
type Convexity struct {
	// Convex is true if every turn goes the same way and the boundary
	// winds around its interior exactly once.
	Convex bool

	// Winding is +1 for counter-clockwise (y-down: clockwise on screen),
	// -1 for the opposite direction, 0 for degenerate input.
	Winding int
}

// AnalyzeConvexity checks whether points form a strictly convex polygon.
// The polygon is implicitly closed. Collinear edges are permitted.
//
// Sign consistency alone accepts star polygons such as a pentagram, so
// the total turning angle is also required to be one full turn.
func AnalyzeConvexity(points []geom.Point) Convexity {
	points = dedupe(points)
	n := len(points)
	if n < 3 {
		return Convexity{}
	}

	var positive, negative int
	var turning float64
	for i := 0; i < n; i++ {
		p0 := points[i]
		p1 := points[(i+1)%n]
		p2 := points[(i+2)%n]

		e1 := p1.Sub(p0)
		e2 := p2.Sub(p1)
		cross := e1.Cross(e2)

		if cross > convexityEpsilon {
			positive++
		} else if cross < -convexityEpsilon {
			negative++
		}
		turning += math.Atan2(cross, e1.X*e2.X+e1.Y*e2.Y)
	}

	var res Convexity
	switch {
	case positive > 0 && negative == 0:
		res.Winding = 1
	case negative > 0 && positive == 0:
		res.Winding = -1
	default:
		return res
	}
	res.Convex = math.Abs(math.Abs(turning)-2*math.Pi) < 1e-6
	return res
}

// IsConvex reports whether the path is a single closed convex contour.
func (p *Path) IsConvex() bool {
	if p.IsEmpty() {
		return false
	}
	if _, ok := p.IsOval(); ok {
		return true
	}
	cs := p.Contours(DefaultTolerance)
	if len(cs) != 1 {
		return false
	}
	return AnalyzeConvexity(cs[0].Points).Convex
}

// dedupe drops consecutive duplicate points including the closing one.
func dedupe(points []geom.Point) []geom.Point {
	out := make([]geom.Point, 0, len(points))
	for _, pt := range points {
		if len(out) > 0 && out[len(out)-1] == pt {
			continue
		}
		out = append(out, pt)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}
