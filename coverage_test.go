package gr

import (
	"testing"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

func checkMesh(t *testing.T, call *device.DrawCall) {
	t.Helper()
	if len(call.Coverages) != len(call.Positions) {
		t.Fatalf("coverages = %d, positions = %d", len(call.Coverages), len(call.Positions))
	}
	if len(call.Indices)%3 != 0 {
		t.Fatalf("index count %d is not a triangle list", len(call.Indices))
	}
	for _, ix := range call.Indices {
		if int(ix) >= len(call.Positions) {
			t.Fatalf("index %d out of range %d", ix, len(call.Positions))
		}
	}
}

func TestFillAARect(t *testing.T) {
	call := fillAARect(geom.XYWH(10, 10, 4, 2))
	checkMesh(t, call)
	if got := len(call.Positions); got != 8 {
		t.Fatalf("positions = %d, want 8", got)
	}
	if call.Positions[0] != geom.Pt(9.5, 9.5) {
		t.Errorf("outer corner = %v", call.Positions[0])
	}
	if call.Positions[4] != geom.Pt(10.5, 10.5) {
		t.Errorf("inner corner = %v", call.Positions[4])
	}
	if call.Coverages[0] != 0 || call.Coverages[4] != 1 {
		t.Errorf("coverages = %v", call.Coverages)
	}
}

func TestFillAARectThin(t *testing.T) {
	call := fillAARect(geom.XYWH(0, 0, 0.5, 4))
	checkMesh(t, call)
	if got := call.Coverages[4]; got != 0.5 {
		t.Errorf("inner coverage = %v, want 0.5", got)
	}
	// The inner ring collapses onto the center line.
	if call.Positions[4].X != 0.25 || call.Positions[5].X != 0.25 {
		t.Errorf("inner ring x = %v, %v", call.Positions[4].X, call.Positions[5].X)
	}
}

func TestStrokeAARect(t *testing.T) {
	tests := []struct {
		name      string
		stroke    geom.Point
		positions int
	}{
		{"wide", geom.Pt(4, 4), 16},
		{"thin", geom.Pt(0.5, 0.5), 12},
		{"fills the interior", geom.Pt(20, 20), 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call := strokeAARect(geom.XYWH(0, 0, 10, 10), tt.stroke)
			checkMesh(t, call)
			if got := len(call.Positions); got != tt.positions {
				t.Errorf("positions = %d, want %d", got, tt.positions)
			}
		})
	}
}

func TestOvalSegments(t *testing.T) {
	if n := ovalSegments(0); n != minOvalSegments {
		t.Errorf("ovalSegments(0) = %d", n)
	}
	if n := ovalSegments(1); n != minOvalSegments {
		t.Errorf("ovalSegments(1) = %d", n)
	}
	if n := ovalSegments(1e6); n != maxOvalSegments {
		t.Errorf("ovalSegments(1e6) = %d", n)
	}
	if a, b := ovalSegments(20), ovalSegments(80); a >= b {
		t.Errorf("segments do not grow with radius: %d, %d", a, b)
	}
}

func TestCircleMeshes(t *testing.T) {
	for _, r := range []float64{0.25, 0.5, 1, 10, 100} {
		fill := fillAACircle(geom.Pt(50, 50), r)
		checkMesh(t, fill)
		if fill.Positions[0] != geom.Pt(50, 50) {
			t.Errorf("r=%v: first vertex %v is not the center", r, fill.Positions[0])
		}
		checkMesh(t, hairlineAACircle(geom.Pt(50, 50), r))
	}
	small := fillAACircle(geom.Pt(0, 0), 0.25)
	if small.Coverages[0] != 0.5 {
		t.Errorf("center coverage of a tiny circle = %v, want 0.5", small.Coverages[0])
	}
}

func TestStrokeRectStripCorners(t *testing.T) {
	pts := setStrokeRectStrip(geom.XYWH(0, 0, 10, 10), 2)
	if len(pts) != 10 {
		t.Fatalf("len = %d", len(pts))
	}
	if pts[0] != pts[8] || pts[1] != pts[9] {
		t.Error("strip does not close")
	}
	if pts[0] != geom.Pt(-1, -1) || pts[1] != geom.Pt(1, 1) {
		t.Errorf("first pair = %v, %v", pts[0], pts[1])
	}
}
