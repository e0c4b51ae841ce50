// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pathrender selects and runs path renderers.
//
// A Chain holds renderers in a fixed priority order. For each path the
// first renderer that reports it can draw the path wins:
//
//	convex -> hairline -> stencil -> registered -> software
//
// The software renderer rasterizes a coverage mask on the CPU and can
// draw any path. Callers may exclude it, in which case a path no GPU
// renderer accepts is skipped.
package pathrender

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/drawstate"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/path"
)

// Kind distinguishes GPU renderers from the CPU fallback.
type Kind uint8

const (
	KindSpecialized Kind = iota
	KindSoftware
)

// Renderer draws paths it reports as drawable.
type Renderer interface {
	Name() string
	Kind() Kind

	// CanDrawPath reports whether the renderer handles p with fill and
	// antialiasing setting aa. It must not have side effects.
	CanDrawPath(p *path.Path, fill path.FillRule, aa bool) bool

	// DrawPath draws p offset by translate with the host's current state.
	DrawPath(h Host, p *path.Path, fill path.FillRule, translate geom.Point, aa bool) error
}

// Host is the rendering context a renderer draws through.
type Host interface {
	Caps() device.Caps

	// DrawState returns the live draw state stack. Renderers change state
	// only through guards and restore it before returning.
	DrawState() *drawstate.Stack

	// Draw submits call with the current state.
	Draw(call *device.DrawCall) error

	LockScratchTexture(desc device.TextureDesc, exact bool) (device.Texture, error)
	UnlockTexture(tex device.Texture)

	// WriteTexturePixels uploads pixels. Pending draws are flushed first.
	WriteTexturePixels(tex device.Texture, rect geom.IRect, format gputypes.TextureFormat, src []byte, rowBytes int) error

	LockStencilBuffer(width, height, sampleCount int) (device.StencilBuffer, error)
	UnlockStencilBuffer(sb device.StencilBuffer)
}

// deviceContours flattens p, applies translate and the view matrix.
func deviceContours(p *path.Path, translate geom.Point, view geom.Matrix) []path.Contour {
	cs := p.Contours(path.DefaultTolerance)
	for i := range cs {
		for j, pt := range cs[i].Points {
			cs[i].Points[j] = view.TransformPoint(pt.Add(translate))
		}
	}
	return cs
}

// targetBounds returns the drawable device rectangle: the render target,
// intersected with the clip when the state has clipping enabled.
func targetBounds(st *device.DrawState) (geom.IRect, bool) {
	rt := st.RenderTarget
	b := geom.IXYWH(0, 0, rt.Width(), rt.Height())
	if st.Flags.Has(device.StateClip) && st.Clip.Enabled {
		return b.Intersect(st.Clip.Rect)
	}
	return b, !b.IsEmpty()
}
