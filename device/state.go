// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/geom"
)

// NumStages is the number of texture stages a draw can bind.
const NumStages = 4

// DefaultFirstCoverageStage is the first stage whose output modulates
// coverage instead of color.
const DefaultFirstCoverageStage = 2

// Clip is a device-space scissor rectangle.
type Clip struct {
	Rect    geom.IRect
	Enabled bool
}

// NoClip is the disabled clip.
var NoClip = Clip{}

// EffectKind selects a per-stage image filter.
type EffectKind uint8

const (
	// EffectNone samples the texture directly.
	EffectNone EffectKind = iota
	// EffectConvolution applies a 1D separable kernel.
	EffectConvolution
	// EffectDilate takes the channel-wise maximum over the radius.
	EffectDilate
	// EffectErode takes the channel-wise minimum over the radius.
	EffectErode
)

// Direction is the axis of a 1D effect.
type Direction uint8

const (
	DirectionX Direction = iota
	DirectionY
)

// Effect is a 1D filter applied when sampling a stage.
type Effect struct {
	Kind      EffectKind
	Direction Direction
	Radius    int
	// Kernel holds 2*Radius+1 weights for EffectConvolution.
	Kernel []float32
}

// Sampler binds a texture to a stage.
type Sampler struct {
	Texture Texture

	// Matrix maps stage coordinates to normalized texture coordinates.
	// Stage coordinates are the draw's texture coordinates when present,
	// otherwise its local (pre-view-matrix) positions.
	Matrix geom.Matrix
	Params TextureParams

	SwapRB      bool
	Premultiply bool
	Effect      Effect
}

// Enabled reports whether a texture is bound.
func (s Sampler) Enabled() bool { return s.Texture != nil }

// StateFlags toggle optional draw behavior.
type StateFlags uint8

const (
	StateDither StateFlags = 1 << iota
	StateHWAntialias
	// StateClip applies the device's current clip.
	StateClip
	StateColorMatrix
	// StateUnpremultiply converts the output color to unpremultiplied
	// alpha before it is written.
	StateUnpremultiply
)

// Has reports whether all bits of o are set.
func (f StateFlags) Has(o StateFlags) bool { return f&o == o }

// StencilPass selects how a draw uses the bound stencil buffer.
type StencilPass uint8

const (
	// StencilOff disables stencil.
	StencilOff StencilPass = iota
	// StencilWriteWinding adds the triangle winding to the stencil and
	// writes no color.
	StencilWriteWinding
	// StencilWriteEvenOdd toggles the stencil parity and writes no color.
	StencilWriteEvenOdd
	// StencilCoverNonZero draws where the stencil is non-zero and clears it.
	StencilCoverNonZero
	// StencilCoverZero draws where the stencil is zero and clears it.
	StencilCoverZero
)

// Stencil is the stencil configuration of a draw.
type Stencil struct {
	Pass   StencilPass
	Buffer StencilBuffer
}

// DrawState is the complete state a draw is submitted with.
type DrawState struct {
	RenderTarget RenderTarget
	ViewMatrix   geom.Matrix
	Clip         Clip

	Samplers           [NumStages]Sampler
	FirstCoverageStage int

	SrcBlend gputypes.BlendFactor
	DstBlend gputypes.BlendFactor

	// Color is premultiplied.
	Color    gputypes.Color
	Coverage float64
	Flags    StateFlags

	// ColorFilter, when set, modulates the output color.
	ColorFilter *gputypes.Color
	// ColorMatrix is a row-major 4x5 matrix applied to the unpremultiplied
	// color when StateColorMatrix is set.
	ColorMatrix [20]float32

	Stencil Stencil
}

// DefaultDrawState returns a state with identity matrices, opaque white,
// full coverage and src-over blending.
func DefaultDrawState() DrawState {
	var s DrawState
	s.Reset()
	return s
}

// Reset restores every field except the render target to its default.
func (s *DrawState) Reset() {
	rt := s.RenderTarget
	*s = DrawState{
		RenderTarget:       rt,
		ViewMatrix:         geom.Identity(),
		FirstCoverageStage: DefaultFirstCoverageStage,
		SrcBlend:           gputypes.BlendFactorOne,
		DstBlend:           gputypes.BlendFactorOneMinusSrcAlpha,
		Color:              gputypes.Color{R: 1, G: 1, B: 1, A: 1},
		Coverage:           1,
	}
	s.ResetSamplers()
}

// ResetSamplers unbinds every stage.
func (s *DrawState) ResetSamplers() {
	for i := range s.Samplers {
		s.Samplers[i] = Sampler{Matrix: geom.Identity()}
	}
}

// StagesEnabled reports whether any stage has a texture bound.
func (s *DrawState) StagesEnabled() bool {
	for i := range s.Samplers {
		if s.Samplers[i].Enabled() {
			return true
		}
	}
	return false
}

// CanApplyCoverage reports whether the blend can fold fractional coverage
// into the result without changing semantics.
func (s *DrawState) CanApplyCoverage() bool {
	switch s.DstBlend {
	case gputypes.BlendFactorOne, gputypes.BlendFactorOneMinusSrcAlpha:
	default:
		return false
	}
	return s.SrcBlend == gputypes.BlendFactorOne || s.SrcBlend == gputypes.BlendFactorSrcAlpha
}

// SetBlend sets both blend factors.
func (s *DrawState) SetBlend(src, dst gputypes.BlendFactor) {
	s.SrcBlend, s.DstBlend = src, dst
}
