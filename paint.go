package gr

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// Paint stage layout. Texture stages modulate the color; mask stages
// modulate coverage.
const (
	MaxTextures = device.DefaultFirstCoverageStage
	MaxMasks    = device.NumStages - device.DefaultFirstCoverageStage
)

// BlendMode selects the blend coefficients of a draw.
type BlendMode uint8

const (
	// BlendSourceOver composites the source over the destination.
	BlendSourceOver BlendMode = iota
	// BlendSource replaces the destination.
	BlendSource
	// BlendPlus adds source and destination.
	BlendPlus
	// BlendDestinationOut erases the destination where the source is
	// opaque.
	BlendDestinationOut
	// BlendClear writes transparent black.
	BlendClear
)

var blendModeNames = [...]string{
	BlendSourceOver:     "SourceOver",
	BlendSource:         "Source",
	BlendPlus:           "Plus",
	BlendDestinationOut: "DestinationOut",
	BlendClear:          "Clear",
}

// String returns the mode name.
func (m BlendMode) String() string {
	if int(m) < len(blendModeNames) {
		return blendModeNames[m]
	}
	return "Unknown"
}

// Factors returns the source and destination blend factors.
func (m BlendMode) Factors() (src, dst gputypes.BlendFactor) {
	switch m {
	case BlendSource:
		return gputypes.BlendFactorOne, gputypes.BlendFactorZero
	case BlendPlus:
		return gputypes.BlendFactorOne, gputypes.BlendFactorOne
	case BlendDestinationOut:
		return gputypes.BlendFactorZero, gputypes.BlendFactorOneMinusSrcAlpha
	case BlendClear:
		return gputypes.BlendFactorZero, gputypes.BlendFactorZero
	}
	return gputypes.BlendFactorOne, gputypes.BlendFactorOneMinusSrcAlpha
}

// Paint describes how a draw colors the pixels it covers. Colors are
// premultiplied.
type Paint struct {
	Color gputypes.Color
	Blend BlendMode

	Antialias bool
	Dither    bool

	// ColorFilter, when set, modulates the final color.
	ColorFilter *gputypes.Color
	// ColorMatrix, when set, is applied to the unpremultiplied color as a
	// 4x5 row-major matrix.
	ColorMatrix *[20]float32

	Textures [MaxTextures]device.Sampler
	Masks    [MaxMasks]device.Sampler
}

// NewPaint returns a source-over paint of color c.
func NewPaint(c gputypes.Color) *Paint {
	return &Paint{Color: c}
}

// SetTexture binds tex to texture stage i. m maps local coordinates to
// normalized texture coordinates.
func (p *Paint) SetTexture(i int, tex device.Texture, m geom.Matrix) {
	p.Textures[i] = device.Sampler{Texture: tex, Matrix: m}
}

// SetMask binds tex to mask stage i.
func (p *Paint) SetMask(i int, tex device.Texture, m geom.Matrix) {
	p.Masks[i] = device.Sampler{Texture: tex, Matrix: m}
}

// HasTextureOrMask reports whether any stage is bound.
func (p *Paint) HasTextureOrMask() bool {
	for i := range p.Textures {
		if p.Textures[i].Enabled() {
			return true
		}
	}
	for i := range p.Masks {
		if p.Masks[i].Enabled() {
			return true
		}
	}
	return false
}

// apply writes the paint into s. Stages the paint does not bind are
// disabled.
func (p *Paint) apply(s *device.DrawState) {
	s.ResetSamplers()
	s.FirstCoverageStage = device.DefaultFirstCoverageStage
	for i := range p.Textures {
		if p.Textures[i].Enabled() {
			s.Samplers[i] = p.Textures[i]
		}
	}
	for i := range p.Masks {
		if p.Masks[i].Enabled() {
			s.Samplers[MaxTextures+i] = p.Masks[i]
		}
	}

	s.Color = p.Color
	s.Coverage = 1
	s.SetBlend(p.Blend.Factors())

	s.Flags &^= device.StateDither | device.StateHWAntialias | device.StateColorMatrix
	if p.Dither {
		s.Flags |= device.StateDither
	}
	if p.Antialias {
		s.Flags |= device.StateHWAntialias
	}
	if p.ColorMatrix != nil {
		s.Flags |= device.StateColorMatrix
		s.ColorMatrix = *p.ColorMatrix
	}
	s.ColorFilter = nil
	if p.ColorFilter != nil {
		cf := *p.ColorFilter
		s.ColorFilter = &cf
	}
}
