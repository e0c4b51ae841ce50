package device

import (
	"slices"

	"github.com/gogpu/gputypes"
)

// Caps describe what a device can do. The zero value is a device with no
// optional features.
type Caps struct {
	MaxTextureSize      int
	MaxRenderTargetSize int

	// NPOTTextureTileSupport is false when non-power-of-two textures cannot
	// use repeat addressing.
	NPOTTextureTileSupport bool

	// HWAALines reports hardware antialiased line support.
	HWAALines bool

	// StencilSupport reports that stencil buffers can be created.
	StencilSupport bool

	// MSAA reports multisampled render target support.
	MSAA bool

	// CoverageAA reports that per-vertex coverage is applied by the device.
	CoverageAA bool

	PaletteSupport bool

	RenderableFormats []gputypes.TextureFormat

	// PreserveUnpremul is true when premultiply/unpremultiply round trips
	// are lossless on the device, so the CPU path is not needed.
	PreserveUnpremul bool

	// FullReadFasterThanPartial favors exact-size scratch targets for
	// reads that cover the whole source.
	FullReadFasterThanPartial bool

	// ReadFlipCostly is true when ReadPixels with invertY is slower than
	// flipping through a draw.
	ReadFlipCostly bool

	// ReadFormat is the 8888 layout the device reads back natively.
	// Undefined means any 8888 layout is native.
	ReadFormat gputypes.TextureFormat
}

// PreferredReadFormat returns the layout the device would rather read
// when asked for f.
func (c Caps) PreferredReadFormat(f gputypes.TextureFormat) gputypes.TextureFormat {
	if c.ReadFormat != gputypes.TextureFormatUndefined && Is8888(f) {
		return c.ReadFormat
	}
	return f
}

// IsRenderable reports whether f can back a render target.
func (c Caps) IsRenderable(f gputypes.TextureFormat) bool {
	return slices.Contains(c.RenderableFormats, f)
}
