// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Resource is a GPU object with an identity and a byte cost.
type Resource interface {
	// ID returns a process-unique identifier. IDs are never reused.
	ID() uint64

	// SizeBytes returns the approximate GPU memory used by the resource.
	SizeBytes() int64

	// Release frees the GPU memory. Safe to call more than once.
	Release()

	// Abandon marks the resource unusable without touching the driver.
	// Used when the underlying context has been lost.
	Abandon()

	// IsValid reports whether the resource is neither released nor abandoned.
	IsValid() bool
}

// TextureFlags describe how a texture may be used.
type TextureFlags uint8

const (
	// FlagRenderTarget requests a texture that can be rendered into.
	FlagRenderTarget TextureFlags = 1 << iota
	// FlagNoStencil hints that the render target never needs a stencil buffer.
	FlagNoStencil
)

// Has reports whether all bits of o are set.
func (f TextureFlags) Has(o TextureFlags) bool { return f&o == o }

// Usage maps the flags to WebGPU texture usage bits.
func (f TextureFlags) Usage() gputypes.TextureUsage {
	u := gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc
	if f.Has(FlagRenderTarget) {
		u |= gputypes.TextureUsageRenderAttachment
	}
	return u
}

// String returns a compact flag list.
func (f TextureFlags) String() string {
	s := ""
	if f.Has(FlagRenderTarget) {
		s += "rt"
	}
	if f.Has(FlagNoStencil) {
		if s != "" {
			s += "|"
		}
		s += "nostencil"
	}
	if s == "" {
		return "none"
	}
	return s
}

// TextureDesc describes a texture to create.
type TextureDesc struct {
	Flags       TextureFlags
	Width       int
	Height      int
	Format      gputypes.TextureFormat
	SampleCount int
}

// String returns a diagnostic representation.
func (d TextureDesc) String() string {
	return fmt.Sprintf("%dx%d %s flags=%s samples=%d", d.Width, d.Height, FormatName(d.Format), d.Flags, d.SampleCount)
}

// Size returns the texture extent.
func (d TextureDesc) Size() gputypes.Extent3D {
	return gputypes.Extent3D{Width: uint32(d.Width), Height: uint32(d.Height), DepthOrArrayLayers: 1}
}

// Texture is a sampled GPU image.
type Texture interface {
	Resource
	Desc() TextureDesc
	Width() int
	Height() int
	Format() gputypes.TextureFormat

	// RenderTarget returns the render target view of the texture, or nil
	// when the texture was created without FlagRenderTarget.
	RenderTarget() RenderTarget
}

// RenderTarget is a surface draws write into.
type RenderTarget interface {
	Resource
	Width() int
	Height() int
	Format() gputypes.TextureFormat
	SampleCount() int

	// Texture returns the backing texture, or nil for targets that cannot
	// be sampled (for example a window surface).
	Texture() Texture
}

// StencilBuffer is a stencil attachment that can be shared by any render
// target of matching size and sample count.
type StencilBuffer interface {
	Resource
	Width() int
	Height() int
	SampleCount() int
}

// TextureParams control how a texture is sampled.
type TextureParams struct {
	Filter gputypes.FilterMode
	// Tiled selects repeat addressing instead of clamp to edge.
	Tiled bool
}

// Filtered reports whether bilinear filtering is requested.
func (p TextureParams) Filtered() bool {
	return p.Filter == gputypes.FilterModeLinear
}
