// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"errors"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/geom"
)

var (
	// ErrDeviceLost is returned by operations on an abandoned device.
	ErrDeviceLost = errors.New("device: device lost")

	// ErrOutOfMemory is returned when an allocation exceeds device limits.
	ErrOutOfMemory = errors.New("device: out of memory")

	// ErrInvalidResource is returned when a released resource is used.
	ErrInvalidResource = errors.New("device: invalid resource")

	// ErrUnsupported is returned for formats or features the device lacks.
	ErrUnsupported = errors.New("device: unsupported")
)

// Device is the GPU driver the core submits work to.
type Device interface {
	Caps() Caps

	// CreateTexture allocates a texture. data may be nil; otherwise it
	// holds the initial pixels in desc.Format with the given row stride.
	CreateTexture(desc TextureDesc, data []byte, rowBytes int) (Texture, error)

	CreateStencilBuffer(width, height, sampleCount int) (StencilBuffer, error)

	// SetClip sets the clip applied to draws that carry StateClip.
	SetClip(clip Clip) error

	// Clear fills rect of rt with color, ignoring the clip.
	Clear(rt RenderTarget, rect geom.IRect, color gputypes.Color) error

	Draw(state *DrawState, call *DrawCall) error

	// ReadPixels copies rect of rt into dst converting to format. With
	// invertY the rows are written bottom-up.
	ReadPixels(rt RenderTarget, rect geom.IRect, format gputypes.TextureFormat, dst []byte, rowBytes int, invertY bool) error

	WriteTexturePixels(tex Texture, rect geom.IRect, format gputypes.TextureFormat, src []byte, rowBytes int) error

	// ResolveRenderTarget resolves a multisampled target into its texture.
	ResolveRenderTarget(rt RenderTarget) error

	// FlushRenderTarget forces pending device work on rt to complete.
	FlushRenderTarget(rt RenderTarget) error

	// PurgeResources frees device-side caches.
	PurgeResources()

	// AbandonResources marks every live resource abandoned after the
	// underlying context was lost.
	AbandonResources()

	// MarkContextDirty tells the device its cached API state is stale.
	MarkContextDirty()
}

// ProgramLoader is implemented by devices that accept precompiled shader
// programs as SPIR-V words.
type ProgramLoader interface {
	LoadProgram(label string, spirv []uint32) error
}
