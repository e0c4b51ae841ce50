// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package device defines the contract between the rendering core and a GPU
// driver: resources (textures, render targets, stencil buffers), the draw
// state consumed by a draw, draw calls, device capabilities and pixel format
// helpers.
//
// The core never talks to a graphics API directly. Everything it needs from
// the GPU goes through the Device interface; device/memdev provides an
// in-memory implementation.
package device
