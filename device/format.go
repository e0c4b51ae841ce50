package device

import "github.com/gogpu/gputypes"

// BytesPerPixel returns the storage size of one pixel, or 0 for formats the
// core does not transfer.
func BytesPerPixel(f gputypes.TextureFormat) int {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return 4
	case gputypes.TextureFormatR8Unorm:
		return 1
	}
	return 0
}

// Is8888 reports whether f is one of the 32-bit RGBA layouts.
func Is8888(f gputypes.TextureFormat) bool {
	return f == gputypes.TextureFormatRGBA8Unorm || f == gputypes.TextureFormatBGRA8Unorm
}

// SwapRB returns the 8888 format with red and blue exchanged. Other formats
// are returned unchanged.
func SwapRB(f gputypes.TextureFormat) gputypes.TextureFormat {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm:
		return gputypes.TextureFormatBGRA8Unorm
	case gputypes.TextureFormatBGRA8Unorm:
		return gputypes.TextureFormatRGBA8Unorm
	}
	return f
}

// FormatName returns a short name for diagnostics.
func FormatName(f gputypes.TextureFormat) string {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm:
		return "rgba8"
	case gputypes.TextureFormatBGRA8Unorm:
		return "bgra8"
	case gputypes.TextureFormatR8Unorm:
		return "r8"
	case gputypes.TextureFormatDepth24PlusStencil8:
		return "d24s8"
	case gputypes.TextureFormatUndefined:
		return "undefined"
	}
	return "other"
}
