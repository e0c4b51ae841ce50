package gr

// FlushFlags modify Flush.
type FlushFlags uint8

const (
	// FlushDiscard drops buffered draws instead of executing them.
	FlushDiscard FlushFlags = 1 << iota
	// FlushForceCurrentRenderTarget also asks the device to submit the
	// work queued for the current render target.
	FlushForceCurrentRenderTarget
)

// PixelOpsFlags modify pixel reads and writes.
type PixelOpsFlags uint8

const (
	// PixelOpsDontFlush skips the flush that normally precedes a pixel
	// transfer. Reads may then miss pending draws.
	PixelOpsDontFlush PixelOpsFlags = 1 << iota
	// PixelOpsUnpremul treats the client buffer as unpremultiplied.
	PixelOpsUnpremul
)
