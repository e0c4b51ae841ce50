package gr

import (
	"github.com/gogpu/gr/internal/cache"
	"github.com/gogpu/gr/internal/scratch"
	"github.com/gogpu/gr/pathrender"
)

// ContextOption configures a Context during creation.
//
// Example:
//
//	// Unbuffered drawing with a smaller texture cache
//	ctx, err := gr.NewContext(dev,
//	    gr.WithDrawBuffering(false),
//	    gr.WithCacheLimits(64, 4<<20),
//	)
type ContextOption func(*contextOptions)

// contextOptions holds optional configuration for Context creation.
type contextOptions struct {
	maxCount       int
	maxBytes       int64
	buffering      bool
	softwarePaths  bool
	scratchMinSize int
	pathRenderers  []pathrender.Renderer
	loadShaders    bool
}

// defaultOptions returns the default context options.
func defaultOptions() contextOptions {
	return contextOptions{
		maxCount:       cache.DefaultMaxCount,
		maxBytes:       cache.DefaultMaxBytes,
		buffering:      true,
		softwarePaths:  true,
		scratchMinSize: scratch.DefaultMinSize,
	}
}

// WithCacheLimits sets the texture cache budget: the maximum number of
// cached resources and their total size in bytes.
func WithCacheLimits(maxCount int, maxBytes int64) ContextOption {
	return func(o *contextOptions) {
		o.maxCount = maxCount
		o.maxBytes = maxBytes
	}
}

// WithDrawBuffering selects whether draws are batched until a flush
// (the default) or sent to the device immediately.
func WithDrawBuffering(enabled bool) ContextOption {
	return func(o *contextOptions) {
		o.buffering = enabled
	}
}

// WithSoftwarePathRenderer allows or forbids the CPU path renderer. When
// forbidden, paths no GPU renderer accepts are skipped.
func WithSoftwarePathRenderer(enabled bool) ContextOption {
	return func(o *contextOptions) {
		o.softwarePaths = enabled
	}
}

// WithScratchMinSize sets the smallest dimension of an approximately
// matched scratch texture.
func WithScratchMinSize(size int) ContextOption {
	return func(o *contextOptions) {
		o.scratchMinSize = size
	}
}

// WithPathRenderers adds renderers to the chain after the built-in and
// registered GPU renderers and before the software renderer.
func WithPathRenderers(renderers ...pathrender.Renderer) ContextOption {
	return func(o *contextOptions) {
		o.pathRenderers = append(o.pathRenderers, renderers...)
	}
}

// WithShaderPrograms compiles the built-in WGSL programs and loads them
// into the device when it implements device.ProgramLoader.
func WithShaderPrograms(enabled bool) ContextOption {
	return func(o *contextOptions) {
		o.loadShaders = enabled
	}
}
