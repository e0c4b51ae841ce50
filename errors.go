package gr

import (
	"errors"

	"github.com/gogpu/gr/internal/cache"
)

var (
	// ErrUnsupportedFormat is returned by pixel transfers whose formats
	// have no common 8888 representation. Nothing is written.
	ErrUnsupportedFormat = errors.New("gr: unsupported pixel format combination")

	// ErrNoRenderTarget is returned when an operation needs a render
	// target and none is bound or the texture is not renderable.
	ErrNoRenderTarget = errors.New("gr: no render target")

	// ErrSingularMatrix is returned when a draw needs the inverse of a
	// view matrix that has none.
	ErrSingularMatrix = errors.New("gr: view matrix is not invertible")

	// ErrRectOutOfBounds is returned by pixel transfers whose rect is empty
	// or not inside the target.
	ErrRectOutOfBounds = errors.New("gr: rect outside target")

	// ErrContextClosed is returned by operations on a closed Context.
	ErrContextClosed = errors.New("gr: context closed")

	// ErrResourceLocked is returned when freeing a cached resource that
	// is still locked.
	ErrResourceLocked = cache.ErrEntryLocked

	// ErrUnknownResource is returned for resources the cache does not
	// own.
	ErrUnknownResource = cache.ErrUnknownEntry
)
