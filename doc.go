// Package gr is the orchestration core of a GPU 2D renderer.
//
// # Overview
//
// A Context turns draw requests (fill a rect, fill a path, draw raw
// vertices, blur a texture) into GPU resources and an ordered command
// stream for a device.Device. It owns three cooperating parts:
//
//   - a resource cache holding client textures, scratch textures and
//     stencil buffers under a count and byte budget
//   - a deferred command buffer that batches draws until a flush
//   - a path renderer chain that picks a GPU strategy per path and falls
//     back to CPU rasterization
//
// # Quick Start
//
//	dev := memdev.New()
//	tex, _ := dev.CreateTexture(device.TextureDesc{
//	    Flags:  device.FlagRenderTarget,
//	    Width:  256,
//	    Height: 256,
//	    Format: gputypes.TextureFormatRGBA8Unorm,
//	}, nil, 0)
//
//	ctx, err := gr.NewContext(dev)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Close()
//
//	ctx.SetRenderTarget(tex.RenderTarget())
//	p := gr.NewPaint(gputypes.Color{R: 1, A: 1})
//	p.Antialias = true
//	ctx.DrawPath(p, path.NewOval(geom.XYWH(32, 32, 192, 192)), path.NonZero, nil)
//	ctx.Flush(0)
//
// # Flushing
//
// Buffered draws reach the device on Flush, before any pixel transfer
// (unless PixelOpsDontFlush is passed) and when buffering is switched off.
// Flush is re-entrant: a flush requested while the buffer is replaying
// (for example by a path renderer uploading a mask) returns immediately
// and draws issued during replay go straight to the device.
//
// # Resources
//
// Textures returned by the Lock/Create methods stay locked until
// UnlockTexture. Locked resources are never evicted. Scratch textures are
// interchangeable and are reused across unrelated draws.
//
// # Concurrency
//
// A Context must be used from one goroutine at a time.
package gr
