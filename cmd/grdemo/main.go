// Command grdemo renders a sample scene through the gr context on the
// in-memory device and saves it as a PNG.
package main

import (
	"flag"
	"image"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr"
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/device/memdev"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/path"
)

func main() {
	var (
		width     = flag.Int("width", 800, "image width")
		height    = flag.Int("height", 600, "image height")
		output    = flag.String("output", "demo.png", "output file")
		buffering = flag.Bool("buffer", true, "batch draws in the deferred command buffer")
		verbose   = flag.Bool("v", false, "log cache and flush activity")
	)
	flag.Parse()

	if *verbose {
		gr.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	dev := memdev.New()
	ctx, err := gr.NewContext(dev, gr.WithDrawBuffering(*buffering))
	if err != nil {
		log.Fatalf("Failed to create context: %v", err)
	}
	defer ctx.Close()

	window, err := dev.NewRenderTarget(*width, *height, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		log.Fatalf("Failed to create render target: %v", err)
	}
	defer window.Release()
	ctx.SetRenderTarget(window)

	steps := []func(*gr.Context, int, int) error{
		drawGradientBackground,
		drawShadowDemo,
		drawShapesDemo,
		drawTransformDemo,
		drawPathDemo,
	}
	for _, step := range steps {
		if err := step(ctx, *width, *height); err != nil {
			log.Fatalf("Failed to draw: %v", err)
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, *width, *height))
	if err := ctx.ReadRenderTargetPixels(window, geom.IXYWH(0, 0, *width, *height),
		gputypes.TextureFormatRGBA8Unorm, img.Pix, img.Stride, gr.PixelOpsUnpremul); err != nil {
		log.Fatalf("Failed to read pixels: %v", err)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	stats := ctx.CacheStats()
	log.Printf("Demo saved to %s (%dx%d), %d submissions, %d cached textures\n",
		*output, *width, *height, len(dev.Submissions()), stats.Count)
}

func rgba(r, g, b, a float64) gputypes.Color {
	return gputypes.Color{R: r * a, G: g * a, B: b * a, A: a}
}

func rotate(cx, cy, angle float64) geom.Matrix {
	s, c := math.Sincos(angle)
	return geom.Matrix{A: c, B: -s, C: cx, D: s, E: c, F: cy}
}

func drawGradientBackground(ctx *gr.Context, w, h int) error {
	steps := 100
	band := float64(h) / float64(steps)
	for i := range steps {
		t := float64(i) / float64(steps)
		p := gr.NewPaint(rgba(0.1+t*0.4, 0.2+t*0.3, 0.4+t*0.2, 1))
		if err := ctx.DrawRect(p, geom.XYWH(0, band*float64(i), float64(w), band+1), -1, nil); err != nil {
			return err
		}
	}
	return nil
}

// drawShadowDemo blurs an offscreen silhouette and composites it through a
// mask stage.
func drawShadowDemo(ctx *gr.Context, w, h int) error {
	shape, err := ctx.LockScratchTexture(device.TextureDesc{
		Flags:  device.FlagRenderTarget,
		Width:  w,
		Height: h,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}, gr.MatchExact)
	if err != nil {
		return err
	}
	defer ctx.UnlockTexture(shape)

	if err := ctx.Clear(nil, gputypes.Color{}, shape.RenderTarget()); err != nil {
		return err
	}
	silhouette := geom.XYWH(350, 100, 120, 80)
	func() {
		guard := ctx.AutoRenderTarget(shape.RenderTarget())
		defer guard.Restore()
		err = ctx.DrawRect(gr.NewPaint(rgba(0, 0, 0, 1)), silhouette, -1, nil)
	}()
	if err != nil {
		return err
	}

	blurred, err := ctx.GaussianBlur(shape, true, geom.XYWH(0, 0, float64(w), float64(h)), 6, 6)
	if err != nil {
		return err
	}
	defer ctx.UnlockTexture(blurred)

	p := gr.NewPaint(rgba(0, 0, 0, 0.6))
	p.SetMask(0, blurred, geom.IDiv(w, h).Multiply(geom.Translate(-8, -8)))
	return ctx.DrawRect(p, silhouette.Inset(-24, -24).Offset(8, 8), -1, nil)
}

func drawShapesDemo(ctx *gr.Context, _, _ int) error {
	circles := []struct {
		x, y  float64
		color gputypes.Color
	}{
		{150, 150, rgba(1, 0.3, 0.3, 0.8)},
		{200, 150, rgba(0.3, 1, 0.3, 0.8)},
		{175, 200, rgba(0.3, 0.3, 1, 0.8)},
	}
	for _, c := range circles {
		p := gr.NewPaint(c.color)
		p.Antialias = true
		if err := ctx.DrawOval(p, geom.XYWH(c.x-60, c.y-60, 120, 120), -1); err != nil {
			return err
		}
	}

	box := geom.XYWH(350, 100, 120, 80)
	fill := gr.NewPaint(rgba(1, 0.8, 0, 1))
	fill.Antialias = true
	if err := ctx.DrawRect(fill, box, -1, nil); err != nil {
		return err
	}
	stroke := gr.NewPaint(rgba(1, 1, 1, 1))
	stroke.Antialias = true
	return ctx.DrawRect(stroke, box, 4, nil)
}

func drawTransformDemo(ctx *gr.Context, _, _ int) error {
	for i := range 8 {
		angle := float64(i) * math.Pi / 4
		err := func() error {
			guard := ctx.AutoMatrix(rotate(600, 150, angle))
			defer guard.Restore()
			t := float64(i) / 8
			p := gr.NewPaint(rgba(0.5+t/2, 0.8-t/2, 0.6, 0.9))
			return ctx.DrawRect(p, geom.XYWH(-30, -30, 60, 60), -1, nil)
		}()
		if err != nil {
			return err
		}
	}
	return nil
}

func drawPathDemo(ctx *gr.Context, _, _ int) error {
	curve := path.New()
	curve.MoveTo(150, 400)
	curve.CubicTo(200, 350, 250, 450, 300, 400)
	curve.CubicTo(350, 370, 400, 430, 450, 400)
	if err := ctx.DrawPath(gr.NewPaint(rgba(1, 0.5, 0, 1)), curve, path.Hairline, nil); err != nil {
		return err
	}

	const points = 5
	outerR, innerR := 60.0, 30.0
	star := path.New()
	for i := range points * 2 {
		angle := float64(i) * math.Pi / points
		r := outerR
		if i%2 == 1 {
			r = innerR
		}
		x := 550 + r*math.Cos(angle-math.Pi/2)
		y := 400 + r*math.Sin(angle-math.Pi/2)
		if i == 0 {
			star.MoveTo(x, y)
		} else {
			star.LineTo(x, y)
		}
	}
	star.Close()
	p := gr.NewPaint(rgba(1, 1, 0, 1))
	p.Antialias = true
	if err := ctx.DrawPath(p, star, path.NonZero, nil); err != nil {
		return err
	}

	ring := path.New()
	ring.AddOval(geom.XYWH(660, 340, 120, 120))
	ring.AddOval(geom.XYWH(690, 370, 60, 60))
	return ctx.DrawPath(gr.NewPaint(rgba(0.2, 0.9, 0.9, 1)), ring, path.EvenOdd, nil)
}
