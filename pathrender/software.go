package pathrender

import (
	"cmp"
	"image"
	"image/draw"
	"math"
	"slices"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/vector"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/path"
)

// SoftwareRenderer rasterizes a coverage mask on the CPU, uploads it to a
// scratch texture and draws it through the first coverage stage.
type SoftwareRenderer struct{}

// NewSoftwareRenderer creates the CPU fallback renderer.
func NewSoftwareRenderer() *SoftwareRenderer { return &SoftwareRenderer{} }

func (*SoftwareRenderer) Name() string { return "software" }
func (*SoftwareRenderer) Kind() Kind   { return KindSoftware }

// CanDrawPath always succeeds.
func (*SoftwareRenderer) CanDrawPath(*path.Path, path.FillRule, bool) bool { return true }

// DrawPath renders p through a CPU mask.
func (*SoftwareRenderer) DrawPath(h Host, p *path.Path, fill path.FillRule, translate geom.Point, aa bool) error {
	stack := h.DrawState()
	st := stack.State()

	clipBounds, ok := targetBounds(st)
	if !ok {
		return nil
	}
	cs := deviceContours(p, translate, st.ViewMatrix)
	bounds := clipBounds
	if !fill.IsInverse() {
		var pts []geom.Point
		for _, c := range cs {
			pts = append(pts, c.Points...)
		}
		pb := geom.BoundsOf(pts)
		if fill == path.Hairline {
			pb = pb.Inset(-1, -1)
		}
		if bounds, ok = pb.RoundOut().Intersect(clipBounds); !ok {
			return nil
		}
	}

	mask := RasterizeMask(cs, bounds, fill, aa)

	tex, err := h.LockScratchTexture(device.TextureDesc{
		Width:  bounds.Width(),
		Height: bounds.Height(),
		Format: gputypes.TextureFormatR8Unorm,
	}, false)
	if err != nil {
		return err
	}
	defer h.UnlockTexture(tex)

	err = h.WriteTexturePixels(tex, geom.IXYWH(0, 0, bounds.Width(), bounds.Height()),
		gputypes.TextureFormatR8Unorm, mask.Pix, mask.Stride)
	if err != nil {
		return err
	}

	g, ok := stack.SaveDeviceCoords()
	if !ok {
		return nil
	}
	defer g.Restore()

	stage := st.FirstCoverageStage
	st.Samplers[stage] = device.Sampler{
		Texture: tex,
		Matrix: geom.IDiv(tex.Width(), tex.Height()).
			Multiply(geom.Translate(-float64(bounds.Left), -float64(bounds.Top))),
	}
	return h.Draw(device.RectCall(bounds.ToRect()))
}

// RasterizeMask renders device-space contours into an alpha mask covering
// bounds. Antialiased non-zero fills use golang.org/x/image/vector; other
// fills sample pixel centers. Inverse fills are inverted.
func RasterizeMask(cs []path.Contour, bounds geom.IRect, fill path.FillRule, aa bool) *image.Alpha {
	w, h := bounds.Width(), bounds.Height()
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	ox, oy := float64(bounds.Left), float64(bounds.Top)

	switch {
	case fill == path.Hairline:
		strokeHairlines(mask, cs, ox, oy)
	case aa && !fill.IsEvenOdd():
		z := vector.NewRasterizer(w, h)
		z.DrawOp = draw.Src
		for _, c := range cs {
			if len(c.Points) < 2 {
				continue
			}
			z.MoveTo(float32(c.Points[0].X-ox), float32(c.Points[0].Y-oy))
			for _, pt := range c.Points[1:] {
				z.LineTo(float32(pt.X-ox), float32(pt.Y-oy))
			}
			z.ClosePath()
		}
		z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	default:
		scanFill(mask, cs, ox, oy, fill.IsEvenOdd())
	}

	if fill.IsInverse() {
		for i, v := range mask.Pix {
			mask.Pix[i] = 255 - v
		}
	}
	return mask
}

type crossing struct {
	x       float64
	winding int
}

// scanFill fills pixels whose center is inside the contours.
func scanFill(mask *image.Alpha, cs []path.Contour, ox, oy float64, evenOdd bool) {
	b := mask.Bounds()
	var xs []crossing
	for y := b.Min.Y; y < b.Max.Y; y++ {
		sy := float64(y) + 0.5 + oy
		xs = xs[:0]
		for _, c := range cs {
			n := len(c.Points)
			if n < 2 {
				continue
			}
			for i := range n {
				p0, p1 := c.Points[i], c.Points[(i+1)%n]
				if (p0.Y <= sy) == (p1.Y <= sy) {
					continue
				}
				t := (sy - p0.Y) / (p1.Y - p0.Y)
				wd := 1
				if p1.Y < p0.Y {
					wd = -1
				}
				xs = append(xs, crossing{x: p0.X + t*(p1.X-p0.X) - ox, winding: wd})
			}
		}
		slices.SortFunc(xs, func(a, b crossing) int { return cmp.Compare(a.x, b.x) })

		k, winding := 0, 0
		row := mask.Pix[y*mask.Stride:]
		for x := b.Min.X; x < b.Max.X; x++ {
			cx := float64(x) + 0.5
			for k < len(xs) && xs[k].x <= cx {
				if evenOdd {
					winding ^= 1
				} else {
					winding += xs[k].winding
				}
				k++
			}
			if winding != 0 {
				row[x] = 255
			}
		}
	}
}

// strokeHairlines plots one-pixel lines along every contour.
func strokeHairlines(mask *image.Alpha, cs []path.Contour, ox, oy float64) {
	b := mask.Bounds()
	plot := func(x, y int) {
		if x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y {
			mask.Pix[y*mask.Stride+x] = 255
		}
	}
	for _, c := range cs {
		n := len(c.Points)
		segs := n - 1
		if c.Closed {
			segs = n
		}
		for i := range segs {
			p0 := c.Points[i].Sub(geom.Pt(ox, oy))
			p1 := c.Points[(i+1)%n].Sub(geom.Pt(ox, oy))
			d := p1.Sub(p0)
			steps := int(math.Max(math.Abs(d.X), math.Abs(d.Y))) + 1
			for s := 0; s <= steps; s++ {
				pt := p0.Add(d.Mul(float64(s) / float64(steps)))
				plot(int(math.Floor(pt.X)), int(math.Floor(pt.Y)))
			}
		}
	}
}
