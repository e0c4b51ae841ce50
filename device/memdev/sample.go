package memdev

import (
	"math"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// sample reads stage texture t at normalized coordinate uv.
func sample(t *Texture, s device.Sampler, uv geom.Point) rgba {
	var v rgba
	switch s.Effect.Kind {
	case device.EffectConvolution:
		step := effectStep(t, s.Effect.Direction)
		radius := s.Effect.Radius
		if len(s.Effect.Kernel) != 2*radius+1 {
			break
		}
		for k := -radius; k <= radius; k++ {
			w := float64(s.Effect.Kernel[k+radius])
			c := fetch(t, uv.Add(step.Mul(float64(k))), s.Params)
			for i := range 4 {
				v[i] += c[i] * w
			}
		}
	case device.EffectDilate, device.EffectErode:
		step := effectStep(t, s.Effect.Direction)
		dilate := s.Effect.Kind == device.EffectDilate
		if !dilate {
			v = rgba{1, 1, 1, 1}
		}
		for k := -s.Effect.Radius; k <= s.Effect.Radius; k++ {
			c := fetch(t, uv.Add(step.Mul(float64(k))), s.Params)
			for i := range 4 {
				if dilate {
					v[i] = math.Max(v[i], c[i])
				} else {
					v[i] = math.Min(v[i], c[i])
				}
			}
		}
	default:
		v = fetch(t, uv, s.Params)
	}
	if s.SwapRB {
		v[0], v[2] = v[2], v[0]
	}
	if s.Premultiply {
		v[0], v[1], v[2] = v[0]*v[3], v[1]*v[3], v[2]*v[3]
	}
	return v
}

func effectStep(t *Texture, dir device.Direction) geom.Point {
	if dir == device.DirectionY {
		return geom.Pt(0, 1/float64(t.desc.Height))
	}
	return geom.Pt(1/float64(t.desc.Width), 0)
}

func fetch(t *Texture, uv geom.Point, p device.TextureParams) rgba {
	w, h := t.desc.Width, t.desc.Height
	if !p.Filtered() {
		x := address(int(math.Floor(uv.X*float64(w))), w, p.Tiled)
		y := address(int(math.Floor(uv.Y*float64(h))), h, p.Tiled)
		return texel(t, x, y)
	}
	fx := uv.X*float64(w) - 0.5
	fy := uv.Y*float64(h) - 0.5
	x0, y0 := math.Floor(fx), math.Floor(fy)
	ax, ay := fx-x0, fy-y0
	ix, iy := int(x0), int(y0)
	c00 := texel(t, address(ix, w, p.Tiled), address(iy, h, p.Tiled))
	c10 := texel(t, address(ix+1, w, p.Tiled), address(iy, h, p.Tiled))
	c01 := texel(t, address(ix, w, p.Tiled), address(iy+1, h, p.Tiled))
	c11 := texel(t, address(ix+1, w, p.Tiled), address(iy+1, h, p.Tiled))
	var out rgba
	for i := range 4 {
		top := c00[i]*(1-ax) + c10[i]*ax
		bottom := c01[i]*(1-ax) + c11[i]*ax
		out[i] = top*(1-ay) + bottom*ay
	}
	return out
}

func address(i, n int, tiled bool) int {
	if tiled {
		i %= n
		if i < 0 {
			i += n
		}
		return i
	}
	return min(max(i, 0), n-1)
}

func texel(t *Texture, x, y int) rgba {
	i := (y*t.desc.Width + x) * 4
	return unquantize(t.pix[i : i+4])
}
