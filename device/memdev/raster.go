package memdev

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// Samples are taken slightly off the pixel center so that a pixel center
// lying exactly on a shared triangle edge is owned by one triangle only.
const (
	sampleJitterX = 1.0 / 4099
	sampleJitterY = 1.0 / 8191
)

// Draw rasterizes call into the state's render target.
func (d *Device) Draw(state *device.DrawState, call *device.DrawCall) error {
	target, err := d.target(state.RenderTarget)
	if err != nil {
		return err
	}
	n := len(call.Positions)
	if (len(call.TexCoords) != 0 && len(call.TexCoords) != n) || (len(call.Coverages) != 0 && len(call.Coverages) != n) {
		return fmt.Errorf("%w: attribute count mismatch", device.ErrUnsupported)
	}
	for _, ix := range call.Indices {
		if int(ix) >= n {
			return fmt.Errorf("%w: index %d out of range", device.ErrUnsupported, ix)
		}
	}

	r := &raster{state: state, call: call, target: target, pix: target.pixels()}
	for i, s := range state.Samplers {
		if !s.Enabled() {
			continue
		}
		t, ok := s.Texture.(*Texture)
		if !ok || !t.IsValid() {
			return fmt.Errorf("%w: stage %d texture", device.ErrInvalidResource, i)
		}
		r.textures[i] = t
	}
	if state.Stencil.Pass != device.StencilOff {
		sb, ok := state.Stencil.Buffer.(*StencilBuffer)
		if !ok || !sb.IsValid() || sb.width < target.width || sb.height < target.height {
			return fmt.Errorf("%w: stencil buffer", device.ErrInvalidResource)
		}
		r.stencil = sb
	}

	d.submissions = append(d.submissions, Submission{
		Kind:      SubmitDraw,
		Target:    target.id,
		Primitive: call.Primitive,
		Vertices:  call.VertexCount(),
		Clip:      d.clip,
	})

	r.bounds = geom.IXYWH(0, 0, target.width, target.height)
	if state.Flags.Has(device.StateClip) && d.clip.Enabled {
		var ok bool
		if r.bounds, ok = r.bounds.Intersect(d.clip.Rect); !ok {
			return nil
		}
	}
	inv, ok := state.ViewMatrix.Invert()
	if !ok {
		return nil
	}
	r.inverse = inv
	r.run()
	return nil
}

type raster struct {
	state    *device.DrawState
	call     *device.DrawCall
	target   *RenderTarget
	pix      []byte
	textures [device.NumStages]*Texture
	stencil  *StencilBuffer
	bounds   geom.IRect
	inverse  geom.Matrix
}

func (r *raster) index(i int) int {
	if len(r.call.Indices) > 0 {
		return int(r.call.Indices[i])
	}
	return i
}

func (r *raster) run() {
	count := r.call.VertexCount()
	switch r.call.Primitive {
	case device.PrimitiveTriangles:
		for i := 0; i+2 < count; i += 3 {
			r.triangle(r.index(i), r.index(i+1), r.index(i+2))
		}
	case device.PrimitiveTriangleStrip:
		for i := 0; i+2 < count; i++ {
			if i%2 == 0 {
				r.triangle(r.index(i), r.index(i+1), r.index(i+2))
			} else {
				r.triangle(r.index(i+1), r.index(i), r.index(i+2))
			}
		}
	case device.PrimitiveTriangleFan:
		for i := 1; i+1 < count; i++ {
			r.triangle(r.index(0), r.index(i), r.index(i+1))
		}
	case device.PrimitiveLines:
		for i := 0; i+1 < count; i += 2 {
			r.line(r.index(i), r.index(i+1), true)
		}
	case device.PrimitiveLineStrip:
		for i := 0; i+1 < count; i++ {
			r.line(r.index(i), r.index(i+1), i+2 == count)
		}
	}
}

func edge(a, b, p geom.Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

func (r *raster) triangle(i0, i1, i2 int) {
	m := r.state.ViewMatrix
	v0 := m.TransformPoint(r.call.Positions[i0])
	v1 := m.TransformPoint(r.call.Positions[i1])
	v2 := m.TransformPoint(r.call.Positions[i2])
	area := edge(v0, v1, v2)
	if math.Abs(area) < 1e-12 {
		return
	}
	winding := 1
	if area < 0 {
		winding = -1
	}

	minX := max(r.bounds.Left, int(math.Floor(min(v0.X, v1.X, v2.X))))
	maxX := min(r.bounds.Right, int(math.Ceil(max(v0.X, v1.X, v2.X))))
	minY := max(r.bounds.Top, int(math.Floor(min(v0.Y, v1.Y, v2.Y))))
	maxY := min(r.bounds.Bottom, int(math.Ceil(max(v0.Y, v1.Y, v2.Y))))

	idx := [3]int{i0, i1, i2}
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			s := geom.Pt(float64(x)+0.5+sampleJitterX, float64(y)+0.5+sampleJitterY)
			w0 := edge(v1, v2, s) / area
			w1 := edge(v2, v0, s) / area
			w2 := edge(v0, v1, s) / area
			if w0 <= 0 || w1 <= 0 || w2 <= 0 {
				continue
			}
			r.fragment(x, y, [3]float64{w0, w1, w2}, idx, winding)
		}
	}
}

func (r *raster) line(i0, i1 int, last bool) {
	m := r.state.ViewMatrix
	p0 := m.TransformPoint(r.call.Positions[i0])
	p1 := m.TransformPoint(r.call.Positions[i1])
	d := p1.Sub(p0)
	steps := int(math.Ceil(math.Max(math.Abs(d.X), math.Abs(d.Y))))
	end := steps
	if last {
		end++
	}
	idx := [3]int{i0, i1, i1}
	for k := 0; k < end; k++ {
		t := 0.0
		if steps > 0 {
			t = float64(k) / float64(steps)
		}
		p := p0.Add(d.Mul(t))
		x, y := int(math.Floor(p.X)), int(math.Floor(p.Y))
		if x < r.bounds.Left || x >= r.bounds.Right || y < r.bounds.Top || y >= r.bounds.Bottom {
			continue
		}
		r.fragment(x, y, [3]float64{1 - t, t, 0}, idx, 1)
	}
}

func (r *raster) interp(attr []geom.Point, bary [3]float64, idx [3]int) geom.Point {
	var p geom.Point
	for k := range 3 {
		p = p.Add(attr[idx[k]].Mul(bary[k]))
	}
	return p
}

func (r *raster) fragment(x, y int, bary [3]float64, idx [3]int, winding int) {
	st := r.state
	if r.stencil != nil {
		si := y*r.stencil.width + x
		switch st.Stencil.Pass {
		case device.StencilWriteWinding:
			r.stencil.bits[si] += uint8(int8(winding))
			return
		case device.StencilWriteEvenOdd:
			r.stencil.bits[si] ^= 1
			return
		case device.StencilCoverNonZero:
			if r.stencil.bits[si] == 0 {
				return
			}
			r.stencil.bits[si] = 0
		case device.StencilCoverZero:
			if r.stencil.bits[si] != 0 {
				r.stencil.bits[si] = 0
				return
			}
		}
	}

	cov := st.Coverage
	if len(r.call.Coverages) > 0 {
		var c float64
		for k := range 3 {
			c += float64(r.call.Coverages[idx[k]]) * bary[k]
		}
		cov *= c
	}

	var coord geom.Point
	if len(r.call.TexCoords) > 0 {
		coord = r.interp(r.call.TexCoords, bary, idx)
	} else {
		coord = r.inverse.TransformPoint(geom.Pt(float64(x)+0.5, float64(y)+0.5))
	}

	c := rgba{st.Color.R, st.Color.G, st.Color.B, st.Color.A}
	for s, t := range r.textures {
		if t == nil {
			continue
		}
		smp := st.Samplers[s]
		v := sample(t, smp, smp.Matrix.TransformPoint(coord))
		if s < st.FirstCoverageStage {
			c = c.mul(v)
		} else {
			cov *= v[3]
		}
	}
	if cov <= 0 {
		return
	}
	if st.ColorFilter != nil {
		f := st.ColorFilter
		c = c.mul(rgba{f.R, f.G, f.B, f.A})
	}
	if st.Flags.Has(device.StateColorMatrix) {
		c = applyColorMatrix(c, &st.ColorMatrix)
	}
	if st.Flags.Has(device.StateUnpremultiply) && c[3] > 0 {
		c = rgba{c[0] / c[3], c[1] / c[3], c[2] / c[3], c[3]}
	}

	pi := (y*r.target.width + x) * 4
	dst := unquantize(r.pix[pi : pi+4])
	sf := blendFactor(st.SrcBlend, c)
	df := blendFactor(st.DstBlend, c)
	var out rgba
	for k := range 4 {
		blended := c[k]*sf + dst[k]*df
		out[k] = dst[k] + (blended-dst[k])*min(cov, 1)
	}
	q := quantize(out)
	copy(r.pix[pi:], q[:])
}

func blendFactor(f gputypes.BlendFactor, src rgba) float64 {
	switch f {
	case gputypes.BlendFactorZero:
		return 0
	case gputypes.BlendFactorSrcAlpha:
		return src[3]
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return 1 - src[3]
	}
	return 1
}

func applyColorMatrix(c rgba, m *[20]float32) rgba {
	u := c
	if u[3] > 0 {
		u = rgba{c[0] / c[3], c[1] / c[3], c[2] / c[3], c[3]}
	}
	var out rgba
	for i := range 4 {
		v := float64(m[i*5+4])
		for j := range 4 {
			v += float64(m[i*5+j]) * u[j]
		}
		out[i] = math.Max(0, math.Min(1, v))
	}
	return rgba{out[0] * out[3], out[1] * out[3], out[2] * out[3], out[3]}
}
