package memdev

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// rgba is a premultiplied color with components in [0,1].
type rgba [4]float64

func (c rgba) mul(o rgba) rgba {
	return rgba{c[0] * o[0], c[1] * o[1], c[2] * o[2], c[3] * o[3]}
}

func (c rgba) scale(s float64) rgba {
	return rgba{c[0] * s, c[1] * s, c[2] * s, c[3] * s}
}

func quantize(c rgba) [4]uint8 {
	var out [4]uint8
	for i, v := range c {
		out[i] = uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return out
}

func unquantize(p []byte) rgba {
	return rgba{float64(p[0]) / 255, float64(p[1]) / 255, float64(p[2]) / 255, float64(p[3]) / 255}
}

func checkTransfer(format gputypes.TextureFormat, buf []byte, rowBytes, w, h int) (bpp, stride int, err error) {
	bpp = device.BytesPerPixel(format)
	if bpp == 0 {
		return 0, 0, fmt.Errorf("%w: format %s", device.ErrUnsupported, device.FormatName(format))
	}
	stride = rowBytes
	if stride == 0 {
		stride = w * bpp
	}
	if stride < w*bpp || len(buf) < stride*(h-1)+w*bpp {
		return 0, 0, fmt.Errorf("%w: buffer too small for %dx%d rows of %d bytes", device.ErrUnsupported, w, h, stride)
	}
	return bpp, stride, nil
}

// storePixels converts src in format into the RGBA store pix.
func storePixels(pix []byte, width int, rect geom.IRect, format gputypes.TextureFormat, src []byte, rowBytes int) error {
	w, h := rect.Width(), rect.Height()
	bpp, stride, err := checkTransfer(format, src, rowBytes, w, h)
	if err != nil {
		return err
	}
	for y := 0; y < h; y++ {
		row := src[y*stride:]
		for x := 0; x < w; x++ {
			s := row[x*bpp:]
			d := pix[((rect.Top+y)*width+rect.Left+x)*4:]
			switch format {
			case gputypes.TextureFormatBGRA8Unorm:
				d[0], d[1], d[2], d[3] = s[2], s[1], s[0], s[3]
			case gputypes.TextureFormatR8Unorm:
				d[0], d[1], d[2], d[3] = s[0], s[0], s[0], s[0]
			default:
				d[0], d[1], d[2], d[3] = s[0], s[1], s[2], s[3]
			}
		}
	}
	return nil
}

// loadPixels converts rect of the RGBA store pix into dst in format.
func loadPixels(dst []byte, rowBytes int, format gputypes.TextureFormat, pix []byte, width int, rect geom.IRect, invertY bool) error {
	w, h := rect.Width(), rect.Height()
	bpp, stride, err := checkTransfer(format, dst, rowBytes, w, h)
	if err != nil {
		return err
	}
	for y := 0; y < h; y++ {
		sy := rect.Top + y
		if invertY {
			sy = rect.Bottom - 1 - y
		}
		row := dst[y*stride:]
		for x := 0; x < w; x++ {
			s := pix[(sy*width+rect.Left+x)*4:]
			d := row[x*bpp:]
			switch format {
			case gputypes.TextureFormatBGRA8Unorm:
				d[0], d[1], d[2], d[3] = s[2], s[1], s[0], s[3]
			case gputypes.TextureFormatR8Unorm:
				d[0] = s[3]
			default:
				d[0], d[1], d[2], d[3] = s[0], s[1], s[2], s[3]
			}
		}
	}
	return nil
}
