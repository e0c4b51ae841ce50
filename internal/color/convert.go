package color

import "github.com/gogpu/gputypes"

// Config8888 is a 32-bit pixel layout: channel order plus alpha mode.
type Config8888 uint8

const (
	RGBAPremul Config8888 = iota
	RGBAUnpremul
	BGRAPremul
	BGRAUnpremul
)

var configNames = [...]string{
	RGBAPremul:   "RGBAPremul",
	RGBAUnpremul: "RGBAUnpremul",
	BGRAPremul:   "BGRAPremul",
	BGRAUnpremul: "BGRAUnpremul",
}

// String returns the config name.
func (c Config8888) String() string {
	if int(c) < len(configNames) {
		return configNames[c]
	}
	return "Unknown"
}

// IsBGRA reports whether red and blue are swapped relative to RGBA.
func (c Config8888) IsBGRA() bool { return c == BGRAPremul || c == BGRAUnpremul }

// IsPremul reports whether color channels are premultiplied.
func (c Config8888) IsPremul() bool { return c == RGBAPremul || c == BGRAPremul }

// ConfigFor maps a texture format and alpha mode to a Config8888. ok is
// false for formats that are not 32-bit RGBA layouts.
func ConfigFor(format gputypes.TextureFormat, unpremul bool) (cfg Config8888, ok bool) {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm:
		cfg = RGBAPremul
	case gputypes.TextureFormatBGRA8Unorm:
		cfg = BGRAPremul
	default:
		return 0, false
	}
	if unpremul {
		cfg++
	}
	return cfg, true
}

// ConvertPixels copies a w x h block from src to dst converting between
// configs. Row strides are in bytes; zero means tightly packed. src and dst
// may be the same buffer when the strides are equal.
func ConvertPixels(dst []byte, dstRowBytes int, dstCfg Config8888, src []byte, srcRowBytes int, srcCfg Config8888, w, h int) {
	if dstRowBytes == 0 {
		dstRowBytes = w * 4
	}
	if srcRowBytes == 0 {
		srcRowBytes = w * 4
	}
	swap := dstCfg.IsBGRA() != srcCfg.IsBGRA()
	premul := dstCfg.IsPremul() && !srcCfg.IsPremul()
	unpremul := !dstCfg.IsPremul() && srcCfg.IsPremul()

	for y := 0; y < h; y++ {
		s := src[y*srcRowBytes : y*srcRowBytes+w*4]
		d := dst[y*dstRowBytes : y*dstRowBytes+w*4]
		for x := 0; x < w*4; x += 4 {
			r, g, b, a := s[x], s[x+1], s[x+2], s[x+3]
			if swap {
				r, b = b, r
			}
			switch {
			case premul:
				r, g, b = premulLUT[a][r], premulLUT[a][g], premulLUT[a][b]
			case unpremul:
				r, g, b = unpremulLUT[a][r], unpremulLUT[a][g], unpremulLUT[a][b]
			}
			d[x], d[x+1], d[x+2], d[x+3] = r, g, b, a
		}
	}
}
