// Package color converts 32-bit pixels between channel orders and between
// premultiplied and unpremultiplied alpha.
//
// Premultiplication uses lookup tables indexed by alpha and channel value,
// replacing a multiply and divide per channel with one array access.
package color

// premulLUT[a][c] is c*a/255 rounded.
var premulLUT [256][256]uint8

// unpremulLUT[a][c] is c*255/a rounded and clamped; zero when a is zero.
var unpremulLUT [256][256]uint8

func init() {
	for a := 0; a < 256; a++ {
		for c := 0; c < 256; c++ {
			premulLUT[a][c] = uint8((c*a + 127) / 255)
			if a == 0 {
				continue
			}
			unpremulLUT[a][c] = uint8(min(255, (c*255+a/2)/a))
		}
	}
}

// Premultiply returns c scaled by alpha a.
func Premultiply(c, a uint8) uint8 { return premulLUT[a][c] }

// Unpremultiply returns c divided by alpha a.
func Unpremultiply(c, a uint8) uint8 { return unpremulLUT[a][c] }
