package terrainrgb

import (
	"image/color"
	"math"
)

/*
	Terrarium tiles pack a height into the red, green and blue channel:

	raw    = R * 256 + G + B / 256
	height = raw - 32768

	The offset of 32768 biases every height into the unsigned range of the
	encoding. R carries whole multiples of 256m, G the remaining meters and
	B the fraction of a meter in 1/256 steps.

	A raw value is only treated as a height if 0 < raw < 41768, which keeps
	everything between -32768m and a bit above Mount Everest. Anything else
	(e.g. the maximum representable encoding used by some sources as no-data)
	is a no-data sample. This range check is an approximation and will
	misclassify legitimate values outside of it.
*/

// Offset is subtracted from the raw encoding to get signed heights.
const Offset = 32768.0

// MaxValidRaw is the exclusive upper bound of raw values treated as heights.
const MaxValidRaw = 41768.0

// Sample is a decoded height or a no-data marker.
type Sample struct {
	Height float64
	Valid  bool
}

// NoData is the sample stored for pixels outside the valid encoding range.
var NoData = Sample{}

// Raw returns the undecoded value of the given channels.
func Raw(r, g, b uint8) float64 {
	return float64(r)*256.0 + float64(g) + float64(b)/256.0
}

// Decode converts the given channels to a sample.
func Decode(r, g, b uint8) Sample {
	raw := Raw(r, g, b)
	if raw <= 0 || raw >= MaxValidRaw {
		return NoData
	}
	return Sample{Height: raw - Offset, Valid: true}
}

// RgbToHeight calculates the height from given rgb values without validation
func RgbToHeight(c color.RGBA) float64 {
	return Raw(c.R, c.G, c.B) - Offset
}

// HeightToRgb calculates rgb values from height
func HeightToRgb(height float64) color.RGBA {
	x := height + Offset
	if x < 0 {
		x = 0
	}

	// quantize to 1/256m, the resolution of the blue channel
	steps := int64(math.Round(x * 256))
	if steps > 256*256*256-1 {
		steps = 256*256*256 - 1
	}

	b := uint8(steps % 256)
	steps /= 256

	g := uint8(steps % 256)
	steps /= 256

	r := uint8(steps % 256)

	return color.RGBA{
		R: r,
		G: g,
		B: b,
		A: 255,
	}
}
