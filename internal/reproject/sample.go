package reproject

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"

	"github.com/gruppe-adler/landscape-utils/internal/dem"
)

// LanczosFilterSize is the radius of the Lanczos window in pixels
const LanczosFilterSize = 3

// NoElevation is written for vertices without a usable source sample
const NoElevation uint16 = 32768

// Filter selects the resampling kernel
type Filter int

// Supported filters
const (
	Lanczos Filter = iota
	Nearest
)

func (f Filter) String() string {
	switch f {
	case Lanczos:
		return "lanczos"
	case Nearest:
		return "nearest"
	}
	return fmt.Sprintf("Filter(%d)", int(f))
}

// ParseFilter parses a filter name, the empty name selects Lanczos
func ParseFilter(name string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lanczos":
		return Lanczos, nil
	case "nearest":
		return Nearest, nil
	}
	return Lanczos, fmt.Errorf("unknown filter %q", name)
}

// 5x5 footprint without the corners, which lie outside of the kernel
var lanczosTaps = [13][2]int{
	{0, -2},
	{-1, -1}, {0, -1}, {1, -1},
	{-2, 0}, {-1, 0}, {0, 0}, {1, 0}, {2, 0},
	{-1, 1}, {0, 1}, {1, 1},
	{0, 2},
}

// EvalLanczos evaluates the Lanczos kernel of size 3 at x. The window is
// never sampled outside of its support, so no cut-off is applied.
func EvalLanczos(x float64) float64 {
	if x > -0.0001 && x < 0.0001 {
		return 1
	}

	xpi := x * math.Pi
	return LanczosFilterSize * math.Sin(xpi) * math.Sin(xpi/LanczosFilterSize) / (xpi * xpi)
}

// SampleLanczos filters the tile around the fractional pixel position. The
// caller guarantees a border of at least 2 pixels around pixel.
func SampleLanczos(tile *dem.ElevationTile, pixel orb.Point) float64 {
	ex := int(pixel[0])
	ey := int(pixel[1])
	fx := pixel[0] - float64(ex)
	fy := pixel[1] - float64(ey)

	var value, weightSum float64
	for _, tap := range lanczosTaps {
		dx := fx - float64(tap[0])
		dy := fy - float64(tap[1])

		w := EvalLanczos(math.Sqrt(dx*dx + dy*dy))
		value += tile.At(ex+tap[0], ey+tap[1]) * w
		weightSum += w
	}

	return value / weightSum
}

// SampleNearest returns the height of the pixel containing the position
func SampleNearest(tile *dem.ElevationTile, pixel orb.Point) float64 {
	return tile.At(int(pixel[0]), int(pixel[1]))
}

// Quantize maps v from [min, max] to [0, 65535]. Values outside of the range
// are clamped, a degenerate range maps everything to the mid value.
func Quantize(v, min, max float64) uint16 {
	r := max - min
	if !(r > 0) || math.IsNaN(v) {
		return NoElevation
	}

	q := math.Round((v - min) * 65535 / r)
	if q < 0 {
		return 0
	}
	if q > 65535 {
		return 65535
	}
	return uint16(q)
}

func (f Filter) sample(tile *dem.ElevationTile, pixel orb.Point) float64 {
	if f == Nearest {
		return SampleNearest(tile, pixel)
	}
	return SampleLanczos(tile, pixel)
}

// insideBorder reports whether the full Lanczos footprint around pixel lies
// inside a width x height tile.
func insideBorder(pixel orb.Point, width, height int) bool {
	return pixel[0] >= 2 && pixel[1] >= 2 &&
		pixel[0] < float64(width-3) && pixel[1] < float64(height-3)
}
