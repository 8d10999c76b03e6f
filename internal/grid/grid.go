package grid

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/paulmach/orb"
)

// ErrInvalidGeometry is returned for non-positive radius or quad size
var ErrInvalidGeometry = errors.New("invalid grid geometry")

// Geometry describes the square output grid centred on the local origin.
// Vertex (x, y) lies at local position ((x-N)*QuadSize, (y-N)*QuadSize).
type Geometry struct {
	NumVerticesForRadius int     // N
	SubsectionSizeQuads  int     // N is a multiple of it
	QuadSize             float64 // meters between vertices
}

// NewGeometry derives the grid covering radius meters around the origin.
// The number of vertices is rounded up so that the grid splits into whole
// subsections.
func NewGeometry(radius, quadSize float64) (Geometry, error) {
	if !(radius > 0) || !(quadSize > 0) || math.IsInf(radius, 0) || math.IsInf(quadSize, 0) {
		return Geometry{}, fmt.Errorf("%w: radius %v, quad size %v", ErrInvalidGeometry, radius, quadSize)
	}

	n := int(math.Round(radius / quadSize))
	if n < 1 {
		n = 1
	}

	subsection := int(roundUpPow2(uint64(n))/16) - 1
	if subsection < 1 {
		subsection = 1
	}

	n = (n + subsection - 1) / subsection * subsection

	return Geometry{
		NumVerticesForRadius: n,
		SubsectionSizeQuads:  subsection,
		QuadSize:             quadSize,
	}, nil
}

// Size is the number of vertices per side
func (g Geometry) Size() int {
	return 2 * g.NumVerticesForRadius
}

// NumCells is Size squared
func (g Geometry) NumCells() int {
	return g.Size() * g.Size()
}

// Radius is the distance from the origin to the grid border in meters
func (g Geometry) Radius() float64 {
	return float64(g.NumVerticesForRadius) * g.QuadSize
}

// Local returns the local position of grid vertex (x, y)
func (g Geometry) Local(x, y int) orb.Point {
	n := g.NumVerticesForRadius
	return orb.Point{float64(x-n) * g.QuadSize, float64(y-n) * g.QuadSize}
}

// Cell returns the vertex closest to a local position, unclamped
func (g Geometry) Cell(local orb.Point) (int, int) {
	n := g.NumVerticesForRadius
	return int(math.Round(local[0]/g.QuadSize)) + n, int(math.Round(local[1]/g.QuadSize)) + n
}

// Index is the row-major offset of vertex (x, y)
func (g Geometry) Index(x, y int) int {
	return y*g.Size() + x
}

// Corners returns the south-west and north-east corners of the grid in local
// meters. Local +y points south.
func (g Geometry) Corners() (southWest, northEast orb.Point) {
	r := g.Radius()
	return orb.Point{-r, r}, orb.Point{r, -r}
}

// Bound returns the local extent of the grid
func (g Geometry) Bound() orb.Bound {
	r := g.Radius()
	return orb.Bound{Min: orb.Point{-r, -r}, Max: orb.Point{r, r}}
}

// Transform maps grid units and quantized heights to world scale
type Transform struct {
	ScaleXY float64
	ScaleZ  float64
}

// NewTransform derives the world transform for the grid and elevation range
func NewTransform(g Geometry, min, max float64) Transform {
	return Transform{
		ScaleXY: 100 * g.QuadSize / 128,
		ScaleZ:  (max - min) / 256 / (512.0 / 100.0),
	}
}

// LightingLOD is the static lighting level of detail for a grid of the given
// side length.
func LightingLOD(size int) int {
	s := uint64(size)
	v := s*s/(2048*2048) + 1
	return int((ceilLog2(v) + 1) / 2)
}

func roundUpPow2(v uint64) uint64 {
	if v <= 1 {
		return 1
	}
	return 1 << ceilLog2(v)
}

func ceilLog2(v uint64) uint {
	if v <= 1 {
		return 0
	}
	return uint(bits.Len64(v - 1))
}
