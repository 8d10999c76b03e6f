package tilesource

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"
)

// TileKey identifies one raster tile of a source
type TileKey struct {
	Zoom uint32
	X    uint32
	Y    uint32
}

func (k TileKey) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Zoom, k.X, k.Y)
}

// Tile returns the key as orb maptile
func (k TileKey) Tile() maptile.Tile {
	return maptile.New(k.X, k.Y, maptile.Zoom(k.Zoom))
}

// Source describes a tiled elevation service
type Source struct {
	URLTemplate string
	TileWidth   int
	TileHeight  int
	NumLevels   uint32
	Extension   string
}

// Terrarium is the public terrarium elevation tile set
func Terrarium() Source {
	return Source{
		URLTemplate: "https://s3.amazonaws.com/elevation-tiles-prod/terrarium/%d/%d/%d.png",
		TileWidth:   256,
		TileHeight:  256,
		NumLevels:   16,
		Extension:   "png",
	}
}

// MaxLevel is the highest resolution level of the source
func (s Source) MaxLevel() uint32 {
	if s.NumLevels == 0 {
		return 0
	}
	return s.NumLevels - 1
}

// URL builds the address of the given tile. The template is either a printf
// format taking zoom, x and y or uses {z}, {x} and {y} placeholders.
func (s Source) URL(key TileKey) string {
	if strings.Contains(s.URLTemplate, "{z}") {
		r := strings.NewReplacer(
			"{z}", strconv.FormatUint(uint64(key.Zoom), 10),
			"{x}", strconv.FormatUint(uint64(key.X), 10),
			"{y}", strconv.FormatUint(uint64(key.Y), 10),
		)
		return r.Replace(s.URLTemplate)
	}
	return fmt.Sprintf(s.URLTemplate, key.Zoom, key.X, key.Y)
}

// Locate returns the tile containing the given EPSG:3857 position and the
// fractional pixel position inside of it.
func (s Source) Locate(mercator orb.Point, level uint32) (TileKey, orb.Point) {
	f := maptile.Fraction(project.Mercator.ToWGS84(mercator), maptile.Zoom(level))

	n := float64(uint32(1) << level)
	fx := clamp(f.X(), 0, n-1e-9)
	fy := clamp(f.Y(), 0, n-1e-9)

	tx := math.Floor(fx)
	ty := math.Floor(fy)

	key := TileKey{Zoom: level, X: uint32(tx), Y: uint32(ty)}
	pixel := orb.Point{
		(fx - tx) * float64(s.TileWidth),
		(fy - ty) * float64(s.TileHeight),
	}

	return key, pixel
}

// TileXY returns only the tile index of the given EPSG:3857 position
func (s Source) TileXY(mercator orb.Point, level uint32) TileKey {
	key, _ := s.Locate(mercator, level)
	return key
}

// Cover returns all keys of the rectangle spanned by the two given tiles,
// padded by pad tiles on every side and clamped to the valid index range.
// Keys are ordered row by row.
func Cover(a, b TileKey, pad int) []TileKey {
	level := a.Zoom
	numTiles := int64(1) << level

	// the tile order of the source is unknown, so sort the corners
	minX := max64(min64(int64(a.X), int64(b.X))-int64(pad), 0)
	minY := max64(min64(int64(a.Y), int64(b.Y))-int64(pad), 0)
	maxX := min64(max64(int64(a.X), int64(b.X))+int64(pad), numTiles-1)
	maxY := min64(max64(int64(a.Y), int64(b.Y))+int64(pad), numTiles-1)

	keys := make([]TileKey, 0, (maxX-minX+1)*(maxY-minY+1))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			keys = append(keys, TileKey{Zoom: level, X: uint32(x), Y: uint32(y)})
		}
	}

	return keys
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
