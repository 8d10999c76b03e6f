package dem

import (
	"math"

	"github.com/gruppe-adler/landscape-utils/internal/terrainrgb"
	"github.com/gruppe-adler/landscape-utils/internal/tilesource"
)

// ElevationTile holds the decoded samples of one tile
type ElevationTile struct {
	Key     tilesource.TileKey
	Width   int
	Height  int
	Samples []terrainrgb.Sample // row-major, Width * Height

	// Min and Max only cover valid samples. Without any valid sample Min is
	// +Inf and Max is -Inf.
	Min float64
	Max float64
}

// HasValidSamples reports whether at least one sample carries a height
func (t *ElevationTile) HasValidSamples() bool {
	return t.Min <= t.Max
}

// Sample returns the sample at the given pixel
func (t *ElevationTile) Sample(x, y int) terrainrgb.Sample {
	return t.Samples[y*t.Width+x]
}

// At returns the height at the given pixel. No-data samples read as the
// lowest valid height of the tile, or 0 if the tile has none.
func (t *ElevationTile) At(x, y int) float64 {
	s := t.Samples[y*t.Width+x]
	if s.Valid {
		return s.Height
	}
	return t.fallback()
}

func (t *ElevationTile) fallback() float64 {
	if t.HasValidSamples() {
		return t.Min
	}
	return 0
}

// TileSet is the resident set of decoded tiles of a job
type TileSet struct {
	tiles map[tilesource.TileKey]*ElevationTile

	// Min and Max cover all tiles of the set
	Min float64
	Max float64
}

// NewTileSet creates an empty set
func NewTileSet() *TileSet {
	return &TileSet{
		tiles: make(map[tilesource.TileKey]*ElevationTile),
		Min:   math.Inf(1),
		Max:   math.Inf(-1),
	}
}

// Add puts a tile into the set and widens the elevation range
func (s *TileSet) Add(tile *ElevationTile) {
	s.tiles[tile.Key] = tile
	s.Min = math.Min(s.Min, tile.Min)
	s.Max = math.Max(s.Max, tile.Max)
}

// Get returns the tile with the given key or nil
func (s *TileSet) Get(key tilesource.TileKey) *ElevationTile {
	return s.tiles[key]
}

// Len returns the number of tiles
func (s *TileSet) Len() int {
	return len(s.tiles)
}

// Range returns the elevation range of the set, the zero range if no tile
// contained a valid sample.
func (s *TileSet) Range() (min, max float64) {
	if s.Min > s.Max {
		return 0, 0
	}
	return s.Min, s.Max
}
