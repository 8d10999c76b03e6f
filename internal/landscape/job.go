package landscape

import (
	"errors"
	"fmt"

	"github.com/gruppe-adler/landscape-utils/internal/coords"
	"github.com/gruppe-adler/landscape-utils/internal/grid"
	"github.com/gruppe-adler/landscape-utils/internal/tilesource"
)

// ErrInvalidBounds is returned if the grid does not fit into web mercator
var ErrInvalidBounds = errors.New("chosen elevation bounds are invalid, stay within web mercator bounds")

// Job is the grid of one build and the tiles it needs
type Job struct {
	Geometry   grid.Geometry
	Projection coords.Projection
	Source     tilesource.Source
	Level      uint32
	Keys       []tilesource.TileKey
}

// NewJob selects the tiles covering the grid at the highest level of the
// source, padded by one tile so the filter footprint never leaves the set.
func NewJob(geometry grid.Geometry, projection coords.Projection, source tilesource.Source) (*Job, error) {
	southWest, northEast := geometry.Corners()

	sw, ok := projection.ToSource(southWest)
	if !ok {
		return nil, fmt.Errorf("%w: south west corner %v", ErrInvalidBounds, southWest)
	}
	ne, ok := projection.ToSource(northEast)
	if !ok {
		return nil, fmt.Errorf("%w: north east corner %v", ErrInvalidBounds, northEast)
	}

	level := source.MaxLevel()
	keys := tilesource.Cover(source.TileXY(sw, level), source.TileXY(ne, level), 1)

	return &Job{
		Geometry:   geometry,
		Projection: projection,
		Source:     source,
		Level:      level,
		Keys:       keys,
	}, nil
}
