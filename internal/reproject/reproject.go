package reproject

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/gruppe-adler/landscape-utils/internal/coords"
	"github.com/gruppe-adler/landscape-utils/internal/dem"
	"github.com/gruppe-adler/landscape-utils/internal/grid"
	"github.com/gruppe-adler/landscape-utils/internal/progress"
	"github.com/gruppe-adler/landscape-utils/internal/tilesource"
)

// PhaseReproject is the progress phase reported by the reprojector
const PhaseReproject = "Reprojecting Elevation Model"

// Tiles is the lookup of decoded tiles, satisfied by *dem.TileSet
type Tiles interface {
	Get(key tilesource.TileKey) *dem.ElevationTile
	Range() (min, max float64)
}

// Reprojector resamples the elevation tiles into the output grid
type Reprojector struct {
	Geometry   grid.Geometry
	Projection coords.Projection
	Source     tilesource.Source
	Level      uint32
	Filter     Filter
	Workers    int
	Logger     *slog.Logger
}

// Run computes the quantized height of every grid vertex, row-major. Rows
// are independent, so they are processed in parallel bands; the result does
// not depend on the number of workers.
func (r *Reprojector) Run(ctx context.Context, tiles Tiles, reporter progress.Reporter) ([]uint16, error) {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	size := r.Geometry.Size()
	heights := make([]uint16, size*size)
	min, max := tiles.Range()

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	bandSize := size / (workers * 4)
	if bandSize < 1 {
		bandSize = 1
	}

	var rowsDone atomic.Int64
	var missing atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	reporter.Report(PhaseReproject, 0)

	for start := 0; start < size; start += bandSize {
		start := start
		end := start + bandSize
		if end > size {
			end = size
		}

		g.Go(func() error {
			for y := start; y < end; y++ {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if reporter.CancelRequested() {
					return progress.ErrUserCancelled
				}

				missing.Add(int64(r.row(tiles, heights[y*size:(y+1)*size], y, min, max)))

				done := rowsDone.Add(1)
				reporter.Report(PhaseReproject, float64(done)/float64(size))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reprojection stopped after %d of %d rows: %w", rowsDone.Load(), size, err)
	}

	if n := missing.Load(); n > 0 {
		logger.Warn("vertices without elevation", "count", n, "value", NoElevation)
	}

	return heights, nil
}

// row fills one output row and returns the number of vertices set to NoElevation
func (r *Reprojector) row(tiles Tiles, out []uint16, y int, min, max float64) int {
	missing := 0
	for x := range out {
		out[x] = NoElevation

		mercator, ok := r.Projection.ToSource(r.Geometry.Local(x, y))
		if !ok {
			missing++
			continue
		}

		key, pixel := r.Source.Locate(mercator, r.Level)
		tile := tiles.Get(key)
		if tile == nil || !insideBorder(pixel, tile.Width, tile.Height) {
			missing++
			continue
		}

		out[x] = Quantize(r.Filter.sample(tile, pixel), min, max)
	}
	return missing
}
