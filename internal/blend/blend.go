package blend

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/paulmach/orb/planar"

	"github.com/gruppe-adler/landscape-utils/internal/grid"
	"github.com/gruppe-adler/landscape-utils/internal/landuse"
	"github.com/gruppe-adler/landscape-utils/internal/progress"
)

// PhaseBlend is the progress phase reported by the rasterizer
const PhaseBlend = "Rasterizing Blend Weights"

// WeightMap holds one 8 bit weight per grid vertex, row-major
type WeightMap []uint8

// Rasterizer paints land use polygons into per layer blend weights
type Rasterizer struct {
	Geometry grid.Geometry

	// BlendGauge is the width in meters of the transition band centred on
	// polygon boundaries.
	BlendGauge float64

	// KeepEmptyLayers sets a single cell of layers without polygons to 1 so
	// that consumers do not discard them. The settings enable it by default,
	// turning it off writes all-zero maps for empty layers.
	KeepEmptyLayers bool

	Logger *slog.Logger
}

// Run rasterizes all layers. The first layer is the base and covers every
// cell fully, its polygons are ignored. Every later layer takes its weight
// from the layers before it, so each cell sums to 255.
func (r *Rasterizer) Run(ctx context.Context, layers [][]landuse.Polygon, reporter progress.Reporter) ([]WeightMap, error) {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	numCells := r.Geometry.NumCells()
	maps := make([]WeightMap, len(layers))
	if len(layers) == 0 {
		return maps, nil
	}

	maps[0] = make(WeightMap, numCells)
	for i := range maps[0] {
		maps[0][i] = 255
	}

	steps := 0
	for _, polygons := range layers[1:] {
		steps += max(1, len(polygons))
	}
	done := 0

	reporter.Report(PhaseBlend, 0)

	emptyLayers := 0
	for i := 1; i < len(layers); i++ {
		maps[i] = make(WeightMap, numCells)

		if len(layers[i]) == 0 {
			if r.KeepEmptyLayers {
				r.markEmpty(maps[i], emptyLayers)
				emptyLayers++
			}
			done++
			reporter.Report(PhaseBlend, float64(done)/float64(steps))
			continue
		}

		for _, polygon := range layers[i] {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if reporter.CancelRequested() {
				return nil, fmt.Errorf("blend weights: %w", progress.ErrUserCancelled)
			}

			r.paint(maps[:i+1], polygon)

			done++
			reporter.Report(PhaseBlend, float64(done)/float64(steps))
		}

		logger.Debug("rasterized layer", "layer", i, "polygons", len(layers[i]))
	}

	return maps, nil
}

// markEmpty sets the k-th empty layer's marker cell, walking right from the
// grid centre.
func (r *Rasterizer) markEmpty(m WeightMap, k int) {
	n := r.Geometry.NumVerticesForRadius

	x := n + k%n
	y := n + (k/n)%n
	m[r.Geometry.Index(x, y)] = 1
}

// paint rasterizes one polygon into the last of maps
func (r *Rasterizer) paint(maps []WeightMap, polygon landuse.Polygon) {
	layer := maps[len(maps)-1]
	earlier := maps[:len(maps)-1]

	half := r.BlendGauge * 0.5
	size := r.Geometry.Size()
	quad := r.Geometry.QuadSize
	n := r.Geometry.NumVerticesForRadius

	b := polygon.Bound.Pad(half)
	if !b.Intersects(r.Geometry.Bound()) {
		return
	}

	minX := clamp(int(math.Floor(b.Min[0]/quad))+n, 0, size-1)
	minY := clamp(int(math.Floor(b.Min[1]/quad))+n, 0, size-1)
	maxX := clamp(int(math.Ceil(b.Max[0]/quad))+n, 0, size-1)
	maxY := clamp(int(math.Ceil(b.Max[1]/quad))+n, 0, size-1)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := r.Geometry.Local(x, y)

			inside := planar.PolygonContains(polygon.Polygon, p)
			d := planar.DistanceFrom(polygon.Polygon, p)
			if !inside && d >= half {
				continue
			}

			w := weight(d, half, inside)
			index := r.Geometry.Index(x, y)
			if w <= layer[index] {
				continue
			}

			layer[index] = w
			redistribute(earlier, index, 255-int(w))
		}
	}
}

// weight ramps from 0 at half a gauge outside of the boundary to 255 at
// half a gauge inside.
func weight(d, half float64, inside bool) uint8 {
	lerp := 1.0
	if half > 1e-8 {
		if inside {
			lerp = 0.5 + 0.5*d/half
		} else {
			lerp = 0.5 - 0.5*d/half
		}
	}

	w := math.Round(255 * lerp)
	if w > 255 {
		return 255
	}
	if w < 0 {
		return 0
	}
	return uint8(w)
}

// redistribute scales the weights of the given layers at index so that they
// sum to exactly available, keeping their ratios. The rounding residue goes
// to the heaviest layer.
func redistribute(layers []WeightMap, index int, available int) {
	sum := 0
	heaviest := 0
	for i, m := range layers {
		v := int(m[index])
		sum += v
		if v > int(layers[heaviest][index]) {
			heaviest = i
		}
	}

	if sum == 0 {
		if available > 0 && len(layers) > 0 {
			layers[0][index] = uint8(available)
		}
		return
	}

	assigned := 0
	for _, m := range layers {
		v := int(m[index]) * available / sum
		m[index] = uint8(v)
		assigned += v
	}
	layers[heaviest][index] += uint8(available - assigned)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
