package landscape

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gruppe-adler/landscape-utils/internal/acquisition"
	"github.com/gruppe-adler/landscape-utils/internal/blend"
	"github.com/gruppe-adler/landscape-utils/internal/coords"
	"github.com/gruppe-adler/landscape-utils/internal/dem"
	"github.com/gruppe-adler/landscape-utils/internal/grid"
	"github.com/gruppe-adler/landscape-utils/internal/landuse"
	"github.com/gruppe-adler/landscape-utils/internal/progress"
	"github.com/gruppe-adler/landscape-utils/internal/reproject"
	"github.com/gruppe-adler/landscape-utils/internal/settings"
	"github.com/gruppe-adler/landscape-utils/internal/tilecache"
)

// Deps are the collaborators of a build
type Deps struct {
	Fetcher    acquisition.Fetcher
	Cache      tilecache.Cache
	Projection coords.Projection // defaults to the local space around the origin
	Logger     *slog.Logger
}

// NewDeps creates HTTP fetching and a memory cache in front of the disk cache.
// The closer stops the memory cache.
func NewDeps(s *settings.Settings, logger *slog.Logger) (Deps, io.Closer) {
	fetcher := acquisition.NewHTTPFetcher(s.Tiles.UserAgent)
	fetcher.Timeout = s.Tiles.Timeout

	deps := Deps{
		Fetcher: fetcher,
		Cache:   tilecache.Nop{},
		Logger:  logger,
	}
	if s.Cache.Disabled {
		return deps, closerFunc(func() error { return nil })
	}

	memory := tilecache.NewMemory(s.Cache.MemoryTiles, s.Cache.MemoryTTL)
	disk := tilecache.NewDisk(s.Cache.Directory, s.Tiles.Extension, logger)
	deps.Cache = tilecache.NewLayered(memory, disk)

	return deps, closerFunc(func() error {
		memory.Close()
		return nil
	})
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Result holds everything a build produced
type Result struct {
	Origin       settings.Origin
	Geometry     grid.Geometry
	Transform    grid.Transform
	Heights      []uint16 // row-major, Size * Size
	LayerNames   []string
	Layers       []blend.WeightMap
	ElevationMin float64
	ElevationMax float64
	LightingLOD  int
	Job          *Job
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d Deps) projection(s *settings.Settings) coords.Projection {
	if d.Projection != nil {
		return d.Projection
	}
	return coords.NewSpatialReferenceSystem(s.Origin.Longitude, s.Origin.Latitude)
}

// Plan derives the grid and the required tiles of a build
func Plan(s *settings.Settings, deps Deps) (*Job, error) {
	geometry, err := grid.NewGeometry(s.Landscape.Radius, s.Landscape.QuadSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBounds, err)
	}

	return NewJob(geometry, deps.projection(s), s.Source())
}

// Fetch runs the acquisition phase of a build only
func Fetch(ctx context.Context, s *settings.Settings, deps Deps, reporter progress.Reporter) (*Job, *dem.TileSet, error) {
	job, err := Plan(s, deps)
	if err != nil {
		return nil, nil, err
	}

	tiles, err := fetch(ctx, s, deps, job, reporter)
	if err != nil {
		return job, nil, err
	}
	return job, tiles, nil
}

func fetch(ctx context.Context, s *settings.Settings, deps Deps, job *Job, reporter progress.Reporter) (*dem.TileSet, error) {
	scheduler := &acquisition.Scheduler{
		Source:              job.Source,
		Cache:               deps.Cache,
		Fetcher:             deps.Fetcher,
		MaxPendingDownloads: s.Tiles.MaxPendingDownloads,
		Timeout:             s.Tiles.Timeout,
		PollInterval:        s.Tiles.PollInterval,
		Logger:              deps.logger(),
	}

	deps.logger().Info("downloading elevation tiles", "tiles", len(job.Keys), "level", job.Level, "size", job.Geometry.Size())
	return scheduler.Run(ctx, job.Keys, reporter)
}

// Build runs a complete build: tile acquisition, reprojection into the grid
// and blend weight rasterization. Nothing is returned unless every phase
// succeeded.
func Build(ctx context.Context, s *settings.Settings, deps Deps, reporter progress.Reporter) (*Result, error) {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	logger := deps.logger()

	filter, err := reproject.ParseFilter(s.Landscape.Filter)
	if err != nil {
		return nil, err
	}

	job, err := Plan(s, deps)
	if err != nil {
		return nil, err
	}

	// land use is read first, a broken file should fail before any download
	polygons, err := loadLanduse(s, job, logger)
	if err != nil {
		return nil, err
	}

	tiles, err := fetch(ctx, s, deps, job, reporter)
	if err != nil {
		return nil, err
	}
	min, max := tiles.Range()

	reprojector := &reproject.Reprojector{
		Geometry:   job.Geometry,
		Projection: job.Projection,
		Source:     job.Source,
		Level:      job.Level,
		Filter:     filter,
		Logger:     logger,
	}
	heights, err := reprojector.Run(ctx, tiles, reporter)
	if err != nil {
		return nil, err
	}

	rasterizer := &blend.Rasterizer{
		Geometry:        job.Geometry,
		BlendGauge:      s.Landscape.BlendGauge,
		KeepEmptyLayers: s.Landscape.KeepEmptyLayers,
		Logger:          logger,
	}
	layers, err := rasterizer.Run(ctx, polygons, reporter)
	if err != nil {
		return nil, err
	}

	return &Result{
		Origin:       s.Origin,
		Geometry:     job.Geometry,
		Transform:    grid.NewTransform(job.Geometry, min, max),
		Heights:      heights,
		LayerNames:   s.LayerNames(),
		Layers:       layers,
		ElevationMin: min,
		ElevationMax: max,
		LightingLOD:  grid.LightingLOD(job.Geometry.Size()),
		Job:          job,
	}, nil
}

func loadLanduse(s *settings.Settings, job *Job, logger *slog.Logger) ([][]landuse.Polygon, error) {
	if len(s.Landuse.Paths) == 0 {
		return make([][]landuse.Polygon, len(s.Layers)), nil
	}

	files, err := landuse.FindFiles(s.Landuse.Paths)
	if err != nil {
		return nil, fmt.Errorf("land use: %w", err)
	}
	features, err := landuse.ReadFiles(files)
	if err != nil {
		return nil, fmt.Errorf("land use: %w", err)
	}

	polygons := landuse.Classify(features, s.Layers, job.Projection, logger)
	for i, layer := range s.Layers {
		logger.Info("land use layer", "layer", layer.Name, "polygons", len(polygons[i]))
	}
	return polygons, nil
}
