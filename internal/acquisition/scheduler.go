package acquisition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/gruppe-adler/landscape-utils/internal/dem"
	"github.com/gruppe-adler/landscape-utils/internal/progress"
	"github.com/gruppe-adler/landscape-utils/internal/tilecache"
	"github.com/gruppe-adler/landscape-utils/internal/tilesource"
)

// PhaseDownload is the progress phase reported by the scheduler
const PhaseDownload = "Downloading Elevation Model"

// Defaults of the scheduler
const (
	DefaultMaxPendingDownloads = 10
	DefaultPollInterval        = 100 * time.Millisecond
)

// Scheduler acquires the tiles of a job with a bounded number of concurrent
// downloads. The first failing tile aborts the whole job.
type Scheduler struct {
	Source              tilesource.Source
	Cache               tilecache.Cache
	Fetcher             Fetcher
	MaxPendingDownloads int
	Timeout             time.Duration
	PollInterval        time.Duration
	Logger              *slog.Logger
}

// Job is one run of the scheduler
type Job struct {
	Acquisitions []*Acquisition
}

// NewJob creates the acquisitions of all keys without starting them
func (s *Scheduler) NewJob(keys []tilesource.TileKey) *Job {
	job := &Job{Acquisitions: make([]*Acquisition, len(keys))}
	for i, key := range keys {
		job.Acquisitions[i] = New(key, s.Source, s.Cache, s.Fetcher, s.Timeout, s.logger())
	}
	return job
}

// Run acquires all given tiles, see RunJob
func (s *Scheduler) Run(ctx context.Context, keys []tilesource.TileKey, reporter progress.Reporter) (*dem.TileSet, error) {
	return s.RunJob(ctx, s.NewJob(keys), reporter)
}

// RunJob drives all acquisitions of job to a final state. It returns the set
// of decoded tiles, or an error if any tile failed or the user cancelled, in
// which case all unfinished tiles are cancelled and no tiles are returned.
func (s *Scheduler) RunJob(ctx context.Context, job *Job, reporter progress.Reporter) (*dem.TileSet, error) {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	logger := s.logger()

	total := len(job.Acquisitions)
	tiles := dem.NewTileSet()
	if total == 0 {
		reporter.Report(PhaseDownload, 1)
		return tiles, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slots := semaphore.NewWeighted(int64(s.maxPendingDownloads()))
	finished := make(chan *Acquisition, total)

	g := new(errgroup.Group)
	for _, a := range job.Acquisitions {
		a := a
		g.Go(func() error {
			a.Run(ctx, slots)
			finished <- a
			return nil
		})
	}

	ticker := time.NewTicker(s.pollInterval())
	defer ticker.Stop()

	numFinished := 0
	var jobErr error

	reporter.Report(PhaseDownload, 0)

Loop:
	for numFinished < total {
		select {
		case a := <-finished:
			numFinished++

			if a.Succeeded() {
				tiles.Add(a.Tile())
				reporter.Report(PhaseDownload, float64(numFinished)/float64(total))
				continue
			}

			// we failed to get one tile so cancel the rest because we cannot proceed without it
			jobErr = a.Err()
			if jobErr == nil {
				jobErr = fmt.Errorf("tile %s ended in state %s", a.Key, a.State())
			}
			break Loop

		case <-ticker.C:
			if reporter.CancelRequested() {
				jobErr = ErrUserCancelled
				break Loop
			}

		case <-ctx.Done():
			jobErr = fmt.Errorf("%w: %v", ErrUserCancelled, ctx.Err())
			break Loop
		}
	}

	if jobErr != nil {
		// stop the job context first so no tile can still reach Decoded
		cancel()
		for _, a := range job.Acquisitions {
			a.Cancel()
		}
	}

	// all tasks return nil, Wait only makes sure none of them outlives the job
	_ = g.Wait()

	if jobErr != nil {
		logger.Error("elevation download aborted", "tiles", total, "decoded", tiles.Len(), "error", jobErr)
		return nil, fmt.Errorf("%w (%d of %d): %w", ErrIncompleteTileSet, tiles.Len(), total, jobErr)
	}

	min, max := tiles.Range()
	logger.Info("elevation model downloaded", "tiles", total, "min", min, "max", max)

	return tiles, nil
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Scheduler) maxPendingDownloads() int {
	if s.MaxPendingDownloads <= 0 {
		return DefaultMaxPendingDownloads
	}
	return s.MaxPendingDownloads
}

func (s *Scheduler) pollInterval() time.Duration {
	if s.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return s.PollInterval
}
