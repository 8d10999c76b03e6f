package acquisition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/gruppe-adler/landscape-utils/internal/dem"
	"github.com/gruppe-adler/landscape-utils/internal/tilecache"
	"github.com/gruppe-adler/landscape-utils/internal/tilesource"
)

// DefaultTimeout is the wall-clock budget of a single download
const DefaultTimeout = 10 * time.Second

// Acquisition loads one tile from the cache or downloads it
type Acquisition struct {
	Key tilesource.TileKey

	source  tilesource.Source
	cache   tilecache.Cache
	fetcher Fetcher
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	state   State
	history []State
	tile    *dem.ElevationTile
	err     error
	abort   context.CancelFunc
}

// New creates an acquisition for the given tile
func New(key tilesource.TileKey, source tilesource.Source, cache tilecache.Cache, fetcher Fetcher, timeout time.Duration, logger *slog.Logger) *Acquisition {
	if cache == nil {
		cache = tilecache.Nop{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Acquisition{
		Key:     key,
		source:  source,
		cache:   cache,
		fetcher: fetcher,
		timeout: timeout,
		logger:  logger,
		state:   NotStarted,
		history: []State{NotStarted},
	}
}

// State returns the current state
func (a *Acquisition) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// HasFinished reports whether the acquisition reached a final state
func (a *Acquisition) HasFinished() bool {
	return a.State().HasFinished()
}

// Succeeded reports whether the tile was decoded
func (a *Acquisition) Succeeded() bool {
	return a.State() == Decoded
}

// History returns all states the acquisition went through, in order
func (a *Acquisition) History() []State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]State(nil), a.history...)
}

// Tile returns the decoded tile, nil unless the state is Decoded
func (a *Acquisition) Tile() *dem.ElevationTile {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Decoded {
		return nil
	}
	return a.tile
}

// Err returns the reason of a failure or cancellation
func (a *Acquisition) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Cancel moves an unfinished acquisition to Cancelled and aborts its request
func (a *Acquisition) Cancel() {
	a.cancelWith(context.Canceled)
}

func (a *Acquisition) cancelWith(reason error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.transitionLocked(Cancelled) {
		return
	}
	a.err = reason
	if a.abort != nil {
		a.abort()
	}
}

// transitionLocked moves to the given state. It returns false, and leaves the
// state alone, if the transition is not allowed.
func (a *Acquisition) transitionLocked(to State) bool {
	if !canTransition(a.state, to) {
		return false
	}
	a.state = to
	a.history = append(a.history, to)
	return true
}

func (a *Acquisition) transition(to State) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transitionLocked(to)
}

func (a *Acquisition) fail(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.transitionLocked(Failed) {
		a.err = err
		a.logger.Error("elevation tile failed", "tile", a.Key.String(), "error", err)
	}
}

func (a *Acquisition) decoded(tile *dem.ElevationTile) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.transitionLocked(Decoded) {
		return false
	}
	a.tile = tile
	return true
}

// Run drives the acquisition to a final state. A cache hit does not need a
// download slot, downloads hold one of slots while in Downloading. Run never
// returns an error, the outcome is the final state.
func (a *Acquisition) Run(ctx context.Context, slots *semaphore.Weighted) {
	if ctx.Err() != nil {
		a.cancelWith(ctx.Err())
		return
	}

	// try to load data from cache first
	if raw, ok := a.cache.Load(a.Key); ok {
		tile, err := dem.Decode(a.Key, raw, a.source.TileWidth, a.source.TileHeight)
		if err == nil {
			if a.transition(CacheHit) {
				a.decoded(tile)
			}
			return
		}
		a.logger.Debug("ignoring invalid cached tile", "tile", a.Key.String(), "error", err)
	}

	if slots != nil {
		if err := slots.Acquire(ctx, 1); err != nil {
			a.cancelWith(err)
			return
		}
		defer slots.Release(1)
	}

	a.download(ctx)
}

func (a *Acquisition) download(ctx context.Context) {
	reqCtx, abort := context.WithTimeout(ctx, a.timeout)
	defer abort()

	a.mu.Lock()
	if !a.transitionLocked(Downloading) {
		a.mu.Unlock()
		return
	}
	a.abort = abort
	a.mu.Unlock()

	url := a.source.URL(a.Key)
	a.logger.Debug("downloading elevation tile", "tile", a.Key.String(), "url", url)

	raw, err := a.fetcher.Fetch(reqCtx, url)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			a.cancelWith(ctx.Err())
		case errors.Is(err, context.Canceled):
			// Cancel() was called while the request was in flight
			a.cancelWith(err)
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.DeadlineExceeded):
			a.fail(fmt.Errorf("%w: tile %s after %s", ErrTimeout, a.Key, a.timeout))
		case errors.Is(err, ErrNetwork):
			a.fail(err)
		default:
			a.fail(fmt.Errorf("%w: %v", ErrNetwork, err))
		}
		return
	}

	tile, err := dem.Decode(a.Key, raw, a.source.TileWidth, a.source.TileHeight)
	if err != nil {
		a.fail(fmt.Errorf("tile %s: %w", a.Key, err))
		return
	}
	if ctx.Err() != nil {
		a.cancelWith(ctx.Err())
		return
	}

	if !a.decoded(tile) {
		return
	}

	// the cache is an optimization only, a failed write is logged by the cache
	a.cache.Store(a.Key, raw)
}
