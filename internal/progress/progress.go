package progress

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrUserCancelled is returned by phases that stopped on a cancel request
var ErrUserCancelled = errors.New("cancelled by user")

// Reporter receives the progress of a job phase as a fraction in [0, 1] and
// is polled for user cancellation.
type Reporter interface {
	Report(phase string, fraction float64)
	CancelRequested() bool
}

// Nop ignores progress and never cancels
type Nop struct{}

// Report implements Reporter
func (Nop) Report(string, float64) {}

// CancelRequested implements Reporter
func (Nop) CancelRequested() bool { return false }

// Tracker prints phase progress to a writer and carries a cancel flag that
// can be raised from any goroutine, e.g. a signal handler.
type Tracker struct {
	out      io.Writer
	logger   *slog.Logger
	interval time.Duration

	cancelled atomic.Bool

	mu       sync.Mutex
	phase    string
	fraction float64
	printed  time.Time
}

// NewTracker creates a tracker printing at most once per interval per phase
func NewTracker(out io.Writer, logger *slog.Logger, interval time.Duration) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{out: out, logger: logger, interval: interval}
}

// Report implements Reporter. Within a phase progress never goes backwards.
func (t *Tracker) Report(phase string, fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if phase != t.phase {
		t.phase = phase
		t.fraction = 0
		t.printed = time.Time{}
	}
	if fraction < t.fraction {
		return
	}
	t.fraction = fraction

	now := time.Now()
	if fraction < 1 && now.Sub(t.printed) < t.interval {
		return
	}
	t.printed = now

	t.logger.Debug("progress", "phase", phase, "fraction", fraction)
	if t.out != nil {
		fmt.Fprintf(t.out, "    ⏳  %s %5.1f%%\n", phase, fraction*100)
	}
}

// Fraction returns the last reported fraction of the current phase
func (t *Tracker) Fraction() (string, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase, t.fraction
}

// RequestCancel raises the cancel flag
func (t *Tracker) RequestCancel() {
	if t.cancelled.CompareAndSwap(false, true) {
		t.logger.Warn("cancel requested")
	}
}

// CancelRequested implements Reporter
func (t *Tracker) CancelRequested() bool {
	return t.cancelled.Load()
}
